package config

import "time"

// DefaultWSURL is the public hack.chat endpoint.
const DefaultWSURL = "wss://hack.chat/chat-ws"

// Config holds client configuration values.
type Config struct {
	WSURL     string   `mapstructure:"ws_url" yaml:"ws_url"`
	Proxies   []string `mapstructure:"proxies" yaml:"proxies"`
	Origin    string   `mapstructure:"origin" yaml:"origin"`
	UserAgent string   `mapstructure:"user_agent" yaml:"user_agent"`

	Nick    string `mapstructure:"nick" yaml:"nick"`
	Channel string `mapstructure:"channel" yaml:"channel"`

	AutoReconnect        bool          `mapstructure:"auto_reconnect" yaml:"auto_reconnect"`
	ReconnectDelay       time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay"`
	ReconnectMaxDelay    time.Duration `mapstructure:"reconnect_max_delay" yaml:"reconnect_max_delay"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts" yaml:"max_reconnect_attempts"`
	PingInterval         time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`

	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ReadLimit    int64         `mapstructure:"read_limit" yaml:"read_limit"`

	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFile      string `mapstructure:"log_file" yaml:"log_file"`
	SettingsPath string `mapstructure:"settings_path" yaml:"settings_path"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		WSURL:                DefaultWSURL,
		Origin:               "https://hack.chat",
		UserAgent:            "hcchat/1",
		Channel:              "programming",
		AutoReconnect:        true,
		ReconnectDelay:       2 * time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		MaxReconnectAttempts: 3,
		PingInterval:         60 * time.Second,
		DialTimeout:          10 * time.Second,
		WriteTimeout:         5 * time.Second,
		ReadLimit:            1 << 20,
		LogLevel:             "info",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Booleans cannot be told apart from their zero value and are left alone.
func (c *Config) UpdateFrom(other Config) {
	if other.WSURL != "" {
		c.WSURL = other.WSURL
	}
	if len(other.Proxies) > 0 {
		c.Proxies = append([]string(nil), other.Proxies...)
	}
	if other.Origin != "" {
		c.Origin = other.Origin
	}
	if other.UserAgent != "" {
		c.UserAgent = other.UserAgent
	}
	if other.Nick != "" {
		c.Nick = other.Nick
	}
	if other.Channel != "" {
		c.Channel = other.Channel
	}
	if other.ReconnectDelay != 0 {
		c.ReconnectDelay = other.ReconnectDelay
	}
	if other.ReconnectMaxDelay != 0 {
		c.ReconnectMaxDelay = other.ReconnectMaxDelay
	}
	if other.MaxReconnectAttempts != 0 {
		c.MaxReconnectAttempts = other.MaxReconnectAttempts
	}
	if other.PingInterval != 0 {
		c.PingInterval = other.PingInterval
	}
	if other.DialTimeout != 0 {
		c.DialTimeout = other.DialTimeout
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.ReadLimit != 0 {
		c.ReadLimit = other.ReadLimit
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
	if other.SettingsPath != "" {
		c.SettingsPath = other.SettingsPath
	}
}

// Endpoint returns the websocket URL to dial. proxy selects an entry of
// Proxies (1-based); zero or out of range falls back to WSURL.
func (c Config) Endpoint(proxy int) string {
	if proxy > 0 && proxy <= len(c.Proxies) && c.Proxies[proxy-1] != "" {
		return c.Proxies[proxy-1]
	}
	return c.WSURL
}
