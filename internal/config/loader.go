package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envConfigDefaultPath = "HCCHAT_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
	defaultSettingsName  = "settings.yaml"
	defaultLogName       = "hcchat.log"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("ws_url", cfg.WSURL)
	v.SetDefault("proxies", cfg.Proxies)
	v.SetDefault("origin", cfg.Origin)
	v.SetDefault("user_agent", cfg.UserAgent)
	v.SetDefault("nick", cfg.Nick)
	v.SetDefault("channel", cfg.Channel)
	v.SetDefault("auto_reconnect", cfg.AutoReconnect)
	v.SetDefault("reconnect_delay", cfg.ReconnectDelay)
	v.SetDefault("reconnect_max_delay", cfg.ReconnectMaxDelay)
	v.SetDefault("max_reconnect_attempts", cfg.MaxReconnectAttempts)
	v.SetDefault("ping_interval", cfg.PingInterval)
	v.SetDefault("dial_timeout", cfg.DialTimeout)
	v.SetDefault("write_timeout", cfg.WriteTimeout)
	v.SetDefault("read_limit", cfg.ReadLimit)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("settings_path", cfg.SettingsPath)

	v.SetEnvPrefix("HCCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if cfg.SettingsPath == "" {
		cfg.SettingsPath = filepath.Join(dir, defaultSettingsName)
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(dir, defaultLogName)
	}

	return cfg, configPath, nil
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "hcchat", defaultConfigName)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
