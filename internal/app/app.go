package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/hackchat-client/internal/client"
	"github.com/vovakirdan/hackchat-client/internal/config"
	applog "github.com/vovakirdan/hackchat-client/internal/log"
	"github.com/vovakirdan/hackchat-client/internal/session"
	"github.com/vovakirdan/hackchat-client/internal/settings"
	"github.com/vovakirdan/hackchat-client/internal/transport/ws"
	"github.com/vovakirdan/hackchat-client/internal/tui"
)

// App wires the transport, session engine, settings and facade together.
type App struct {
	cfg           config.Config
	endpoint      string
	autoReconnect bool
	client        *client.Client
	settings      *settings.Store
	log           *zerolog.Logger
}

// Options are the command line choices that outrank both config and the
// settings file.
type Options struct {
	// Proxy picks one of the configured proxy endpoints (1-based, settings
	// proxies after config ones); zero dials ws_url.
	Proxy int
	// NoReconnect disables automatic reconnects for this run.
	NoReconnect bool
}

// New constructs the application.
func New(cfg config.Config, opts Options, logger *zerolog.Logger) (*App, error) {
	logger = applog.OrNop(logger)
	st, err := settings.Open(cfg.SettingsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("init settings: %w", err)
	}

	cfg.Proxies = append(cfg.Proxies, st.Snapshot().Proxies...)
	endpoint := cfg.Endpoint(opts.Proxy)
	autoReconnect := st.AutoReconnect(cfg.AutoReconnect) && !opts.NoReconnect
	logger.Info().
		Str("endpoint", endpoint).
		Str("settings", cfg.SettingsPath).
		Bool("auto_reconnect", autoReconnect).
		Msg("client configured")

	tr := ws.New(ws.Options{
		DialTimeout:  cfg.DialTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ReadLimit:    cfg.ReadLimit,
		Origin:       cfg.Origin,
		UserAgent:    cfg.UserAgent,
	}, logger)

	sess := session.New(tr, session.Config{
		URL:                  endpoint,
		PingInterval:         cfg.PingInterval,
		AutoReconnect:        autoReconnect,
		ReconnectDelay:       cfg.ReconnectDelay,
		ReconnectMaxDelay:    cfg.ReconnectMaxDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	}, logger)

	return &App{
		cfg:           cfg,
		endpoint:      endpoint,
		autoReconnect: autoReconnect,
		client:        client.New(sess, st, logger),
		settings:      st,
		log:           logger,
	}, nil
}

// Client exposes the facade.
func (a *App) Client() *client.Client {
	return a.client
}

// Endpoint is the websocket URL the session dials.
func (a *App) Endpoint() string {
	return a.endpoint
}

// AutoReconnect reports the reconnect policy the session started with.
func (a *App) AutoReconnect() bool {
	return a.autoReconnect
}

// RunTUI blocks in the terminal UI until the user quits or ctx ends.
func (a *App) RunTUI(ctx context.Context, creds session.Credentials) error {
	defer a.cleanup()
	return tui.Run(ctx, a.client, tui.Options{
		Nick:     creds.Nick,
		Channel:  creds.Channel,
		Password: creds.Password,
	}, a.log)
}

// RunLine runs the stdin/stdout client until in is exhausted, /quit, or ctx
// ends.
func (a *App) RunLine(ctx context.Context, creds session.Credentials, in io.Reader, out io.Writer) error {
	defer a.cleanup()
	return runLine(ctx, a.client, creds, in, out)
}

// Smoke joins, sends text and waits for the server to echo it back.
func (a *App) Smoke(ctx context.Context, creds session.Credentials, text string, out io.Writer) error {
	defer a.cleanup()
	return smoke(ctx, a.client, creds, text, out)
}

// cleanup closes the session.
func (a *App) cleanup() {
	if err := a.client.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close session")
	} else {
		a.log.Debug().Msg("session closed")
	}
}
