package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/hackchat-client/internal/app"
	"github.com/vovakirdan/hackchat-client/internal/config"
	applog "github.com/vovakirdan/hackchat-client/internal/log"
	"github.com/vovakirdan/hackchat-client/internal/session"
)

type options struct {
	configPath  string
	url         string
	proxy       int
	nick        string
	channel     string
	password    string
	askPassword bool
	noReconnect bool
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "hcchat",
		Short:        "Terminal client for hack.chat",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd, opts, true)
			if err != nil {
				return err
			}
			defer env.close()
			return env.app.RunTUI(env.ctx, env.creds)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file path (default: user config dir)")
	pf.StringVar(&opts.url, "url", "", "websocket endpoint, overrides ws_url")
	pf.IntVar(&opts.proxy, "proxy", 0, "use the Nth configured proxy endpoint instead of ws_url")
	pf.StringVarP(&opts.nick, "nick", "n", "", "nickname")
	pf.StringVarP(&opts.channel, "channel", "c", "", "channel to join")
	pf.StringVar(&opts.password, "password", "", "tripcode password")
	pf.BoolVar(&opts.askPassword, "ask-password", false, "read the tripcode password from the terminal")
	pf.BoolVar(&opts.noReconnect, "no-reconnect", false, "disable automatic reconnect")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error, off")

	root.AddCommand(newLineCmd(opts), newSmokeCmd(opts))
	return root
}

func newLineCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "line",
		Short: "Plain stdin/stdout client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			defer env.close()
			if err := requireIdentity(env.creds); err != nil {
				return err
			}
			return env.app.RunLine(env.ctx, env.creds, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newSmokeCmd(opts *options) *cobra.Command {
	var (
		text    string
		timeout = defaultSmokeTimeout
	)
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Join, send one message and wait for its echo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			defer env.close()
			if err := requireIdentity(env.creds); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(env.ctx, timeout)
			defer cancel()
			return env.app.Smoke(ctx, env.creds, text, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&text, "text", "hello from hcchat smoke test", "message text to send")
	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "total timeout for the run")
	return cmd
}

// runEnv is everything a subcommand needs once flags and config are merged.
type runEnv struct {
	app    *app.App
	creds  session.Credentials
	ctx    context.Context
	stop   context.CancelFunc
	closer io.Closer
}

func (e *runEnv) close() {
	e.stop()
	if e.closer != nil {
		_ = e.closer.Close()
	}
}

func setup(cmd *cobra.Command, opts *options, logToFile bool) (*runEnv, error) {
	boot := applog.New("warn", cmd.ErrOrStderr())
	cfg, path, err := config.Load(boot, opts.configPath)
	if err != nil {
		return nil, err
	}
	cfg.UpdateFrom(config.Config{
		WSURL:    opts.url,
		Nick:     opts.nick,
		Channel:  opts.channel,
		LogLevel: opts.logLevel,
	})

	password := opts.password
	if opts.askPassword {
		password, err = readPassword(cmd.ErrOrStderr())
		if err != nil {
			return nil, err
		}
	}

	var (
		logger *zerolog.Logger
		closer io.Closer
	)
	if logToFile {
		logger, closer, err = applog.NewFile(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return nil, err
		}
	} else {
		logger = applog.New(cfg.LogLevel, cmd.ErrOrStderr())
	}
	logger.Debug().Str("config", path).Msg("config loaded")

	a, err := app.New(cfg, app.Options{Proxy: opts.proxy, NoReconnect: opts.noReconnect}, logger)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	return &runEnv{
		app:    a,
		creds:  session.Credentials{Nick: cfg.Nick, Channel: cfg.Channel, Password: password},
		ctx:    ctx,
		stop:   stop,
		closer: closer,
	}, nil
}

func requireIdentity(creds session.Credentials) error {
	if _, err := creds.Normalize(); err != nil {
		return fmt.Errorf("--nick and --channel (or nick/channel in config): %w", err)
	}
	return nil
}

func readPassword(prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--ask-password needs an interactive terminal")
	}
	fmt.Fprint(prompt, "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

const defaultSmokeTimeout = 10 * time.Second
