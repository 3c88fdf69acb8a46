package app

import (
	"context"
	"fmt"
	"io"

	"github.com/vovakirdan/hackchat-client/internal/client"
	"github.com/vovakirdan/hackchat-client/internal/session"
)

// smoke checks a server end to end: join, send, wait for the echo.
func smoke(ctx context.Context, c *client.Client, creds session.Credentials, text string, out io.Writer) error {
	sub, unsubscribe := c.Subscribe()
	defer unsubscribe()

	if err := c.Join(creds.Nick, creds.Channel, creds.Password); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	sent := false
	for {
		v := c.View()
		switch v.Status {
		case session.StatusFailed, session.StatusDisconnected:
			return fmt.Errorf("smoke: %s: %w", v.Status, v.Err)
		case session.StatusJoined:
			if !sent {
				fmt.Fprintf(out, "joined ?%s with %d online\n", v.Credentials.Channel, len(v.Users))
				if err := c.Send(text); err != nil {
					return fmt.Errorf("send: %w", err)
				}
				sent = true
			}
			for _, m := range v.Messages {
				if m.Nick == v.Self() && m.Text == text {
					fmt.Fprintf(out, "echo received at %s\n", m.CreatedAt().Format("15:04:05"))
					return nil
				}
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("smoke: %w", ctx.Err())
		case <-sub:
		}
	}
}
