package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vovakirdan/hackchat-client/internal/chat"
	"github.com/vovakirdan/hackchat-client/internal/client"
	"github.com/vovakirdan/hackchat-client/internal/session"
)

// runLine prints the channel as plain text and sends every input line.
func runLine(ctx context.Context, c *client.Client, creds session.Credentials, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, unsubscribe := c.Subscribe()
	defer unsubscribe()

	if err := c.Join(creds.Nick, creds.Channel, creds.Password); err != nil {
		return fmt.Errorf("join: %w", err)
	}
	fmt.Fprintf(out, "Connecting to ?%s as %s. Type messages and press Enter to send, /quit to exit.\n", creds.Channel, creds.Nick)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	p := printer{out: out}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub:
			p.print(c)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := handleLine(c, line, out); err != nil {
				if errors.Is(err, client.ErrQuit) {
					return nil
				}
				fmt.Fprintf(out, "! %v\n", err)
			}
			p.print(c)
		}
	}
}

func handleLine(c *client.Client, line string, out io.Writer) error {
	switch strings.TrimSpace(line) {
	case "":
		return nil
	case "/help":
		fmt.Fprintln(out, client.HelpText)
		return nil
	}
	if client.IsCommand(line) {
		return client.RunCommand(c, line)
	}
	if strings.HasPrefix(line, "//") {
		line = line[1:]
	}
	return c.Send(line)
}

// printer writes messages that have not been shown yet. It tracks its
// position in the full log so block rule changes neither replay nor skip
// entries.
type printer struct {
	out    io.Writer
	gen    uint64
	next   int
	status session.Status
}

func (p *printer) print(c *client.Client) {
	v := c.View()
	if v.Status != p.status {
		p.status = v.Status
		line := "-- " + v.Status.String()
		if v.Err != nil {
			line += ": " + v.Err.Error()
		}
		fmt.Fprintln(p.out, line)
	}
	b := c.LogSince(p.gen, p.next)
	for _, m := range b.Messages {
		fmt.Fprintln(p.out, formatLine(m))
	}
	p.gen, p.next = b.Generation, b.Next
}

func formatLine(m chat.Message) string {
	ts := m.CreatedAt().Format("15:04")
	if m.IsSystem() {
		return fmt.Sprintf("[%s] %s", ts, strings.Trim(m.Text, "*"))
	}
	nick := m.Nick
	if m.Trip != "" {
		nick += "#" + m.Trip
	}
	return fmt.Sprintf("[%s] %s: %s", ts, nick, m.Text)
}
