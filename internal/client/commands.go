package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/hackchat-client/internal/filter"
)

// ErrQuit is returned by RunCommand for /quit.
var ErrQuit = errors.New("quit")

type commandHandler func(c *Client, args []string) error

var commandHandlers = map[string]commandHandler{
	"/join":        cmdJoin,
	"/block":       oneArg("nick", (*Client).BlockNick),
	"/unblock":     oneArg("nick", (*Client).UnblockNick),
	"/blocktrip":   oneArg("trip", (*Client).BlockTrip),
	"/unblocktrip": oneArg("trip", (*Client).UnblockTrip),
	"/reply":       cmdReply,
	"/mention":     cmdMention,
	"/highlight":   cmdHighlight,
	"/reconnect":   cmdReconnect,
	"/proxy":       cmdProxy,
	"/quit":        func(*Client, []string) error { return ErrQuit },
}

// HelpText lists the slash commands.
const HelpText = `/join <channel> [nick] [password]  join or switch channel
/reply <nick>                        quote the last message of nick
/mention <nick>                      add @nick to the draft
/block <nick>, /unblock <nick>       hide or show a nick
/blocktrip <trip>, /unblocktrip <trip>
/highlight <nick|#trip> [color] [label]
                                     highlight a user's messages
/reconnect on|off                    toggle automatic reconnect
/proxy <wss-url>                     save an extra endpoint for --proxy
/quit                                leave
Enter sends, Alt+Enter inserts a newline, Tab/Enter completes @mentions.`

// IsCommand reports whether a draft is a slash command rather than a message.
func IsCommand(text string) bool {
	return strings.HasPrefix(text, "/") && !strings.HasPrefix(text, "//")
}

// RunCommand executes a slash command against c. Unknown commands and bad
// arguments come back as errors.
func RunCommand(c *Client, input string) error {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	h, ok := commandHandlers[name]
	if !ok {
		return fmt.Errorf("unknown command %s", name)
	}
	return h(c, fields[1:])
}

func oneArg(what string, fn func(*Client, string) error) commandHandler {
	return func(c *Client, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected one %s", what)
		}
		return fn(c, args[0])
	}
}

func cmdJoin(c *Client, args []string) error {
	switch len(args) {
	case 1:
		return c.SwitchChannel(args[0])
	case 2:
		return c.Join(args[1], args[0], "")
	case 3:
		return c.Join(args[1], args[0], args[2])
	default:
		return errors.New("usage: /join <channel> [nick] [password]")
	}
}

func cmdReply(c *Client, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /reply <nick>")
	}
	msgs := c.View().Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Nick == args[0] && !msgs[i].IsSystem() {
			c.Reply(msgs[i].Nick, msgs[i].Text)
			return nil
		}
	}
	return fmt.Errorf("no message from %s", args[0])
}

func cmdMention(c *Client, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /mention <nick>")
	}
	c.InsertMention(strings.TrimPrefix(args[0], "@"))
	return nil
}

func cmdHighlight(c *Client, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: /highlight <nick|#trip> [color] [label]")
	}
	u := filter.SpecialUser{Color: "gold"}
	if trip, ok := strings.CutPrefix(args[0], "#"); ok {
		u.Trip = trip
	} else {
		u.Nick = strings.TrimPrefix(args[0], "@")
	}
	if len(args) > 1 {
		u.Color = args[1]
	}
	if len(args) > 2 {
		u.Label = strings.Join(args[2:], " ")
	}
	return c.AddSpecialUser(u)
}

func cmdReconnect(c *Client, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /reconnect on|off")
	}
	switch strings.ToLower(args[0]) {
	case "on":
		return c.SetAutoReconnect(true)
	case "off":
		return c.SetAutoReconnect(false)
	default:
		return fmt.Errorf("expected on or off, got %q", args[0])
	}
}

func cmdProxy(c *Client, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /proxy <wss-url>")
	}
	u := args[0]
	if !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://") {
		return fmt.Errorf("proxy must be a ws:// or wss:// url, got %q", u)
	}
	if _, err := c.AddProxy(u); err != nil {
		return fmt.Errorf("save proxy: %w", err)
	}
	return nil
}
