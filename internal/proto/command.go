package proto

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Command names shared by both directions of the wire protocol.
const (
	CmdJoin         = "join"
	CmdChat         = "chat"
	CmdPing         = "ping"
	CmdOnlineSet    = "onlineSet"
	CmdOnlineAdd    = "onlineAdd"
	CmdOnlineRemove = "onlineRemove"
	CmdInfo         = "info"
	CmdWarn         = "warn"
)

// Command is a client-to-server request.
type Command interface {
	Name() string
}

// Join asks the server to place the connection into a channel under a nick.
type Join struct {
	Channel  string
	Nick     string
	Password string
}

// Say sends a chat line to the joined channel.
type Say struct {
	Text string
}

// Ping keeps an idle connection alive.
type Ping struct{}

func (Join) Name() string { return CmdJoin }
func (Say) Name() string  { return CmdChat }
func (Ping) Name() string { return CmdPing }

type joinFrame struct {
	Cmd      string `json:"cmd"`
	Channel  string `json:"channel"`
	Nick     string `json:"nick"`
	Password string `json:"password,omitempty"`
}

type chatFrame struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text"`
}

type pingFrame struct {
	Cmd string `json:"cmd"`
}

// Encode serializes a command into a single JSON text frame.
func Encode(cmd Command) ([]byte, error) {
	var frame any
	switch c := cmd.(type) {
	case Join:
		frame = joinFrame{Cmd: CmdJoin, Channel: c.Channel, Nick: c.Nick, Password: c.Password}
	case Say:
		frame = chatFrame{Cmd: CmdChat, Text: c.Text}
	case Ping:
		frame = pingFrame{Cmd: CmdPing}
	default:
		return nil, fmt.Errorf("encode: unsupported command %T", cmd)
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.Name(), err)
	}
	return data, nil
}
