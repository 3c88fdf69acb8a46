package proto

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// The server side of the codec. The client never needs it; the in-process
// test server and protocol tests do.

type chatOut struct {
	Cmd   string `json:"cmd"`
	Time  int64  `json:"time"`
	Nick  string `json:"nick"`
	Text  string `json:"text"`
	Trip  string `json:"trip,omitempty"`
	Mod   bool   `json:"mod,omitempty"`
	Admin bool   `json:"admin,omitempty"`
}

type onlineSetOut struct {
	Cmd   string           `json:"cmd"`
	Nicks []string         `json:"nicks"`
	Users []onlineUserWire `json:"users,omitempty"`
}

type onlineOut struct {
	Cmd   string `json:"cmd"`
	Nick  string `json:"nick"`
	Trip  string `json:"trip,omitempty"`
	UType string `json:"uType,omitempty"`
}

type textOut struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text"`
}

// EncodeEvent serializes a server event into a JSON text frame.
func EncodeEvent(ev Event) ([]byte, error) {
	var frame any
	switch e := ev.(type) {
	case Chat:
		frame = chatOut{Cmd: CmdChat, Time: e.Time, Nick: e.Nick, Text: e.Text, Trip: e.Trip, Mod: e.Mod, Admin: e.Admin}
	case OnlineSet:
		out := onlineSetOut{Cmd: CmdOnlineSet, Nicks: e.Nicks}
		if out.Nicks == nil {
			out.Nicks = []string{}
		}
		for _, u := range e.Users {
			out.Users = append(out.Users, onlineUserWire(u))
		}
		frame = out
	case OnlineAdd:
		frame = onlineOut{Cmd: CmdOnlineAdd, Nick: e.Nick, Trip: e.Trip, UType: e.UType}
	case OnlineRemove:
		frame = onlineOut{Cmd: CmdOnlineRemove, Nick: e.Nick}
	case Info:
		frame = textOut{Cmd: CmdInfo, Text: e.Text}
	case Warn:
		frame = textOut{Cmd: CmdWarn, Text: e.Text}
	case Unknown:
		if len(e.Raw) > 0 {
			return append([]byte(nil), e.Raw...), nil
		}
		frame = struct {
			Cmd string `json:"cmd"`
		}{Cmd: e.Cmd}
	default:
		return nil, fmt.Errorf("encode event: unsupported type %T", ev)
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", ev.Command(), err)
	}
	return data, nil
}

type commandWire struct {
	Cmd      string `json:"cmd"`
	Channel  string `json:"channel"`
	Nick     string `json:"nick"`
	Password string `json:"password"`
	Text     string `json:"text"`
}

// DecodeCommand parses a client frame. Unknown commands are reported as a
// *DecodeError since a server has nothing to do with them.
func DecodeCommand(raw []byte) (Command, error) {
	var w commandWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, decodeError("", "invalid json", err)
	}
	switch w.Cmd {
	case CmdJoin:
		return Join{Channel: w.Channel, Nick: w.Nick, Password: w.Password}, nil
	case CmdChat:
		return Say{Text: w.Text}, nil
	case CmdPing:
		return Ping{}, nil
	case "":
		return nil, decodeError("", "missing cmd", nil)
	default:
		return nil, decodeError(w.Cmd, "unknown command", nil)
	}
}
