package proto

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// ErrMalformedFrame is matched by every *DecodeError.
var ErrMalformedFrame = errors.New("malformed frame")

// DecodeError describes a frame that could not be turned into an Event.
type DecodeError struct {
	Cmd    string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "decode"
	if e.Cmd != "" {
		msg += " " + e.Cmd
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports ErrMalformedFrame equivalence.
func (e *DecodeError) Is(target error) bool { return target == ErrMalformedFrame }

func decodeError(cmd, reason string, err error) *DecodeError {
	return &DecodeError{Cmd: cmd, Reason: reason, Err: err}
}

type envelope struct {
	Cmd *string `json:"cmd"`
}

type chatWire struct {
	Time  int64   `json:"time"`
	Nick  *string `json:"nick"`
	Text  *string `json:"text"`
	Trip  string  `json:"trip"`
	Mod   bool    `json:"mod"`
	Admin bool    `json:"admin"`
	UType string  `json:"uType"`
}

type onlineUserWire struct {
	Nick  string `json:"nick"`
	Trip  string `json:"trip"`
	UType string `json:"uType"`
}

type onlineSetWire struct {
	Nicks *[]string        `json:"nicks"`
	Users []onlineUserWire `json:"users"`
}

type onlineWire struct {
	Nick  *string `json:"nick"`
	Trip  string  `json:"trip"`
	UType string  `json:"uType"`
}

type textWire struct {
	Text *string `json:"text"`
}

// Decode parses one server frame. Frames with an unrecognized command decode
// to Unknown; everything that is not a valid frame returns a *DecodeError.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, decodeError("", "invalid json", err)
	}
	if env.Cmd == nil || *env.Cmd == "" {
		return nil, decodeError("", "missing cmd", nil)
	}
	cmd := *env.Cmd

	switch cmd {
	case CmdChat:
		var w chatWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, decodeError(cmd, "invalid payload", err)
		}
		if w.Nick == nil || *w.Nick == "" {
			return nil, decodeError(cmd, "missing nick", nil)
		}
		if w.Text == nil {
			return nil, decodeError(cmd, "missing text", nil)
		}
		return Chat{
			Time:  w.Time,
			Nick:  *w.Nick,
			Text:  *w.Text,
			Trip:  w.Trip,
			Mod:   w.Mod || w.UType == "mod",
			Admin: w.Admin || w.UType == "admin",
		}, nil
	case CmdOnlineSet:
		var w onlineSetWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, decodeError(cmd, "invalid payload", err)
		}
		if w.Nicks == nil {
			return nil, decodeError(cmd, "missing nicks", nil)
		}
		nicks := make([]string, len(*w.Nicks))
		copy(nicks, *w.Nicks)
		ev := OnlineSet{Nicks: nicks}
		for _, u := range w.Users {
			ev.Users = append(ev.Users, OnlineUser(u))
		}
		return ev, nil
	case CmdOnlineAdd, CmdOnlineRemove:
		var w onlineWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, decodeError(cmd, "invalid payload", err)
		}
		if w.Nick == nil || *w.Nick == "" {
			return nil, decodeError(cmd, "missing nick", nil)
		}
		if cmd == CmdOnlineRemove {
			return OnlineRemove{Nick: *w.Nick}, nil
		}
		return OnlineAdd{Nick: *w.Nick, Trip: w.Trip, UType: w.UType}, nil
	case CmdInfo, CmdWarn:
		var w textWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, decodeError(cmd, "invalid payload", err)
		}
		if w.Text == nil {
			return nil, decodeError(cmd, "missing text", nil)
		}
		if cmd == CmdWarn {
			return Warn{Text: *w.Text}, nil
		}
		return Info{Text: *w.Text}, nil
	default:
		return Unknown{Cmd: cmd, Raw: append([]byte(nil), raw...)}, nil
	}
}

// MustEncode is Encode for commands that cannot fail; it is meant for tests
// and fixed frames.
func MustEncode(cmd Command) []byte {
	data, err := Encode(cmd)
	if err != nil {
		panic(fmt.Sprintf("proto: %v", err))
	}
	return data
}
