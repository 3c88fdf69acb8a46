package session

import "strings"

// Status is the connection and join state of a session.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusAwaitingJoinAck
	StatusJoined
	StatusDisconnected
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusAwaitingJoinAck:
		return "awaiting_join_ack"
	case StatusJoined:
		return "joined"
	case StatusDisconnected:
		return "disconnected"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// live reports whether a socket belongs to the current attempt.
func (s Status) live() bool {
	return s == StatusConnecting || s == StatusAwaitingJoinAck || s == StatusJoined
}

// MaxNickLength is the longest nick the server accepts.
const MaxNickLength = 24

// Credentials identify one join. They are replaced wholesale on every
// channel switch.
type Credentials struct {
	Nick     string
	Channel  string
	Password string
}

// Normalize trims the nick and channel and validates them.
func (c Credentials) Normalize() (Credentials, error) {
	c.Nick = strings.TrimSpace(c.Nick)
	c.Channel = strings.TrimSpace(c.Channel)
	if c.Nick == "" || c.Channel == "" {
		return c, ErrInvalidCredentials
	}
	return c, nil
}

// mutateNick derives the nick to retry with after a conflict.
func mutateNick(nick string) (string, bool) {
	if len(nick) >= MaxNickLength {
		return "", false
	}
	return nick + "_", true
}

func isNickConflict(text string) bool {
	text = strings.ToLower(text)
	return strings.Contains(text, "nickname taken") || strings.Contains(text, "already in use")
}
