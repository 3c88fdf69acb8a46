package chat

import "time"

// SystemNick is the sender shown on locally generated notices.
const SystemNick = "System"

// Kind separates user chat from locally generated notices.
type Kind int

const (
	// KindChat is a line posted by a channel member.
	KindChat Kind = iota
	// KindSystem is a notice synthesized by the client.
	KindSystem
)

// Message is the domain model for one line of the channel log.
type Message struct {
	Time int64 // milliseconds since epoch
	Nick string
	Text string
	Trip string
	Role Role
	Kind Kind
}

// CreatedAt returns Time as a time.Time.
func (m Message) CreatedAt() time.Time {
	return time.UnixMilli(m.Time)
}

// IsSystem reports whether the message was generated locally.
func (m Message) IsSystem() bool {
	return m.Kind == KindSystem
}

func systemMessage(now time.Time, text string) Message {
	return Message{
		Time: now.UnixMilli(),
		Nick: SystemNick,
		Text: "*" + text + "*",
		Kind: KindSystem,
	}
}

// Log is the append-only, arrival-ordered message sequence.
type Log struct {
	messages []Message
}

// Append adds a message at the end of the log.
func (l *Log) Append(m Message) {
	l.messages = append(l.messages, m)
}

// Len returns the number of messages.
func (l *Log) Len() int {
	return len(l.messages)
}

// Messages returns a copy of the log in arrival order.
func (l *Log) Messages() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Since returns a copy of the messages at index i and later.
func (l *Log) Since(i int) []Message {
	if i < 0 {
		i = 0
	}
	if i >= len(l.messages) {
		return nil
	}
	out := make([]Message, len(l.messages)-i)
	copy(out, l.messages[i:])
	return out
}

// Clear drops all messages.
func (l *Log) Clear() {
	l.messages = nil
}
