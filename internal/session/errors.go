package session

import "errors"

var (
	// ErrNotJoined is returned by Send unless the session is Joined.
	ErrNotJoined = errors.New("session: not joined")
	// ErrEmptyMessage is returned by Send for blank text.
	ErrEmptyMessage = errors.New("session: empty message")
	// ErrInvalidCredentials is returned by Join when nick or channel is empty.
	ErrInvalidCredentials = errors.New("session: nick and channel are required")
	// ErrJoinRejected marks a warn received before the join was acknowledged.
	ErrJoinRejected = errors.New("session: join rejected")
	// ErrReconnectExhausted is wrapped into the last error once every
	// reconnect attempt has been spent.
	ErrReconnectExhausted = errors.New("session: reconnect attempts exhausted")
)

// JoinError carries the server's reason for rejecting a join.
type JoinError struct {
	Nick    string
	Channel string
	Text    string
}

func (e *JoinError) Error() string {
	return "join " + e.Channel + " as " + e.Nick + " rejected: " + e.Text
}

func (e *JoinError) Unwrap() error {
	return ErrJoinRejected
}
