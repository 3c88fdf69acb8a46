// Package transport defines the socket contract the chat session drives.
package transport

import "errors"

var (
	// ErrNotConnected is returned by Send before the link has opened or after Close.
	ErrNotConnected = errors.New("transport: not connected")
	// ErrBackpressure is returned by Send when the outbox is full.
	ErrBackpressure = errors.New("transport: outbox full")
)

// Handler receives the callbacks of one link. Any field may be nil.
// Callbacks of a single link are delivered one at a time and in order.
type Handler struct {
	OnOpen  func()
	OnFrame func(raw []byte)
	// OnClose fires when an open link ends without Close being called.
	OnClose func(err error)
	// OnError fires when the link could not be established.
	OnError func(err error)
}

// Transport owns at most one persistent socket at a time. Implementations
// never invoke Handler callbacks from inside Open, Send or Close.
type Transport interface {
	// Open deactivates and closes the current link, if any, then starts
	// dialing url. It never blocks on the network.
	Open(url string, h Handler)
	// Send queues one text frame on the open link.
	Send(frame []byte) error
	// Close deactivates and closes the current link. It is idempotent and
	// never waits for a running callback, so callbacks may call it. A frame
	// already being delivered when Close runs may still reach OnFrame once;
	// nothing else of that link is delivered afterwards.
	Close() error
}
