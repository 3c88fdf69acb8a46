// Package ws implements transport.Transport over a websocket.
package ws

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	applog "github.com/vovakirdan/hackchat-client/internal/log"
	"github.com/vovakirdan/hackchat-client/internal/transport"
)

// Options tunes dialing and I/O.
type Options struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	ReadLimit    int64
	OutboxSize   int
	Origin       string
	UserAgent    string
	HTTPClient   *stdhttp.Client
}

func (o *Options) defaults() {
	if o.DialTimeout <= 0 {
		o.DialTimeout = 10 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 1 << 20
	}
	if o.OutboxSize <= 0 {
		o.OutboxSize = 32
	}
}

// Adapter owns exactly one websocket link at a time.
type Adapter struct {
	opts Options
	log  *zerolog.Logger

	mu     sync.Mutex
	cur    *link
	nextID uint64
}

var _ transport.Transport = (*Adapter)(nil)

// New builds an adapter with the given options.
func New(opts Options, logger *zerolog.Logger) *Adapter {
	opts.defaults()
	return &Adapter{opts: opts, log: applog.OrNop(logger)}
}

// Open replaces the current link with a new one dialing url.
func (a *Adapter) Open(url string, h transport.Handler) {
	a.mu.Lock()
	old := a.cur
	if old != nil {
		old.deactivate()
	}
	a.nextID++
	l := newLink(a.nextID, h, a.opts.OutboxSize)
	a.cur = l
	a.mu.Unlock()

	if old != nil {
		a.log.Debug().Uint64("link", old.id).Msg("replacing websocket link")
		old.shutdown()
	}
	go a.run(l, url)
}

// Send queues frame on the current link.
func (a *Adapter) Send(frame []byte) error {
	a.mu.Lock()
	l := a.cur
	a.mu.Unlock()
	if l == nil {
		return transport.ErrNotConnected
	}
	return l.enqueue(frame)
}

// Close shuts the current link down without firing its callbacks.
func (a *Adapter) Close() error {
	a.mu.Lock()
	l := a.cur
	a.cur = nil
	a.mu.Unlock()

	if l != nil && l.deactivate() {
		l.shutdown()
	}
	return nil
}

func (a *Adapter) forget(l *link) {
	a.mu.Lock()
	if a.cur == l {
		a.cur = nil
	}
	a.mu.Unlock()
}

func (a *Adapter) run(l *link, url string) {
	header := stdhttp.Header{}
	if a.opts.Origin != "" {
		header.Set("Origin", a.opts.Origin)
	}
	if a.opts.UserAgent != "" {
		header.Set("User-Agent", a.opts.UserAgent)
	}

	dialCtx, cancel := context.WithTimeout(l.ctx, a.opts.DialTimeout)
	conn, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{
		HTTPClient: a.opts.HTTPClient,
		HTTPHeader: header,
	})
	cancel()
	if err != nil {
		a.forget(l)
		if l.deactivate() {
			a.log.Warn().Err(err).Uint64("link", l.id).Str("url", url).Msg("websocket dial failed")
			if l.h.OnError != nil {
				l.h.OnError(fmt.Errorf("dial %s: %w", url, err))
			}
		}
		return
	}
	conn.SetReadLimit(a.opts.ReadLimit)

	if !l.attach(conn) {
		_ = conn.CloseNow()
		return
	}
	a.log.Debug().Uint64("link", l.id).Str("url", url).Msg("websocket open")

	go l.writeLoop(conn, a.opts.WriteTimeout, a.log)

	l.opened.Store(true)
	if l.active.Load() && l.h.OnOpen != nil {
		l.h.OnOpen()
	}

	for {
		_, data, err := conn.Read(l.ctx)
		if err != nil {
			a.forget(l)
			l.cancel()
			if l.deactivate() {
				if isNormalClosure(err) {
					a.log.Debug().Uint64("link", l.id).Msg("websocket closed by peer")
				} else {
					a.log.Warn().Err(err).Uint64("link", l.id).Msg("websocket read failed")
				}
				if l.h.OnClose != nil {
					l.h.OnClose(err)
				}
			}
			_ = conn.CloseNow()
			return
		}
		// A Close racing this check lets at most this one frame through.
		if !l.active.Load() {
			continue
		}
		if l.h.OnFrame != nil {
			l.h.OnFrame(data)
		}
	}
}

func isNormalClosure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}

// link is one dial attempt and, if it succeeds, one socket.
type link struct {
	id     uint64
	h      transport.Handler
	ctx    context.Context
	cancel context.CancelFunc
	outbox chan []byte

	active atomic.Bool
	opened atomic.Bool

	mu   sync.Mutex
	conn *websocket.Conn
}

func newLink(id uint64, h transport.Handler, outboxSize int) *link {
	ctx, cancel := context.WithCancel(context.Background())
	l := &link{
		id:     id,
		h:      h,
		ctx:    ctx,
		cancel: cancel,
		outbox: make(chan []byte, outboxSize),
	}
	l.active.Store(true)
	return l
}

// deactivate silences the link's callbacks. It reports whether the link was
// active until now.
func (l *link) deactivate() bool {
	return l.active.CompareAndSwap(true, false)
}

func (l *link) attach(conn *websocket.Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active.Load() {
		return false
	}
	l.conn = conn
	return true
}

func (l *link) shutdown() {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()

	if conn == nil {
		l.cancel()
		return
	}
	go func() {
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
		l.cancel()
	}()
}

func (l *link) enqueue(frame []byte) error {
	if !l.opened.Load() || !l.active.Load() {
		return transport.ErrNotConnected
	}
	select {
	case l.outbox <- frame:
		return nil
	default:
		return transport.ErrBackpressure
	}
}

func (l *link) writeLoop(conn *websocket.Conn, timeout time.Duration, logger *zerolog.Logger) {
	for {
		select {
		case <-l.ctx.Done():
			return
		case frame := <-l.outbox:
			ctx, cancel := context.WithTimeout(l.ctx, timeout)
			err := conn.Write(ctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				logger.Warn().Err(err).Uint64("link", l.id).Msg("websocket write failed")
				l.cancel()
				return
			}
		}
	}
}
