// Package session drives one hack.chat connection: it opens the transport,
// joins a channel, keeps the link alive, reconnects, and folds server events
// into the roster and message log.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/hackchat-client/internal/chat"
	applog "github.com/vovakirdan/hackchat-client/internal/log"
	"github.com/vovakirdan/hackchat-client/internal/proto"
	"github.com/vovakirdan/hackchat-client/internal/transport"
)

// Config tunes a Session.
type Config struct {
	URL                  string
	PingInterval         time.Duration
	AutoReconnect        bool
	ReconnectDelay       time.Duration
	ReconnectMaxDelay    time.Duration
	MaxReconnectAttempts int
	Clock                clock.Clock
}

func (c *Config) defaults() {
	if c.PingInterval <= 0 {
		c.PingInterval = 60 * time.Second
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 2 * time.Second
	}
	if c.ReconnectMaxDelay < c.ReconnectDelay {
		c.ReconnectMaxDelay = c.ReconnectDelay
	}
	if c.MaxReconnectAttempts < 0 {
		c.MaxReconnectAttempts = 0
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Status      Status
	Credentials Credentials
	Users       []chat.User
	Messages    []chat.Message
	Err         error
	Generation  uint64
	AttemptID   string
	Attempts    int
}

// Session owns one transport and everything derived from it. All state
// transitions happen under mu; callbacks tagged with an old generation are
// dropped.
type Session struct {
	cfg Config
	tr  transport.Transport
	clk clock.Clock
	log *zerolog.Logger

	mu        sync.Mutex
	status    Status
	creds     Credentials
	gen       uint64
	attemptID string
	store     *chat.Store
	err       error
	retrying  bool
	attempts  int
	keepStop  chan struct{}
	retry     *clock.Timer
	subs      map[int]chan struct{}
	nextSub   int
}

// New builds an idle session on top of tr.
func New(tr transport.Transport, cfg Config, logger *zerolog.Logger) *Session {
	cfg.defaults()
	return &Session{
		cfg:   cfg,
		tr:    tr,
		clk:   cfg.Clock,
		log:   applog.OrNop(logger),
		store: chat.NewStore(),
		subs:  make(map[int]chan struct{}),
	}
}

// Join starts a fresh connection attempt with creds, abandoning whatever the
// session was doing. It returns once the attempt is started; the outcome is
// observed through Snapshot and Subscribe.
func (s *Session) Join(creds Credentials) error {
	creds, err := creds.Normalize()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = 0
	s.startLocked(creds, false)
	return nil
}

// Send posts text to the joined channel.
func (s *Session) Send(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusJoined {
		return ErrNotJoined
	}
	frame, err := proto.Encode(proto.Say{Text: text})
	if err != nil {
		return err
	}
	if err := s.tr.Send(frame); err != nil {
		return fmt.Errorf("send chat: %w", err)
	}
	return nil
}

// Close detaches the transport and returns the session to Idle.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.stopKeepaliveLocked()
	s.cancelRetryLocked()
	err := s.tr.Close()
	s.store.Reset()
	s.status = StatusIdle
	s.err = nil
	s.retrying = false
	s.attempts = 0
	s.log.Info().Str("channel", s.creds.Channel).Msg("session closed")
	s.notifyLocked()
	return err
}

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Status:      s.status,
		Credentials: s.creds,
		Users:       s.store.Roster.Users(),
		Messages:    s.store.Log.Messages(),
		Err:         s.err,
		Generation:  s.gen,
		AttemptID:   s.attemptID,
		Attempts:    s.attempts,
	}
}

// LogSince returns the log entries from index from on and the generation
// that owns the log. The log is cleared whenever the generation changes, so
// a caller holding another generation gets the whole log.
func (s *Session) LogSince(gen uint64, from int) ([]chat.Message, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		from = 0
	}
	return s.store.Log.Since(from), s.gen
}

// SetAutoReconnect switches automatic reconnects on or off for the links
// lost from now on. Turning it off cancels a pending retry.
func (s *Session) SetAutoReconnect(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.AutoReconnect == on {
		return
	}
	s.cfg.AutoReconnect = on
	s.log.Info().Bool("auto_reconnect", on).Msg("reconnect policy changed")
	if !on && s.retry != nil {
		s.cancelRetryLocked()
		s.retrying = false
		s.notifyLocked()
	}
}

// Subscribe returns a channel signalled after every state change. Signals
// coalesce: a receiver that falls behind sees one pending signal.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Session) startLocked(creds Credentials, retrying bool) {
	s.gen++
	gen := s.gen
	s.stopKeepaliveLocked()
	s.cancelRetryLocked()
	s.store.Reset()
	s.creds = creds
	s.err = nil
	s.retrying = retrying
	s.status = StatusConnecting
	s.attemptID = uuid.NewString()

	s.log.Info().
		Str("channel", creds.Channel).
		Str("nick", creds.Nick).
		Uint64("generation", gen).
		Str("attempt_id", s.attemptID).
		Bool("reconnect", retrying).
		Msg("connecting")

	s.tr.Open(s.cfg.URL, s.handler(gen))
	s.notifyLocked()
}

func (s *Session) handler(gen uint64) transport.Handler {
	return transport.Handler{
		OnOpen:  func() { s.onOpen(gen) },
		OnFrame: func(raw []byte) { s.onFrame(gen, raw) },
		OnClose: func(err error) { s.onLost(gen, fmt.Errorf("connection closed: %w", err)) },
		OnError: func(err error) { s.onLost(gen, fmt.Errorf("connection failed: %w", err)) },
	}
}

func (s *Session) onOpen(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.status != StatusConnecting {
		return
	}

	c := s.creds
	frame, err := proto.Encode(proto.Join{Channel: c.Channel, Nick: c.Nick, Password: c.Password})
	if err == nil {
		err = s.tr.Send(frame)
	}
	if err != nil {
		s.lostLocked(fmt.Errorf("send join: %w", err))
		return
	}
	s.status = StatusAwaitingJoinAck
	s.startKeepaliveLocked(gen)
	s.log.Debug().Str("channel", c.Channel).Uint64("generation", gen).Msg("join sent")
	s.notifyLocked()
}

func (s *Session) onFrame(gen uint64, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || !s.status.live() {
		return
	}

	ev, err := proto.Decode(raw)
	if err != nil {
		s.log.Warn().Err(err).Uint64("generation", gen).Msg("dropping malformed frame")
		return
	}

	switch e := ev.(type) {
	case proto.Unknown:
		s.log.Debug().Str("cmd", e.Cmd).Msg("ignoring unknown command")
		return
	case proto.Warn:
		if s.status != StatusJoined {
			s.rejectLocked(e.Text)
			return
		}
	case proto.OnlineSet:
		if s.status == StatusAwaitingJoinAck {
			s.status = StatusJoined
			s.attempts = 0
			s.retrying = false
			s.log.Info().
				Str("channel", s.creds.Channel).
				Str("nick", s.creds.Nick).
				Int("online", len(e.Nicks)).
				Msg("joined")
		}
	}

	if s.status == StatusConnecting {
		return
	}
	s.store.Apply(ev, s.clk.Now())
	s.notifyLocked()
}

func (s *Session) onLost(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || !s.status.live() {
		return
	}
	s.lostLocked(err)
}

func (s *Session) lostLocked(err error) {
	wasJoined := s.status == StatusJoined
	s.stopKeepaliveLocked()
	s.store.Roster.Clear()
	s.status = StatusDisconnected
	s.err = err
	s.log.Warn().Err(err).
		Str("channel", s.creds.Channel).
		Uint64("generation", s.gen).
		Bool("was_joined", wasJoined).
		Msg("disconnected")

	if s.cfg.AutoReconnect && (wasJoined || s.retrying) {
		s.scheduleRetryLocked(s.creds)
	}
	s.notifyLocked()
}

func (s *Session) rejectLocked(text string) {
	s.stopKeepaliveLocked()
	if err := s.tr.Close(); err != nil {
		s.log.Debug().Err(err).Msg("transport close")
	}
	s.status = StatusFailed
	s.err = &JoinError{Nick: s.creds.Nick, Channel: s.creds.Channel, Text: text}
	s.log.Warn().
		Str("channel", s.creds.Channel).
		Str("nick", s.creds.Nick).
		Str("reason", text).
		Msg("join rejected")

	if s.cfg.AutoReconnect && s.retrying && isNickConflict(text) {
		if nick, ok := mutateNick(s.creds.Nick); ok {
			next := s.creds
			next.Nick = nick
			s.scheduleRetryLocked(next)
		}
	}
	s.notifyLocked()
}
