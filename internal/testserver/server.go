// Package testserver is a small in-process hack.chat compatible server for
// exercising the client end to end.
package testserver

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	stdhttp "net/http"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	applog "github.com/vovakirdan/hackchat-client/internal/log"
	"github.com/vovakirdan/hackchat-client/internal/proto"
)

const (
	warnNickTaken   = "Nickname taken"
	warnNickInvalid = "Nickname must consist of up to 24 letters, numbers, and underscores"
)

var nickPattern = regexp.MustCompile(`^[a-zA-Z0-9_]{1,24}$`)

// Options configures the server.
type Options struct {
	// RequireOrigin rejects upgrades whose Origin header differs.
	RequireOrigin string
	// Now stamps chat frames; defaults to time.Now.
	Now func() time.Time
	// ChatLimit caps chat frames per client and ChatWindow; zero disables.
	ChatLimit  int
	ChatWindow time.Duration
}

// Server tracks channels and their members.
type Server struct {
	opts Options
	log  *zerolog.Logger

	mu       sync.Mutex
	channels map[string]*channel
	clients  map[*client]struct{}
	pings    int
	frames   []proto.Command
}

// New builds an empty server.
func New(opts Options, logger *zerolog.Logger) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		opts:     opts,
		log:      applog.OrNop(logger),
		channels: make(map[string]*channel),
		clients:  make(map[*client]struct{}),
	}
}

type client struct {
	id      string
	conn    *websocket.Conn
	events  chan []byte
	nick    string
	trip    string
	channel string
	limiter *rateLimiter
}

// channel groups clients joined under the same name.
type channel struct {
	name    string
	clients map[*client]struct{}
}

func (c *channel) nicks() []string {
	out := make([]string, 0, len(c.clients))
	for cl := range c.clients {
		out = append(out, cl.nick)
	}
	sort.Strings(out)
	return out
}

func (c *channel) users() []proto.OnlineUser {
	out := make([]proto.OnlineUser, 0, len(c.clients))
	for cl := range c.clients {
		out = append(out, proto.OnlineUser{Nick: cl.nick, Trip: cl.trip})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nick < out[j].Nick })
	return out
}

// broadcast sends a frame to all members, dropping it for slow consumers.
func (c *channel) broadcast(frame []byte, except *client) {
	for cl := range c.clients {
		if cl == except {
			continue
		}
		cl.push(frame)
	}
}

func (cl *client) push(frame []byte) {
	select {
	case cl.events <- frame:
	default:
	}
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if s.opts.RequireOrigin != "" && r.Header.Get("Origin") != s.opts.RequireOrigin {
		stdhttp.Error(w, "forbidden origin", stdhttp.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cl := &client{
		id:      uuid.NewString(),
		conn:    conn,
		events:  make(chan []byte, 64),
		limiter: newRateLimiter(s.opts.ChatLimit, s.opts.ChatWindow),
	}
	s.register(cl)
	defer s.unregister(cl)

	errCh := make(chan error, 2)
	go func() {
		errCh <- s.readLoop(ctx, cl)
	}()
	go func() {
		errCh <- s.writeLoop(ctx, cl)
	}()

	err = <-errCh
	cancel()
	<-errCh

	if err != nil && !errors.Is(err, context.Canceled) && websocket.CloseStatus(err) == -1 {
		s.log.Debug().Err(err).Str("client_id", cl.id).Msg("ws connection closed with error")
	}
	conn.Close(websocket.StatusNormalClosure, "closing")
}

func (s *Server) readLoop(ctx context.Context, cl *client) error {
	for {
		_, data, err := cl.conn.Read(ctx)
		if err != nil {
			return err
		}
		cmd, err := proto.DecodeCommand(data)
		if err != nil {
			s.log.Debug().Err(err).Str("client_id", cl.id).Msg("dropping client frame")
			continue
		}
		s.handle(cl, cmd)
	}
}

func (s *Server) writeLoop(ctx context.Context, cl *client) error {
	for {
		select {
		case frame := <-cl.events:
			if err := cl.conn.Write(ctx, websocket.MessageText, frame); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Server) register(cl *client) {
	s.mu.Lock()
	s.clients[cl] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) unregister(cl *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, cl)
	s.leaveLocked(cl)
}

func (s *Server) leaveLocked(cl *client) {
	ch, ok := s.channels[cl.channel]
	if !ok {
		return
	}
	delete(ch.clients, cl)
	if len(ch.clients) == 0 {
		delete(s.channels, ch.name)
		return
	}
	ch.broadcast(mustEvent(proto.OnlineRemove{Nick: cl.nick}), nil)
}

func (s *Server) handle(cl *client, cmd proto.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, cmd)

	switch c := cmd.(type) {
	case proto.Join:
		if cl.channel != "" {
			return
		}
		if !nickPattern.MatchString(c.Nick) {
			cl.push(mustEvent(proto.Warn{Text: warnNickInvalid}))
			return
		}
		ch := s.channels[c.Channel]
		if ch == nil {
			ch = &channel{name: c.Channel, clients: make(map[*client]struct{})}
			s.channels[c.Channel] = ch
		}
		for other := range ch.clients {
			if other.nick == c.Nick {
				cl.push(mustEvent(proto.Warn{Text: warnNickTaken}))
				return
			}
		}
		cl.nick = c.Nick
		cl.channel = c.Channel
		cl.trip = Tripcode(c.Password)
		ch.clients[cl] = struct{}{}
		cl.push(mustEvent(proto.OnlineSet{Nicks: ch.nicks(), Users: ch.users()}))
		ch.broadcast(mustEvent(proto.OnlineAdd{Nick: cl.nick, Trip: cl.trip}), cl)
	case proto.Say:
		ch, ok := s.channels[cl.channel]
		if !ok {
			return
		}
		now := s.opts.Now()
		if !cl.limiter.allow(now) {
			cl.push(mustEvent(proto.Warn{Text: warnRateLimited}))
			return
		}
		ch.broadcast(mustEvent(proto.Chat{
			Time: now.UnixMilli(),
			Nick: cl.nick,
			Text: c.Text,
			Trip: cl.trip,
		}), nil)
	case proto.Ping:
		s.pings++
	}
}

// Tripcode derives the public identity hash of a password. Empty passwords
// have no tripcode.
func Tripcode(password string) string {
	if password == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])[:6]
}

// Online lists the nicks in a channel.
func (s *Server) Online(channelName string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[channelName]
	if !ok {
		return nil
	}
	return ch.nicks()
}

// Pings returns how many ping frames have been received.
func (s *Server) Pings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pings
}

// Received returns every decoded client command in arrival order.
func (s *Server) Received() []proto.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]proto.Command(nil), s.frames...)
}

// Inject sends a raw frame to the member of channelName called nick.
func (s *Server) Inject(channelName, nick string, frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl := s.findLocked(channelName, nick)
	if cl == nil {
		return false
	}
	cl.push(frame)
	return true
}

// Announce broadcasts an event to every member of a channel.
func (s *Server) Announce(channelName string, ev proto.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.channels[channelName]; ok {
		ch.broadcast(mustEvent(ev), nil)
	}
}

// Kick drops the connection of nick without a close handshake.
func (s *Server) Kick(channelName, nick string) bool {
	s.mu.Lock()
	cl := s.findLocked(channelName, nick)
	s.mu.Unlock()
	if cl == nil {
		return false
	}
	return cl.conn.CloseNow() == nil
}

func (s *Server) findLocked(channelName, nick string) *client {
	ch, ok := s.channels[channelName]
	if !ok {
		return nil
	}
	for cl := range ch.clients {
		if cl.nick == nick {
			return cl
		}
	}
	return nil
}

func mustEvent(ev proto.Event) []byte {
	data, err := proto.EncodeEvent(ev)
	if err != nil {
		panic(err)
	}
	return data
}
