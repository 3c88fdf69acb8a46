// Package client is the facade UIs talk to. It joins the session engine with
// the user's settings and the message draft and publishes one read-only View.
package client

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/hackchat-client/internal/chat"
	"github.com/vovakirdan/hackchat-client/internal/filter"
	applog "github.com/vovakirdan/hackchat-client/internal/log"
	"github.com/vovakirdan/hackchat-client/internal/session"
	"github.com/vovakirdan/hackchat-client/internal/settings"
)

// View is everything a UI renders.
type View struct {
	Status      session.Status
	Credentials session.Credentials
	Users       []chat.User
	Messages    []chat.Message
	Hidden      int
	Specials    []filter.SpecialUser
	Draft       string
	Cursor      int
	Candidates  []string
	Selected    int
	Err         error
}

// Self is the nick of the local user.
func (v View) Self() string {
	return v.Credentials.Nick
}

// Present reports whether nick is in the roster.
func (v View) Present(nick string) bool {
	for _, u := range v.Users {
		if u.Nick == nick {
			return true
		}
	}
	return false
}

// Client is safe for concurrent use.
type Client struct {
	sess     *session.Session
	settings *settings.Store
	log      *zerolog.Logger

	mu       sync.Mutex
	composer Composer
	subs     map[int]chan struct{}
	nextSub  int
}

// New wraps sess. A nil store keeps settings in memory.
func New(sess *session.Session, store *settings.Store, logger *zerolog.Logger) *Client {
	if store == nil {
		store = settings.NewMemory(settings.Settings{})
	}
	return &Client{
		sess:     sess,
		settings: store,
		log:      applog.OrNop(logger),
		composer: NewComposer(),
		subs:     make(map[int]chan struct{}),
	}
}

// Settings exposes the store backing block lists and highlights.
func (c *Client) Settings() *settings.Store {
	return c.settings
}

// Join connects to channel as nick, replacing any current connection.
func (c *Client) Join(nick, channel, password string) error {
	return c.sess.Join(session.Credentials{Nick: nick, Channel: channel, Password: password})
}

// SwitchChannel rejoins under the current nick and password.
func (c *Client) SwitchChannel(channel string) error {
	creds := c.sess.Snapshot().Credentials
	creds.Channel = channel
	return c.sess.Join(creds)
}

// Send posts text as is.
func (c *Client) Send(text string) error {
	return c.sess.Send(text)
}

// SendDraft posts the draft and clears it on success.
func (c *Client) SendDraft() error {
	c.mu.Lock()
	text := c.composer.Text()
	c.mu.Unlock()

	if err := c.sess.Send(text); err != nil {
		return err
	}

	c.mu.Lock()
	if c.composer.Text() == text {
		c.composer.Clear()
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

// SetDraft replaces the draft text; cursor is a rune offset, and an out of
// range cursor moves to the end.
func (c *Client) SetDraft(text string, cursor int) {
	nicks, self := c.nicks()
	c.mu.Lock()
	c.composer.Set(text, cursor, nicks, self)
	c.mu.Unlock()
	c.notify()
}

// HandleKey routes a key to the mention picker and reports whether it was
// consumed.
func (c *Client) HandleKey(k filter.Key) bool {
	nicks, self := c.nicks()
	c.mu.Lock()
	handled := c.composer.Handle(k, nicks, self)
	c.mu.Unlock()
	if handled {
		c.notify()
	}
	return handled
}

// InsertMention appends "@nick " to the draft.
func (c *Client) InsertMention(nick string) {
	c.edit(func(draft string) string { return filter.AppendMention(draft, nick) })
}

// Reply quotes text by nick into the draft and mentions them.
func (c *Client) Reply(nick, text string) {
	c.edit(func(draft string) string { return filter.Quote(draft, nick, text) })
}

func (c *Client) edit(fn func(string) string) {
	nicks, self := c.nicks()
	c.mu.Lock()
	c.composer.replace(fn(c.composer.Text()), nicks, self)
	c.mu.Unlock()
	c.notify()
}

// BlockNick hides every message from nick.
func (c *Client) BlockNick(nick string) error {
	return c.changeSettings(c.settings.BlockNick, nick)
}

// BlockTrip hides every message signed with trip.
func (c *Client) BlockTrip(trip string) error {
	return c.changeSettings(c.settings.BlockTrip, trip)
}

// UnblockNick shows messages from nick again.
func (c *Client) UnblockNick(nick string) error {
	return c.changeSettings(c.settings.UnblockNick, nick)
}

// UnblockTrip shows messages signed with trip again.
func (c *Client) UnblockTrip(trip string) error {
	return c.changeSettings(c.settings.UnblockTrip, trip)
}

func (c *Client) changeSettings(fn func(string) (bool, error), v string) error {
	changed, err := fn(v)
	if err != nil {
		return err
	}
	if changed {
		c.log.Debug().Str("value", v).Msg("block list changed")
		c.notify()
	}
	return nil
}

// SetAutoReconnect stores the reconnect switch and applies it to the live
// session.
func (c *Client) SetAutoReconnect(on bool) error {
	if err := c.settings.SetAutoReconnect(on); err != nil {
		return err
	}
	c.sess.SetAutoReconnect(on)
	c.notify()
	return nil
}

// AddSpecialUser highlights messages matching u.
func (c *Client) AddSpecialUser(u filter.SpecialUser) error {
	if err := c.settings.AddSpecialUser(u); err != nil {
		return err
	}
	c.log.Debug().Str("nick", u.Nick).Str("trip", u.Trip).Msg("special user added")
	c.notify()
	return nil
}

// AddProxy records an extra endpoint for later runs. It reports whether the
// list changed.
func (c *Client) AddProxy(url string) (bool, error) {
	return c.settings.AddProxy(url)
}

// Backlog is the part of the message log a reader has not consumed yet.
type Backlog struct {
	// Messages are the unread entries that pass the block rules.
	Messages []chat.Message

	// Next is the log index to resume from within Generation.
	Next       int
	Generation uint64
}

// LogSince returns the log entries from index from on, as seen by a reader
// that last read generation gen. Block rules apply to the returned entries
// only, so rule changes never shift the reader's position.
func (c *Client) LogSince(gen uint64, from int) Backlog {
	raw, cur := c.sess.LogSince(gen, from)
	if cur != gen {
		from = 0
	}
	return Backlog{
		Messages:   filter.Visible(raw, c.settings.BlockRules()),
		Next:       from + len(raw),
		Generation: cur,
	}
}

// Close leaves the channel and drops the connection.
func (c *Client) Close() error {
	return c.sess.Close()
}

// View derives the current view. Filtering runs against a fresh block-rule
// snapshot and mention candidates against the current roster on every call.
func (c *Client) View() View {
	snap := c.sess.Snapshot()
	rules := c.settings.BlockRules()
	visible := filter.Visible(snap.Messages, rules)
	nicks, self := nicksOf(snap)

	c.mu.Lock()
	c.composer.Sync(nicks, self)
	candidates, selected := c.composer.Candidates()
	v := View{
		Status:      snap.Status,
		Credentials: snap.Credentials,
		Users:       snap.Users,
		Messages:    visible,
		Hidden:      len(snap.Messages) - len(visible),
		Specials:    c.settings.SpecialUsers(),
		Draft:       c.composer.Text(),
		Cursor:      c.composer.Cursor(),
		Candidates:  candidates,
		Selected:    selected,
		Err:         snap.Err,
	}
	c.mu.Unlock()
	return v
}

// Subscribe returns a channel signalled whenever View may have changed,
// coalescing bursts. The returned func unsubscribes.
func (c *Client) Subscribe() (<-chan struct{}, func()) {
	out := make(chan struct{}, 1)
	local := make(chan struct{}, 1)
	sessCh, sessCancel := c.sess.Subscribe()

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = local
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-sessCh:
			case <-local:
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()

	var once sync.Once
	return out, func() {
		once.Do(func() {
			sessCancel()
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(done)
		})
	}
}

func (c *Client) notify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// nicks returns the roster and local nick used for mention ranking.
func (c *Client) nicks() ([]string, string) {
	return nicksOf(c.sess.Snapshot())
}

func nicksOf(snap session.Snapshot) ([]string, string) {
	nicks := make([]string, len(snap.Users))
	for i, u := range snap.Users {
		nicks[i] = u.Nick
	}
	return nicks, strings.TrimSpace(snap.Credentials.Nick)
}
