// Package settings persists the user's client preferences: block lists,
// highlighted users, the auto-reconnect switch and extra proxy endpoints.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/hackchat-client/internal/filter"
	applog "github.com/vovakirdan/hackchat-client/internal/log"
)

// Settings is the persisted document.
type Settings struct {
	BlockedNicks  []string             `yaml:"blocked_nicks"`
	BlockedTrips  []string             `yaml:"blocked_trips"`
	SpecialUsers  []filter.SpecialUser `yaml:"special_users"`
	AutoReconnect *bool                `yaml:"auto_reconnect,omitempty"`
	Proxies       []string             `yaml:"proxies"`
}

func (s Settings) clone() Settings {
	out := Settings{
		BlockedNicks: slices.Clone(s.BlockedNicks),
		BlockedTrips: slices.Clone(s.BlockedTrips),
		SpecialUsers: slices.Clone(s.SpecialUsers),
		Proxies:      slices.Clone(s.Proxies),
	}
	if s.AutoReconnect != nil {
		v := *s.AutoReconnect
		out.AutoReconnect = &v
	}
	return out
}

// Store guards one Settings document and writes it back on every change.
// A Store without a path keeps everything in memory.
type Store struct {
	path string
	log  *zerolog.Logger

	mu   sync.Mutex
	data Settings
}

// Open reads path if it exists. A missing file yields empty settings; the
// file is created on the first change.
func Open(path string, logger *zerolog.Logger) (*Store, error) {
	st := &Store{path: path, log: applog.OrNop(logger)}
	if path == "" {
		return st, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		st.log.Debug().Str("path", path).Msg("no settings file yet")
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(raw, &st.data); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return st, nil
}

// NewMemory returns a Store that never touches disk.
func NewMemory(initial Settings) *Store {
	return &Store{log: applog.Nop(), data: initial.clone()}
}

// Snapshot returns a copy of the current settings.
func (st *Store) Snapshot() Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.data.clone()
}

// BlockRules builds the filter snapshot for one filtering pass.
func (st *Store) BlockRules() filter.BlockRules {
	st.mu.Lock()
	defer st.mu.Unlock()
	return filter.NewBlockRules(st.data.BlockedNicks, st.data.BlockedTrips)
}

// SpecialUsers returns the highlight rules.
func (st *Store) SpecialUsers() []filter.SpecialUser {
	st.mu.Lock()
	defer st.mu.Unlock()
	return slices.Clone(st.data.SpecialUsers)
}

// AutoReconnect returns the stored switch, or fallback when it was never set.
func (st *Store) AutoReconnect(fallback bool) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.data.AutoReconnect == nil {
		return fallback
	}
	return *st.data.AutoReconnect
}

// BlockNick hides messages from nick. It reports whether anything changed.
func (st *Store) BlockNick(nick string) (bool, error) {
	return st.update(func(s *Settings) bool { return addUnique(&s.BlockedNicks, nick) })
}

// BlockTrip hides messages signed with trip.
func (st *Store) BlockTrip(trip string) (bool, error) {
	return st.update(func(s *Settings) bool { return addUnique(&s.BlockedTrips, trip) })
}

// UnblockNick reverses BlockNick.
func (st *Store) UnblockNick(nick string) (bool, error) {
	return st.update(func(s *Settings) bool { return remove(&s.BlockedNicks, nick) })
}

// UnblockTrip reverses BlockTrip.
func (st *Store) UnblockTrip(trip string) (bool, error) {
	return st.update(func(s *Settings) bool { return remove(&s.BlockedTrips, trip) })
}

// SetAutoReconnect stores the reconnect switch.
func (st *Store) SetAutoReconnect(on bool) error {
	_, err := st.update(func(s *Settings) bool {
		if s.AutoReconnect != nil && *s.AutoReconnect == on {
			return false
		}
		s.AutoReconnect = &on
		return true
	})
	return err
}

// AddSpecialUser appends a highlight rule. Rules need a nick or a trip.
func (st *Store) AddSpecialUser(u filter.SpecialUser) error {
	if u.Nick == "" && u.Trip == "" {
		return errors.New("settings: special user needs a nick or trip")
	}
	_, err := st.update(func(s *Settings) bool {
		s.SpecialUsers = append(s.SpecialUsers, u)
		return true
	})
	return err
}

// AddProxy records an extra websocket endpoint.
func (st *Store) AddProxy(url string) (bool, error) {
	return st.update(func(s *Settings) bool { return addUnique(&s.Proxies, url) })
}

func (st *Store) update(fn func(*Settings) bool) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	next := st.data.clone()
	if !fn(&next) {
		return false, nil
	}
	if err := st.saveLocked(next); err != nil {
		return false, err
	}
	st.data = next
	return true, nil
}

func (st *Store) saveLocked(s Settings) error {
	if st.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(st.path), filepath.Base(st.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), st.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	st.log.Debug().Str("path", st.path).Msg("settings saved")
	return nil
}

func addUnique(list *[]string, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || slices.Contains(*list, v) {
		return false
	}
	*list = append(*list, v)
	return true
}

func remove(list *[]string, v string) bool {
	i := slices.Index(*list, strings.TrimSpace(v))
	if i < 0 {
		return false
	}
	*list = slices.Delete(*list, i, i+1)
	return true
}
