package chat

import (
	"time"

	"github.com/vovakirdan/hackchat-client/internal/proto"
)

// Store holds the roster and the message log of one connection attempt.
// It is not safe for concurrent use; the session serializes access.
type Store struct {
	Roster *Roster
	Log    *Log
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{Roster: NewRoster(), Log: &Log{}}
}

// Reset clears both roster and log.
func (s *Store) Reset() {
	s.Roster.Clear()
	s.Log.Clear()
}

// Apply folds one server event into the store and returns how many messages
// were appended. now stamps locally generated notices. Warn is always
// treated as a notice here; deciding whether it rejects a join is the
// session's business.
func (s *Store) Apply(ev proto.Event, now time.Time) int {
	before := s.Log.Len()

	switch e := ev.(type) {
	case proto.Chat:
		s.Log.Append(Message{
			Time: e.Time,
			Nick: e.Nick,
			Text: e.Text,
			Trip: e.Trip,
			Role: RoleFromFlags(e.Mod, e.Admin),
			Kind: KindChat,
		})
	case proto.OnlineSet:
		s.Roster.Replace(onlineSetUsers(e))
	case proto.OnlineAdd:
		s.Roster.Add(User{Nick: e.Nick, Trip: e.Trip, Role: RoleFromUType(e.UType)})
		s.Log.Append(systemMessage(now, e.Nick+" joined the channel."))
	case proto.OnlineRemove:
		s.Roster.Remove(e.Nick)
		s.Log.Append(systemMessage(now, e.Nick+" left."))
	case proto.Info:
		s.Log.Append(systemMessage(now, "System: "+e.Text))
	case proto.Warn:
		s.Log.Append(systemMessage(now, "Warning: "+e.Text))
	}

	return s.Log.Len() - before
}

func onlineSetUsers(e proto.OnlineSet) []User {
	details := make(map[string]proto.OnlineUser, len(e.Users))
	for _, u := range e.Users {
		details[u.Nick] = u
	}
	users := make([]User, 0, len(e.Nicks))
	for _, nick := range e.Nicks {
		u := User{Nick: nick}
		if d, ok := details[nick]; ok {
			u.Trip = d.Trip
			u.Role = RoleFromUType(d.UType)
		}
		users = append(users, u)
	}
	return users
}
