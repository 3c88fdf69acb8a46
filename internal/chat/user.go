package chat

// Role is the privilege level the server reports for a user.
type Role int

const (
	RoleNormal Role = iota
	RoleModerator
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleModerator:
		return "mod"
	case RoleAdmin:
		return "admin"
	default:
		return "user"
	}
}

// RoleFromFlags maps the chat frame's mod/admin flags to a Role.
func RoleFromFlags(mod, admin bool) Role {
	switch {
	case admin:
		return RoleAdmin
	case mod:
		return RoleModerator
	default:
		return RoleNormal
	}
}

// RoleFromUType maps the uType field of roster frames to a Role.
func RoleFromUType(uType string) Role {
	switch uType {
	case "admin":
		return RoleAdmin
	case "mod":
		return RoleModerator
	default:
		return RoleNormal
	}
}

// User is a channel member as seen by the client.
type User struct {
	Nick string
	Trip string
	Role Role
}

// Roster is the set of present users keyed by nick. Iteration follows
// insertion order.
type Roster struct {
	order []string
	users map[string]User
}

// NewRoster constructs an empty roster.
func NewRoster() *Roster {
	return &Roster{users: make(map[string]User)}
}

// Add inserts a user. Returns true if newly added; an existing entry is
// refreshed in place.
func (r *Roster) Add(u User) bool {
	if r.users == nil {
		r.users = make(map[string]User)
	}
	if _, exists := r.users[u.Nick]; exists {
		r.users[u.Nick] = u
		return false
	}
	r.users[u.Nick] = u
	r.order = append(r.order, u.Nick)
	return true
}

// Remove deletes a user. Returns true if removed.
func (r *Roster) Remove(nick string) bool {
	if _, exists := r.users[nick]; !exists {
		return false
	}
	delete(r.users, nick)
	for i, n := range r.order {
		if n == nick {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Replace swaps the whole roster for users. Duplicate nicks keep their first
// position and their last value.
func (r *Roster) Replace(users []User) {
	r.Clear()
	for _, u := range users {
		r.Add(u)
	}
}

// Get returns the user with the given nick.
func (r *Roster) Get(nick string) (User, bool) {
	u, ok := r.users[nick]
	return u, ok
}

// Has reports whether nick is present.
func (r *Roster) Has(nick string) bool {
	_, ok := r.users[nick]
	return ok
}

// Len returns the number of present users.
func (r *Roster) Len() int {
	return len(r.order)
}

// Users returns the present users in insertion order.
func (r *Roster) Users() []User {
	out := make([]User, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.users[n])
	}
	return out
}

// Nicks returns the present nicks in insertion order.
func (r *Roster) Nicks() []string {
	return append([]string(nil), r.order...)
}

// Clear removes every user.
func (r *Roster) Clear() {
	r.order = nil
	r.users = make(map[string]User)
}
