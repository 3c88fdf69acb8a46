package proto

// Event is a decoded server-to-client frame. The set of implementations is
// closed: Chat, OnlineSet, OnlineAdd, OnlineRemove, Info, Warn and Unknown.
type Event interface {
	Command() string
	event()
}

// Chat is a message posted to the channel.
type Chat struct {
	Time  int64 // milliseconds since epoch
	Nick  string
	Text  string
	Trip  string
	Mod   bool
	Admin bool
}

// OnlineUser is one entry of the optional detailed roster in onlineSet.
type OnlineUser struct {
	Nick  string
	Trip  string
	UType string
}

// OnlineSet carries the full roster; it doubles as the join acknowledgement.
type OnlineSet struct {
	Nicks []string
	Users []OnlineUser
}

// OnlineAdd announces a user entering the channel.
type OnlineAdd struct {
	Nick  string
	Trip  string
	UType string
}

// OnlineRemove announces a user leaving the channel.
type OnlineRemove struct {
	Nick string
}

// Info is a server notice.
type Info struct {
	Text string
}

// Warn is a server warning. Before the join is acknowledged it means the
// join was rejected.
type Warn struct {
	Text string
}

// Unknown is any well-formed frame whose command is not understood.
type Unknown struct {
	Cmd string
	Raw []byte
}

func (Chat) Command() string         { return CmdChat }
func (OnlineSet) Command() string    { return CmdOnlineSet }
func (OnlineAdd) Command() string    { return CmdOnlineAdd }
func (OnlineRemove) Command() string { return CmdOnlineRemove }
func (Info) Command() string         { return CmdInfo }
func (Warn) Command() string         { return CmdWarn }
func (u Unknown) Command() string    { return u.Cmd }

func (Chat) event()         {}
func (OnlineSet) event()    {}
func (OnlineAdd) event()    {}
func (OnlineRemove) event() {}
func (Info) event()         {}
func (Warn) event()         {}
func (Unknown) event()      {}
