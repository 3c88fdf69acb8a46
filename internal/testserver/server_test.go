package testserver

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/hackchat-client/internal/proto"
)

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func write(t *testing.T, ctx context.Context, conn *websocket.Conn, cmd proto.Command) {
	t.Helper()
	if err := conn.Write(ctx, websocket.MessageText, proto.MustEncode(cmd)); err != nil {
		t.Fatalf("write %s: %v", cmd.Name(), err)
	}
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.Event {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	ev, err := proto.Decode(data)
	if err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return ev
}

func TestJoinChatAndLeave(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	srv := New(Options{Now: func() time.Time { return fixed }}, nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()
	url := strings.Replace(ts.URL, "http", "ws", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a := dial(t, ctx, url)
	write(t, ctx, a, proto.Join{Channel: "lab", Nick: "alice", Password: "pw"})
	set, ok := read(t, ctx, a).(proto.OnlineSet)
	if !ok || len(set.Nicks) != 1 || set.Users[0].Trip != Tripcode("pw") {
		t.Fatalf("unexpected onlineSet: %+v", set)
	}

	b := dial(t, ctx, url)
	write(t, ctx, b, proto.Join{Channel: "lab", Nick: "alice"})
	if warn, ok := read(t, ctx, b).(proto.Warn); !ok || warn.Text != warnNickTaken {
		t.Fatalf("expected nick taken, got %+v", warn)
	}
	write(t, ctx, b, proto.Join{Channel: "lab", Nick: "bad nick!"})
	if warn, ok := read(t, ctx, b).(proto.Warn); !ok || warn.Text != warnNickInvalid {
		t.Fatalf("expected invalid nick, got %+v", warn)
	}
	write(t, ctx, b, proto.Join{Channel: "lab", Nick: "bob"})
	if _, ok := read(t, ctx, b).(proto.OnlineSet); !ok {
		t.Fatalf("expected onlineSet for bob")
	}
	if add, ok := read(t, ctx, a).(proto.OnlineAdd); !ok || add.Nick != "bob" {
		t.Fatalf("expected onlineAdd, got %+v", add)
	}

	write(t, ctx, b, proto.Ping{})
	write(t, ctx, b, proto.Say{Text: "hey"})
	for _, conn := range []*websocket.Conn{a, b} {
		chat, ok := read(t, ctx, conn).(proto.Chat)
		if !ok || chat.Nick != "bob" || chat.Text != "hey" || chat.Time != fixed.UnixMilli() {
			t.Fatalf("unexpected chat: %+v", chat)
		}
	}
	if srv.Pings() != 1 {
		t.Fatalf("expected one ping, got %d", srv.Pings())
	}

	if !srv.Kick("lab", "bob") {
		t.Fatalf("kick failed")
	}
	if rm, ok := read(t, ctx, a).(proto.OnlineRemove); !ok || rm.Nick != "bob" {
		t.Fatalf("expected onlineRemove, got %+v", rm)
	}
	if got := srv.Online("lab"); len(got) != 1 || got[0] != "alice" {
		t.Fatalf("unexpected roster: %v", got)
	}

	var names []string
	for _, cmd := range srv.Received() {
		names = append(names, cmd.Name())
	}
	if strings.Join(names, ",") != "join,join,join,join,ping,chat" {
		t.Fatalf("unexpected command log: %v", names)
	}
}

func TestRequireOrigin(t *testing.T) {
	srv := New(Options{RequireOrigin: "https://hack.chat"}, nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, strings.Replace(ts.URL, "http", "ws", 1), nil)
	if err == nil {
		t.Fatalf("expected origin rejection")
	}
	if resp == nil || resp.StatusCode != 403 {
		t.Fatalf("expected 403, got %+v", resp)
	}
}

func TestTripcode(t *testing.T) {
	if Tripcode("") != "" {
		t.Fatalf("empty password must have no trip")
	}
	if a, b := Tripcode("x"), Tripcode("x"); a != b || len(a) != 6 {
		t.Fatalf("tripcode not stable: %q %q", a, b)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	start := time.Unix(0, 0)
	r := newRateLimiter(2, time.Minute)
	steps := []struct {
		at   time.Duration
		want bool
	}{
		{0, true},
		{time.Second, true},
		{2 * time.Second, false},
		{time.Minute, true},
	}
	for _, s := range steps {
		if got := r.allow(start.Add(s.at)); got != s.want {
			t.Fatalf("at %s: got %v want %v", s.at, got, s.want)
		}
	}

	var unlimited *rateLimiter
	if !unlimited.allow(start) || !newRateLimiter(0, 0).allow(start) {
		t.Fatalf("zero limit must allow everything")
	}
}
