package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/hackchat-client/internal/chat"
	"github.com/vovakirdan/hackchat-client/internal/config"
	applog "github.com/vovakirdan/hackchat-client/internal/log"
	"github.com/vovakirdan/hackchat-client/internal/session"
	"github.com/vovakirdan/hackchat-client/internal/testserver"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testServer(t *testing.T) (*testserver.Server, config.Config) {
	t.Helper()
	srv := testserver.New(testserver.Options{RequireOrigin: "https://hack.chat"}, nil)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	cfg := config.Default()
	cfg.WSURL = strings.Replace(ts.URL, "http", "ws", 1) + "/chat-ws"
	cfg.SettingsPath = filepath.Join(t.TempDir(), "settings.yaml")
	cfg.AutoReconnect = false
	return srv, cfg
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	_, cfg := testServer(t)
	return cfg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func waitOutput(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("output never contained %q:\n%s", want, out.String())
}

func TestSmoke(t *testing.T) {
	a, err := New(testConfig(t), Options{}, applog.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	if err := a.Smoke(ctx, session.Credentials{Nick: "smoker", Channel: "lab"}, "ping from smoke", &out); err != nil {
		t.Fatalf("smoke: %v", err)
	}
	if !strings.Contains(out.String(), "echo received") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestSmokeReportsRejection(t *testing.T) {
	a, err := New(testConfig(t), Options{}, applog.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = a.Smoke(ctx, session.Credentials{Nick: "not valid!", Channel: "lab"}, "x", io.Discard)
	if err == nil || !strings.Contains(err.Error(), "failed") {
		t.Fatalf("expected failed join, got %v", err)
	}
}

func TestProxySelection(t *testing.T) {
	cfg := testConfig(t)
	direct := cfg.WSURL
	cfg.Proxies = []string{"wss://proxy.invalid/chat-ws"}

	a, err := New(cfg, Options{Proxy: 1}, applog.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if a.Endpoint() != "wss://proxy.invalid/chat-ws" {
		t.Fatalf("unexpected endpoint %s", a.Endpoint())
	}

	b, err := New(cfg, Options{Proxy: 7}, applog.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if b.Endpoint() != direct {
		t.Fatalf("out of range proxy must fall back, got %s", b.Endpoint())
	}
}

func TestNoReconnectOutranksSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoReconnect = false
	if err := os.WriteFile(cfg.SettingsPath, []byte("auto_reconnect: true\n"), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	a, err := New(cfg, Options{}, applog.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if !a.AutoReconnect() {
		t.Fatalf("stored setting should win over the config default")
	}

	b, err := New(cfg, Options{NoReconnect: true}, applog.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if b.AutoReconnect() {
		t.Fatalf("--no-reconnect must outrank the stored setting")
	}
}

func TestPrinterKeepsPositionAcrossBlockRules(t *testing.T) {
	srv, cfg := testServer(t)
	a, err := New(cfg, Options{}, applog.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	c := a.Client()
	defer c.Close()

	if err := c.Join("reader", "lab", ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	waitFor(t, "joined", func() bool { return c.View().Status == session.StatusJoined })

	say := func(nick, text string) {
		t.Helper()
		frame := fmt.Sprintf(`{"cmd":"chat","time":1,"nick":%q,"text":%q}`, nick, text)
		if !srv.Inject("lab", "reader", []byte(frame)) {
			t.Fatalf("inject %s", text)
		}
	}
	logged := func(n int) func() bool {
		return func() bool {
			v := c.View()
			return len(v.Messages)+v.Hidden == n
		}
	}

	say("a", "one")
	say("troll", "spam")
	say("a", "two")
	waitFor(t, "three messages", logged(3))

	var out bytes.Buffer
	p := printer{out: &out}
	p.print(c)
	if got := strings.Count(out.String(), "\n"); got != 4 {
		t.Fatalf("expected status and three messages, got:\n%s", out.String())
	}

	out.Reset()
	if err := c.BlockNick("troll"); err != nil {
		t.Fatalf("block: %v", err)
	}
	p.print(c)
	if out.Len() != 0 {
		t.Fatalf("blocking replayed history:\n%s", out.String())
	}

	say("troll", "more")
	say("a", "three")
	waitFor(t, "five messages", logged(5))
	p.print(c)
	if out.String() != formatLine(chat.Message{Time: 1, Nick: "a", Text: "three"})+"\n" {
		t.Fatalf("expected only the new visible message, got:\n%s", out.String())
	}

	out.Reset()
	if err := c.UnblockNick("troll"); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	p.print(c)
	if out.Len() != 0 {
		t.Fatalf("unblocking replayed history:\n%s", out.String())
	}
}

func TestLineMode(t *testing.T) {
	a, err := New(testConfig(t), Options{}, applog.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pr, pw := io.Pipe()
	defer pw.Close()
	out := &syncBuffer{}

	done := make(chan error, 1)
	go func() {
		done <- a.RunLine(ctx, session.Credentials{Nick: "liner", Channel: "lab"}, pr, out)
	}()

	waitOutput(t, out, "-- joined")
	if _, err := io.WriteString(pw, "hello there\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitOutput(t, out, "liner: hello there")

	if _, err := io.WriteString(pw, "/bogus\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitOutput(t, out, "! unknown command /bogus")

	if _, err := io.WriteString(pw, "/quit\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("line mode: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("line mode did not exit")
	}
}

func TestFormatLine(t *testing.T) {
	at := time.Date(2026, 1, 2, 15, 4, 0, 0, time.Local).UnixMilli()
	cases := []struct {
		msg  chat.Message
		want string
	}{
		{chat.Message{Time: at, Nick: "bob", Text: "hi"}, "[15:04] bob: hi"},
		{chat.Message{Time: at, Nick: "bob", Text: "hi", Trip: "abc"}, "[15:04] bob#abc: hi"},
		{chat.Message{Time: at, Nick: chat.SystemNick, Text: "*bob left.*", Kind: chat.KindSystem}, "[15:04] bob left."},
	}
	for _, tc := range cases {
		if got := formatLine(tc.msg); got != tc.want {
			t.Fatalf("got %q want %q", got, tc.want)
		}
	}
}
