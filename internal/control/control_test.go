package control

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/star/orrery/internal/propagation"
	"github.com/star/orrery/internal/session"
	"github.com/star/orrery/internal/simtime"
	"github.com/star/orrery/internal/units"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newSession() *session.Session {
	return session.New(session.Config{
		Clock: simtime.Config{StartJD: units.J2000, Speed: 1},
		Scale: units.DefaultScale(),
	}, propagation.NewKeplerProvider(), testLogger())
}

func ptr(f float64) *float64 { return &f }

func TestApply(t *testing.T) {
	sess := newSession()
	h := NewHandler(sess, Config{}, testLogger())

	tests := []struct {
		name    string
		cmd     Command
		wantErr string
		check   func(t *testing.T, st simtime.State)
	}{
		{"play", Command{Op: OpPlay}, "", func(t *testing.T, st simtime.State) {
			if !st.Playing {
				t.Error("expected playing")
			}
		}},
		{"pause", Command{Op: OpPause}, "", func(t *testing.T, st simtime.State) {
			if st.Playing {
				t.Error("expected paused")
			}
		}},
		{"speed clamps", Command{Op: OpSpeed, Speed: ptr(5000)}, "", func(t *testing.T, st simtime.State) {
			if st.Speed != simtime.MaxSpeed {
				t.Errorf("speed = %v, want %v", st.Speed, simtime.MaxSpeed)
			}
		}},
		{"seek jd", Command{Op: OpSeek, JD: ptr(2460000.5)}, "", func(t *testing.T, st simtime.State) {
			if st.JD != 2460000.5 {
				t.Errorf("jd = %v, want 2460000.5", st.JD)
			}
		}},
		{"seek date", Command{Op: OpSeek, Date: "2024-01-01"}, "", func(t *testing.T, st simtime.State) {
			if st.JD != 2460310.5 {
				t.Errorf("jd = %v, want 2460310.5", st.JD)
			}
		}},
		{"snapshot", Command{Op: OpSnapshot}, "", func(t *testing.T, st simtime.State) {
			if st.JD != 2460310.5 {
				t.Errorf("snapshot jd = %v, want 2460310.5", st.JD)
			}
		}},
		{"missing speed", Command{Op: OpSpeed}, "speed is required", nil},
		{"missing seek target", Command{Op: OpSeek}, "jd or date is required", nil},
		{"bad date", Command{Op: OpSeek, Date: "yesterday"}, "invalid date", nil},
		{"unknown op", Command{Op: "rewind"}, "unknown op", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := h.Apply(Command{Op: tt.cmd.Op, ID: tt.name, Speed: tt.cmd.Speed, JD: tt.cmd.JD, Date: tt.cmd.Date})
			if msg.ID != tt.name {
				t.Errorf("reply id = %q, want %q", msg.ID, tt.name)
			}
			if tt.wantErr != "" {
				if msg.Type != "error" || !strings.Contains(msg.Error, tt.wantErr) {
					t.Fatalf("reply = %+v, want error containing %q", msg, tt.wantErr)
				}
				return
			}
			if msg.Type != "state" || msg.State == nil {
				t.Fatalf("reply = %+v, want state", msg)
			}
			tt.check(t, *msg.State)
		})
	}
}

func TestApply_SeekBumpsGeneration(t *testing.T) {
	sess := newSession()
	h := NewHandler(sess, Config{}, testLogger())

	before := sess.Generation()
	msg := h.Apply(Command{Op: OpSeek, JD: ptr(2451600)})
	if msg.Generation != before+1 {
		t.Errorf("generation = %d, want %d", msg.Generation, before+1)
	}
}

func TestCheckOrigin(t *testing.T) {
	h := NewHandler(newSession(), Config{AllowedOrigins: []string{"https://orrery.example"}}, testLogger())

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://orrery.example", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/session/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := h.checkOrigin(r); got != tt.want {
			t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func dial(t *testing.T, h http.Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/session/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil returns the first message of the given type, skipping others.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("reading %s message: %v", typ, err)
		}
		if msg.Type == typ {
			return msg
		}
	}
}

func TestServeHTTP_Commands(t *testing.T) {
	sess := newSession()
	conn := dial(t, NewHandler(sess, Config{FrameInterval: time.Millisecond}, testLogger()))

	greeting := readUntil(t, conn, "state")
	if greeting.State == nil || greeting.State.JD != units.J2000 {
		t.Fatalf("greeting = %+v, want state at J2000", greeting)
	}

	if err := conn.WriteJSON(Command{Op: OpSpeed, ID: "s1", Speed: ptr(42)}); err != nil {
		t.Fatal(err)
	}
	reply := readUntil(t, conn, "state")
	if reply.ID != "s1" || reply.State.Speed != 42 {
		t.Errorf("reply = %+v, want id s1 speed 42", reply)
	}
	if sess.Snapshot().Speed != 42 {
		t.Errorf("session speed = %v, want 42", sess.Snapshot().Speed)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if msg := readUntil(t, conn, "error"); msg.Error != "invalid JSON" {
		t.Errorf("error = %q, want invalid JSON", msg.Error)
	}
}

func TestServeHTTP_PushesFrames(t *testing.T) {
	sess := newSession()
	conn := dial(t, NewHandler(sess, Config{FrameInterval: time.Millisecond}, testLogger()))
	readUntil(t, conn, "state")

	if err := conn.WriteJSON(Command{Op: OpSeek, Date: "2024-01-01"}); err != nil {
		t.Fatal(err)
	}
	msg := readUntil(t, conn, "frame")
	if msg.Frame == nil {
		t.Fatal("frame message without frame")
	}
	if msg.Frame.State.JD != 2460310.5 {
		t.Errorf("frame jd = %v, want 2460310.5", msg.Frame.State.JD)
	}
	if len(msg.Frame.Bodies) == 0 {
		t.Error("frame has no bodies")
	}
}

func TestServeHTTP_SeekOutsideCommonEra(t *testing.T) {
	sess := newSession()
	conn := dial(t, NewHandler(sess, Config{FrameInterval: time.Nanosecond}, testLogger()))
	readUntil(t, conn, "state")

	tests := []struct {
		jd   float64
		date string
	}{
		{6e6, "11715-05-05T12:00:00Z"},
		{0, "-4713-11-24T12:00:00Z"},
	}
	for _, tt := range tests {
		if err := conn.WriteJSON(Command{Op: OpSeek, ID: "seek", JD: ptr(tt.jd)}); err != nil {
			t.Fatal(err)
		}
		if reply := readUntil(t, conn, "state"); reply.Date != tt.date {
			t.Errorf("seek %v: date = %q, want %q", tt.jd, reply.Date, tt.date)
		}
		for {
			msg := readUntil(t, conn, "frame")
			if msg.Frame != nil && float64(msg.Frame.State.JD) == tt.jd {
				if msg.Frame.Date != tt.date {
					t.Errorf("frame %v: date = %q, want %q", tt.jd, msg.Frame.Date, tt.date)
				}
				break
			}
		}
	}

	// The socket survives frames at both dates.
	if err := conn.WriteJSON(Command{Op: OpSnapshot, ID: "after"}); err != nil {
		t.Fatal(err)
	}
	if msg := readUntil(t, conn, "state"); msg.ID != "after" || msg.State.JD != 0 {
		t.Errorf("snapshot = %+v, want id after at JD 0", msg)
	}
}

func TestServeHTTP_RateLimited(t *testing.T) {
	sess := newSession()
	conn := dial(t, NewHandler(sess, Config{CommandsPerSecond: 0.001, CommandBurst: 1}, testLogger()))
	readUntil(t, conn, "state")

	for _, id := range []string{"a", "b"} {
		if err := conn.WriteJSON(Command{Op: OpSnapshot, ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	if msg := readUntil(t, conn, "state"); msg.ID != "a" {
		t.Errorf("first reply id = %q, want a", msg.ID)
	}
	msg := readUntil(t, conn, "error")
	if msg.ID != "b" || msg.Error != "rate limit exceeded" {
		t.Errorf("second reply = %+v, want rate limit error for b", msg)
	}
}

func TestServeHTTP_ConnectionLimit(t *testing.T) {
	sess := newSession()
	srv := httptest.NewServer(NewHandler(sess, Config{MaxConnsPerIP: 1}, testLogger()))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	first, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("first dial: %v", err)
	}
	readUntil(t, first, "state")

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("second dial should be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second dial response = %v, want 429", resp)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	first.Close()
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("slot not released after close: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
