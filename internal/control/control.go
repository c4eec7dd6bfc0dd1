// Package control exposes the shared session over a websocket: clients send
// play/pause/speed/seek commands and receive state replies and live frames.
package control

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/star/orrery/internal/httputil"
	"github.com/star/orrery/internal/metrics"
	"github.com/star/orrery/internal/ratelimit"
	"github.com/star/orrery/internal/session"
	"github.com/star/orrery/internal/simtime"
	"github.com/star/orrery/internal/units"
)

// Command ops.
const (
	OpPlay     = "play"
	OpPause    = "pause"
	OpSpeed    = "speed"
	OpSeek     = "seek"
	OpSnapshot = "snapshot"
)

var (
	errUnknownOp    = errors.New("unknown op")
	errMissingSpeed = errors.New("speed is required")
	errMissingSeek  = errors.New("jd or date is required")
)

// Session is the subset of session.Session the handler drives.
type Session interface {
	Play() simtime.State
	Pause() simtime.State
	SetSpeed(speed float64) simtime.State
	SetDate(jd units.JulianDay) simtime.State
	Snapshot() simtime.State
	Generation() uint64
	Subscribe() (<-chan session.Frame, func())
}

// Config holds websocket control configuration.
type Config struct {
	CommandsPerSecond float64       // Per-connection command rate (default: 20).
	CommandBurst      int           // Per-connection burst (default: 40).
	FrameInterval     time.Duration // Minimum spacing of pushed frames (default: 100ms).
	PingInterval      time.Duration // default: 30s
	AllowedOrigins    []string      // Empty allows any origin.
	MaxConnsPerIP     int           // default: 4
	MaxConns          int           // default: 256
	TrustProxy        bool          // Use X-Forwarded-For for the client IP.
}

// Command is a client request.
type Command struct {
	Op    string   `json:"op"`
	ID    string   `json:"id,omitempty"`
	Speed *float64 `json:"speed,omitempty"`
	JD    *float64 `json:"jd,omitempty"`
	Date  string   `json:"date,omitempty"`
}

// Message is sent by the server. Type is "state", "frame" or "error".
type Message struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	State      *simtime.State `json:"state,omitempty"`
	Date       string         `json:"date,omitempty"`
	Generation uint64         `json:"generation,omitempty"`
	Frame      *session.Frame `json:"frame,omitempty"`
	Error      string         `json:"error,omitempty"`
}

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// Handler upgrades requests to websocket control connections.
type Handler struct {
	session  Session
	config   Config
	conns    *ratelimit.ConnLimiter
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a control handler.
func NewHandler(sess Session, config Config, logger *slog.Logger) *Handler {
	if config.CommandsPerSecond <= 0 {
		config.CommandsPerSecond = 20
	}
	if config.CommandBurst <= 0 {
		config.CommandBurst = 40
	}
	if config.FrameInterval <= 0 {
		config.FrameInterval = 100 * time.Millisecond
	}
	if config.PingInterval <= 0 {
		config.PingInterval = 30 * time.Second
	}
	if config.MaxConnsPerIP <= 0 {
		config.MaxConnsPerIP = 4
	}
	if config.MaxConns <= 0 {
		config.MaxConns = 256
	}
	h := &Handler{
		session: sess,
		config:  config,
		conns:   ratelimit.NewConnLimiter(config.MaxConnsPerIP, config.MaxConns),
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.config.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// ServeHTTP handles GET /api/v1/session/ws.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := httputil.ClientIP(r, h.config.TrustProxy)
	release, ok := h.conns.Acquire(ip)
	if !ok {
		metrics.IncRateLimited("control_conn")
		h.logger.Warn("control connection limit exceeded", "remote_ip", ip, "active", h.conns.Active(ip))
		w.Header().Set("Retry-After", "30")
		http.Error(w, "too many control connections", http.StatusTooManyRequests)
		return
	}
	defer release()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", "error", err, "remote_ip", ip)
		return
	}
	metrics.IncControlConnections()
	defer metrics.DecControlConnections()

	h.logger.Info("control client connected", "remote_ip", ip)
	h.serve(conn)
	h.logger.Info("control client disconnected", "remote_ip", ip)
}

func (h *Handler) serve(conn *websocket.Conn) {
	defer conn.Close()

	frames, unsubscribe := h.session.Subscribe()
	defer unsubscribe()

	replies := make(chan Message, 8)
	done := make(chan struct{})
	quit := make(chan struct{})
	defer close(quit)
	go h.readLoop(conn, replies, done, quit)

	// Greet with the current state.
	if err := h.write(conn, h.stateMessage("", h.session.Snapshot())); err != nil {
		return
	}

	ping := time.NewTicker(h.config.PingInterval)
	defer ping.Stop()

	var lastFrame time.Time
	for {
		select {
		case <-done:
			return
		case msg := <-replies:
			if err := h.write(conn, msg); err != nil {
				return
			}
		case f := <-frames:
			if time.Since(lastFrame) < h.config.FrameInterval {
				continue
			}
			lastFrame = time.Now()
			if err := h.write(conn, Message{Type: "frame", Frame: &f, Generation: f.Generation}); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop decodes commands until the connection fails, then closes done.
// Replies are dropped once quit is closed.
func (h *Handler) readLoop(conn *websocket.Conn, replies chan<- Message, done chan<- struct{}, quit <-chan struct{}) {
	defer close(done)

	reply := func(m Message) bool {
		select {
		case replies <- m:
			return true
		case <-quit:
			return false
		}
	}

	conn.SetReadLimit(maxMessageSize)
	pongWait := 2 * h.config.PingInterval
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	limiter := rate.NewLimiter(rate.Limit(h.config.CommandsPerSecond), h.config.CommandBurst)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("control read error", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			metrics.IncControlCommands("invalid", "error")
			if !reply(Message{Type: "error", Error: "invalid JSON"}) {
				return
			}
			continue
		}
		if !limiter.Allow() {
			metrics.IncRateLimited("control")
			metrics.IncControlCommands(opLabel(cmd.Op), "rate_limited")
			if !reply(Message{Type: "error", ID: cmd.ID, Error: "rate limit exceeded"}) {
				return
			}
			continue
		}
		if !reply(h.Apply(cmd)) {
			return
		}
	}
}

// Apply executes one command against the session and returns the reply.
func (h *Handler) Apply(cmd Command) Message {
	st, err := h.apply(cmd)
	if err != nil {
		metrics.IncControlCommands(opLabel(cmd.Op), "error")
		return Message{Type: "error", ID: cmd.ID, Error: err.Error()}
	}
	metrics.IncControlCommands(cmd.Op, "ok")
	h.logger.Debug("control command", "op", cmd.Op, "jd", float64(st.JD), "speed", st.Speed, "playing", st.Playing)
	return h.stateMessage(cmd.ID, st)
}

func (h *Handler) apply(cmd Command) (simtime.State, error) {
	switch cmd.Op {
	case OpPlay:
		return h.session.Play(), nil
	case OpPause:
		return h.session.Pause(), nil
	case OpSpeed:
		if cmd.Speed == nil {
			return simtime.State{}, errMissingSpeed
		}
		return h.session.SetSpeed(*cmd.Speed), nil
	case OpSeek:
		jd, err := seekTarget(cmd)
		if err != nil {
			return simtime.State{}, err
		}
		return h.session.SetDate(jd), nil
	case OpSnapshot:
		return h.session.Snapshot(), nil
	default:
		return simtime.State{}, errUnknownOp
	}
}

func seekTarget(cmd Command) (units.JulianDay, error) {
	switch {
	case cmd.JD != nil:
		// JSON cannot carry NaN or Inf.
		return units.JulianDay(*cmd.JD), nil
	case cmd.Date != "":
		return simtime.ParseDate(cmd.Date)
	default:
		return 0, errMissingSeek
	}
}

func (h *Handler) stateMessage(id string, st simtime.State) Message {
	return Message{
		Type:       "state",
		ID:         id,
		State:      &st,
		Date:       simtime.FormatDate(st.JD),
		Generation: h.session.Generation(),
	}
}

func (h *Handler) write(conn *websocket.Conn, msg Message) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("control write failed", "error", err)
		return err
	}
	return nil
}

// opLabel bounds the metric label set to known ops.
func opLabel(op string) string {
	switch op {
	case OpPlay, OpPause, OpSpeed, OpSeek, OpSnapshot:
		return op
	default:
		return "unknown"
	}
}
