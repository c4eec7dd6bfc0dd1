package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/star/orrery/internal/metrics"
)

// writeTimeout bounds each write on a long-lived connection.
const writeTimeout = 30 * time.Second

// eventWriter frames SSE fields onto one response and flushes each event.
type eventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController
	ip      string
	logger  *slog.Logger
	buf     bytes.Buffer

	events int64
	bytes  int64
}

func newEventWriter(w http.ResponseWriter, flusher http.Flusher, ip string, logger *slog.Logger) *eventWriter {
	return &eventWriter{
		w:       w,
		flusher: flusher,
		rc:      http.NewResponseController(w),
		ip:      ip,
		logger:  logger,
	}
}

// clearDeadline lifts the server's WriteTimeout for the stream's lifetime.
func (e *eventWriter) clearDeadline() {
	if err := e.rc.SetWriteDeadline(time.Time{}); err != nil {
		e.logger.Debug("could not clear write deadline", "remote_ip", e.ip, "error", err)
	}
}

// retry tells the browser how long to wait before reconnecting.
func (e *eventWriter) retry(d time.Duration) error {
	e.buf.Reset()
	e.buf.WriteString("retry: ")
	e.buf.WriteString(strconv.FormatInt(d.Milliseconds(), 10))
	e.buf.WriteString("\n\n")
	return e.flush(false)
}

// sendJSON marshals v and sends it as a data event.
func (e *eventWriter) sendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return e.sendData(data)
}

// sendData sends pre-encoded JSON as "data: {json}\n\n". JSON from
// encoding/json never contains a raw newline, so one data line suffices.
func (e *eventWriter) sendData(data []byte) error {
	e.buf.Reset()
	e.buf.WriteString("data: ")
	e.buf.Write(data)
	e.buf.WriteString("\n\n")
	return e.flush(true)
}

// keepalive sends an SSE comment.
func (e *eventWriter) keepalive() error {
	e.buf.Reset()
	e.buf.WriteString(":\n\n")
	return e.flush(false)
}

func (e *eventWriter) flush(counted bool) error {
	if err := e.rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		e.logger.Debug("could not set write deadline", "remote_ip", e.ip, "error", err)
	}
	n, err := e.w.Write(e.buf.Bytes())
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	e.flusher.Flush()

	e.bytes += int64(n)
	metrics.AddStreamBytes(int64(n))
	if counted {
		e.events++
		metrics.IncStreamMessages()
	}
	return nil
}
