package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
)

const (
	// Time between keepalive comments
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// SSEClient is a read-only group member backed by a Server-Sent-Events stream
type SSEClient struct {
	id     string
	send   chan []byte
	logger *slog.Logger
}

// NewSSEClient creates a client with a fresh connection id
func NewSSEClient(logger *slog.Logger) *SSEClient {
	id := "sse-" + uuid.NewString()
	return &SSEClient{
		id:     id,
		send:   make(chan []byte, sendBufferSize),
		logger: logger.With(slog.String("conn_id", id)),
	}
}

func (c *SSEClient) ID() string {
	return c.id
}

// Emit queues the event. A full buffer drops the message rather than stall the broadcaster.
func (c *SSEClient) Emit(event string, v ...interface{}) {
	var payload any
	if len(v) > 0 {
		payload = v[0]
	}
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("sse encode failed", slog.String("event", event), slog.String("error", err.Error()))
		return
	}
	select {
	case c.send <- formatSSEMessage(event, string(data)):
	default:
		c.logger.Warn("sse message dropped - client buffer full", slog.String("event", event))
	}
}

// ServeSSE streams the session's broadcasts until the client goes away
func ServeSSE(w http.ResponseWriter, r *http.Request, gateway *Gateway, code model.SessionCode) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := NewSSEClient(gateway.logger)
	gateway.Join(code, client)
	defer gateway.Leave(code, client.ID())

	_, _ = w.Write(formatSSEMessage("connected", `{"status":"connected"}`))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-client.send:
			if _, err := w.Write(message); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// formatSSEMessage prefixes every data line with "data: "
func formatSSEMessage(event, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteString("\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
