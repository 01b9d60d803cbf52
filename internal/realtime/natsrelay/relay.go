// Package natsrelay mirrors session broadcasts across server instances over NATS.
// Each instance publishes what it broadcasts and delivers what the others publish
// to its own local members.
package natsrelay

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
	"github.com/itsinfi/prompt-with-friends-backend/internal/realtime"
)

const subjectPrefix = "pwf.session"

// Conn is the subset of *nats.Conn the relay uses
type Conn interface {
	Publish(subj string, data []byte) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Envelope is the wire format of a relayed broadcast
type Envelope struct {
	Origin  string          `json:"origin"`
	Event   model.EventType `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Relay is a realtime.Sink that also feeds remote broadcasts into the local gateway
type Relay struct {
	conn   Conn
	origin string
	logger *slog.Logger
}

var _ realtime.Sink = (*Relay)(nil)

// Connect dials NATS with reconnect handling
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("prompt-with-friends"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error("nats error", slog.String("error", err.Error()))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return nc, nil
}

// New creates a Relay with a unique origin id for this instance
func New(conn Conn, logger *slog.Logger) *Relay {
	return &Relay{
		conn:   conn,
		origin: uuid.NewString(),
		logger: logger.With(slog.String("component", "natsrelay")),
	}
}

// Subject returns the subject a session event is published on
func Subject(code model.SessionCode, event model.EventType) string {
	return subjectPrefix + "." + string(code) + "." + string(event)
}

// Publish sends the broadcast to the other instances
func (r *Relay) Publish(code model.SessionCode, event model.EventType, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(Envelope{Origin: r.origin, Event: event, Payload: data})
	if err != nil {
		return err
	}
	return r.conn.Publish(Subject(code, event), msg)
}

// Attach registers the relay as a sink and delivers remote broadcasts to the gateway's members
func (r *Relay) Attach(gateway *realtime.Gateway) error {
	_, err := r.conn.Subscribe(subjectPrefix+".*.*", func(msg *nats.Msg) {
		r.handle(gateway, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe to relay subject: %w", err)
	}
	gateway.AddSink(r)
	return nil
}

func (r *Relay) handle(gateway *realtime.Gateway, msg *nats.Msg) {
	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		r.logger.Warn("relay message dropped", slog.String("subject", msg.Subject), slog.String("error", err.Error()))
		return
	}
	if env.Origin == r.origin {
		return
	}

	parts := strings.Split(msg.Subject, ".")
	if len(parts) != 4 {
		return
	}
	gateway.Deliver(model.SessionCode(parts[2]), env.Event, env.Payload)
}
