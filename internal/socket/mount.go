package socket

import (
	"context"
	"log/slog"

	socketio "github.com/googollee/go-socket.io"

	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
)

// Namespace is the socket.io namespace the game uses
const Namespace = "/"

// Mount registers the game's event handlers on server
func (m *Manager) Mount(server *socketio.Server) {
	server.OnConnect(Namespace, func(c socketio.Conn) error {
		// Rejections are answered on the connection itself
		_ = m.Connect(context.Background(), c)
		return nil
	})

	server.OnEvent(Namespace, string(model.EventInitRound), func(c socketio.Conn) {
		m.InitRound(context.Background(), c)
	})

	server.OnEvent(Namespace, string(model.EventSendPrompt), func(c socketio.Conn, req model.SendPromptRequest) {
		m.SendPrompt(context.Background(), c, req)
	})

	server.OnEvent(Namespace, string(model.EventReceiveVote), func(c socketio.Conn, req model.ReceiveVoteRequest) {
		m.ReceiveVote(context.Background(), c, req)
	})

	server.OnError(Namespace, func(c socketio.Conn, err error) {
		attrs := []any{slog.String("error", err.Error())}
		if c != nil {
			attrs = append(attrs, slog.String("conn_id", c.ID()))
		}
		m.logger.Warn("socket error", attrs...)
	})

	server.OnDisconnect(Namespace, func(c socketio.Conn, reason string) {
		m.Disconnect(context.Background(), c, reason)
	})
}
