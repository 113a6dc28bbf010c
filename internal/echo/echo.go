// Package echo provides the reference WebSocket handler: every message is
// sent straight back to the connection it came from.
package echo

import (
	"github.com/muurk/wsecho/internal/logging"
	"github.com/muurk/wsecho/internal/wshandler"
	"go.uber.org/zap"
)

// Handler echoes text as text and binary as binary.
type Handler struct{}

// New returns an echo handler.
func New() *Handler {
	return &Handler{}
}

// OnConnected implements wshandler.Handler
func (h *Handler) OnConnected(conn *wshandler.Conn) {
	logging.Info("websocket connected",
		zap.String("conn_id", conn.ID()),
		zap.String("remote_addr", conn.RemoteAddr()),
		zap.Bool("authenticated", conn.Authenticated()),
	)
}

// OnMessage implements wshandler.Handler
func (h *Handler) OnMessage(conn *wshandler.Conn, msg wshandler.Message) {
	if err := conn.Send(msg); err != nil {
		logging.Warn("echo failed",
			zap.String("conn_id", conn.ID()),
			zap.Error(err),
		)
		return
	}

	fields := []zap.Field{
		zap.String("conn_id", conn.ID()),
		zap.String("type", msg.Type.String()),
		zap.Int("length", len(msg.Data)),
	}
	if msg.Type == wshandler.TextMessage {
		fields = append(fields, zap.String("message", msg.Text()))
	}
	logging.Info("websocket received", fields...)
}

// OnClosed implements wshandler.Handler
func (h *Handler) OnClosed(conn *wshandler.Conn, code int) {
	logging.Info("websocket closed",
		zap.String("conn_id", conn.ID()),
		zap.String("remote_addr", conn.RemoteAddr()),
		zap.Int("code", code),
	)
}
