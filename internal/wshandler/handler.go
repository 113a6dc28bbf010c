package wshandler

import (
	"github.com/gorilla/websocket"
)

// MessageType distinguishes text and binary data messages.
type MessageType int

const (
	TextMessage   MessageType = websocket.TextMessage
	BinaryMessage MessageType = websocket.BinaryMessage
)

// String returns the message type name
func (t MessageType) String() string {
	switch t {
	case TextMessage:
		return "text"
	case BinaryMessage:
		return "binary"
	default:
		return "unknown"
	}
}

// Message is a complete (reassembled) data message.
type Message struct {
	Type MessageType
	Data []byte
}

// Text returns the payload as a string.
func (m Message) Text() string {
	return string(m.Data)
}

// Handler is the capability a WebSocket application provides.
type Handler interface {
	// OnConnected is called once the upgrade handshake has completed.
	OnConnected(conn *Conn)
	// OnMessage is called for each text or binary message.
	OnMessage(conn *Conn, msg Message)
	// OnClosed is called exactly once after the connection ends, with the
	// peer's close code or websocket.CloseAbnormalClosure if it vanished.
	OnClosed(conn *Conn, code int)
}

// HandlerFuncs builds a Handler from optional functions.
type HandlerFuncs struct {
	Connected func(conn *Conn)
	Received  func(conn *Conn, msg Message)
	Closed    func(conn *Conn, code int)
}

// OnConnected implements Handler
func (h HandlerFuncs) OnConnected(conn *Conn) {
	if h.Connected != nil {
		h.Connected(conn)
	}
}

// OnMessage implements Handler
func (h HandlerFuncs) OnMessage(conn *Conn, msg Message) {
	if h.Received != nil {
		h.Received(conn, msg)
	}
}

// OnClosed implements Handler
func (h HandlerFuncs) OnClosed(conn *Conn, code int) {
	if h.Closed != nil {
		h.Closed(conn, code)
	}
}
