package wshandler

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/muurk/wsecho/internal/logging"
)

// ErrClosed is returned by Send after Close has been called.
var ErrClosed = errors.New("websocket connection closed")

// Conn is one upgraded WebSocket connection.
type Conn struct {
	id            string
	remoteAddr    string
	header        http.Header
	path          string
	authenticated bool

	ws        *websocket.Conn
	writeWait time.Duration

	writeMu sync.Mutex
	closed  bool
}

func newConn(ws *websocket.Conn, r *http.Request, authenticated bool, writeWait time.Duration) *Conn {
	return &Conn{
		id:            uuid.NewString(),
		remoteAddr:    r.RemoteAddr,
		header:        r.Header.Clone(),
		path:          r.URL.Path,
		authenticated: authenticated,
		ws:            ws,
		writeWait:     writeWait,
	}
}

// ID returns a unique identifier for the connection.
func (c *Conn) ID() string { return c.id }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string { return c.remoteAddr }

// Header returns a copy of the upgrade request headers.
func (c *Conn) Header() http.Header { return c.header }

// Path returns the request path the client connected to.
func (c *Conn) Path() string { return c.path }

// Authenticated reports whether the client passed a basic-auth check.
// It is false when the endpoint does not require authentication.
func (c *Conn) Authenticated() bool { return c.authenticated }

// Subprotocol returns the negotiated subprotocol, if any.
func (c *Conn) Subprotocol() string { return c.ws.Subprotocol() }

// Send writes a data message. Safe for concurrent use.
func (c *Conn) Send(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return ErrClosed
	}

	if c.writeWait > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
	}

	if err := c.ws.WriteMessage(int(msg.Type), msg.Data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}

	logging.LogWebSocketMessage(c.id, c.remoteAddr, "sent", int(msg.Type), msg.Data)
	return nil
}

// SendText writes a text message.
func (c *Conn) SendText(text string) error {
	return c.Send(Message{Type: TextMessage, Data: []byte(text)})
}

// SendBinary writes a binary message.
func (c *Conn) SendBinary(data []byte) error {
	return c.Send(Message{Type: BinaryMessage, Data: data})
}

// Close starts the closing handshake with the given code. The connection is
// torn down once the peer replies or closeGrace elapses.
func (c *Conn) Close(code int, reason string) error {
	c.writeMu.Lock()
	if c.closed {
		c.writeMu.Unlock()
		return nil
	}
	c.closed = true
	c.writeMu.Unlock()

	deadline := time.Now().Add(closeGrace)
	msg := websocket.FormatCloseMessage(code, reason)
	if err := c.ws.WriteControl(websocket.CloseMessage, msg, deadline); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		_ = c.ws.Close()
		return fmt.Errorf("failed to send close frame: %w", err)
	}
	return c.ws.SetReadDeadline(deadline)
}

func (c *Conn) ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeWait))
}
