package wshandler

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/wsecho/internal/logging"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	defaultWriteWait = 10 * time.Second

	// Time allowed for the peer to answer our close frame
	closeGrace = 5 * time.Second

	// DefaultRealm is sent in basic-auth challenges.
	DefaultRealm = "wsecho"
)

// Options tune an Endpoint. Zero values select defaults.
type Options struct {
	// Realm is announced in WWW-Authenticate challenges
	Realm string
	// ReadLimit caps the size of one inbound message (0 = unlimited)
	ReadLimit int64
	// PingInterval enables keepalive pings; the peer must answer within
	// twice the interval (0 = disabled)
	PingInterval time.Duration
	// WriteWait bounds every write
	WriteWait time.Duration
	// Fallback serves requests that are not WebSocket upgrades (nil = 404)
	Fallback http.Handler
	// CheckOrigin overrides the same-origin check (nil = allow all)
	CheckOrigin func(r *http.Request) bool
}

// Endpoint is an http.Handler that authenticates, upgrades and drives a Handler.
type Endpoint struct {
	handler  Handler
	token    AuthToken
	opts     Options
	upgrader websocket.Upgrader
	active   atomic.Int64
}

// NewEndpoint creates an Endpoint for handler. token is fixed for the
// endpoint's lifetime.
func NewEndpoint(handler Handler, token AuthToken, opts Options) *Endpoint {
	if opts.Realm == "" {
		opts.Realm = DefaultRealm
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = defaultWriteWait
	}
	if opts.Fallback == nil {
		opts.Fallback = http.NotFoundHandler()
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}

	return &Endpoint{
		handler: handler,
		token:   token,
		opts:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Active returns the number of open WebSocket connections.
func (e *Endpoint) Active() int64 {
	return e.active.Load()
}

// ServeHTTP implements http.Handler
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logRequest(r)

	if !e.token.Authorized(r) {
		logging.Warn("Rejected request without valid credentials",
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("path", r.URL.Path),
		)
		Challenge(w, e.opts.Realm)
		return
	}

	if !websocket.IsWebSocketUpgrade(r) {
		e.opts.Fallback.ServeHTTP(w, r)
		return
	}

	ws, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	conn := newConn(ws, r, e.token.Required(), e.opts.WriteWait)
	e.serve(conn)
}

// serve runs the read loop for one connection on the caller's goroutine.
func (e *Endpoint) serve(conn *Conn) {
	e.active.Add(1)
	logging.LogConnection(conn.remoteAddr, "websocket_connected")

	ws := conn.ws
	defer func() {
		_ = ws.Close()
		e.active.Add(-1)
		logging.LogConnection(conn.remoteAddr, "websocket_closed")
	}()

	if e.opts.ReadLimit > 0 {
		ws.SetReadLimit(e.opts.ReadLimit)
	}

	done := make(chan struct{})
	defer close(done)

	if e.opts.PingInterval > 0 {
		pongWait := 2 * e.opts.PingInterval
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			logging.Debug("Received pong", zap.String("conn_id", conn.id))
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})
		go e.keepalive(conn, done)
	}

	if !e.call(conn, "OnConnected", func() { e.handler.OnConnected(conn) }) {
		_ = conn.Close(websocket.CloseInternalServerErr, "")
		e.call(conn, "OnClosed", func() { e.handler.OnClosed(conn, websocket.CloseInternalServerErr) })
		return
	}

	code := websocket.CloseAbnormalClosure
	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			code = closeCode(err)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info("Connection closed or error reading message",
					zap.String("conn_id", conn.id),
					zap.String("remote_addr", conn.remoteAddr),
					zap.Error(err),
				)
			}
			break
		}

		msg := Message{Type: MessageType(mt), Data: data}
		logging.LogWebSocketMessage(conn.id, conn.remoteAddr, "received", mt, data)

		if !e.call(conn, "OnMessage", func() { e.handler.OnMessage(conn, msg) }) {
			code = websocket.CloseInternalServerErr
			_ = conn.Close(code, "")
			break
		}
	}

	e.call(conn, "OnClosed", func() { e.handler.OnClosed(conn, code) })
}

// keepalive pings the peer until done is closed or a ping fails.
func (e *Endpoint) keepalive(conn *Conn, done <-chan struct{}) {
	ticker := time.NewTicker(e.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				logging.Debug("Ping failed",
					zap.String("conn_id", conn.id),
					zap.Error(err),
				)
				return
			}
		}
	}
}

// call runs a handler callback and reports false if it panicked.
func (e *Endpoint) call(conn *Conn, name string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Handler panic",
				zap.String("callback", name),
				zap.String("conn_id", conn.id),
				zap.String("remote_addr", conn.remoteAddr),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			ok = false
		}
	}()
	fn()
	return true
}

func closeCode(err error) int {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code
	}
	return websocket.CloseAbnormalClosure
}

func logRequest(r *http.Request) {
	headers := make(map[string]string, len(r.Header))
	for key, values := range r.Header {
		if strings.EqualFold(key, "Authorization") {
			headers[key] = "[redacted]"
			continue
		}
		headers[key] = strings.Join(values, ", ")
	}
	logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, headers)
}

// String describes the endpoint for startup logs.
func (e *Endpoint) String() string {
	auth := "none"
	if e.token.Required() {
		auth = "basic"
	}
	return fmt.Sprintf("websocket endpoint (auth=%s, ping=%s, read_limit=%d)", auth, e.opts.PingInterval, e.opts.ReadLimit)
}
