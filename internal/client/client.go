// Package client is a small WebSocket client for talking to wsecho servers.
//
// Dial performs the opening handshake and starts a reader goroutine that
// delivers data messages on Messages(). Writes are serialised, so a Client
// may be shared between goroutines.
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/wsecho/internal/config"
	"github.com/muurk/wsecho/internal/logging"
	"github.com/muurk/wsecho/internal/wshandler"
	"go.uber.org/zap"
)

const (
	// DefaultHandshakeTimeout bounds the opening handshake.
	DefaultHandshakeTimeout = 10 * time.Second

	// DefaultMaxFrameSize is the largest frame written; longer messages are
	// fragmented.
	DefaultMaxFrameSize = 1 << 14

	writeWait  = 10 * time.Second
	closeGrace = 5 * time.Second
	queueSize  = 64
)

// Message is a data message received from or sent to the server.
type Message = wshandler.Message

// Options configure Dial. Zero values select defaults.
type Options struct {
	// Header is sent with the upgrade request
	Header http.Header
	// Credentials is "user:password" for basic auth (empty = none)
	Credentials string
	// TLSConfig is used for wss:// URLs
	TLSConfig *tls.Config
	// HandshakeTimeout bounds the opening handshake
	HandshakeTimeout time.Duration
	// PingInterval sends a ping every interval; a ping still unanswered at
	// the next tick ends the connection with 1006 (0 = disabled). Pongs are
	// only read while Messages() is drained, so the check is suspended while
	// the queue is full.
	PingInterval time.Duration
	// MaxFrameSize caps outgoing frame payloads
	MaxFrameSize int
	// ReadLimit caps a single inbound message (0 = unlimited)
	ReadLimit int64
}

// Client is an open WebSocket connection.
type Client struct {
	url string
	ws  *websocket.Conn

	writeMu sync.Mutex
	closing bool

	messages chan Message
	done     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once

	closeCode   atomic.Int32
	pongPending atomic.Bool
	// blocked is set while the reader waits for queue space; stalled
	// records that this happened since the last pong check
	blocked atomic.Bool
	stalled atomic.Bool
}

// Dial connects to a ws:// or wss:// URL.
func Dial(ctx context.Context, rawURL string, opts Options) (*Client, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = DefaultMaxFrameSize
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.HandshakeTimeout,
		TLSClientConfig:  opts.TLSConfig,
		ReadBufferSize:   opts.MaxFrameSize,
		WriteBufferSize:  opts.MaxFrameSize,
	}

	header := http.Header{}
	for k, v := range opts.Header {
		header[k] = append([]string(nil), v...)
	}
	if opts.Credentials != "" {
		header.Set("Authorization", "Basic "+config.EncodeCredentials(opts.Credentials))
	}

	ws, resp, err := dialer.DialContext(ctx, rawURL, header)
	if err != nil {
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
			return nil, &ResponseStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", rawURL, err)
	}

	if opts.ReadLimit > 0 {
		ws.SetReadLimit(opts.ReadLimit)
	}

	c := &Client{
		url:      rawURL,
		ws:       ws,
		messages: make(chan Message, queueSize),
		done:     make(chan struct{}),
		stop:     make(chan struct{}),
	}
	ws.SetPongHandler(func(string) error {
		c.pongPending.Store(false)
		return nil
	})

	logging.Info("Connected to server",
		zap.String("url", rawURL),
		zap.String("subprotocol", ws.Subprotocol()),
	)

	go c.readLoop()
	if opts.PingInterval > 0 {
		go c.pingLoop(opts.PingInterval)
	}

	return c, nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &InvalidURLError{URL: rawURL, Reason: "parse failed", Err: err}
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return &InvalidURLError{URL: rawURL, Reason: "scheme must be ws or wss"}
	}
	if u.Host == "" {
		return &InvalidURLError{URL: rawURL, Reason: "missing host"}
	}
	return nil
}

// URL returns the URL the client dialled.
func (c *Client) URL() string {
	return c.url
}

// Messages delivers received data messages. It is closed when the
// connection ends.
func (c *Client) Messages() <-chan Message {
	return c.messages
}

// Done is closed when the connection has ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// CloseCode returns the close code once Done is closed, 0 before.
func (c *Client) CloseCode() int {
	return int(c.closeCode.Load())
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.messages)
	defer c.ws.Close()

	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			code := int32(websocket.CloseAbnormalClosure)
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				code = int32(closeErr.Code)
			}
			c.closeCode.CompareAndSwap(0, code)

			logging.Debug("Connection ended",
				zap.String("url", c.url),
				zap.Int32("code", c.closeCode.Load()),
				zap.Error(err),
			)
			return
		}

		if mt == websocket.BinaryMessage {
			logging.LogRawBytes("Received binary message", data)
		}

		if !c.deliver(Message{Type: wshandler.MessageType(mt), Data: data}) {
			c.closeCode.CompareAndSwap(0, websocket.CloseAbnormalClosure)
			return
		}
	}
}

// deliver queues msg for Messages(), waiting for space if the consumer is
// behind. Returns false if the connection was aborted meanwhile.
func (c *Client) deliver(msg Message) bool {
	select {
	case c.messages <- msg:
		return true
	default:
	}

	c.stalled.Store(true)
	c.blocked.Store(true)
	defer c.blocked.Store(false)

	select {
	case c.messages <- msg:
		return true
	case <-c.stop:
		return false
	}
}

func (c *Client) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if c.pongPending.Load() {
				// The pong may be queued behind undelivered messages
				if c.blocked.Load() || c.stalled.Swap(false) {
					continue
				}
				logging.Warn("Pong not received, dropping connection", zap.String("url", c.url))
				c.abort(websocket.CloseAbnormalClosure)
				return
			}
			c.pongPending.Store(true)
			if err := c.Ping(nil); err != nil {
				return
			}
		}
	}
}

// Send writes a data message.
func (c *Client) Send(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closing {
		return ErrDisconnected
	}
	select {
	case <-c.done:
		return ErrDisconnected
	default:
	}

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(int(msg.Type), msg.Data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	logging.LogWebSocketMessage("", c.url, "sent", int(msg.Type), msg.Data)
	return nil
}

// SendText writes a text message.
func (c *Client) SendText(text string) error {
	return c.Send(Message{Type: wshandler.TextMessage, Data: []byte(text)})
}

// SendBinary writes a binary message.
func (c *Client) SendBinary(data []byte) error {
	return c.Send(Message{Type: wshandler.BinaryMessage, Data: data})
}

// Ping sends a ping control frame.
func (c *Client) Ping(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closing {
		return ErrDisconnected
	}
	if err := c.ws.WriteControl(websocket.PingMessage, data, time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close performs the closing handshake with code and waits for the server
// to answer, at most closeGrace. 1005 and 1006 are reserved for reporting
// and go out on the wire as 1000.
func (c *Client) Close(code int) error {
	if code == websocket.CloseNoStatusReceived || code == websocket.CloseAbnormalClosure {
		code = websocket.CloseNormalClosure
	}

	c.writeMu.Lock()
	if c.closing {
		c.writeMu.Unlock()
		<-c.done
		return nil
	}
	c.closing = true
	err := c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""), time.Now().Add(writeWait))
	c.writeMu.Unlock()

	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.abort(websocket.CloseAbnormalClosure)
		<-c.done
		return fmt.Errorf("failed to send close frame: %w", err)
	}

	select {
	case <-c.done:
	case <-time.After(closeGrace):
		c.abort(websocket.CloseAbnormalClosure)
		<-c.done
	}
	return nil
}

// abort drops the connection without a closing handshake.
func (c *Client) abort(code int) {
	c.closeCode.CompareAndSwap(0, int32(code))
	c.stopOnce.Do(func() { close(c.stop) })
	_ = c.ws.Close()
}
