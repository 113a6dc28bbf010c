package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/wsecho/internal/echo"
	"github.com/muurk/wsecho/internal/logging"
	"github.com/muurk/wsecho/internal/wshandler"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialEcho(t *testing.T, token wshandler.AuthToken, opts Options) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(wshandler.NewEndpoint(echo.New(), token, wshandler.Options{}))
	t.Cleanup(srv.Close)

	c, err := Dial(context.Background(), wsURL(srv), opts)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close(websocket.CloseNormalClosure) })
	return c, srv
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.Messages():
		if !ok {
			t.Fatal("Messages() closed early")
		}
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func TestDialInvalidURL(t *testing.T) {
	tests := []string{
		"http://localhost:8000/",
		"localhost:8000",
		"ws://",
		"ws://%zz",
	}

	for _, raw := range tests {
		_, err := Dial(context.Background(), raw, Options{})
		var urlErr *InvalidURLError
		if !errors.As(err, &urlErr) {
			t.Errorf("Dial(%q) error = %v, want *InvalidURLError", raw, err)
		}
	}
}

func TestClientEcho(t *testing.T) {
	c, _ := dialEcho(t, "", Options{})

	if err := c.SendText("hello"); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if msg := receive(t, c); msg.Type != wshandler.TextMessage || msg.Text() != "hello" {
		t.Errorf("received = (%s, %q), want (text, hello)", msg.Type, msg.Text())
	}

	payload := []byte{0x00, 0xff, 0x10}
	if err := c.SendBinary(payload); err != nil {
		t.Fatalf("SendBinary() error = %v", err)
	}
	if msg := receive(t, c); msg.Type != wshandler.BinaryMessage || !bytes.Equal(msg.Data, payload) {
		t.Errorf("received = (%s, %v), want (binary, %v)", msg.Type, msg.Data, payload)
	}
}

func TestClientFragmentsLargeMessages(t *testing.T) {
	c, _ := dialEcho(t, "", Options{MaxFrameSize: 1024})

	payload := bytes.Repeat([]byte("x"), 5000)
	if err := c.SendBinary(payload); err != nil {
		t.Fatalf("SendBinary() error = %v", err)
	}
	if msg := receive(t, c); !bytes.Equal(msg.Data, payload) {
		t.Errorf("received %d bytes, want %d", len(msg.Data), len(payload))
	}
}

func TestClientCredentials(t *testing.T) {
	srv := httptest.NewServer(wshandler.NewEndpoint(echo.New(), "dXNlcjpwYXNz", wshandler.Options{}))
	defer srv.Close()

	_, err := Dial(context.Background(), wsURL(srv), Options{})
	var statusErr *ResponseStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Dial() error = %v, want *ResponseStatusError", err)
	}
	if !statusErr.Unauthorized() {
		t.Errorf("StatusCode = %d, want 401", statusErr.StatusCode)
	}

	c, err := Dial(context.Background(), wsURL(srv), Options{Credentials: "user:pass"})
	if err != nil {
		t.Fatalf("Dial() with credentials error = %v", err)
	}
	defer c.Close(websocket.CloseNormalClosure)

	if err := c.SendText("secret"); err != nil {
		t.Fatal(err)
	}
	if msg := receive(t, c); msg.Text() != "secret" {
		t.Errorf("received %q, want secret", msg.Text())
	}
}

func TestClientNeverSendsReservedCloseCodes(t *testing.T) {
	for _, code := range []int{websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure} {
		closed := make(chan int, 1)
		h := wshandler.HandlerFuncs{Closed: func(conn *wshandler.Conn, code int) { closed <- code }}
		srv := httptest.NewServer(wshandler.NewEndpoint(h, "", wshandler.Options{}))

		c, err := Dial(context.Background(), wsURL(srv), Options{})
		if err != nil {
			srv.Close()
			t.Fatalf("Dial() error = %v", err)
		}
		if err := c.Close(code); err != nil {
			t.Errorf("Close(%d) error = %v", code, err)
		}

		select {
		case got := <-closed:
			if got != websocket.CloseNormalClosure {
				t.Errorf("Close(%d) sent %d, want %d", code, got, websocket.CloseNormalClosure)
			}
		case <-time.After(5 * time.Second):
			t.Errorf("server never saw close for %d", code)
		}
		srv.Close()
	}
}

func TestClientCloseCodeAndDisconnected(t *testing.T) {
	c, _ := dialEcho(t, "", Options{})

	if err := c.Close(websocket.CloseGoingAway); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Done() not closed")
	}
	if _, ok := <-c.Messages(); ok {
		t.Error("Messages() still open after close")
	}
	if got := c.CloseCode(); got != websocket.CloseGoingAway {
		t.Errorf("CloseCode() = %d, want %d", got, websocket.CloseGoingAway)
	}
	if err := c.SendText("late"); !errors.Is(err, ErrDisconnected) {
		t.Errorf("SendText() after close = %v, want ErrDisconnected", err)
	}
}

func TestClientPongTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	// Upgrades and never reads, so pings go unanswered
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		<-release
	}))
	defer srv.Close()

	c, err := Dial(context.Background(), wsURL(srv), Options{PingInterval: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("connection survived missing pongs")
	}
	if got := c.CloseCode(); got != websocket.CloseAbnormalClosure {
		t.Errorf("CloseCode() = %d, want %d", got, websocket.CloseAbnormalClosure)
	}
}

func TestClientKeepaliveAnswered(t *testing.T) {
	c, _ := dialEcho(t, "", Options{PingInterval: 30 * time.Millisecond})

	time.Sleep(200 * time.Millisecond)
	select {
	case <-c.Done():
		t.Fatalf("connection dropped with code %d", c.CloseCode())
	default:
	}
}

func TestClientSlowConsumerKeepsConnection(t *testing.T) {
	const burst = 200
	release := make(chan struct{})
	defer close(release)

	// Floods the client, then keeps reading so pings get answered
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		go func() {
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for i := 0; i < burst; i++ {
			if err := ws.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("msg-%d", i))); err != nil {
				return
			}
		}
		<-release
	}))
	defer srv.Close()

	c, err := Dial(context.Background(), wsURL(srv), Options{PingInterval: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close(websocket.CloseNormalClosure)

	// Leave the queue full for several ping intervals
	time.Sleep(300 * time.Millisecond)
	select {
	case <-c.Done():
		t.Fatalf("connection dropped with code %d while the consumer was behind", c.CloseCode())
	default:
	}

	for i := 0; i < burst; i++ {
		msg := receive(t, c)
		if want := fmt.Sprintf("msg-%d", i); msg.Text() != want {
			t.Fatalf("message %d = %q, want %q", i, msg.Text(), want)
		}
	}

	time.Sleep(100 * time.Millisecond)
	select {
	case <-c.Done():
		t.Fatalf("connection dropped with code %d after draining", c.CloseCode())
	default:
	}
}

func TestClientLogsBinaryPayload(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logging.SetLogger(zap.New(core))
	defer logging.SetLogger(nil)

	c, _ := dialEcho(t, "", Options{})
	if err := c.SendBinary([]byte{'h', 0x00, 'i'}); err != nil {
		t.Fatalf("SendBinary() error = %v", err)
	}
	receive(t, c)

	entries := logs.FilterMessage("Received binary message").All()
	if len(entries) != 1 {
		t.Fatalf("got %d binary log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if got := fields["ascii"]; got != "h.i" {
		t.Errorf("ascii = %v, want h.i", got)
	}
	if got := fields["hex"]; got != "680069" {
		t.Errorf("hex = %v, want 680069", got)
	}
}
