package wshandler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// recorder is a Handler that echoes and records lifecycle events.
type recorder struct {
	mu        sync.Mutex
	connected int
	messages  []string
	closed    chan int
}

func newRecorder() *recorder {
	return &recorder{closed: make(chan int, 16)}
}

func (r *recorder) OnConnected(conn *Conn) {
	r.mu.Lock()
	r.connected++
	r.mu.Unlock()
}

func (r *recorder) OnMessage(conn *Conn, msg Message) {
	r.mu.Lock()
	r.messages = append(r.messages, msg.Text())
	r.mu.Unlock()
	_ = conn.Send(msg)
}

func (r *recorder) OnClosed(conn *Conn, code int) {
	r.closed <- code
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	ws, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("Dial(%s) error = %v (status %d)", url, err, status)
	}
	return ws
}

func waitClosed(t *testing.T, r *recorder) int {
	t.Helper()
	select {
	case code := <-r.closed:
		return code
	case <-time.After(5 * time.Second):
		t.Fatal("OnClosed was not called")
		return 0
	}
}

func TestEndpointEcho(t *testing.T) {
	rec := newRecorder()
	srv := httptest.NewServer(NewEndpoint(rec, "", Options{}))
	defer srv.Close()

	ws := dial(t, wsURL(srv), nil)

	if err := ws.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	mt, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if mt != websocket.TextMessage || string(data) != "hello" {
		t.Errorf("got (%d, %q), want (text, hello)", mt, data)
	}

	if err := ws.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	mt, data, err = ws.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if mt != websocket.BinaryMessage || len(data) != 2 {
		t.Errorf("got (%d, %v), want binary [1 2]", mt, data)
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	if err := ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		t.Fatalf("WriteControl() error = %v", err)
	}

	if code := waitClosed(t, rec); code != websocket.CloseNormalClosure {
		t.Errorf("close code = %d, want %d", code, websocket.CloseNormalClosure)
	}
	_ = ws.Close()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.connected != 1 {
		t.Errorf("connected = %d, want 1", rec.connected)
	}
}

func TestEndpointAbruptDisconnect(t *testing.T) {
	rec := newRecorder()
	srv := httptest.NewServer(NewEndpoint(rec, "", Options{}))
	defer srv.Close()

	ws := dial(t, wsURL(srv), nil)
	_ = ws.UnderlyingConn().Close()

	if code := waitClosed(t, rec); code != websocket.CloseAbnormalClosure {
		t.Errorf("close code = %d, want %d", code, websocket.CloseAbnormalClosure)
	}
}

func TestEndpointRequiresCredentials(t *testing.T) {
	rec := newRecorder()
	srv := httptest.NewServer(NewEndpoint(rec, "dXNlcjpwYXNz", Options{}))
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err == nil {
		t.Fatal("Dial() without credentials should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("response = %v, want 401", resp)
	}
	if got := resp.Header.Get("WWW-Authenticate"); !strings.HasPrefix(got, "Basic") {
		t.Errorf("WWW-Authenticate = %q, want Basic challenge", got)
	}

	header := http.Header{}
	header.Set("Authorization", "Basic dXNlcjpwYXNz")
	ws := dial(t, wsURL(srv), header)
	defer ws.Close()

	if err := ws.WriteMessage(websocket.TextMessage, []byte("secret")); err != nil {
		t.Fatal(err)
	}
	if _, data, err := ws.ReadMessage(); err != nil || string(data) != "secret" {
		t.Errorf("ReadMessage() = %q, %v; want secret", data, err)
	}
}

func TestEndpointAuthenticatedFlag(t *testing.T) {
	got := make(chan bool, 1)
	h := HandlerFuncs{Connected: func(conn *Conn) { got <- conn.Authenticated() }}

	srv := httptest.NewServer(NewEndpoint(h, "dXNlcjpwYXNz", Options{}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Authorization", "Basic dXNlcjpwYXNz")
	ws := dial(t, wsURL(srv), header)
	defer ws.Close()

	select {
	case ok := <-got:
		if !ok {
			t.Error("Authenticated() = false, want true")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("OnConnected was not called")
	}
}

func TestEndpointFallback(t *testing.T) {
	fallback := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "static")
	})
	srv := httptest.NewServer(NewEndpoint(newRecorder(), "", Options{Fallback: fallback}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/index.html")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestEndpointDefaultFallbackIs404(t *testing.T) {
	srv := httptest.NewServer(NewEndpoint(newRecorder(), "", Options{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestEndpointRecoversFromHandlerPanic(t *testing.T) {
	closed := make(chan int, 1)
	h := HandlerFuncs{
		Received: func(conn *Conn, msg Message) { panic("boom") },
		Closed:   func(conn *Conn, code int) { closed <- code },
	}

	srv := httptest.NewServer(NewEndpoint(h, "", Options{}))
	defer srv.Close()

	ws := dial(t, wsURL(srv), nil)
	defer ws.Close()

	if err := ws.WriteMessage(websocket.TextMessage, []byte("x")); err != nil {
		t.Fatal(err)
	}

	select {
	case code := <-closed:
		if code != websocket.CloseInternalServerErr {
			t.Errorf("close code = %d, want %d", code, websocket.CloseInternalServerErr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("OnClosed was not called after panic")
	}

	// The server keeps serving other connections
	other := dial(t, wsURL(srv), nil)
	other.Close()
}

func TestEndpointReadLimit(t *testing.T) {
	rec := newRecorder()
	srv := httptest.NewServer(NewEndpoint(rec, "", Options{ReadLimit: 8}))
	defer srv.Close()

	ws := dial(t, wsURL(srv), nil)
	defer ws.Close()

	if err := ws.WriteMessage(websocket.TextMessage, []byte("this is far too long")); err != nil {
		t.Fatal(err)
	}

	if code := waitClosed(t, rec); code != websocket.CloseMessageTooBig && code != websocket.CloseAbnormalClosure {
		t.Errorf("close code = %d, want message-too-big", code)
	}
}

func TestEndpointKeepalivePings(t *testing.T) {
	srv := httptest.NewServer(NewEndpoint(newRecorder(), "", Options{PingInterval: 50 * time.Millisecond}))
	defer srv.Close()

	ws := dial(t, wsURL(srv), nil)
	defer ws.Close()

	pinged := make(chan struct{}, 1)
	ws.SetPingHandler(func(data string) error {
		select {
		case pinged <- struct{}{}:
		default:
		}
		return ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	// Ping handlers only run while reading
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("no keepalive ping received")
	}
}

func TestEndpointActiveCount(t *testing.T) {
	rec := newRecorder()
	ep := NewEndpoint(rec, "", Options{})
	srv := httptest.NewServer(ep)
	defer srv.Close()

	ws := dial(t, wsURL(srv), nil)

	// Round-trip a message so the server side is definitely inside serve()
	_ = ws.WriteMessage(websocket.TextMessage, []byte("x"))
	if _, _, err := ws.ReadMessage(); err != nil {
		t.Fatal(err)
	}
	if got := ep.Active(); got != 1 {
		t.Errorf("Active() = %d, want 1", got)
	}

	ws.Close()
	waitClosed(t, rec)

	deadline := time.Now().Add(2 * time.Second)
	for ep.Active() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := ep.Active(); got != 0 {
		t.Errorf("Active() after close = %d, want 0", got)
	}
}

func TestConnSendAfterClose(t *testing.T) {
	sendErr := make(chan error, 1)
	h := HandlerFuncs{
		Connected: func(conn *Conn) {
			_ = conn.Close(websocket.CloseNormalClosure, "")
			sendErr <- conn.SendText("late")
		},
	}

	srv := httptest.NewServer(NewEndpoint(h, "", Options{}))
	defer srv.Close()

	ws := dial(t, wsURL(srv), nil)
	defer ws.Close()

	select {
	case err := <-sendErr:
		if err != ErrClosed {
			t.Errorf("SendText() after Close = %v, want ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not run")
	}
}

func TestMessageTypeString(t *testing.T) {
	if TextMessage.String() != "text" || BinaryMessage.String() != "binary" {
		t.Errorf("unexpected names: %s, %s", TextMessage, BinaryMessage)
	}
}
