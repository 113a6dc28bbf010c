// Package wshandler adapts pluggable WebSocket handlers to net/http.
//
// A Handler receives three callbacks per connection:
//
//	OnConnected(conn)            after the upgrade completes
//	OnMessage(conn, msg)         for every text or binary message
//	OnClosed(conn, code)         once, when the connection ends
//
// Inside the callbacks, conn.Send, conn.SendText and conn.SendBinary write
// back to the peer. Framing, masking, fragmentation and the close handshake
// are handled by gorilla/websocket.
//
// # Basic Authentication
//
// An Endpoint is built with an immutable AuthToken, the base64 encoding of
// "user:password". When the token is non-empty every request, upgrade or not,
// must carry "Authorization: Basic <token>" or it is answered with 401.
//
// # Concurrency
//
// net/http runs each connection on its own goroutine, and the Endpoint runs
// the handler callbacks for a connection on that goroutine. Callbacks for
// different connections run concurrently; callbacks for one connection never
// overlap.
package wshandler
