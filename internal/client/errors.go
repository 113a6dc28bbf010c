package client

import (
	"errors"
	"fmt"
)

// ErrDisconnected is returned when writing to a connection that has ended.
var ErrDisconnected = errors.New("websocket disconnected")

// InvalidURLError reports a URL that cannot be dialled.
type InvalidURLError struct {
	URL    string
	Reason string
	Err    error
}

func (e *InvalidURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid websocket url %q: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid websocket url %q: %s", e.URL, e.Reason)
}

func (e *InvalidURLError) Unwrap() error {
	return e.Err
}

// ResponseStatusError reports an upgrade request answered with something
// other than 101 Switching Protocols.
type ResponseStatusError struct {
	StatusCode int
	Status     string
}

func (e *ResponseStatusError) Error() string {
	return fmt.Sprintf("websocket handshake rejected: %s", e.Status)
}

// Unauthorized reports whether the server asked for credentials.
func (e *ResponseStatusError) Unauthorized() bool {
	return e.StatusCode == 401
}
