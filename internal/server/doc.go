// Package server runs the listening side of wsecho.
//
// A Server binds one TCP socket, optionally wraps it in TLS loaded from a
// certificate/key pair on disk, and serves every accepted connection on its
// own goroutine through a wshandler.Endpoint. The endpoint enforces an
// optional basic-auth token fixed when the server is created.
//
// # Lifecycle
//
//	Unconfigured -> Listening -> (TLSListening) -> Serving -> Shutdown
//
// Listen either leaves a bound listener behind or nothing at all: a
// certificate that fails to load closes the socket before the error is
// returned. Serve blocks until Shutdown is called or its context ends.
//
// # Shutdown
//
// Shutdown only stops the accept loop. Connections that were already
// upgraded keep running on their goroutines; they are not drained, closed or
// waited for.
//
// # Usage
//
//	srv, err := server.New(&server.Config{Port: 8000}, echo.New())
//	if err != nil {
//	    return err
//	}
//	if err := srv.Listen(); err != nil {
//	    return err
//	}
//	return srv.Serve(ctx)
package server
