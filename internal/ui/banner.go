package ui

import "fmt"

// StartupLine is printed once the server is listening.
func StartupLine(secure bool, port int) string {
	if secure {
		return fmt.Sprintf("started secure https server at port %d", port)
	}
	return fmt.Sprintf("started http server at port %d", port)
}

// ShutdownLine is printed when the server is interrupted.
func ShutdownLine() string {
	return "^C received, shutting down server"
}
