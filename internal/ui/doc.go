// Package ui renders the command-line output of the wsecho binaries.
//
// The server prints exactly two status lines, one when it starts listening
// and one when it is interrupted:
//
//	started http server at port 8000
//	started secure https server at port 8443
//	^C received, shutting down server
//
// A Printer colours these with lipgloss when stdout is a terminal and writes
// them unchanged otherwise. Diagnostic logging goes through zap and is silent
// unless WSECHO_LOG_LEVEL is set, keeping the status lines clean.
package ui
