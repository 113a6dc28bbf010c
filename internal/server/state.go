package server

// State is a step in the server lifecycle:
//
//	Unconfigured -> Listening -> (TLSListening) -> Serving -> Shutdown
//
// A bind or TLS failure moves straight to Shutdown.
type State int32

const (
	StateUnconfigured State = iota
	StateListening
	StateTLSListening
	StateServing
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateListening:
		return "listening"
	case StateTLSListening:
		return "tls-listening"
	case StateServing:
		return "serving"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}
