package signaling

// Events exposes the Signaling Client's typed event ports (spec.md
// §4.A: onstatus, onerror, ondisconnect(reconnect), ondebug).
type Events struct {
	Status     chan string
	Error      chan error
	Disconnect chan DisconnectEvent
	Debug      chan string
	Frame      chan Frame
}

// DisconnectEvent reports whether the loss was involuntary (Reconnect
// true, automatic backoff follows) or an explicit application-level
// disconnect (Reconnect false).
type DisconnectEvent struct {
	Reconnect bool
}

func newEvents() *Events {
	return &Events{
		Status:     make(chan string, 8),
		Error:      make(chan error, 8),
		Disconnect: make(chan DisconnectEvent, 4),
		Debug:      make(chan string, 8),
		Frame:      make(chan Frame, 16),
	}
}

func emit[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
