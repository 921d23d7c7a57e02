package webrtcx

import "github.com/pion/webrtc/v3"

// Events is the full typed event port set of spec.md §4.B, replacing
// the source's callback-field wiring with buffered channels so the
// orchestrator can select over them instead of registering closures
// that capture mutable state.
type Events struct {
	DataChannelOpen       chan struct{}
	DataChannelClose      chan struct{}
	ConnectionStateChange chan string
	PlayStreamRequired    chan struct{}
	ClipboardContent      chan string
	CursorChange          chan []byte
	SystemAction          chan string
	GPUStats              chan string
	SystemStats           chan string
	LatencyMeasurement    chan float64
	ServerSettings        chan string
	ICECandidate          chan webrtc.ICECandidateInit
	Status                chan string
	Error                 chan error
	Debug                 chan string
}

func newEvents() *Events {
	return &Events{
		DataChannelOpen:       make(chan struct{}, 1),
		DataChannelClose:      make(chan struct{}, 1),
		ConnectionStateChange: make(chan string, 8),
		PlayStreamRequired:    make(chan struct{}, 1),
		ClipboardContent:      make(chan string, 8),
		CursorChange:          make(chan []byte, 8),
		SystemAction:          make(chan string, 8),
		GPUStats:              make(chan string, 8),
		SystemStats:           make(chan string, 8),
		LatencyMeasurement:    make(chan float64, 8),
		ServerSettings:        make(chan string, 4),
		ICECandidate:          make(chan webrtc.ICECandidateInit, 8),
		Status:                make(chan string, 8),
		Error:                 make(chan error, 8),
		Debug:                 make(chan string, 8),
	}
}

// emit performs a non-blocking send, dropping the event rather than
// stalling the pion callback goroutine that produced it.
func emit[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
