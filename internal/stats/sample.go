package stats

// Sample is one transport snapshot, independent of the Transport
// Manager's internal representation so this package stays testable
// without pulling in pion/webrtc.
type Sample struct {
	VideoBytesReceived   uint64
	AudioBytesReceived   uint64
	VideoJitterDelay     float64
	VideoJitterEmitted   uint64
	AudioJitterDelay     float64
	AudioJitterEmitted   uint64
	VideoCodec           string
	AudioCodec           string
	RoundTripTimeMs      float64
}

// Source supplies one Sample per tick; webrtcx.Manager.GetStats adapts
// to this via a small wrapper in the session package.
type Source interface {
	Sample() (Sample, error)
}

// Snapshot is the derived, immutable per-tick record spec.md §3 calls
// "Stats Snapshot" and §4.G enumerates.
type Snapshot struct {
	VideoBitrateMbps    float64
	AudioBitrateKbps    float64
	VideoLatencyMs      float64
	AudioLatencyMs      float64
	ConnectionLatencyMs float64
}
