package webrtcx

import (
	"context"

	"github.com/pion/webrtc/v3"
)

// Snapshot is the raw per-receiver sample the Stats Aggregator (spec.md
// §4.G) consumes once per tick.
type Snapshot struct {
	VideoBytesReceived   uint64
	VideoPacketsReceived uint64
	VideoJitterDelay     float64
	VideoJitterEmitted   uint64
	VideoCodec           string

	AudioBytesReceived   uint64
	AudioPacketsReceived uint64
	AudioJitterDelay     float64
	AudioJitterEmitted   uint64
	AudioCodec           string

	RoundTripTimeMs float64
}

// GetStats reads the peer connection's current WebRTC stats report and
// folds it into a Snapshot. Uses pion's native GetStats(), the same
// underlying mechanism a browser's RTCPeerConnection.getStats() exposes.
func (m *Manager) GetStats(_ context.Context) (Snapshot, error) {
	m.mu.Lock()
	pc := m.pc
	m.mu.Unlock()
	if pc == nil {
		return Snapshot{}, ErrNoPeerConnection
	}

	var snap Snapshot
	report := pc.GetStats()
	for _, raw := range report {
		switch s := raw.(type) {
		case webrtc.InboundRTPStreamStats:
			switch s.Kind {
			case "video":
				snap.VideoBytesReceived = s.BytesReceived
				snap.VideoPacketsReceived = uint64(s.PacketsReceived)
				snap.VideoJitterDelay = s.JitterBufferDelay
				snap.VideoJitterEmitted = s.JitterBufferEmittedCount
			case "audio":
				snap.AudioBytesReceived = s.BytesReceived
				snap.AudioPacketsReceived = uint64(s.PacketsReceived)
				snap.AudioJitterDelay = s.JitterBufferDelay
				snap.AudioJitterEmitted = s.JitterBufferEmittedCount
			}
		case webrtc.RemoteInboundRTPStreamStats:
			if s.RoundTripTime > 0 {
				snap.RoundTripTimeMs = s.RoundTripTime * 1000
			}
		}
	}
	return snap, nil
}
