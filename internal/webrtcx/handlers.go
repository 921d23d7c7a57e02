package webrtcx

import (
	"encoding/base64"
	"strconv"

	"github.com/pion/webrtc/v3"

	"github.com/selkies-project/selkies/internal/protocol"
)

// handlePrimaryMessage decodes an inbound primary-channel frame and
// routes it onto the matching typed event (spec.md §4.B event list).
func (m *Manager) handlePrimaryMessage(raw webrtc.DataChannelMessage) {
	if raw.IsString {
		m.dispatchControlLine(string(raw.Data))
		return
	}
	emit(m.Events.CursorChange, raw.Data)
}

func (m *Manager) dispatchControlLine(line string) {
	msg, err := protocol.Decode(line)
	if err != nil {
		m.log.Warn().Str("line", line).Msg("dropping malformed control message")
		return
	}

	switch msg.Op {
	case protocol.OpClipboardWrite:
		text, err := protocol.DecodeClipboard(msg.Payload)
		if err != nil {
			m.log.Warn().Err(err).Msg("bad clipboard payload")
			return
		}
		emit(m.Events.ClipboardContent, text)
	case protocol.OpCursor:
		b, err := base64.StdEncoding.DecodeString(msg.Payload)
		if err != nil {
			m.log.Warn().Err(err).Msg("bad cursor payload")
			return
		}
		emit(m.Events.CursorChange, b)
	case protocol.OpLatency:
		ms, err := strconv.ParseFloat(msg.Payload, 64)
		if err != nil {
			m.log.Warn().Err(err).Msg("bad latency payload")
			return
		}
		emit(m.Events.LatencyMeasurement, ms)
	case protocol.OpServerSettings:
		emit(m.Events.ServerSettings, msg.Payload)
	case protocol.OpSystemAction:
		emit(m.Events.SystemAction, msg.Payload)
	case protocol.OpGPUStats:
		emit(m.Events.GPUStats, msg.Payload)
	case protocol.OpSystemStats:
		emit(m.Events.SystemStats, msg.Payload)
	default:
		m.log.Debug().Str("op", string(msg.Op)).Msg("unhandled inbound control op")
	}
}
