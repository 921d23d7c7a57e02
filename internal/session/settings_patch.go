package session

import (
	"strconv"

	"github.com/selkies-project/selkies/internal/protocol"
)

// wireOps maps a Settings Map key (spec.md §3) to the control op the
// dashboard-initiated patch pushes immediately, alongside persisting the
// new value. Keys absent from this table are persisted only; they take
// effect the next time the server rebroadcasts server_settings and the
// reconciler runs.
var wireOps = map[string]protocol.Op{
	"video_bitrate": protocol.OpVideoBitrate,
	"audio_bitrate": protocol.OpAudioBitrate,
	"framerate":     protocol.OpFramerate,
	"scaling_dpi":   protocol.OpScalingDPI,
}

// applySettingsPatch handles the "settings" dashboard message: a nested
// map of key→string-encoded value (spec.md §4.H), persisting each key
// and pushing the subset with a direct wire counterpart.
func (s *Session) applySettingsPatch(patch map[string]string) {
	for key, value := range patch {
		if err := s.store.Set(s.namespace, key, value); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to persist settings patch entry")
			continue
		}

		op, ok := wireOps[key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			s.log.Warn().Str("key", key).Str("value", value).Msg("non-integer value for integer setting")
			continue
		}
		_ = s.transport.SendDataChannelMessage(protocol.EncodeInt(op, n))
	}
}
