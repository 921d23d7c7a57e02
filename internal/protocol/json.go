package protocol

import "encoding/json"

// StatsVideoPayload is the "_stats_video" JSON dump (spec.md §4.G),
// grounded on the field set the Python producer records in
// original_source/src/selkies/webrtc_utils.py.
type StatsVideoPayload struct {
	BytesReceived     uint64  `json:"bytesReceived"`
	PacketsReceived   uint64  `json:"packetsReceived"`
	PacketsLost       uint64  `json:"packetsLost"`
	JitterBufferDelay float64 `json:"jitterBufferDelay"`
	JitterBufferEmit  uint64  `json:"jitterBufferEmittedCount"`
	Codec             string  `json:"codec"`
	RoundTripTimeMs   float64 `json:"roundTripTimeMs"`
	AvailableBw       uint64  `json:"availableBandwidth"`
}

// EncodeStatsVideo renders "_stats_video,<json>".
func EncodeStatsVideo(p StatsVideoPayload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return Encode(OpStatsVideo, string(b)), nil
}

// DecodeStatsVideo parses the JSON payload of a "_stats_video" message.
func DecodeStatsVideo(payload string) (StatsVideoPayload, error) {
	var p StatsVideoPayload
	err := json.Unmarshal([]byte(payload), &p)
	return p, err
}

// EncodeSettings renders "SETTINGS,<json>" from a settings delta.
func EncodeSettings(delta map[string]any) (string, error) {
	b, err := json.Marshal(delta)
	if err != nil {
		return "", err
	}
	return Encode(OpSettings, string(b)), nil
}

// DecodeSettings parses a "SETTINGS" delta payload.
func DecodeSettings(payload string) (map[string]any, error) {
	var m map[string]any
	err := json.Unmarshal([]byte(payload), &m)
	return m, err
}

// ServerSettingsField mirrors the descriptor shape in spec.md §3.
type ServerSettingsField struct {
	Value   any      `json:"value"`
	Default any      `json:"default,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Allowed []string `json:"allowed,omitempty"`
	Locked  bool     `json:"locked,omitempty"`
}

// DecodeServerSettings parses a "server_settings" broadcast payload.
func DecodeServerSettings(payload string) (map[string]ServerSettingsField, error) {
	var m map[string]ServerSettingsField
	err := json.Unmarshal([]byte(payload), &m)
	return m, err
}
