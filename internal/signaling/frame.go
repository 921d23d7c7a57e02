package signaling

import "encoding/json"

// FrameKind discriminates the signaling JSON envelope (spec.md §6:
// "MUST include session-description and ICE-candidate message kinds").
type FrameKind string

const (
	KindOffer      FrameKind = "sdp_offer"
	KindAnswer     FrameKind = "sdp_answer"
	KindICE        FrameKind = "ice"
	KindResolution FrameKind = "resolution"
)

// Frame is the envelope exchanged over the signaling websocket.
type Frame struct {
	Kind    FrameKind       `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func newFrame(kind FrameKind, payload any) (Frame, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Kind: kind, Payload: b}, nil
}

func (f Frame) marshal() ([]byte, error) { return json.Marshal(f) }

func parseFrame(data []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(data, &f)
	return f, err
}
