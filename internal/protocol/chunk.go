package protocol

import "errors"

// FramePrefix identifies the kind of an auxiliary-channel binary frame.
type FramePrefix byte

const FramePrefixFileChunk FramePrefix = 0x01

// MaxChunkPayload is 64 KiB - 1, leaving room for the one-byte prefix
// within a 64 KiB frame (spec.md §4.C, boundary behaviour in §8).
const MaxChunkPayload = 64*1024 - 1

var (
	ErrChunkTooLarge = errors.New("protocol: chunk exceeds 64KiB-1")
	ErrEmptyFrame    = errors.New("protocol: empty binary frame")
)

// EncodeChunk prefixes a file-chunk payload for the auxiliary channel.
// Rejects payloads at or above 64 KiB (spec.md §8: "64 KiB MUST be
// rejected before send").
func EncodeChunk(payload []byte) ([]byte, error) {
	if len(payload) > MaxChunkPayload {
		return nil, ErrChunkTooLarge
	}
	frame := make([]byte, 1+len(payload))
	frame[0] = byte(FramePrefixFileChunk)
	copy(frame[1:], payload)
	return frame, nil
}

// DecodeChunk strips the prefix byte from an auxiliary-channel frame.
func DecodeChunk(frame []byte) (kind FramePrefix, payload []byte, err error) {
	if len(frame) == 0 {
		return 0, nil, ErrEmptyFrame
	}
	return FramePrefix(frame[0]), frame[1:], nil
}
