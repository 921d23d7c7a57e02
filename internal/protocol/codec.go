// Package protocol implements the wire codec for the primary and auxiliary
// data channels: the ASCII comma-prefixed control op format and the binary
// file-chunk framing (spec.md §4.C).
package protocol

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Op identifies one control-channel operation.
type Op string

const (
	OpResolution       Op = "r"
	OpVideoBitrate     Op = "vb"
	OpAudioBitrate     Op = "ab"
	OpFramerate        Op = "_arg_fps"
	OpScalingDPI       Op = "s"
	OpClipboardWrite   Op = "cw"
	OpCommand          Op = "cmd"
	OpKeyboardReset    Op = "kr"
	OpClientFPS        Op = "_f"
	OpClientLatency    Op = "_l"
	OpStatsVideo       Op = "_stats_video"
	OpSettings         Op = "SETTINGS"
	OpFileUploadStart  Op = "FILE_UPLOAD_START"
	OpFileUploadEnd    Op = "FILE_UPLOAD_END"
	OpFileUploadError  Op = "FILE_UPLOAD_ERROR"
	OpSystemAction     Op = "system_action"
	OpServerSettings   Op = "server_settings"
	OpCursor           Op = "cursor"
	OpLatency          Op = "latency"
	OpGPUStats         Op = "gpu_stats"
	OpSystemStats      Op = "system_stats"
)

// Message is a decoded control-channel line: an operation plus its single
// payload string (which may itself be JSON, base64, or a "path:extra" pair).
type Message struct {
	Op      Op
	Payload string
}

var ErrMalformed = errors.New("protocol: malformed control message")

// Encode renders "<op>[,<payload>]". Ops with no payload (kr) omit the comma.
func Encode(op Op, payload string) string {
	if payload == "" {
		return string(op)
	}
	return string(op) + "," + payload
}

// Decode splits a line into its op and payload. Only the first comma is
// significant: payloads (JSON, base64, "path:size") may contain commas of
// their own and must not be split further.
func Decode(line string) (Message, error) {
	if line == "" {
		return Message{}, ErrMalformed
	}
	idx := strings.IndexByte(line, ',')
	if idx < 0 {
		return Message{Op: Op(line)}, nil
	}
	return Message{Op: Op(line[:idx]), Payload: line[idx+1:]}, nil
}

// EncodeResolution renders the "r,WxH" advisory.
func EncodeResolution(w, h int) string {
	return Encode(OpResolution, fmt.Sprintf("%dx%d", w, h))
}

// DecodeResolution parses a "WxH" payload.
func DecodeResolution(payload string) (w, h int, err error) {
	parts := strings.SplitN(payload, "x", 2)
	if len(parts) != 2 {
		return 0, 0, ErrMalformed
	}
	if w, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, ErrMalformed
	}
	if h, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, ErrMalformed
	}
	return w, h, nil
}

// EncodeClipboard base64-encodes text for the "cw" op (spec.md §8 invariant 7).
func EncodeClipboard(text string) string {
	return Encode(OpClipboardWrite, base64.StdEncoding.EncodeToString([]byte(text)))
}

// DecodeClipboard reverses EncodeClipboard.
func DecodeClipboard(payload string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("protocol: bad clipboard base64: %w", err)
	}
	return string(b), nil
}

// EncodeInt renders ops whose payload is a bare integer (vb, ab, _arg_fps,
// s, _f, _l).
func EncodeInt(op Op, v int) string { return Encode(op, strconv.Itoa(v)) }

// DecodeInt parses a bare-integer payload.
func DecodeInt(payload string) (int, error) {
	v, err := strconv.Atoi(payload)
	if err != nil {
		return 0, ErrMalformed
	}
	return v, nil
}

// EncodeFileUploadStart renders "FILE_UPLOAD_START,<path>:<size>".
func EncodeFileUploadStart(path string, size int64) string {
	return Encode(OpFileUploadStart, fmt.Sprintf("%s:%d", path, size))
}

// DecodeFileUploadStart parses "<path>:<size>". The size is taken after
// the last ':', so a path that itself contains ':' still parses.
func DecodeFileUploadStart(payload string) (path string, size int64, err error) {
	idx := strings.LastIndexByte(payload, ':')
	if idx < 0 {
		return "", 0, ErrMalformed
	}
	size, err = strconv.ParseInt(payload[idx+1:], 10, 64)
	if err != nil {
		return "", 0, ErrMalformed
	}
	return payload[:idx], size, nil
}

// EncodeFileUploadEnd renders "FILE_UPLOAD_END,<path>".
func EncodeFileUploadEnd(path string) string { return Encode(OpFileUploadEnd, path) }

// EncodeFileUploadError renders "FILE_UPLOAD_ERROR,<path>:<reason>".
func EncodeFileUploadError(path, reason string) string {
	return Encode(OpFileUploadError, fmt.Sprintf("%s:%s", path, reason))
}

// DecodeFileUploadError parses "<path>:<reason>".
func DecodeFileUploadError(payload string) (path, reason string, err error) {
	idx := strings.IndexByte(payload, ':')
	if idx < 0 {
		return "", "", ErrMalformed
	}
	return payload[:idx], payload[idx+1:], nil
}
