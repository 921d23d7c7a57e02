package webrtcx

import (
	"testing"

	"github.com/selkies-project/selkies/internal/logger"
)

func newTestManager() *Manager {
	return New(logger.New(false), nil)
}

func TestSendDataChannelMessageWithoutPrimaryDrops(t *testing.T) {
	m := newTestManager()
	if err := m.SendDataChannelMessage("r,1920x1080"); err != ErrPrimaryNotOpen {
		t.Fatalf("expected ErrPrimaryNotOpen, got %v", err)
	}
}

func TestCreateAuxDataChannelWithoutConnectionFails(t *testing.T) {
	m := newTestManager()
	if m.CreateAuxDataChannel() {
		t.Fatal("expected false without an established peer connection")
	}
}

func TestIsAuxBufferNearThresholdWithoutChannel(t *testing.T) {
	m := newTestManager()
	if m.IsAuxBufferNearThreshold() {
		t.Fatal("expected false with no aux channel")
	}
}

func TestResetIsIdempotentWithoutConnect(t *testing.T) {
	m := newTestManager()
	if err := m.Reset(); err != nil {
		t.Fatalf("expected no error resetting an unconnected manager: %v", err)
	}
	if err := m.Reset(); err != nil {
		t.Fatalf("expected reset to be idempotent: %v", err)
	}
}

func TestDispatchControlLineClipboard(t *testing.T) {
	m := newTestManager()
	m.dispatchControlLine("cw,aGVsbG8=")

	select {
	case text := <-m.Events.ClipboardContent:
		if text != "hello" {
			t.Errorf("got %q, want %q", text, "hello")
		}
	default:
		t.Fatal("expected a clipboard event")
	}
}

func TestDispatchControlLineLatency(t *testing.T) {
	m := newTestManager()
	m.dispatchControlLine("latency,23.5")

	select {
	case ms := <-m.Events.LatencyMeasurement:
		if ms != 23.5 {
			t.Errorf("got %v, want 23.5", ms)
		}
	default:
		t.Fatal("expected a latency event")
	}
}

func TestDispatchControlLineMalformedIsDropped(t *testing.T) {
	m := newTestManager()
	m.dispatchControlLine("")

	select {
	case <-m.Events.Error:
		t.Fatal("malformed lines should be logged and dropped, not surfaced as errors")
	default:
	}
}
