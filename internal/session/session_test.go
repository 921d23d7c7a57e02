package session

import (
	"context"
	"net/url"
	"testing"

	"github.com/selkies-project/selkies/internal/logger"
	"github.com/selkies-project/selkies/internal/settings/memstore"
	"github.com/selkies-project/selkies/internal/upload"
)

func newTestSession(t *testing.T) (*Session, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	s := New(logger.New(false), store, Config{
		Namespace:    "test_ns",
		SignalingURL: url.URL{Scheme: "ws", Host: "127.0.0.1:0", Path: "/signaling/"},
		WindowSize:   func() (int, int) { return 1280, 720 },
	})
	return s, store
}

func TestHandleDashboardMessageSetManualResolutionPersists(t *testing.T) {
	s, store := newTestSession(t)

	s.HandleDashboardMessage(DashboardMessage{
		Type: MsgSetManualResolution, Width: 1920, Height: 1080,
	})

	if v, _ := store.Get("test_ns", "manual_width"); v != "1920" {
		t.Fatalf("manual_width = %q, want 1920", v)
	}
	if v, _ := store.Get("test_ns", "manual_height"); v != "1080" {
		t.Fatalf("manual_height = %q, want 1080", v)
	}
	if v, _ := store.Get("test_ns", "is_manual_resolution_mode"); v != "true" {
		t.Fatalf("is_manual_resolution_mode = %q, want true", v)
	}
}

func TestHandleDashboardMessageUnknownTypeIsDropped(t *testing.T) {
	s, _ := newTestSession(t)
	// Must not panic; unknown types are warned and dropped (spec.md §4.H).
	s.HandleDashboardMessage(DashboardMessage{Type: "nonsense"})
}

func TestHandleDashboardMessageClipboardEmitsDashboardEvent(t *testing.T) {
	s, _ := newTestSession(t)

	s.HandleDashboardMessage(DashboardMessage{Type: MsgClipboardUpdateFromUI, ClipboardText: "hello"})

	select {
	case ev := <-s.DashboardEvents:
		if ev.Type != EventClipboardContentUpdate || ev.ClipboardText != "hello" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("expected a clipboardContentUpdate dashboard event")
	}
}

func TestApplySettingsPatchPersistsEveryKey(t *testing.T) {
	s, store := newTestSession(t)

	s.applySettingsPatch(map[string]string{
		"video_bitrate": "4000",
		"debug":         "true", // no direct wire op, persisted only
	})

	if v, _ := store.Get("test_ns", "video_bitrate"); v != "4000" {
		t.Fatalf("video_bitrate = %q, want 4000", v)
	}
	if v, _ := store.Get("test_ns", "debug"); v != "true" {
		t.Fatalf("debug = %q, want true", v)
	}
}

func TestReconcileServerSettingsEndToEndScenario(t *testing.T) {
	s, store := newTestSession(t)
	_ = store.Set("test_ns", "video_bitrate", "12000")

	s.reconcileServerSettings(`{"video_bitrate":{"value":12000,"default":4000,"min":500,"max":8000}}`)

	if v, _ := store.Get("test_ns", "video_bitrate"); v != "4000" {
		t.Fatalf("video_bitrate = %q, want reset to 4000", v)
	}

	select {
	case ev := <-s.DashboardEvents:
		if ev.Type != EventServerSettings {
			t.Fatalf("expected serverSettings dashboard event, got %+v", ev)
		}
	default:
		t.Fatal("expected a serverSettings dashboard event")
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	s, _ := newTestSession(t)

	if err := s.Cleanup(context.Background()); err != nil {
		t.Fatalf("first Cleanup: %v", err)
	}
	if err := s.Cleanup(context.Background()); err != nil {
		t.Fatalf("second Cleanup: %v", err)
	}
}

func TestUploadEventToDashboardRejectedUsesPlaceholderName(t *testing.T) {
	ev := uploadEventToDashboard(upload.Event{Kind: upload.EventRejected, Message: "please let the ongoing upload complete"})

	if ev.UploadStatus != "warning" || ev.UploadFileName != "_N/A_" {
		t.Fatalf("unexpected rejected mapping: %+v", ev)
	}
}
