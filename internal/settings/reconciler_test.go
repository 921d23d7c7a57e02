package settings

import (
	"testing"

	"github.com/selkies-project/selkies/internal/protocol"
	"github.com/selkies-project/selkies/internal/settings/memstore"
)

func minmax(min, max float64) (*float64, *float64) {
	return &min, &max
}

func TestReconcileRangeBoundResetsOutOfRange(t *testing.T) {
	store := memstore.New()
	_ = store.Set("sess", "video_bitrate", "12000")

	min, max := minmax(500, 8000)
	server := map[string]protocol.ServerSettingsField{
		"video_bitrate": {Value: float64(4000), Default: float64(4000), Min: min, Max: max},
	}

	res := Reconcile(store, "sess", server)

	if res.Values["video_bitrate"] != "4000" {
		t.Fatalf("expected reset to default 4000, got %q", res.Values["video_bitrate"])
	}
	if res.Delta["video_bitrate"] != int64(4000) {
		t.Errorf("expected delta to record the reset, got %+v", res.Delta)
	}
}

func TestReconcileRangeBoundWithinRangeUnchanged(t *testing.T) {
	store := memstore.New()
	_ = store.Set("sess", "video_bitrate", "3000")

	min, max := minmax(500, 8000)
	server := map[string]protocol.ServerSettingsField{
		"video_bitrate": {Value: float64(4000), Default: float64(4000), Min: min, Max: max},
	}

	res := Reconcile(store, "sess", server)

	if res.Values["video_bitrate"] != "3000" {
		t.Fatalf("expected persisted value preserved, got %q", res.Values["video_bitrate"])
	}
	if _, changed := res.Delta["video_bitrate"]; changed {
		t.Errorf("expected no delta for in-range value")
	}
}

func TestReconcileEnumBoundResetsInvalidMember(t *testing.T) {
	store := memstore.New()
	_ = store.Set("sess", "encoder_rtc", "vp9enc")

	server := map[string]protocol.ServerSettingsField{
		"encoder_rtc": {Value: "x264enc", Allowed: []string{"x264enc", "vp8enc"}},
	}

	res := Reconcile(store, "sess", server)

	if res.Values["encoder_rtc"] != "x264enc" {
		t.Fatalf("expected reset to server value, got %q", res.Values["encoder_rtc"])
	}
	if res.Delta["encoder_rtc"] != "x264enc" {
		t.Errorf("expected delta recorded, got %+v", res.Delta)
	}
}

func TestReconcileLockedBooleanServerAlwaysWins(t *testing.T) {
	store := memstore.New()
	_ = store.Set("sess", "turn_switch", "false")

	server := map[string]protocol.ServerSettingsField{
		"turn_switch": {Value: true, Locked: true},
	}

	res := Reconcile(store, "sess", server)

	if res.Values["turn_switch"] != "true" {
		t.Fatalf("expected locked server value to win, got %q", res.Values["turn_switch"])
	}
	if res.Delta["turn_switch"] != true {
		t.Errorf("expected delta recorded for overwritten locked value, got %+v", res.Delta)
	}
}

func TestReconcileUnlockedBooleanFirstContact(t *testing.T) {
	store := memstore.New()

	server := map[string]protocol.ServerSettingsField{
		"gamepad_enabled": {Value: true, Locked: false},
	}

	res := Reconcile(store, "sess", server)

	if res.Values["gamepad_enabled"] != "true" {
		t.Fatalf("expected first-contact seed, got %q", res.Values["gamepad_enabled"])
	}
	if res.Delta["gamepad_enabled"] != true {
		t.Errorf("expected first-contact delta, got %+v", res.Delta)
	}

	if v, _ := store.Get("sess", "gamepad_enabled"); v != "true" {
		t.Errorf("expected value persisted after first contact, got %q", v)
	}
}

func TestReconcileUnlockedBooleanPreservesExisting(t *testing.T) {
	store := memstore.New()
	_ = store.Set("sess", "gamepad_enabled", "false")

	server := map[string]protocol.ServerSettingsField{
		"gamepad_enabled": {Value: true, Locked: false},
	}

	res := Reconcile(store, "sess", server)

	if res.Values["gamepad_enabled"] != "false" {
		t.Fatalf("expected existing client value preserved, got %q", res.Values["gamepad_enabled"])
	}
	if _, changed := res.Delta["gamepad_enabled"]; changed {
		t.Errorf("expected no delta when unlocked value already present")
	}
}

// End-to-end scenario #1: server settings with video_bitrate{min:500,
// max:8000, default:4000}, persisted client value 12000 resets to 4000
// and the reconciler emits a SETTINGS,{"video_bitrate":4000} frame.
func TestReconcileEmitsSettingsFrame(t *testing.T) {
	store := memstore.New()
	_ = store.Set("sess", "video_bitrate", "12000")

	min, max := minmax(500, 8000)
	server := map[string]protocol.ServerSettingsField{
		"video_bitrate": {Value: float64(4000), Default: float64(4000), Min: min, Max: max},
	}

	res := Reconcile(store, "sess", server)

	line, err := protocol.EncodeSettings(res.Delta)
	if err != nil {
		t.Fatalf("encode settings: %v", err)
	}
	if line != `SETTINGS,{"video_bitrate":4000}` {
		t.Errorf("got %q", line)
	}
}

func TestReconcileManualResolutionMode(t *testing.T) {
	store := memstore.New()
	_ = store.Set("sess", "manual_width", "1920")
	_ = store.Set("sess", "manual_height", "1080")

	server := map[string]protocol.ServerSettingsField{
		"is_manual_resolution_mode": {Value: true, Locked: false},
		"manual_width":              {Value: float64(1920), Locked: false},
		"manual_height":             {Value: float64(1080), Locked: false},
	}

	res := Reconcile(store, "sess", server)

	if !res.Manual {
		t.Fatal("expected manual mode enabled")
	}
	if res.ManualW != 1920 || res.ManualH != 1080 {
		t.Errorf("got %dx%d, want 1920x1080", res.ManualW, res.ManualH)
	}
}
