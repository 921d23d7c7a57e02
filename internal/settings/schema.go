// Package settings implements the three-way settings merge described in
// spec.md §4.D: persisted client preferences, server-broadcast policy, and
// user/dashboard mutations are reconciled into a single runtime value per
// key, with the changed subset reported back as a delta.
package settings

import "strconv"

// Kind is the declared type of a settings field, replacing the source's
// per-key dynamic getter/setter generation with a declarative schema
// (spec.md §9 Design Note).
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
)

// FieldDescriptor declares one settings key's name, type, and default.
// It holds no bounds or lock policy: Reconcile takes those from the
// server's broadcast descriptor for each key.
type FieldDescriptor struct {
	Name    string
	Kind    Kind
	Default any
}

// Schema is the ordered set of settings keys the core recognises
// (spec.md §3).
var Schema = []FieldDescriptor{
	{Name: "framerate", Kind: KindInt, Default: 60},
	{Name: "video_bitrate", Kind: KindInt, Default: 4000},
	{Name: "audio_bitrate", Kind: KindInt, Default: 128000},
	{Name: "encoder_rtc", Kind: KindString, Default: "x264enc"},
	{Name: "scaling_dpi", Kind: KindInt, Default: 96},
	{Name: "is_manual_resolution_mode", Kind: KindBool, Default: false},
	{Name: "manual_width", Kind: KindInt, Default: 1280},
	{Name: "manual_height", Kind: KindInt, Default: 720},
	{Name: "enable_binary_clipboard", Kind: KindBool, Default: false},
	{Name: "turn_switch", Kind: KindBool, Default: false},
	{Name: "resize_remote", Kind: KindBool, Default: true},
	{Name: "use_css_scaling", Kind: KindBool, Default: false},
	{Name: "debug", Kind: KindBool, Default: false},
	{Name: "gamepad_enabled", Kind: KindBool, Default: true},
}

func descriptor(name string) (FieldDescriptor, bool) {
	for _, f := range Schema {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// valid reports whether raw is a well-formed persisted-store encoding for
// name's declared Kind. Names outside Schema are always accepted, since
// Reconcile also handles server-only fields the schema hasn't caught up
// with yet.
func valid(name, raw string) bool {
	d, ok := descriptor(name)
	if !ok {
		return true
	}
	switch d.Kind {
	case KindInt:
		_, err := strconv.Atoi(raw)
		return err == nil
	case KindFloat:
		_, err := strconv.ParseFloat(raw, 64)
		return err == nil
	case KindBool:
		return raw == "true" || raw == "false"
	default:
		return true
	}
}
