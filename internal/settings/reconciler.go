package settings

import (
	"fmt"
	"strconv"

	"github.com/selkies-project/selkies/internal/protocol"
)

// Result is the outcome of a single Reconcile pass: the settled runtime
// value for every field the server described, the subset that changed
// (the delta reported back to the server as a SETTINGS message), and the
// manual-resolution decision the Rendering Geometry Controller must act
// on.
type Result struct {
	Values  map[string]string
	Delta   map[string]any
	Manual  bool
	ManualW int
	ManualH int
}

// Reconcile implements the three-way merge of spec.md §4.D: persisted
// client preference vs. server-broadcast policy vs. (implicitly, via the
// store) prior user mutation. namespace is the URL-derived storage slug
// (spec.md §6).
func Reconcile(store Store, namespace string, server map[string]protocol.ServerSettingsField) Result {
	res := Result{
		Values: make(map[string]string),
		Delta:  make(map[string]any),
	}

	for name, field := range server {
		switch {
		case field.Min != nil && field.Max != nil:
			reconcileRangeBound(store, namespace, name, field, &res)
		case len(field.Allowed) > 0:
			reconcileEnumBound(store, namespace, name, field, &res)
		default:
			reconcileBoolean(store, namespace, name, field, &res)
		}
	}

	if manual, ok := server["is_manual_resolution_mode"]; ok {
		if b, _ := manual.Value.(bool); b {
			w := intField(res.Values["manual_width"])
			h := intField(res.Values["manual_height"])
			if w > 0 && h > 0 {
				res.Manual = true
				res.ManualW = w
				res.ManualH = h
			}
		}
	}

	return res
}

// reconcileRangeBound resets out-of-bounds persisted values to the
// server's default, recording a delta.
func reconcileRangeBound(store Store, namespace, name string, field protocol.ServerSettingsField, res *Result) {
	persisted, ok := store.Get(namespace, name)
	if ok && !valid(name, persisted) {
		ok = false
	}
	current := persisted
	changed := false

	if ok {
		if n, err := strconv.ParseFloat(persisted, 64); err == nil {
			if n < *field.Min || n > *field.Max {
				current = formatAny(field.Default)
				changed = true
			}
		} else {
			current = formatAny(field.Default)
			changed = true
		}
	} else {
		current = formatAny(field.Default)
		changed = true
	}

	res.Values[name] = current
	if changed {
		_ = store.Set(namespace, name, current)
		res.Delta[name] = parseBack(current)
	}
}

// reconcileEnumBound resets persisted values outside the allowed set to
// the server's current value, preserving the original representation.
func reconcileEnumBound(store Store, namespace, name string, field protocol.ServerSettingsField, res *Result) {
	persisted, ok := store.Get(namespace, name)
	if ok && !valid(name, persisted) {
		ok = false
	}
	current := persisted
	changed := false

	member := false
	if ok {
		for _, a := range field.Allowed {
			if a == persisted {
				member = true
				break
			}
		}
	}
	if !ok || !member {
		current = formatAny(field.Value)
		changed = true
	}

	res.Values[name] = current
	if changed {
		_ = store.Set(namespace, name, current)
		res.Delta[name] = parseBack(current)
	}
}

// reconcileBoolean applies the locked/first-contact rule: a locked field
// always takes the server's value; an unlocked field is seeded from the
// server on first contact only.
func reconcileBoolean(store Store, namespace, name string, field protocol.ServerSettingsField, res *Result) {
	persisted, ok := store.Get(namespace, name)
	if ok && !valid(name, persisted) {
		ok = false
	}
	serverVal := formatAny(field.Value)

	if field.Locked {
		res.Values[name] = serverVal
		if !ok || persisted != serverVal {
			_ = store.Set(namespace, name, serverVal)
			res.Delta[name] = parseBack(serverVal)
		}
		return
	}

	if !ok {
		res.Values[name] = serverVal
		_ = store.Set(namespace, name, serverVal)
		res.Delta[name] = parseBack(serverVal)
		return
	}

	res.Values[name] = persisted
}

func intField(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// formatAny encodes a decoded JSON value back into the persisted-store
// string representation mandated by spec.md §6.
func formatAny(v any) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// parseBack turns a persisted string representation into the JSON-ready
// value reported in a SETTINGS delta.
func parseBack(s string) any {
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
