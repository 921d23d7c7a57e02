// Package geometry computes the logical/CSS dimensions of the media
// surface and drives resolution updates to the server, per spec.md §4.E.
// The even-dimension and scale-to-fit arithmetic is grounded on the
// aspect-ratio letterboxing in the teacher's pkg/worker/room.go
// (resizeToAspect), generalised from a fixed encoder frame size to a
// live device-pixel-ratio-aware viewport.
package geometry

import "math"

// Size is a logical pixel dimension pair.
type Size struct {
	W, H int
}

// RoundDownEven rounds v down to the nearest even integer, never below 2.
// Spec invariant: logical dimensions are always even.
func RoundDownEven(v float64) int {
	n := int(math.Floor(v))
	if n%2 != 0 {
		n--
	}
	if n < 2 {
		n = 2
	}
	return n
}

// EffectiveDPR is 1 when manual mode or CSS scaling is active, otherwise
// the real device pixel ratio. CSS scaling only forces the ratio to 1
// here: no HiDPI rescaling of the surface is performed, so the value
// only feeds ImageRenderingHint and LogicalSize.
func EffectiveDPR(manualMode, useCSSScaling bool, devicePixelRatio float64) float64 {
	if manualMode || useCSSScaling {
		return 1
	}
	return devicePixelRatio
}

// LogicalSize derives the logical (CSS) pixel size the media surface
// should request from a target size and the effective DPR.
func LogicalSize(targetW, targetH int, effectiveDPR float64) Size {
	return Size{
		W: RoundDownEven(float64(targetW) * effectiveDPR),
		H: RoundDownEven(float64(targetH) * effectiveDPR),
	}
}

// FitToContainer letterboxes targetW×targetH inside containerW×containerH,
// preserving the target aspect ratio, or stretches to fill when
// scaleToFit is false.
func FitToContainer(containerW, containerH, targetW, targetH int, scaleToFit bool) Size {
	if !scaleToFit || targetW <= 0 || targetH <= 0 {
		return Size{W: containerW, H: containerH}
	}

	ratio := float64(targetW) / float64(targetH)
	dw := RoundDownEven(float64(containerH) * ratio)
	dh := containerH
	if dw > containerW {
		dw = containerW
		dh = RoundDownEven(float64(containerW) / ratio)
	}
	return Size{W: dw, H: dh}
}

// ImageRenderingHint reports whether the surface should use a pixelated
// (nearest-neighbour) or smooth upscaling hint, per spec.md §4.E.
func ImageRenderingHint(effectiveDPR float64) string {
	if effectiveDPR <= 1 {
		return "pixelated"
	}
	return "smooth"
}
