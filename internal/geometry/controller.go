package geometry

import (
	"sync"
	"time"
)

// debounceDelay is the trailing-edge quiet period spec.md §4.E calls
// "rdelta".
const debounceDelay = 500 * time.Millisecond

// Controller is the Rendering Geometry Controller (Module E). It owns no
// DOM handles directly; callers supply the window-size probe and the
// style/network sinks so the controller stays testable without a real
// display.
type Controller struct {
	mu sync.Mutex

	manualMode    bool
	useCSSScaling bool
	manualSize    Size
	dpr           float64
	scaleToFit    bool

	windowSize   func() (int, int)
	sendResize   func(w, h int)
	applyStyle   func(size Size, hint string)
	resizeTimer  *time.Timer
	autoResizeOn bool
}

// New constructs a Controller. windowSize reports the current window's
// logical size; sendResize pushes a resolution update to the server
// (typically wiring protocol.EncodeResolution through the primary
// channel); applyStyle is invoked with the computed surface size and
// image-rendering hint whenever geometry changes.
func New(windowSize func() (int, int), sendResize func(w, h int), applyStyle func(Size, string)) *Controller {
	return &Controller{
		dpr:        1,
		scaleToFit: true,
		windowSize: windowSize,
		sendResize: sendResize,
		applyStyle: applyStyle,
	}
}

// SetDevicePixelRatio updates the DPR used for auto (non-manual) sizing
// and refreshes the image-rendering hint.
func (c *Controller) SetDevicePixelRatio(dpr float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dpr = dpr
	c.refreshStyleLocked()
}

// SetUseCSSScaling toggles CSS-scaling mode, affecting EffectiveDPR.
func (c *Controller) SetUseCSSScaling(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.useCSSScaling = v
	c.refreshStyleLocked()
}

// ApplyManualStyle switches into manual resolution mode with a fixed
// target size, disabling auto-resize.
func (c *Controller) ApplyManualStyle(w, h int, scaleToFit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manualMode = true
	c.manualSize = Size{W: w, H: h}
	c.scaleToFit = scaleToFit
	c.disableAutoResizeLocked()
	c.refreshStyleLocked()
}

// ResetToWindowResolution exits manual mode and snaps to the current
// window size, re-enabling auto-resize.
func (c *Controller) ResetToWindowResolution() {
	c.mu.Lock()
	c.manualMode = false
	c.mu.Unlock()

	c.EnableAutoResize()
	c.sendCurrentWindowSize()
}

// EnableAutoResize arms the debounced resize listener. Idempotent.
func (c *Controller) EnableAutoResize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoResizeOn = true
}

// DisableAutoResize cancels any pending debounce timer and stops
// listening for resize events. Idempotent.
func (c *Controller) DisableAutoResize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disableAutoResizeLocked()
}

func (c *Controller) disableAutoResizeLocked() {
	c.autoResizeOn = false
	if c.resizeTimer != nil {
		c.resizeTimer.Stop()
		c.resizeTimer = nil
	}
}

// OnWindowResize records a resize event. The trailing-edge timer re-arms
// on every call within the debounce window; only after rdelta of
// quiescence does the controller read the window size, send it, and
// restyle.
func (c *Controller) OnWindowResize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.autoResizeOn || c.manualMode {
		return
	}
	if c.resizeTimer != nil {
		c.resizeTimer.Stop()
	}
	c.resizeTimer = time.AfterFunc(debounceDelay, c.onDebounceFired)
}

func (c *Controller) onDebounceFired() {
	c.mu.Lock()
	armed := c.autoResizeOn && !c.manualMode
	c.mu.Unlock()
	if !armed {
		return
	}
	c.sendCurrentWindowSize()
}

func (c *Controller) sendCurrentWindowSize() {
	if c.windowSize == nil {
		return
	}
	w, h := c.windowSize()

	c.mu.Lock()
	c.refreshStyleLocked()
	c.mu.Unlock()

	c.SendResolutionToServer(w, h)
}

// SendResolutionToServer pushes the logical (DPR-scaled) resolution for
// the given window size to the server.
func (c *Controller) SendResolutionToServer(windowW, windowH int) {
	c.mu.Lock()
	dpr := EffectiveDPR(c.manualMode, c.useCSSScaling, c.dpr)
	size := LogicalSize(windowW, windowH, dpr)
	send := c.sendResize
	c.mu.Unlock()

	if send != nil {
		send(size.W, size.H)
	}
}

// refreshStyleLocked recomputes the surface size/hint and invokes
// applyStyle. Caller must hold mu.
func (c *Controller) refreshStyleLocked() {
	if c.applyStyle == nil {
		return
	}
	dpr := EffectiveDPR(c.manualMode, c.useCSSScaling, c.dpr)
	hint := ImageRenderingHint(dpr)

	var size Size
	if c.manualMode {
		if c.windowSize != nil {
			cw, ch := c.windowSize()
			size = FitToContainer(cw, ch, c.manualSize.W, c.manualSize.H, c.scaleToFit)
		} else {
			size = c.manualSize
		}
	} else if c.windowSize != nil {
		w, h := c.windowSize()
		size = LogicalSize(w, h, dpr)
	}

	c.applyStyle(size, hint)
}
