package aspect

import (
	"math"
	"sync/atomic"

	"AspectLock/internal/logger"

	"github.com/google/uuid"
)

type Driver string

const (
	DriverWidth  Driver = "width"
	DriverHeight Driver = "height"
	DriverSnap   Driver = "snap"
)

type EnforceEvent struct {
	ControllerID string
	Driver       Driver
	Ratio        float64
	Before       Rect
	After        Rect
}

type Options struct {
	Query Query
	// Ratio <= 0 means the ratio is taken from the window's client size at Init.
	Ratio     float64
	Rounding  RoundFunc
	Frame     FrameStyle
	Logger    *logger.Logger
	OnEnforce func(EnforceEvent)
}

// Controller keeps one window at a fixed width/height ratio. Init, Update,
// EnforceNow and Close must run on the thread that pumps the window system's
// messages; the ratio and enabled setters may be called from anywhere.
type Controller struct {
	ws   WindowSystem
	opts Options
	id   string
	log  *logger.Logger

	ratioBits atomic.Uint64
	enabled   atomic.Bool
	resizing  atomic.Bool

	hwnd        Handle
	sub         Subscription
	ready       bool
	xoff, yoff  int32
	prevRect    Rect
	wasResizing bool
}

func NewController(ws WindowSystem, opts Options) *Controller {
	if opts.Rounding == nil {
		opts.Rounding = Truncate
	}
	if opts.Frame == (FrameStyle{}) {
		opts.Frame = ResizableFrame
	}
	id := uuid.NewString()
	c := &Controller{
		ws:   ws,
		opts: opts,
		id:   id,
		log:  logger.OrNop(opts.Logger).With("addon", ControllerName, "controller_id", id),
	}
	if opts.Ratio > 0 {
		c.SetAspectRatio(opts.Ratio)
	}
	c.enabled.Store(true)
	return c
}

func (c *Controller) Name() string { return ControllerName }
func (c *Controller) ID() string   { return c.id }
func (c *Controller) Ready() bool  { return c.ready }
func (c *Controller) Handle() Handle {
	return c.hwnd
}

// BorderOffset reports the outer-minus-client padding computed at Init.
func (c *Controller) BorderOffset() (x, y int32) { return c.xoff, c.yoff }

func (c *Controller) Init() bool {
	if c.ready {
		return true
	}
	hwnd, err := c.ws.FindWindow(c.opts.Query)
	if err != nil || hwnd == 0 {
		c.log.Warn("target window not found", "query", c.opts.Query, "error", err)
		return false
	}
	pid := c.ws.ProcessID(hwnd)
	if pid == 0 {
		c.log.Warn("target window has no owning process", "hwnd", hwnd)
		return false
	}

	sub, err := c.ws.Subscribe(pid, c.onGesture)
	if err != nil || sub == nil {
		c.log.Warn("move/size hook not installed", "pid", pid, "error", err)
		return false
	}

	xoff, yoff, err := c.ws.FrameOffset(c.opts.Frame)
	if err != nil {
		c.log.Warn("frame offset unavailable", "error", err)
		_ = sub.Close()
		return false
	}

	c.hwnd = hwnd
	c.sub = sub
	c.xoff, c.yoff = xoff, yoff
	if r, err := c.ws.WindowRect(hwnd); err == nil {
		c.prevRect = r
		if c.Ratio() <= 0 {
			c.SetAspectRatio(clientRatio(r, xoff, yoff))
		}
	}
	if c.Ratio() <= 0 {
		c.SetAspectRatio(DefaultRatio)
	}
	c.wasResizing = false
	c.ready = true

	c.log.Info("aspect lock ready",
		"hwnd", hwnd,
		"pid", pid,
		"ratio", c.Ratio(),
		"border_x", xoff,
		"border_y", yoff,
	)
	return true
}

func clientRatio(r Rect, xoff, yoff int32) float64 {
	w := r.Width() - xoff
	h := r.Height() - yoff
	if w <= 0 || h <= 0 {
		return 0
	}
	return float64(w) / float64(h)
}

func (c *Controller) onGesture(g Gesture) {
	switch g {
	case GestureStart:
		c.resizing.Store(true)
	case GestureEnd:
		c.resizing.Store(false)
	}
}

// Update runs one tick. It always returns true.
func (c *Controller) Update() bool {
	if !c.ready {
		return true
	}
	c.ws.DrainMessage()

	now := c.resizing.Load()
	switch {
	case now && !c.wasResizing:
		if r, err := c.ws.WindowRect(c.hwnd); err == nil {
			c.prevRect = r
		}
	case !now && c.wasResizing:
		c.finishGesture()
	}
	c.wasResizing = now
	return true
}

func (c *Controller) finishGesture() {
	rect, err := c.ws.WindowRect(c.hwnd)
	if err != nil {
		c.log.Warn("window rect unavailable", "hwnd", c.hwnd, "error", err)
		return
	}
	prev := c.prevRect
	c.prevRect = rect

	if !c.enabled.Load() {
		c.log.Debug("gesture ended while paused", "rect", rect)
		return
	}

	ratio := c.Ratio()
	var target Rect
	var driver Driver
	switch {
	case rect.Width() != prev.Width():
		driver = DriverWidth
		target = c.fitHeight(rect, ratio)
	case rect.Height() != prev.Height():
		driver = DriverHeight
		target = c.fitWidth(rect, ratio)
	default:
		c.log.Debug("gesture ended without resize", "rect", rect)
		return
	}
	c.apply(driver, ratio, rect, target)
}

// EnforceNow snaps the window to the current ratio, keeping its width.
func (c *Controller) EnforceNow() (Rect, bool) {
	if !c.ready {
		return Rect{}, false
	}
	rect, err := c.ws.WindowRect(c.hwnd)
	if err != nil {
		c.log.Warn("window rect unavailable", "hwnd", c.hwnd, "error", err)
		return Rect{}, false
	}
	ratio := c.Ratio()
	target := c.fitHeight(rect, ratio)
	if !c.apply(DriverSnap, ratio, rect, target) {
		return rect, false
	}
	c.prevRect = target
	return target, true
}

func (c *Controller) fitHeight(r Rect, ratio float64) Rect {
	h := HeightFor(r.Width(), ratio, c.xoff, c.yoff, c.opts.Rounding)
	return Rect{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Top + h}
}

func (c *Controller) fitWidth(r Rect, ratio float64) Rect {
	w := WidthFor(r.Height(), ratio, c.xoff, c.yoff, c.opts.Rounding)
	return Rect{Left: r.Left, Top: r.Top, Right: r.Left + w, Bottom: r.Bottom}
}

func (c *Controller) apply(driver Driver, ratio float64, before, after Rect) bool {
	if before == after {
		return false
	}
	if err := c.ws.MoveWindow(c.hwnd, after); err != nil {
		c.log.Warn("move window failed", "driver", driver, "rect", after, "error", err)
		return false
	}
	c.log.Debug("aspect enforced", "driver", driver, "ratio", ratio, "before", before, "after", after)
	if c.opts.OnEnforce != nil {
		c.opts.OnEnforce(EnforceEvent{
			ControllerID: c.id,
			Driver:       driver,
			Ratio:        ratio,
			Before:       before,
			After:        after,
		})
	}
	return true
}

// SetAspectRatio stores width/height. Zero, negative or non-finite values
// are not rejected.
func (c *Controller) SetAspectRatio(ratio float64) {
	c.ratioBits.Store(math.Float64bits(ratio))
}

// SetAspectRatioFraction stores numerator/denominator. A zero denominator
// yields a non-finite ratio.
func (c *Controller) SetAspectRatioFraction(numerator, denominator float64) {
	c.SetAspectRatio(numerator / denominator)
}

func (c *Controller) Ratio() float64 {
	return math.Float64frombits(c.ratioBits.Load())
}

func (c *Controller) SetEnabled(on bool) { c.enabled.Store(on) }
func (c *Controller) Enabled() bool      { return c.enabled.Load() }

// SwapEnabled sets the enabled flag to on and reports whether it changed.
// Of several concurrent callers with the same value only one sees true.
func (c *Controller) SwapEnabled(on bool) bool {
	return c.enabled.CompareAndSwap(!on, on)
}

// Resizing reports whether a move/size gesture is in progress.
func (c *Controller) Resizing() bool { return c.resizing.Load() }

func (c *Controller) Close() error {
	c.ready = false
	if c.sub == nil {
		return nil
	}
	err := c.sub.Close()
	c.sub = nil
	return err
}
