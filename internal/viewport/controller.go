// Package viewport owns the navigable time window: drag, wheel and keyboard panning with
// eased animation, continuous hold panning, and clamping to one calendar year.
//
// A Controller is not safe for concurrent use. Every call, including Scheduler callbacks,
// must come from the host's single event loop.
package viewport

import (
	"math"
	"time"

	"cpgantt/internal/model"
)

const (
	Nudge         = 7 * 24 * time.Hour
	AccelWindow   = 300 * time.Millisecond
	AccelFactor   = 3
	EaseDuration  = 240 * time.Millisecond
	HoldDelay     = 350 * time.Millisecond
	HoldSpeed     = 0.18 // weeks per second
	HoldRamp      = 0.12 // fraction of the remaining velocity gap closed per frame
	UnpinGrace    = 400 * time.Millisecond
	DefaultMonths = 3
)

// Options configures a Controller.
type Options struct {
	PixelWidth    float64
	Location      *time.Location
	EnableDrag    bool
	EnableWheel   bool
	KeyboardAccel bool
	// HoldSpeed overrides the continuous pan target in weeks per second.
	HoldSpeed float64
	// OnChange is called once per committed window.
	OnChange func(model.Window)
}

// Controller is the viewport state machine.
type Controller struct {
	opts  Options
	loc   *time.Location
	sched Scheduler

	win   model.Window
	state State

	pinned    bool
	pinYear   int
	unpin     Cancel
	frame     Cancel
	holdTimer Cancel

	down      Key
	lastKey   Key
	lastKeyAt time.Time

	detached bool
}

// New returns a controller showing initial, clamped to the year of its start.
func New(initial model.Window, sched Scheduler, opts Options) *Controller {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	c := &Controller{opts: opts, loc: loc, sched: sched, state: Idle{}}
	c.win = Clamp(initial, initial.Start.In(loc).Year(), loc)
	return c
}

// Window is the current visible window.
func (c *Controller) Window() model.Window { return c.win }

// State is the current tagged state.
func (c *Controller) State() State { return c.state }

// Mode is shorthand for State().Mode().
func (c *Controller) Mode() Mode { return c.state.Mode() }

// PinnedYear reports the year held fixed by an in-progress gesture.
func (c *Controller) PinnedYear() (int, bool) { return c.pinYear, c.pinned }

// PixelWidth is the width the window is mapped onto.
func (c *Controller) PixelWidth() float64 { return c.opts.PixelWidth }

// Resize updates the pixel width used to convert pointer deltas.
func (c *Controller) Resize(pixelWidth float64) {
	if pixelWidth > 0 {
		c.opts.PixelWidth = pixelWidth
	}
}

// year is the clamp reference: the pinned year, else the window's start year.
func (c *Controller) year() int {
	if c.pinned {
		return c.pinYear
	}
	return c.win.Start.In(c.loc).Year()
}

func (c *Controller) commit(w model.Window, year int) {
	if c.detached {
		return
	}
	c.win = Clamp(w, year, c.loc)
	if c.opts.OnChange != nil {
		c.opts.OnChange(c.win)
	}
}

func (c *Controller) pin() {
	c.unpin.call()
	c.unpin = nil
	if !c.pinned {
		c.pinYear = c.win.Start.In(c.loc).Year()
		c.pinned = true
	}
}

func (c *Controller) scheduleUnpin() {
	c.unpin.call()
	c.unpin = c.sched.After(UnpinGrace, func(time.Time) {
		c.unpin = nil
		if c.state.Mode() == ModeIdle {
			c.pinned = false
		}
	})
}

func (c *Controller) clearPin() {
	c.unpin.call()
	c.unpin = nil
	c.pinned = false
}

// stop cancels any animation or hold, leaving the last committed window in place.
func (c *Controller) stop() {
	c.frame.call()
	c.frame = nil
	switch c.state.(type) {
	case Animating, Holding:
		c.state = Idle{}
	}
}

// SetWindow sets end = start + months calendar months.
func (c *Controller) SetWindow(months int) {
	if c.detached || months <= 0 {
		return
	}
	c.stop()
	start := c.win.Start
	c.commit(model.Window{Start: start, End: start.AddDate(0, months, 0)}, c.year())
}

// SnapToToday centres the current window width on now, in now's year.
func (c *Controller) SnapToToday(now time.Time) {
	if c.detached {
		return
	}
	c.stop()
	c.clearPin()
	now = now.In(c.loc)
	half := c.win.Width() / 2
	c.commit(model.Window{Start: now.Add(-half), End: now.Add(c.win.Width() - half)}, now.Year())
}

// SetStart moves the window to begin at t, keeping its width, in t's year.
func (c *Controller) SetStart(t time.Time) {
	if c.detached {
		return
	}
	c.stop()
	c.clearPin()
	t = t.In(c.loc)
	c.commit(model.Window{Start: t, End: t.Add(c.win.Width())}, t.Year())
}

// JumpYear moves the window to the same position delta years away.
func (c *Controller) JumpYear(delta int) {
	if c.detached || delta == 0 {
		return
	}
	c.stop()
	c.clearPin()
	start := c.win.Start.In(c.loc).AddDate(delta, 0, 0)
	c.commit(model.Window{Start: start, End: start.Add(c.win.Width())}, start.Year())
}

// PanBy shifts the window by delta immediately.
func (c *Controller) PanBy(delta time.Duration) {
	if c.detached {
		return
	}
	c.commit(c.win.Shift(delta), c.year())
}

// AnimatePanBy eases the window by delta. An in-flight animation is cancelled and its
// remaining distance carried into the new one.
func (c *Controller) AnimatePanBy(delta time.Duration, now time.Time) {
	if c.detached {
		return
	}
	if a, ok := c.state.(Animating); ok {
		delta += a.target().Sub(c.win.Start)
	}
	c.stop()
	if delta == 0 {
		return
	}
	c.pin()
	c.state = Animating{From: c.win, Delta: delta, StartedAt: now, Duration: EaseDuration}
	c.frame = c.sched.RequestFrame(c.animateFrame)
}

func (c *Controller) animateFrame(now time.Time) {
	c.frame = nil
	a, ok := c.state.(Animating)
	if !ok || c.detached {
		return
	}
	p := 1.0
	if a.Duration > 0 {
		p = float64(now.Sub(a.StartedAt)) / float64(a.Duration)
	}
	p = math.Max(0, math.Min(1, p))
	shift := time.Duration(float64(a.Delta) * easeOutCubic(p))
	c.commit(a.From.Shift(shift), c.year())
	if p >= 1 {
		c.state = Idle{}
		c.scheduleUnpin()
		return
	}
	c.frame = c.sched.RequestFrame(c.animateFrame)
}

func easeOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

// PointerDown starts a drag at pixel x.
func (c *Controller) PointerDown(x float64) {
	if c.detached || !c.opts.EnableDrag {
		return
	}
	c.stop()
	c.pin()
	c.state = Dragging{AnchorX: x, Origin: c.win}
}

// PointerMove pans relative to the window at drag start.
func (c *Controller) PointerMove(x float64) {
	d, ok := c.state.(Dragging)
	if !ok || c.detached || c.opts.PixelWidth <= 0 {
		return
	}
	msPerPx := float64(d.Origin.Width().Milliseconds()) / c.opts.PixelWidth
	delta := time.Duration(-(x - d.AnchorX) * msPerPx * float64(time.Millisecond))
	c.commit(d.Origin.Shift(delta), c.year())
}

// PointerUp ends a drag.
func (c *Controller) PointerUp() {
	if _, ok := c.state.(Dragging); !ok {
		return
	}
	c.state = Idle{}
	c.scheduleUnpin()
}

// PointerLeave ends a drag like PointerUp.
func (c *Controller) PointerLeave() { c.PointerUp() }

// Wheel pans on a horizontal-dominant delta, or on any delta while modifier is held.
// A consumed event cancels any running ease or hold first. It reports whether the event
// was consumed.
func (c *Controller) Wheel(dx, dy float64, modifier bool) bool {
	if c.detached || !c.opts.EnableWheel || c.opts.PixelWidth <= 0 {
		return false
	}
	var px float64
	switch {
	case dx != 0 && math.Abs(dx) >= math.Abs(dy):
		px = dx
	case modifier && dy != 0:
		px = dy
	default:
		return false
	}
	c.stop()
	msPerPx := float64(c.win.Width().Milliseconds()) / c.opts.PixelWidth
	c.PanBy(time.Duration(px * msPerPx * float64(time.Millisecond)))
	if c.pinned && c.state.Mode() == ModeIdle {
		c.scheduleUnpin()
	}
	return true
}

// KeyDown handles a key press. Repeats of a key that is already down are ignored.
func (c *Controller) KeyDown(k Key, now time.Time) {
	if c.detached || k == KeyNone || k == c.down {
		return
	}
	switch k {
	case KeyLeft, KeyRight:
		step := Nudge
		if c.opts.KeyboardAccel && c.lastKey == k && now.Sub(c.lastKeyAt) < AccelWindow {
			step *= AccelFactor
		}
		c.lastKey, c.lastKeyAt = k, now
		c.down = k
		c.AnimatePanBy(time.Duration(k.direction())*step, now)
		c.holdTimer.call()
		c.holdTimer = c.sched.After(HoldDelay, func(at time.Time) {
			c.holdTimer = nil
			c.startHold(k, at)
		})
	case KeyPageUp, KeyPageDown:
		base := c.win.Start
		if a, ok := c.state.(Animating); ok {
			base = a.target()
		}
		months := int(k.direction())
		c.lastKey, c.lastKeyAt = k, now
		c.AnimatePanBy(base.In(c.loc).AddDate(0, months, 0).Sub(base), now)
	}
}

// KeyUp releases a key, ending any hold immediately.
func (c *Controller) KeyUp(k Key, now time.Time) {
	if k != c.down {
		return
	}
	c.down = KeyNone
	c.holdTimer.call()
	c.holdTimer = nil
	if _, ok := c.state.(Holding); ok {
		c.stop()
		c.scheduleUnpin()
	}
}

// KeyHeld reports the arrow key currently down.
func (c *Controller) KeyHeld() Key { return c.down }

func (c *Controller) startHold(k Key, now time.Time) {
	if c.detached || c.down != k {
		return
	}
	c.stop()
	c.pin()
	c.state = Holding{Key: k, LastFrame: now}
	c.frame = c.sched.RequestFrame(c.holdFrame)
}

func (c *Controller) holdFrame(now time.Time) {
	c.frame = nil
	h, ok := c.state.(Holding)
	if !ok || c.detached {
		return
	}
	speed := c.opts.HoldSpeed
	if speed <= 0 {
		speed = HoldSpeed
	}
	target := speed * h.Key.direction()
	h.Velocity += (target - h.Velocity) * HoldRamp
	dt := now.Sub(h.LastFrame).Seconds()
	h.LastFrame = now
	c.state = h
	if dt > 0 {
		c.commit(c.win.Shift(time.Duration(h.Velocity*dt*float64(Nudge))), c.year())
	}
	c.frame = c.sched.RequestFrame(c.holdFrame)
}

// Detach cancels every pending callback. The controller ignores all further input.
func (c *Controller) Detach() {
	c.frame.call()
	c.holdTimer.call()
	c.unpin.call()
	c.frame, c.holdTimer, c.unpin = nil, nil, nil
	c.state = Idle{}
	c.down = KeyNone
	c.detached = true
}
