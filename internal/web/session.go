package web

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/starfederation/datastar-go/datastar"

	"cpgantt/internal/chart"
	"cpgantt/internal/interact"
	"cpgantt/internal/model"
	"cpgantt/internal/render"
	"cpgantt/internal/viewport"
)

const (
	idleTimeout = 10 * time.Minute
	idleCheck   = time.Minute
	// Pointer travel below clickSlop pixels still counts as a click.
	clickSlop = 3
	outBuffer = 32
)

var errSessionClosed = errors.New("web: session closed")

// Event is one browser input event posted to /s/{id}/events.
type Event struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Shift  bool    `json:"shift"`
	Key    string  `json:"key"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var eventTypes = map[string]bool{
	"resize": true, "pointerdown": true, "pointermove": true, "pointerup": true,
	"pointerleave": true, "wheel": true, "keydown": true, "keyup": true,
}

type patch struct {
	selector string
	mode     datastar.ElementPatchMode
	html     string
}

// session is one browser page. Fields from chart down are owned by run's goroutine.
type session struct {
	id     string
	logger *log.Logger
	now    func() time.Time
	calls  chan func()
	out    chan patch
	done   chan struct{}

	current  func() *chart.Chart
	reloaded <-chan struct{}

	chart   *chart.Chart
	filter  *model.RowFilter
	ctrl    *viewport.Controller
	disp    *interact.Dispatcher
	height  float64
	frame   render.Frame
	ready   bool
	dirty   bool
	scene   render.Scene
	tooltip string
	streams int
	active  time.Time

	pressed bool
	moved   bool
	pressX  float64
}

type sessionOptions struct {
	ID       string
	Chart    func() *chart.Chart
	Reloaded <-chan struct{}
	Months   int
	Start    time.Time
	Logger   *log.Logger
	Now      func() time.Time
}

func newSession(opts sessionOptions) *session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &session{
		id:       opts.ID,
		logger:   opts.Logger.With("session", opts.ID),
		now:      now,
		calls:    make(chan func()),
		out:      make(chan patch, outBuffer),
		done:     make(chan struct{}),
		current:  opts.Chart,
		reloaded: opts.Reloaded,
		chart:    opts.Chart(),
	}
	s.active = now()

	style := s.chart.Style()
	s.ctrl = viewport.New(s.chart.ResolveWindow(now(), opts.Start, opts.Months), loopScheduler{s: s}, viewport.Options{
		Location:      s.chart.Location(),
		EnableDrag:    style.EnableDrag,
		EnableWheel:   style.EnableWheel,
		KeyboardAccel: style.KeyboardAccel,
		OnChange:      func(model.Window) { s.dirty = true },
	})

	s.disp = interact.New(interact.HostFuncs{
		Apply: func(f model.RowFilter) {
			s.logger.Info("row filter applied", "team", f.Team, "project", f.Project)
			s.filter = &f
			s.dirty = true
		},
		Clear: func() {
			if s.filter == nil {
				return
			}
			s.logger.Info("row filter cleared")
			s.filter = nil
			s.dirty = true
		},
	})
	s.disp.Now = now
	return s
}

// run is the session's event loop. It returns when ctx ends or the session idles out.
func (s *session) run(ctx context.Context) {
	defer close(s.done)
	defer s.ctrl.Detach()

	minute := time.NewTicker(time.Minute)
	defer minute.Stop()
	idle := time.NewTicker(idleCheck)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-s.calls:
			fn()
		case <-s.reloaded:
			s.chart = s.current()
			s.filter = nil
			s.disp.Leave()
			s.dirty = true
			s.sendTooltip()
		case t := <-minute.C:
			s.minute(t)
		case <-idle.C:
			if s.streams == 0 && s.now().Sub(s.active) > idleTimeout {
				s.logger.Debug("session idle, closing")
				return
			}
		}
		s.flush()
	}
}

// post queues fn on the loop.
func (s *session) post(ctx context.Context, fn func()) error {
	select {
	case s.calls <- fn:
		return nil
	case <-s.done:
		return errSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// do runs fn on the loop and waits for it to finish.
func (s *session) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := s.post(ctx, func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return errSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func arrowKey(key string) viewport.Key {
	switch key {
	case "ArrowLeft":
		return viewport.KeyLeft
	case "ArrowRight":
		return viewport.KeyRight
	case "PageUp":
		return viewport.KeyPageUp
	case "PageDown":
		return viewport.KeyPageDown
	}
	return viewport.KeyNone
}

func (s *session) apply(ev Event) {
	now := s.now()
	s.active = now
	switch ev.Type {
	case "resize":
		s.resize(ev.Width, ev.Height)
	case "pointerdown":
		s.pressed, s.moved, s.pressX = true, false, ev.X
		s.ctrl.PointerDown(ev.X)
	case "pointermove":
		if s.pressed {
			if math.Abs(ev.X-s.pressX) > clickSlop {
				s.moved = true
			}
			s.ctrl.PointerMove(ev.X)
			s.disp.Leave()
		} else {
			s.disp.Hover(s.scene, ev.X, ev.Y)
		}
		s.sendTooltip()
	case "pointerup":
		if !s.pressed {
			return
		}
		s.pressed = false
		s.ctrl.PointerUp()
		if !s.moved {
			s.disp.Click(s.scene, ev.X, ev.Y)
			s.sendTooltip()
		}
	case "pointerleave":
		s.pressed = false
		s.ctrl.PointerLeave()
		s.disp.Leave()
		s.sendTooltip()
	case "wheel":
		s.ctrl.Wheel(ev.DX, ev.DY, ev.Shift)
	case "keydown":
		s.keyDown(ev.Key, now)
	case "keyup":
		if k := arrowKey(ev.Key); k != viewport.KeyNone {
			s.ctrl.KeyUp(k, now)
		}
	}
}

func (s *session) keyDown(key string, now time.Time) {
	if k := arrowKey(key); k != viewport.KeyNone {
		s.ctrl.KeyDown(k, now)
		return
	}
	switch key {
	case "t":
		s.ctrl.SnapToToday(now)
	case "1", "3", "6":
		s.ctrl.SetWindow(int(key[0] - '0'))
	case "y":
		s.ctrl.SetWindow(12)
	case "[":
		s.ctrl.JumpYear(-1)
	case "]":
		s.ctrl.JumpYear(1)
	case "Escape":
		s.disp.Leave()
		s.disp.Host.ClearRowFilter()
		s.sendTooltip()
	}
}

// resize sets the drawing surface. Nothing is drawn before the first one.
func (s *session) resize(width, height float64) {
	if width <= 0 {
		return
	}
	if !s.ready {
		s.logger.Debug("first resize, rendering enabled", "width", width, "height", height)
	}
	s.ready = true
	s.height = height
	s.frame = render.SVGFrame(width, height)
	s.dirty = true
}

func (s *session) view() *chart.Chart {
	if s.filter != nil {
		return s.chart.Filter(*s.filter)
	}
	return s.chart
}

// flush redraws after a commit and queues the chart patch.
func (s *session) flush() {
	if !s.ready || !s.dirty {
		return
	}
	s.dirty = false

	view := s.view()
	frame := s.frame
	frame.Height = max(s.height, view.NaturalHeight(frame))
	s.ctrl.Resize(frame.PlotWidth())

	scene, err := view.Draw(s.ctrl.Window(), frame, s.now())
	if errors.Is(err, chart.ErrNotReady) {
		s.logger.Debug("draw deferred", "width", frame.Width, "height", frame.Height)
		return
	}
	if err != nil {
		s.logger.Warn("draw failed", "err", err)
	}
	s.scene = scene
	s.sendChart()
}

func (s *session) sendChart() {
	var b strings.Builder
	if err := render.WriteSVG(&b, s.scene); err != nil {
		s.logger.Error("svg write failed", "err", err)
		return
	}
	s.send(patch{selector: "#chart", mode: datastar.ElementPatchModeInner, html: b.String()})
	s.send(patch{selector: "#status", mode: datastar.ElementPatchModeOuter, html: s.statusHTML()})
}

// minute refreshes the today line and clock without a redraw.
func (s *session) minute(now time.Time) {
	if !s.ready || len(s.scene.Elements) == 0 {
		return
	}
	next := s.scene.WithNow(now)
	_, had := s.scene.Find(render.IDToday)
	today, has := next.Find(render.IDToday)
	s.scene = next
	if had != has {
		s.sendChart()
		return
	}
	if has {
		s.send(patch{selector: "#" + render.IDToday, mode: datastar.ElementPatchModeOuter, html: render.ElementSVG(today)})
	}
	if clock, ok := next.Find(render.IDClock); ok {
		s.send(patch{selector: "#" + render.IDClock, mode: datastar.ElementPatchModeOuter, html: render.ElementSVG(clock)})
	}
}

func (s *session) sendTooltip() {
	h := tooltipHTML(s.disp)
	if h == s.tooltip {
		return
	}
	s.tooltip = h
	s.send(patch{selector: "#tooltip", mode: datastar.ElementPatchModeOuter, html: h})
}

// send queues p for the stream. Without a stream p is dropped; attach redraws everything.
// A full queue drops p and forces a redraw on the next flush.
func (s *session) send(p patch) {
	if s.streams == 0 {
		return
	}
	select {
	case s.out <- p:
	default:
		s.dirty = true
	}
}

// attach is called on the loop when a stream connects; the stream gets a full redraw.
func (s *session) attach() {
	s.streams++
	s.active = s.now()
	s.dirty = true
	s.tooltip = ""
	s.sendTooltip()
}

func (s *session) detach() {
	s.streams--
	s.active = s.now()
}

func tooltipHTML(d *interact.Dispatcher) string {
	tt, ok := d.Tooltip()
	if !ok {
		return `<div id="tooltip" class="tooltip" hidden></div>`
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<div id="tooltip" class="tooltip" style="left:%dpx;top:%dpx">`, int(tt.X)+12, int(tt.Y)+12)
	for i, ln := range tt.Lines() {
		if i == 0 {
			fmt.Fprintf(&b, "<strong>%s</strong>", html.EscapeString(ln))
			continue
		}
		fmt.Fprintf(&b, "<div>%s</div>", html.EscapeString(ln))
	}
	b.WriteString("</div>")
	return b.String()
}

func (s *session) statusHTML() string {
	win := s.ctrl.Window()
	loc := s.chart.Location()
	var b strings.Builder
	b.WriteString(`<div id="status" class="status">`)
	fmt.Fprintf(&b, `<span class="range">%s – %s</span>`,
		win.Start.In(loc).Format("2 Jan 2006"),
		win.End.Add(-time.Nanosecond).In(loc).Format("2 Jan 2006"))
	if f := s.filter; f != nil {
		fmt.Fprintf(&b, ` <span class="badge">%s · %s</span> <span class="muted">(esc to clear)</span>`,
			html.EscapeString(f.Team), html.EscapeString(f.Project))
	}
	fmt.Fprintf(&b, ` <span class="muted">%s</span>`, html.EscapeString(s.chart.Report().String()))
	b.WriteString(`</div>`)
	return b.String()
}
