// Package chart is the draw entry point: it shapes a payload into rows, keeps the layout
// inputs, and renders scenes for any window and frame without ever panicking out.
package chart

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"cpgantt/internal/layout"
	"cpgantt/internal/logging"
	"cpgantt/internal/model"
	"cpgantt/internal/palette"
	"cpgantt/internal/payload"
	"cpgantt/internal/render"
	"cpgantt/internal/scale"
	"cpgantt/internal/shape"
	"cpgantt/internal/viewport"
)

var (
	// ErrNotReady means the frame has no drawable size yet; draw again after a resize.
	ErrNotReady      = errors.New("chart: frame not ready")
	// ErrRenderPanic wraps a panic recovered while building a scene.
	ErrRenderPanic   = errors.New("chart: render failed")
	// ErrInvalidWindow means the window does not end after it starts.
	ErrInvalidWindow = errors.New("chart: invalid window")
)

var buildScene = render.Build

// Options configures a Chart.
type Options struct {
	Fields   shape.FieldMap
	Location *time.Location
	Logger   *log.Logger
}

// Chart holds the shaped rows of the latest payload and their colours.
type Chart struct {
	shaper shape.Shaper
	loc    *time.Location
	logger *log.Logger

	rows   []model.Row
	colors map[string]string
	style  model.StyleOptions
	report shape.Report
	filter *model.RowFilter
}

// New returns an empty chart.
func New(opts Options) *Chart {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	c := &Chart{loc: loc, logger: logger, style: model.DefaultStyleOptions()}
	c.shaper.Fields = opts.Fields
	c.shaper.Parser.Location = loc
	return c
}

// Load replaces the chart's rows with those shaped from p.
func (c *Chart) Load(p payload.Payload) shape.Report {
	rows, rep := c.shaper.Shape(p)
	c.rows = rows
	c.colors = palette.Assign(palette.Teams(rows), p.Theme.SeriesColor)
	c.style = p.Style.Options()
	c.report = rep
	c.filter = nil
	c.logger.Debug("payload shaped", "input", rep.Input, "kept", rep.Kept,
		"missingTeam", rep.MissingTeam, "missingCP3", rep.MissingCP3)
	return rep
}

func (c *Chart) Rows() []model.Row              { return c.rows }
func (c *Chart) Colors() map[string]string      { return c.colors }
func (c *Chart) Style() model.StyleOptions      { return c.style }
func (c *Chart) Report() shape.Report           { return c.report }
func (c *Chart) Location() *time.Location       { return c.loc }
func (c *Chart) ActiveFilter() *model.RowFilter { return c.filter }

// Filter returns a view restricted to rows matching f. Team colours are kept.
func (c *Chart) Filter(f model.RowFilter) *Chart {
	view := *c
	view.rows = nil
	for _, r := range c.rows {
		if f.Matches(r) {
			view.rows = append(view.rows, r)
		}
	}
	view.filter = &f
	return &view
}

// Extent is min CP3 to max CP5 (CP3 for rows without CP5).
func (c *Chart) Extent() (model.Window, bool) {
	if len(c.rows) == 0 {
		return model.Window{}, false
	}
	w := model.Window{Start: c.rows[0].CP3, End: c.rows[0].End()}
	for _, r := range c.rows[1:] {
		if r.CP3.Before(w.Start) {
			w.Start = r.CP3
		}
		if e := r.End(); e.After(w.End) {
			w.End = e
		}
	}
	return w, true
}

// InitialWindow is the niced data extent, or now ±7 days when the extent is empty or
// degenerate, clamped to the year of its start.
func (c *Chart) InitialWindow(now time.Time) model.Window {
	ext, ok := c.Extent()
	if !ok || !ext.Valid() {
		now = now.In(c.loc)
		w := model.Window{Start: now.AddDate(0, 0, -7), End: now.AddDate(0, 0, 7)}
		return viewport.Clamp(w, now.Year(), c.loc)
	}
	niced := scale.NewTime(ext.Start, ext.End, 0, 1).Nice(10, c.loc)
	w := model.Window{Start: niced.D0.In(c.loc), End: niced.D1.In(c.loc)}
	return viewport.Clamp(w, w.Start.Year(), c.loc)
}

// Stack lays out the rows for frame.
func (c *Chart) Stack(frame render.Frame) layout.Stack {
	return layout.NewStack(c.rows, c.colors, frame.Layout(c.style))
}

// Draw renders win into frame. It returns ErrNotReady for a frame without size. A panic
// while building is recovered into a diagnostic scene and an ErrRenderPanic error.
func (c *Chart) Draw(win model.Window, frame render.Frame, now time.Time) (scene render.Scene, err error) {
	if !frame.Ready() {
		return render.Scene{Frame: frame}, ErrNotReady
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("render panic recovered", "panic", r)
			scene = render.Diagnostic(fmt.Sprintf("chart unavailable: %v", r), frame)
			err = fmt.Errorf("%w: %v", ErrRenderPanic, r)
		}
	}()
	if !win.Valid() {
		return render.Diagnostic("chart unavailable: empty time window", frame), ErrInvalidWindow
	}
	return buildScene(render.Input{
		Stack:    c.Stack(frame),
		Window:   win,
		Style:    c.style,
		Frame:    frame,
		Now:      now,
		Location: c.loc,
	}), nil
}

// NaturalHeight is the frame height that fits every row.
func (c *Chart) NaturalHeight(frame render.Frame) float64 {
	return frame.FitHeight(c.Stack(frame).Height).Height
}

// ResolveWindow builds the window once from start (default: the initial window's start)
// and months (default: the initial window's width), then clamps it into the start's year.
func (c *Chart) ResolveWindow(now, start time.Time, months int) model.Window {
	init := c.InitialWindow(now)
	if start.IsZero() {
		if months <= 0 {
			return init
		}
		start = init.Start
	}
	start = start.In(c.loc)
	end := start.Add(init.Width())
	if months > 0 {
		end = start.AddDate(0, months, 0)
	}
	return viewport.Clamp(model.Window{Start: start, End: end}, start.Year(), c.loc)
}

// WriteSVG draws win as a standalone SVG document. A height of zero or less uses the
// natural height of the rows. A recovered render panic still writes the diagnostic scene.
func (c *Chart) WriteSVG(w io.Writer, win model.Window, width, height float64, now time.Time) error {
	frame := render.SVGFrame(width, height)
	frame.Height = max(height, c.NaturalHeight(frame))
	scene, err := c.Draw(win, frame, now)
	if errors.Is(err, ErrNotReady) {
		return err
	}
	if werr := render.WriteSVG(w, scene); werr != nil {
		return werr
	}
	return err
}
