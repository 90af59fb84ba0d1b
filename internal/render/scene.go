// Package render builds the chart's visual tree and writes it as SVG or terminal cells.
package render

import (
	"time"

	"cpgantt/internal/layout"
	"cpgantt/internal/model"
	"cpgantt/internal/scale"
)

// Kind is an element's primitive shape.
type Kind string

const (
	KindRect    Kind = "rect"
	KindLine    Kind = "line"
	KindText    Kind = "text"
	KindPolygon Kind = "polygon"
)

// Element classes.
const (
	ClassBackground = "background"
	ClassGridWeek   = "grid-week"
	ClassMonthSep   = "month-sep"
	ClassMonthLabel = "month-label"
	ClassWeekLabel  = "week-label"
	ClassClock      = "clock"
	ClassTeamLabel  = "team-label"
	ClassRowCard    = "row-card"
	ClassRowTitle   = "row-title"
	ClassBar        = "bar"
	ClassMarker     = "marker"
	ClassTick       = "tick"
	ClassToday      = "today"
	ClassDiagnostic = "diagnostic"
)

// IDs of the elements refreshed by the minute tick.
const (
	IDToday = "today"
	IDClock = "clock"
)

// Element is one drawable node.
type Element struct {
	Kind        Kind
	Class       string
	ID          string
	X, Y        float64
	X2, Y2      float64
	W, H        float64
	Points      []layout.Point
	Text        string
	Anchor      string
	FontSize    float64
	Bold        bool
	Glow        bool
	Fill        string
	Stroke      string
	StrokeWidth float64
	Dash        string
	Rx          float64
	Opacity     float64
	Clip        bool

	RowKey string
	Row    *model.Row
	Cap    layout.Cap
	Label  string
}

// Scene is a complete rendering of the chart for one window.
type Scene struct {
	Frame    Frame
	Window   model.Window
	Style    model.StyleOptions
	Location *time.Location
	Elements []Element
}

// X is the time scale the scene was drawn with.
func (s Scene) X() scale.Time {
	return scale.NewTime(s.Window.Start, s.Window.End, s.Frame.PlotLeft(), s.Frame.PlotRight())
}

// Find returns the element with id.
func (s Scene) Find(id string) (Element, bool) {
	for _, e := range s.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return Element{}, false
}

// HitTest returns the topmost row element under (x, y): a bar, marker or tick inside the
// plot, or a row card on the rail.
func (s Scene) HitTest(x, y float64) (Element, bool) {
	inPlot := x >= s.Frame.PlotLeft() && x <= s.Frame.PlotRight()
	for i := len(s.Elements) - 1; i >= 0; i-- {
		e := s.Elements[i]
		if e.RowKey == "" {
			continue
		}
		switch e.Class {
		case ClassBar, ClassMarker, ClassTick:
			if !inPlot {
				continue
			}
		case ClassRowCard:
		default:
			continue
		}
		x0, y0, x1, y1 := bounds(e)
		if x >= x0 && x <= x1 && y >= y0 && y <= y1 {
			return e, true
		}
	}
	return Element{}, false
}

func bounds(e Element) (x0, y0, x1, y1 float64) {
	if len(e.Points) == 0 {
		return e.X, e.Y, e.X + e.W, e.Y + e.H
	}
	x0, y0 = e.Points[0].X, e.Points[0].Y
	x1, y1 = x0, y0
	for _, p := range e.Points[1:] {
		x0, x1 = min(x0, p.X), max(x1, p.X)
		y0, y1 = min(y0, p.Y), max(y1, p.Y)
	}
	return x0, y0, x1, y1
}

// WithNow returns a copy with only the today marker and clock recomputed for now.
func (s Scene) WithNow(now time.Time) Scene {
	out := s
	out.Elements = make([]Element, 0, len(s.Elements)+1)
	for _, e := range s.Elements {
		switch e.ID {
		case IDToday:
			continue
		case IDClock:
			e = clockElement(s.Frame, now, s.Location)
		}
		out.Elements = append(out.Elements, e)
	}
	if e, ok := todayElement(s.Frame, s.Window, s.Style, now, s.Location); ok {
		out.Elements = append(out.Elements, e)
	}
	return out
}

// Diagnostic is a scene carrying only a short error message.
func Diagnostic(msg string, f Frame) Scene {
	y := f.Height / 2
	if f.Terminal {
		y = float64(int(y))
	}
	return Scene{
		Frame: f,
		Elements: []Element{
			{Kind: KindRect, Class: ClassBackground, W: f.Width, H: f.Height, Fill: colorBackground},
			{Kind: KindText, Class: ClassDiagnostic, X: f.Width / 2, Y: y, Text: msg,
				Anchor: "middle", FontSize: 13, Fill: colorError},
		},
	}
}
