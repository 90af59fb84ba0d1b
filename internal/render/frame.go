package render

import (
	"cpgantt/internal/layout"
	"cpgantt/internal/model"
)

// Frame is the drawing surface: its size, the margins around the plot area, and the unit
// grid for terminal output.
type Frame struct {
	Width        float64
	Height       float64
	MarginLeft   float64
	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
	// RowHeight overrides the style row height when positive.
	RowHeight float64
	// LabelGap is the minimum horizontal distance between header week labels.
	LabelGap float64
	Terminal bool
}

// SVGFrame is a pixel frame with room for the team rail and the two header lines.
func SVGFrame(width, height float64) Frame {
	return Frame{
		Width: width, Height: height,
		MarginLeft: 180, MarginTop: 40, MarginRight: 24, MarginBottom: 24,
		LabelGap: 28,
	}
}

// TermFrame is a character-cell frame: a 24-column rail, two header lines, one line per row.
func TermFrame(cols, lines int) Frame {
	return Frame{
		Width: float64(cols), Height: float64(lines),
		MarginLeft: 24, MarginTop: 2, MarginRight: 1, MarginBottom: 0,
		RowHeight: 1, LabelGap: 4, Terminal: true,
	}
}

// Ready reports whether the frame has a drawable size.
func (f Frame) Ready() bool {
	return f.Width > 0 && f.Height > 0 && f.Width > f.MarginLeft+f.MarginRight
}

func (f Frame) PlotLeft() float64   { return f.MarginLeft }
func (f Frame) PlotRight() float64  { return f.Width - f.MarginRight }
func (f Frame) PlotTop() float64    { return f.MarginTop }
func (f Frame) PlotBottom() float64 { return f.Height - f.MarginBottom }

// PlotWidth is the pixel width the time window maps onto.
func (f Frame) PlotWidth() float64 { return f.PlotRight() - f.PlotLeft() }

// Layout returns the row spacing to use on this frame.
func (f Frame) Layout(style model.StyleOptions) layout.Options {
	if f.Terminal {
		return layout.Options{RowHeight: 1, RowGap: 0, GroupGap: 1}
	}
	rh := style.RowHeight
	if f.RowHeight > 0 {
		rh = f.RowHeight
	}
	return layout.DefaultOptions(rh)
}

// FitHeight returns a copy whose height fits a stack of the given height.
func (f Frame) FitHeight(stackHeight float64) Frame {
	f.Height = f.MarginTop + stackHeight + f.MarginBottom
	return f
}

func (f Frame) headerY() (month, week float64) {
	if f.Terminal {
		return 0, 1
	}
	return 16, 34
}

// charWidth is the estimated advance of one character of text at size.
func (f Frame) charWidth(size float64) float64 {
	if f.Terminal {
		return 1
	}
	return size * 0.6
}
