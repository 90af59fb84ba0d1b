package render

import (
	"time"

	"github.com/charmbracelet/x/ansi"

	"cpgantt/internal/layout"
	"cpgantt/internal/model"
	"cpgantt/internal/palette"
)

const (
	colorBackground = "#14171c"
	colorGrid       = "#262b33"
	colorMonthSep   = "#3a414c"
	colorText       = "#d7dce2"
	colorMuted      = "#7b8594"
	colorError      = "#ff6b6b"
	colorTickFill   = "#ffffff"
)

// Input is everything a scene is drawn from.
type Input struct {
	Stack    layout.Stack
	Window   model.Window
	Style    model.StyleOptions
	Frame    Frame
	Now      time.Time
	Location *time.Location
}

// Build draws the whole chart. It is a pure function of in: the same input always yields
// the same scene, and every call produces a complete tree.
func Build(in Input) Scene {
	loc := in.Location
	if loc == nil {
		loc = time.Local
	}
	f := in.Frame
	s := Scene{Frame: f, Window: in.Window, Style: in.Style, Location: loc}
	x := s.X()

	s.Elements = append(s.Elements, Element{
		Kind: KindRect, Class: ClassBackground, W: f.Width, H: f.Height, Fill: colorBackground,
	})

	monthY, weekY := f.headerY()
	top, bottom := f.PlotTop(), f.PlotBottom()
	win := windowIn(in.Window, loc)

	// week grid and labels
	lastLabel := -1e9
	for _, d := range Mondays(win) {
		px := x.Map(d)
		s.Elements = append(s.Elements, Element{
			Kind: KindLine, Class: ClassGridWeek, X: px, Y: top, X2: px, Y2: bottom,
			Stroke: colorGrid, StrokeWidth: 1, Clip: true,
		})
		if px-lastLabel < f.LabelGap || px+f.charWidth(in.Style.MonthLabelSize)*2 > f.PlotRight() {
			continue
		}
		lastLabel = px
		s.Elements = append(s.Elements, Element{
			Kind: KindText, Class: ClassWeekLabel, X: px + pad(f, 2), Y: weekY,
			Text: d.Format("02"), FontSize: in.Style.MonthLabelSize - 2, Fill: colorMuted,
		})
	}

	// month separators
	for _, m := range MonthStarts(win) {
		if !m.After(win.Start) {
			continue
		}
		px := x.Map(m)
		s.Elements = append(s.Elements, Element{
			Kind: KindLine, Class: ClassMonthSep, X: px, Y: top, X2: px, Y2: bottom,
			Stroke: colorMonthSep, StrokeWidth: 1, Dash: "4 4", Clip: true,
		})
	}

	// month labels, centred on the visible part of each month
	for _, m := range MonthStarts(win) {
		a, b := maxTime(m, win.Start), minTime(m.AddDate(0, 1, 0), win.End)
		if !b.After(a) {
			continue
		}
		x0, x1 := x.Map(a), x.Map(b)
		var label string
		for _, format := range []string{"Jan 2006", "Jan"} {
			if l := m.Format(format); fits(f, l, x1-x0, in.Style.MonthLabelSize) {
				label = l
				break
			}
		}
		if label == "" {
			continue
		}
		s.Elements = append(s.Elements, Element{
			Kind: KindText, Class: ClassMonthLabel, X: (x0 + x1) / 2, Y: monthY, Anchor: "middle",
			Text: label, FontSize: in.Style.MonthLabelSize, Fill: in.Style.MonthLabelColor,
			Glow: in.Style.MonthGlow, Bold: true,
		})
	}

	s.Elements = append(s.Elements, clockElement(f, in.Now, loc))

	rowH := in.Stack.Options.RowHeight
	teamW, titleX := 64.0, 72.0
	if f.Terminal {
		teamW, titleX = 7, 8
	}

	// rail
	for _, g := range in.Stack.Groups {
		s.Elements = append(s.Elements, Element{
			Kind: KindText, Class: ClassTeamLabel, X: pad(f, 8), Y: top + g.Top + textBaseline(f, rowH),
			Text: fitText(f, g.Team, teamW-pad(f, 8), 12), FontSize: 12, Bold: true, Fill: g.Color,
		})
		for _, lane := range g.Lanes {
			// The raster skips cards; in a terminal they only give the rail a click target.
			card := Element{
				Kind: KindRect, Class: ClassRowCard, X: 4, Y: top + lane.Y + 1,
				W: f.MarginLeft - 12, H: rowH - 2, Rx: 4, Fill: lane.Color, Opacity: 0.12,
				RowKey: lane.Row.Key, Row: &lane.Row,
			}
			if f.Terminal {
				card.X, card.Y, card.W, card.H, card.Rx = 0, top+lane.Y, f.MarginLeft-1, rowH, 0
			}
			s.Elements = append(s.Elements, card)
			s.Elements = append(s.Elements, Element{
				Kind: KindText, Class: ClassRowTitle, X: titleX, Y: top + lane.Y + textBaseline(f, rowH),
				Text: fitText(f, lane.Row.Project, f.MarginLeft-titleX-pad(f, 12), 11), FontSize: 11,
				Fill: colorText, RowKey: lane.Row.Key, Row: &lane.Row,
			})
		}
	}

	// bars, markers, ticks
	inset := 0.0
	if !f.Terminal {
		inset = rowH * 0.18
	}
	for i := range in.Stack.Lanes {
		lane := in.Stack.Lanes[i]
		row := lane.Row
		y := top + lane.Y + inset
		h := rowH - 2*inset
		cy := top + lane.Y + rowH/2
		if f.Terminal {
			cy = top + lane.Y
		}
		geo := layout.Geometry(row, x)
		for j, seg := range geo.Segments {
			fill := lane.Color
			if j > 0 {
				fill = palette.Tint(lane.Color, 0.22*float64(j))
			}
			s.Elements = append(s.Elements, Element{
				Kind: KindPolygon, Class: ClassBar, X: seg.X0, X2: seg.X1, Y: y, H: h,
				Points: layout.Outline(seg, y, h, j > 0), Fill: fill, Clip: true,
				RowKey: row.Key, Row: &in.Stack.Lanes[i].Row, Cap: seg.Cap, Label: seg.Label,
			})
		}
		if m := geo.Marker; m != nil {
			s.Elements = append(s.Elements, Element{
				Kind: KindPolygon, Class: ClassMarker, X: m.X, Y: cy,
				Points: layout.Diamond(m.X, cy, h/2), Fill: lane.Color, Clip: true,
				RowKey: row.Key, Row: &in.Stack.Lanes[i].Row, Label: model.CP3,
			})
		}
		if in.Style.ShowMilestoneTicks {
			for _, t := range geo.Ticks {
				s.Elements = append(s.Elements, Element{
					Kind: KindPolygon, Class: ClassTick, X: t.X, Y: cy,
					Points: layout.Diamond(t.X, cy, h/3), Fill: colorTickFill, Stroke: lane.Color,
					StrokeWidth: 1.5, Clip: true,
					RowKey: row.Key, Row: &in.Stack.Lanes[i].Row, Label: t.ID,
				})
			}
		}
	}

	if e, ok := todayElement(f, win, in.Style, in.Now, loc); ok {
		s.Elements = append(s.Elements, e)
	}
	return s
}

func clockElement(f Frame, now time.Time, loc *time.Location) Element {
	monthY, _ := f.headerY()
	if loc == nil {
		loc = time.Local
	}
	return Element{
		Kind: KindText, Class: ClassClock, ID: IDClock, X: f.PlotRight(), Y: monthY, Anchor: "end",
		Text: now.In(loc).Format("Mon 2 Jan 15:04"), FontSize: 11, Fill: colorMuted,
	}
}

func todayElement(f Frame, win model.Window, style model.StyleOptions, now time.Time, loc *time.Location) (Element, bool) {
	if !style.ShowToday || now.IsZero() {
		return Element{}, false
	}
	t := TodayIn(now, win, loc)
	if !win.Contains(t) {
		return Element{}, false
	}
	x := Scene{Frame: f, Window: win}.X().Map(t)
	return Element{
		Kind: KindLine, Class: ClassToday, ID: IDToday, X: x, Y: f.PlotTop(), X2: x, Y2: f.PlotBottom(),
		Stroke: style.TodayLineColor, StrokeWidth: style.TodayLineWidth,
	}, true
}

func pad(f Frame, px float64) float64 {
	if f.Terminal {
		return 0
	}
	return px
}

func textBaseline(f Frame, rowH float64) float64 {
	if f.Terminal {
		return 0
	}
	return rowH/2 + 4
}

func fits(f Frame, s string, width, size float64) bool {
	return float64(ansi.StringWidth(s))*f.charWidth(size) <= width
}

// fitText truncates s to the characters that fit in width, or returns "" when not even one
// character plus ellipsis fits.
func fitText(f Frame, s string, width, size float64) string {
	n := int(width / f.charWidth(size))
	if n <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= n {
		return s
	}
	if n < 2 {
		return ""
	}
	return ansi.Truncate(s, n, "…")
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
