package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"cpgantt/internal/layout"
)

type cell struct {
	r     rune
	fg    string
	bold  bool
	faint bool
}

// Raster draws a terminal-frame scene into lines of styled text, one string per line.
func Raster(s Scene, cols, lines int) []string {
	if cols <= 0 || lines <= 0 {
		return nil
	}
	grid := make([][]cell, lines)
	for i := range grid {
		grid[i] = make([]cell, cols)
		for j := range grid[i] {
			grid[i][j] = cell{r: ' '}
		}
	}
	plotL, plotR := int(math.Ceil(s.Frame.PlotLeft())), int(s.Frame.PlotRight())
	put := func(x, y int, c cell, clip bool) {
		if y < 0 || y >= lines || x < 0 || x >= cols {
			return
		}
		if clip && (x < plotL || x >= plotR) {
			return
		}
		grid[y][x] = c
	}

	for _, e := range s.Elements {
		switch e.Class {
		case ClassBackground, ClassRowCard:
		case ClassGridWeek, ClassMonthSep, ClassToday:
			x := int(math.Round(e.X))
			r, faint := '┊', true
			switch e.Class {
			case ClassMonthSep:
				r = '╎'
			case ClassToday:
				r, faint = '│', false
			}
			for y := int(e.Y); y < int(math.Ceil(e.Y2)); y++ {
				if e.Class != ClassToday && y < lines && x >= 0 && x < cols && grid[y][x].r != ' ' {
					continue
				}
				put(x, y, cell{r: r, fg: e.Stroke, faint: faint}, true)
			}
		case ClassBar:
			y := int(math.Round(e.Y))
			x0, x1 := int(math.Round(e.X)), int(math.Round(e.X2))
			if x1 <= x0 {
				x1 = x0 + 1
			}
			for x := x0; x < x1; x++ {
				r := '█'
				if x == x1-1 {
					r = '▌'
					if e.Cap == layout.CapArrow {
						r = '▶'
					}
				}
				put(x, y, cell{r: r, fg: e.Fill}, true)
			}
		case ClassMarker:
			put(int(math.Round(e.X)), int(math.Round(e.Y)), cell{r: '◆', fg: e.Fill, bold: true}, true)
		case ClassTick:
			put(int(math.Round(e.X)), int(math.Round(e.Y)), cell{r: '◇', fg: e.Stroke, bold: true}, true)
		default:
			if e.Kind != KindText || e.Text == "" {
				continue
			}
			text := []rune(e.Text)
			x := int(math.Round(e.X))
			switch e.Anchor {
			case "middle":
				x -= len(text) / 2
			case "end":
				x -= len(text)
			}
			for i, r := range text {
				put(x+i, int(math.Round(e.Y)), cell{r: r, fg: e.Fill, bold: e.Bold}, false)
			}
		}
	}

	out := make([]string, lines)
	for i, row := range grid {
		out[i] = renderCells(row)
	}
	return out
}

func renderCells(row []cell) string {
	var b strings.Builder
	for i := 0; i < len(row); {
		j := i
		for j < len(row) && sameStyle(row[i], row[j]) {
			j++
		}
		var run strings.Builder
		for _, c := range row[i:j] {
			run.WriteRune(c.r)
		}
		b.WriteString(cellStyle(row[i]).Render(run.String()))
		i = j
	}
	return b.String()
}

func sameStyle(a, b cell) bool {
	return a.fg == b.fg && a.bold == b.bold && a.faint == b.faint
}

func cellStyle(c cell) lipgloss.Style {
	st := lipgloss.NewStyle()
	if c.fg != "" {
		st = st.Foreground(lipgloss.Color(c.fg))
	}
	if c.bold {
		st = st.Bold(true)
	}
	if c.faint {
		st = st.Faint(true)
	}
	return st
}

// PlainLines strips styling from raster output.
func PlainLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = ansi.Strip(l)
	}
	return out
}
