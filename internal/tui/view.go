package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

func (m appModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if m.showHelp {
		return normalizePane(renderMarkdown(helpMarkdown(), m.width-2), m.width, m.height)
	}

	body := m.chartView()
	footer := m.footerView()
	return strings.Join(append(body, footer...), "\n")
}

// chartView shows the two sticky header lines and a scrolled slice of the lanes.
func (m appModel) chartView() []string {
	height := m.chartLines()
	c := m.canvas
	if c.lines == nil {
		lines := make([]string, height)
		if height > 0 {
			lines[height/2] = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, styleMuted().Render("terminal too small"))
		}
		return normalizeLines(lines, m.width, height)
	}

	head := min(headerLines, len(c.lines), height)
	out := append([]string{}, c.lines[:head]...)
	start := head + m.scroll
	for i := start; i < len(c.lines) && len(out) < height; i++ {
		out = append(out, c.lines[i])
	}
	return normalizeLines(out, m.width, height)
}

func (m appModel) footerView() []string {
	lines := make([]string, 0, footerLines)
	if m.goTo {
		lines = append(lines, "", m.input.View(), styleMuted().Render("enter to jump · esc to cancel"))
	} else {
		lines = append(lines, m.infoLines()...)
	}
	lines = normalizeLines(lines, m.width, footerLines-1)
	return append(lines, m.statusLine())
}

// infoLines is the tooltip when one is open, otherwise the filter and load summary.
func (m appModel) infoLines() []string {
	if tt, ok := m.disp.Tooltip(); ok {
		st := styleTooltip()
		out := make([]string, 0, 3)
		for _, ln := range tt.Lines() {
			out = append(out, st.Render(" "+ln+" "))
		}
		return out
	}

	var out []string
	if f := m.canvas.filter; f != nil {
		out = append(out, styleBadge().Render("filter")+" "+f.Team+" · "+f.Project+styleMuted().Render("  (esc to clear)"))
	}
	rep := m.chart.Report()
	summary := rep.String()
	if rep.Dropped() > 0 {
		summary = styleWarn().Render(summary)
	} else {
		summary = styleMuted().Render(summary)
	}
	out = append(out, summary)
	if m.flash != "" {
		out = append(out, m.flash)
	}
	return out
}

func (m appModel) statusLine() string {
	win := m.ctrl.Window()
	loc := m.chart.Location()
	left := fmt.Sprintf(" %s – %s ",
		win.Start.In(loc).Format("2 Jan 2006"),
		win.End.Add(-time.Nanosecond).In(loc).Format("2 Jan 2006"))
	if year, ok := m.ctrl.PinnedYear(); ok {
		left += fmt.Sprintf("[%d] ", year)
	}
	if mode := m.ctrl.Mode().String(); mode != "idle" {
		left += mode + " "
	}

	right := m.help.ShortHelpView(m.keys.ShortHelp())
	gap := m.width - xansi.StringWidth(left) - xansi.StringWidth(right) - 1
	if gap < 1 {
		right = ""
		gap = max(0, m.width-xansi.StringWidth(left))
	}
	line := left + strings.Repeat(" ", gap) + right
	return styleStatus().Render(normalizeLines([]string{line}, m.width, 1)[0])
}
