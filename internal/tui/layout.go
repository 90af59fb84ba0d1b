package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s to be exactly width columns wide (ANSI-aware) and height lines
// tall.
func normalizePane(s string, width, height int) string {
	return strings.Join(normalizeLines(strings.Split(s, "\n"), width, height), "\n")
}

func normalizeLines(lines []string, width, height int) []string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	out := make([]string, 0, height)
	for i := 0; i < height; i++ {
		ln := ""
		if i < len(lines) {
			ln = lines[i]
		}
		w := xansi.StringWidth(ln)
		if w > width {
			switch {
			case width <= 0:
				ln = ""
			case width == 1:
				ln = xansi.Cut(ln, 0, 1)
			default:
				ln = xansi.Cut(ln, 0, width-1) + "…"
			}
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln += strings.Repeat(" ", width-w)
		}
		out = append(out, ln)
	}
	return out
}
