package render

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteSVG writes the scene as a standalone SVG document. Output is deterministic.
func WriteSVG(w io.Writer, s Scene) error {
	bw := bufio.NewWriter(w)
	f := s.Frame
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" font-family="system-ui, sans-serif">`,
		num(f.Width), num(f.Height), num(f.Width), num(f.Height))
	bw.WriteString("\n<defs>")
	fmt.Fprintf(bw, `<clipPath id="plot"><rect x="%s" y="%s" width="%s" height="%s"/></clipPath>`,
		num(f.PlotLeft()), num(f.PlotTop()), num(max(0, f.PlotWidth())), num(max(0, f.PlotBottom()-f.PlotTop())))
	bw.WriteString(`<filter id="glow" x="-20%" y="-50%" width="140%" height="200%"><feGaussianBlur stdDeviation="2" result="b"/><feMerge><feMergeNode in="b"/><feMergeNode in="SourceGraphic"/></feMerge></filter>`)
	bw.WriteString("</defs>\n")
	for _, e := range s.Elements {
		writeElement(bw, e)
		bw.WriteByte('\n')
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

// ElementSVG renders a single element, as used for targeted patches.
func ElementSVG(e Element) string {
	var b strings.Builder
	bw := bufio.NewWriter(&b)
	writeElement(bw, e)
	bw.Flush()
	return b.String()
}

func writeElement(w *bufio.Writer, e Element) {
	var attrs strings.Builder
	attr := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&attrs, ` %s="%s"`, k, escapeXML(v))
		}
	}
	attr("id", e.ID)
	attr("class", e.Class)
	if e.RowKey != "" {
		attr("data-row", e.RowKey)
	}
	if e.Clip {
		attr("clip-path", "url(#plot)")
	}

	paint := func() {
		if e.Fill != "" {
			attr("fill", e.Fill)
		} else if e.Kind != KindText {
			attr("fill", "none")
		}
		attr("stroke", e.Stroke)
		if e.StrokeWidth > 0 {
			attr("stroke-width", num(e.StrokeWidth))
		}
		attr("stroke-dasharray", e.Dash)
		if e.Opacity > 0 && e.Opacity < 1 {
			attr("opacity", num(e.Opacity))
		}
	}

	switch e.Kind {
	case KindRect:
		attr("x", num(e.X))
		attr("y", num(e.Y))
		attr("width", num(e.W))
		attr("height", num(e.H))
		if e.Rx > 0 {
			attr("rx", num(e.Rx))
		}
		paint()
		fmt.Fprintf(w, "<rect%s/>", attrs.String())
	case KindLine:
		attr("x1", num(e.X))
		attr("y1", num(e.Y))
		attr("x2", num(e.X2))
		attr("y2", num(e.Y2))
		paint()
		fmt.Fprintf(w, "<line%s/>", attrs.String())
	case KindPolygon:
		pts := make([]string, len(e.Points))
		for i, p := range e.Points {
			pts[i] = num(p.X) + "," + num(p.Y)
		}
		attr("points", strings.Join(pts, " "))
		paint()
		fmt.Fprintf(w, "<polygon%s/>", attrs.String())
	case KindText:
		attr("x", num(e.X))
		attr("y", num(e.Y))
		if e.Anchor != "" && e.Anchor != "start" {
			attr("text-anchor", e.Anchor)
		}
		if e.FontSize > 0 {
			attr("font-size", num(e.FontSize))
		}
		if e.Bold {
			attr("font-weight", "600")
		}
		if e.Glow {
			attr("filter", "url(#glow)")
		}
		paint()
		fmt.Fprintf(w, "<text%s>%s</text>", attrs.String(), escapeXML(e.Text))
	}
}

// num formats v with at most two decimals and no trailing zeros.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&#39;")
	return s
}
