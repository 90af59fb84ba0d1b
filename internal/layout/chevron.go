package layout

import "math"

// Point is a pixel coordinate.
type Point struct {
	X, Y float64
}

// arcSteps is the number of straight pieces approximating a rounded cap.
const arcSteps = 8

// Outline returns the polygon of seg drawn in the band [y, y+h]. Segments after the first
// in a row get a notch so consecutive chevrons nest.
func Outline(seg Segment, y, h float64, notched bool) []Point {
	w := seg.X1 - seg.X0
	if w <= 0 || h <= 0 {
		return nil
	}
	tip := math.Min(h/2, w/2)
	mid := y + h/2

	pts := []Point{{seg.X0, y}}
	switch seg.Cap {
	case CapArrow:
		pts = append(pts,
			Point{seg.X1 - tip, y},
			Point{seg.X1, mid},
			Point{seg.X1 - tip, y + h},
		)
	default:
		cx := seg.X1 - tip
		for i := 0; i <= arcSteps; i++ {
			a := -math.Pi/2 + math.Pi*float64(i)/arcSteps
			pts = append(pts, Point{cx + tip*math.Cos(a), mid + h/2*math.Sin(a)})
		}
	}
	pts = append(pts, Point{seg.X0, y + h})
	if notched {
		pts = append(pts, Point{seg.X0 + tip, mid})
	}
	return pts
}

// Diamond returns the polygon of a milestone tick or marker centred on (x, cy).
func Diamond(x, cy, r float64) []Point {
	return []Point{{x, cy - r}, {x + r, cy}, {x, cy + r}, {x - r, cy}}
}
