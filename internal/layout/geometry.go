package layout

import (
	"math"
	"time"

	"cpgantt/internal/model"
	"cpgantt/internal/scale"
)

// Cap is the terminal shape of a segment.
type Cap int

const (
	CapRound Cap = iota
	CapArrow
)

func (c Cap) String() string {
	if c == CapArrow {
		return "arrow"
	}
	return "round"
}

// Segment is the interval between two consecutive milestones, in pixels.
type Segment struct {
	Label string
	From  time.Time
	To    time.Time
	X0    float64
	X1    float64
	Cap   Cap
}

// Marker is the compact shape drawn for a row that only has CP3.
type Marker struct {
	X    float64
	Date time.Time
}

// Tick marks a CP3.5 or CP4 date.
type Tick struct {
	ID   string
	X    float64
	Date time.Time
}

// RowGeometry is everything drawn for one row.
type RowGeometry struct {
	Segments []Segment
	Marker   *Marker
	Ticks    []Tick
}

// Geometry computes a row's segments, marker and ticks under x.
func Geometry(row model.Row, x scale.Time) RowGeometry {
	var g RowGeometry
	ms := row.Milestones()

	if len(ms) == 1 && row.CP5 == nil {
		if px := x.Map(ms[0].Date); finite(px) {
			g.Marker = &Marker{X: px, Date: ms[0].Date}
		}
	} else {
		for i := 0; i+1 < len(ms); i++ {
			a, b := ms[i], ms[i+1]
			x0, x1 := x.Map(a.Date), x.Map(b.Date)
			if !finite(x0) || !finite(x1) || x1 <= x0 {
				continue
			}
			g.Segments = append(g.Segments, Segment{
				Label: a.ID, From: a.Date, To: b.Date, X0: x0, X1: x1, Cap: CapArrow,
			})
		}
		if n := len(g.Segments); n > 0 && row.CP5 == nil {
			g.Segments[n-1].Cap = CapRound
		}
	}

	for _, m := range ms {
		if m.ID != model.CP35 && m.ID != model.CP4 {
			continue
		}
		if px := x.Map(m.Date); finite(px) {
			g.Ticks = append(g.Ticks, Tick{ID: m.ID, X: px, Date: m.Date})
		}
	}
	return g
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
