// Package scale maps time to horizontal pixels and row keys to vertical bands.
package scale

import (
	"math"
	"time"
)

// Time is a linear map from the domain [D0, D1] to the range [R0, R1].
type Time struct {
	D0, D1 time.Time
	R0, R1 float64
}

// NewTime builds a time scale.
func NewTime(d0, d1 time.Time, r0, r1 float64) Time {
	return Time{D0: d0, D1: d1, R0: r0, R1: r1}
}

// Map returns the pixel position of t. A zero-width domain maps everything to R0.
func (s Time) Map(t time.Time) float64 {
	span := s.D1.Sub(s.D0)
	if span == 0 {
		return s.R0
	}
	f := float64(t.Sub(s.D0)) / float64(span)
	return s.R0 + f*(s.R1-s.R0)
}

// Invert returns the time at pixel x.
func (s Time) Invert(x float64) time.Time {
	if s.R1 == s.R0 {
		return s.D0
	}
	f := (x - s.R0) / (s.R1 - s.R0)
	return s.D0.Add(time.Duration(f * float64(s.D1.Sub(s.D0))))
}

// MsPerPixel is the domain width in milliseconds per range pixel.
func (s Time) MsPerPixel() float64 {
	px := math.Abs(s.R1 - s.R0)
	if px == 0 {
		return 0
	}
	return float64(s.D1.Sub(s.D0).Milliseconds()) / px
}

// Nice extends the domain outward to the boundaries of the calendar interval that splits it
// into about count ticks.
func (s Time) Nice(count int, loc *time.Location) Time {
	d0, d1 := s.D0, s.D1
	reversed := d1.Before(d0)
	if reversed {
		d0, d1 = d1, d0
	}
	iv := TickInterval(d0, d1, count, loc)
	d0, d1 = iv.Floor(d0), iv.Ceil(d1)
	if reversed {
		d0, d1 = d1, d0
	}
	return Time{D0: d0, D1: d1, R0: s.R0, R1: s.R1}
}

// Ticks returns about count calendar-aligned times inside the domain.
func (s Time) Ticks(count int, loc *time.Location) []time.Time {
	d0, d1 := s.D0, s.D1
	if d1.Before(d0) {
		d0, d1 = d1, d0
	}
	return TickInterval(d0, d1, count, loc).Range(d0, d1)
}

// Band maps an ordered list of keys to evenly spaced bands.
type Band struct {
	Domain       []string
	R0, R1       float64
	PaddingInner float64
	PaddingOuter float64
	Align        float64

	index map[string]int
}

// NewBand builds a band scale with the default paddings (inner 0.2, outer 0.1, centred).
func NewBand(domain []string, r0, r1 float64) Band {
	b := Band{Domain: domain, R0: r0, R1: r1, PaddingInner: 0.2, PaddingOuter: 0.1, Align: 0.5}
	b.index = make(map[string]int, len(domain))
	for i, k := range domain {
		if _, dup := b.index[k]; !dup {
			b.index[k] = i
		}
	}
	return b
}

func (b Band) lo() (start, stop float64) {
	if b.R1 < b.R0 {
		return b.R1, b.R0
	}
	return b.R0, b.R1
}

// Step is the distance between the starts of adjacent bands.
func (b Band) Step() float64 {
	start, stop := b.lo()
	n := float64(len(b.Domain))
	return (stop - start) / math.Max(1, n-b.PaddingInner+2*b.PaddingOuter)
}

// Bandwidth is the width of each band.
func (b Band) Bandwidth() float64 {
	return b.Step() * (1 - b.PaddingInner)
}

// Position returns the start of key's band.
func (b Band) Position(key string) (float64, bool) {
	i, ok := b.lookup(key)
	if !ok {
		return 0, false
	}
	start, stop := b.lo()
	step := b.Step()
	n := float64(len(b.Domain))
	start += (stop - start - step*(n-b.PaddingInner)) * b.Align
	if b.R1 < b.R0 {
		return start + step*(n-1-float64(i)), true
	}
	return start + step*float64(i), true
}

// Extent is the covered range length.
func (b Band) Extent() float64 {
	start, stop := b.lo()
	return stop - start
}

func (b Band) lookup(key string) (int, bool) {
	if b.index != nil {
		i, ok := b.index[key]
		return i, ok
	}
	for i, k := range b.Domain {
		if k == key {
			return i, true
		}
	}
	return 0, false
}
