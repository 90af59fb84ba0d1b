package viewport

import (
	"time"

	"cpgantt/internal/model"
)

// YearBounds returns Jan 1 00:00 and Dec 31 23:59:59.999 of year in loc.
func YearBounds(year int, loc *time.Location) (time.Time, time.Time) {
	lo := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	hi := time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc).Add(-time.Millisecond)
	return lo, hi
}

// Clamp shifts w so it lies inside year, keeping its width. A window wider than the year
// is narrowed to the full year; a non-positive width becomes one day.
func Clamp(w model.Window, year int, loc *time.Location) model.Window {
	if loc == nil {
		loc = time.Local
	}
	lo, hi := YearBounds(year, loc)
	width := w.Width()
	if width <= 0 {
		width = 24 * time.Hour
	}
	if span := hi.Sub(lo); width > span {
		width = span
	}
	start := w.Start
	if latest := hi.Add(-width); start.After(latest) {
		start = latest
	}
	if start.Before(lo) {
		start = lo
	}
	start = start.In(loc)
	return model.Window{Start: start, End: start.Add(width)}
}
