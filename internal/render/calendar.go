package render

import (
	"time"

	"cpgantt/internal/model"
)

// windowIn returns w expressed in loc.
func windowIn(w model.Window, loc *time.Location) model.Window {
	return model.Window{Start: w.Start.In(loc), End: w.End.In(loc)}
}

// Mondays lists the week starts inside w.
func Mondays(w model.Window) []time.Time {
	loc := w.Start.Location()
	y, m, d := w.Start.Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if t.Before(w.Start) {
		t = t.AddDate(0, 0, 1)
	}
	for t.Weekday() != time.Monday {
		t = t.AddDate(0, 0, 1)
	}
	var out []time.Time
	for ; !t.After(w.End); t = t.AddDate(0, 0, 7) {
		out = append(out, t)
	}
	return out
}

// MonthStarts lists the first day of every month overlapping w.
func MonthStarts(w model.Window) []time.Time {
	loc := w.Start.Location()
	y, m, _ := w.Start.Date()
	var out []time.Time
	for t := time.Date(y, m, 1, 0, 0, 0, 0, loc); t.Before(w.End); t = t.AddDate(0, 1, 0) {
		out = append(out, t)
	}
	return out
}

// TodayIn re-anchors now into the window's year when now falls outside the window, keeping
// month, day and clock time. 29 February becomes 28 February in common years.
func TodayIn(now time.Time, w model.Window, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	if w.Contains(now) {
		return now
	}
	year := w.Start.In(loc).Year()
	_, m, d := now.Date()
	if m == time.February && d == 29 && !isLeap(year) {
		d = 28
	}
	h, mi, s := now.Clock()
	return time.Date(year, m, d, h, mi, s, now.Nanosecond(), loc)
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
