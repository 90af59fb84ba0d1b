package model

import "time"

// Window is the navigable time range [Start, End].
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Width returns End - Start.
func (w Window) Width() time.Duration {
	return w.End.Sub(w.Start)
}

// Shift moves both edges by d.
func (w Window) Shift(d time.Duration) Window {
	return Window{Start: w.Start.Add(d), End: w.End.Add(d)}
}

// Contains reports whether t lies inside the closed window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Valid reports End > Start.
func (w Window) Valid() bool {
	return w.End.After(w.Start)
}
