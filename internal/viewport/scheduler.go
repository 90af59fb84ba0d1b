package viewport

import "time"

// Cancel revokes a scheduled callback. Calling it more than once is harmless.
type Cancel func()

// Scheduler delivers timed callbacks on the controller's own event loop. Implementations
// must never run a callback concurrently with another controller call.
type Scheduler interface {
	// RequestFrame runs fn at the next animation frame.
	RequestFrame(fn func(now time.Time)) Cancel
	// After runs fn once d has elapsed.
	After(d time.Duration, fn func(now time.Time)) Cancel
}

func (c Cancel) call() {
	if c != nil {
		c()
	}
}
