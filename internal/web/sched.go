package web

import (
	"context"
	"time"

	"cpgantt/internal/viewport"
)

const frameInterval = 16 * time.Millisecond

// loopScheduler runs controller callbacks on the session loop. Timers fire on their own
// goroutines but only post into the loop; the cancelled flag is read and written on the
// loop alone.
type loopScheduler struct {
	s *session
}

func (l loopScheduler) RequestFrame(fn func(now time.Time)) viewport.Cancel {
	return l.After(frameInterval, fn)
}

func (l loopScheduler) After(d time.Duration, fn func(now time.Time)) viewport.Cancel {
	cancelled := false
	t := time.AfterFunc(d, func() {
		_ = l.s.post(context.Background(), func() {
			if !cancelled {
				fn(l.s.now())
			}
		})
	})
	return func() {
		cancelled = true
		t.Stop()
	}
}
