package viewport

import (
	"sort"
	"time"
)

// fakeScheduler runs callbacks only when the test advances its clock.
type fakeScheduler struct {
	now    time.Time
	frame  time.Duration
	nextID int
	tasks  map[int]task
}

type task struct {
	at  time.Time
	seq int
	fn  func(time.Time)
}

func newFakeScheduler(now time.Time) *fakeScheduler {
	return &fakeScheduler{now: now, frame: 16 * time.Millisecond, tasks: map[int]task{}}
}

func (s *fakeScheduler) schedule(d time.Duration, fn func(time.Time)) Cancel {
	s.nextID++
	id := s.nextID
	s.tasks[id] = task{at: s.now.Add(d), seq: id, fn: fn}
	return func() { delete(s.tasks, id) }
}

func (s *fakeScheduler) RequestFrame(fn func(time.Time)) Cancel { return s.schedule(s.frame, fn) }

func (s *fakeScheduler) After(d time.Duration, fn func(time.Time)) Cancel { return s.schedule(d, fn) }

func (s *fakeScheduler) pending() int { return len(s.tasks) }

// advance moves the clock forward by d, running due callbacks in time order.
func (s *fakeScheduler) advance(d time.Duration) {
	end := s.now.Add(d)
	for {
		ids := make([]int, 0, len(s.tasks))
		for id, t := range s.tasks {
			if !t.at.After(end) {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			break
		}
		sort.Slice(ids, func(i, j int) bool {
			a, b := s.tasks[ids[i]], s.tasks[ids[j]]
			if a.at.Equal(b.at) {
				return a.seq < b.seq
			}
			return a.at.Before(b.at)
		})
		t := s.tasks[ids[0]]
		delete(s.tasks, ids[0])
		s.now = t.at
		t.fn(t.at)
	}
	s.now = end
}
