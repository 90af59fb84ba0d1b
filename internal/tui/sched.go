package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cpgantt/internal/viewport"
)

// frameInterval is the terminal stand-in for an animation frame.
const frameInterval = 16 * time.Millisecond

// schedMsg fires a scheduled controller callback. Callbacks cancelled before their
// message arrives are simply not found.
type schedMsg struct {
	id int
	at time.Time
}

// teaScheduler turns controller callbacks into tea.Tick commands. Callbacks registered
// while handling a message are collected and returned by drain.
type teaScheduler struct {
	nextID  int
	live    map[int]func(time.Time)
	pending []tea.Cmd
}

func newTeaScheduler() *teaScheduler {
	return &teaScheduler{live: map[int]func(time.Time){}}
}

func (s *teaScheduler) RequestFrame(fn func(now time.Time)) viewport.Cancel {
	return s.After(frameInterval, fn)
}

func (s *teaScheduler) After(d time.Duration, fn func(now time.Time)) viewport.Cancel {
	s.nextID++
	id := s.nextID
	s.live[id] = fn
	s.pending = append(s.pending, tea.Tick(d, func(t time.Time) tea.Msg { return schedMsg{id: id, at: t} }))
	return func() { delete(s.live, id) }
}

// fire runs the callback for msg if it is still live.
func (s *teaScheduler) fire(msg schedMsg) {
	fn, ok := s.live[msg.id]
	if !ok {
		return
	}
	delete(s.live, msg.id)
	fn(msg.at)
}

// drain returns the ticks scheduled since the last drain.
func (s *teaScheduler) drain() tea.Cmd {
	if len(s.pending) == 0 {
		return nil
	}
	cmds := s.pending
	s.pending = nil
	return tea.Batch(cmds...)
}

// stopAll drops every live callback.
func (s *teaScheduler) stopAll() {
	s.live = map[int]func(time.Time){}
	s.pending = nil
}
