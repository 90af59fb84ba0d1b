package viewport

import (
	"time"

	"cpgantt/internal/model"
)

// Mode names the controller's current state.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeAnimating
	ModeHolding
)

func (m Mode) String() string {
	switch m {
	case ModeDragging:
		return "dragging"
	case ModeAnimating:
		return "animating"
	case ModeHolding:
		return "holding"
	default:
		return "idle"
	}
}

// State is one of Idle, Dragging, Animating or Holding.
type State interface {
	Mode() Mode
}

type Idle struct{}

// Dragging records where the pointer went down and the window at that moment.
type Dragging struct {
	AnchorX float64
	Origin  model.Window
}

// Animating is an eased pan of Delta away from From.
type Animating struct {
	From      model.Window
	Delta     time.Duration
	StartedAt time.Time
	Duration  time.Duration
}

// Holding is a continuous pan while an arrow key stays down. Velocity is in weeks per
// second, signed by direction.
type Holding struct {
	Key       Key
	Velocity  float64
	LastFrame time.Time
}

func (Idle) Mode() Mode      { return ModeIdle }
func (Dragging) Mode() Mode  { return ModeDragging }
func (Animating) Mode() Mode { return ModeAnimating }
func (Holding) Mode() Mode   { return ModeHolding }

// target is where the animation lands.
func (a Animating) target() time.Time {
	return a.From.Start.Add(a.Delta)
}

// Key is a navigation key.
type Key int

const (
	KeyNone Key = iota
	KeyLeft
	KeyRight
	KeyPageUp
	KeyPageDown
)

func (k Key) String() string {
	switch k {
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyPageUp:
		return "pgup"
	case KeyPageDown:
		return "pgdown"
	}
	return "none"
}

func (k Key) direction() float64 {
	switch k {
	case KeyLeft, KeyPageUp:
		return -1
	case KeyRight, KeyPageDown:
		return 1
	}
	return 0
}
