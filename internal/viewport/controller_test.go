package viewport

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpgantt/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type harness struct {
	c       *Controller
	sched   *fakeScheduler
	commits []model.Window
}

func newHarness(t *testing.T, w model.Window) *harness {
	t.Helper()
	h := &harness{sched: newFakeScheduler(day(2025, 6, 1))}
	h.c = New(w, h.sched, Options{
		PixelWidth:    1000,
		Location:      time.UTC,
		EnableDrag:    true,
		EnableWheel:   true,
		KeyboardAccel: true,
		OnChange:      func(w model.Window) { h.commits = append(h.commits, w) },
	})
	return h
}

func (h *harness) now() time.Time { return h.sched.now }

func TestClamp_PreservesWidthAndYear(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		year := 2000 + r.Intn(50)
		start := day(1995+r.Intn(60), time.Month(1+r.Intn(12)), 1+r.Intn(28)).Add(time.Duration(r.Int63n(int64(24 * time.Hour))))
		width := time.Duration(1 + r.Int63n(int64(300*24*time.Hour)))
		got := Clamp(model.Window{Start: start, End: start.Add(width)}, year, time.UTC)

		require.Equal(t, width, got.Width(), "case %d", i)
		require.Equal(t, year, got.Start.Year(), "case %d", i)
		require.Equal(t, year, got.End.Year(), "case %d", i)
	}
}

func TestClamp_InsideYearIsUntouched(t *testing.T) {
	w := model.Window{Start: day(2025, 3, 1), End: day(2025, 6, 1)}
	assert.Equal(t, w, Clamp(w, 2025, time.UTC))
}

func TestClamp_ShiftsAgainstYearEnd(t *testing.T) {
	w := model.Window{Start: day(2025, 12, 1), End: day(2026, 1, 31)}
	got := Clamp(w, 2025, time.UTC)
	_, hi := YearBounds(2025, time.UTC)
	assert.Equal(t, hi, got.End)
	assert.Equal(t, w.Width(), got.Width())
}

func TestClamp_WiderThanYearIsCapped(t *testing.T) {
	w := model.Window{Start: day(2025, 1, 1), End: day(2026, 6, 1)}
	got := Clamp(w, 2025, time.UTC)
	lo, hi := YearBounds(2025, time.UTC)
	assert.Equal(t, lo, got.Start)
	assert.Equal(t, hi, got.End)
}

func TestSetWindow_TwiceStaysInSameYear(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 11, 1), End: day(2025, 11, 15)})
	h.c.SetWindow(3)
	first := h.c.Window()
	assert.Equal(t, 2025, first.Start.Year())
	assert.Equal(t, 2025, first.End.Year())

	h.c.SetWindow(3)
	second := h.c.Window()
	assert.Equal(t, 2025, second.Start.Year())
	assert.Equal(t, 2025, second.End.Year())
	assert.Len(t, h.commits, 2)
}

func TestSetWindow_FullYear(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 4, 10), End: day(2025, 5, 10)})
	h.c.SetWindow(12)
	lo, hi := YearBounds(2025, time.UTC)
	assert.Equal(t, model.Window{Start: lo, End: hi}, h.c.Window())
}

func TestSnapToToday_CentresOnNow(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2024, 2, 1), End: day(2024, 3, 2)})
	h.c.SnapToToday(day(2025, 7, 16))
	w := h.c.Window()
	assert.Equal(t, day(2025, 7, 1), w.Start)
	assert.Equal(t, day(2025, 7, 31), w.End)
}

func TestSnapToToday_NearYearEndIsClamped(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 2, 1), End: day(2025, 3, 3)})
	h.c.SnapToToday(day(2025, 12, 30))
	w := h.c.Window()
	assert.Equal(t, 2025, w.End.Year())
	assert.Equal(t, 30*24*time.Hour, w.Width())
}

func TestPanBy_ClampsToStartYear(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 11, 1), End: day(2025, 12, 1)})
	h.c.PanBy(90 * 24 * time.Hour)
	w := h.c.Window()
	assert.Equal(t, 2025, w.End.Year())
	assert.Equal(t, 30*24*time.Hour, w.Width())
}

func TestDrag_UsesOriginalWindowAndPinsYear(t *testing.T) {
	start := model.Window{Start: day(2025, 3, 1), End: day(2025, 3, 11)} // 10 days over 1000px
	h := newHarness(t, start)

	h.c.PointerDown(500)
	assert.Equal(t, ModeDragging, h.c.Mode())
	year, pinned := h.c.PinnedYear()
	require.True(t, pinned)
	assert.Equal(t, 2025, year)

	h.c.PointerMove(400) // 100px left -> +1 day
	assert.Equal(t, day(2025, 3, 2), h.c.Window().Start)
	h.c.PointerMove(300) // relative to origin, not cumulative
	assert.Equal(t, day(2025, 3, 3), h.c.Window().Start)
	h.c.PointerMove(600)
	assert.Equal(t, day(2025, 2, 28), h.c.Window().Start)

	h.c.PointerUp()
	assert.Equal(t, ModeIdle, h.c.Mode())
	_, pinned = h.c.PinnedYear()
	assert.True(t, pinned, "pin survives the grace delay")
	h.sched.advance(UnpinGrace)
	_, pinned = h.c.PinnedYear()
	assert.False(t, pinned)
}

func TestDrag_DisabledIsIgnored(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 3, 1), End: day(2025, 3, 11)})
	h.c.opts.EnableDrag = false
	h.c.PointerDown(500)
	h.c.PointerMove(0)
	assert.Equal(t, ModeIdle, h.c.Mode())
	assert.Empty(t, h.commits)
}

func TestWheel(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 3, 1), End: day(2025, 3, 11)})

	assert.False(t, h.c.Wheel(0, 120, false), "vertical wheel is page scroll")
	assert.Empty(t, h.commits)

	assert.True(t, h.c.Wheel(100, 10, false))
	assert.Equal(t, day(2025, 3, 2), h.c.Window().Start)

	assert.True(t, h.c.Wheel(0, -100, true))
	assert.Equal(t, day(2025, 3, 1), h.c.Window().Start)

	h.c.opts.EnableWheel = false
	assert.False(t, h.c.Wheel(100, 0, false))
}

func TestGesturesPinTheWindowYear(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 3, 1), End: day(2025, 4, 1)})
	h.c.PointerDown(500)
	h.c.PointerMove(490)
	year, pinned := h.c.PinnedYear()
	require.True(t, pinned)
	assert.Equal(t, 2025, year)
	assert.Equal(t, 2025, h.c.Window().Start.Year())
	h.c.PointerUp()
	h.sched.advance(UnpinGrace)

	h.c.KeyDown(KeyRight, h.now())
	h.c.KeyUp(KeyRight, h.now())
	year, _ = h.c.PinnedYear()
	assert.Equal(t, 2025, year)
	h.sched.advance(time.Second)
	assert.Equal(t, 2025, h.c.Window().Start.Year())
	assert.Equal(t, 2025, h.c.Window().End.Year())
}

func TestWheelDuringEaseCancelsIt(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 3, 1), End: day(2025, 4, 1)})
	h.c.AnimatePanBy(Nudge, h.now())
	h.sched.advance(50 * time.Millisecond)
	before := h.c.Window().Start

	require.True(t, h.c.Wheel(200, 0, false))
	assert.Equal(t, ModeIdle, h.c.Mode())
	msPerPx := float64((31 * 24 * time.Hour).Milliseconds()) / 1000
	want := before.Add(time.Duration(200 * msPerPx * float64(time.Millisecond)))
	assert.Equal(t, want, h.c.Window().Start)

	h.sched.advance(time.Second)
	assert.Equal(t, want, h.c.Window().Start, "the ease no longer writes the window")
	_, pinned := h.c.PinnedYear()
	assert.False(t, pinned)
}

func TestKeyNudge_EasesOneWeek(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 3, 1), End: day(2025, 4, 1)})
	h.c.KeyDown(KeyRight, h.now())
	h.c.KeyUp(KeyRight, h.now())
	assert.Equal(t, ModeAnimating, h.c.Mode())

	h.sched.advance(100 * time.Millisecond)
	mid := h.c.Window().Start
	assert.True(t, mid.After(day(2025, 3, 1)) && mid.Before(day(2025, 3, 8)))

	h.sched.advance(EaseDuration)
	assert.Equal(t, ModeIdle, h.c.Mode())
	assert.Equal(t, day(2025, 3, 8), h.c.Window().Start)
	assert.Equal(t, 31*24*time.Hour, h.c.Window().Width())
}

func TestKeyNudge_AcceleratesOnQuickRepeat(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 3, 1), End: day(2025, 4, 1)})
	h.c.KeyDown(KeyRight, h.now())
	h.c.KeyUp(KeyRight, h.now())
	h.sched.advance(100 * time.Millisecond)
	h.c.KeyDown(KeyRight, h.now())
	h.c.KeyUp(KeyRight, h.now())
	h.sched.advance(time.Second)

	assert.Equal(t, day(2025, 3, 1).Add(Nudge+AccelFactor*Nudge), h.c.Window().Start)
}

func TestKeyNudge_NoAccelWhenDisabledOrSlow(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 3, 1), End: day(2025, 4, 1)})
	h.c.opts.KeyboardAccel = false
	h.c.KeyDown(KeyLeft, h.now())
	h.c.KeyUp(KeyLeft, h.now())
	h.sched.advance(50 * time.Millisecond)
	h.c.KeyDown(KeyLeft, h.now())
	h.c.KeyUp(KeyLeft, h.now())
	h.sched.advance(time.Second)
	assert.Equal(t, day(2025, 3, 1).Add(-2*Nudge), h.c.Window().Start)

	h.c.opts.KeyboardAccel = true
	h.c.KeyDown(KeyRight, h.now())
	h.c.KeyUp(KeyRight, h.now())
	h.sched.advance(AccelWindow + time.Millisecond)
	h.c.KeyDown(KeyRight, h.now())
	h.c.KeyUp(KeyRight, h.now())
	h.sched.advance(time.Second)
	assert.Equal(t, day(2025, 3, 1), h.c.Window().Start)
}

func TestNewAnimationCarriesRemainingDistance(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 3, 1), End: day(2025, 4, 1)})
	h.c.AnimatePanBy(Nudge, h.now())
	h.sched.advance(48 * time.Millisecond)
	assert.Equal(t, 1, h.sched.pending(), "one outstanding frame")

	h.c.AnimatePanBy(Nudge, h.now())
	assert.Equal(t, 1, h.sched.pending(), "previous frame was cancelled")
	h.sched.advance(time.Second)
	assert.Equal(t, day(2025, 3, 15), h.c.Window().Start)
}

func TestPageKeysUseCalendarMonths(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 1, 31), End: day(2025, 2, 14)})
	h.c.KeyDown(KeyPageDown, h.now())
	h.sched.advance(time.Second)
	assert.Equal(t, day(2025, 3, 3), h.c.Window().Start, "Jan 31 + 1 month normalizes like AddDate")

	h2 := newHarness(t, model.Window{Start: day(2025, 3, 15), End: day(2025, 3, 29)})
	h2.c.KeyDown(KeyPageUp, h2.now())
	h2.sched.advance(time.Second)
	assert.Equal(t, day(2025, 2, 15), h2.c.Window().Start)
}

func TestHold_RampsAndStopsOnKeyUp(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 3, 1), End: day(2025, 4, 1)})
	h.c.KeyDown(KeyRight, h.now())
	h.sched.advance(HoldDelay + 20*time.Millisecond)
	require.Equal(t, ModeHolding, h.c.Mode())

	h.sched.advance(10 * time.Second)
	hold := h.c.State().(Holding)
	assert.InDelta(t, HoldSpeed, hold.Velocity, 0.001)
	before := h.c.Window().Start
	assert.True(t, before.After(day(2025, 3, 8)))

	h.c.KeyUp(KeyRight, h.now())
	assert.Equal(t, ModeIdle, h.c.Mode())
	h.sched.advance(UnpinGrace + time.Second)
	assert.Equal(t, before, h.c.Window().Start, "no drift after key-up")
	assert.Equal(t, 0, h.sched.pending())
}

func TestHold_RepeatsWhileDownAreIgnored(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 3, 1), End: day(2025, 4, 1)})
	h.c.KeyDown(KeyRight, h.now())
	h.sched.advance(30 * time.Millisecond)
	h.c.KeyDown(KeyRight, h.now())
	h.c.KeyUp(KeyRight, h.now())
	h.sched.advance(time.Second)
	assert.Equal(t, day(2025, 3, 8), h.c.Window().Start)
}

func TestHold_StaysInPinnedYear(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 12, 1), End: day(2025, 12, 15)})
	h.c.KeyDown(KeyRight, h.now())
	h.sched.advance(2 * time.Minute)
	w := h.c.Window()
	assert.Equal(t, 2025, w.Start.Year())
	assert.Equal(t, 2025, w.End.Year())
	h.c.KeyUp(KeyRight, h.now())
}

func TestJumpYearAndSetStart(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 3, 1), End: day(2025, 4, 1)})
	h.c.JumpYear(1)
	assert.Equal(t, day(2026, 3, 1), h.c.Window().Start)
	h.c.JumpYear(-2)
	assert.Equal(t, day(2024, 3, 1), h.c.Window().Start)

	h.c.SetStart(day(2027, 12, 20))
	w := h.c.Window()
	assert.Equal(t, 2027, w.End.Year())
	assert.Equal(t, 31*24*time.Hour, w.Width())
}

func TestEveryCommitNotifiesOnce(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 3, 1), End: day(2025, 4, 1)})
	h.c.PanBy(time.Hour)
	h.c.SetWindow(1)
	h.c.SnapToToday(day(2025, 5, 5))
	assert.Len(t, h.commits, 3)
	for _, w := range h.commits {
		assert.True(t, w.Valid())
	}
}

func TestDetachCancelsEverything(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 3, 1), End: day(2025, 4, 1)})
	h.c.KeyDown(KeyRight, h.now())
	h.c.PointerDown(10)
	h.c.Detach()
	assert.Equal(t, 0, h.sched.pending())

	n := len(h.commits)
	h.c.PanBy(time.Hour)
	h.c.KeyDown(KeyLeft, h.now())
	h.sched.advance(time.Second)
	assert.Len(t, h.commits, n)
}

func TestGestureCancelsAnimationAtValidWindow(t *testing.T) {
	h := newHarness(t, model.Window{Start: day(2025, 3, 1), End: day(2025, 4, 1)})
	h.c.AnimatePanBy(Nudge, h.now())
	h.sched.advance(100 * time.Millisecond)
	h.c.PointerDown(0)
	assert.Equal(t, ModeDragging, h.c.Mode())
	assert.True(t, h.c.Window().Valid())
	h.sched.advance(time.Second)
	assert.Equal(t, h.commits[len(h.commits)-1], h.c.Window())
}
