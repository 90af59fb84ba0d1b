package scale

import (
	"math"
	"sort"
	"time"
)

type unit int

const (
	unitMillisecond unit = iota
	unitSecond
	unitMinute
	unitHour
	unitDay
	unitWeek
	unitMonth
	unitYear
)

// Interval is a calendar step such as "every 3 months" or "every week", evaluated in a
// time zone.
type Interval struct {
	unit unit
	step int
	loc  *time.Location
}

const (
	durSecond = time.Second
	durMinute = time.Minute
	durHour   = time.Hour
	durDay    = 24 * time.Hour
	durWeek   = 7 * durDay
	durMonth  = 30 * durDay
	durYear   = 365 * durDay
)

// tickIntervals is the ladder nice and ticks choose from.
var tickIntervals = []struct {
	unit unit
	step int
	dur  time.Duration
}{
	{unitSecond, 1, durSecond},
	{unitSecond, 5, 5 * durSecond},
	{unitSecond, 15, 15 * durSecond},
	{unitSecond, 30, 30 * durSecond},
	{unitMinute, 1, durMinute},
	{unitMinute, 5, 5 * durMinute},
	{unitMinute, 15, 15 * durMinute},
	{unitMinute, 30, 30 * durMinute},
	{unitHour, 1, durHour},
	{unitHour, 3, 3 * durHour},
	{unitHour, 6, 6 * durHour},
	{unitHour, 12, 12 * durHour},
	{unitDay, 1, durDay},
	{unitDay, 2, 2 * durDay},
	{unitWeek, 1, durWeek},
	{unitMonth, 1, durMonth},
	{unitMonth, 3, 3 * durMonth},
	{unitYear, 1, durYear},
}

// TickInterval picks the ladder interval whose duration is closest to span/count.
func TickInterval(start, stop time.Time, count int, loc *time.Location) Interval {
	if loc == nil {
		loc = time.Local
	}
	if count <= 0 {
		count = 10
	}
	span := stop.Sub(start)
	if span < 0 {
		span = -span
	}
	target := float64(span) / float64(count)
	i := sort.Search(len(tickIntervals), func(i int) bool { return float64(tickIntervals[i].dur) > target })
	switch {
	case i == len(tickIntervals):
		years := tickStep(float64(span)/float64(durYear), count)
		return Interval{unit: unitYear, step: max(1, int(years)), loc: loc}
	case i == 0:
		ms := tickStep(float64(span)/float64(time.Millisecond), count)
		return Interval{unit: unitMillisecond, step: max(1, int(ms)), loc: loc}
	}
	lo, hi := tickIntervals[i-1], tickIntervals[i]
	pick := hi
	if target/float64(lo.dur) < float64(hi.dur)/target {
		pick = lo
	}
	return Interval{unit: pick.unit, step: pick.step, loc: loc}
}

// tickStep is the 1/2/5 x 10^k step that splits span into about count parts.
func tickStep(span float64, count int) float64 {
	step0 := span / float64(count)
	if step0 <= 0 || math.IsNaN(step0) || math.IsInf(step0, 0) {
		return 1
	}
	step1 := math.Pow(10, math.Floor(math.Log10(step0)))
	switch e := step0 / step1; {
	case e >= math.Sqrt(50):
		step1 *= 10
	case e >= math.Sqrt(10):
		step1 *= 5
	case e >= math.Sqrt(2):
		step1 *= 2
	}
	return step1
}

// Floor returns the latest interval boundary at or before t.
func (iv Interval) Floor(t time.Time) time.Time {
	t = t.In(iv.loc)
	step := max(1, iv.step)
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	switch iv.unit {
	case unitMillisecond:
		ms := t.UnixMilli()
		ms -= mod(ms, int64(step))
		return time.UnixMilli(ms).In(iv.loc)
	case unitSecond:
		return time.Date(y, mo, d, h, mi, s-s%step, 0, iv.loc)
	case unitMinute:
		return time.Date(y, mo, d, h, mi-mi%step, 0, 0, iv.loc)
	case unitHour:
		return time.Date(y, mo, d, h-h%step, 0, 0, 0, iv.loc)
	case unitDay:
		return time.Date(y, mo, d-(d-1)%step, 0, 0, 0, 0, iv.loc)
	case unitWeek:
		return time.Date(y, mo, d-int(t.Weekday()), 0, 0, 0, 0, iv.loc)
	case unitMonth:
		m0 := int(mo) - 1
		return time.Date(y, time.Month(m0-m0%step+1), 1, 0, 0, 0, 0, iv.loc)
	default:
		return time.Date(y-int(mod(int64(y), int64(step))), time.January, 1, 0, 0, 0, 0, iv.loc)
	}
}

// Offset advances t by n steps of the interval.
func (iv Interval) Offset(t time.Time, n int) time.Time {
	k := n * max(1, iv.step)
	switch iv.unit {
	case unitMillisecond:
		return t.Add(time.Duration(k) * time.Millisecond)
	case unitSecond:
		return t.Add(time.Duration(k) * time.Second)
	case unitMinute:
		return t.Add(time.Duration(k) * time.Minute)
	case unitHour:
		return t.Add(time.Duration(k) * time.Hour)
	case unitDay:
		return t.AddDate(0, 0, k)
	case unitWeek:
		return t.AddDate(0, 0, 7*k)
	case unitMonth:
		return t.AddDate(0, k, 0)
	default:
		return t.AddDate(k, 0, 0)
	}
}

// Ceil returns the earliest interval boundary at or after t.
func (iv Interval) Ceil(t time.Time) time.Time {
	f := iv.Floor(t)
	if f.Equal(t) {
		return f
	}
	return iv.Floor(iv.Offset(f, 1))
}

// Range lists the boundaries in [start, stop].
func (iv Interval) Range(start, stop time.Time) []time.Time {
	var out []time.Time
	for t := iv.Ceil(start); !t.After(stop); {
		out = append(out, t)
		next := iv.Floor(iv.Offset(t, 1))
		if !next.After(t) {
			break
		}
		t = next
	}
	return out
}

func mod(a, b int64) int64 {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}
