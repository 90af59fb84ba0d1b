package dateparse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse_KnownShapes(t *testing.T) {
	p := Parser{Location: time.UTC}

	cases := []struct {
		name string
		in   any
		want time.Time
	}{
		{"yyyymmdd string", "20250324", day(2025, time.March, 24)},
		{"yyyymmdd int", 20250324, day(2025, time.March, 24)},
		{"yyyymmdd float", float64(20250909), day(2025, time.September, 9)},
		{"yyyymmdd json number", json.Number("20250506"), day(2025, time.May, 6)},
		{"epoch ms", int64(1742774400000), day(2025, time.March, 24)},
		{"epoch ms string", "1742774400000", day(2025, time.March, 24)},
		{"epoch s", int64(1742774400), day(2025, time.March, 24)},
		{"epoch s float", float64(1742774400), day(2025, time.March, 24)},
		{"d/mon/yy", "24/Mar/25", day(2025, time.March, 24)},
		{"single digit day", "6/may/25", day(2025, time.May, 6)},
		{"iso date", "2025-09-16", day(2025, time.September, 16)},
		{"iso datetime", "2025-09-16T00:00:00Z", day(2025, time.September, 16)},
		{"single element list", []any{"20250324"}, day(2025, time.March, 24)},
		{"native", day(2024, time.February, 29), day(2024, time.February, 29)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := p.Parse(tc.in)
			require.True(t, ok, "expected %v to parse", tc.in)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}
}

func TestParse_InvalidReturnsFalse(t *testing.T) {
	p := Parser{Location: time.UTC}
	for _, in := range []any{
		nil, "", "   ", "notadate", "20251340", "20250231", "31/Foo/25",
		"12345", float64(1.5), float64(-20250324), []any{}, map[string]any{}, true,
		"13/04/25",
	} {
		_, ok := p.Parse(in)
		assert.False(t, ok, "expected %#v to be rejected", in)
	}
}

func TestParse_AmbiguousSlashDatesAreMonthFirst(t *testing.T) {
	p := Parser{Location: time.UTC}

	got, ok := p.Parse("03/04/25")
	require.True(t, ok)
	assert.Equal(t, day(2025, time.March, 4), got)

	got, ok = p.Parse("04/03/25")
	require.True(t, ok)
	assert.Equal(t, day(2025, time.April, 3), got)

	got, ok = p.Parse("03/04/2025")
	require.True(t, ok)
	assert.Equal(t, day(2025, time.March, 4), got)
}

func TestParse_UsesParserLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	got, ok := Parser{Location: loc}.Parse("20250101")
	require.True(t, ok)
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, 1, got.Day())
	assert.Equal(t, 0, got.Hour())
}
