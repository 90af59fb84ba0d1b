package palette

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpgantt/internal/model"
)

func TestAssign_IsDeterministic(t *testing.T) {
	teams := []string{"TX", "BX", "QA"}
	pal := []string{"#AA0000", "#00aa00", "#0000aa", "#aaaa00", "#00aaaa"}
	a := Assign(teams, pal)
	b := Assign(teams, pal)
	assert.Equal(t, a, b)
	assert.Equal(t, "#aa0000", a["TX"])
	assert.Equal(t, "#00aa00", a["BX"])
}

func TestAssign_WrapsShortPalette(t *testing.T) {
	pal := []string{"#111111", "#222222"}
	got := Assign([]string{"a", "b", "c"}, pal)
	assert.Equal(t, "#111111", got["c"])
}

func TestAssign_EmptyPaletteUsesTableau10(t *testing.T) {
	teams := make([]string, 12)
	for i := range teams {
		teams[i] = string(rune('a' + i))
	}
	got := Assign(teams, nil)
	assert.Equal(t, Tableau10[0], got["a"])
	assert.Equal(t, Tableau10[9], got["j"])
	assert.Equal(t, Tableau10[0], got["k"])
	assert.GreaterOrEqual(t, len(Tableau10), 10)
}

func TestAssign_InvalidEntryFallsBackAtSameIndex(t *testing.T) {
	got := Assign([]string{"a", "b"}, []string{"#123456", "not-a-colour"})
	assert.Equal(t, "#123456", got["a"])
	assert.Equal(t, Tableau10[1], got["b"])
}

func TestTeams_FirstSeenOrder(t *testing.T) {
	d := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []model.Row{{Team: "TX", CP3: d}, {Team: "BX", CP3: d}, {Team: "TX", CP3: d}}
	assert.Equal(t, []string{"TX", "BX"}, Teams(rows))
	assert.Nil(t, Teams(nil))
}

func TestTintShadeAndTextOn(t *testing.T) {
	assert.Equal(t, "#ffffff", Tint("#336699", 1))
	assert.Equal(t, "#336699", Tint("#336699", 0))
	assert.Equal(t, "#000000", Shade("#336699", 1))
	assert.Equal(t, "nope", Tint("nope", 0.5))

	assert.Equal(t, "#000000", TextOn("#ffffff"))
	assert.Equal(t, "#ffffff", TextOn("#000000"))
	assert.Equal(t, "#000000", TextOn(Tableau10[5]))

	lighter := Tint("#336699", 0.5)
	require.NotEqual(t, "#336699", lighter)
}
