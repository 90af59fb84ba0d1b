// Package palette assigns team colours.
package palette

import (
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"cpgantt/internal/model"
)

// Tableau10 is the built-in qualitative palette used when the host supplies none.
var Tableau10 = []string{
	"#4e79a7", "#f28e2c", "#e15759", "#76b7b2", "#59a14f",
	"#edc949", "#af7aa1", "#ff9da7", "#9c755f", "#bab0ab",
}

// Teams returns the distinct teams of rows in first-seen order.
func Teams(rows []model.Row) []string {
	seen := make(map[string]bool, len(rows))
	var out []string
	for _, r := range rows {
		if seen[r.Team] {
			continue
		}
		seen[r.Team] = true
		out = append(out, r.Team)
	}
	return out
}

// Assign maps the i-th team to palette[i mod len(palette)]. An empty palette means
// Tableau10; an entry that is not a valid colour is replaced by the Tableau10 colour at the
// same index.
func Assign(teams, palette []string) map[string]string {
	colors := Normalize(palette)
	out := make(map[string]string, len(teams))
	for i, team := range teams {
		if _, dup := out[team]; dup {
			continue
		}
		out[team] = colors[i%len(colors)]
	}
	return out
}

// Normalize returns palette as lower-case #rrggbb strings with invalid entries replaced.
func Normalize(palette []string) []string {
	if len(palette) == 0 {
		return append([]string(nil), Tableau10...)
	}
	out := make([]string, len(palette))
	for i, p := range palette {
		c, err := colorful.Hex(strings.TrimSpace(p))
		if err != nil {
			out[i] = Tableau10[i%len(Tableau10)]
			continue
		}
		out[i] = c.Clamped().Hex()
	}
	return out
}

// Tint blends hex toward white by amount (0..1) in Lab space.
func Tint(hex string, amount float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	white := colorful.Color{R: 1, G: 1, B: 1}
	return c.BlendLab(white, clamp01(amount)).Clamped().Hex()
}

// Shade blends hex toward black by amount (0..1) in Lab space.
func Shade(hex string, amount float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	black := colorful.Color{}
	return c.BlendLab(black, clamp01(amount)).Clamped().Hex()
}

// TextOn returns black or white, whichever reads better on hex.
func TextOn(hex string) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return "#ffffff"
	}
	r, g, b := c.LinearRgb()
	if 0.2126*r+0.7152*g+0.0722*b > 0.179 {
		return "#000000"
	}
	return "#ffffff"
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
