package payload

import (
	"encoding/json"
	"strconv"
	"strings"

	"cpgantt/internal/model"
)

// Style is the host's flat style map. Values arrive either raw (number, string, bool) or
// wrapped as {value}, {weight}, {opacity} or {color} objects.
type Style map[string]any

// flat folds a nested `appearance` section into the top level. Top-level keys win.
func (s Style) flat() map[string]any {
	out := map[string]any{}
	if app, ok := s["appearance"].(map[string]any); ok {
		for k, v := range app {
			out[k] = v
		}
	}
	for k, v := range s {
		if k == "appearance" {
			continue
		}
		out[k] = v
	}
	return out
}

var (
	numberWrappers = []string{"value", "weight", "opacity"}
	colorWrappers  = []string{"color", "value"}
	plainWrappers  = []string{"value"}
)

// lookup finds key exactly, then case-insensitively (config files arrive lower-cased).
func (s Style) lookup(key string, wrappers []string) (any, bool) {
	flat := s.flat()
	v, ok := flat[key]
	if !ok {
		for k, fv := range flat {
			if strings.EqualFold(k, key) {
				v, ok = fv, true
				break
			}
		}
	}
	if !ok || v == nil {
		return nil, false
	}
	return unwrap(v, wrappers), true
}

// unwrap peels {value|weight|opacity|color} wrappers, preferring keys in order.
func unwrap(v any, wrappers []string) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for _, k := range wrappers {
		if inner, ok := m[k]; ok && inner != nil {
			return unwrap(inner, wrappers)
		}
	}
	return v
}

// Number returns key as a float, or def when absent or not numeric.
func (s Style) Number(key string, def float64) float64 {
	v, ok := s.lookup(key, numberWrappers)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(x), "px"), 64); err == nil {
			return f
		}
	}
	return def
}

// Bool returns key as a bool, or def when absent or not boolean-like.
func (s Style) Bool(key string, def bool) bool {
	v, ok := s.lookup(key, plainWrappers)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return b
		}
	case float64:
		return x != 0
	case int:
		return x != 0
	}
	return def
}

// Color returns key as a colour string, or def.
func (s Style) Color(key, def string) string {
	v, ok := s.lookup(key, colorWrappers)
	if !ok {
		return def
	}
	if c, ok := colorString(v); ok {
		return c
	}
	return def
}

// String returns key as a string, or def.
func (s Style) String(key, def string) string {
	v, ok := s.lookup(key, plainWrappers)
	if !ok {
		return def
	}
	if str, ok := v.(string); ok && strings.TrimSpace(str) != "" {
		return strings.TrimSpace(str)
	}
	return def
}

// Options normalizes the recognized style settings.
func (s Style) Options() model.StyleOptions {
	d := model.DefaultStyleOptions()
	o := model.StyleOptions{
		RowHeight:          s.Number("rowHeight", d.RowHeight),
		ShowToday:          s.Bool("showToday", d.ShowToday),
		TodayLineColor:     s.Color("todayLineColor", d.TodayLineColor),
		TodayLineWidth:     s.Number("todayLineWidth", d.TodayLineWidth),
		ShowMilestoneTicks: s.Bool("showMilestoneTicks", d.ShowMilestoneTicks),
		MonthLabelSize:     s.Number("monthLabelSize", d.MonthLabelSize),
		MonthLabelColor:    s.Color("monthLabelColor", d.MonthLabelColor),
		MonthGlow:          s.Bool("monthGlow", d.MonthGlow),
		EnableDrag:         s.Bool("enableDrag", d.EnableDrag),
		EnableWheel:        s.Bool("enableWheel", d.EnableWheel),
		KeyboardAccel:      s.Bool("keyboardAccel", d.KeyboardAccel),
	}
	if o.RowHeight <= 0 {
		o.RowHeight = d.RowHeight
	}
	if o.TodayLineWidth <= 0 {
		o.TodayLineWidth = d.TodayLineWidth
	}
	if o.MonthLabelSize <= 0 {
		o.MonthLabelSize = d.MonthLabelSize
	}
	return o
}
