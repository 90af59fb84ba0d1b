// Package dateparse normalizes the date encodings found in tabular checkpoint feeds.
//
// Feeds coerce column types inconsistently (the same column can arrive as a number in one
// row and a string in the next), so Parse accepts a fixed, ordered set of shapes and reports
// failure instead of guessing:
//
//  1. native time values
//  2. 8-digit YYYYMMDD (number or string)
//  3. 10-13 digit epochs (13 digits = milliseconds, 10-12 digits = seconds)
//  4. D/Mon/YY and DD/Mon/YY (year = 2000+YY)
//  5. ISO and common English layouts
//
// Ambiguous slash dates such as 03/04/25 are always read month first.
package dateparse

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parser parses values into calendar times in Location.
type Parser struct {
	Location *time.Location
}

var defaultParser Parser

// Parse parses v with the default parser (local time zone).
func Parse(v any) (time.Time, bool) {
	return defaultParser.Parse(v)
}

func (p Parser) loc() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

var (
	reDigits   = regexp.MustCompile(`^\d+$`)
	reDayMonYY = regexp.MustCompile(`^(\d{1,2})/([A-Za-z]{3})/(\d{2})$`)
)

var monthAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// fallbackLayouts are tried in order once every structured shape has been ruled out.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Mon Jan 2 2006",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
}

// Parse returns the canonical time for v, or false when v is empty or unparseable.
func (p Parser) Parse(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x.In(p.loc()), true
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return x.In(p.loc()), true
	case []any:
		if len(x) == 0 {
			return time.Time{}, false
		}
		return p.Parse(x[0])
	case []string:
		if len(x) == 0 {
			return time.Time{}, false
		}
		return p.Parse(x[0])
	case string:
		return p.parseString(x)
	case []byte:
		return p.parseString(string(x))
	case json.Number:
		return p.parseString(x.String())
	case float64:
		return p.parseFloat(x)
	case float32:
		return p.parseFloat(float64(x))
	case int:
		return p.parseDigits(strconv.FormatInt(int64(x), 10))
	case int8:
		return p.parseDigits(strconv.FormatInt(int64(x), 10))
	case int16:
		return p.parseDigits(strconv.FormatInt(int64(x), 10))
	case int32:
		return p.parseDigits(strconv.FormatInt(int64(x), 10))
	case int64:
		return p.parseDigits(strconv.FormatInt(x, 10))
	case uint:
		return p.parseDigits(strconv.FormatUint(uint64(x), 10))
	case uint8:
		return p.parseDigits(strconv.FormatUint(uint64(x), 10))
	case uint16:
		return p.parseDigits(strconv.FormatUint(uint64(x), 10))
	case uint32:
		return p.parseDigits(strconv.FormatUint(uint64(x), 10))
	case uint64:
		return p.parseDigits(strconv.FormatUint(x, 10))
	default:
		return time.Time{}, false
	}
}

func (p Parser) parseFloat(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) {
		return time.Time{}, false
	}
	return p.parseDigits(strconv.FormatFloat(f, 'f', -1, 64))
}

func (p Parser) parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if reDigits.MatchString(s) {
		return p.parseDigits(s)
	}
	if m := reDayMonYY.FindStringSubmatch(s); m != nil {
		return p.parseDayMonYY(m[1], m[2], m[3])
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, p.loc()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseDigits handles the purely numeric shapes: YYYYMMDD and epochs.
func (p Parser) parseDigits(s string) (time.Time, bool) {
	switch n := len(s); {
	case n == 8:
		y, _ := strconv.Atoi(s[0:4])
		m, _ := strconv.Atoi(s[4:6])
		d, _ := strconv.Atoi(s[6:8])
		return p.date(y, time.Month(m), d)
	case n >= 10 && n <= 13:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		if n == 13 {
			return time.UnixMilli(v).In(p.loc()), true
		}
		return time.Unix(v, 0).In(p.loc()), true
	default:
		return time.Time{}, false
	}
}

func (p Parser) parseDayMonYY(dd, mon, yy string) (time.Time, bool) {
	m, ok := monthAbbrev[strings.ToLower(mon)]
	if !ok {
		return time.Time{}, false
	}
	d, _ := strconv.Atoi(dd)
	y, _ := strconv.Atoi(yy)
	return p.date(2000+y, m, d)
}

// date builds midnight of y-m-d, rejecting values time.Date would normalize (e.g. 31 Feb).
func (p Parser) date(y int, m time.Month, d int) (time.Time, bool) {
	if m < time.January || m > time.December || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, p.loc())
	if t.Year() != y || t.Month() != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}
