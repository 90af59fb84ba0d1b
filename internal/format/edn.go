package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// WriteEDN writes v as EDN. Values go through JSON first so struct json tags name the
// map keywords. Strings holding a plain calendar date are tagged #inst.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var x any
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}

	enc := &ednEncoder{pretty: pretty}
	enc.value(x, 0)
	enc.buf.WriteByte('\n')
	_, err = w.Write(enc.buf.Bytes())
	return err
}

const ednIndent = 2

type ednEncoder struct {
	buf    bytes.Buffer
	pretty bool
}

func (e *ednEncoder) value(v any, level int) {
	switch t := v.(type) {
	case nil:
		e.buf.WriteString("nil")
	case bool:
		e.buf.WriteString(strconv.FormatBool(t))
	case string:
		if isDate(t) {
			e.buf.WriteString("#inst ")
		}
		e.buf.WriteString(strconv.Quote(t))
	case float64:
		if t == float64(int64(t)) {
			e.buf.WriteString(strconv.FormatInt(int64(t), 10))
		} else {
			e.buf.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
		}
	case []any:
		e.coll('[', ']', len(t), level, func(i int) {
			e.value(t[i], level+1)
		})
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		e.coll('{', '}', len(keys), level, func(i int) {
			e.buf.WriteByte(':')
			e.buf.WriteString(ednKeyword(keys[i]))
			e.buf.WriteByte(' ')
			e.value(t[keys[i]], level+1)
		})
	default:
		e.buf.WriteString(strconv.Quote(fmt.Sprint(v)))
	}
}

// coll writes n items between open and close, one per line when pretty.
func (e *ednEncoder) coll(open, close byte, n, level int, item func(i int)) {
	e.buf.WriteByte(open)
	if n == 0 {
		e.buf.WriteByte(close)
		return
	}
	inner := strings.Repeat(" ", (level+1)*ednIndent)
	for i := 0; i < n; i++ {
		switch {
		case e.pretty:
			e.buf.WriteByte('\n')
			e.buf.WriteString(inner)
		case i > 0:
			e.buf.WriteByte(' ')
		}
		item(i)
	}
	if e.pretty {
		e.buf.WriteByte('\n')
		e.buf.WriteString(strings.Repeat(" ", level*ednIndent))
	}
	e.buf.WriteByte(close)
}

func isDate(s string) bool {
	if len(s) != len(dateLayout) {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// ednKeyword turns a JSON key into a keyword name: camelCase becomes kebab-case and
// spaces become dashes, so daysRemaining is written :days-remaining.
func ednKeyword(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	var prev rune
	for _, r := range s {
		switch {
		case r == ' ' || r == '_':
			if prev != '-' && prev != 0 {
				b.WriteByte('-')
			}
			r = '-'
		case unicode.IsUpper(r):
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}
