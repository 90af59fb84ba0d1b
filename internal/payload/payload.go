// Package payload models the host data contract: field metadata, named tables of records,
// the theme palette and the flat style map.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultTable is the table conventionally holding the chart rows.
const DefaultTable = "DEFAULT"

var ErrInvalidPayload = errors.New("payload: invalid")

// Payload is one host data delivery.
type Payload struct {
	Fields       Fields              `json:"fields,omitempty"`
	Tables       map[string][]Record `json:"tables,omitempty"`
	Theme        Theme               `json:"theme,omitempty"`
	Style        Style               `json:"style,omitempty"`
	Interactions map[string]any      `json:"interactions,omitempty"`
}

// Field is one column's metadata.
type Field struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// ConfigID is the logical id the field was delivered under when Fields arrived as a map.
	ConfigID string `json:"-"`
}

// Fields is the field metadata list. It decodes from either `[{id,name}]` or
// `{configId: [{id,name}]}`.
type Fields []Field

func (f *Fields) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = nil
		return nil
	}
	if b[0] == '[' {
		var list []Field
		if err := json.Unmarshal(b, &list); err != nil {
			return fmt.Errorf("fields: %w", err)
		}
		*f = list
		return nil
	}
	var byConfig map[string][]Field
	if err := json.Unmarshal(b, &byConfig); err != nil {
		return fmt.Errorf("fields: %w", err)
	}
	keys := make([]string, 0, len(byConfig))
	for k := range byConfig {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out Fields
	for _, k := range keys {
		for _, fd := range byConfig[k] {
			fd.ConfigID = k
			out = append(out, fd)
		}
	}
	*f = out
	return nil
}

// Record is one table row as delivered by the host.
type Record map[string]any

// Dims returns the record's dimension values. Hosts expose them under `dimID`, `dim` or
// `dimensions`; flat records are their own dimension map.
func (r Record) Dims() map[string]any {
	for _, k := range []string{"dimID", "dim", "dimensions"} {
		if m, ok := r[k].(map[string]any); ok {
			return m
		}
		if m, ok := r[k].(Record); ok {
			return m
		}
	}
	return r
}

// Table returns the DEFAULT table, else the first table by name, else nil.
func (p Payload) Table() []Record {
	if t, ok := p.Tables[DefaultTable]; ok {
		return t
	}
	names := make([]string, 0, len(p.Tables))
	for k := range p.Tables {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if p.Tables[k] != nil {
			return p.Tables[k]
		}
	}
	return nil
}

// Theme carries the host palette.
type Theme struct {
	SeriesColor Colors `json:"seriesColor,omitempty"`
}

// Colors decodes a palette whose entries are strings or {color}/{value} objects.
type Colors []string

func (c *Colors) UnmarshalJSON(b []byte) error {
	var raw []any
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("colors: %w", err)
	}
	out := make(Colors, 0, len(raw))
	for _, v := range raw {
		if s, ok := colorString(v); ok {
			out = append(out, s)
		}
	}
	*c = out
	return nil
}

// Decode parses a payload from JSON. The payload may be nested under `data`, as in local
// fixtures.
func Decode(b []byte) (Payload, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if inner, ok := probe["data"]; ok {
		if _, hasTables := probe["tables"]; !hasTables {
			b = mergeNested(probe, inner)
		}
	}
	var p Payload
	if err := json.Unmarshal(b, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return p, nil
}

// mergeNested lifts `data.tables` to the top level while keeping sibling keys such as
// `fields` and `theme`.
func mergeNested(top map[string]json.RawMessage, inner json.RawMessage) []byte {
	out := map[string]json.RawMessage{}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(inner, &nested); err == nil {
		for k, v := range nested {
			out[k] = v
		}
	}
	for k, v := range top {
		if k == "data" {
			continue
		}
		out[k] = v
	}
	b, _ := json.Marshal(out)
	return b
}

// WithStyle returns a copy with overrides layered over the style map. Keys match
// case-insensitively.
func (p Payload) WithStyle(overrides map[string]any) Payload {
	if len(overrides) == 0 {
		return p
	}
	st := Style{}
	for k, v := range p.Style.flat() {
		st[k] = v
	}
	for k, v := range overrides {
		for existing := range st {
			if strings.EqualFold(existing, k) {
				delete(st, existing)
			}
		}
		st[k] = v
	}
	p.Style = st
	return p
}

// WithPalette returns a copy whose theme palette is replaced when palette is non-empty.
func (p Payload) WithPalette(palette []string) Payload {
	if len(palette) == 0 {
		return p
	}
	p.Theme.SeriesColor = append(Colors(nil), palette...)
	return p
}

func colorString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case map[string]any:
		for _, k := range []string{"color", "value"} {
			if s, ok := x[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), true
			}
		}
	}
	return "", false
}
