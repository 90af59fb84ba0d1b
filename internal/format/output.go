// Package format writes CLI results as JSON, EDN or a terminal table.
package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Output formats.
const (
	JSON  = "json"
	EDN   = "edn"
	Table = "table"
)

var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat normalizes a format name. Empty means json.
func ParseFormat(name string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(name)); f {
	case "", JSON:
		return JSON, nil
	case EDN, Table:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}

// Write writes v as json (default) or edn.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", JSON:
		return WriteJSON(w, v, pretty)
	case EDN:
		return WriteEDN(w, v, pretty)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// WriteJSON writes v as a single JSON document followed by a newline.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}
