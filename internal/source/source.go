// Package source loads host payloads from files and databases.
package source

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"cpgantt/internal/payload"
)

var ErrUnsupportedSource = errors.New("source: unsupported")

//go:embed sample.json
var sampleJSON []byte

// Spec describes where a payload comes from. A non-empty Driver selects a SQL source;
// otherwise Path is read by extension. An empty Spec yields the bundled sample.
type Spec struct {
	Path   string
	Driver string
	DSN    string
	Query  string
	// Table is the SQL table read when Query is empty.
	Table string
}

// IsSample reports whether the spec falls back to the bundled sample payload.
func (s Spec) IsSample() bool {
	return strings.TrimSpace(s.Path) == "" && strings.TrimSpace(s.Driver) == ""
}

func (s Spec) String() string {
	switch {
	case s.Driver != "":
		return s.Driver + " query"
	case s.IsSample():
		return "sample"
	default:
		return s.Path
	}
}

// Sample returns the bundled demonstration payload.
func Sample() payload.Payload {
	p, err := payload.Decode(sampleJSON)
	if err != nil {
		panic(fmt.Sprintf("source: bundled sample: %v", err))
	}
	return p
}

// Load reads the payload described by spec.
func Load(ctx context.Context, spec Spec) (payload.Payload, error) {
	if spec.Driver != "" {
		return loadSQL(ctx, spec)
	}
	if spec.IsSample() {
		return Sample(), nil
	}
	if spec.Path == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return payload.Payload{}, fmt.Errorf("read stdin: %w", err)
		}
		return decodeJSON(raw)
	}

	switch ext := strings.ToLower(filepath.Ext(spec.Path)); ext {
	case ".json":
		raw, err := os.ReadFile(spec.Path)
		if err != nil {
			return payload.Payload{}, fmt.Errorf("read %s: %w", spec.Path, err)
		}
		return decodeJSON(raw)
	case ".yaml", ".yml":
		raw, err := os.ReadFile(spec.Path)
		if err != nil {
			return payload.Payload{}, fmt.Errorf("read %s: %w", spec.Path, err)
		}
		return decodeYAML(raw)
	case ".csv":
		f, err := os.Open(spec.Path)
		if err != nil {
			return payload.Payload{}, fmt.Errorf("open %s: %w", spec.Path, err)
		}
		defer func() { _ = f.Close() }()
		return ReadCSV(f)
	case ".parquet":
		return readParquet(spec.Path)
	case ".db", ".sqlite", ".sqlite3":
		spec.Driver = "sqlite"
		return loadSQL(ctx, spec)
	default:
		return payload.Payload{}, fmt.Errorf("%w: %q", ErrUnsupportedSource, spec.Path)
	}
}

func decodeJSON(raw []byte) (payload.Payload, error) {
	if err := payload.Validate(raw); err != nil {
		return payload.Payload{}, err
	}
	return payload.Decode(raw)
}

func decodeYAML(raw []byte) (payload.Payload, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return payload.Payload{}, fmt.Errorf("%w: yaml: %v", payload.ErrInvalidPayload, err)
	}
	if err := payload.ValidateValue(doc); err != nil {
		return payload.Payload{}, err
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return payload.Payload{}, fmt.Errorf("%w: %v", payload.ErrInvalidPayload, err)
	}
	return payload.Decode(buf.Bytes())
}

// ValidateFile checks a JSON or YAML payload file against the schema without decoding it.
func ValidateFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("%w: yaml: %v", payload.ErrInvalidPayload, err)
		}
		return payload.ValidateValue(doc)
	case ".json":
		return payload.Validate(raw)
	default:
		return fmt.Errorf("%w: only json and yaml payloads carry a schema: %q", ErrUnsupportedSource, path)
	}
}
