package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"cpgantt/internal/payload"
)

// ReadCSV reads a header row plus data rows into the DEFAULT table. Column ids are the
// lower-cased headers; the original header is kept as the field's display name so synonyms
// such as cp3Date still resolve.
func ReadCSV(r io.Reader) (payload.Payload, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return payload.Payload{Tables: map[string][]payload.Record{payload.DefaultTable: nil}}, nil
	}
	if err != nil {
		return payload.Payload{}, fmt.Errorf("read csv header: %w", err)
	}

	ids := make([]string, len(header))
	fields := make(payload.Fields, 0, len(header))
	for i, col := range header {
		name := strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		ids[i] = strings.ToLower(name)
		fields = append(fields, payload.Field{ID: ids[i], Name: name})
	}

	var records []payload.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return payload.Payload{}, fmt.Errorf("read csv: %w", err)
		}
		rec := payload.Record{}
		for i, id := range ids {
			if id == "" || i >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[i]); v != "" {
				rec[id] = v
			}
		}
		records = append(records, rec)
	}

	return payload.Payload{
		Fields: fields,
		Tables: map[string][]payload.Record{payload.DefaultTable: records},
	}, nil
}
