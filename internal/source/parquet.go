package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"cpgantt/internal/model"
	"cpgantt/internal/payload"
)

const parquetDate = "2006-01-02"

// RowRecord is the parquet layout for checkpoint rows. Dates are ISO calendar dates.
type RowRecord struct {
	Team    *string `parquet:"team,optional,snappy"`
	Project *string `parquet:"project,optional,snappy"`
	CP3     *string `parquet:"cp3,optional,snappy"`
	CP35    *string `parquet:"cp35,optional,snappy"`
	CP4     *string `parquet:"cp4,optional,snappy"`
	CP5     *string `parquet:"cp5,optional,snappy"`
}

func (r RowRecord) record() payload.Record {
	rec := payload.Record{}
	set := func(k string, v *string) {
		if v != nil && *v != "" {
			rec[k] = *v
		}
	}
	set("team", r.Team)
	set("project", r.Project)
	set("cp3", r.CP3)
	set("cp35", r.CP35)
	set("cp4", r.CP4)
	set("cp5", r.CP5)
	return rec
}

func strPtr(s string) *string { return &s }

func datePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return strPtr(t.Format(parquetDate))
}

// NewRowRecord converts a shaped row to its parquet layout.
func NewRowRecord(r model.Row) RowRecord {
	cp3 := r.CP3
	return RowRecord{
		Team:    strPtr(r.Team),
		Project: strPtr(r.Project),
		CP3:     datePtr(&cp3),
		CP35:    datePtr(r.CP35),
		CP4:     datePtr(r.CP4),
		CP5:     datePtr(r.CP5),
	}
}

// WriteParquet writes shaped rows to a parquet file at path.
func WriteParquet(path string, rows []model.Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data := make([]RowRecord, 0, len(rows))
	for _, r := range rows {
		data = append(data, NewRowRecord(r))
	}

	writer := parquet.NewGenericWriter[RowRecord](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

func readParquet(path string) (payload.Payload, error) {
	file, err := os.Open(path)
	if err != nil {
		return payload.Payload{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[RowRecord](file)
	defer func() { _ = reader.Close() }()

	data := make([]RowRecord, reader.NumRows())
	n, err := reader.Read(data)
	if err != nil && !errors.Is(err, io.EOF) {
		return payload.Payload{}, fmt.Errorf("read parquet rows: %w", err)
	}

	records := make([]payload.Record, 0, n)
	for _, r := range data[:n] {
		records = append(records, r.record())
	}
	return payload.Payload{
		Tables: map[string][]payload.Record{payload.DefaultTable: records},
	}, nil
}
