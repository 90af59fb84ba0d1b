package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"cpgantt/internal/payload"
)

var reIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// DriverName maps user-facing driver names to registered database/sql drivers.
func DriverName(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return "sqlite", nil
	case "pgx", "postgres", "postgresql":
		return "pgx", nil
	case "mysql":
		return "mysql", nil
	default:
		return "", fmt.Errorf("%w: driver %q", ErrUnsupportedSource, driver)
	}
}

func (s Spec) query() (string, error) {
	if q := strings.TrimSpace(s.Query); q != "" {
		return q, nil
	}
	table := strings.TrimSpace(s.Table)
	if table == "" {
		return "", fmt.Errorf("%w: sql source needs a query or a table", ErrUnsupportedSource)
	}
	if !reIdent.MatchString(table) {
		return "", fmt.Errorf("%w: invalid table name %q", ErrUnsupportedSource, table)
	}
	return "SELECT * FROM " + table, nil
}

func loadSQL(ctx context.Context, spec Spec) (payload.Payload, error) {
	driverName, err := DriverName(spec.Driver)
	if err != nil {
		return payload.Payload{}, err
	}
	query, err := spec.query()
	if err != nil {
		return payload.Payload{}, err
	}
	dsn := spec.DSN
	if dsn == "" && driverName == "sqlite" {
		dsn = spec.Path
	}
	if dsn == "" {
		return payload.Payload{}, fmt.Errorf("%w: %s source needs a dsn", ErrUnsupportedSource, driverName)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return payload.Payload{}, fmt.Errorf("failed to open %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()
	if driverName == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	return Query(ctx, db, query)
}

// Query runs query against db and returns its result set as the DEFAULT table. Column
// names become field ids.
func Query(ctx context.Context, db *sql.DB, query string, args ...any) (payload.Payload, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return payload.Payload{}, fmt.Errorf("query rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return payload.Payload{}, fmt.Errorf("read columns: %w", err)
	}
	fields := make(payload.Fields, 0, len(cols))
	for _, c := range cols {
		fields = append(fields, payload.Field{ID: c, Name: c})
	}

	var records []payload.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return payload.Payload{}, fmt.Errorf("scan row: %w", err)
		}
		rec := payload.Record{}
		for i, c := range cols {
			if v := sqlValue(values[i]); v != nil {
				rec[c] = v
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return payload.Payload{}, fmt.Errorf("iterate rows: %w", err)
	}

	return payload.Payload{
		Fields: fields,
		Tables: map[string][]payload.Record{payload.DefaultTable: records},
	}, nil
}

// sqlValue converts driver values into the shapes the date parser and shaper accept.
func sqlValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return x
	default:
		return x
	}
}
