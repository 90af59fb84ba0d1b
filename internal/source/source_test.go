package source

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpgantt/internal/dateparse"
	"cpgantt/internal/model"
	"cpgantt/internal/payload"
	"cpgantt/internal/shape"
)

func shapeUTC(p payload.Payload) ([]model.Row, shape.Report) {
	s := shape.Shaper{Fields: shape.DefaultFieldMap(), Parser: dateparse.Parser{Location: time.UTC}}
	return s.Shape(p)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_EmptySpecIsSample(t *testing.T) {
	spec := Spec{}
	assert.True(t, spec.IsSample())
	assert.Equal(t, "sample", spec.String())

	p, err := Load(context.Background(), spec)
	require.NoError(t, err)
	rows, rep := shapeUTC(p)
	assert.Equal(t, 5, rep.Input)
	assert.Len(t, rows, 5)
	assert.Len(t, p.Theme.SeriesColor, 5)
}

func TestLoad_JSONValidatesThenDecodes(t *testing.T) {
	path := writeFile(t, "in.json", `{"tables":{"DEFAULT":[{"team":"TX","summary":"Alpha","cp3":"20250324"}]}}`)
	p, err := Load(context.Background(), Spec{Path: path})
	require.NoError(t, err)
	rows, _ := shapeUTC(p)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alpha", rows[0].Project)

	bad := writeFile(t, "bad.json", `{"tables":{"DEFAULT":[1]}}`)
	_, err = Load(context.Background(), Spec{Path: bad})
	require.Error(t, err)
	assert.True(t, errors.Is(err, payload.ErrInvalidPayload))
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "in.yaml", strings.Join([]string{
		"theme:",
		"  seriesColor: ['#112233']",
		"data:",
		"  tables:",
		"    DEFAULT:",
		"      - dimID:",
		"          team: BX",
		"          projectName: Beta",
		"          cp3Date: 2024-05-06",
		"          cp5Date: '2024-09-16'",
	}, "\n"))
	p, err := Load(context.Background(), Spec{Path: path})
	require.NoError(t, err)
	rows, _ := shapeUTC(p)
	require.Len(t, rows, 1)
	assert.Equal(t, "BX", rows[0].Team)
	assert.Equal(t, "Beta", rows[0].Project)
	require.NotNil(t, rows[0].CP5)
	assert.Equal(t, time.September, rows[0].CP5.Month())
	assert.Equal(t, []string{"#112233"}, []string(p.Theme.SeriesColor))
}

func TestLoad_YAMLSchemaViolation(t *testing.T) {
	path := writeFile(t, "bad.yml", "style: 3\n")
	_, err := Load(context.Background(), Spec{Path: path})
	require.Error(t, err)
	assert.True(t, errors.Is(err, payload.ErrInvalidPayload))
}

func TestReadCSV_LowercasesHeadersAndKeepsNames(t *testing.T) {
	p, err := ReadCSV(strings.NewReader("Team,Project Name,cp3Date,cp5Date\nTX, Alpha ,20250324,\nBX,Beta,,20250909\n"))
	require.NoError(t, err)

	require.Len(t, p.Fields, 4)
	assert.Equal(t, "project name", p.Fields[1].ID)
	assert.Equal(t, "Project Name", p.Fields[1].Name)

	table := p.Table()
	require.Len(t, table, 2)
	assert.Equal(t, "Alpha", table[0]["project name"])
	_, hasCP5 := table[0]["cp5date"]
	assert.False(t, hasCP5, "blank cells are omitted")

	rows, rep := shapeUTC(p)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alpha", rows[0].Project)
	assert.Equal(t, 1, rep.MissingCP3)
}

func TestReadCSV_Empty(t *testing.T) {
	p, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, p.Table())
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, "in.txt", "x")
	_, err := Load(context.Background(), Spec{Path: path})
	assert.True(t, errors.Is(err, ErrUnsupportedSource))
}

func TestDriverName(t *testing.T) {
	cases := map[string]string{
		"sqlite":     "sqlite",
		"SQLite3":    "sqlite",
		"postgres":   "pgx",
		"postgresql": "pgx",
		"pgx":        "pgx",
		"mysql":      "mysql",
	}
	for in, want := range cases {
		got, err := DriverName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := DriverName("oracle")
	assert.True(t, errors.Is(err, ErrUnsupportedSource))
}

func TestSpecQuery(t *testing.T) {
	q, err := Spec{Table: "checkpoints"}.query()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM checkpoints", q)

	q, err = Spec{Query: " SELECT 1 ", Table: "ignored"}.query()
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", q)

	_, err = Spec{Table: "x; DROP TABLE y"}.query()
	assert.True(t, errors.Is(err, ErrUnsupportedSource))

	_, err = Spec{}.query()
	assert.True(t, errors.Is(err, ErrUnsupportedSource))
}

func seedSQLite(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE checkpoints (team TEXT, project TEXT, cp3 TEXT, cp35 TEXT, cp4 INTEGER, cp5 TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO checkpoints VALUES
		('TX', 'Alpha', '2025-03-24', NULL, 20250601, '2025-09-09'),
		('BX', 'Beta', '24/Mar/25', NULL, NULL, NULL),
		(NULL, 'Orphan', '2025-01-01', NULL, NULL, NULL)`)
	require.NoError(t, err)
}

func TestLoad_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cp.db")
	seedSQLite(t, path)

	p, err := Load(context.Background(), Spec{Driver: "sqlite", DSN: path, Table: "checkpoints"})
	require.NoError(t, err)
	rows, rep := shapeUTC(p)
	assert.Equal(t, 3, rep.Input)
	assert.Equal(t, 1, rep.MissingTeam)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alpha", rows[0].Project)
	require.NotNil(t, rows[0].CP4)
	assert.Equal(t, time.June, rows[0].CP4.Month())
	assert.Nil(t, rows[1].CP5)

	// .db paths select the sqlite driver implicitly.
	p, err = Load(context.Background(), Spec{Path: path, Query: "SELECT team, project, cp3 FROM checkpoints WHERE team = 'TX'"})
	require.NoError(t, err)
	rows, _ = shapeUTC(p)
	require.Len(t, rows, 1)
	assert.Equal(t, "TX", rows[0].Team)
}

func TestLoad_SQLNeedsDSN(t *testing.T) {
	_, err := Load(context.Background(), Spec{Driver: "postgres", Table: "t"})
	assert.True(t, errors.Is(err, ErrUnsupportedSource))
}

func TestParquetRoundTrip(t *testing.T) {
	cp5 := time.Date(2025, time.September, 9, 0, 0, 0, 0, time.UTC)
	in := []model.Row{
		{Team: "TX", Project: "Alpha", CP3: time.Date(2025, time.March, 24, 0, 0, 0, 0, time.UTC), CP5: &cp5},
		{Team: "BX", Project: "Beta", CP3: time.Date(2025, time.May, 6, 0, 0, 0, 0, time.UTC)},
	}
	path := filepath.Join(t.TempDir(), "rows.parquet")
	require.NoError(t, WriteParquet(path, in))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	p, err := Load(context.Background(), Spec{Path: path})
	require.NoError(t, err)
	rows, rep := shapeUTC(p)
	assert.Equal(t, 2, rep.Kept)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alpha", rows[0].Project)
	require.NotNil(t, rows[0].CP5)
	assert.True(t, cp5.Equal(*rows[0].CP5))
	assert.Nil(t, rows[1].CP5)
}

func TestValidateFile(t *testing.T) {
	good := writeFile(t, "ok.json", `{"tables":{}}`)
	assert.NoError(t, ValidateFile(good))

	bad := writeFile(t, "bad.yaml", "fields: 3\n")
	err := ValidateFile(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, payload.ErrInvalidPayload))

	other := writeFile(t, "x.csv", "a\n")
	assert.True(t, errors.Is(ValidateFile(other), ErrUnsupportedSource))
}
