package shape

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpgantt/internal/dateparse"
	"cpgantt/internal/model"
	"cpgantt/internal/payload"
)

func utcShaper() Shaper {
	return Shaper{Parser: dateparse.Parser{Location: time.UTC}}
}

func table(records ...payload.Record) payload.Payload {
	return payload.Payload{Tables: map[string][]payload.Record{payload.DefaultTable: records}}
}

func TestShape_DropsRowsWithoutTeamOrCP3(t *testing.T) {
	p := table(
		payload.Record{"dimID": map[string]any{"team": "TX", "summary": "Apollo", "cp3Date": "20250324"}},
		payload.Record{"dimID": map[string]any{"team": "TX", "summary": "NoStart", "cp3Date": "notadate"}},
		payload.Record{"dimID": map[string]any{"summary": "Orphan", "cp3Date": "20250324"}},
		payload.Record{"dimID": map[string]any{"team": "  ", "cp3Date": "20250324"}},
		nil,
	)
	rows, rep := utcShaper().Shape(p)

	require.Len(t, rows, 1)
	assert.Equal(t, "Apollo", rows[0].Project)
	assert.Equal(t, Report{Input: 5, Kept: 1, MissingTeam: 3, MissingCP3: 1}, rep)
	assert.Equal(t, 4, rep.Dropped())
	assert.LessOrEqual(t, len(rows), rep.Input)
}

func TestShape_ProjectDefaultsToTeam(t *testing.T) {
	rows, _ := utcShaper().Shape(table(payload.Record{"team": "BX", "cp3": 20250506}))
	require.Len(t, rows, 1)
	assert.Equal(t, "BX", rows[0].Project)
	assert.Equal(t, "BX|BX", rows[0].Key)
}

func TestShape_ParsesAllMilestonesAndUnwrapsLists(t *testing.T) {
	rows, _ := utcShaper().Shape(table(payload.Record{"dimID": map[string]any{
		"team":         []any{"TX"},
		"Project Name": []any{" Apollo "},
		"cp3Date":      []any{"24/Mar/25"},
		"cp35Date":     "20250501",
		"cp4Date":      float64(1751328000000),
		"cp5Date":      "2025-09-09",
	}}))
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "Apollo", r.Project)
	assert.Equal(t, time.Date(2025, 3, 24, 0, 0, 0, 0, time.UTC), r.CP3)
	require.NotNil(t, r.CP35)
	require.NotNil(t, r.CP4)
	require.NotNil(t, r.CP5)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), *r.CP4)
	assert.Equal(t, time.Date(2025, 9, 9, 0, 0, 0, 0, time.UTC), *r.CP5)
}

func TestShape_UnparseableOptionalMilestoneIsAbsent(t *testing.T) {
	rows, _ := utcShaper().Shape(table(payload.Record{"team": "TX", "cp3": "20250324", "cp4": "soon"}))
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].CP4)
}

func TestShape_ResolvesColumnsThroughFieldMetadata(t *testing.T) {
	p := table(payload.Record{"dimID": map[string]any{
		"qt_1": "TX", "qt_2": "Apollo", "qt_3": "20250324", "qt_4": "20250909",
	}})
	p.Fields = payload.Fields{
		{ID: "qt_1", Name: "Team"},
		{ID: "qt_2", Name: "Project Name"},
		{ID: "qt_3", ConfigID: "cp3Date"},
		{ID: "qt_4", Name: "CP5 Date"},
	}
	rows, rep := utcShaper().Shape(p)
	require.Len(t, rows, 1, "report: %s", rep)
	assert.Equal(t, "TX", rows[0].Team)
	assert.Equal(t, "Apollo", rows[0].Project)
	require.NotNil(t, rows[0].CP5)
}

func TestShape_OverridesTakePrecedence(t *testing.T) {
	s := utcShaper()
	s.Fields = DefaultFieldMap().WithOverrides(map[string]string{"team": "squad", "bogus": "x", "cp5": " "})
	rows, _ := s.Shape(table(payload.Record{"squad": "Red", "team": "Blue", "cp3": "20250324"}))
	require.Len(t, rows, 1)
	assert.Equal(t, "Red", rows[0].Team)
	assert.Equal(t, []string{"cp5Date", "cp5"}, s.Fields.CP5)
}

func TestShape_EmptyInputs(t *testing.T) {
	rows, rep := utcShaper().Shape(payload.Payload{})
	assert.Empty(t, rows)
	assert.Equal(t, Report{}, rep)

	rows, _ = utcShaper().Shape(table())
	assert.Empty(t, rows)
}

func TestShape_PreservesRecordOrder(t *testing.T) {
	rows, _ := utcShaper().Shape(table(
		payload.Record{"team": "TX", "project": "b", "cp3": "20250401"},
		payload.Record{"team": "BX", "project": "a", "cp3": "20250301"},
		payload.Record{"team": "TX", "project": "c", "cp3": "20250201"},
	))
	keys := make([]string, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"TX|b", "BX|a", "TX|c"}, keys)
	assert.IsType(t, model.Row{}, rows[0])
}
