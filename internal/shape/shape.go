// Package shape turns host records into chart rows.
package shape

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cpgantt/internal/dateparse"
	"cpgantt/internal/model"
	"cpgantt/internal/payload"
)

// Report counts what happened to the input records of one shaping pass.
type Report struct {
	Input       int `json:"input"`
	Kept        int `json:"kept"`
	MissingTeam int `json:"missingTeam"`
	MissingCP3  int `json:"missingCP3"`
}

// Dropped is the number of records excluded from the render set.
func (r Report) Dropped() int { return r.MissingTeam + r.MissingCP3 }

func (r Report) String() string {
	return fmt.Sprintf("%d/%d rows kept (missing team: %d, missing cp3: %d)",
		r.Kept, r.Input, r.MissingTeam, r.MissingCP3)
}

// Shaper maps payload records to rows. The zero value uses DefaultFieldMap and local time.
type Shaper struct {
	Fields FieldMap
	Parser dateparse.Parser
}

// Shape builds rows from the payload's main table. Records without a team or without a
// parseable CP3 are dropped; a missing project falls back to the team.
func (s Shaper) Shape(p payload.Payload) ([]model.Row, Report) {
	fm := s.Fields
	if fm.empty() {
		fm = DefaultFieldMap()
	}
	ids := fm.resolve(p.Fields)

	records := p.Table()
	rep := Report{Input: len(records)}
	rows := make([]model.Row, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			rep.MissingTeam++
			continue
		}
		dims := rec.Dims()
		team := text(pick(dims, ids.team))
		if team == "" {
			rep.MissingTeam++
			continue
		}
		cp3, ok := s.Parser.Parse(pick(dims, ids.cp3))
		if !ok {
			rep.MissingCP3++
			continue
		}
		project := text(pick(dims, ids.project))
		if project == "" {
			project = team
		}
		rows = append(rows, model.Row{
			Team:    team,
			Project: project,
			CP3:     cp3,
			CP35:    s.optional(pick(dims, ids.cp35)),
			CP4:     s.optional(pick(dims, ids.cp4)),
			CP5:     s.optional(pick(dims, ids.cp5)),
			Key:     model.RowKey(team, project),
		})
	}
	rep.Kept = len(rows)
	return rows, rep
}

func (s Shaper) optional(v any) *time.Time {
	t, ok := s.Parser.Parse(v)
	if !ok {
		return nil
	}
	return &t
}

// pick returns the first non-empty value among ids, unwrapping single-element lists.
func pick(dims map[string]any, ids []string) any {
	for _, id := range ids {
		v, ok := dims[id]
		if !ok {
			continue
		}
		v = first(v)
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

func first(v any) any {
	switch x := v.(type) {
	case []any:
		if len(x) == 0 {
			return nil
		}
		return x[0]
	case []string:
		if len(x) == 0 {
			return nil
		}
		return x[0]
	}
	return v
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
