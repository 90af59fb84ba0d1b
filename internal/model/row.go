package model

import (
	"sort"
	"time"
)

// Milestone ids, in checkpoint order.
const (
	CP3  = "CP3"
	CP35 = "CP3.5"
	CP4  = "CP4"
	CP5  = "CP5"
)

// Row is one chart lane. Rows are built fresh on every shaping pass and never mutated.
type Row struct {
	Team    string     `json:"team"`
	Project string     `json:"project"`
	CP3     time.Time  `json:"cp3"`
	CP35    *time.Time `json:"cp35,omitempty"`
	CP4     *time.Time `json:"cp4,omitempty"`
	CP5     *time.Time `json:"cp5,omitempty"`
	Key     string     `json:"key"`
}

// RowKey is the stable identity of a lane.
func RowKey(team, project string) string {
	return team + "|" + project
}

// Milestone is a present checkpoint date on a row.
type Milestone struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`
}

// Milestones returns the row's present milestones sorted ascending by date.
// Ties keep checkpoint order.
func (r Row) Milestones() []Milestone {
	out := []Milestone{{ID: CP3, Date: r.CP3}}
	for _, m := range []struct {
		id string
		t  *time.Time
	}{{CP35, r.CP35}, {CP4, r.CP4}, {CP5, r.CP5}} {
		if m.t != nil {
			out = append(out, Milestone{ID: m.id, Date: *m.t})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// End returns CP5 when present, else CP3.
func (r Row) End() time.Time {
	if r.CP5 != nil {
		return *r.CP5
	}
	return r.CP3
}

// RowFilter is the outbound "apply row filter" request.
type RowFilter struct {
	Team    string `json:"team"`
	Project string `json:"project,omitempty"`
}

// Matches reports whether r passes the filter. An empty Project matches every project of Team.
func (f RowFilter) Matches(r Row) bool {
	if f.Team != r.Team {
		return false
	}
	return f.Project == "" || f.Project == r.Project
}
