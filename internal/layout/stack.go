// Package layout places rows vertically and turns milestones into segment geometry.
package layout

import (
	"cpgantt/internal/model"
	"cpgantt/internal/scale"
)

// Options controls vertical placement.
type Options struct {
	RowHeight float64
	RowGap    float64
	GroupGap  float64
}

// DefaultOptions returns the standard spacing for a row height.
func DefaultOptions(rowHeight float64) Options {
	return Options{RowHeight: rowHeight, RowGap: 0, GroupGap: 6}
}

// Lane is one placed row.
type Lane struct {
	Row   model.Row
	Y     float64
	Color string
}

// Group is one team's block of lanes.
type Group struct {
	Team   string
	Color  string
	Top    float64
	Bottom float64
	Lanes  []Lane
}

// Stack is the vertical layout of every row.
type Stack struct {
	Groups  []Group
	Lanes   []Lane
	Offsets map[string]float64
	Height  float64
	Options Options
}

// NewStack groups rows by team in first-seen order, keeping shaping order inside a team,
// and advances a cursor by RowHeight+RowGap per row plus GroupGap after each team.
func NewStack(rows []model.Row, colors map[string]string, opts Options) Stack {
	var order []string
	byTeam := map[string][]model.Row{}
	for _, r := range rows {
		if _, ok := byTeam[r.Team]; !ok {
			order = append(order, r.Team)
		}
		byTeam[r.Team] = append(byTeam[r.Team], r)
	}

	st := Stack{Offsets: make(map[string]float64, len(rows)), Options: opts}
	cursor := 0.0
	for _, team := range order {
		g := Group{Team: team, Color: colors[team], Top: cursor}
		for _, r := range byTeam[team] {
			lane := Lane{Row: r, Y: cursor, Color: colors[team]}
			g.Lanes = append(g.Lanes, lane)
			st.Lanes = append(st.Lanes, lane)
			if _, dup := st.Offsets[r.Key]; !dup {
				st.Offsets[r.Key] = cursor
			}
			cursor += opts.RowHeight + opts.RowGap
		}
		g.Bottom = cursor - opts.RowGap
		cursor += opts.GroupGap
		st.Groups = append(st.Groups, g)
	}
	st.Height = cursor
	return st
}

// Keys returns the distinct lane keys in layout order.
func (s Stack) Keys() []string {
	seen := make(map[string]bool, len(s.Lanes))
	keys := make([]string, 0, len(s.Lanes))
	for _, l := range s.Lanes {
		if seen[l.Row.Key] {
			continue
		}
		seen[l.Row.Key] = true
		keys = append(keys, l.Row.Key)
	}
	return keys
}

// Band is the row band scale over [0, Height].
func (s Stack) Band() scale.Band {
	return scale.NewBand(s.Keys(), 0, s.Height)
}

// Rows returns the laid-out rows in lane order.
func (s Stack) Rows() []model.Row {
	out := make([]model.Row, len(s.Lanes))
	for i, l := range s.Lanes {
		out[i] = l.Row
	}
	return out
}
