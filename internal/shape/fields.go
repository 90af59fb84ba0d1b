package shape

import (
	"strings"

	"cpgantt/internal/payload"
)

// Logical field names, as used by config overrides (fields.team, fields.cp35, ...).
const (
	FieldTeam    = "team"
	FieldProject = "project"
	FieldCP3     = "cp3"
	FieldCP35    = "cp35"
	FieldCP4     = "cp4"
	FieldCP5     = "cp5"
)

// FieldMap lists, per logical field, the host column ids to try in order.
type FieldMap struct {
	Team    []string
	Project []string
	CP3     []string
	CP35    []string
	CP4     []string
	CP5     []string
}

// DefaultFieldMap returns the column synonyms the checkpoint feed is known to use.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Team:    []string{"team"},
		Project: []string{"summary", "projectName", "project", "Project Name"},
		CP3:     []string{"cp3Date", "cp3"},
		CP35:    []string{"cp35Date", "cp35"},
		CP4:     []string{"cp4Date", "cp4"},
		CP5:     []string{"cp5Date", "cp5"},
	}
}

func (m FieldMap) empty() bool {
	return len(m.Team)+len(m.Project)+len(m.CP3)+len(m.CP35)+len(m.CP4)+len(m.CP5) == 0
}

// WithOverrides returns a copy where each overridden logical field tries the given id first.
// Unknown logical names and blank ids are ignored.
func (m FieldMap) WithOverrides(overrides map[string]string) FieldMap {
	for logical, id := range overrides {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		slot := m.slot(logical)
		if slot == nil {
			continue
		}
		*slot = append([]string{id}, *slot...)
	}
	return m
}

func (m *FieldMap) slot(logical string) *[]string {
	switch strings.ToLower(strings.TrimSpace(logical)) {
	case FieldTeam:
		return &m.Team
	case FieldProject:
		return &m.Project
	case FieldCP3:
		return &m.CP3
	case FieldCP35:
		return &m.CP35
	case FieldCP4:
		return &m.CP4
	case FieldCP5:
		return &m.CP5
	}
	return nil
}

// resolved is a FieldMap expanded with the host's field metadata.
type resolved struct {
	team, project, cp3, cp35, cp4, cp5 []string
}

func (m FieldMap) resolve(meta payload.Fields) resolved {
	return resolved{
		team:    expand(m.Team, meta),
		project: expand(m.Project, meta),
		cp3:     expand(m.CP3, meta),
		cp35:    expand(m.CP35, meta),
		cp4:     expand(m.CP4, meta),
		cp5:     expand(m.CP5, meta),
	}
}

// expand returns the candidates followed by the ids of every host column whose config id
// or display name matches a candidate.
func expand(candidates []string, meta payload.Fields) []string {
	out := append([]string(nil), candidates...)
	seen := map[string]bool{}
	for _, c := range candidates {
		seen[c] = true
	}
	for _, c := range candidates {
		want := normalize(c)
		for _, fd := range meta {
			if fd.ID == "" || seen[fd.ID] {
				continue
			}
			if normalize(fd.ConfigID) == want || normalize(fd.Name) == want {
				out = append(out, fd.ID)
				seen[fd.ID] = true
			}
		}
	}
	return out
}

func normalize(s string) string {
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(s)), "")
}
