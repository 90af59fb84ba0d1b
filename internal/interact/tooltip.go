package interact

import (
	"fmt"
	"math"
	"time"

	"cpgantt/internal/model"
)

const dateLayout = "2006-01-02"

// Tooltip describes the row under the pointer.
type Tooltip struct {
	Team          string
	Project       string
	From          time.Time
	To            *time.Time
	DaysRemaining *int
	X, Y          float64
}

// NewTooltip builds the tooltip for row at (x, y).
func NewTooltip(row model.Row, x, y float64, now time.Time) Tooltip {
	tt := Tooltip{Team: row.Team, Project: row.Project, From: row.CP3, X: x, Y: y}
	if row.CP5 != nil {
		to := *row.CP5
		tt.To = &to
		days := DaysRemaining(to, now)
		tt.DaysRemaining = &days
	}
	return tt
}

// DaysRemaining is ceil((cp5 - now) / 24h).
func DaysRemaining(cp5, now time.Time) int {
	return int(math.Ceil(cp5.Sub(now).Hours() / 24))
}

// Range is the active date range, or "CP3 → unknown" when the chain is open.
func (t Tooltip) Range() string {
	if t.To == nil {
		return fmt.Sprintf("CP3 → unknown (from %s)", t.From.Format(dateLayout))
	}
	return fmt.Sprintf("CP3 → CP5: %s → %s", t.From.Format(dateLayout), t.To.Format(dateLayout))
}

// Lines renders the tooltip text.
func (t Tooltip) Lines() []string {
	lines := []string{t.Team + " — " + t.Project, t.Range()}
	if t.DaysRemaining != nil {
		lines = append(lines, fmt.Sprintf("Days remaining: %d", *t.DaysRemaining))
	}
	return lines
}
