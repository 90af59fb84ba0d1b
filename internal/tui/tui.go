// Package tui is the terminal host for the checkpoint chart: it rasterizes scenes into the
// alt screen, maps keys and mouse events onto the viewport controller, and shows tooltips
// and the active row filter in a footer.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"cpgantt/internal/chart"
	"cpgantt/internal/model"
	"cpgantt/internal/payload"
)

// Options configures Run.
type Options struct {
	Chart *chart.Chart
	// Initial overrides the chart's initial window when valid.
	Initial model.Window
	// Months and Start shape the starting window when Initial is unset.
	Months int
	Start  time.Time
	// Reload fetches a fresh payload for the r key. Nil disables reloading.
	Reload func(context.Context) (payload.Payload, error)
	Logger *log.Logger
	Now    func() time.Time
}

// Run blocks until the user quits.
func Run(opts Options) error {
	if opts.Chart == nil {
		return errors.New("tui: no chart")
	}
	applyColorProfilePreference()
	applyThemePreference()

	m := newAppModel(opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	return err
}
