// Package interact turns pointer events on a rendered scene into tooltips and row filter
// requests for the host.
package interact

import (
	"time"

	"cpgantt/internal/model"
	"cpgantt/internal/render"
)

// Host receives fire-and-forget filter requests.
type Host interface {
	ApplyRowFilter(model.RowFilter)
	ClearRowFilter()
}

// HostFuncs adapts two functions to Host.
type HostFuncs struct {
	Apply func(model.RowFilter)
	Clear func()
}

func (h HostFuncs) ApplyRowFilter(f model.RowFilter) {
	if h.Apply != nil {
		h.Apply(f)
	}
}

func (h HostFuncs) ClearRowFilter() {
	if h.Clear != nil {
		h.Clear()
	}
}

// Dispatcher tracks the open tooltip. It holds no filter state.
type Dispatcher struct {
	Host Host
	Now  func() time.Time

	tooltip *Tooltip
}

// New returns a dispatcher forwarding to host.
func New(host Host) *Dispatcher {
	return &Dispatcher{Host: host, Now: time.Now}
}

func (d *Dispatcher) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// Hover updates the tooltip for the row element under (x, y).
func (d *Dispatcher) Hover(s render.Scene, x, y float64) (Tooltip, bool) {
	e, ok := s.HitTest(x, y)
	if !ok || e.Row == nil {
		d.tooltip = nil
		return Tooltip{}, false
	}
	tt := NewTooltip(*e.Row, x, y, d.now())
	d.tooltip = &tt
	return tt, true
}

// Click requests a row filter for the element under (x, y), or clears the filter and hides
// the tooltip when the click lands on empty chart.
func (d *Dispatcher) Click(s render.Scene, x, y float64) {
	e, ok := s.HitTest(x, y)
	if !ok || e.Row == nil {
		d.tooltip = nil
		if d.Host != nil {
			d.Host.ClearRowFilter()
		}
		return
	}
	if d.Host != nil {
		d.Host.ApplyRowFilter(model.RowFilter{Team: e.Row.Team, Project: e.Row.Project})
	}
}

// Leave hides the tooltip.
func (d *Dispatcher) Leave() { d.tooltip = nil }

// Tooltip returns the open tooltip.
func (d *Dispatcher) Tooltip() (Tooltip, bool) {
	if d.tooltip == nil {
		return Tooltip{}, false
	}
	return *d.tooltip, true
}
