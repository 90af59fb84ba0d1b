package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"cpgantt/internal/chart"
	"cpgantt/internal/dateparse"
	"cpgantt/internal/interact"
	"cpgantt/internal/logging"
	"cpgantt/internal/model"
	"cpgantt/internal/payload"
	"cpgantt/internal/render"
	"cpgantt/internal/viewport"
)

const (
	footerLines = 4
	headerLines = 2
	// A second press of the same arrow within tapRepeatWindow is an auto-repeat.
	tapRepeatWindow = 550 * time.Millisecond
	// A held arrow counts as released after releaseSilence without repeats.
	releaseSilence = 180 * time.Millisecond
	wheelStep      = 2
	flashDuration  = 3 * time.Second
	reloadTimeout  = 30 * time.Second
)

type (
	minuteMsg    time.Time
	releaseMsg   struct {
		seq int
		at  time.Time
	}
	flashDoneMsg struct{ seq int }
	reloadedMsg  struct {
		payload payload.Payload
		err     error
	}
)

// canvas is the drawing state shared by every copy of the model.
type canvas struct {
	filter *model.RowFilter
	dirty  bool
	scene  render.Scene
	lines  []string
	err    error
}

type appModel struct {
	chart  *chart.Chart
	ctrl   *viewport.Controller
	sched  *teaScheduler
	disp   *interact.Dispatcher
	canvas *canvas
	keys   keyMap
	help   help.Model
	input  textinput.Model
	logger *log.Logger
	now    func() time.Time
	reload func(context.Context) (payload.Payload, error)
	clip   func(string) error

	width    int
	height   int
	scroll   int
	showHelp bool
	goTo     bool

	// Terminals never report key release; a held arrow arrives as repeated presses.
	heldKey     viewport.Key
	lastArrow   viewport.Key
	lastArrowAt time.Time
	releaseSeq  int

	dragging  bool
	dragMoved bool
	pressX    int

	flash    string
	flashSeq int
}

func newAppModel(opts Options) appModel {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	c := &canvas{dirty: true}
	sched := newTeaScheduler()

	win := opts.Initial
	if !win.Valid() {
		win = opts.Chart.ResolveWindow(now(), opts.Start, opts.Months)
	}
	style := opts.Chart.Style()
	ctrl := viewport.New(win, sched, viewport.Options{
		Location:      opts.Chart.Location(),
		EnableDrag:    style.EnableDrag,
		EnableWheel:   style.EnableWheel,
		KeyboardAccel: style.KeyboardAccel,
		OnChange:      func(model.Window) { c.dirty = true },
	})

	disp := interact.New(interact.HostFuncs{
		Apply: func(f model.RowFilter) {
			logger.Info("row filter applied", "team", f.Team, "project", f.Project)
			c.filter = &f
			c.dirty = true
		},
		Clear: func() {
			if c.filter == nil {
				return
			}
			logger.Info("row filter cleared")
			c.filter = nil
			c.dirty = true
		},
	})
	disp.Now = now

	input := textinput.New()
	input.Prompt = "go to: "
	input.Placeholder = "2025-03-24"
	input.CharLimit = 32

	return appModel{
		chart:  opts.Chart,
		ctrl:   ctrl,
		sched:  sched,
		disp:   disp,
		canvas: c,
		keys:   defaultKeyMap(),
		help:   help.New(),
		input:  input,
		logger: logger,
		now:    now,
		reload: opts.Reload,
		clip:   copyToClipboard,
	}
}

func minuteTick() tea.Cmd {
	return tea.Every(time.Minute, func(t time.Time) tea.Msg { return minuteMsg(t) })
}

func (m appModel) Init() tea.Cmd { return minuteTick() }

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.canvas.dirty = true

	case schedMsg:
		m.sched.fire(msg)

	case releaseMsg:
		if msg.seq == m.releaseSeq && m.heldKey != viewport.KeyNone {
			m.ctrl.KeyUp(m.heldKey, msg.at)
			m.heldKey = viewport.KeyNone
		}

	case minuteMsg:
		if c := m.canvas; c.lines != nil && c.err == nil {
			c.scene = c.scene.WithNow(time.Time(msg))
			c.lines = render.Raster(c.scene, int(c.scene.Frame.Width), int(c.scene.Frame.Height))
		}
		cmds = append(cmds, minuteTick())

	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}

	case reloadedMsg:
		var cmd tea.Cmd
		m, cmd = m.applyReload(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		m = m.handleMouse(msg)
	}

	if m.canvas.dirty {
		m = m.redraw()
	}
	cmds = append(cmds, m.sched.drain())
	return m, tea.Batch(cmds...)
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.goTo {
		return m.handleGoToKey(msg)
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Clear) {
			m.showHelp = false
			return m, nil
		}
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		return m, nil
	}

	now := m.now()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Left):
		return m.arrow(viewport.KeyLeft, now)
	case key.Matches(msg, m.keys.Right):
		return m.arrow(viewport.KeyRight, now)
	case key.Matches(msg, m.keys.PageUp):
		m.ctrl.KeyDown(viewport.KeyPageUp, now)
	case key.Matches(msg, m.keys.PageDown):
		m.ctrl.KeyDown(viewport.KeyPageDown, now)
	case key.Matches(msg, m.keys.Up):
		m = m.scrollBy(-1)
	case key.Matches(msg, m.keys.Down):
		m = m.scrollBy(1)
	case key.Matches(msg, m.keys.Today):
		m.ctrl.SnapToToday(now)
	case key.Matches(msg, m.keys.Month1):
		m.ctrl.SetWindow(1)
	case key.Matches(msg, m.keys.Month3):
		m.ctrl.SetWindow(3)
	case key.Matches(msg, m.keys.Month6):
		m.ctrl.SetWindow(6)
	case key.Matches(msg, m.keys.Year):
		m.ctrl.SetWindow(12)
	case key.Matches(msg, m.keys.PrevYear):
		m.ctrl.JumpYear(-1)
	case key.Matches(msg, m.keys.NextYear):
		m.ctrl.JumpYear(1)
	case key.Matches(msg, m.keys.GoTo):
		m.goTo = true
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Reload):
		if m.reload == nil {
			return m.setFlash("nothing to reload")
		}
		return m, m.reloadCmd()
	case key.Matches(msg, m.keys.Copy):
		return m.copyRows()
	case key.Matches(msg, m.keys.Clear):
		m.disp.Leave()
		m.disp.Host.ClearRowFilter()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	}
	return m, nil
}

// arrow turns terminal key presses into controller key down/up pairs. A lone press is a
// tap; auto-repeats hold the key until releaseSilence passes without another repeat.
func (m appModel) arrow(k viewport.Key, now time.Time) (appModel, tea.Cmd) {
	repeat := m.lastArrow == k && now.Sub(m.lastArrowAt) < tapRepeatWindow
	m.lastArrow, m.lastArrowAt = k, now

	if !repeat {
		if m.heldKey != viewport.KeyNone {
			m.ctrl.KeyUp(m.heldKey, now)
			m.heldKey = viewport.KeyNone
		}
		m.ctrl.KeyDown(k, now)
		m.ctrl.KeyUp(k, now)
		return m, nil
	}

	if m.heldKey != k {
		if m.heldKey != viewport.KeyNone {
			m.ctrl.KeyUp(m.heldKey, now)
		}
		m.heldKey = k
		m.ctrl.KeyDown(k, now)
	}
	m.releaseSeq++
	seq := m.releaseSeq
	return m, tea.Tick(releaseSilence, func(t time.Time) tea.Msg { return releaseMsg{seq: seq, at: t} })
}

func (m appModel) handleGoToKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.goTo = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.goTo = false
		m.input.Blur()
		value := m.input.Value()
		t, ok := dateparse.Parser{Location: m.chart.Location()}.Parse(value)
		if !ok {
			return m.setFlash(fmt.Sprintf("not a date: %q", value))
		}
		m.ctrl.SetStart(t)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m appModel) handleMouse(msg tea.MouseMsg) appModel {
	if m.showHelp || m.goTo {
		return m
	}
	x, y := m.sceneXY(msg.X, msg.Y)
	inChart := msg.Y < m.chartLines()

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			if !inChart {
				return m
			}
			m.dragging, m.dragMoved = true, false
			m.pressX = msg.X
			m.ctrl.PointerDown(float64(msg.X))
		case tea.MouseButtonWheelLeft:
			m.ctrl.Wheel(-wheelStep, 0, false)
		case tea.MouseButtonWheelRight:
			m.ctrl.Wheel(wheelStep, 0, false)
		case tea.MouseButtonWheelUp:
			if !m.ctrl.Wheel(0, -wheelStep, msg.Shift) {
				m = m.scrollBy(-1)
			}
		case tea.MouseButtonWheelDown:
			if !m.ctrl.Wheel(0, wheelStep, msg.Shift) {
				m = m.scrollBy(1)
			}
		}

	case tea.MouseActionMotion:
		if m.dragging {
			if msg.X != m.pressX {
				m.dragMoved = true
			}
			m.disp.Leave()
			m.ctrl.PointerMove(float64(msg.X))
			return m
		}
		if inChart {
			m.disp.Hover(m.canvas.scene, x, y)
		} else {
			m.disp.Leave()
		}

	case tea.MouseActionRelease:
		if !m.dragging {
			return m
		}
		m.dragging = false
		m.ctrl.PointerUp()
		if !m.dragMoved && inChart {
			m.disp.Click(m.canvas.scene, x, y)
		}
	}
	return m
}

// sceneXY maps a terminal cell to the centre of that cell in scene coordinates.
func (m appModel) sceneXY(col, row int) (float64, float64) {
	if row >= headerLines {
		row += m.scroll
	}
	return float64(col) + 0.5, float64(row) + 0.5
}

func (m appModel) chartLines() int {
	return max(0, m.height-footerLines)
}

func (m appModel) scrollBy(d int) appModel {
	m.scroll = clampInt(m.scroll+d, 0, m.maxScroll())
	return m
}

func (m appModel) maxScroll() int {
	return max(0, len(m.canvas.lines)-m.chartLines())
}

// view is the chart restricted by the host-side row filter.
func (m appModel) view() *chart.Chart {
	if f := m.canvas.filter; f != nil {
		return m.chart.Filter(*f)
	}
	return m.chart
}

func (m appModel) redraw() appModel {
	c := m.canvas
	c.dirty = false
	lines := m.chartLines()
	if m.width <= 0 || lines <= 0 {
		c.lines, c.err = nil, chart.ErrNotReady
		return m
	}

	view := m.view()
	frame := render.TermFrame(m.width, lines)
	if h := view.NaturalHeight(frame); h > frame.Height {
		frame.Height = h
	}
	m.ctrl.Resize(frame.PlotWidth())

	scene, err := view.Draw(m.ctrl.Window(), frame, m.now())
	c.scene, c.err = scene, err
	if errors.Is(err, chart.ErrNotReady) {
		c.lines = nil
		return m
	}
	if err != nil {
		m.logger.Warn("draw failed", "err", err)
	}
	c.lines = render.Raster(scene, m.width, int(frame.Height))
	m.scroll = clampInt(m.scroll, 0, m.maxScroll())
	return m
}

func (m appModel) reloadCmd() tea.Cmd {
	reload := m.reload
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		p, err := reload(ctx)
		return reloadedMsg{payload: p, err: err}
	}
}

func (m appModel) applyReload(msg reloadedMsg) (appModel, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("reload failed", "err", msg.err)
		return m.setFlash("reload failed: " + msg.err.Error())
	}
	rep := m.chart.Load(msg.payload)
	m.logger.Info("payload reloaded", "kept", rep.Kept, "dropped", rep.Dropped())
	m.canvas.filter = nil
	m.canvas.dirty = true
	m.disp.Leave()
	return m.setFlash("reloaded: " + rep.String())
}

// copyRows puts the rows on screen (all of them, or the filtered one) on the clipboard.
func (m appModel) copyRows() (appModel, tea.Cmd) {
	rows := m.view().Rows()
	if len(rows) == 0 {
		return m.setFlash("no rows to copy")
	}
	if err := m.clip(rowsTSV(rows)); err != nil {
		m.logger.Warn("clipboard copy failed", "err", err)
		return m.setFlash("copy failed: " + err.Error())
	}
	return m.setFlash(fmt.Sprintf("copied %d rows", len(rows)))
}

func (m appModel) setFlash(s string) (appModel, tea.Cmd) {
	m.flash = s
	m.flashSeq++
	seq := m.flashSeq
	return m, tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashDoneMsg{seq: seq} })
}

func (m appModel) quit() (appModel, tea.Cmd) {
	m.ctrl.Detach()
	m.sched.stopAll()
	return m, tea.Quit
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
