package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Up       key.Binding
	Down     key.Binding
	Today    key.Binding
	Month1   key.Binding
	Month3   key.Binding
	Month6   key.Binding
	Year     key.Binding
	PrevYear key.Binding
	NextYear key.Binding
	GoTo     key.Binding
	Reload   key.Binding
	Copy     key.Binding
	Clear    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "back one week")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "forward one week")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "b"), key.WithHelp("pgup", "back one month")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "f"), key.WithHelp("pgdn", "forward one month")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll rows up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll rows down")),
		Today:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "snap to today")),
		Month1:   key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "1 month window")),
		Month3:   key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "3 month window")),
		Month6:   key.NewBinding(key.WithKeys("6"), key.WithHelp("6", "6 month window")),
		Year:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "12 month window")),
		PrevYear: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous year")),
		NextYear: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next year")),
		GoTo:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to date")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload data")),
		Copy:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy rows")),
		Clear:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp and FullHelp satisfy help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Today, k.GoTo, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.PageUp, k.PageDown, k.PrevYear, k.NextYear},
		{k.Today, k.GoTo, k.Month1, k.Month3, k.Month6, k.Year},
		{k.Up, k.Down, k.Reload, k.Copy, k.Clear, k.Help, k.Quit},
	}
}
