package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

type keyMap struct {
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Select   key.Binding
	Back     key.Binding
	Ribbon   key.Binding
	Search   key.Binding
	Filter   key.Binding
	New      key.Binding
	Save     key.Binding
	LoadMore key.Binding
	Reload   key.Binding
	Clear    key.Binding
	Logout   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:     key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←", "prev")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:     key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Ribbon:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "ribbon")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Filter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "type")),
		New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		LoadMore: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "more")),
		Reload:   key.NewBinding(key.WithKeys("r", "f5"), key.WithHelp("r", "reload")),
		Clear:    key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "clear")),
		Logout:   key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "logout")),
	}
}

func (k keyMap) listHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Search, k.Filter, k.New, k.LoadMore, k.Ribbon, k.Quit}
}

func (k keyMap) cardHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Clear, k.Save, k.Back, k.Ribbon, k.Quit}
}

func (k keyMap) ribbonHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Select, k.Ribbon}
}

// renderHelp draws the footer from bindings.
func renderHelp(width int, bindings []key.Binding) string {
	space := lipgloss.NewStyle().Background(colorMantle).Render(" ")
	sep := lipgloss.NewStyle().Background(colorMantle).Render("  ")
	line := ""
	for i, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		if i > 0 {
			line += sep
		}
		line += keyStyle.Render(h.Key) + space + helpDescStyle.Render(h.Desc)
	}
	return renderBar(footerStyle, max(1, width), line)
}
