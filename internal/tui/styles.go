package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Catppuccin Mocha, the subset the host uses.
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
	colorMantle   lipgloss.Color = "#181825"
)

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorMuted   = colorOverlay1
)

var (
	headerBarStyle   = lipgloss.NewStyle().Background(colorMantle).Foreground(colorText)
	headerAppStyle   = lipgloss.NewStyle().Foreground(colorAccent).Background(colorMantle).Bold(true).Padding(0, 1)
	activeTabStyle   = lipgloss.NewStyle().Background(colorSurface0).Foreground(colorAccent).Bold(true).Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().Background(colorMantle).Foreground(colorOverlay0).Padding(0, 1)

	ribbonTitleStyle    = lipgloss.NewStyle().Foreground(colorTeal).Bold(true)
	ribbonActionStyle   = lipgloss.NewStyle().Foreground(colorText).Padding(0, 1)
	ribbonLargeStyle    = ribbonActionStyle.Bold(true)
	ribbonDisabledStyle = lipgloss.NewStyle().Foreground(colorOverlay0).Padding(0, 1)
	ribbonSelectedStyle = lipgloss.NewStyle().Background(colorSurface1).Foreground(colorFocus).Bold(true).Padding(0, 1)

	columnHeaderStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	cursorRowStyle    = lipgloss.NewStyle().Background(colorSurface0)
	mutedStyle        = lipgloss.NewStyle().Foreground(colorMuted)
	hintStyle         = lipgloss.NewStyle().Foreground(colorOverlay0).Italic(true)
	negativeStyle     = lipgloss.NewStyle().Foreground(colorRed)
	positiveStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	symbolStyle       = lipgloss.NewStyle().Foreground(colorPeach)

	labelStyle    = lipgloss.NewStyle().Foreground(colorOverlay1).Width(24)
	readOnlyStyle = lipgloss.NewStyle().Foreground(colorOverlay0)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSurface1).Padding(0, 1)
	modalStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFocus).Padding(1, 2)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)

	statusBarStyle    = lipgloss.NewStyle().Foreground(colorSuccess).Background(colorSurface0)
	statusErrBarStyle = lipgloss.NewStyle().Foreground(colorError).Background(colorSurface0)
	footerStyle       = lipgloss.NewStyle().Background(colorMantle)
	keyStyle          = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Background(colorMantle)
	helpDescStyle     = lipgloss.NewStyle().Foreground(colorMuted).Background(colorMantle)
)

// renderBar draws text as a single full-width line.
func renderBar(style lipgloss.Style, width int, text string) string {
	line := strings.ReplaceAll(text, "\n", " ")
	line = ansi.Truncate(line, width, "")
	if w := ansi.StringWidth(line); w < width {
		line += strings.Repeat(" ", width-w)
	}
	return style.Width(width).MaxWidth(width).Render(line)
}

// fit pads or truncates s to exactly width cells.
func fit(s string, width int, align lipgloss.Position) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "…")
	pad := width - ansi.StringWidth(s)
	if pad <= 0 {
		return s
	}
	switch align {
	case lipgloss.Right:
		return strings.Repeat(" ", pad) + s
	case lipgloss.Center:
		left := pad / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
	default:
		return s + strings.Repeat(" ", pad)
	}
}

func clipHeight(s string, height int) string {
	if height <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}
