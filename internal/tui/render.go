package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/finmgr/internal/localization"
	"github.com/jask/finmgr/internal/records"
	"github.com/jask/finmgr/internal/ribbon"
)

// flattenRibbon lists the selectable actions in the order renderRibbon draws them.
func flattenRibbon(regs []ribbon.Register) []ribbon.Action {
	return ribbon.Flatten(ribbon.Merge(regs))
}

// renderRibbon draws the tabs in one line per register kind. selected is an
// index into flattenRibbon, or -1.
func renderRibbon(regs []ribbon.Register, selected, width int) string {
	var lines []string
	i := 0
	for _, r := range ribbon.Merge(regs) {
		var tabs []string
		for _, t := range r.Tabs {
			parts := []string{ribbonTitleStyle.Render(t.Title)}
			for _, a := range t.Actions {
				label := a.Label
				if a.Icon != "" {
					label = a.Icon + " " + label
				}
				if a.AcceptsFile() {
					label += "…"
				}
				style := ribbonActionStyle
				switch {
				case i == selected:
					style = ribbonSelectedStyle
				case a.Disabled:
					style = ribbonDisabledStyle
				case a.Size == ribbon.Large:
					style = ribbonLargeStyle
				}
				parts = append(parts, style.Render(label))
				i++
			}
			tabs = append(tabs, strings.Join(parts, ""))
		}
		lines = append(lines, strings.Join(tabs, mutedStyle.Render(" │ ")))
	}
	if len(lines) == 0 {
		return ""
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func columnWidths(cols []records.ListColumn, width int) []int {
	widths := make([]int, len(cols))
	fixed, flex := 0, 0
	for i, c := range cols {
		if c.Width > 0 {
			widths[i] = c.Width
			fixed += c.Width
		} else {
			flex++
		}
	}
	fixed += len(cols) - 1
	if flex > 0 {
		share := max(8, (width-fixed)/flex)
		for i := range widths {
			if widths[i] == 0 {
				widths[i] = share
			}
		}
	}
	return widths
}

func position(a records.Align) lipgloss.Position {
	switch a {
	case records.AlignRight:
		return lipgloss.Right
	case records.AlignCenter:
		return lipgloss.Center
	}
	return lipgloss.Left
}

func renderCell(c records.ListCell, currency string) string {
	switch c.Kind {
	case records.CellSymbol:
		if c.SymbolID != nil {
			return symbolStyle.Render("◆")
		}
		return ""
	case records.CellCurrency:
		if c.Amount == nil {
			return ""
		}
		return styleAmount(*c.Amount, formatAmount(*c.Amount, currency))
	}
	if c.Muted {
		return mutedStyle.Render(c.Text)
	}
	return c.Text
}

// renderTable draws a list with a header line. cursor < 0 hides the cursor.
func renderTable(cols []records.ListColumn, rows []records.ListRecord, cursor, width, height int, currency string) string {
	if len(cols) == 0 {
		return ""
	}
	widths := columnWidths(cols, width)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = fit(columnHeaderStyle.Render(c.Title), widths[i], position(c.Align))
	}
	lines := []string{strings.Join(header, " ")}

	rowLines := func(r records.ListRecord) int {
		if r.Hint != "" {
			return 2
		}
		return 1
	}
	budget := height - 1
	start, used := 0, 0
	for i := 0; i <= cursor && i < len(rows); i++ {
		used += rowLines(rows[i])
	}
	if used > budget {
		start, used = cursor, rowLines(rows[cursor])
		for start > 0 && used+rowLines(rows[start-1]) <= budget {
			start--
			used += rowLines(rows[start])
		}
	}

	for i := start; i < len(rows); i++ {
		r := rows[i]
		cells := make([]string, len(cols))
		for j := range cols {
			var cell records.ListCell
			if j < len(r.Cells) {
				cell = r.Cells[j]
			}
			cells[j] = fit(renderCell(cell, currency), widths[j], position(cols[j].Align))
		}
		line := strings.Join(cells, " ")
		if i == cursor {
			line = cursorRowStyle.Render(line)
		}
		lines = append(lines, line)
		if r.Hint != "" {
			lines = append(lines, fit(hintStyle.Render("  ↳ "+r.Hint), width, lipgloss.Left))
		}
	}
	return clipHeight(strings.Join(lines, "\n"), height)
}

func fieldLabel(loc localization.Localizer, f *records.CardField) string {
	return localization.Text(loc, f.LabelKey, strings.TrimPrefix(f.LabelKey, "Card_"))
}

func fieldValue(f *records.CardField, currency string) string {
	var v string
	switch f.Kind {
	case records.FieldBoolean:
		v = "[ ]"
		if f.BoolValue != nil && *f.BoolValue {
			v = "[x]"
		}
	case records.FieldCurrency:
		if f.Amount != nil {
			v = styleAmount(*f.Amount, formatAmount(*f.Amount, currency))
		} else {
			v = f.Text
		}
	case records.FieldSymbol:
		v = "–"
		if f.SymbolID != nil {
			v = symbolStyle.Render("◆ ") + f.SymbolID.String()[:8]
		}
	default:
		v = f.Text
	}
	if f.IsLookup() && f.Editable {
		v += mutedStyle.Render(" ▾")
	}
	if !f.Editable {
		v = readOnlyStyle.Render(v)
	}
	return v
}

// renderCard draws the fields of rec. cursor < 0 hides the cursor.
func renderCard(rec *records.CardRecord, cursor int, loc localization.Localizer, currency string, width int) string {
	if rec == nil {
		return ""
	}
	lines := make([]string, 0, len(rec.Fields))
	for i, f := range rec.Fields {
		line := labelStyle.Render(fieldLabel(loc, f)) + fieldValue(f, currency)
		if f.Hint != "" {
			line += hintStyle.Render("  " + f.Hint)
		}
		line = fit(line, width, lipgloss.Left)
		if i == cursor {
			line = cursorRowStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
