package tui

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/localization"
	"github.com/jask/finmgr/internal/pages"
	"github.com/jask/finmgr/internal/records"
	"github.com/jask/finmgr/internal/ribbon"
	"github.com/jask/finmgr/internal/viewmodel"
)

const lookupTake = 20

type loginForm struct {
	user textinput.Model
	pass textinput.Model
	at   int
	err  string
}

func newLoginForm() loginForm {
	user := textinput.New()
	user.CharLimit = 64
	pass := textinput.New()
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 128
	return loginForm{user: user, pass: pass}
}

type loginMsg struct {
	res *api.LoginResponse
	err error
}

type promptKind int

const (
	promptText promptKind = iota
	promptSymbol
	promptFile
)

type prompt struct {
	kind   promptKind
	title  string
	input  textinput.Model
	field  *records.CardField
	action ribbon.Action
	err    string
}

type lookupPicker struct {
	field  *records.CardField
	input  textinput.Model
	items  []records.LookupItem
	cursor int
	seq    int
}

type lookupMsg struct {
	seq   int
	query string
	items []records.LookupItem
}

func (a *App) openLogin() {
	a.modal = modalLogin
	a.login.err = ""
	a.login.pass.SetValue("")
	a.login.at = 0
	a.login.pass.Blur()
	a.login.user.Focus()
}

func (a *App) openPrompt(kind promptKind, title, value string, f *records.CardField, act ribbon.Action) {
	in := textinput.New()
	in.SetValue(value)
	in.CursorEnd()
	in.Focus()
	a.prompt = prompt{kind: kind, title: title, input: in, field: f, action: act}
	a.modal = modalPrompt
}

func (a *App) openLookup(f *records.CardField) tea.Cmd {
	in := textinput.New()
	in.Prompt = "› "
	in.Focus()
	a.lookup = lookupPicker{field: f, input: in, seq: a.lookup.seq}
	a.modal = modalLookup
	return a.queryLookup()
}

func (a *App) closeModal() {
	if a.modal == modalLookup {
		// drop results still in flight
		a.lookup.seq++
	}
	a.modal = modalNone
}

func (a *App) handleModalKey(m tea.KeyMsg) tea.Cmd {
	switch a.modal {
	case modalLogin:
		return a.handleLoginKey(m)
	case modalPrompt:
		return a.handlePromptKey(m)
	case modalLookup:
		return a.handleLookupKey(m)
	case modalMessage:
		a.closeModal()
	}
	return nil
}

func (a *App) handleLoginKey(m tea.KeyMsg) tea.Cmd {
	switch m.Type {
	case tea.KeyEsc:
		a.closeModal()
		return nil
	case tea.KeyTab, tea.KeyDown, tea.KeyUp, tea.KeyShiftTab:
		a.login.at = 1 - a.login.at
	case tea.KeyEnter:
		if a.login.at == 0 {
			a.login.at = 1
			break
		}
		return a.submitLogin()
	default:
		var cmd tea.Cmd
		if a.login.at == 0 {
			a.login.user, cmd = a.login.user.Update(m)
		} else {
			a.login.pass, cmd = a.login.pass.Update(m)
		}
		return cmd
	}
	if a.login.at == 0 {
		a.login.pass.Blur()
		return a.login.user.Focus()
	}
	a.login.user.Blur()
	return a.login.pass.Focus()
}

func (a *App) submitLogin() tea.Cmd {
	user := strings.TrimSpace(a.login.user.Value())
	pass := a.login.pass.Value()
	if user == "" {
		return nil
	}
	a.login.err = ""
	a.frame = a.render()
	a.busy = true
	client, tokens, server, logger := a.opts.Client, a.opts.Tokens, a.opts.Server, a.logger
	return func() tea.Msg {
		res, err := client.Login(a.ctx, user, pass)
		if err == nil && tokens != nil {
			if serr := tokens.SaveToken(server, res.Token); serr != nil {
				logger.Warn("save token", "server", server, "err", serr)
			}
		}
		return loginMsg{res: res, err: err}
	}
}

func (a *App) handleLogin(m loginMsg) tea.Cmd {
	a.busy = false
	if m.err != nil {
		a.login.err = m.err.Error()
		var apiErr *api.Error
		if errors.As(m.err, &apiErr) && apiErr.Message != "" {
			a.login.err = apiErr.Message
		}
		a.login.pass.SetValue("")
		return nil
	}
	a.logger.Info("signed in", "user", m.res.User.Username)
	a.closeModal()
	a.login.pass.SetValue("")
	if lang := m.res.User.PreferredLanguage; lang != "" && lang != a.opts.Language {
		a.loc = a.opts.Bundle.Localizer(localization.ScopePages, lang)
		a.opts.Language = lang
		if a.opts.OnLanguage != nil {
			a.opts.OnLanguage(lang)
		}
	}
	return a.mount()
}

func (a *App) handlePromptKey(m tea.KeyMsg) tea.Cmd {
	switch m.Type {
	case tea.KeyEsc:
		a.closeModal()
		return nil
	case tea.KeyEnter:
		return a.submitPrompt()
	}
	var cmd tea.Cmd
	a.prompt.input, cmd = a.prompt.input.Update(m)
	return cmd
}

func (a *App) submitPrompt() tea.Cmd {
	p := a.prompt
	raw := p.input.Value()
	card := a.card
	switch p.kind {
	case promptText:
		v, err := a.parseFieldValue(p.field, raw)
		if err != "" {
			a.prompt.err = err
			return nil
		}
		a.closeModal()
		if card == nil {
			return nil
		}
		return a.run(func(context.Context) error {
			card.ValidateFieldValue(p.field, v)
			return nil
		})
	case promptSymbol, promptFile:
		path := expandHome(strings.TrimSpace(raw))
		if path == "" {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			a.logger.Debug("open upload", "path", path, "err", err)
			a.prompt.err = a.t("Error_FileOpen", "The file could not be opened.")
			return nil
		}
		a.closeModal()
		name, ctype := filepath.Base(path), contentType(path)
		return a.run(func(ctx context.Context) error {
			defer f.Close()
			if p.kind == promptFile {
				return p.action.InvokeFile(ctx, f, name, ctype)
			}
			if card != nil {
				card.ValidateSymbol(ctx, f, name, ctype)
			}
			return nil
		})
	}
	return nil
}

// parseFieldValue turns prompt text into the pending value for f. The second
// result is a user-facing error.
func (a *App) parseFieldValue(f *records.CardField, raw string) (records.PendingValue, string) {
	s := strings.TrimSpace(raw)
	switch f.Kind {
	case records.FieldCurrency:
		if s == "" {
			return records.TextValue(""), ""
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
		if err != nil {
			return nil, a.t("Error_InvalidAmount", "Amounts are written like 1234.56.")
		}
		return records.NumberValue(d), ""
	case records.FieldDate:
		if s == "" {
			return records.TextValue(""), ""
		}
		t, err := time.Parse(records.DateLayout, s)
		if err != nil {
			return nil, a.t("Error_InvalidDate", "Dates are written as YYYY-MM-DD.")
		}
		return records.DateValue(t), ""
	}
	return records.TextValue(raw), ""
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}

func contentType(path string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	return "application/octet-stream"
}

func (a *App) queryLookup() tea.Cmd {
	a.lookup.seq++
	seq, q, f, card, ctx := a.lookup.seq, a.lookup.input.Value(), a.lookup.field, a.card, a.ctx
	if card == nil {
		return nil
	}
	return func() tea.Msg {
		return lookupMsg{seq: seq, query: q, items: card.QueryLookup(ctx, f, q, 0, lookupTake)}
	}
}

func (a *App) handleLookup(m lookupMsg) {
	if a.modal != modalLookup || m.seq != a.lookup.seq {
		return
	}
	a.lookup.items = rankLookup(m.items, m.query)
	a.lookup.cursor = min(a.lookup.cursor, max(0, a.lookupEntries()-1))
}

// canAddContact reports whether the picker offers to create a contact named
// after the query.
func (a *App) canAddContact() bool {
	f := a.lookup.field
	q := strings.TrimSpace(a.lookup.input.Value())
	if f == nil || !f.AllowAdd || q == "" || !strings.EqualFold(f.LookupType, viewmodel.LookupContact) {
		return false
	}
	for _, it := range a.lookup.items {
		if strings.EqualFold(it.Name, q) {
			return false
		}
	}
	return true
}

func (a *App) lookupEntries() int {
	n := len(a.lookup.items)
	if a.canAddContact() {
		n++
	}
	return n
}

func (a *App) handleLookupKey(m tea.KeyMsg) tea.Cmd {
	switch m.Type {
	case tea.KeyEsc:
		a.closeModal()
		return nil
	case tea.KeyUp:
		if a.lookup.cursor > 0 {
			a.lookup.cursor--
		}
		return nil
	case tea.KeyDown:
		if a.lookup.cursor < a.lookupEntries()-1 {
			a.lookup.cursor++
		}
		return nil
	case tea.KeyEnter:
		return a.pickLookup()
	}
	before := a.lookup.input.Value()
	var cmd tea.Cmd
	a.lookup.input, cmd = a.lookup.input.Update(m)
	if a.lookup.input.Value() == before {
		return cmd
	}
	a.lookup.cursor = 0
	return tea.Batch(cmd, a.queryLookup())
}

func (a *App) pickLookup() tea.Cmd {
	card, f, route := a.card, a.lookup.field, a.route
	if card == nil || f == nil {
		a.closeModal()
		return nil
	}
	idx := a.lookup.cursor
	switch {
	case idx < len(a.lookup.items):
		item := a.lookup.items[idx]
		a.closeModal()
		return a.run(func(context.Context) error {
			card.ValidateLookupField(f, &item)
			return nil
		})
	case a.canAddContact():
		f.RecordCreationNameSuggestion = strings.TrimSpace(a.lookup.input.Value())
		typ := contactTypeFromFilter(f.LookupFilter)
		a.closeModal()
		return a.run(func(context.Context) error {
			pages.NewContactFromLookup(card.Core(), route.Kind, route.ID, f, typ)
			return nil
		})
	}
	return nil
}

// contactTypeFromFilter reads "Type=<type>" from a lookup filter.
func contactTypeFromFilter(filter string) api.ContactType {
	for _, part := range strings.FieldsFunc(filter, func(r rune) bool { return r == ';' || r == ',' }) {
		k, v, ok := strings.Cut(part, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), "type") {
			continue
		}
		if t, ok := api.ParseContactType(strings.TrimSpace(v)); ok {
			return t
		}
	}
	return api.ContactOther
}

// nextContactType cycles through all types; after the last one the filter is off.
func nextContactType(cur *api.ContactType) *api.ContactType {
	if cur == nil {
		t := api.ContactTypes[0]
		return &t
	}
	for i, t := range api.ContactTypes {
		if t == *cur && i+1 < len(api.ContactTypes) {
			next := api.ContactTypes[i+1]
			return &next
		}
	}
	return nil
}

func (a *App) renderModal(width int) string {
	inner := min(60, width-8)
	var b strings.Builder
	switch a.modal {
	case modalLogin:
		b.WriteString(ribbonTitleStyle.Render(a.t("App_Login", "Sign in")) + "\n\n")
		b.WriteString(labelStyle.Render(a.t("App_Username", "Username")) + a.login.user.View() + "\n")
		b.WriteString(labelStyle.Render(a.t("App_Password", "Password")) + a.login.pass.View())
		if a.login.err != "" {
			b.WriteString("\n\n" + errorStyle.Render(a.login.err))
		}
	case modalPrompt:
		b.WriteString(ribbonTitleStyle.Render(a.prompt.title) + "\n\n")
		b.WriteString(a.prompt.input.View())
		if a.prompt.err != "" {
			b.WriteString("\n\n" + errorStyle.Render(a.prompt.err))
		}
	case modalLookup:
		title := ""
		if a.lookup.field != nil {
			title = fieldLabel(a.loc, a.lookup.field)
		}
		b.WriteString(ribbonTitleStyle.Render(title) + "\n\n")
		b.WriteString(a.lookup.input.View() + "\n")
		for i, it := range a.lookup.items {
			b.WriteString("\n" + a.lookupLine(i, it.Name, inner))
		}
		if a.canAddContact() {
			label := fmt.Sprintf(a.t("App_AddNew", "Create \"%s\""), strings.TrimSpace(a.lookup.input.Value()))
			b.WriteString("\n" + a.lookupLine(len(a.lookup.items), "+ "+label, inner))
		}
		if a.lookupEntries() == 0 {
			b.WriteString("\n" + mutedStyle.Render(a.t("App_Empty", "Nothing here yet.")))
		}
	case modalMessage:
		b.WriteString(a.message)
	}
	return modalStyle.Width(inner).Render(b.String())
}

func (a *App) lookupLine(i int, text string, width int) string {
	line := fit("  "+text, width, lipgloss.Left)
	if i == a.lookup.cursor {
		return cursorRowStyle.Render(line)
	}
	return line
}
