// Package tui hosts the view models in a terminal. It owns navigation, renders
// lists, cards and ribbons, and turns UI actions into screen changes.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/identity"
	"github.com/jask/finmgr/internal/localization"
	"github.com/jask/finmgr/internal/navigation"
	"github.com/jask/finmgr/internal/pages"
	"github.com/jask/finmgr/internal/records"
	"github.com/jask/finmgr/internal/ribbon"
	"github.com/jask/finmgr/internal/secrets"
	"github.com/jask/finmgr/internal/viewmodel"
)

// Options configures the host. Client and Bundle are required.
type Options struct {
	Client   api.Client
	Identity identity.Provider
	Bundle   *localization.Bundle
	Language string
	Logger   *slog.Logger
	PageSize int
	Currency string
	Start    string

	// Tokens persists the session token of Server after a login. Optional.
	Tokens *secrets.Store
	Server string

	// OnLanguage is called with the preferred language of a user after a login
	// that switched the language. Optional.
	OnLanguage func(lang string)
}

// navOrder is the order of the header tabs and their number keys.
var navOrder = []string{
	pages.KindAccounts,
	pages.KindContacts,
	pages.KindSavingsPlans,
	pages.KindSecurities,
	pages.KindPostings,
	pages.KindUsers,
	pages.KindBackups,
}

type focus int

const (
	focusBody focus = iota
	focusRibbon
)

type modalState string

const (
	modalNone    modalState = ""
	modalLogin   modalState = "login"
	modalPrompt  modalState = "prompt"
	modalLookup  modalState = "lookup"
	modalMessage modalState = "message"
)

// App is the bubbletea model of the host.
type App struct {
	ctx     context.Context
	opts    Options
	logger  *slog.Logger
	history *navigation.History
	loc     localization.Localizer
	enums   *viewmodel.EnumRegistry
	keys    keyMap

	// mu guards what view model callbacks write from a running operation.
	mu      sync.Mutex
	actions []viewmodel.UIAction
	authReq string

	busy  bool
	frame string

	route  pages.Route
	list   pages.ListPage
	card   pages.CardPage
	unsub  []func()
	panels []viewmodel.Panel

	focus    focus
	cursor   int
	ribbonAt int

	searching bool
	search    textinput.Model

	modal   modalState
	login   loginForm
	prompt  prompt
	lookup  lookupPicker
	message string

	status    string
	statusErr bool
	notice    string // shown once the next operation succeeds
	width     int
	height    int
}

// New builds the host at opts.Start, or at the accounts list.
func New(ctx context.Context, opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Identity == nil {
		opts.Identity = identity.APIProvider{Client: opts.Client}
	}
	start := opts.Start
	if _, ok := pages.ParseRoute(start); !ok {
		start = pages.ListURI(pages.KindAccounts, nil)
	}
	enums := viewmodel.NewEnumRegistry()
	pages.RegisterEnums(enums)

	search := textinput.New()
	search.Prompt = "/ "
	a := &App{
		ctx:     ctx,
		opts:    opts,
		logger:  opts.Logger,
		history: navigation.NewHistory(start),
		loc:     opts.Bundle.Localizer(localization.ScopePages, opts.Language),
		enums:   enums,
		keys:    defaultKeys(),
		search:  search,
		width:   100,
		height:  30,
	}
	a.login = newLoginForm()
	return a
}

func (a *App) Init() tea.Cmd {
	return a.mount()
}

// doneMsg ends an operation started by run.
type doneMsg struct {
	err     error
	actions []viewmodel.UIAction
	auth    string
}

// run executes op off the update loop. The screen is frozen on the last frame
// and keys are ignored until it completes.
func (a *App) run(op func(ctx context.Context) error) tea.Cmd {
	a.status, a.statusErr = a.t("App_Loading", "Loading…"), false
	a.frame = a.render()
	a.busy = true
	return func() tea.Msg {
		err := op(a.ctx)
		a.mu.Lock()
		defer a.mu.Unlock()
		msg := doneMsg{err: err, actions: a.actions, auth: a.authReq}
		a.actions, a.authReq = nil, ""
		return msg
	}
}

func (a *App) services() viewmodel.Services {
	return viewmodel.Services{
		API:       a.opts.Client,
		Identity:  a.opts.Identity,
		Localizer: a.loc,
		Navigator: a.history,
		Enums:     a.enums,
		Logger:    a.logger,
		PageSize:  a.opts.PageSize,
	}
}

// watch collects the UI actions and authentication requests of vm.
func (a *App) watch(vm viewmodel.ViewModel) {
	core := vm.Core()
	a.unsub = append(a.unsub,
		core.OnUIAction(func(act viewmodel.UIAction) {
			a.mu.Lock()
			a.actions = append(a.actions, act)
			a.mu.Unlock()
		}),
		core.OnAuthenticationRequired(func(reason string) {
			a.mu.Lock()
			a.authReq = reason
			a.mu.Unlock()
		}),
	)
}

func (a *App) current() viewmodel.ViewModel {
	if a.card != nil {
		return a.card
	}
	if a.list != nil {
		return a.list
	}
	return nil
}

func (a *App) unmount() {
	for _, u := range a.unsub {
		u()
	}
	a.unsub = nil
	if vm := a.current(); vm != nil {
		var err error
		if d, ok := vm.(viewmodel.Disposer); ok {
			err = d.Dispose(a.ctx)
		}
		if err != nil {
			a.logger.Warn("dispose page", "uri", a.history.URI(), "err", err)
		}
	}
	a.list, a.card, a.panels = nil, nil, nil
}

// mount builds the page of the current location and initializes it.
func (a *App) mount() tea.Cmd {
	a.unmount()
	route, ok := pages.ParseRoute(a.history.URI())
	if !ok {
		a.logger.Debug("unknown location", "uri", a.history.URI())
		a.history.NavigateTo(pages.ListURI(pages.KindAccounts, nil))
		route, _ = pages.ParseRoute(a.history.URI())
	}
	a.route = route
	a.focus, a.cursor, a.ribbonAt = focusBody, 0, 0
	a.searching = false
	a.search.Blur()

	svc := a.services()
	if route.Card {
		card := pages.Cards[route.Kind](svc)
		a.card = card
		a.watch(card)
		return a.run(func(ctx context.Context) error {
			card.Initialize(ctx, route.ID)
			return nil
		})
	}
	list := pages.Lists[route.Kind](svc)
	a.list = list
	a.watch(list)
	a.search.SetValue("")
	return a.run(list.Initialize)
}

func (a *App) t(k, fallback string) string { return localization.Text(a.loc, k, fallback) }

func (a *App) setError(err error) {
	a.status, a.statusErr = err.Error(), true
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		a.status = apiErr.Message
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		if a.busy {
			return a, nil
		}
	case tea.KeyMsg:
		if m.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.busy {
			return a, nil
		}
		return a.handleKey(m)
	case doneMsg:
		return a, a.handleDone(m)
	case loginMsg:
		return a, a.handleLogin(m)
	case lookupMsg:
		a.handleLookup(m)
	}
	return a, nil
}

func (a *App) handleDone(m doneMsg) tea.Cmd {
	a.busy = false
	a.status, a.statusErr = "", false
	if m.err != nil {
		a.setError(m.err)
	} else if vm := a.current(); vm != nil && vm.Core().LastErrorCode() != "" {
		a.status, a.statusErr = vm.Core().LastError(), true
	}
	if m.auth != "" {
		a.logger.Info("authentication required", "reason", m.auth)
		a.openLogin()
	}

	remount := false
	for _, act := range m.actions {
		switch {
		case act.Panel != nil:
			a.showPanel(*act.Panel)
			continue
		case act.Overlay != nil:
			a.modal, a.message = modalMessage, a.overlayText(*act.Overlay)
			continue
		}
		switch act.Name {
		case viewmodel.ActionOpen:
			a.history.NavigateTo(act.PayloadString())
			remount = true
		case viewmodel.ActionBack:
			remount = a.back() || remount
		case viewmodel.ActionDeleted:
			if !a.back() {
				a.history.NavigateTo(pages.ListURI(a.route.Kind, nil))
			}
			a.notice = a.t("App_Deleted", "Deleted.")
			remount = true
		case viewmodel.ActionNew:
			if _, ok := pages.Cards[a.route.Kind]; ok {
				a.history.NavigateTo(pages.CardURI(a.route.Kind, uuid.Nil, nil))
				remount = true
			}
		case viewmodel.ActionReload:
			remount = true
		case viewmodel.ActionSaved:
			a.notice = a.t("App_Saved", "Saved.")
		case viewmodel.ActionNotify:
			a.notice = a.notifyText(act.Payload)
		case viewmodel.ActionClearFilter:
			a.search.SetValue("")
		}
	}
	if a.list != nil {
		_, rows := a.list.Table()
		a.cursor = min(a.cursor, max(0, len(rows)-1))
	}
	if remount {
		return a.mount()
	}
	if a.notice != "" && !a.statusErr {
		a.status = a.notice
	}
	a.notice = ""
	return nil
}

func (a *App) back() bool {
	return a.history.Back()
}

func (a *App) notifyText(payload any) string {
	switch p := payload.(type) {
	case *api.ImportResult:
		s := fmt.Sprintf(a.t("App_Imported", "Imported %d, skipped %d."), p.Imported, p.Skipped)
		if len(p.Errors) > 0 {
			s += " " + strings.Join(p.Errors, "; ")
		}
		return s
	case string:
		return fmt.Sprintf(a.t("App_BackupCreated", "Backup %s created."), p)
	}
	return fmt.Sprint(payload)
}

func (a *App) overlayText(o viewmodel.Overlay) string {
	lines := []string{a.t(o.Component, o.Component)}
	if imported, ok := o.Parameters["imported"].(int); ok {
		skipped, _ := o.Parameters["skipped"].(int)
		lines = append(lines, fmt.Sprintf(a.t("App_Imported", "Imported %d, skipped %d."), imported, skipped))
	}
	if errs, ok := o.Parameters["errors"].([]string); ok {
		lines = append(lines, "")
		for _, e := range errs {
			lines = append(lines, "- "+e)
		}
	}
	return strings.Join(lines, "\n")
}

func (a *App) showPanel(p viewmodel.Panel) {
	if p.Child == nil {
		return
	}
	if slices.ContainsFunc(a.panels, func(q viewmodel.Panel) bool { return q.Child.Core() == p.Child.Core() }) {
		return
	}
	a.panels = append(a.panels, p)
}

// activePanels filters the panels the page still shows.
func (a *App) activePanels() []viewmodel.Panel {
	vm := a.current()
	ca, ok := vm.(viewmodel.ChildActivity)
	if !ok {
		return a.panels
	}
	var out []viewmodel.Panel
	for _, p := range a.panels {
		if ca.IsChildActive(p.Child) {
			out = append(out, p)
		}
	}
	return out
}

func (a *App) ribbonRegisters() []ribbon.Register {
	vm := a.current()
	if vm == nil {
		return nil
	}
	return vm.Core().RibbonRegisters(a.loc)
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.modal != modalNone {
		return a, a.handleModalKey(m)
	}
	if a.searching {
		return a, a.handleSearchKey(m)
	}
	switch {
	case key.Matches(m, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(m, a.keys.Ribbon):
		if a.focus == focusRibbon {
			a.focus = focusBody
		} else if len(flattenRibbon(a.ribbonRegisters())) > 0 {
			a.focus = focusRibbon
		}
		return a, nil
	case key.Matches(m, a.keys.Logout):
		return a, a.logout()
	}
	if n := navIndex(m.String()); n >= 0 {
		a.history.NavigateTo(pages.ListURI(navOrder[n], nil))
		return a, a.mount()
	}
	if a.focus == focusRibbon {
		return a, a.handleRibbonKey(m)
	}
	if a.card != nil {
		return a, a.handleCardKey(m)
	}
	if a.list != nil {
		return a, a.handleListKey(m)
	}
	return a, nil
}

func navIndex(s string) int {
	if len(s) != 1 || s[0] < '1' || s[0] > '9' {
		return -1
	}
	n := int(s[0] - '1')
	if n >= len(navOrder) {
		return -1
	}
	return n
}

func (a *App) handleRibbonKey(m tea.KeyMsg) tea.Cmd {
	entries := flattenRibbon(a.ribbonRegisters())
	if len(entries) == 0 {
		a.focus = focusBody
		return nil
	}
	a.ribbonAt = min(a.ribbonAt, len(entries)-1)
	switch {
	case key.Matches(m, a.keys.Left), key.Matches(m, a.keys.Up):
		if a.ribbonAt > 0 {
			a.ribbonAt--
		}
	case key.Matches(m, a.keys.Right), key.Matches(m, a.keys.Down):
		if a.ribbonAt < len(entries)-1 {
			a.ribbonAt++
		}
	case key.Matches(m, a.keys.Back):
		a.focus = focusBody
	case key.Matches(m, a.keys.Select):
		act := entries[a.ribbonAt]
		if act.Disabled {
			return nil
		}
		if act.AcceptsFile() {
			a.openPrompt(promptFile, a.t("App_Path", "File path"), "", nil, act)
			return nil
		}
		return a.run(act.Invoke)
	}
	return nil
}

func (a *App) handleListKey(m tea.KeyMsg) tea.Cmd {
	_, rows := a.list.Table()
	switch {
	case key.Matches(m, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(m, a.keys.Down):
		if a.cursor < len(rows)-1 {
			a.cursor++
		} else if a.list.MoreAvailable() {
			return a.run(a.list.LoadMore)
		}
	case key.Matches(m, a.keys.Select):
		if len(rows) == 0 {
			return nil
		}
		idx, list := a.cursor, a.list
		return a.run(func(context.Context) error {
			list.Open(idx)
			return nil
		})
	case key.Matches(m, a.keys.Search):
		a.searching = true
		return a.search.Focus()
	case key.Matches(m, a.keys.Filter):
		contacts, ok := a.list.(*pages.ContactsList)
		if !ok {
			return nil
		}
		a.cursor = 0
		next := nextContactType(contacts.Type)
		return a.run(func(ctx context.Context) error {
			contacts.SetType(next)
			return contacts.Load(ctx)
		})
	case key.Matches(m, a.keys.New):
		if _, ok := pages.Cards[a.route.Kind]; !ok {
			return nil
		}
		a.history.NavigateTo(pages.CardURI(a.route.Kind, uuid.Nil, nil))
		return a.mount()
	case key.Matches(m, a.keys.LoadMore):
		if a.list.MoreAvailable() {
			return a.run(a.list.LoadMore)
		}
	case key.Matches(m, a.keys.Reload):
		return a.run(a.list.Load)
	case key.Matches(m, a.keys.Back):
		if a.back() {
			return a.mount()
		}
	}
	return nil
}

func (a *App) handleSearchKey(m tea.KeyMsg) tea.Cmd {
	switch m.Type {
	case tea.KeyEsc:
		a.searching = false
		a.search.Blur()
		return nil
	case tea.KeyEnter:
		a.searching = false
		a.search.Blur()
		a.cursor = 0
		list, q := a.list, strings.TrimSpace(a.search.Value())
		return a.run(func(ctx context.Context) error {
			list.SetSearch(q)
			return list.Load(ctx)
		})
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(m)
	return cmd
}

func (a *App) cardField() *records.CardField {
	rec := a.card.Rendered()
	if rec == nil || a.cursor < 0 || a.cursor >= len(rec.Fields) {
		return nil
	}
	return rec.Fields[a.cursor]
}

func (a *App) handleCardKey(m tea.KeyMsg) tea.Cmd {
	var n int
	if rec := a.card.Rendered(); rec != nil {
		n = len(rec.Fields)
	}
	card := a.card
	switch {
	case key.Matches(m, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(m, a.keys.Down):
		if a.cursor < n-1 {
			a.cursor++
		}
	case key.Matches(m, a.keys.Save):
		return a.run(func(ctx context.Context) error {
			card.Save(ctx)
			return nil
		})
	case key.Matches(m, a.keys.Clear):
		f := a.cardField()
		if f == nil || !f.Editable || !f.IsLookup() {
			return nil
		}
		return a.run(func(context.Context) error {
			card.ValidateLookupField(f, nil)
			return nil
		})
	case key.Matches(m, a.keys.Back):
		if a.back() {
			return a.mount()
		}
	case key.Matches(m, a.keys.Select):
		return a.editField(a.cardField())
	}
	return nil
}

// editField starts the editor that fits the kind of f.
func (a *App) editField(f *records.CardField) tea.Cmd {
	if f == nil || !f.Editable {
		return nil
	}
	card := a.card
	switch {
	case f.IsLookup():
		return a.openLookup(f)
	case f.Kind == records.FieldBoolean:
		v := f.BoolValue == nil || !*f.BoolValue
		return a.run(func(context.Context) error {
			card.ValidateFieldValue(f, records.BoolValue(v))
			return nil
		})
	case f.Kind == records.FieldSymbol:
		a.openPrompt(promptSymbol, a.t("App_Path", "File path"), "", f, ribbon.Action{})
		return nil
	}
	value := f.Text
	if f.Kind == records.FieldCurrency && f.Amount != nil {
		value = f.Amount.String()
	}
	a.openPrompt(promptText, fieldLabel(a.loc, f), value, f, ribbon.Action{})
	return nil
}

func (a *App) logout() tea.Cmd {
	client, tokens, server := a.opts.Client, a.opts.Tokens, a.opts.Server
	cmd := a.run(func(ctx context.Context) error {
		err := client.Logout(ctx)
		if tokens != nil {
			if ferr := tokens.Forget(server); ferr != nil {
				a.logger.Warn("forget token", "server", server, "err", ferr)
			}
		}
		return err
	})
	a.openLogin()
	return cmd
}

func (a *App) View() string {
	if a.busy {
		return a.frame
	}
	a.frame = a.render()
	return a.frame
}

func (a *App) render() string {
	width := max(40, a.width)
	header := a.renderHeader(width)
	rib := renderRibbon(a.ribbonRegisters(), a.selectedRibbon(), width)
	status := a.renderStatus(width)
	footer := renderHelp(width, a.helpBindings())

	used := lipgloss.Height(header) + lipgloss.Height(status) + lipgloss.Height(footer)
	if rib != "" {
		used += lipgloss.Height(rib)
	}
	bodyHeight := max(3, a.height-used)

	var body string
	if a.modal != modalNone {
		body = lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center, a.renderModal(width))
	} else {
		body = clipHeight(a.renderBody(width, bodyHeight), bodyHeight)
		if pad := bodyHeight - lipgloss.Height(body); pad > 0 {
			body += strings.Repeat("\n", pad)
		}
	}

	parts := []string{header}
	if rib != "" {
		parts = append(parts, rib)
	}
	parts = append(parts, body, status, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) selectedRibbon() int {
	if a.focus != focusRibbon {
		return -1
	}
	return a.ribbonAt
}

func (a *App) helpBindings() []key.Binding {
	switch {
	case a.focus == focusRibbon:
		return a.keys.ribbonHelp()
	case a.card != nil:
		return a.keys.cardHelp()
	}
	return a.keys.listHelp()
}

func (a *App) renderHeader(width int) string {
	line := headerAppStyle.Render(a.t("App_Title", "finmgr"))
	for i, kind := range navOrder {
		label := fmt.Sprintf("%d %s", i+1, a.t("Nav_"+kind, kind))
		if kind == a.route.Kind {
			line += activeTabStyle.Render(label)
		} else {
			line += inactiveTabStyle.Render(label)
		}
	}
	return renderBar(headerBarStyle, width, line)
}

func (a *App) renderStatus(width int) string {
	text := a.status
	if a.searching {
		text = a.search.View()
	} else if text == "" && a.list != nil && a.search.Value() != "" {
		text = a.t("App_Search", "Search") + ": " + a.search.Value()
	}
	if a.statusErr {
		return renderBar(statusErrBarStyle, width, " "+text)
	}
	return renderBar(statusBarStyle, width, " "+text)
}

func (a *App) renderBody(width, height int) string {
	if a.card != nil {
		body := renderCard(a.card.Rendered(), a.bodyCursor(), a.loc, a.opts.Currency, width)
		for _, p := range a.activePanels() {
			body += "\n" + a.renderPanel(p, width)
		}
		return body
	}
	if a.list == nil {
		return ""
	}
	cols, rows := a.list.Table()
	if len(rows) == 0 {
		if a.list.IsLoading() {
			return mutedStyle.Render(a.t("App_Loading", "Loading…"))
		}
		return mutedStyle.Render(a.t("App_Empty", "Nothing here yet."))
	}
	table := renderTable(cols, rows, a.bodyCursor(), width, height, a.opts.Currency)
	if a.list.MoreAvailable() {
		table = clipHeight(table, height-1) + "\n" + mutedStyle.Render("… m")
	}
	return table
}

func (a *App) bodyCursor() int {
	if a.focus != focusBody {
		return -1
	}
	return a.cursor
}

type tabler interface {
	Table() ([]records.ListColumn, []records.ListRecord)
}

func (a *App) renderPanel(p viewmodel.Panel, width int) string {
	t, ok := p.Child.(tabler)
	if !ok {
		return ""
	}
	cols, rows := t.Table()
	title := ribbonTitleStyle.Render(a.t("Panel_"+p.Component, p.Component))
	inner := width - 4
	body := mutedStyle.Render(a.t("App_Empty", "Nothing here yet."))
	if len(rows) > 0 {
		body = renderTable(cols, rows, -1, inner, 12, a.opts.Currency)
	}
	return panelStyle.Width(inner).Render(title + "\n" + body)
}
