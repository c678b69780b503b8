// Package viewmodel is the composition framework behind every screen.
//
// A screen is a tree of view models. Each node embeds a *Base (directly, or
// through List or Card) and may own children created with CreateChild. Children
// bubble their events to the parent and contribute their ribbon registers while
// they are active. Concrete view models customize behavior by implementing the
// hook interfaces (RibbonSource, ChildActivity, PageSource, CardSource, ...);
// the hooks are found on the owner value passed to the constructors.
package viewmodel

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/identity"
	"github.com/jask/finmgr/internal/localization"
	"github.com/jask/finmgr/internal/navigation"
	"github.com/jask/finmgr/internal/records"
	"github.com/jask/finmgr/internal/ribbon"
)

// DefaultPageSize is used when Services.PageSize is not set.
const DefaultPageSize = 50

// Services bundles the collaborators of a view model. Identity and Navigator may
// be nil.
type Services struct {
	API       api.Client
	Identity  identity.Provider
	Localizer localization.Localizer
	Navigator navigation.Navigator
	Enums     *EnumRegistry
	Logger    *slog.Logger
	PageSize  int
}

// ViewModel is any node of a view model tree.
type ViewModel interface {
	Core() *Base
}

// Disposer is implemented by view models holding resources.
type Disposer interface {
	Dispose(ctx context.Context) error
}

// RibbonSource supplies the own ribbon of a view model.
type RibbonSource interface {
	Ribbon(loc localization.Localizer) []ribbon.Register
}

// ChildActivity decides which children contribute to the ribbon.
type ChildActivity interface {
	IsChildActive(child ViewModel) bool
}

// Base carries the state shared by all view models.
type Base struct {
	services Services
	owner    any

	lastError     string
	lastErrorCode string

	stateChanged Event[struct{}]
	authRequired Event[string]
	uiAction     Event[UIAction]

	children []*child
}

// NewBase builds a base for owner. owner is inspected for hook interfaces and
// may be nil.
func NewBase(svc Services, owner any) *Base {
	if svc.Logger == nil {
		svc.Logger = slog.New(slog.DiscardHandler)
	}
	if svc.Enums == nil {
		svc.Enums = NewEnumRegistry()
	}
	if svc.PageSize <= 0 {
		svc.PageSize = DefaultPageSize
	}
	return &Base{services: svc, owner: owner}
}

func (b *Base) Core() *Base { return b }

func (b *Base) Services() Services                { return b.services }
func (b *Base) API() api.Client                   { return b.services.API }
func (b *Base) Localizer() localization.Localizer { return b.services.Localizer }
func (b *Base) Navigator() navigation.Navigator   { return b.services.Navigator }
func (b *Base) Logger() *slog.Logger              { return b.services.Logger }

// T localizes key, falling back to the key itself.
func (b *Base) T(key string) string {
	return localization.Text(b.services.Localizer, key, key)
}

// CheckAuthentication reports whether the view model may load data. A missing
// or failing identity provider does not block; an anonymous user raises
// AuthenticationRequired and returns false.
func (b *Base) CheckAuthentication(ctx context.Context) bool {
	if b.services.Identity == nil {
		return true
	}
	u, err := b.services.Identity.Current(ctx)
	if err != nil {
		b.services.Logger.Debug("identity unavailable", "err", err)
		return true
	}
	if !u.IsAuthenticated {
		b.RequireAuthentication("")
		return false
	}
	return true
}

// CurrentUser returns the current identity when it can be resolved.
func (b *Base) CurrentUser(ctx context.Context) (identity.User, bool) {
	if b.services.Identity == nil {
		return identity.User{}, false
	}
	u, err := b.services.Identity.Current(ctx)
	if err != nil {
		return identity.User{}, false
	}
	return u, true
}

// SetError stores an error. A code with a localized resource replaces message.
func (b *Base) SetError(code, message string) {
	b.lastErrorCode = code
	b.lastError = message
	if code != "" && b.services.Localizer != nil {
		if s := b.services.Localizer.Get(code); !s.ResourceNotFound {
			b.lastError = s.Value
		}
	}
}

// SetErrorFrom maps a failed backend call onto SetError. Typed API errors win,
// then the client's last error, then the error text.
func (b *Base) SetErrorFrom(err error) {
	var ae *api.Error
	switch {
	case errors.As(err, &ae):
		b.SetError(ae.Code, ae.Message)
	case b.services.API != nil && b.services.API.LastErrorCode() != "":
		b.SetError(b.services.API.LastErrorCode(), b.services.API.LastError())
	case err != nil:
		b.SetError(api.CodeInternal, err.Error())
	default:
		b.SetError(api.CodeInternal, "")
	}
}

func (b *Base) ClearError() {
	b.lastError, b.lastErrorCode = "", ""
}

func (b *Base) LastError() string     { return b.lastError }
func (b *Base) LastErrorCode() string { return b.lastErrorCode }

func (b *Base) OnStateChanged(fn func()) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return b.stateChanged.Subscribe(func(struct{}) { fn() })
}

func (b *Base) OnAuthenticationRequired(fn func(reason string)) (unsubscribe func()) {
	return b.authRequired.Subscribe(fn)
}

func (b *Base) OnUIAction(fn func(UIAction)) (unsubscribe func()) {
	return b.uiAction.Subscribe(fn)
}

func (b *Base) NotifyStateChanged()                { b.stateChanged.Emit(struct{}{}) }
func (b *Base) RequireAuthentication(reason string) { b.authRequired.Emit(reason) }
func (b *Base) RequestUIAction(a UIAction)          { b.uiAction.Emit(a) }

// RibbonRegisters returns the own registers followed by those of every active
// child, or nil when there are none.
func (b *Base) RibbonRegisters(loc localization.Localizer) []ribbon.Register {
	if loc == nil {
		loc = b.services.Localizer
	}
	var out []ribbon.Register
	if src, ok := b.owner.(RibbonSource); ok {
		out = append(out, src.Ribbon(loc)...)
	}
	activity, _ := b.owner.(ChildActivity)
	for _, c := range b.children {
		if activity != nil && !activity.IsChildActive(c.vm) {
			continue
		}
		out = append(out, c.vm.Core().RibbonRegisters(loc)...)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ApplyEnumTranslations replaces the text of enum fields with their localized
// labels when a translation exists.
func (b *Base) ApplyEnumTranslations(record *records.CardRecord) {
	if record == nil {
		return
	}
	for _, f := range record.Fields {
		name, ok := enumLookupName(f.LookupType)
		if !ok || f.Text == "" {
			continue
		}
		if s := b.localize(enumKey(name, f.Text)); !s.ResourceNotFound {
			f.Text = s.Value
		}
	}
}

func (b *Base) localize(key string) localization.String {
	if b.services.Localizer == nil {
		return localization.String{Name: key, Value: key, ResourceNotFound: true}
	}
	return b.services.Localizer.Get(key)
}

// ParentLink is the context of a card opened from a lookup's "add" action.
type ParentLink struct {
	Kind  string
	ID    uuid.UUID
	Field string
}

// ReadParentLink reads parentKind, parentId and parentField from the current
// location.
func (b *Base) ReadParentLink() (ParentLink, bool) {
	nav := b.services.Navigator
	if nav == nil {
		return ParentLink{}, false
	}
	kind, ok := nav.Query("parentKind")
	if !ok || kind == "" {
		return ParentLink{}, false
	}
	link := ParentLink{Kind: kind}
	if raw, ok := nav.Query("parentId"); ok {
		if id, err := uuid.Parse(raw); err == nil {
			link.ID = id
		}
	}
	link.Field, _ = nav.Query("parentField")
	return link, true
}

// Dispose disposes every child.
func (b *Base) Dispose(ctx context.Context) error {
	var errs []error
	for len(b.children) > 0 {
		if err := b.DisposeChild(ctx, b.children[0].vm); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
