// Package pages holds the concrete view models of every screen and the registry
// the host routes through.
package pages

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/navigation"
	"github.com/jask/finmgr/internal/records"
	"github.com/jask/finmgr/internal/viewmodel"
)

// Route kinds. A kind is the first path segment of a location.
const (
	KindAccounts     = "accounts"
	KindContacts     = "contacts"
	KindSavingsPlans = "savings-plans"
	KindSecurities   = "securities"
	KindPostings     = "postings"
	KindUsers        = "users"
	KindBackups      = "backups"
)

// newSegment addresses the card of an entity that does not exist yet.
const newSegment = "new"

// Enum names used by lookups and resource keys.
const (
	EnumContactType  = "ContactType"
	EnumAccountType  = "AccountType"
	EnumInterval     = "SavingsPlanInterval"
	EnumPostingKind  = "PostingKind"
	EnumUserLanguage = "UserLanguage"
)

// Ribbon action ids.
const (
	ActionSave             = "Save"
	ActionDelete           = "Delete"
	ActionBack             = "Back"
	ActionNew              = "New"
	ActionReload           = "Reload"
	ActionLoadMore         = "LoadMore"
	ActionClearFilter      = "ClearFilter"
	ActionUploadSymbol     = "UploadSymbol"
	ActionUploadAttachment = "UploadAttachment"
	ActionImportPostings   = "ImportPostings"
	ActionShowPostings     = "ShowPostings"
	ActionShowAttachments  = "ShowAttachments"
	ActionOnlyActive       = "OnlyActive"
	ActionCreateBackup     = "CreateBackup"
)

// ListPage is what the host needs from a list screen.
type ListPage interface {
	viewmodel.ViewModel
	Initialize(ctx context.Context) error
	Load(ctx context.Context) error
	LoadMore(ctx context.Context) error
	Table() ([]records.ListColumn, []records.ListRecord)
	MoreAvailable() bool
	IsLoading() bool
	SetSearch(s string)
	// Open asks the host to show the record at index.
	Open(index int)
}

// CardPage is what the host needs from a card screen.
type CardPage interface {
	viewmodel.ViewModel
	Initialize(ctx context.Context, id uuid.UUID) bool
	Rendered() *records.CardRecord
	IsLoading() bool
	QueryLookup(ctx context.Context, field *records.CardField, query string, skip, take int) []records.LookupItem
	ValidateFieldValue(field *records.CardField, value records.PendingValue)
	ValidateLookupField(field *records.CardField, item *records.LookupItem)
	ValidateSymbol(ctx context.Context, r io.Reader, fileName, contentType string) *uuid.UUID
	HasPendingChanges() bool
	Save(ctx context.Context) bool
	Delete(ctx context.Context) bool
}

// Lists maps a route kind to its list screen.
var Lists = map[string]func(viewmodel.Services) ListPage{
	KindAccounts:     func(s viewmodel.Services) ListPage { return NewAccountsList(s) },
	KindContacts:     func(s viewmodel.Services) ListPage { return NewContactsList(s) },
	KindSavingsPlans: func(s viewmodel.Services) ListPage { return NewSavingsPlansList(s) },
	KindSecurities:   func(s viewmodel.Services) ListPage { return NewSecuritiesList(s) },
	KindPostings:     func(s viewmodel.Services) ListPage { return NewPostingsList(s) },
	KindUsers:        func(s viewmodel.Services) ListPage { return NewUsersList(s) },
	KindBackups:      func(s viewmodel.Services) ListPage { return NewBackupsList(s) },
}

// Cards maps a route kind to its card screen.
var Cards = map[string]func(viewmodel.Services) CardPage{
	KindAccounts:     func(s viewmodel.Services) CardPage { return NewAccountCard(s) },
	KindContacts:     func(s viewmodel.Services) CardPage { return NewContactCard(s) },
	KindSavingsPlans: func(s viewmodel.Services) CardPage { return NewSavingsPlanCard(s) },
	KindSecurities:   func(s viewmodel.Services) CardPage { return NewSecurityCard(s) },
	KindUsers:        func(s viewmodel.Services) CardPage { return NewUserCard(s) },
}

// Route is a parsed location.
type Route struct {
	Kind string
	Card bool
	ID   uuid.UUID // uuid.Nil on the card of a new entity
}

// ParseRoute understands "/kind", "/kind/new" and "/kind/<id>". Query strings
// are ignored.
func ParseRoute(location string) (Route, bool) {
	u, err := url.Parse(location)
	if err != nil {
		return Route{}, false
	}
	segs := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	switch len(segs) {
	case 1:
		if _, ok := Lists[segs[0]]; !ok {
			return Route{}, false
		}
		return Route{Kind: segs[0]}, true
	case 2:
		if _, ok := Cards[segs[0]]; !ok {
			return Route{}, false
		}
		if segs[1] == newSegment {
			return Route{Kind: segs[0], Card: true}, true
		}
		id, err := uuid.Parse(segs[1])
		if err != nil {
			return Route{}, false
		}
		return Route{Kind: segs[0], Card: true, ID: id}, true
	}
	return Route{}, false
}

// ListURI is the location of a list.
func ListURI(kind string, query map[string]string) string {
	return navigation.Build(query, kind)
}

// CardURI is the location of a card. uuid.Nil addresses a new entity.
func CardURI(kind string, id uuid.UUID, query map[string]string) string {
	seg := newSegment
	if id != uuid.Nil {
		seg = id.String()
	}
	return navigation.Build(query, kind, seg)
}

// RegisterEnums makes the enums of the api lookable by name.
func RegisterEnums(r *viewmodel.EnumRegistry) {
	viewmodel.RegisterEnum(r, EnumContactType, api.ContactTypes)
	viewmodel.RegisterEnum(r, EnumAccountType, api.AccountTypes)
	viewmodel.RegisterEnum(r, EnumInterval, api.SavingsPlanIntervals)
	viewmodel.RegisterEnum(r, EnumPostingKind, api.PostingKinds)
	r.Register(EnumUserLanguage, "en", "de")
}

// open asks the host to navigate.
func open(b *viewmodel.Base, location string) {
	b.RequestUIAction(viewmodel.Named(viewmodel.ActionOpen, location))
}

// lastErr turns the error state of a view model into an error for ribbon
// callbacks, nil when there is none.
func lastErr(b *viewmodel.Base) error {
	if b.LastErrorCode() == "" {
		return nil
	}
	return api.NewError(0, b.LastErrorCode(), b.LastError())
}
