package viewmodel

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/records"
)

// CardSource loads the entity of a card. uuid.Nil asks for a blank entity to
// create. A nil item with a nil error means the entity does not exist.
type CardSource[T any] interface {
	LoadCard(ctx context.Context, id uuid.UUID) (*T, error)
	BuildCard(item *T) *records.CardRecord
}

// Saver persists the pending values of a card.
type Saver interface {
	SaveCard(ctx context.Context) error
}

// Deleter removes the entity of a card.
type Deleter interface {
	DeleteCard(ctx context.Context) error
}

// SymbolHandler enables symbol uploads on a card.
type SymbolHandler interface {
	SymbolUploadAllowed() bool
	SymbolParent() (api.AttachmentEntityKind, uuid.UUID)
	AssignNewSymbol(ctx context.Context, attachmentID uuid.UUID) error
}

// Card edits a single entity of type T.
type Card[T any] struct {
	*Base

	ID      uuid.UUID
	Item    *T
	Record  *records.CardRecord
	Loading bool

	pending map[string]records.PendingValue
}

// NewCard builds a card whose hooks are looked up on owner.
func NewCard[T any](svc Services, owner any) *Card[T] {
	return &Card[T]{Base: NewBase(svc, owner), pending: map[string]records.PendingValue{}}
}

// IsNew reports whether the card creates a new entity.
func (c *Card[T]) IsNew() bool { return c.ID == uuid.Nil }

// Initialize loads the entity unless authentication is required.
func (c *Card[T]) Initialize(ctx context.Context, id uuid.UUID) bool {
	if !c.CheckAuthentication(ctx) {
		return false
	}
	return c.Load(ctx, id)
}

// Load fetches the entity and rebuilds the record. Pending values are dropped.
// Failures end up in LastError.
func (c *Card[T]) Load(ctx context.Context, id uuid.UUID) bool {
	src, ok := c.owner.(CardSource[T])
	if !ok {
		c.SetError(api.CodeInternal, "card has no source")
		return false
	}
	c.Loading = true
	c.ClearError()
	defer func() {
		c.Loading = false
		c.NotifyStateChanged()
	}()

	c.ID = id
	clear(c.pending)
	item, err := src.LoadCard(ctx, id)
	if err != nil || item == nil {
		// nothing of a previous entity may be saved under id
		c.Item, c.Record = nil, nil
		if err != nil {
			c.SetErrorFrom(err)
		} else {
			c.SetError(api.CodeNotFound, "not found")
		}
		return false
	}
	c.Item = item
	c.Rebuild()
	return true
}

// Rebuild projects Item into Record and reapplies pending values.
func (c *Card[T]) Rebuild() {
	src, ok := c.owner.(CardSource[T])
	if !ok || c.Item == nil {
		return
	}
	rec := src.BuildCard(c.Item)
	if err := rec.Validate(); err != nil {
		c.Logger().Warn("invalid card record", "err", err)
	}
	c.ApplyEnumTranslations(rec)
	c.ApplyPendingValues(rec)
	c.Record = rec
}

// ValidateFieldValue records a pending value for field. It does not check
// business rules.
func (c *Card[T]) ValidateFieldValue(field *records.CardField, value records.PendingValue) {
	if field == nil {
		return
	}
	if value == nil {
		delete(c.pending, field.LabelKey)
		c.Rebuild()
	} else {
		c.pending[field.LabelKey] = value
		if f := c.Record.Field(field.LabelKey); f != nil {
			records.Apply(f, value)
		}
	}
	c.NotifyStateChanged()
}

// ValidateLookupField records a lookup pick; nil unsets the field.
func (c *Card[T]) ValidateLookupField(field *records.CardField, item *records.LookupItem) {
	if item == nil {
		c.ValidateFieldValue(field, nil)
		return
	}
	c.ValidateFieldValue(field, records.LookupValue(*item))
}

// ApplyPendingValues writes every pending value onto the matching field.
func (c *Card[T]) ApplyPendingValues(record *records.CardRecord) {
	if record == nil {
		return
	}
	for _, f := range record.Fields {
		if v, ok := c.pending[f.LabelKey]; ok {
			records.Apply(f, v)
		}
	}
}

// PendingValue returns the pending value of a field.
func (c *Card[T]) PendingValue(labelKey string) (records.PendingValue, bool) {
	v, ok := c.pending[labelKey]
	return v, ok
}

func (c *Card[T]) HasPendingChanges() bool { return len(c.pending) > 0 }

func (c *Card[T]) ClearPending() { clear(c.pending) }

// ValidateSymbol uploads a symbol for the card's entity and returns the new
// attachment id. Any failure yields nil.
func (c *Card[T]) ValidateSymbol(ctx context.Context, r io.Reader, fileName, contentType string) *uuid.UUID {
	h, ok := c.owner.(SymbolHandler)
	if !ok || c.Item == nil || !h.SymbolUploadAllowed() || c.API() == nil {
		return nil
	}
	kind, parent := h.SymbolParent()
	att, err := c.API().UploadAttachment(ctx, kind, parent, r, fileName, contentType, api.AttachmentRoleSymbol)
	if err != nil || att == nil {
		c.Logger().Debug("symbol upload failed", "file", fileName, "err", err)
		return nil
	}
	if err := h.AssignNewSymbol(ctx, att.ID); err != nil {
		c.Logger().Debug("symbol assignment failed", "attachment", att.ID, "err", err)
		return nil
	}
	id := att.ID
	return &id
}

// Save persists the card and rebuilds the record from Item, which the saver is
// expected to refresh. Without a Saver there is nothing to do.
func (c *Card[T]) Save(ctx context.Context) bool {
	s, ok := c.owner.(Saver)
	if !ok {
		return true
	}
	if c.Item == nil {
		c.SetError(api.CodeNotFound, "nothing loaded")
		return false
	}
	c.ClearError()
	if err := s.SaveCard(ctx); err != nil {
		c.SetErrorFrom(err)
		c.NotifyStateChanged()
		return false
	}
	c.ClearPending()
	c.Rebuild()
	c.NotifyStateChanged()
	return true
}

// Delete removes the entity. Cards without a Deleter cannot be deleted.
func (c *Card[T]) Delete(ctx context.Context) bool {
	d, ok := c.owner.(Deleter)
	if !ok {
		return false
	}
	c.ClearError()
	if err := d.DeleteCard(ctx); err != nil {
		c.SetErrorFrom(err)
		c.NotifyStateChanged()
		return false
	}
	c.RequestUIAction(Named(ActionDeleted, c.ID.String()))
	return true
}

// Rendered returns the current record, nil until loaded.
func (c *Card[T]) Rendered() *records.CardRecord { return c.Record }

func (c *Card[T]) IsLoading() bool { return c.Loading }
