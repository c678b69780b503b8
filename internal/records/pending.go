package records

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PendingValue is an edit held by a card until it is saved. The concrete
// variants are TextValue, NumberValue, ReferenceValue, LookupValue, BoolValue and
// DateValue.
type PendingValue interface {
	pending()
}

// TextValue is raw user input. It resolves against the field kind when applied.
type TextValue string

// NumberValue is a parsed amount.
type NumberValue decimal.Decimal

// ReferenceValue is a bare identifier, e.g. a freshly uploaded symbol.
type ReferenceValue uuid.UUID

// LookupValue is an item picked from a lookup query.
type LookupValue LookupItem

type BoolValue bool

type DateValue time.Time

func (TextValue) pending()      {}
func (NumberValue) pending()    {}
func (ReferenceValue) pending() {}
func (LookupValue) pending()    {}
func (BoolValue) pending()      {}
func (DateValue) pending()      {}

// DateLayout is the text form of date fields.
const DateLayout = "2006-01-02"

// Apply writes a pending value onto the field.
//
// Text input is resolved in a fixed order: a decimal for currency fields, then an
// identifier, then the text itself. Blank text clears a currency field.
func Apply(f *CardField, v PendingValue) {
	if f == nil || v == nil {
		return
	}
	switch val := v.(type) {
	case LookupValue:
		id := val.Key
		f.ValueID = &id
		f.Text = val.Name
	case ReferenceValue:
		setReference(f, uuid.UUID(val))
	case NumberValue:
		d := decimal.Decimal(val)
		f.Amount = &d
	case TextValue:
		s := string(val)
		if f.Kind == FieldCurrency {
			if strings.TrimSpace(s) == "" {
				f.Amount, f.Text = nil, ""
				return
			}
			if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
				f.Amount = &d
				return
			}
		}
		if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
			setReference(f, id)
			return
		}
		f.Text = s
	case BoolValue:
		b := bool(val)
		f.BoolValue = &b
	case DateValue:
		f.Text = time.Time(val).Format(DateLayout)
	}
}

func setReference(f *CardField, id uuid.UUID) {
	f.ValueID = &id
	if f.Kind == FieldSymbol {
		sym := id
		f.SymbolID = &sym
	}
}
