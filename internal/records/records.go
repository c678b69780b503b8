// Package records holds the generic rendering model for lists and cards. Any
// entity is projected into these types so the host never needs per-entity code.
package records

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// ListColumn describes one column of a generic list.
type ListColumn struct {
	Key   string
	Title string
	Width int // 0 lets the host decide
	Align Align
}

type CellKind int

const (
	CellText CellKind = iota
	CellSymbol
	CellCurrency
)

// ListCell is one rendered cell. Kind decides which of Text, SymbolID and Amount
// is meaningful.
type ListCell struct {
	Kind     CellKind
	Text     string
	SymbolID *uuid.UUID
	Amount   *decimal.Decimal
	IconURL  string
	Muted    bool
}

func TextCell(text string) ListCell { return ListCell{Kind: CellText, Text: text} }

func MutedCell(text string) ListCell { return ListCell{Kind: CellText, Text: text, Muted: true} }

func SymbolCell(id *uuid.UUID) ListCell { return ListCell{Kind: CellSymbol, SymbolID: id} }

func CurrencyCell(amount decimal.Decimal) ListCell {
	return ListCell{Kind: CellCurrency, Amount: &amount}
}

// ListRecord is one row. Hint, when set, is shown as a full-width annotation row.
type ListRecord struct {
	Cells []ListCell
	Item  any
	Hint  string
}

// Align pads or truncates cells so the record lines up with columns.
func (r ListRecord) Align(columns []ListColumn) ListRecord {
	if len(r.Cells) == len(columns) {
		return r
	}
	cells := make([]ListCell, len(columns))
	copy(cells, r.Cells)
	r.Cells = cells
	return r
}

type FieldKind int

const (
	FieldText FieldKind = iota
	FieldDate
	FieldBoolean
	FieldSymbol
	FieldCurrency
)

func (k FieldKind) String() string {
	switch k {
	case FieldDate:
		return "Date"
	case FieldBoolean:
		return "Boolean"
	case FieldSymbol:
		return "Symbol"
	case FieldCurrency:
		return "Currency"
	default:
		return "Text"
	}
}

// CardField is one field of an entity card. It is mutated in place when pending
// edits are applied.
type CardField struct {
	LabelKey  string
	Kind      FieldKind
	Text      string
	SymbolID  *uuid.UUID
	Amount    *decimal.Decimal
	BoolValue *bool
	Editable  bool

	LookupType   string
	LookupField  string
	LookupFilter string

	Hint     string
	ValueID  *uuid.UUID
	AllowAdd bool

	RecordCreationNameSuggestion string
}

// IsLookup reports whether the field is filled from a lookup query.
func (f *CardField) IsLookup() bool { return f != nil && f.LookupType != "" }

// CardRecord is the full editable view of one entity.
type CardRecord struct {
	Fields []*CardField
	Item   any
}

// Field returns the field with the given label key.
func (r *CardRecord) Field(labelKey string) *CardField {
	if r == nil {
		return nil
	}
	for _, f := range r.Fields {
		if f.LabelKey == labelKey {
			return f
		}
	}
	return nil
}

// Validate reports a duplicate label key; pending edits are keyed by it.
func (r *CardRecord) Validate() error {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.Fields))
	for _, f := range r.Fields {
		if _, dup := seen[f.LabelKey]; dup {
			return fmt.Errorf("duplicate card field %q", f.LabelKey)
		}
		seen[f.LabelKey] = struct{}{}
	}
	return nil
}

// LookupItem is one lookup result.
type LookupItem struct {
	Key  uuid.UUID
	Name string
}
