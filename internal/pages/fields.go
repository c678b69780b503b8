package pages

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/finmgr/internal/records"
	"github.com/jask/finmgr/internal/viewmodel"
)

// Card field label keys. They double as resource keys.
const (
	LabelName           = "Card_Name"
	LabelType           = "Card_Type"
	LabelDescription    = "Card_Description"
	LabelSymbol         = "Card_Symbol"
	LabelIBAN           = "Card_IBAN"
	LabelBank           = "Card_Bank"
	LabelBalance        = "Card_Balance"
	LabelIntermediary   = "Card_PaymentIntermediary"
	LabelInterval       = "Card_Interval"
	LabelTargetAmount   = "Card_TargetAmount"
	LabelTargetDate     = "Card_TargetDate"
	LabelContractNumber = "Card_ContractNumber"
	LabelActive         = "Card_Active"
	LabelIdentifier     = "Card_Identifier"
	LabelCurrency       = "Card_Currency"
	LabelUsername       = "Card_Username"
	LabelPassword       = "Card_Password"
	LabelAdmin          = "Card_Admin"
	LabelLanguage       = "Card_Language"
)

func textField(label, text string) *records.CardField {
	return &records.CardField{LabelKey: label, Kind: records.FieldText, Text: text, Editable: true}
}

func readOnly(f *records.CardField) *records.CardField {
	f.Editable = false
	return f
}

func boolField(label string, v bool) *records.CardField {
	return &records.CardField{LabelKey: label, Kind: records.FieldBoolean, BoolValue: &v, Editable: true}
}

func currencyField(label string, d *decimal.Decimal) *records.CardField {
	f := &records.CardField{LabelKey: label, Kind: records.FieldCurrency, Editable: true}
	if d != nil {
		v := *d
		f.Amount = &v
		f.Text = v.StringFixed(2)
	}
	return f
}

func dateField(label string, t *time.Time) *records.CardField {
	f := &records.CardField{LabelKey: label, Kind: records.FieldDate, Editable: true}
	if t != nil {
		f.Text = t.Format(records.DateLayout)
	}
	return f
}

func symbolField(id *uuid.UUID) *records.CardField {
	f := &records.CardField{LabelKey: LabelSymbol, Kind: records.FieldSymbol, Editable: true}
	if id != nil {
		v := *id
		f.SymbolID, f.ValueID = &v, &v
	}
	return f
}

func enumField(label, enum, member string) *records.CardField {
	return &records.CardField{
		LabelKey:   label,
		Kind:       records.FieldText,
		Text:       member,
		Editable:   true,
		LookupType: viewmodel.EnumLookupType(enum),
	}
}

func lookupField(label, lookupType, filter string, id *uuid.UUID, name string) *records.CardField {
	f := &records.CardField{
		LabelKey:     label,
		Kind:         records.FieldText,
		Text:         name,
		Editable:     true,
		LookupType:   lookupType,
		LookupFilter: filter,
	}
	if id != nil && *id != uuid.Nil {
		v := *id
		f.ValueID = &v
	}
	return f
}

// The readers below take values from a record after pending edits have been
// applied to it.

func fieldText(rec *records.CardRecord, label string) string {
	if f := rec.Field(label); f != nil {
		return strings.TrimSpace(f.Text)
	}
	return ""
}

func fieldBool(rec *records.CardRecord, label string) bool {
	if f := rec.Field(label); f != nil && f.BoolValue != nil {
		return *f.BoolValue
	}
	return false
}

func fieldAmount(rec *records.CardRecord, label string) *decimal.Decimal {
	if f := rec.Field(label); f != nil && f.Amount != nil {
		v := *f.Amount
		return &v
	}
	return nil
}

func fieldID(rec *records.CardRecord, label string) *uuid.UUID {
	if f := rec.Field(label); f != nil && f.ValueID != nil && *f.ValueID != uuid.Nil {
		v := *f.ValueID
		return &v
	}
	return nil
}

func fieldSymbol(rec *records.CardRecord) *uuid.UUID {
	if f := rec.Field(LabelSymbol); f != nil && f.SymbolID != nil {
		v := *f.SymbolID
		return &v
	}
	return nil
}

// fieldDate parses a date field. Empty text is a nil date.
func fieldDate(rec *records.CardRecord, label string) (*time.Time, bool) {
	s := fieldText(rec, label)
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(records.DateLayout, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// fieldEnum resolves an enum field to its member.
func fieldEnum(b *viewmodel.Base, rec *records.CardRecord, label, enum string) (string, bool) {
	return b.ResolveEnumText(enum, fieldText(rec, label))
}
