package pages

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/localization"
	"github.com/jask/finmgr/internal/navigation"
	"github.com/jask/finmgr/internal/records"
	"github.com/jask/finmgr/internal/ribbon"
	"github.com/jask/finmgr/internal/viewmodel"
)

// Query parameters of a location returning from a linked creation.
const (
	queryLinkField = "linkField"
	queryLinkID    = "linkId"
	queryLinkName  = "linkName"
)

// AccountsList lists bank accounts with their balance. The list is small, so it
// is loaded in one go and searched client-side.
type AccountsList struct {
	*viewmodel.List[api.Account]
}

func NewAccountsList(svc viewmodel.Services) *AccountsList {
	l := &AccountsList{}
	l.List = viewmodel.NewList[api.Account](svc, l)
	return l
}

func (l *AccountsList) LoadPage(ctx context.Context, reset bool) error {
	l.PageOffset(reset)
	items, err := l.API().ListAccounts(ctx, nil)
	if err != nil {
		return err
	}
	if s := strings.TrimSpace(l.Search); s != "" {
		filtered := items[:0]
		for _, a := range items {
			if containsFold(a.Name, s) || containsFold(a.IBAN, s) {
				filtered = append(filtered, a)
			}
		}
		items = filtered
	}
	l.AppendPage(items, 0)
	return nil
}

func (l *AccountsList) BuildRecords(items []api.Account) ([]records.ListColumn, []records.ListRecord) {
	cols := []records.ListColumn{
		{Key: "Symbol", Width: 2},
		{Key: "Name", Title: l.T("List_Name")},
		{Key: "Type", Title: l.T("List_Type"), Width: 10},
		{Key: "IBAN", Title: l.T("List_IBAN"), Width: 24},
		{Key: "Balance", Title: l.T("List_Balance"), Width: 14, Align: records.AlignRight},
	}
	recs := make([]records.ListRecord, 0, len(items))
	for _, a := range items {
		recs = append(recs, records.ListRecord{
			Cells: []records.ListCell{
				records.SymbolCell(a.SymbolAttachmentID),
				records.TextCell(a.Name),
				records.MutedCell(localization.Text(l.Localizer(), "EnumType_"+EnumAccountType+"_"+string(a.Type), string(a.Type))),
				records.MutedCell(a.IBAN),
				records.CurrencyCell(a.Balance),
			},
			Item: a,
		})
	}
	return cols, recs
}

func (l *AccountsList) Ribbon(loc localization.Localizer) []ribbon.Register {
	return []ribbon.Register{listRibbon(loc, l, KindAccounts, l.Search != "")}
}

func (l *AccountsList) Open(index int) {
	if index >= 0 && index < len(l.Items) {
		open(l.Core(), CardURI(KindAccounts, l.Items[index].ID, nil))
	}
}

// AccountCard edits one account and hosts its postings and attachments.
type AccountCard struct {
	*viewmodel.Card[api.Account]

	bankName string
	panels   *panels
}

func NewAccountCard(svc viewmodel.Services) *AccountCard {
	c := &AccountCard{}
	c.Card = viewmodel.NewCard[api.Account](svc, c)
	c.panels = &panels{
		parent:   c.Core(),
		kind:     api.EntityAccount,
		postings: func(id uuid.UUID) api.PostingQuery { return api.PostingQuery{AccountID: &id} },
	}
	return c
}

// Initialize loads the account and applies a bank contact created on the way.
func (c *AccountCard) Initialize(ctx context.Context, id uuid.UUID) bool {
	if !c.Card.Initialize(ctx, id) {
		return false
	}
	applyReturnedLink(c.Core(), c.Card)
	return true
}

func (c *AccountCard) LoadCard(ctx context.Context, id uuid.UUID) (*api.Account, error) {
	c.bankName = ""
	if id == uuid.Nil {
		return &api.Account{Type: api.AccountGiro}, nil
	}
	a, err := c.API().GetAccount(ctx, id)
	if err != nil || a == nil {
		return a, err
	}
	bank, err := c.API().GetContact(ctx, a.BankContactID)
	if err != nil {
		c.Logger().Debug("bank contact unavailable", "account", id, "err", err)
	} else if bank != nil {
		c.bankName = bank.Name
	}
	return a, nil
}

func (c *AccountCard) BuildCard(a *api.Account) *records.CardRecord {
	bank := lookupField(LabelBank, viewmodel.LookupContact, "Type="+string(api.ContactBank), &a.BankContactID, c.bankName)
	bank.AllowAdd = true
	bank.RecordCreationNameSuggestion = c.bankName
	balance := currencyField(LabelBalance, &a.Balance)
	if c.IsNew() {
		balance = currencyField(LabelBalance, nil)
	}
	return &records.CardRecord{
		Item: a,
		Fields: []*records.CardField{
			textField(LabelName, a.Name),
			enumField(LabelType, EnumAccountType, string(a.Type)),
			textField(LabelIBAN, a.IBAN),
			bank,
			readOnly(balance),
			symbolField(a.SymbolAttachmentID),
		},
	}
}

func (c *AccountCard) SaveCard(ctx context.Context) error {
	rec := c.Record
	typ, ok := fieldEnum(c.Core(), rec, LabelType, EnumAccountType)
	if !ok {
		return api.Invalid(c.T("Error_UnknownAccountType"))
	}
	bank := fieldID(rec, LabelBank)
	if bank == nil {
		return api.Invalid(c.T("Error_BankRequired"))
	}
	req := api.AccountRequest{
		Name:               fieldText(rec, LabelName),
		Type:               api.AccountType(typ),
		IBAN:               fieldText(rec, LabelIBAN),
		BankContactID:      *bank,
		SymbolAttachmentID: fieldSymbol(rec),
	}
	var (
		saved *api.Account
		err   error
	)
	if c.IsNew() {
		saved, err = c.API().CreateAccount(ctx, req)
	} else {
		saved, err = c.API().UpdateAccount(ctx, c.ID, req)
	}
	if err != nil {
		return err
	}
	wasNew := c.IsNew()
	c.Item, c.ID = saved, saved.ID
	c.bankName = fieldText(rec, LabelBank)
	if wasNew {
		open(c.Core(), CardURI(KindAccounts, saved.ID, nil))
	}
	c.RequestUIAction(viewmodel.Named(viewmodel.ActionSaved, saved.ID.String()))
	return nil
}

func (c *AccountCard) DeleteCard(ctx context.Context) error {
	return c.API().DeleteAccount(ctx, c.ID)
}

func (c *AccountCard) SymbolUploadAllowed() bool { return !c.IsNew() }

func (c *AccountCard) SymbolParent() (api.AttachmentEntityKind, uuid.UUID) {
	return api.EntityAccount, c.ID
}

// AssignNewSymbol stores the uploaded symbol right away. Other pending edits
// stay pending.
func (c *AccountCard) AssignNewSymbol(ctx context.Context, id uuid.UUID) error {
	req := c.Item.Request()
	req.SymbolAttachmentID = &id
	saved, err := c.API().UpdateAccount(ctx, c.ID, req)
	return storeSymbol(c.Card, saved, err)
}

// ImportPostings books a statement export into the account.
func (c *AccountCard) ImportPostings(ctx context.Context, r io.Reader, fileName, _ string) error {
	c.ClearError()
	res, err := c.API().ImportPostings(ctx, c.ID, r, fileName)
	if err != nil {
		c.SetErrorFrom(err)
		c.NotifyStateChanged()
		return err
	}
	if len(res.Errors) > 0 {
		c.RequestUIAction(viewmodel.ShowOverlay(OverlayImportErrors, map[string]any{
			"imported": res.Imported,
			"skipped":  res.Skipped,
			"errors":   res.Errors,
		}))
	} else {
		c.RequestUIAction(viewmodel.Named(viewmodel.ActionNotify, res))
	}
	if c.panels.postingsList != nil {
		if err := c.panels.postingsList.Load(ctx); err != nil {
			return err
		}
	}
	c.Load(ctx, c.ID)
	return nil
}

func (c *AccountCard) IsChildActive(child viewmodel.ViewModel) bool { return c.panels.isActive(child) }

func (c *AccountCard) Ribbon(loc localization.Localizer) []ribbon.Register {
	return []ribbon.Register{
		cardRibbon(loc, c, true),
		ribbon.NewRegister(ribbon.Actions, ribbon.NewTab(label(loc, "Tab_Card", "Card"), 0,
			ribbon.Action{
				ID: ActionImportPostings, Label: label(loc, ActionImportPostings, "Import"), Icon: "⇩",
				Disabled:     c.IsNew(),
				FileCallback: c.ImportPostings,
			},
			symbolAction(loc, !c.SymbolUploadAllowed(), c.ValidateSymbol, c.Core()),
		)),
		c.panels.ribbon(loc, c.ID),
	}
}

// applyReturnedLink picks up the entity created from a lookup's "add" action:
// the location carries the field and the new id, which become a pending edit.
// The link parameters are removed from the location afterwards.
func applyReturnedLink(b *viewmodel.Base, card interface {
	Rendered() *records.CardRecord
	ValidateLookupField(*records.CardField, *records.LookupItem)
}) {
	nav := b.Navigator()
	if nav == nil {
		return
	}
	field, ok := nav.Query(queryLinkField)
	if !ok {
		return
	}
	raw, _ := nav.Query(queryLinkID)
	id, err := uuid.Parse(raw)
	if err != nil {
		return
	}
	name, _ := nav.Query(queryLinkName)
	if f := card.Rendered().Field(field); f != nil {
		card.ValidateLookupField(f, &records.LookupItem{Key: id, Name: name})
	}
	// applied once; a reload of the card must not pick it up again
	nav.Replace(navigation.StripQuery(nav.URI(), queryLinkField, queryLinkID, queryLinkName))
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
