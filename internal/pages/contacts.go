package pages

import (
	"context"

	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/localization"
	"github.com/jask/finmgr/internal/records"
	"github.com/jask/finmgr/internal/ribbon"
	"github.com/jask/finmgr/internal/viewmodel"
)

// ContactsList pages through contacts, optionally restricted to one type.
type ContactsList struct {
	*viewmodel.List[api.Contact]

	Type *api.ContactType
}

func NewContactsList(svc viewmodel.Services) *ContactsList {
	l := &ContactsList{}
	l.List = viewmodel.NewList[api.Contact](svc, l)
	if svc.Navigator != nil {
		if raw, ok := svc.Navigator.Query("type"); ok {
			if t, ok := api.ParseContactType(raw); ok {
				l.Type = &t
			}
		}
	}
	return l
}

// SetType changes the type filter. Like the other setters it does not reload.
func (l *ContactsList) SetType(t *api.ContactType) { l.Type = t }

func (l *ContactsList) LoadPage(ctx context.Context, reset bool) error {
	q := api.ContactQuery{Type: l.Type, Search: l.Search, Skip: l.PageOffset(reset), Take: l.PageSize()}
	items, err := l.API().ListContacts(ctx, q)
	if err != nil {
		return err
	}
	l.AppendPage(items, q.Take)
	return nil
}

func (l *ContactsList) BuildRecords(items []api.Contact) ([]records.ListColumn, []records.ListRecord) {
	cols := []records.ListColumn{
		{Key: "Symbol", Width: 2},
		{Key: "Name", Title: l.T("List_Name")},
		{Key: "Type", Title: l.T("List_Type"), Width: 14},
	}
	recs := make([]records.ListRecord, 0, len(items))
	for _, c := range items {
		typ := localization.Text(l.Localizer(), "EnumType_"+EnumContactType+"_"+string(c.Type), string(c.Type))
		rec := records.ListRecord{
			Cells: []records.ListCell{
				records.SymbolCell(c.SymbolAttachmentID),
				records.TextCell(c.Name),
				records.MutedCell(typ),
			},
			Item: c,
		}
		if c.IsPaymentIntermediary {
			rec.Hint = l.T("Hint_PaymentIntermediary")
		}
		recs = append(recs, rec)
	}
	return cols, recs
}

func (l *ContactsList) Ribbon(loc localization.Localizer) []ribbon.Register {
	return []ribbon.Register{listRibbon(loc, l, KindContacts, l.Search != "" || l.Type != nil)}
}

func (l *ContactsList) ClearSearch() {
	l.List.ClearSearch()
	l.Type = nil
}

func (l *ContactsList) Open(index int) {
	if index >= 0 && index < len(l.Items) {
		open(l.Core(), CardURI(KindContacts, l.Items[index].ID, nil))
	}
}

// ContactCard edits one contact. Opened from a lookup's "add" action it returns
// to the originating card after the first save.
type ContactCard struct {
	*viewmodel.Card[api.Contact]

	panels *panels
}

func NewContactCard(svc viewmodel.Services) *ContactCard {
	c := &ContactCard{}
	c.Card = viewmodel.NewCard[api.Contact](svc, c)
	c.panels = &panels{
		parent:   c.Core(),
		kind:     api.EntityContact,
		postings: func(id uuid.UUID) api.PostingQuery { return api.PostingQuery{ContactID: &id} },
	}
	return c
}

func (c *ContactCard) LoadCard(ctx context.Context, id uuid.UUID) (*api.Contact, error) {
	if id != uuid.Nil {
		return c.API().GetContact(ctx, id)
	}
	item := &api.Contact{Type: api.ContactPerson}
	if nav := c.Navigator(); nav != nil {
		if name, ok := nav.Query("name"); ok {
			item.Name = name
		}
		if raw, ok := nav.Query("type"); ok {
			if t, ok := api.ParseContactType(raw); ok {
				item.Type = t
			}
		}
	}
	return item, nil
}

func (c *ContactCard) BuildCard(item *api.Contact) *records.CardRecord {
	typ := enumField(LabelType, EnumContactType, string(item.Type))
	if item.Type == api.ContactSelf {
		typ.Editable = false
	}
	return &records.CardRecord{
		Item: item,
		Fields: []*records.CardField{
			textField(LabelName, item.Name),
			typ,
			textField(LabelDescription, item.Description),
			boolField(LabelIntermediary, item.IsPaymentIntermediary),
			symbolField(item.SymbolAttachmentID),
		},
	}
}

func (c *ContactCard) SaveCard(ctx context.Context) error {
	rec := c.Record
	typ, ok := fieldEnum(c.Core(), rec, LabelType, EnumContactType)
	if !ok {
		return api.Invalid(c.T("Error_UnknownContactType"))
	}
	req := api.ContactRequest{
		Name:                  fieldText(rec, LabelName),
		Type:                  api.ContactType(typ),
		Description:           fieldText(rec, LabelDescription),
		IsPaymentIntermediary: fieldBool(rec, LabelIntermediary),
		SymbolAttachmentID:    fieldSymbol(rec),
	}
	wasNew := c.IsNew()
	var (
		saved *api.Contact
		err   error
	)
	if wasNew {
		saved, err = c.API().CreateContact(ctx, req)
	} else {
		saved, err = c.API().UpdateContact(ctx, c.ID, req)
	}
	if err != nil {
		return err
	}
	c.Item, c.ID = saved, saved.ID
	c.RequestUIAction(viewmodel.Named(viewmodel.ActionSaved, saved.ID.String()))
	if !wasNew {
		return nil
	}
	if link, ok := c.ReadParentLink(); ok && link.Field != "" {
		open(c.Core(), CardURI(link.Kind, link.ID, map[string]string{
			queryLinkField: link.Field,
			queryLinkID:    saved.ID.String(),
			queryLinkName:  saved.Name,
		}))
		return nil
	}
	open(c.Core(), CardURI(KindContacts, saved.ID, nil))
	return nil
}

func (c *ContactCard) DeleteCard(ctx context.Context) error {
	return c.API().DeleteContact(ctx, c.ID)
}

func (c *ContactCard) SymbolUploadAllowed() bool { return !c.IsNew() }

func (c *ContactCard) SymbolParent() (api.AttachmentEntityKind, uuid.UUID) {
	return api.EntityContact, c.ID
}

func (c *ContactCard) AssignNewSymbol(ctx context.Context, id uuid.UUID) error {
	req := c.Item.Request()
	req.SymbolAttachmentID = &id
	saved, err := c.API().UpdateContact(ctx, c.ID, req)
	return storeSymbol(c.Card, saved, err)
}

func (c *ContactCard) IsChildActive(child viewmodel.ViewModel) bool { return c.panels.isActive(child) }

func (c *ContactCard) Ribbon(loc localization.Localizer) []ribbon.Register {
	self := c.Item != nil && c.Item.Type == api.ContactSelf
	return []ribbon.Register{
		cardRibbon(loc, c, !self),
		ribbon.NewRegister(ribbon.Actions, ribbon.NewTab(label(loc, "Tab_Card", "Card"), 0,
			symbolAction(loc, !c.SymbolUploadAllowed(), c.ValidateSymbol, c.Core()),
		)),
		c.panels.ribbon(loc, c.ID),
	}
}

// NewContactFromLookup opens a new contact card prefilled from a lookup field
// of the card at parent. The contact card returns there after saving.
func NewContactFromLookup(b *viewmodel.Base, parentKind string, parentID uuid.UUID, field *records.CardField, typ api.ContactType) {
	open(b, CardURI(KindContacts, uuid.Nil, map[string]string{
		"parentKind":  parentKind,
		"parentId":    parentID.String(),
		"parentField": field.LabelKey,
		"name":        field.RecordCreationNameSuggestion,
		"type":        string(typ),
	}))
}
