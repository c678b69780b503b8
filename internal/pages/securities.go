package pages

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/localization"
	"github.com/jask/finmgr/internal/records"
	"github.com/jask/finmgr/internal/ribbon"
	"github.com/jask/finmgr/internal/viewmodel"
)

type SecuritiesList struct {
	*viewmodel.List[api.Security]

	OnlyActive bool
}

func NewSecuritiesList(svc viewmodel.Services) *SecuritiesList {
	l := &SecuritiesList{OnlyActive: true}
	l.List = viewmodel.NewList[api.Security](svc, l)
	return l
}

func (l *SecuritiesList) LoadPage(ctx context.Context, reset bool) error {
	items, err := l.API().ListSecurities(ctx, l.OnlyActive)
	if err != nil {
		return err
	}
	if s := strings.TrimSpace(l.Search); s != "" {
		filtered := items[:0]
		for _, sec := range items {
			if containsFold(sec.Name, s) || containsFold(sec.Identifier, s) {
				filtered = append(filtered, sec)
			}
		}
		items = filtered
	}
	skip, take := l.PageOffset(reset), l.PageSize()
	l.AppendPage(window(items, skip, take), take)
	return nil
}

func (l *SecuritiesList) BuildRecords(items []api.Security) ([]records.ListColumn, []records.ListRecord) {
	cols := []records.ListColumn{
		{Key: "Symbol", Width: 2},
		{Key: "Name", Title: l.T("List_Name")},
		{Key: "Identifier", Title: l.T("List_Identifier"), Width: 14},
		{Key: "Currency", Title: l.T("List_Currency"), Width: 8, Align: records.AlignCenter},
	}
	recs := make([]records.ListRecord, 0, len(items))
	for _, s := range items {
		recs = append(recs, records.ListRecord{
			Cells: []records.ListCell{
				records.SymbolCell(s.SymbolAttachmentID),
				{Kind: records.CellText, Text: s.Name, Muted: !s.IsActive},
				records.TextCell(s.Identifier),
				records.MutedCell(s.CurrencyCode),
			},
			Item: s,
			Hint: s.Description,
		})
	}
	return cols, recs
}

func (l *SecuritiesList) ToggleOnlyActive(ctx context.Context) error {
	l.OnlyActive = !l.OnlyActive
	return l.Load(ctx)
}

func (l *SecuritiesList) Ribbon(loc localization.Localizer) []ribbon.Register {
	return []ribbon.Register{
		listRibbon(loc, l, KindSecurities, l.Search != ""),
		onlyActiveRegister(loc, l.OnlyActive, l.ToggleOnlyActive),
	}
}

func (l *SecuritiesList) Open(index int) {
	if index >= 0 && index < len(l.Items) {
		open(l.Core(), CardURI(KindSecurities, l.Items[index].ID, nil))
	}
}

type SecurityCard struct {
	*viewmodel.Card[api.Security]

	panels *panels
}

func NewSecurityCard(svc viewmodel.Services) *SecurityCard {
	c := &SecurityCard{}
	c.Card = viewmodel.NewCard[api.Security](svc, c)
	c.panels = &panels{
		parent:   c.Core(),
		kind:     api.EntitySecurity,
		postings: func(id uuid.UUID) api.PostingQuery { return api.PostingQuery{SecurityID: &id} },
	}
	return c
}

func (c *SecurityCard) LoadCard(ctx context.Context, id uuid.UUID) (*api.Security, error) {
	if id == uuid.Nil {
		return &api.Security{CurrencyCode: "EUR", IsActive: true}, nil
	}
	return c.API().GetSecurity(ctx, id)
}

func (c *SecurityCard) BuildCard(s *api.Security) *records.CardRecord {
	return &records.CardRecord{
		Item: s,
		Fields: []*records.CardField{
			textField(LabelName, s.Name),
			textField(LabelIdentifier, s.Identifier),
			textField(LabelDescription, s.Description),
			textField(LabelCurrency, s.CurrencyCode),
			boolField(LabelActive, s.IsActive),
			symbolField(s.SymbolAttachmentID),
		},
	}
}

func (c *SecurityCard) SaveCard(ctx context.Context) error {
	rec := c.Record
	req := api.SecurityRequest{
		Name:               fieldText(rec, LabelName),
		Identifier:         fieldText(rec, LabelIdentifier),
		Description:        fieldText(rec, LabelDescription),
		CurrencyCode:       fieldText(rec, LabelCurrency),
		IsActive:           fieldBool(rec, LabelActive),
		SymbolAttachmentID: fieldSymbol(rec),
	}
	wasNew := c.IsNew()
	var (
		saved *api.Security
		err   error
	)
	if wasNew {
		saved, err = c.API().CreateSecurity(ctx, req)
	} else {
		saved, err = c.API().UpdateSecurity(ctx, c.ID, req)
	}
	if err != nil {
		return err
	}
	c.Item, c.ID = saved, saved.ID
	if wasNew {
		open(c.Core(), CardURI(KindSecurities, saved.ID, nil))
	}
	c.RequestUIAction(viewmodel.Named(viewmodel.ActionSaved, saved.ID.String()))
	return nil
}

func (c *SecurityCard) DeleteCard(ctx context.Context) error {
	return c.API().DeleteSecurity(ctx, c.ID)
}

func (c *SecurityCard) SymbolUploadAllowed() bool { return !c.IsNew() }

func (c *SecurityCard) SymbolParent() (api.AttachmentEntityKind, uuid.UUID) {
	return api.EntitySecurity, c.ID
}

func (c *SecurityCard) AssignNewSymbol(ctx context.Context, id uuid.UUID) error {
	req := c.Item.Request()
	req.SymbolAttachmentID = &id
	saved, err := c.API().UpdateSecurity(ctx, c.ID, req)
	return storeSymbol(c.Card, saved, err)
}

func (c *SecurityCard) IsChildActive(child viewmodel.ViewModel) bool { return c.panels.isActive(child) }

func (c *SecurityCard) Ribbon(loc localization.Localizer) []ribbon.Register {
	return []ribbon.Register{
		cardRibbon(loc, c, true),
		ribbon.NewRegister(ribbon.Actions, ribbon.NewTab(label(loc, "Tab_Card", "Card"), 0,
			symbolAction(loc, !c.SymbolUploadAllowed(), c.ValidateSymbol, c.Core()),
		)),
		c.panels.ribbon(loc, c.ID),
	}
}
