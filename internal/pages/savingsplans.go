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

// SavingsPlansList lists savings plans. The backend returns all of them; search
// and paging happen here.
type SavingsPlansList struct {
	*viewmodel.List[api.SavingsPlan]

	OnlyActive bool
}

func NewSavingsPlansList(svc viewmodel.Services) *SavingsPlansList {
	l := &SavingsPlansList{OnlyActive: true}
	l.List = viewmodel.NewList[api.SavingsPlan](svc, l)
	return l
}

func (l *SavingsPlansList) LoadPage(ctx context.Context, reset bool) error {
	items, err := l.API().ListSavingsPlans(ctx, l.OnlyActive)
	if err != nil {
		return err
	}
	if s := strings.TrimSpace(l.Search); s != "" {
		filtered := items[:0]
		for _, p := range items {
			if containsFold(p.Name, s) || containsFold(p.ContractNumber, s) {
				filtered = append(filtered, p)
			}
		}
		items = filtered
	}
	skip, take := l.PageOffset(reset), l.PageSize()
	l.AppendPage(window(items, skip, take), take)
	return nil
}

func (l *SavingsPlansList) BuildRecords(items []api.SavingsPlan) ([]records.ListColumn, []records.ListRecord) {
	cols := []records.ListColumn{
		{Key: "Symbol", Width: 2},
		{Key: "Name", Title: l.T("List_Name")},
		{Key: "Interval", Title: l.T("List_Interval"), Width: 12},
		{Key: "TargetDate", Title: l.T("List_TargetDate"), Width: 10},
		{Key: "Target", Title: l.T("List_TargetAmount"), Width: 14, Align: records.AlignRight},
	}
	recs := make([]records.ListRecord, 0, len(items))
	for _, p := range items {
		target := records.MutedCell("")
		if p.TargetAmount != nil {
			target = records.CurrencyCell(*p.TargetAmount)
		}
		date := ""
		if p.TargetDate != nil {
			date = p.TargetDate.Format(records.DateLayout)
		}
		interval := localization.Text(l.Localizer(), "EnumType_"+EnumInterval+"_"+string(p.Interval), string(p.Interval))
		rec := records.ListRecord{
			Cells: []records.ListCell{
				records.SymbolCell(p.SymbolAttachmentID),
				{Kind: records.CellText, Text: p.Name, Muted: !p.IsActive},
				records.MutedCell(interval),
				records.TextCell(date),
				target,
			},
			Item: p,
		}
		if p.ContractNumber != "" {
			rec.Hint = p.ContractNumber
		}
		recs = append(recs, rec)
	}
	return cols, recs
}

// ToggleOnlyActive flips the active filter and reloads.
func (l *SavingsPlansList) ToggleOnlyActive(ctx context.Context) error {
	l.OnlyActive = !l.OnlyActive
	return l.Load(ctx)
}

func (l *SavingsPlansList) Ribbon(loc localization.Localizer) []ribbon.Register {
	return []ribbon.Register{
		listRibbon(loc, l, KindSavingsPlans, l.Search != ""),
		onlyActiveRegister(loc, l.OnlyActive, l.ToggleOnlyActive),
	}
}

func (l *SavingsPlansList) Open(index int) {
	if index >= 0 && index < len(l.Items) {
		open(l.Core(), CardURI(KindSavingsPlans, l.Items[index].ID, nil))
	}
}

func onlyActiveRegister(loc localization.Localizer, on bool, toggle func(context.Context) error) ribbon.Register {
	key, fallback := "OnlyActive", "Only active"
	if on {
		key, fallback = "ShowAll", "Show all"
	}
	return ribbon.NewRegister(ribbon.QuickAccess, ribbon.NewTab(label(loc, "Tab_Filter", "Filter"), 1,
		ribbon.Action{ID: ActionOnlyActive, Label: label(loc, key, fallback), Icon: "◐", Callback: toggle},
	))
}

// window returns items[skip:skip+take] clamped to the slice.
func window[T any](items []T, skip, take int) []T {
	if skip >= len(items) {
		return nil
	}
	items = items[skip:]
	if take > 0 && take < len(items) {
		items = items[:take]
	}
	return items
}

// SavingsPlanCard edits one savings plan.
type SavingsPlanCard struct {
	*viewmodel.Card[api.SavingsPlan]

	panels *panels
}

func NewSavingsPlanCard(svc viewmodel.Services) *SavingsPlanCard {
	c := &SavingsPlanCard{}
	c.Card = viewmodel.NewCard[api.SavingsPlan](svc, c)
	c.panels = &panels{
		parent:   c.Core(),
		kind:     api.EntitySavingsPlan,
		postings: func(id uuid.UUID) api.PostingQuery { return api.PostingQuery{SavingsPlanID: &id} },
	}
	return c
}

func (c *SavingsPlanCard) LoadCard(ctx context.Context, id uuid.UUID) (*api.SavingsPlan, error) {
	if id == uuid.Nil {
		return &api.SavingsPlan{Interval: api.IntervalMonthly, IsActive: true}, nil
	}
	return c.API().GetSavingsPlan(ctx, id)
}

func (c *SavingsPlanCard) BuildCard(p *api.SavingsPlan) *records.CardRecord {
	return &records.CardRecord{
		Item: p,
		Fields: []*records.CardField{
			textField(LabelName, p.Name),
			enumField(LabelInterval, EnumInterval, string(p.Interval)),
			currencyField(LabelTargetAmount, p.TargetAmount),
			dateField(LabelTargetDate, p.TargetDate),
			textField(LabelContractNumber, p.ContractNumber),
			boolField(LabelActive, p.IsActive),
			symbolField(p.SymbolAttachmentID),
		},
	}
}

func (c *SavingsPlanCard) SaveCard(ctx context.Context) error {
	rec := c.Record
	interval, ok := fieldEnum(c.Core(), rec, LabelInterval, EnumInterval)
	if !ok {
		return api.Invalid(c.T("Error_UnknownInterval"))
	}
	date, ok := fieldDate(rec, LabelTargetDate)
	if !ok {
		return api.Invalid(c.T("Error_InvalidDate"))
	}
	req := api.SavingsPlanRequest{
		Name:               fieldText(rec, LabelName),
		Interval:           api.SavingsPlanInterval(interval),
		TargetAmount:       fieldAmount(rec, LabelTargetAmount),
		TargetDate:         date,
		ContractNumber:     fieldText(rec, LabelContractNumber),
		IsActive:           fieldBool(rec, LabelActive),
		SymbolAttachmentID: fieldSymbol(rec),
	}
	wasNew := c.IsNew()
	var (
		saved *api.SavingsPlan
		err   error
	)
	if wasNew {
		saved, err = c.API().CreateSavingsPlan(ctx, req)
	} else {
		saved, err = c.API().UpdateSavingsPlan(ctx, c.ID, req)
	}
	if err != nil {
		return err
	}
	c.Item, c.ID = saved, saved.ID
	if wasNew {
		open(c.Core(), CardURI(KindSavingsPlans, saved.ID, nil))
	}
	c.RequestUIAction(viewmodel.Named(viewmodel.ActionSaved, saved.ID.String()))
	return nil
}

func (c *SavingsPlanCard) DeleteCard(ctx context.Context) error {
	return c.API().DeleteSavingsPlan(ctx, c.ID)
}

func (c *SavingsPlanCard) SymbolUploadAllowed() bool { return !c.IsNew() }

func (c *SavingsPlanCard) SymbolParent() (api.AttachmentEntityKind, uuid.UUID) {
	return api.EntitySavingsPlan, c.ID
}

func (c *SavingsPlanCard) AssignNewSymbol(ctx context.Context, id uuid.UUID) error {
	req := c.Item.Request()
	req.SymbolAttachmentID = &id
	saved, err := c.API().UpdateSavingsPlan(ctx, c.ID, req)
	return storeSymbol(c.Card, saved, err)
}

func (c *SavingsPlanCard) IsChildActive(child viewmodel.ViewModel) bool {
	return c.panels.isActive(child)
}

func (c *SavingsPlanCard) Ribbon(loc localization.Localizer) []ribbon.Register {
	return []ribbon.Register{
		cardRibbon(loc, c, true),
		ribbon.NewRegister(ribbon.Actions, ribbon.NewTab(label(loc, "Tab_Card", "Card"), 0,
			symbolAction(loc, !c.SymbolUploadAllowed(), c.ValidateSymbol, c.Core()),
		)),
		c.panels.ribbon(loc, c.ID),
	}
}
