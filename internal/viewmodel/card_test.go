package viewmodel

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/records"
)

type widget struct {
	Name     string
	Price    decimal.Decimal
	Symbol   *uuid.UUID
	Category *uuid.UUID
}

type widgetCard struct {
	*Card[widget]
	stored    map[uuid.UUID]widget
	saveErr   error
	loadErr   error
	assignErr error
	allowIcon bool
	assigned  *uuid.UUID
}

func newWidgetCard(svc Services) *widgetCard {
	w := &widgetCard{stored: map[uuid.UUID]widget{}}
	w.Card = NewCard[widget](svc, w)
	return w
}

func (w *widgetCard) LoadCard(_ context.Context, id uuid.UUID) (*widget, error) {
	if w.loadErr != nil {
		return nil, w.loadErr
	}
	if id == uuid.Nil {
		return &widget{}, nil
	}
	it, ok := w.stored[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (w *widgetCard) BuildCard(it *widget) *records.CardRecord {
	price := it.Price
	return &records.CardRecord{Item: it, Fields: []*records.CardField{
		{LabelKey: "Name", Kind: records.FieldText, Text: it.Name, Editable: true},
		{LabelKey: "Price", Kind: records.FieldCurrency, Amount: &price, Editable: true},
		{LabelKey: "Symbol", Kind: records.FieldSymbol, SymbolID: it.Symbol},
		{LabelKey: "Category", Kind: records.FieldText, ValueID: it.Category, LookupType: "Category", Editable: true},
	}}
}

func (w *widgetCard) SaveCard(context.Context) error {
	if w.saveErr != nil {
		return w.saveErr
	}
	it := *w.Item
	if v, ok := w.PendingValue("Name"); ok {
		it.Name = string(v.(records.TextValue))
	}
	if w.IsNew() {
		w.ID = uuid.New()
	}
	w.stored[w.ID] = it
	w.Item = &it
	return nil
}

func (w *widgetCard) SymbolUploadAllowed() bool { return w.allowIcon }

func (w *widgetCard) SymbolParent() (api.AttachmentEntityKind, uuid.UUID) {
	return api.EntitySecurity, w.ID
}

func (w *widgetCard) AssignNewSymbol(_ context.Context, id uuid.UUID) error {
	if w.assignErr != nil {
		return w.assignErr
	}
	w.assigned = &id
	return nil
}

func TestCardLoadAndNotFound(t *testing.T) {
	ctx := context.Background()
	w := newWidgetCard(Services{})
	id := uuid.New()
	w.stored[id] = widget{Name: "Gear", Price: decimal.RequireFromString("3.20")}

	require.True(t, w.Load(ctx, id))
	require.False(t, w.IsNew())
	require.Equal(t, "Gear", w.Record.Field("Name").Text)
	require.False(t, w.Loading)

	require.False(t, w.Load(ctx, uuid.New()))
	require.Equal(t, api.CodeNotFound, w.LastErrorCode())
	require.Nil(t, w.Record)

	require.True(t, w.Load(ctx, uuid.Nil))
	require.True(t, w.IsNew())
	require.Empty(t, w.LastErrorCode())
}

func TestCardPendingValuesApplyAndSurviveRebuild(t *testing.T) {
	w := newWidgetCard(Services{})
	require.True(t, w.Load(context.Background(), uuid.Nil))
	var changed int
	w.OnStateChanged(func() { changed++ })

	sym := uuid.New()
	w.ValidateFieldValue(w.Record.Field("Price"), records.TextValue("12.50"))
	w.ValidateFieldValue(w.Record.Field("Symbol"), records.TextValue(sym.String()))
	w.ValidateFieldValue(w.Record.Field("Name"), records.TextValue("Sprocket"))
	require.Equal(t, 3, changed)
	require.True(t, w.HasPendingChanges())

	w.Rebuild()
	price := w.Record.Field("Price")
	require.True(t, price.Amount.Equal(decimal.RequireFromString("12.50")))
	require.Empty(t, price.Text)
	symbol := w.Record.Field("Symbol")
	require.Equal(t, sym, *symbol.ValueID)
	require.Equal(t, sym, *symbol.SymbolID)
	require.Equal(t, "Sprocket", w.Record.Field("Name").Text)
}

func TestCardLookupFieldSetAndClear(t *testing.T) {
	w := newWidgetCard(Services{})
	require.True(t, w.Load(context.Background(), uuid.Nil))
	field := w.Record.Field("Category")
	item := records.LookupItem{Key: uuid.New(), Name: "Tools"}

	w.ValidateLookupField(field, &item)
	require.Equal(t, "Tools", w.Record.Field("Category").Text)
	require.Equal(t, item.Key, *w.Record.Field("Category").ValueID)

	w.ValidateLookupField(field, nil)
	_, ok := w.PendingValue("Category")
	require.False(t, ok)
	require.Nil(t, w.Record.Field("Category").ValueID)
	require.Empty(t, w.Record.Field("Category").Text)
}

func TestCardSaveClearsPendingAndReportsErrors(t *testing.T) {
	ctx := context.Background()
	w := newWidgetCard(Services{})
	require.True(t, w.Load(ctx, uuid.Nil))
	w.ValidateFieldValue(w.Record.Field("Name"), records.TextValue("Bolt"))

	w.saveErr = api.NewError(409, api.CodeConflict, "name taken")
	require.False(t, w.Save(ctx))
	require.Equal(t, api.CodeConflict, w.LastErrorCode())
	require.True(t, w.HasPendingChanges())

	w.saveErr = nil
	require.True(t, w.Save(ctx))
	require.Empty(t, w.LastErrorCode())
	require.False(t, w.HasPendingChanges())
	require.False(t, w.IsNew())
	require.Equal(t, "Bolt", w.Record.Field("Name").Text)
	require.Equal(t, "Bolt", w.stored[w.ID].Name)
}

func TestCardDeleteDefaultsToFailure(t *testing.T) {
	w := newWidgetCard(Services{})
	require.False(t, w.Delete(context.Background()))
}

func TestCardSaveDefaultsToSuccess(t *testing.T) {
	c := NewCard[widget](Services{}, nil)
	require.True(t, c.Save(context.Background()))
}

func TestCardValidateSymbol(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{attachment: uuid.New()}
	w := newWidgetCard(Services{API: client})
	id := uuid.New()
	w.stored[id] = widget{Name: "Gear"}
	require.True(t, w.Load(ctx, id))

	require.Nil(t, w.ValidateSymbol(ctx, strings.NewReader("png"), "logo.png", "image/png"))
	require.Empty(t, client.uploaded)

	w.allowIcon = true
	got := w.ValidateSymbol(ctx, strings.NewReader("png"), "logo.png", "image/png")
	require.NotNil(t, got)
	require.Equal(t, client.attachment, *got)
	require.Equal(t, client.attachment, *w.assigned)

	client.uploadErr = errors.New("too large")
	require.Nil(t, w.ValidateSymbol(ctx, strings.NewReader("png"), "big.png", "image/png"))

	// the upload went through but the entity refused the symbol
	client.uploadErr = nil
	w.assigned = nil
	w.assignErr = api.NewError(409, api.CodeConflict, "symbol not assignable")
	require.Nil(t, w.ValidateSymbol(ctx, strings.NewReader("png"), "logo.png", "image/png"))
	require.Nil(t, w.assigned)
}

func TestCardLoadErrorDropsPreviousEntity(t *testing.T) {
	ctx := context.Background()
	w := newWidgetCard(Services{})
	first := uuid.New()
	w.stored[first] = widget{Name: "Gear"}
	require.True(t, w.Load(ctx, first))

	w.loadErr = api.NewError(500, api.CodeInternal, "backend down")
	second := uuid.New()
	require.False(t, w.Load(ctx, second))
	require.Equal(t, api.CodeInternal, w.LastErrorCode())
	require.Nil(t, w.Item)
	require.Nil(t, w.Rendered())

	// a save must not write the first entity under the second id
	require.False(t, w.Save(ctx))
	_, ok := w.stored[second]
	require.False(t, ok)
	require.Equal(t, "Gear", w.stored[first].Name)
}
