package viewmodel

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/localization"
	"github.com/jask/finmgr/internal/navigation"
	"github.com/jask/finmgr/internal/records"
	"github.com/jask/finmgr/internal/ribbon"
)

type panelVM struct {
	*Base
	title    string
	disposed bool
}

func newPanelVM(svc Services) *panelVM {
	p := &panelVM{}
	p.Base = NewBase(svc, p)
	return p
}

func (p *panelVM) Ribbon(localization.Localizer) []ribbon.Register {
	return []ribbon.Register{ribbon.NewRegister(ribbon.LinkedInfo, ribbon.NewTab(p.title, 0))}
}

func (p *panelVM) Dispose(ctx context.Context) error {
	p.disposed = true
	return p.Base.Dispose(ctx)
}

type otherVM struct{ *Base }

func newOtherVM(svc Services) *otherVM {
	o := &otherVM{}
	o.Base = NewBase(svc, o)
	return o
}

type parentVM struct {
	*Base
	inactive map[ViewModel]bool
}

func newParentVM(svc Services) *parentVM {
	p := &parentVM{inactive: map[ViewModel]bool{}}
	p.Base = NewBase(svc, p)
	return p
}

func (p *parentVM) IsChildActive(child ViewModel) bool { return !p.inactive[child] }

func TestRibbonRegistersFromActiveChildOnly(t *testing.T) {
	parent := newParentVM(Services{})
	require.Nil(t, parent.RibbonRegisters(nil))

	child := CreateChild(parent.Base, false, newPanelVM, func(c *panelVM) { c.title = "Postings" })
	regs := parent.RibbonRegisters(nil)
	require.Equal(t, child.RibbonRegisters(nil), regs)
	require.Len(t, regs, 1)
	require.Equal(t, "Postings", regs[0].Tabs[0].Title)

	parent.inactive[child] = true
	require.Nil(t, parent.RibbonRegisters(nil))
}

func TestRibbonRegistersOwnFirst(t *testing.T) {
	parent := newPanelVM(Services{})
	parent.title = "Account"
	CreateChild(parent.Base, false, newPanelVM, func(c *panelVM) { c.title = "Attachments" })

	regs := parent.RibbonRegisters(nil)
	require.Len(t, regs, 2)
	require.Equal(t, "Account", regs[0].Tabs[0].Title)
	require.Equal(t, "Attachments", regs[1].Tabs[0].Title)
}

func TestCreateChildSingletonReusesAndConfigures(t *testing.T) {
	parent := newParentVM(Services{})
	var configured int
	cfg := func(*panelVM) { configured++ }

	a := CreateChild(parent.Base, true, newPanelVM, cfg)
	b := CreateChild(parent.Base, true, newPanelVM, cfg)
	c := CreateChild(parent.Base, false, newPanelVM, cfg)
	CreateChild(parent.Base, true, newOtherVM, nil)

	require.Same(t, a, b)
	require.NotSame(t, a, c)
	require.Equal(t, 3, configured)
	require.Len(t, parent.Children(), 3)
}

func TestChildEventsBubbleUntilDisposed(t *testing.T) {
	ctx := context.Background()
	parent := newParentVM(Services{})
	child := CreateChild(parent.Base, false, newPanelVM, nil)

	var changed, auth int
	var actions []UIAction
	parent.OnStateChanged(func() { changed++ })
	parent.OnAuthenticationRequired(func(string) { auth++ })
	parent.OnUIAction(func(a UIAction) { actions = append(actions, a) })

	child.NotifyStateChanged()
	child.RequireAuthentication("expired")
	child.RequestUIAction(Named(ActionBack, nil))
	require.Equal(t, 1, changed)
	require.Equal(t, 1, auth)
	require.Len(t, actions, 1)
	require.Equal(t, ActionBack, actions[0].Name)

	require.NoError(t, parent.DisposeChild(ctx, child))
	require.True(t, child.disposed)
	require.Empty(t, parent.Children())

	child.NotifyStateChanged()
	child.RequestUIAction(Named(ActionBack, nil))
	require.Equal(t, 1, changed)
	require.Len(t, actions, 1)
	require.Zero(t, child.stateChanged.Len())
}

func TestDisposeDisposesAllChildren(t *testing.T) {
	parent := newParentVM(Services{})
	a := CreateChild(parent.Base, false, newPanelVM, nil)
	b := CreateChild(parent.Base, false, newPanelVM, nil)
	require.NoError(t, parent.Dispose(context.Background()))
	require.True(t, a.disposed)
	require.True(t, b.disposed)
	require.Empty(t, parent.Children())
}

func TestSetErrorLocalizesKnownCodes(t *testing.T) {
	b := NewBase(Services{Localizer: localization.Map{api.CodeNotFound: "Nicht gefunden"}}, nil)

	b.SetError(api.CodeNotFound, "account not found")
	require.Equal(t, "Nicht gefunden", b.LastError())
	require.Equal(t, api.CodeNotFound, b.LastErrorCode())

	b.SetError(api.CodeConflict, "name taken")
	require.Equal(t, "name taken", b.LastError())

	b.SetErrorFrom(errors.New("socket closed"))
	require.Equal(t, api.CodeInternal, b.LastErrorCode())
	require.Equal(t, "socket closed", b.LastError())

	b.ClearError()
	require.Empty(t, b.LastError())
	require.Empty(t, b.LastErrorCode())
}

func TestSetErrorFromFallsBackToClientState(t *testing.T) {
	client := &fakeClient{}
	client.Track(api.Invalid("iban malformed"))
	b := NewBase(Services{API: client}, nil)

	b.SetErrorFrom(errors.New("request failed"))
	require.Equal(t, api.CodeInvalidInput, b.LastErrorCode())
	require.Equal(t, "iban malformed", b.LastError())
}

func TestApplyEnumTranslations(t *testing.T) {
	b := NewBase(Services{Localizer: localization.Map{"EnumType_AccountType_Giro": "Girokonto"}}, nil)
	rec := &records.CardRecord{Fields: []*records.CardField{
		{LabelKey: "Type", Text: "Giro", LookupType: "Enum:AccountType"},
		{LabelKey: "Interval", Text: "Monthly", LookupType: "Enum:SavingsPlanInterval"},
		{LabelKey: "Name", Text: "Giro"},
	}}
	b.ApplyEnumTranslations(rec)
	require.Equal(t, "Girokonto", rec.Fields[0].Text)
	require.Equal(t, "Monthly", rec.Fields[1].Text)
	require.Equal(t, "Giro", rec.Fields[2].Text)
}

func TestReadParentLink(t *testing.T) {
	id := uuid.New()
	nav := navigation.NewHistory(navigation.Build(map[string]string{
		"parentKind":  "Account",
		"parentId":    id.String(),
		"parentField": "Bank",
	}, "contacts", "new"))
	b := NewBase(Services{Navigator: nav}, nil)

	link, ok := b.ReadParentLink()
	require.True(t, ok)
	require.Equal(t, ParentLink{Kind: "Account", ID: id, Field: "Bank"}, link)

	nav.NavigateTo("/contacts")
	_, ok = b.ReadParentLink()
	require.False(t, ok)
}
