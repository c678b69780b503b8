package viewmodel

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/localization"
	"github.com/jask/finmgr/internal/records"
)

func names(items []records.LookupItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestEnumLookupFiltersByDisplayName(t *testing.T) {
	enums := NewEnumRegistry()
	enums.Register("Color", "Red", "Blue", "Yellow")
	b := NewBase(Services{Enums: enums}, nil)
	field := &records.CardField{LabelKey: "Color", LookupType: "Enum:Color"}

	got := b.QueryLookup(context.Background(), field, "re", 0, 10)
	require.Equal(t, []string{"Red"}, names(got))
	require.Equal(t, uuid.Nil, got[0].Key)

	got = b.QueryLookup(context.Background(), field, "", 0, 10)
	require.Equal(t, []string{"Red", "Blue", "Yellow"}, names(got))
}

func TestEnumLookupUsesTranslations(t *testing.T) {
	enums := NewEnumRegistry()
	RegisterEnum(enums, "AccountType", api.AccountTypes)
	loc := localization.Map{"EnumType_AccountType_Savings": "Sparkonto"}
	b := NewBase(Services{Enums: enums, Localizer: loc}, nil)
	field := &records.CardField{LookupType: "enum:accounttype"}

	got := b.QueryLookup(context.Background(), field, "SPAR", 0, 10)
	require.Equal(t, []string{"Sparkonto"}, names(got))
}

func TestUnknownLookupsAreEmpty(t *testing.T) {
	b := NewBase(Services{API: &fakeClient{}}, nil)
	ctx := context.Background()
	require.Empty(t, b.QueryLookup(ctx, &records.CardField{LookupType: "Enum:Nope"}, "", 0, 10))
	require.Empty(t, b.QueryLookup(ctx, &records.CardField{LookupType: "Category"}, "", 0, 10))
	require.Empty(t, b.QueryLookup(ctx, &records.CardField{}, "", 0, 10))
	require.Empty(t, b.QueryLookup(ctx, nil, "", 0, 10))
}

func TestContactLookupParsesTypeFilter(t *testing.T) {
	client := &fakeClient{contacts: []api.Contact{
		{ID: uuid.New(), Name: "Sparkasse", Type: api.ContactBank},
		{ID: uuid.New(), Name: "Spar Markt", Type: api.ContactOrganization},
	}}
	b := NewBase(Services{API: client}, nil)
	field := &records.CardField{LookupType: LookupContact, LookupFilter: "Type=bank"}

	got := b.QueryLookup(context.Background(), field, "spar", 0, 20)
	require.Equal(t, []string{"Sparkasse"}, names(got))
	require.NotNil(t, client.contactQuery.Type)
	require.Equal(t, api.ContactBank, *client.contactQuery.Type)
	require.Equal(t, 20, client.contactQuery.Take)

	field.LookupFilter = "Type=Spaceship;;garbage"
	got = b.QueryLookup(context.Background(), field, "spar", 0, 20)
	require.Len(t, got, 2)
	require.Nil(t, client.contactQuery.Type)
}

func TestSavingsPlanLookupPagesClientSide(t *testing.T) {
	client := &fakeClient{plans: []api.SavingsPlan{
		{ID: uuid.New(), Name: "Holiday", IsActive: true},
		{ID: uuid.New(), Name: "House", IsActive: false},
		{ID: uuid.New(), Name: "Hobby", IsActive: true},
		{ID: uuid.New(), Name: "Car", ContractNumber: "H-77", IsActive: true},
	}}
	b := NewBase(Services{API: client}, nil)
	field := &records.CardField{LookupType: LookupSavingsPlan, LookupFilter: "OnlyActive=true"}

	got := b.QueryLookup(context.Background(), field, "h", 0, 10)
	require.Equal(t, []string{"Holiday", "Hobby", "Car"}, names(got))

	got = b.QueryLookup(context.Background(), field, "h", 1, 1)
	require.Equal(t, []string{"Hobby"}, names(got))

	field.LookupFilter = "OnlyActive=maybe"
	got = b.QueryLookup(context.Background(), field, "ho", 0, 10)
	require.Equal(t, []string{"Holiday", "House", "Hobby"}, names(got))
}

func TestSecurityLookupMatchesIdentifier(t *testing.T) {
	client := &fakeClient{securities: []api.Security{
		{ID: uuid.New(), Name: "World ETF", Identifier: "IE00B4L5Y983", IsActive: true},
		{ID: uuid.New(), Name: "Bond Fund", Identifier: "LU0000000001", IsActive: true},
	}}
	b := NewBase(Services{API: client}, nil)
	field := &records.CardField{LookupType: LookupSecurity}

	got := b.QueryLookup(context.Background(), field, "ie00", 0, 10)
	require.Equal(t, []string{"World ETF"}, names(got))
}

func TestAccountLookupFiltersByBank(t *testing.T) {
	bank := uuid.New()
	client := &fakeClient{accounts: []api.Account{
		{ID: uuid.New(), Name: "Giro", IBAN: "DE02120300000000202051", BankContactID: bank},
		{ID: uuid.New(), Name: "Savings", IBAN: "DE02500105170137075030", BankContactID: uuid.New()},
	}}
	b := NewBase(Services{API: client}, nil)
	field := &records.CardField{LookupType: LookupBankAccount, LookupFilter: "BankContactId=" + bank.String()}

	got := b.QueryLookup(context.Background(), field, "", 0, 1)
	require.Equal(t, []string{"Giro"}, names(got))
	require.Equal(t, bank, *client.bankFilter)

	field.LookupType = LookupAccount
	field.LookupFilter = "BankContactId=not-a-guid"
	got = b.QueryLookup(context.Background(), field, "5030", 0, 10)
	require.Equal(t, []string{"Savings"}, names(got))
	require.Nil(t, client.bankFilter)
}

func TestLookupBackendFailureIsEmpty(t *testing.T) {
	client := &fakeClient{listErr: errors.New("unreachable")}
	b := NewBase(Services{API: client}, nil)
	for _, lt := range []string{LookupContact, LookupSavingsPlan, LookupSecurity, LookupAccount} {
		got := b.QueryLookup(context.Background(), &records.CardField{LookupType: lt}, "", 0, 10)
		require.Empty(t, got, lt)
	}
	require.Empty(t, b.LastError())
}

func TestResolveEnumText(t *testing.T) {
	enums := NewEnumRegistry()
	RegisterEnum(enums, "AccountType", api.AccountTypes)
	b := NewBase(Services{Enums: enums, Localizer: localization.Map{
		"EnumType_AccountType_Giro": "Girokonto",
	}}, nil)

	m, ok := b.ResolveEnumText("accounttype", " giro ")
	require.True(t, ok)
	require.Equal(t, "Giro", m)

	m, ok = b.ResolveEnumText("AccountType", "girokonto")
	require.True(t, ok)
	require.Equal(t, "Giro", m)

	_, ok = b.ResolveEnumText("AccountType", "Depot")
	require.False(t, ok)
	_, ok = b.ResolveEnumText("Unknown", "Giro")
	require.False(t, ok)
}
