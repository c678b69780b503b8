package backend

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/database"
	"github.com/jask/finmgr/internal/database/repository"
)

func conflict(msg string) error { return api.NewError(http.StatusConflict, api.CodeConflict, msg) }

func (b *Backend) ListContacts(ctx context.Context, q api.ContactQuery) ([]api.Contact, error) {
	f := repository.ContactFilters{Search: strings.TrimSpace(q.Search), Skip: q.Skip, Take: q.Take}
	if q.Type != nil {
		f.Type = string(*q.Type)
	}
	rows, err := b.contacts.List(ctx, f)
	if err != nil {
		return nil, b.internal("list contacts", err)
	}
	out := make([]api.Contact, 0, len(rows))
	for _, c := range rows {
		out = append(out, toAPIContact(c))
	}
	return out, nil
}

func (b *Backend) GetContact(ctx context.Context, id uuid.UUID) (*api.Contact, error) {
	c, err := b.contacts.Get(ctx, id)
	if err != nil {
		return nil, b.internal("get contact", err)
	}
	if c == nil {
		return nil, nil
	}
	out := toAPIContact(*c)
	return &out, nil
}

func (b *Backend) CreateContact(ctx context.Context, req api.ContactRequest) (*api.Contact, error) {
	return b.saveContact(ctx, uuid.New(), req)
}

func (b *Backend) UpdateContact(ctx context.Context, id uuid.UUID, req api.ContactRequest) (*api.Contact, error) {
	existing, err := b.contacts.Get(ctx, id)
	if err != nil {
		return nil, b.internal("update contact", err)
	}
	if existing == nil {
		return nil, api.NotFound("contact")
	}
	if existing.Type == string(api.ContactSelf) && req.Type != api.ContactSelf {
		return nil, conflict("the own contact keeps its type")
	}
	return b.saveContact(ctx, id, req)
}

func (b *Backend) saveContact(ctx context.Context, id uuid.UUID, req api.ContactRequest) (*api.Contact, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, api.Invalid("name is required")
	}
	if !slices.Contains(api.ContactTypes, req.Type) {
		return nil, api.Invalid("unknown contact type " + string(req.Type))
	}
	c := repository.Contact{
		ID:                    id,
		Name:                  name,
		Type:                  string(req.Type),
		Description:           strings.TrimSpace(req.Description),
		IsPaymentIntermediary: req.IsPaymentIntermediary,
		SymbolAttachmentID:    req.SymbolAttachmentID,
	}
	if err := b.contacts.Upsert(ctx, c); err != nil {
		return nil, b.internal("save contact", err)
	}
	return b.GetContact(ctx, id)
}

// DeleteContact refuses contacts still referenced by accounts and the own contact.
func (b *Backend) DeleteContact(ctx context.Context, id uuid.UUID) error {
	c, err := b.contacts.Get(ctx, id)
	if err != nil {
		return b.internal("delete contact", err)
	}
	if c == nil {
		return api.NotFound("contact")
	}
	if c.Type == string(api.ContactSelf) {
		return conflict("the own contact cannot be deleted")
	}
	if err := b.contacts.Delete(ctx, id); err != nil {
		if database.IsForeignKeyViolation(err) {
			return conflict("contact is still used by an account")
		}
		return b.internal("delete contact", err)
	}
	return b.attachments.DeleteForEntity(ctx, string(api.EntityContact), id)
}

func (b *Backend) ListAccounts(ctx context.Context, bankContactID *uuid.UUID) ([]api.Account, error) {
	rows, err := b.accounts.List(ctx, bankContactID)
	if err != nil {
		return nil, b.internal("list accounts", err)
	}
	out := make([]api.Account, 0, len(rows))
	for _, a := range rows {
		acct, err := b.withBalance(ctx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, nil
}

func (b *Backend) GetAccount(ctx context.Context, id uuid.UUID) (*api.Account, error) {
	a, err := b.accounts.Get(ctx, id)
	if err != nil {
		return nil, b.internal("get account", err)
	}
	if a == nil {
		return nil, nil
	}
	out, err := b.withBalance(ctx, *a)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Backend) withBalance(ctx context.Context, a repository.Account) (api.Account, error) {
	bal, err := b.accounts.Balance(ctx, a.ID)
	if err != nil {
		return api.Account{}, b.internal("account balance", err)
	}
	return api.Account{
		ID:                 a.ID,
		Name:               a.Name,
		Type:               api.AccountType(a.Type),
		IBAN:               a.IBAN,
		BankContactID:      a.BankContactID,
		Balance:            bal,
		SymbolAttachmentID: a.SymbolAttachmentID,
	}, nil
}

func (b *Backend) CreateAccount(ctx context.Context, req api.AccountRequest) (*api.Account, error) {
	return b.saveAccount(ctx, uuid.New(), req)
}

func (b *Backend) UpdateAccount(ctx context.Context, id uuid.UUID, req api.AccountRequest) (*api.Account, error) {
	existing, err := b.accounts.Get(ctx, id)
	if err != nil {
		return nil, b.internal("update account", err)
	}
	if existing == nil {
		return nil, api.NotFound("account")
	}
	return b.saveAccount(ctx, id, req)
}

func (b *Backend) saveAccount(ctx context.Context, id uuid.UUID, req api.AccountRequest) (*api.Account, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, api.Invalid("name is required")
	}
	if !slices.Contains(api.AccountTypes, req.Type) {
		return nil, api.Invalid("unknown account type " + string(req.Type))
	}
	bank, err := b.contacts.Get(ctx, req.BankContactID)
	if err != nil {
		return nil, b.internal("save account", err)
	}
	if bank == nil {
		return nil, api.Invalid("bank contact does not exist")
	}
	a := repository.Account{
		ID:                 id,
		Name:               name,
		Type:               string(req.Type),
		IBAN:               NormalizeIBAN(req.IBAN),
		BankContactID:      req.BankContactID,
		SymbolAttachmentID: req.SymbolAttachmentID,
	}
	if err := b.accounts.Upsert(ctx, a); err != nil {
		return nil, b.internal("save account", err)
	}
	return b.GetAccount(ctx, id)
}

func (b *Backend) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	a, err := b.accounts.Get(ctx, id)
	if err != nil {
		return b.internal("delete account", err)
	}
	if a == nil {
		return api.NotFound("account")
	}
	if err := b.accounts.Delete(ctx, id); err != nil {
		return b.internal("delete account", err)
	}
	return b.attachments.DeleteForEntity(ctx, string(api.EntityAccount), id)
}

// NormalizeIBAN upper-cases and strips blanks.
func NormalizeIBAN(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

func (b *Backend) ListSavingsPlans(ctx context.Context, onlyActive bool) ([]api.SavingsPlan, error) {
	rows, err := b.plans.List(ctx, onlyActive)
	if err != nil {
		return nil, b.internal("list savings plans", err)
	}
	out := make([]api.SavingsPlan, 0, len(rows))
	for _, p := range rows {
		out = append(out, toAPISavingsPlan(p))
	}
	return out, nil
}

func (b *Backend) GetSavingsPlan(ctx context.Context, id uuid.UUID) (*api.SavingsPlan, error) {
	p, err := b.plans.Get(ctx, id)
	if err != nil {
		return nil, b.internal("get savings plan", err)
	}
	if p == nil {
		return nil, nil
	}
	out := toAPISavingsPlan(*p)
	return &out, nil
}

func (b *Backend) CreateSavingsPlan(ctx context.Context, req api.SavingsPlanRequest) (*api.SavingsPlan, error) {
	return b.saveSavingsPlan(ctx, uuid.New(), req)
}

func (b *Backend) UpdateSavingsPlan(ctx context.Context, id uuid.UUID, req api.SavingsPlanRequest) (*api.SavingsPlan, error) {
	existing, err := b.plans.Get(ctx, id)
	if err != nil {
		return nil, b.internal("update savings plan", err)
	}
	if existing == nil {
		return nil, api.NotFound("savings plan")
	}
	return b.saveSavingsPlan(ctx, id, req)
}

func (b *Backend) saveSavingsPlan(ctx context.Context, id uuid.UUID, req api.SavingsPlanRequest) (*api.SavingsPlan, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, api.Invalid("name is required")
	}
	if !slices.Contains(api.SavingsPlanIntervals, req.Interval) {
		return nil, api.Invalid("unknown interval " + string(req.Interval))
	}
	if req.TargetAmount != nil && req.TargetAmount.IsNegative() {
		return nil, api.Invalid("target amount must not be negative")
	}
	p := repository.SavingsPlan{
		ID:                 id,
		Name:               name,
		Interval:           string(req.Interval),
		TargetAmount:       req.TargetAmount,
		TargetDate:         req.TargetDate,
		ContractNumber:     strings.TrimSpace(req.ContractNumber),
		IsActive:           req.IsActive,
		SymbolAttachmentID: req.SymbolAttachmentID,
	}
	if err := b.plans.Upsert(ctx, p); err != nil {
		return nil, b.internal("save savings plan", err)
	}
	return b.GetSavingsPlan(ctx, id)
}

func (b *Backend) DeleteSavingsPlan(ctx context.Context, id uuid.UUID) error {
	p, err := b.plans.Get(ctx, id)
	if err != nil {
		return b.internal("delete savings plan", err)
	}
	if p == nil {
		return api.NotFound("savings plan")
	}
	if err := b.plans.Delete(ctx, id); err != nil {
		return b.internal("delete savings plan", err)
	}
	return b.attachments.DeleteForEntity(ctx, string(api.EntitySavingsPlan), id)
}

func (b *Backend) ListSecurities(ctx context.Context, onlyActive bool) ([]api.Security, error) {
	rows, err := b.securities.List(ctx, onlyActive)
	if err != nil {
		return nil, b.internal("list securities", err)
	}
	out := make([]api.Security, 0, len(rows))
	for _, s := range rows {
		out = append(out, toAPISecurity(s))
	}
	return out, nil
}

func (b *Backend) GetSecurity(ctx context.Context, id uuid.UUID) (*api.Security, error) {
	s, err := b.securities.Get(ctx, id)
	if err != nil {
		return nil, b.internal("get security", err)
	}
	if s == nil {
		return nil, nil
	}
	out := toAPISecurity(*s)
	return &out, nil
}

func (b *Backend) CreateSecurity(ctx context.Context, req api.SecurityRequest) (*api.Security, error) {
	return b.saveSecurity(ctx, uuid.New(), req)
}

func (b *Backend) UpdateSecurity(ctx context.Context, id uuid.UUID, req api.SecurityRequest) (*api.Security, error) {
	existing, err := b.securities.Get(ctx, id)
	if err != nil {
		return nil, b.internal("update security", err)
	}
	if existing == nil {
		return nil, api.NotFound("security")
	}
	return b.saveSecurity(ctx, id, req)
}

func (b *Backend) saveSecurity(ctx context.Context, id uuid.UUID, req api.SecurityRequest) (*api.Security, error) {
	name := strings.TrimSpace(req.Name)
	ident := strings.ToUpper(strings.TrimSpace(req.Identifier))
	if name == "" || ident == "" {
		return nil, api.Invalid("name and identifier are required")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	if currency == "" {
		currency = "EUR"
	}
	if len(currency) != 3 {
		return nil, api.Invalid("currency must be an ISO 4217 code")
	}
	s := repository.Security{
		ID:                 id,
		Name:               name,
		Identifier:         ident,
		Description:        strings.TrimSpace(req.Description),
		CurrencyCode:       currency,
		IsActive:           req.IsActive,
		SymbolAttachmentID: req.SymbolAttachmentID,
	}
	if err := b.securities.Upsert(ctx, s); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, conflict("identifier already used by another security")
		}
		return nil, b.internal("save security", err)
	}
	return b.GetSecurity(ctx, id)
}

func (b *Backend) DeleteSecurity(ctx context.Context, id uuid.UUID) error {
	s, err := b.securities.Get(ctx, id)
	if err != nil {
		return b.internal("delete security", err)
	}
	if s == nil {
		return api.NotFound("security")
	}
	if err := b.securities.Delete(ctx, id); err != nil {
		return b.internal("delete security", err)
	}
	return b.attachments.DeleteForEntity(ctx, string(api.EntitySecurity), id)
}

func toAPIContact(c repository.Contact) api.Contact {
	return api.Contact{
		ID:                    c.ID,
		Name:                  c.Name,
		Type:                  api.ContactType(c.Type),
		Description:           c.Description,
		IsPaymentIntermediary: c.IsPaymentIntermediary,
		SymbolAttachmentID:    c.SymbolAttachmentID,
	}
}

func toAPISavingsPlan(p repository.SavingsPlan) api.SavingsPlan {
	return api.SavingsPlan{
		ID:                 p.ID,
		Name:               p.Name,
		Interval:           api.SavingsPlanInterval(p.Interval),
		TargetAmount:       p.TargetAmount,
		TargetDate:         p.TargetDate,
		ContractNumber:     p.ContractNumber,
		IsActive:           p.IsActive,
		SymbolAttachmentID: p.SymbolAttachmentID,
	}
}

func toAPISecurity(s repository.Security) api.Security {
	return api.Security{
		ID:                 s.ID,
		Name:               s.Name,
		Identifier:         s.Identifier,
		Description:        s.Description,
		CurrencyCode:       s.CurrencyCode,
		IsActive:           s.IsActive,
		SymbolAttachmentID: s.SymbolAttachmentID,
	}
}
