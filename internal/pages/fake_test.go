package pages

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/identity"
	"github.com/jask/finmgr/internal/navigation"
	"github.com/jask/finmgr/internal/viewmodel"
)

// memClient keeps entities in maps. Methods the tests never reach panic through
// the nil embedded interface.
type memClient struct {
	api.Client
	api.ErrorState

	contacts map[uuid.UUID]api.Contact
	accounts map[uuid.UUID]api.Account
	plans    []api.SavingsPlan
	postings []api.Posting
	users    []api.User
	backups  []api.Backup

	contactQueries []api.ContactQuery
	postingQueries []api.PostingQuery
	accountReqs    []api.AccountRequest
	userReqs       []api.UserRequest
	backupCalls    int
	uploads        []api.Attachment
}

func newMemClient() *memClient {
	return &memClient{
		contacts: map[uuid.UUID]api.Contact{},
		accounts: map[uuid.UUID]api.Account{},
	}
}

func (m *memClient) LastError() string     { return m.ErrorState.LastError() }
func (m *memClient) LastErrorCode() string { return m.ErrorState.LastErrorCode() }

func (m *memClient) ListContacts(_ context.Context, q api.ContactQuery) ([]api.Contact, error) {
	m.contactQueries = append(m.contactQueries, q)
	var out []api.Contact
	for _, c := range m.contacts {
		if q.Type != nil && c.Type != *q.Type {
			continue
		}
		if !containsFold(c.Name, q.Search) {
			continue
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b api.Contact) int { return strings.Compare(a.Name, b.Name) })
	return window(out, q.Skip, q.Take), nil
}

func (m *memClient) GetContact(_ context.Context, id uuid.UUID) (*api.Contact, error) {
	c, ok := m.contacts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memClient) CreateContact(_ context.Context, req api.ContactRequest) (*api.Contact, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, m.Track(api.Invalid("name is required"))
	}
	c := api.Contact{
		ID:                    uuid.New(),
		Name:                  req.Name,
		Type:                  req.Type,
		Description:           req.Description,
		IsPaymentIntermediary: req.IsPaymentIntermediary,
		SymbolAttachmentID:    req.SymbolAttachmentID,
	}
	m.contacts[c.ID] = c
	return &c, m.Track(nil)
}

func (m *memClient) GetAccount(_ context.Context, id uuid.UUID) (*api.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memClient) ListAccounts(context.Context, *uuid.UUID) ([]api.Account, error) {
	var out []api.Account
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (m *memClient) saveAccount(id uuid.UUID, req api.AccountRequest) *api.Account {
	m.accountReqs = append(m.accountReqs, req)
	a := api.Account{
		ID:                 id,
		Name:               req.Name,
		Type:               req.Type,
		IBAN:               req.IBAN,
		BankContactID:      req.BankContactID,
		SymbolAttachmentID: req.SymbolAttachmentID,
		Balance:            m.accounts[id].Balance,
	}
	m.accounts[id] = a
	return &a
}

func (m *memClient) CreateAccount(_ context.Context, req api.AccountRequest) (*api.Account, error) {
	return m.saveAccount(uuid.New(), req), nil
}

func (m *memClient) UpdateAccount(_ context.Context, id uuid.UUID, req api.AccountRequest) (*api.Account, error) {
	if _, ok := m.accounts[id]; !ok {
		return nil, m.Track(api.NotFound("account"))
	}
	return m.saveAccount(id, req), nil
}

func (m *memClient) ListSavingsPlans(_ context.Context, onlyActive bool) ([]api.SavingsPlan, error) {
	var out []api.SavingsPlan
	for _, p := range m.plans {
		if onlyActive && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memClient) CreateSavingsPlan(_ context.Context, req api.SavingsPlanRequest) (*api.SavingsPlan, error) {
	p := api.SavingsPlan{
		ID:             uuid.New(),
		Name:           req.Name,
		Interval:       req.Interval,
		TargetAmount:   req.TargetAmount,
		TargetDate:     req.TargetDate,
		ContractNumber: req.ContractNumber,
		IsActive:       req.IsActive,
	}
	m.plans = append(m.plans, p)
	return &p, nil
}

func (m *memClient) ListPostings(_ context.Context, q api.PostingQuery) ([]api.Posting, error) {
	m.postingQueries = append(m.postingQueries, q)
	var out []api.Posting
	for _, p := range m.postings {
		if q.AccountID != nil && (p.AccountID == nil || *p.AccountID != *q.AccountID) {
			continue
		}
		out = append(out, p)
	}
	return window(out, q.Skip, q.Take), nil
}

func (m *memClient) ListAttachments(context.Context, api.AttachmentEntityKind, uuid.UUID) ([]api.Attachment, error) {
	return nil, nil
}

func (m *memClient) UploadAttachment(_ context.Context, kind api.AttachmentEntityKind, entityID uuid.UUID, r io.Reader, fileName, contentType, role string) (*api.Attachment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	a := api.Attachment{
		ID:          uuid.New(),
		EntityKind:  kind,
		EntityID:    entityID,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		Role:        role,
	}
	m.uploads = append(m.uploads, a)
	return &a, nil
}

func (m *memClient) ImportPostings(_ context.Context, accountID uuid.UUID, r io.Reader, _ string) (*api.ImportResult, error) {
	data, _ := io.ReadAll(r)
	res := &api.ImportResult{}
	for i, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "!") {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: invalid amount", i+1))
			continue
		}
		id := accountID
		m.postings = append(m.postings, api.Posting{
			ID:          uuid.New(),
			BookingDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Amount:      decimal.NewFromInt(1),
			Kind:        api.PostingBank,
			Subject:     line,
			AccountID:   &id,
		})
		res.Imported++
	}
	return res, nil
}

func (m *memClient) ListUsers(context.Context) ([]api.User, error) { return m.users, nil }

func (m *memClient) CreateUser(_ context.Context, req api.UserRequest) (*api.User, error) {
	m.userReqs = append(m.userReqs, req)
	u := api.User{ID: uuid.New(), Username: req.Username, IsAdmin: req.IsAdmin, PreferredLanguage: req.PreferredLanguage}
	m.users = append(m.users, u)
	return &u, nil
}

func (m *memClient) ListBackups(context.Context) ([]api.Backup, error) { return m.backups, nil }

func (m *memClient) CreateBackup(context.Context) (*api.Backup, error) {
	m.backupCalls++
	b := api.Backup{FileName: "finmgr-1.db", Size: 2048, CreatedAt: time.Now()}
	m.backups = append(m.backups, b)
	return &b, nil
}

// env is a host stub: it owns the history and records UI actions.
type env struct {
	client  *memClient
	history *navigation.History
	user    identity.Provider
	enums   *viewmodel.EnumRegistry
	actions []viewmodel.UIAction
}

func newEnv(location string) *env {
	enums := viewmodel.NewEnumRegistry()
	RegisterEnums(enums)
	return &env{client: newMemClient(), history: navigation.NewHistory(location), enums: enums}
}

func (e *env) services() viewmodel.Services {
	return viewmodel.Services{
		API:       e.client,
		Identity:  e.user,
		Navigator: e.history,
		Enums:     e.enums,
		PageSize:  2,
	}
}

func (e *env) watch(vm viewmodel.ViewModel) {
	vm.Core().OnUIAction(func(a viewmodel.UIAction) { e.actions = append(e.actions, a) })
}

// opened returns the locations requested through ActionOpen.
func (e *env) opened() []string {
	var out []string
	for _, a := range e.actions {
		if a.Name == viewmodel.ActionOpen {
			out = append(out, a.PayloadString())
		}
	}
	return out
}
