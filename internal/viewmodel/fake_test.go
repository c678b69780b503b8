package viewmodel

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
)

// fakeClient implements the parts of api.Client the tests touch. Calling
// anything else panics through the nil embedded interface.
type fakeClient struct {
	api.Client
	api.ErrorState

	contacts     []api.Contact
	contactQuery *api.ContactQuery
	plans        []api.SavingsPlan
	securities   []api.Security
	accounts     []api.Account
	bankFilter   *uuid.UUID
	listErr      error

	uploaded   []string
	uploadErr  error
	attachment uuid.UUID
}

func (f *fakeClient) LastError() string     { return f.ErrorState.LastError() }
func (f *fakeClient) LastErrorCode() string { return f.ErrorState.LastErrorCode() }

func (f *fakeClient) ListContacts(_ context.Context, q api.ContactQuery) ([]api.Contact, error) {
	f.contactQuery = &q
	if f.listErr != nil {
		return nil, f.Track(f.listErr)
	}
	var out []api.Contact
	for _, c := range f.contacts {
		if q.Type != nil && c.Type != *q.Type {
			continue
		}
		if !containsFold(c.Name, q.Search) {
			continue
		}
		out = append(out, c)
	}
	return page(out, q.Skip, q.Take), nil
}

func (f *fakeClient) ListSavingsPlans(_ context.Context, onlyActive bool) ([]api.SavingsPlan, error) {
	if f.listErr != nil {
		return nil, f.Track(f.listErr)
	}
	var out []api.SavingsPlan
	for _, p := range f.plans {
		if onlyActive && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeClient) ListSecurities(_ context.Context, onlyActive bool) ([]api.Security, error) {
	if f.listErr != nil {
		return nil, f.Track(f.listErr)
	}
	var out []api.Security
	for _, s := range f.securities {
		if onlyActive && !s.IsActive {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeClient) ListAccounts(_ context.Context, bank *uuid.UUID) ([]api.Account, error) {
	f.bankFilter = bank
	if f.listErr != nil {
		return nil, f.Track(f.listErr)
	}
	var out []api.Account
	for _, a := range f.accounts {
		if bank != nil && a.BankContactID != *bank {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeClient) UploadAttachment(_ context.Context, kind api.AttachmentEntityKind, id uuid.UUID, r io.Reader, fileName, contentType, role string) (*api.Attachment, error) {
	if f.uploadErr != nil {
		return nil, f.Track(f.uploadErr)
	}
	data, _ := io.ReadAll(r)
	f.uploaded = append(f.uploaded, fileName)
	return &api.Attachment{
		ID:          f.attachment,
		EntityKind:  kind,
		EntityID:    id,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		Role:        role,
	}, nil
}
