// Package api defines the backend contract consumed by the view models: the
// Client interface, its DTOs and the error type every implementation reports.
package api

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Client is the remote backend. Get methods return nil, nil when the entity does
// not exist. LastError and LastErrorCode describe the most recent failed call.
type Client interface {
	LastError() string
	LastErrorCode() string

	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*User, error)

	ListContacts(ctx context.Context, q ContactQuery) ([]Contact, error)
	GetContact(ctx context.Context, id uuid.UUID) (*Contact, error)
	CreateContact(ctx context.Context, req ContactRequest) (*Contact, error)
	UpdateContact(ctx context.Context, id uuid.UUID, req ContactRequest) (*Contact, error)
	DeleteContact(ctx context.Context, id uuid.UUID) error

	ListAccounts(ctx context.Context, bankContactID *uuid.UUID) ([]Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	CreateAccount(ctx context.Context, req AccountRequest) (*Account, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, req AccountRequest) (*Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error

	ListSavingsPlans(ctx context.Context, onlyActive bool) ([]SavingsPlan, error)
	GetSavingsPlan(ctx context.Context, id uuid.UUID) (*SavingsPlan, error)
	CreateSavingsPlan(ctx context.Context, req SavingsPlanRequest) (*SavingsPlan, error)
	UpdateSavingsPlan(ctx context.Context, id uuid.UUID, req SavingsPlanRequest) (*SavingsPlan, error)
	DeleteSavingsPlan(ctx context.Context, id uuid.UUID) error

	ListSecurities(ctx context.Context, onlyActive bool) ([]Security, error)
	GetSecurity(ctx context.Context, id uuid.UUID) (*Security, error)
	CreateSecurity(ctx context.Context, req SecurityRequest) (*Security, error)
	UpdateSecurity(ctx context.Context, id uuid.UUID, req SecurityRequest) (*Security, error)
	DeleteSecurity(ctx context.Context, id uuid.UUID) error

	ListPostings(ctx context.Context, q PostingQuery) ([]Posting, error)
	ImportPostings(ctx context.Context, accountID uuid.UUID, r io.Reader, fileName string) (*ImportResult, error)

	ListAttachments(ctx context.Context, kind AttachmentEntityKind, entityID uuid.UUID) ([]Attachment, error)
	UploadAttachment(ctx context.Context, kind AttachmentEntityKind, entityID uuid.UUID, r io.Reader, fileName, contentType, role string) (*Attachment, error)

	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	CreateUser(ctx context.Context, req UserRequest) (*User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req UserRequest) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error

	ListBackups(ctx context.Context) ([]Backup, error)
	CreateBackup(ctx context.Context) (*Backup, error)
}
