package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a user row.
type User struct {
	ID                uuid.UUID
	Username          string
	PasswordHash      string
	IsAdmin           bool
	PreferredLanguage string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Session represents a login session.
type Session struct {
	Token     string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Contact represents a contact row.
type Contact struct {
	ID                    uuid.UUID
	Name                  string
	Type                  string
	Description           string
	IsPaymentIntermediary bool
	SymbolAttachmentID    *uuid.UUID
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Account represents an account row.
type Account struct {
	ID                 uuid.UUID
	Name               string
	Type               string
	IBAN               string
	BankContactID      uuid.UUID
	SymbolAttachmentID *uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SavingsPlan represents a savings plan row.
type SavingsPlan struct {
	ID                 uuid.UUID
	Name               string
	Interval           string
	TargetAmount       *decimal.Decimal
	TargetDate         *time.Time
	ContractNumber     string
	IsActive           bool
	SymbolAttachmentID *uuid.UUID
}

// Security represents a security row.
type Security struct {
	ID                 uuid.UUID
	Name               string
	Identifier         string
	Description        string
	CurrencyCode       string
	IsActive           bool
	SymbolAttachmentID *uuid.UUID
}

// Posting represents a booked posting.
type Posting struct {
	ID            uuid.UUID
	BookingDate   time.Time
	Amount        decimal.Decimal
	Kind          string
	Subject       string
	RecipientName string
	Description   string
	AccountID     *uuid.UUID
	ContactID     *uuid.UUID
	SavingsPlanID *uuid.UUID
	SecurityID    *uuid.UUID
	SourceHash    *string
	CreatedAt     time.Time
}

// Attachment represents a stored file. Data is only filled by AttachmentRepo.Data.
type Attachment struct {
	ID          uuid.UUID
	EntityKind  string
	EntityID    uuid.UUID
	FileName    string
	ContentType string
	Size        int64
	Role        string
	UploadedAt  time.Time
}
