package api

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContactType classifies a contact.
type ContactType string

const (
	ContactSelf         ContactType = "Self"
	ContactBank         ContactType = "Bank"
	ContactPerson       ContactType = "Person"
	ContactOrganization ContactType = "Organization"
	ContactOther        ContactType = "Other"
)

var ContactTypes = []ContactType{ContactSelf, ContactBank, ContactPerson, ContactOrganization, ContactOther}

// ParseContactType matches case-insensitively.
func ParseContactType(s string) (ContactType, bool) {
	for _, t := range ContactTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

type AccountType string

const (
	AccountGiro    AccountType = "Giro"
	AccountSavings AccountType = "Savings"
)

var AccountTypes = []AccountType{AccountGiro, AccountSavings}

type SavingsPlanInterval string

const (
	IntervalMonthly    SavingsPlanInterval = "Monthly"
	IntervalQuarterly  SavingsPlanInterval = "Quarterly"
	IntervalBiAnnually SavingsPlanInterval = "BiAnnually"
	IntervalAnnually   SavingsPlanInterval = "Annually"
)

var SavingsPlanIntervals = []SavingsPlanInterval{IntervalMonthly, IntervalQuarterly, IntervalBiAnnually, IntervalAnnually}

type PostingKind string

const (
	PostingBank        PostingKind = "Bank"
	PostingContact     PostingKind = "Contact"
	PostingSavingsPlan PostingKind = "SavingsPlan"
	PostingSecurity    PostingKind = "Security"
)

var PostingKinds = []PostingKind{PostingBank, PostingContact, PostingSavingsPlan, PostingSecurity}

// AttachmentEntityKind names the owner of an attachment.
type AttachmentEntityKind string

const (
	EntityAccount     AttachmentEntityKind = "Account"
	EntityContact     AttachmentEntityKind = "Contact"
	EntitySavingsPlan AttachmentEntityKind = "SavingsPlan"
	EntitySecurity    AttachmentEntityKind = "Security"
	EntityPosting     AttachmentEntityKind = "Posting"
)

// AttachmentRoleSymbol tags an attachment used as an entity icon.
const AttachmentRoleSymbol = "Symbol"

type Contact struct {
	ID                    uuid.UUID   `json:"id"`
	Name                  string      `json:"name"`
	Type                  ContactType `json:"type"`
	Description           string      `json:"description,omitempty"`
	IsPaymentIntermediary bool        `json:"isPaymentIntermediary"`
	SymbolAttachmentID    *uuid.UUID  `json:"symbolAttachmentId,omitempty"`
}

func (c Contact) String() string { return c.Name }

// Request returns the stored state of c as an update request.
func (c Contact) Request() ContactRequest {
	return ContactRequest{
		Name:                  c.Name,
		Type:                  c.Type,
		Description:           c.Description,
		IsPaymentIntermediary: c.IsPaymentIntermediary,
		SymbolAttachmentID:    c.SymbolAttachmentID,
	}
}

type ContactRequest struct {
	Name                  string      `json:"name"`
	Type                  ContactType `json:"type"`
	Description           string      `json:"description,omitempty"`
	IsPaymentIntermediary bool        `json:"isPaymentIntermediary"`
	SymbolAttachmentID    *uuid.UUID  `json:"symbolAttachmentId,omitempty"`
}

// ContactQuery pages and filters the contact listing.
type ContactQuery struct {
	Type   *ContactType
	Search string
	Skip   int
	Take   int
}

type Account struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Type               AccountType     `json:"type"`
	IBAN               string          `json:"iban,omitempty"`
	BankContactID      uuid.UUID       `json:"bankContactId"`
	Balance            decimal.Decimal `json:"balance"`
	SymbolAttachmentID *uuid.UUID      `json:"symbolAttachmentId,omitempty"`
}

func (a Account) String() string { return a.Name }

func (a Account) Request() AccountRequest {
	return AccountRequest{
		Name:               a.Name,
		Type:               a.Type,
		IBAN:               a.IBAN,
		BankContactID:      a.BankContactID,
		SymbolAttachmentID: a.SymbolAttachmentID,
	}
}

type AccountRequest struct {
	Name               string      `json:"name"`
	Type               AccountType `json:"type"`
	IBAN               string      `json:"iban,omitempty"`
	BankContactID      uuid.UUID   `json:"bankContactId"`
	SymbolAttachmentID *uuid.UUID  `json:"symbolAttachmentId,omitempty"`
}

type SavingsPlan struct {
	ID                 uuid.UUID           `json:"id"`
	Name               string              `json:"name"`
	Interval           SavingsPlanInterval `json:"interval"`
	TargetAmount       *decimal.Decimal    `json:"targetAmount,omitempty"`
	TargetDate         *time.Time          `json:"targetDate,omitempty"`
	ContractNumber     string              `json:"contractNumber,omitempty"`
	IsActive           bool                `json:"isActive"`
	SymbolAttachmentID *uuid.UUID          `json:"symbolAttachmentId,omitempty"`
}

func (s SavingsPlan) String() string { return s.Name }

func (s SavingsPlan) Request() SavingsPlanRequest {
	return SavingsPlanRequest{
		Name:               s.Name,
		Interval:           s.Interval,
		TargetAmount:       s.TargetAmount,
		TargetDate:         s.TargetDate,
		ContractNumber:     s.ContractNumber,
		IsActive:           s.IsActive,
		SymbolAttachmentID: s.SymbolAttachmentID,
	}
}

type SavingsPlanRequest struct {
	Name               string              `json:"name"`
	Interval           SavingsPlanInterval `json:"interval"`
	TargetAmount       *decimal.Decimal    `json:"targetAmount,omitempty"`
	TargetDate         *time.Time          `json:"targetDate,omitempty"`
	ContractNumber     string              `json:"contractNumber,omitempty"`
	IsActive           bool                `json:"isActive"`
	SymbolAttachmentID *uuid.UUID          `json:"symbolAttachmentId,omitempty"`
}

type Security struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Identifier         string     `json:"identifier"`
	Description        string     `json:"description,omitempty"`
	CurrencyCode       string     `json:"currencyCode"`
	IsActive           bool       `json:"isActive"`
	SymbolAttachmentID *uuid.UUID `json:"symbolAttachmentId,omitempty"`
}

func (s Security) String() string { return s.Name }

func (s Security) Request() SecurityRequest {
	return SecurityRequest{
		Name:               s.Name,
		Identifier:         s.Identifier,
		Description:        s.Description,
		CurrencyCode:       s.CurrencyCode,
		IsActive:           s.IsActive,
		SymbolAttachmentID: s.SymbolAttachmentID,
	}
}

type SecurityRequest struct {
	Name               string     `json:"name"`
	Identifier         string     `json:"identifier"`
	Description        string     `json:"description,omitempty"`
	CurrencyCode       string     `json:"currencyCode"`
	IsActive           bool       `json:"isActive"`
	SymbolAttachmentID *uuid.UUID `json:"symbolAttachmentId,omitempty"`
}

type Posting struct {
	ID            uuid.UUID       `json:"id"`
	BookingDate   time.Time       `json:"bookingDate"`
	Amount        decimal.Decimal `json:"amount"`
	Kind          PostingKind     `json:"kind"`
	Subject       string          `json:"subject,omitempty"`
	RecipientName string          `json:"recipientName,omitempty"`
	Description   string          `json:"description,omitempty"`
	AccountID     *uuid.UUID      `json:"accountId,omitempty"`
	ContactID     *uuid.UUID      `json:"contactId,omitempty"`
	SavingsPlanID *uuid.UUID      `json:"savingsPlanId,omitempty"`
	SecurityID    *uuid.UUID      `json:"securityId,omitempty"`
}

func (p Posting) String() string { return p.Subject }

// PostingQuery pages and filters postings. At most one owner id is expected.
type PostingQuery struct {
	AccountID     *uuid.UUID
	ContactID     *uuid.UUID
	SavingsPlanID *uuid.UUID
	SecurityID    *uuid.UUID
	Search        string
	From          *time.Time
	To            *time.Time
	Skip          int
	Take          int
}

// ImportResult reports a posting import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

type Attachment struct {
	ID          uuid.UUID            `json:"id"`
	EntityKind  AttachmentEntityKind `json:"entityKind"`
	EntityID    uuid.UUID            `json:"entityId"`
	FileName    string               `json:"fileName"`
	ContentType string               `json:"contentType"`
	Size        int64                `json:"size"`
	Role        string               `json:"role,omitempty"`
	UploadedAt  time.Time            `json:"uploadedAt"`
}

func (a Attachment) String() string { return a.FileName }

type User struct {
	ID                uuid.UUID `json:"id"`
	Username          string    `json:"username"`
	IsAdmin           bool      `json:"isAdmin"`
	PreferredLanguage string    `json:"preferredLanguage,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

func (u User) String() string { return u.Username }

// UserRequest creates or updates a user. An empty password on update keeps the
// current one.
type UserRequest struct {
	Username          string `json:"username"`
	Password          string `json:"password,omitempty"`
	IsAdmin           bool   `json:"isAdmin"`
	PreferredLanguage string `json:"preferredLanguage,omitempty"`
}

// NewUserRequest returns the defaults for a user created from the admin screen.
func NewUserRequest() UserRequest {
	return UserRequest{PreferredLanguage: "en"}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Backup struct {
	FileName  string    `json:"fileName"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

func (b Backup) String() string { return b.FileName }
