package backend

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/database"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	dir := t.TempDir()
	db, err := database.OpenAndMigrate(filepath.Join(dir, "test.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.SeedDefaults(context.Background(), db, "admin", "secret"))
	return New(db, Options{BackupDir: filepath.Join(dir, "backups"), Location: time.UTC})
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, api.ErrorCode(err))
}

func TestLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	_, err := b.Login(ctx, "admin", "wrong")
	requireCode(t, err, api.CodeInvalidLogin)

	res, err := b.Login(ctx, " ADMIN ", "secret")
	require.NoError(t, err)
	require.Len(t, res.Token, 64)
	require.True(t, res.User.IsAdmin)

	u, err := b.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, "admin", u.Username)

	require.NoError(t, b.Logout(ctx, res.Token))
	_, err = b.Authenticate(ctx, res.Token)
	requireCode(t, err, api.CodeUnauthorized)
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	start := time.Now().UTC()
	b.now = func() time.Time { return start }
	res, err := b.Login(ctx, "admin", "secret")
	require.NoError(t, err)

	b.now = func() time.Time { return start.Add(DefaultSessionTTL + time.Minute) }
	_, err = b.Authenticate(ctx, res.Token)
	requireCode(t, err, api.CodeUnauthorized)
}

func TestUserRules(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	users, err := b.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	admin := users[0]

	_, err = b.CreateUser(ctx, api.UserRequest{Username: "bob", Password: "pw"})
	requireCode(t, err, api.CodeInvalidInput)

	bob, err := b.CreateUser(ctx, api.UserRequest{Username: "bob", Password: "hunter2"})
	require.NoError(t, err)
	require.Equal(t, "en", bob.PreferredLanguage)

	_, err = b.CreateUser(ctx, api.UserRequest{Username: "Bob", Password: "hunter2"})
	requireCode(t, err, api.CodeConflict)

	_, err = b.UpdateUser(ctx, admin.ID, api.UserRequest{Username: "admin"})
	requireCode(t, err, api.CodeConflict)

	requireCode(t, b.DeleteUser(ctx, admin.ID, admin.ID), api.CodeConflict)
	requireCode(t, b.DeleteUser(ctx, bob.ID, admin.ID), api.CodeConflict)

	bob, err = b.UpdateUser(ctx, bob.ID, api.UserRequest{Username: "bob", IsAdmin: true, PreferredLanguage: "de"})
	require.NoError(t, err)
	require.True(t, bob.IsAdmin)
	_, err = b.Login(ctx, "bob", "hunter2")
	require.NoError(t, err, "empty password keeps the old one")

	require.NoError(t, b.DeleteUser(ctx, bob.ID, admin.ID))
	requireCode(t, b.DeleteUser(ctx, admin.ID, uuid.New()), api.CodeNotFound)
}

func TestContactRules(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	_, err := b.CreateContact(ctx, api.ContactRequest{Name: " ", Type: api.ContactPerson})
	requireCode(t, err, api.CodeInvalidInput)
	_, err = b.CreateContact(ctx, api.ContactRequest{Name: "X", Type: "Alien"})
	requireCode(t, err, api.CodeInvalidInput)

	bank, err := b.CreateContact(ctx, api.ContactRequest{Name: "Sparkasse", Type: api.ContactBank})
	require.NoError(t, err)

	bankType := api.ContactBank
	list, err := b.ListContacts(ctx, api.ContactQuery{Type: &bankType})
	require.NoError(t, err)
	require.Len(t, list, 1)

	requireCode(t, b.DeleteContact(ctx, database.SelfContactID), api.CodeConflict)
	_, err = b.UpdateContact(ctx, database.SelfContactID, api.ContactRequest{Name: "Me", Type: api.ContactPerson})
	requireCode(t, err, api.CodeConflict)

	_, err = b.CreateAccount(ctx, api.AccountRequest{Name: "Giro", Type: api.AccountGiro, BankContactID: bank.ID})
	require.NoError(t, err)
	requireCode(t, b.DeleteContact(ctx, bank.ID), api.CodeConflict)

	missing, err := b.GetContact(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestAccountValidationAndBalance(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	bank, err := b.CreateContact(ctx, api.ContactRequest{Name: "Bank", Type: api.ContactBank})
	require.NoError(t, err)

	_, err = b.CreateAccount(ctx, api.AccountRequest{Name: "Giro", Type: api.AccountGiro, BankContactID: uuid.New()})
	requireCode(t, err, api.CodeInvalidInput)
	_, err = b.CreateAccount(ctx, api.AccountRequest{Name: "Giro", Type: "Depot", BankContactID: bank.ID})
	requireCode(t, err, api.CodeInvalidInput)

	acct, err := b.CreateAccount(ctx, api.AccountRequest{Name: "Giro", Type: api.AccountGiro, IBAN: "de89 3704 0044 0532 0130 00", BankContactID: bank.ID})
	require.NoError(t, err)
	require.Equal(t, "DE89370400440532013000", acct.IBAN)
	require.True(t, acct.Balance.IsZero())

	csv := "date;amount;subject\n2026-03-01;1.234,50;Salary\n2026-03-02;-34,50;Groceries\n"
	res, err := b.ImportPostings(ctx, acct.ID, strings.NewReader(csv), "march.csv")
	require.NoError(t, err)
	require.Equal(t, 2, res.Imported)
	require.Empty(t, res.Errors)

	again, err := b.ImportPostings(ctx, acct.ID, strings.NewReader(csv), "march.csv")
	require.NoError(t, err)
	require.Equal(t, 2, again.Skipped)

	acct, err = b.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("1200").Equal(acct.Balance), acct.Balance.String())

	postings, err := b.ListPostings(ctx, api.PostingQuery{AccountID: &acct.ID, Take: 1})
	require.NoError(t, err)
	require.Len(t, postings, 1)

	_, err = b.ImportPostings(ctx, uuid.New(), strings.NewReader(csv), "x.csv")
	requireCode(t, err, api.CodeNotFound)
}

func TestSavingsPlansAndSecurities(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	neg := decimal.NewFromInt(-1)
	_, err := b.CreateSavingsPlan(ctx, api.SavingsPlanRequest{Name: "Car", Interval: api.IntervalMonthly, TargetAmount: &neg})
	requireCode(t, err, api.CodeInvalidInput)

	target := decimal.NewFromInt(5000)
	_, err = b.CreateSavingsPlan(ctx, api.SavingsPlanRequest{Name: "Car", Interval: api.IntervalMonthly, TargetAmount: &target, IsActive: true})
	require.NoError(t, err)
	_, err = b.CreateSavingsPlan(ctx, api.SavingsPlanRequest{Name: "Old", Interval: api.IntervalAnnually})
	require.NoError(t, err)
	active, err := b.ListSavingsPlans(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.True(t, target.Equal(*active[0].TargetAmount))

	sec, err := b.CreateSecurity(ctx, api.SecurityRequest{Name: "World ETF", Identifier: "ie00b4l5y983", IsActive: true})
	require.NoError(t, err)
	require.Equal(t, "IE00B4L5Y983", sec.Identifier)
	require.Equal(t, "EUR", sec.CurrencyCode)

	_, err = b.CreateSecurity(ctx, api.SecurityRequest{Name: "Dup", Identifier: "IE00B4L5Y983"})
	requireCode(t, err, api.CodeConflict)
	_, err = b.CreateSecurity(ctx, api.SecurityRequest{Name: "Bad", Identifier: "X", CurrencyCode: "EURO"})
	requireCode(t, err, api.CodeInvalidInput)

	require.NoError(t, b.DeleteSecurity(ctx, sec.ID))
	requireCode(t, b.DeleteSecurity(ctx, sec.ID), api.CodeNotFound)
}

func TestUploadAttachment(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	png := []byte("\x89PNG\r\n\x1a\n0000")

	_, err := b.UploadAttachment(ctx, api.EntityContact, uuid.New(), bytes.NewReader(png), "me.png", "image/png", api.AttachmentRoleSymbol)
	requireCode(t, err, api.CodeNotFound)

	_, err = b.UploadAttachment(ctx, api.EntityContact, database.SelfContactID, strings.NewReader("hello"), "a.txt", "text/plain", api.AttachmentRoleSymbol)
	requireCode(t, err, api.CodeUploadRejected)

	big := bytes.Repeat([]byte{1}, MaxAttachmentSize+1)
	_, err = b.UploadAttachment(ctx, api.EntityContact, database.SelfContactID, bytes.NewReader(big), "big.bin", "", "")
	requireCode(t, err, api.CodeUploadRejected)

	a, err := b.UploadAttachment(ctx, api.EntityContact, database.SelfContactID, bytes.NewReader(png), "me.png", "", api.AttachmentRoleSymbol)
	require.Error(t, err, "sniffed content type is not trusted for symbols")
	require.Nil(t, a)

	a, err = b.UploadAttachment(ctx, api.EntityContact, database.SelfContactID, bytes.NewReader(png), "me.png", "image/png", api.AttachmentRoleSymbol)
	require.NoError(t, err)
	require.EqualValues(t, len(png), a.Size)

	list, err := b.ListAttachments(ctx, api.EntityContact, database.SelfContactID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	meta, data, err := b.AttachmentData(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "me.png", meta.FileName)
	require.Equal(t, png, data)
}

func TestBackups(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	bk, err := b.CreateBackup(ctx)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(bk.FileName, "finmgr-"))

	list, err := b.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, b.PruneSessions(ctx))
}
