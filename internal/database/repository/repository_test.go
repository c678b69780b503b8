package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/finmgr/internal/database"
	"github.com/jask/finmgr/internal/database/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.OpenAndMigrate(dbPath, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestContactListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewContactRepo(openTestDB(t))
	for _, c := range []repository.Contact{
		{ID: uuid.New(), Name: "Sparkasse", Type: "Bank"},
		{ID: uuid.New(), Name: "ING", Type: "Bank"},
		{ID: uuid.New(), Name: "Bakery", Type: "Organization"},
	} {
		require.NoError(t, repo.Upsert(ctx, c))
	}

	banks, err := repo.List(ctx, repository.ContactFilters{Type: "Bank"})
	require.NoError(t, err)
	require.Len(t, banks, 2)
	require.Equal(t, "ING", banks[0].Name)

	page, err := repo.List(ctx, repository.ContactFilters{Skip: 1, Take: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "ING", page[0].Name)

	found, err := repo.List(ctx, repository.ContactFilters{Search: "kas"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	missing, err := repo.Get(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestAccountBalanceAndPostings(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	contacts := repository.NewContactRepo(db)
	accounts := repository.NewAccountRepo(db)
	postings := repository.NewPostingRepo(db)

	bank := repository.Contact{ID: uuid.New(), Name: "Bank", Type: "Bank"}
	require.NoError(t, contacts.Upsert(ctx, bank))
	acct := repository.Account{ID: uuid.New(), Name: "Giro", Type: "Giro", BankContactID: bank.ID}
	require.NoError(t, accounts.Upsert(ctx, acct))

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, amt := range []string{"100.10", "-20.05", "0.01"} {
		require.NoError(t, postings.Insert(ctx, repository.Posting{
			ID:          uuid.New(),
			BookingDate: day.AddDate(0, 0, i),
			Amount:      decimal.RequireFromString(amt),
			Kind:        "Bank",
			Subject:     "p" + amt,
			AccountID:   &acct.ID,
		}))
	}

	bal, err := accounts.Balance(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, "80.06", bal.StringFixed(2))

	list, err := postings.List(ctx, repository.PostingFilters{AccountID: &acct.ID, Take: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "p0.01", list[0].Subject)
	require.Nil(t, list[0].ContactID)

	from := day.AddDate(0, 0, 1)
	ranged, err := postings.List(ctx, repository.PostingFilters{From: &from, To: &from})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	require.True(t, ranged[0].Amount.Equal(decimal.RequireFromString("-20.05")))

	byBank, err := accounts.List(ctx, &bank.ID)
	require.NoError(t, err)
	require.Len(t, byBank, 1)
	other := uuid.New()
	none, err := accounts.List(ctx, &other)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestSavingsPlanNullableColumns(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSavingsPlanRepo(openTestDB(t))
	target := decimal.RequireFromString("5000")
	date := time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, repository.SavingsPlan{ID: uuid.New(), Name: "House", Interval: "Monthly", TargetAmount: &target, TargetDate: &date, IsActive: true}))
	require.NoError(t, repo.Upsert(ctx, repository.SavingsPlan{ID: uuid.New(), Name: "Old", Interval: "Annually"}))

	active, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.True(t, active[0].TargetAmount.Equal(target))
	require.True(t, active[0].TargetDate.Equal(date))

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Nil(t, all[1].TargetAmount)
	require.Nil(t, all[1].TargetDate)
}

func TestUsersAndSessions(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)

	u := repository.User{ID: uuid.New(), Username: "Alex", PasswordHash: "x", IsAdmin: true, PreferredLanguage: "de"}
	require.NoError(t, users.Upsert(ctx, u))
	got, err := users.GetByUsername(ctx, "alex")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, u.ID, got.ID)
	require.True(t, got.IsAdmin)

	now := time.Now().UTC()
	require.NoError(t, sessions.Insert(ctx, repository.Session{Token: "t1", UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))
	s, err := sessions.Get(ctx, "t1", now)
	require.NoError(t, err)
	require.NotNil(t, s)
	s, err = sessions.Get(ctx, "t1", now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Nil(t, s)

	n, err := sessions.DeleteExpired(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestAttachmentsStoreData(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAttachmentRepo(openTestDB(t))
	owner := uuid.New()
	a := repository.Attachment{ID: uuid.New(), EntityKind: "Account", EntityID: owner, FileName: "logo.png", ContentType: "image/png", Size: 3, Role: "Symbol", UploadedAt: time.Now().UTC()}
	require.NoError(t, repo.Insert(ctx, a, []byte{1, 2, 3}))

	list, err := repo.List(ctx, "Account", owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Symbol", list[0].Role)

	data, err := repo.Data(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)

	data, err = repo.Data(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, data)
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, database.SeedDefaults(ctx, db, "admin", "admin"))
	require.NoError(t, database.SeedDefaults(ctx, db, "other", "other"))

	users := repository.NewUserRepo(db)
	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "admin", list[0].Username)

	self, err := repository.NewContactRepo(db).Get(ctx, database.SelfContactID)
	require.NoError(t, err)
	require.Equal(t, "Self", self.Type)
}
