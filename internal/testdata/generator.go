package testdata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/finmgr/internal/api"
)

// Target is the part of the api Seed writes through. Both the in-process
// backend and the remote client satisfy it.
type Target interface {
	CreateContact(ctx context.Context, req api.ContactRequest) (*api.Contact, error)
	CreateAccount(ctx context.Context, req api.AccountRequest) (*api.Account, error)
	CreateSavingsPlan(ctx context.Context, req api.SavingsPlanRequest) (*api.SavingsPlan, error)
	CreateSecurity(ctx context.Context, req api.SecurityRequest) (*api.Security, error)
	ImportPostings(ctx context.Context, accountID uuid.UUID, r io.Reader, fileName string) (*api.ImportResult, error)
}

// Summary counts what Seed created.
type Summary struct {
	Contacts     int
	Accounts     int
	SavingsPlans int
	Securities   int
	Postings     int
}

var recipients = []string{"Rewe", "Stadtwerke", "Spotify", "Deutsche Bahn", "Amazon"}

// Seed creates a small sample ledger: a bank with two accounts, a handful of
// contacts, savings plans, securities and a few weeks of postings ending at now.
// The postings are random but reproducible for a given seed.
func Seed(ctx context.Context, t Target, now time.Time, seed int64) (Summary, error) {
	var sum Summary
	rng := rand.New(rand.NewSource(seed))

	bank, err := t.CreateContact(ctx, api.ContactRequest{Name: "Sample Bank", Type: api.ContactBank})
	if err != nil {
		return sum, fmt.Errorf("bank: %w", err)
	}
	sum.Contacts++
	for _, name := range recipients {
		if _, err := t.CreateContact(ctx, api.ContactRequest{Name: name, Type: api.ContactOrganization}); err != nil {
			return sum, fmt.Errorf("contact %s: %w", name, err)
		}
		sum.Contacts++
	}

	giro, err := t.CreateAccount(ctx, api.AccountRequest{Name: "Sample Checking", Type: api.AccountGiro, IBAN: "DE89370400440532013000", BankContactID: bank.ID})
	if err != nil {
		return sum, fmt.Errorf("account: %w", err)
	}
	if _, err := t.CreateAccount(ctx, api.AccountRequest{Name: "Sample Savings", Type: api.AccountSavings, BankContactID: bank.ID}); err != nil {
		return sum, fmt.Errorf("account: %w", err)
	}
	sum.Accounts += 2

	target := decimal.NewFromInt(2500)
	due := now.AddDate(1, 0, 0)
	plans := []api.SavingsPlanRequest{
		{Name: "Holiday", Interval: api.IntervalMonthly, TargetAmount: &target, TargetDate: &due, IsActive: true},
		{Name: "Car insurance", Interval: api.IntervalAnnually, IsActive: true},
	}
	for _, p := range plans {
		if _, err := t.CreateSavingsPlan(ctx, p); err != nil {
			return sum, fmt.Errorf("savings plan %s: %w", p.Name, err)
		}
		sum.SavingsPlans++
	}

	securities := []api.SecurityRequest{
		{Name: "MSCI World ETF", Identifier: "IE00B4L5Y983", CurrencyCode: "EUR", IsActive: true},
		{Name: "Apple Inc.", Identifier: "US0378331005", CurrencyCode: "USD", IsActive: true},
	}
	for _, s := range securities {
		if _, err := t.CreateSecurity(ctx, s); err != nil {
			return sum, fmt.Errorf("security %s: %w", s.Name, err)
		}
		sum.Securities++
	}

	res, err := t.ImportPostings(ctx, giro.ID, bytes.NewReader(statement(rng, now)), "sample.csv")
	if err != nil {
		return sum, fmt.Errorf("postings: %w", err)
	}
	sum.Postings = res.Imported
	return sum, nil
}

// statement renders a CSV export in the format the posting import reads.
func statement(rng *rand.Rand, now time.Time) []byte {
	var buf bytes.Buffer
	buf.WriteString("date,amount,subject,recipient\n")
	fmt.Fprintf(&buf, "%s,2450.00,SALARY ACME,\n", now.AddDate(0, 0, -27).Format(time.DateOnly))
	for i := 0; i < 20; i++ {
		cents := rng.Intn(20000) + 500
		who := recipients[rng.Intn(len(recipients))]
		day := now.AddDate(0, 0, -rng.Intn(28))
		fmt.Fprintf(&buf, "%s,-%d.%02d,%s %d,%s\n", day.Format(time.DateOnly), cents/100, cents%100, who, i+1, who)
	}
	return buf.Bytes()
}
