package service

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/finmgr/internal/database"
	"github.com/jask/finmgr/internal/database/repository"
)

// ErrUnknownAccount is returned when importing into a missing account.
var ErrUnknownAccount = errors.New("account not found")

// IngestService imports bank statement exports into an account.
type IngestService struct {
	Postings *repository.PostingRepo
	Accounts *repository.AccountRepo
	Contacts *repository.ContactRepo
	Location *time.Location

	contactCache map[string]*uuid.UUID
}

type IngestResult struct {
	Imported int
	Skipped  int
	Errors   []error
}

// dateLayouts are tried in order; ISO exports first, then ANZ style d/mm/yyyy and
// the dotted form used by German banks.
var dateLayouts = []string{"2006-01-02", "2/01/2006", "02.01.2006"}

// ImportPostings reads CSV rows of the form
//
//	date, amount, subject[, recipient[, description]]
//
// A header row is skipped. Both ',' and ';' separated files are accepted. Rows
// already imported into the account are counted as skipped.
func (s *IngestService) ImportPostings(ctx context.Context, accountID uuid.UUID, r io.Reader) (IngestResult, error) {
	res := IngestResult{}
	acct, err := s.Accounts.Get(ctx, accountID)
	if err != nil {
		return res, err
	}
	if acct == nil {
		return res, ErrUnknownAccount
	}
	tz := s.Location
	if tz == nil {
		tz = time.Local
	}

	br := bufio.NewReader(r)
	csvr := csv.NewReader(br)
	csvr.Comma = sniffDelimiter(br)
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	line := 0
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if len(rec) < 3 {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: expected at least 3 columns (date, amount, subject)", line))
			continue
		}
		date, err := parseDate(rec[0], tz)
		if err != nil {
			if line == 1 {
				continue // header
			}
			res.Errors = append(res.Errors, fmt.Errorf("line %d date: %w", line, err))
			continue
		}
		amount, err := parseAmount(rec[1])
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d amount: %w", line, err))
			continue
		}
		subject := strings.TrimSpace(rec[2])
		p := repository.Posting{
			ID:          uuid.New(),
			BookingDate: date,
			Amount:      amount,
			Kind:        "Bank",
			Subject:     subject,
			AccountID:   &acct.ID,
			SourceHash:  hashSource(acct.ID.String(), date.Format(time.DateOnly), amount.String(), subject),
		}
		if len(rec) > 3 {
			p.RecipientName = strings.TrimSpace(rec[3])
			if p.ContactID, err = s.contactForName(ctx, p.RecipientName); err != nil {
				res.Errors = append(res.Errors, fmt.Errorf("line %d recipient: %w", line, err))
				continue
			}
		}
		if len(rec) > 4 {
			p.Description = strings.TrimSpace(rec[4])
		}
		if err := s.Postings.Insert(ctx, p); err != nil {
			// skip duplicates on unique constraint
			if database.IsUniqueViolation(err) {
				res.Skipped++
				continue
			}
			res.Errors = append(res.Errors, fmt.Errorf("line %d insert: %w", line, err))
			continue
		}
		res.Imported++
	}
	return res, nil
}

// contactForName links a recipient to an existing contact of the same name.
func (s *IngestService) contactForName(ctx context.Context, name string) (*uuid.UUID, error) {
	if name == "" || s.Contacts == nil {
		return nil, nil
	}
	key := strings.ToLower(name)
	if s.contactCache == nil {
		s.contactCache = make(map[string]*uuid.UUID)
	}
	if id, ok := s.contactCache[key]; ok {
		return id, nil
	}
	c, err := s.Contacts.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	var id *uuid.UUID
	if c != nil {
		id = &c.ID
	}
	s.contactCache[key] = id
	return id, nil
}

func sniffDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(512)
	first, _, _ := strings.Cut(string(head), "\n")
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}

// parseAmount accepts "1234.56", "1,234.56" and the German "1.234,56".
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	lastComma, lastDot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	default:
		s = strings.ReplaceAll(s, ",", "")
	}
	return decimal.NewFromString(s)
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func hashSource(parts ...string) *string {
	joined := strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(joined))
	h := fmt.Sprintf("%x", sum[:])
	return &h
}
