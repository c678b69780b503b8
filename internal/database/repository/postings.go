package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PostingFilters defines list filters. Take <= 0 means no limit.
type PostingFilters struct {
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

// PostingRepo handles postings.
type PostingRepo struct {
	db *sql.DB
}

func NewPostingRepo(db *sql.DB) *PostingRepo { return &PostingRepo{db: db} }

const postingColumns = `id, booking_date, amount, kind, subject, recipient_name, description,
 account_id, contact_id, savings_plan_id, security_id, source_hash, created_at`

func (r *PostingRepo) Insert(ctx context.Context, p Posting) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO postings(
	 id, booking_date, amount, kind, subject, recipient_name, description,
	 account_id, contact_id, savings_plan_id, security_id, source_hash, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
	`,
		p.ID, p.BookingDate, p.Amount, p.Kind, p.Subject, p.RecipientName, p.Description,
		p.AccountID, p.ContactID, p.SavingsPlanID, p.SecurityID, p.SourceHash)
	return err
}

func (r *PostingRepo) List(ctx context.Context, f PostingFilters) ([]Posting, error) {
	var where []string
	var args []any

	owner := func(col string, id *uuid.UUID) {
		if id != nil {
			where = append(where, col+" = ?")
			args = append(args, *id)
		}
	}
	owner("account_id", f.AccountID)
	owner("contact_id", f.ContactID)
	owner("savings_plan_id", f.SavingsPlanID)
	owner("security_id", f.SecurityID)
	if f.From != nil {
		where = append(where, "booking_date >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "booking_date <= ?")
		args = append(args, *f.To)
	}
	if f.Search != "" {
		where = append(where, "(subject LIKE ? OR recipient_name LIKE ? OR description LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like, like)
	}

	query := "SELECT " + postingColumns + " FROM postings"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY booking_date DESC, created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit(f.Take), max(f.Skip, 0))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostingRepo) Get(ctx context.Context, id uuid.UUID) (*Posting, error) {
	p, err := scanPosting(r.db.QueryRowContext(ctx, `SELECT `+postingColumns+` FROM postings WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPosting(row scanner) (Posting, error) {
	var p Posting
	var source sql.NullString
	if err := row.Scan(&p.ID, &p.BookingDate, &p.Amount, &p.Kind, &p.Subject, &p.RecipientName, &p.Description,
		&p.AccountID, &p.ContactID, &p.SavingsPlanID, &p.SecurityID, &source, &p.CreatedAt); err != nil {
		return Posting{}, err
	}
	if source.Valid {
		p.SourceHash = &source.String
	}
	return p, nil
}
