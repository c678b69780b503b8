package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepo handles accounts.
type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

const accountColumns = `id, name, type, iban, bank_contact_id, symbol_attachment_id, created_at, updated_at`

func (r *AccountRepo) Upsert(ctx context.Context, a Account) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(id, name, type, iban, bank_contact_id, symbol_attachment_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 type=excluded.type,
	 iban=excluded.iban,
	 bank_contact_id=excluded.bank_contact_id,
	 symbol_attachment_id=excluded.symbol_attachment_id,
	 updated_at=CURRENT_TIMESTAMP;
	`, a.ID, a.Name, a.Type, a.IBAN, a.BankContactID, a.SymbolAttachmentID)
	return err
}

// List returns accounts, optionally only those held at bankContactID.
func (r *AccountRepo) List(ctx context.Context, bankContactID *uuid.UUID) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	var args []any
	if bankContactID != nil {
		query += ` WHERE bank_contact_id = ?`
		args = append(args, *bankContactID)
	}
	query += ` ORDER BY name COLLATE NOCASE`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AccountRepo) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	return err
}

// Balance sums the postings of an account. Amounts are summed as decimals since
// sqlite would add the stored text as floats.
func (r *AccountRepo) Balance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT amount FROM postings WHERE account_id = ?`, id)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()
	sum := decimal.Zero
	for rows.Next() {
		var d decimal.Decimal
		if err := rows.Scan(&d); err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(d)
	}
	return sum, rows.Err()
}

func scanAccount(row scanner) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.Type, &a.IBAN, &a.BankContactID, &a.SymbolAttachmentID, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
