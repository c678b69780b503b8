package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// SecurityRepo handles securities.
type SecurityRepo struct {
	db *sql.DB
}

func NewSecurityRepo(db *sql.DB) *SecurityRepo { return &SecurityRepo{db: db} }

const securityColumns = `id, name, identifier, description, currency_code, is_active, symbol_attachment_id`

func (r *SecurityRepo) Upsert(ctx context.Context, s Security) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO securities(id, name, identifier, description, currency_code, is_active, symbol_attachment_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 identifier=excluded.identifier,
	 description=excluded.description,
	 currency_code=excluded.currency_code,
	 is_active=excluded.is_active,
	 symbol_attachment_id=excluded.symbol_attachment_id,
	 updated_at=CURRENT_TIMESTAMP;
	`, s.ID, s.Name, s.Identifier, s.Description, s.CurrencyCode, s.IsActive, s.SymbolAttachmentID)
	return err
}

func (r *SecurityRepo) List(ctx context.Context, onlyActive bool) ([]Security, error) {
	query := `SELECT ` + securityColumns + ` FROM securities`
	if onlyActive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name COLLATE NOCASE`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Security
	for rows.Next() {
		s, err := scanSecurity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SecurityRepo) Get(ctx context.Context, id uuid.UUID) (*Security, error) {
	s, err := scanSecurity(r.db.QueryRowContext(ctx, `SELECT `+securityColumns+` FROM securities WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SecurityRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM securities WHERE id = ?`, id)
	return err
}

func scanSecurity(row scanner) (Security, error) {
	var s Security
	err := row.Scan(&s.ID, &s.Name, &s.Identifier, &s.Description, &s.CurrencyCode, &s.IsActive, &s.SymbolAttachmentID)
	return s, err
}
