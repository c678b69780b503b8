package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ContactFilters defines list filters. Take <= 0 means no limit.
type ContactFilters struct {
	Type   string
	Search string
	Skip   int
	Take   int
}

// ContactRepo handles contacts.
type ContactRepo struct {
	db *sql.DB
}

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

const contactColumns = `id, name, type, description, is_payment_intermediary, symbol_attachment_id, created_at, updated_at`

func (r *ContactRepo) Upsert(ctx context.Context, c Contact) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO contacts(id, name, type, description, is_payment_intermediary, symbol_attachment_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 type=excluded.type,
	 description=excluded.description,
	 is_payment_intermediary=excluded.is_payment_intermediary,
	 symbol_attachment_id=excluded.symbol_attachment_id,
	 updated_at=CURRENT_TIMESTAMP;
	`, c.ID, c.Name, c.Type, c.Description, c.IsPaymentIntermediary, c.SymbolAttachmentID)
	return err
}

func (r *ContactRepo) Get(ctx context.Context, id uuid.UUID) (*Contact, error) {
	c, err := scanContact(r.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// FindByName returns the first contact with the given name, ignoring case.
func (r *ContactRepo) FindByName(ctx context.Context, name string) (*Contact, error) {
	c, err := scanContact(r.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE name = ? COLLATE NOCASE ORDER BY created_at LIMIT 1`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepo) List(ctx context.Context, f ContactFilters) ([]Contact, error) {
	var where []string
	var args []any
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.Search != "" {
		where = append(where, "(name LIKE ? OR description LIKE ?)")
		args = append(args, "%"+f.Search+"%", "%"+f.Search+"%")
	}
	query := "SELECT " + contactColumns + " FROM contacts"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name COLLATE NOCASE, id LIMIT ? OFFSET ?"
	args = append(args, limit(f.Take), max(f.Skip, 0))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ContactRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	return err
}

func scanContact(row scanner) (Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Description, &c.IsPaymentIntermediary, &c.SymbolAttachmentID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// limit maps "no limit" onto sqlite's LIMIT -1.
func limit(take int) int {
	if take <= 0 {
		return -1
	}
	return take
}
