package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// SavingsPlanRepo handles savings plans.
type SavingsPlanRepo struct {
	db *sql.DB
}

func NewSavingsPlanRepo(db *sql.DB) *SavingsPlanRepo { return &SavingsPlanRepo{db: db} }

const savingsPlanColumns = `id, name, interval, target_amount, target_date, contract_number, is_active, symbol_attachment_id`

func (r *SavingsPlanRepo) Upsert(ctx context.Context, p SavingsPlan) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO savings_plans(id, name, interval, target_amount, target_date, contract_number, is_active, symbol_attachment_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 interval=excluded.interval,
	 target_amount=excluded.target_amount,
	 target_date=excluded.target_date,
	 contract_number=excluded.contract_number,
	 is_active=excluded.is_active,
	 symbol_attachment_id=excluded.symbol_attachment_id,
	 updated_at=CURRENT_TIMESTAMP;
	`, p.ID, p.Name, p.Interval, p.TargetAmount, p.TargetDate, p.ContractNumber, p.IsActive, p.SymbolAttachmentID)
	return err
}

func (r *SavingsPlanRepo) List(ctx context.Context, onlyActive bool) ([]SavingsPlan, error) {
	query := `SELECT ` + savingsPlanColumns + ` FROM savings_plans`
	if onlyActive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name COLLATE NOCASE`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SavingsPlan
	for rows.Next() {
		p, err := scanSavingsPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SavingsPlanRepo) Get(ctx context.Context, id uuid.UUID) (*SavingsPlan, error) {
	p, err := scanSavingsPlan(r.db.QueryRowContext(ctx, `SELECT `+savingsPlanColumns+` FROM savings_plans WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *SavingsPlanRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM savings_plans WHERE id = ?`, id)
	return err
}

func scanSavingsPlan(row scanner) (SavingsPlan, error) {
	var p SavingsPlan
	err := row.Scan(&p.ID, &p.Name, &p.Interval, &p.TargetAmount, &p.TargetDate, &p.ContractNumber, &p.IsActive, &p.SymbolAttachmentID)
	return p, err
}
