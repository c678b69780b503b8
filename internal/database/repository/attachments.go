package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// AttachmentRepo handles stored files.
type AttachmentRepo struct {
	db *sql.DB
}

func NewAttachmentRepo(db *sql.DB) *AttachmentRepo { return &AttachmentRepo{db: db} }

const attachmentColumns = `id, entity_kind, entity_id, file_name, content_type, size, role, uploaded_at`

func (r *AttachmentRepo) Insert(ctx context.Context, a Attachment, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO attachments(id, entity_kind, entity_id, file_name, content_type, size, role, data, uploaded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.EntityKind, a.EntityID, a.FileName, a.ContentType, a.Size, a.Role, data, a.UploadedAt)
	return err
}

func (r *AttachmentRepo) List(ctx context.Context, kind string, entityID uuid.UUID) ([]Attachment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+attachmentColumns+` FROM attachments
	WHERE entity_kind = ? AND entity_id = ? ORDER BY uploaded_at DESC, file_name`, kind, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AttachmentRepo) Get(ctx context.Context, id uuid.UUID) (*Attachment, error) {
	a, err := scanAttachment(r.db.QueryRowContext(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// Data returns the stored bytes of an attachment, nil when it does not exist.
func (r *AttachmentRepo) Data(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM attachments WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return data, err
}

// DeleteForEntity removes every attachment of an entity.
func (r *AttachmentRepo) DeleteForEntity(ctx context.Context, kind string, entityID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE entity_kind = ? AND entity_id = ?`, kind, entityID)
	return err
}

func scanAttachment(row scanner) (Attachment, error) {
	var a Attachment
	err := row.Scan(&a.ID, &a.EntityKind, &a.EntityID, &a.FileName, &a.ContentType, &a.Size, &a.Role, &a.UploadedAt)
	return a, err
}
