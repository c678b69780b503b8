package backend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/database/repository"
	"github.com/jask/finmgr/internal/service"
)

// MaxAttachmentSize bounds uploaded files.
const MaxAttachmentSize = 5 << 20

func (b *Backend) ListPostings(ctx context.Context, q api.PostingQuery) ([]api.Posting, error) {
	rows, err := b.postings.List(ctx, repository.PostingFilters{
		AccountID:     q.AccountID,
		ContactID:     q.ContactID,
		SavingsPlanID: q.SavingsPlanID,
		SecurityID:    q.SecurityID,
		Search:        strings.TrimSpace(q.Search),
		From:          q.From,
		To:            q.To,
		Skip:          q.Skip,
		Take:          q.Take,
	})
	if err != nil {
		return nil, b.internal("list postings", err)
	}
	out := make([]api.Posting, 0, len(rows))
	for _, p := range rows {
		out = append(out, toAPIPosting(p))
	}
	return out, nil
}

// ImportPostings books a statement export into an account. Imports are
// serialized since the ingest service caches contacts between rows.
func (b *Backend) ImportPostings(ctx context.Context, accountID uuid.UUID, r io.Reader, fileName string) (*api.ImportResult, error) {
	b.importMu.Lock()
	defer b.importMu.Unlock()

	res, err := b.ingest.ImportPostings(ctx, accountID, r)
	if errors.Is(err, service.ErrUnknownAccount) {
		return nil, api.NotFound("account")
	}
	if err != nil {
		return nil, b.internal("import postings", err)
	}
	out := &api.ImportResult{Imported: res.Imported, Skipped: res.Skipped}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, e.Error())
	}
	b.log.Info("postings imported", "account", accountID, "file", fileName,
		"imported", res.Imported, "skipped", res.Skipped, "errors", len(res.Errors))
	return out, nil
}

func (b *Backend) ListAttachments(ctx context.Context, kind api.AttachmentEntityKind, entityID uuid.UUID) ([]api.Attachment, error) {
	rows, err := b.attachments.List(ctx, string(kind), entityID)
	if err != nil {
		return nil, b.internal("list attachments", err)
	}
	out := make([]api.Attachment, 0, len(rows))
	for _, a := range rows {
		out = append(out, toAPIAttachment(a))
	}
	return out, nil
}

// UploadAttachment stores a file for an existing entity. Symbols must be images.
func (b *Backend) UploadAttachment(ctx context.Context, kind api.AttachmentEntityKind, entityID uuid.UUID, r io.Reader, fileName, contentType, role string) (*api.Attachment, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, rejected("file name is required")
	}
	if role == api.AttachmentRoleSymbol && !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, rejected("symbols must be images")
	}
	exists, err := b.entityExists(ctx, kind, entityID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, api.NotFound(strings.ToLower(string(kind)))
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, MaxAttachmentSize+1))
	if err != nil {
		return nil, b.internal("read upload", err)
	}
	if n == 0 {
		return nil, rejected("file is empty")
	}
	if n > MaxAttachmentSize {
		return nil, rejected("file exceeds 5 MB")
	}
	if contentType == "" {
		contentType = http.DetectContentType(buf.Bytes())
	}

	a := repository.Attachment{
		ID:          uuid.New(),
		EntityKind:  string(kind),
		EntityID:    entityID,
		FileName:    fileName,
		ContentType: contentType,
		Size:        n,
		Role:        role,
		UploadedAt:  b.now(),
	}
	if err := b.attachments.Insert(ctx, a, buf.Bytes()); err != nil {
		return nil, b.internal("store attachment", err)
	}
	out := toAPIAttachment(a)
	return &out, nil
}

// AttachmentData returns the stored bytes of an attachment, nil when unknown.
func (b *Backend) AttachmentData(ctx context.Context, id uuid.UUID) (*api.Attachment, []byte, error) {
	a, err := b.attachments.Get(ctx, id)
	if err != nil {
		return nil, nil, b.internal("get attachment", err)
	}
	if a == nil {
		return nil, nil, nil
	}
	data, err := b.attachments.Data(ctx, id)
	if err != nil {
		return nil, nil, b.internal("read attachment", err)
	}
	out := toAPIAttachment(*a)
	return &out, data, nil
}

func (b *Backend) entityExists(ctx context.Context, kind api.AttachmentEntityKind, id uuid.UUID) (bool, error) {
	var (
		found bool
		err   error
	)
	switch kind {
	case api.EntityContact:
		var c *repository.Contact
		c, err = b.contacts.Get(ctx, id)
		found = c != nil
	case api.EntityAccount:
		var a *repository.Account
		a, err = b.accounts.Get(ctx, id)
		found = a != nil
	case api.EntitySavingsPlan:
		var p *repository.SavingsPlan
		p, err = b.plans.Get(ctx, id)
		found = p != nil
	case api.EntitySecurity:
		var s *repository.Security
		s, err = b.securities.Get(ctx, id)
		found = s != nil
	case api.EntityPosting:
		var p *repository.Posting
		p, err = b.postings.Get(ctx, id)
		found = p != nil
	default:
		return false, api.Invalid("unknown attachment owner " + string(kind))
	}
	if err != nil {
		return false, b.internal("lookup attachment owner", err)
	}
	return found, nil
}

func rejected(msg string) error {
	return api.NewError(http.StatusBadRequest, api.CodeUploadRejected, msg)
}

func toAPIPosting(p repository.Posting) api.Posting {
	kind := api.PostingKind(p.Kind)
	if !slices.Contains(api.PostingKinds, kind) {
		kind = api.PostingBank
	}
	return api.Posting{
		ID:            p.ID,
		BookingDate:   p.BookingDate,
		Amount:        p.Amount,
		Kind:          kind,
		Subject:       p.Subject,
		RecipientName: p.RecipientName,
		Description:   p.Description,
		AccountID:     p.AccountID,
		ContactID:     p.ContactID,
		SavingsPlanID: p.SavingsPlanID,
		SecurityID:    p.SecurityID,
	}
}

func toAPIAttachment(a repository.Attachment) api.Attachment {
	return api.Attachment{
		ID:          a.ID,
		EntityKind:  api.AttachmentEntityKind(a.EntityKind),
		EntityID:    a.EntityID,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Size:        a.Size,
		Role:        a.Role,
		UploadedAt:  a.UploadedAt,
	}
}
