package pages

import (
	"context"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/localization"
	"github.com/jask/finmgr/internal/records"
	"github.com/jask/finmgr/internal/ribbon"
	"github.com/jask/finmgr/internal/viewmodel"
)

// AttachmentsList shows the files of one entity. It lives as a card panel.
type AttachmentsList struct {
	*viewmodel.List[api.Attachment]

	kind     api.AttachmentEntityKind
	entityID uuid.UUID
}

func NewAttachmentsList(svc viewmodel.Services) *AttachmentsList {
	l := &AttachmentsList{}
	l.List = viewmodel.NewList[api.Attachment](svc, l)
	return l
}

func (l *AttachmentsList) SetOwner(kind api.AttachmentEntityKind, id uuid.UUID) {
	l.kind, l.entityID = kind, id
}

// LoadPage fetches every attachment at once; the backend does not page them.
func (l *AttachmentsList) LoadPage(ctx context.Context, reset bool) error {
	l.PageOffset(reset)
	if l.entityID == uuid.Nil {
		l.AppendPage(nil, 0)
		return nil
	}
	items, err := l.API().ListAttachments(ctx, l.kind, l.entityID)
	if err != nil {
		return err
	}
	l.AppendPage(items, 0)
	return nil
}

func (l *AttachmentsList) BuildRecords(items []api.Attachment) ([]records.ListColumn, []records.ListRecord) {
	cols := []records.ListColumn{
		{Key: "Symbol", Width: 2},
		{Key: "FileName", Title: l.T("List_FileName")},
		{Key: "Type", Title: l.T("List_ContentType"), Width: 16},
		{Key: "Size", Title: l.T("List_Size"), Width: 9, Align: records.AlignRight},
		{Key: "Uploaded", Title: l.T("List_Uploaded"), Width: 14},
	}
	recs := make([]records.ListRecord, 0, len(items))
	for _, a := range items {
		symbol := records.TextCell("")
		if a.Role == api.AttachmentRoleSymbol {
			id := a.ID
			symbol = records.SymbolCell(&id)
		}
		recs = append(recs, records.ListRecord{
			Cells: []records.ListCell{
				symbol,
				records.TextCell(a.FileName),
				records.MutedCell(a.ContentType),
				records.TextCell(humanize.Bytes(uint64(a.Size))),
				records.MutedCell(humanize.Time(a.UploadedAt)),
			},
			Item: a,
		})
	}
	return cols, recs
}

// Upload stores a file for the owner and reloads.
func (l *AttachmentsList) Upload(ctx context.Context, r io.Reader, fileName, contentType string) error {
	if _, err := l.API().UploadAttachment(ctx, l.kind, l.entityID, r, fileName, contentType, ""); err != nil {
		l.SetErrorFrom(err)
		l.NotifyStateChanged()
		return err
	}
	return l.Load(ctx)
}

func (l *AttachmentsList) Ribbon(loc localization.Localizer) []ribbon.Register {
	return []ribbon.Register{ribbon.NewRegister(ribbon.Actions, ribbon.NewTab(label(loc, "Tab_Attachments", "Attachments"), 5,
		ribbon.Action{
			ID: ActionUploadAttachment, Label: label(loc, ActionUploadAttachment, "Upload"), Icon: "⇪",
			Disabled:     l.entityID == uuid.Nil,
			FileCallback: l.Upload,
		},
	))}
}

// Open has nothing to open; files are downloaded by the host.
func (l *AttachmentsList) Open(int) {}
