package pages

import (
	"context"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/localization"
	"github.com/jask/finmgr/internal/records"
	"github.com/jask/finmgr/internal/ribbon"
	"github.com/jask/finmgr/internal/viewmodel"
)

// BackupsList shows the database backups. Admins only.
type BackupsList struct {
	*viewmodel.List[api.Backup]
}

func NewBackupsList(svc viewmodel.Services) *BackupsList {
	l := &BackupsList{}
	l.List = viewmodel.NewList[api.Backup](svc, l)
	return l
}

// Initialize refuses non-admins before anything is loaded.
func (l *BackupsList) Initialize(ctx context.Context) error {
	if !requireAdmin(ctx, l.Core()) {
		return nil
	}
	return l.List.Initialize(ctx)
}

func (l *BackupsList) LoadPage(ctx context.Context, reset bool) error {
	l.PageOffset(reset)
	items, err := l.API().ListBackups(ctx)
	if err != nil {
		return err
	}
	l.AppendPage(items, 0)
	return nil
}

func (l *BackupsList) BuildRecords(items []api.Backup) ([]records.ListColumn, []records.ListRecord) {
	cols := []records.ListColumn{
		{Key: "FileName", Title: l.T("List_FileName")},
		{Key: "Size", Title: l.T("List_Size"), Width: 9, Align: records.AlignRight},
		{Key: "Created", Title: l.T("List_Created"), Width: 16},
	}
	recs := make([]records.ListRecord, 0, len(items))
	for _, b := range items {
		recs = append(recs, records.ListRecord{
			Cells: []records.ListCell{
				records.TextCell(b.FileName),
				records.TextCell(humanize.Bytes(uint64(b.Size))),
				records.MutedCell(humanize.Time(b.CreatedAt)),
			},
			Item: b,
			Hint: b.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return cols, recs
}

// CreateBackup asks the backend for a new backup and reloads.
func (l *BackupsList) CreateBackup(ctx context.Context) error {
	l.ClearError()
	b, err := l.API().CreateBackup(ctx)
	if err != nil {
		l.SetErrorFrom(err)
		l.NotifyStateChanged()
		return err
	}
	l.RequestUIAction(viewmodel.Named(viewmodel.ActionNotify, b.FileName))
	return l.Load(ctx)
}

func (l *BackupsList) Ribbon(loc localization.Localizer) []ribbon.Register {
	return []ribbon.Register{
		ribbon.NewRegister(ribbon.Actions, ribbon.NewTab(label(loc, "Tab_Backups", "Backups"), 0,
			ribbon.Action{
				ID: ActionCreateBackup, Label: label(loc, ActionCreateBackup, "Create backup"), Icon: "⛁", Size: ribbon.Large,
				Callback: l.CreateBackup,
			},
			ribbon.Action{ID: ActionReload, Label: label(loc, ActionReload, "Reload"), Icon: "↻", Callback: l.Load},
		)),
	}
}

func (l *BackupsList) Open(int) {}

// requireAdmin sets a FORBIDDEN error unless the current user is an admin. An
// unresolvable identity is left to the backend to reject.
func requireAdmin(ctx context.Context, b *viewmodel.Base) bool {
	if !b.CheckAuthentication(ctx) {
		return false
	}
	u, ok := b.CurrentUser(ctx)
	if ok && u.IsAuthenticated && !u.IsAdmin {
		b.SetError(api.CodeForbidden, http.StatusText(http.StatusForbidden))
		b.NotifyStateChanged()
		return false
	}
	return true
}
