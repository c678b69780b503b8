package pages

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/localization"
	"github.com/jask/finmgr/internal/records"
	"github.com/jask/finmgr/internal/ribbon"
	"github.com/jask/finmgr/internal/viewmodel"
)

// PostingsList pages through postings, optionally restricted to one owner.
type PostingsList struct {
	*viewmodel.List[api.Posting]

	owner api.PostingQuery
}

func NewPostingsList(svc viewmodel.Services) *PostingsList {
	l := &PostingsList{}
	l.List = viewmodel.NewList[api.Posting](svc, l)
	l.owner = ownerFromLocation(svc)
	return l
}

// ownerFromLocation reads accountId, contactId, savingsPlanId or securityId
// from the current location.
func ownerFromLocation(svc viewmodel.Services) api.PostingQuery {
	var q api.PostingQuery
	if svc.Navigator == nil {
		return q
	}
	read := func(key string) *uuid.UUID {
		raw, ok := svc.Navigator.Query(key)
		if !ok {
			return nil
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil
		}
		return &id
	}
	q.AccountID = read("accountId")
	q.ContactID = read("contactId")
	q.SavingsPlanID = read("savingsPlanId")
	q.SecurityID = read("securityId")
	return q
}

// SetOwner restricts the list to the owner ids of q. Other fields are ignored.
func (l *PostingsList) SetOwner(q api.PostingQuery) {
	l.owner = api.PostingQuery{
		AccountID:     q.AccountID,
		ContactID:     q.ContactID,
		SavingsPlanID: q.SavingsPlanID,
		SecurityID:    q.SecurityID,
	}
}

func (l *PostingsList) LoadPage(ctx context.Context, reset bool) error {
	q := l.owner
	q.Search = l.Search
	q.From, q.To = l.RangeFrom, l.RangeTo
	q.Skip = l.PageOffset(reset)
	q.Take = l.PageSize()
	items, err := l.API().ListPostings(ctx, q)
	if err != nil {
		return err
	}
	l.AppendPage(items, q.Take)
	return nil
}

func (l *PostingsList) BuildRecords(items []api.Posting) ([]records.ListColumn, []records.ListRecord) {
	cols := []records.ListColumn{
		{Key: "Date", Title: l.T("List_Date"), Width: 10},
		{Key: "Subject", Title: l.T("List_Subject")},
		{Key: "Recipient", Title: l.T("List_Recipient")},
		{Key: "Kind", Title: l.T("List_Kind"), Width: 12},
		{Key: "Amount", Title: l.T("List_Amount"), Width: 14, Align: records.AlignRight},
	}
	recs := make([]records.ListRecord, 0, len(items))
	for _, p := range items {
		kind := localization.Text(l.Localizer(), "EnumType_"+EnumPostingKind+"_"+string(p.Kind), string(p.Kind))
		recs = append(recs, records.ListRecord{
			Cells: []records.ListCell{
				records.TextCell(p.BookingDate.Format(records.DateLayout)),
				records.TextCell(p.Subject),
				records.MutedCell(p.RecipientName),
				records.MutedCell(kind),
				records.CurrencyCell(p.Amount),
			},
			Item: p,
			Hint: p.Description,
		})
	}
	return cols, recs
}

// Filtered reports whether a search or date range is active.
func (l *PostingsList) Filtered() bool {
	return l.Search != "" || l.RangeFrom != nil || l.RangeTo != nil
}

// SetMonth narrows the range to the calendar month containing t.
func (l *PostingsList) SetMonth(t time.Time) {
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	l.SetRange(&from, &to)
}

func (l *PostingsList) Ribbon(loc localization.Localizer) []ribbon.Register {
	return []ribbon.Register{listRibbon(loc, l, "", l.Filtered())}
}

// Open shows the owning account of a posting.
func (l *PostingsList) Open(index int) {
	if index < 0 || index >= len(l.Items) {
		return
	}
	if id := l.Items[index].AccountID; id != nil {
		open(l.Core(), CardURI(KindAccounts, *id, nil))
	}
}
