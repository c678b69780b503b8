package viewmodel

import (
	"context"
	"fmt"
	"time"

	"github.com/jask/finmgr/internal/records"
)

// PageSource fetches one page into a List. Implementations call PageOffset and
// AppendPage so every list follows the same pagination rule.
type PageSource interface {
	LoadPage(ctx context.Context, reset bool) error
}

// RecordBuilder projects list items into columns and records.
type RecordBuilder[T any] interface {
	BuildRecords(items []T) ([]records.ListColumn, []records.ListRecord)
}

// List is a paginated, filterable collection of T.
type List[T any] struct {
	*Base

	Items       []T
	CanLoadMore bool
	Loading     bool
	Loaded      bool

	Search    string
	RangeFrom *time.Time
	RangeTo   *time.Time

	Columns []records.ListColumn
	Records []records.ListRecord

	offset int
}

// NewList builds a list whose hooks are looked up on owner.
func NewList[T any](svc Services, owner any) *List[T] {
	return &List[T]{Base: NewBase(svc, owner)}
}

func (l *List[T]) PageSize() int { return l.services.PageSize }

// Initialize loads the first page unless authentication is required.
func (l *List[T]) Initialize(ctx context.Context) error {
	if !l.CheckAuthentication(ctx) {
		return nil
	}
	return l.Load(ctx)
}

// Load discards the current items and fetches the first page. Errors from the
// page source are returned; the flags are settled either way.
func (l *List[T]) Load(ctx context.Context) error {
	l.Loading, l.Loaded = true, false
	l.Items = nil
	l.CanLoadMore = false
	defer func() {
		l.Loading, l.Loaded = false, true
		l.NotifyStateChanged()
	}()

	if err := l.loadPage(ctx, true); err != nil {
		return err
	}
	l.BuildRecords()
	return nil
}

// LoadMore appends the next page. It does nothing when the last page was short.
func (l *List[T]) LoadMore(ctx context.Context) error {
	if !l.CanLoadMore {
		return nil
	}
	l.Loading = true
	defer func() {
		l.Loading = false
		l.NotifyStateChanged()
	}()

	if err := l.loadPage(ctx, false); err != nil {
		return err
	}
	l.BuildRecords()
	return nil
}

func (l *List[T]) loadPage(ctx context.Context, reset bool) error {
	src, ok := l.owner.(PageSource)
	if !ok {
		return fmt.Errorf("list %T has no page source", l.owner)
	}
	return src.LoadPage(ctx, reset)
}

// PageOffset returns the offset of the page to fetch, rewinding on reset.
func (l *List[T]) PageOffset(reset bool) int {
	if reset {
		l.offset = 0
	}
	return l.offset
}

// AppendPage appends a fetched page. More pages may exist only when a full page
// came back.
func (l *List[T]) AppendPage(items []T, requested int) {
	l.Items = append(l.Items, items...)
	l.offset += len(items)
	l.CanLoadMore = requested > 0 && len(items) == requested
}

// SetSearch and the other filter setters only change state; callers reload.
func (l *List[T]) SetSearch(s string) { l.Search = s }

func (l *List[T]) SetRange(from, to *time.Time) { l.RangeFrom, l.RangeTo = from, to }

func (l *List[T]) ClearSearch() { l.Search = "" }

func (l *List[T]) ClearRange() { l.RangeFrom, l.RangeTo = nil, nil }

// ResetAndSearch empties the list ahead of a fresh filtered load.
func (l *List[T]) ResetAndSearch() {
	l.Items = nil
	l.offset = 0
	l.CanLoadMore = true
}

// BuildRecords rebuilds Columns and Records from Items.
func (l *List[T]) BuildRecords() {
	if rb, ok := l.owner.(RecordBuilder[T]); ok {
		l.Columns, l.Records = rb.BuildRecords(l.Items)
	} else {
		l.Columns = []records.ListColumn{{Key: "Name", Title: l.T("List_Name")}}
		l.Records = make([]records.ListRecord, 0, len(l.Items))
		for _, it := range l.Items {
			l.Records = append(l.Records, records.ListRecord{
				Cells: []records.ListCell{records.TextCell(fmt.Sprint(it))},
				Item:  it,
			})
		}
	}
	for i := range l.Records {
		l.Records[i] = l.Records[i].Align(l.Columns)
	}
}

// Table returns the rendered columns and records.
func (l *List[T]) Table() ([]records.ListColumn, []records.ListRecord) { return l.Columns, l.Records }

func (l *List[T]) MoreAvailable() bool { return l.CanLoadMore }

func (l *List[T]) IsLoading() bool { return l.Loading }
