package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/finmgr/internal/identity"
	"github.com/jask/finmgr/internal/records"
)

type numberList struct {
	*List[int]
	backend []int
	calls   int
	failing error
}

func newNumberList(svc Services, total int) *numberList {
	n := &numberList{}
	n.List = NewList[int](svc, n)
	for i := range total {
		n.backend = append(n.backend, i)
	}
	return n
}

func (n *numberList) LoadPage(_ context.Context, reset bool) error {
	n.calls++
	if n.failing != nil {
		return n.failing
	}
	off := n.PageOffset(reset)
	take := n.PageSize()
	n.AppendPage(page(n.backend, off, take), take)
	return nil
}

func TestListPaginationStopsOnShortPage(t *testing.T) {
	ctx := context.Background()
	l := newNumberList(Services{PageSize: 50}, 51)

	require.NoError(t, l.Initialize(ctx))
	require.Len(t, l.Items, 50)
	require.True(t, l.CanLoadMore)
	require.True(t, l.Loaded)
	require.False(t, l.Loading)

	require.NoError(t, l.LoadMore(ctx))
	require.Len(t, l.Items, 51)
	require.False(t, l.CanLoadMore)
	require.Equal(t, 50, l.Items[50])

	require.NoError(t, l.LoadMore(ctx))
	require.Equal(t, 2, l.calls, "load more after a short page must not fetch")
	require.Len(t, l.Items, 51)
}

func TestListReloadDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	l := newNumberList(Services{PageSize: 10}, 25)

	require.NoError(t, l.Load(ctx))
	require.NoError(t, l.LoadMore(ctx))
	require.Len(t, l.Items, 20)

	require.NoError(t, l.Load(ctx))
	first := append([]int(nil), l.Items...)
	require.NoError(t, l.Load(ctx))
	require.Equal(t, first, l.Items)
	require.Len(t, l.Items, 10)
	require.Equal(t, 0, l.Items[0])
}

func TestListInitializeRequiresAuthentication(t *testing.T) {
	svc := Services{Identity: identity.Static{IsAuthenticated: false}}
	l := newNumberList(svc, 5)
	var raised int
	l.OnAuthenticationRequired(func(string) { raised++ })

	require.NoError(t, l.Initialize(context.Background()))
	require.False(t, l.Loaded)
	require.Zero(t, l.calls)
	require.Equal(t, 1, raised)
}

func TestListInitializeIgnoresIdentityFailure(t *testing.T) {
	svc := Services{Identity: identity.Func(func(context.Context) (identity.User, error) {
		return identity.User{}, errors.New("offline")
	})}
	l := newNumberList(svc, 3)
	require.NoError(t, l.Initialize(context.Background()))
	require.True(t, l.Loaded)
	require.Len(t, l.Items, 3)
}

func TestListLoadErrorPropagatesAndSettlesFlags(t *testing.T) {
	l := newNumberList(Services{}, 3)
	l.failing = errors.New("boom")
	var changed int
	l.OnStateChanged(func() { changed++ })

	err := l.Load(context.Background())
	require.EqualError(t, err, "boom")
	require.False(t, l.Loading)
	require.True(t, l.Loaded)
	require.Equal(t, 1, changed)
}

func TestListSettersDoNotReload(t *testing.T) {
	ctx := context.Background()
	l := newNumberList(Services{}, 3)
	require.NoError(t, l.Load(ctx))
	before := append([]int(nil), l.Items...)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.SetSearch("x")
	l.SetRange(&from, nil)
	require.Equal(t, before, l.Items)
	require.Equal(t, 1, l.calls)
	require.Equal(t, "x", l.Search)

	l.ClearSearch()
	l.ClearRange()
	require.Empty(t, l.Search)
	require.Nil(t, l.RangeFrom)
	require.Equal(t, 1, l.calls)
}

func TestListResetAndSearch(t *testing.T) {
	l := newNumberList(Services{}, 3)
	require.NoError(t, l.Load(context.Background()))
	require.False(t, l.CanLoadMore)

	l.ResetAndSearch()
	require.Empty(t, l.Items)
	require.True(t, l.CanLoadMore)
}

func TestListDefaultRecords(t *testing.T) {
	l := newNumberList(Services{}, 2)
	require.NoError(t, l.Load(context.Background()))
	require.Len(t, l.Columns, 1)
	require.Len(t, l.Records, 2)
	require.Equal(t, records.CellText, l.Records[1].Cells[0].Kind)
	require.Equal(t, "1", l.Records[1].Cells[0].Text)
	require.Equal(t, 1, l.Records[1].Item)
}

type labelledList struct {
	*numberList
}

func (labelledList) BuildRecords(items []int) ([]records.ListColumn, []records.ListRecord) {
	cols := []records.ListColumn{{Key: "N"}, {Key: "Double", Align: records.AlignRight}}
	var recs []records.ListRecord
	for _, it := range items {
		// one cell short; the list pads it
		recs = append(recs, records.ListRecord{Cells: []records.ListCell{records.TextCell(fmt.Sprint(it))}, Item: it})
	}
	return cols, recs
}

func TestListCustomRecordsAreAligned(t *testing.T) {
	inner := newNumberList(Services{}, 2)
	l := labelledList{inner}
	inner.List = NewList[int](Services{}, l)

	require.NoError(t, inner.Load(context.Background()))
	require.Len(t, inner.Columns, 2)
	require.Len(t, inner.Records[0].Cells, 2)
}
