package tui

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jask/finmgr/internal/records"
)

func names(items []records.LookupItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestRankLookup(t *testing.T) {
	items := []records.LookupItem{
		{Key: uuid.New(), Name: "Volksbank Mitte"},
		{Key: uuid.New(), Name: "Bank"},
		{Key: uuid.New(), Name: "Postbank"},
		{Key: uuid.New(), Name: "Bankhaus Lampe"},
		{Key: uuid.New(), Name: "Sparkasse"},
	}

	got := names(rankLookup(items, "bank"))
	require.Equal(t, []string{"Bank", "Bankhaus Lampe", "Postbank", "Volksbank Mitte", "Sparkasse"}, got)

	// an empty query keeps the backend order
	require.Equal(t, names(items), names(rankLookup(items, "  ")))
}
