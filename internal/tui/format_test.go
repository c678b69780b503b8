package tui

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/finmgr/internal/records"
)

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "€1,200.50", formatAmount(decimal.RequireFromString("1200.5"), "EUR"))
	require.Equal(t, "-€12.00", formatAmount(decimal.RequireFromString("-12"), ""))
	require.Equal(t, "$0.01", formatAmount(decimal.RequireFromString("0.005"), "usd"))
}

func TestColumnWidthsShareTheRest(t *testing.T) {
	cols := []records.ListColumn{{Width: 2}, {}, {Width: 10}, {}}
	widths := columnWidths(cols, 60)
	require.Equal(t, []int{2, 22, 10, 22}, widths)

	// flexible columns never collapse
	require.Equal(t, []int{2, 8, 10, 8}, columnWidths(cols, 10))
}

func TestFit(t *testing.T) {
	require.Equal(t, "ab  ", fit("ab", 4, 0))
	require.Equal(t, "  ab", fit("ab", 4, 1))
	require.Equal(t, "abc…", fit("abcdef", 4, 0))
	require.Empty(t, fit("ab", 0, 0))
}
