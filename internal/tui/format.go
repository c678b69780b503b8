package tui

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// formatAmount renders d in currency with the currency's grapheme and grouping.
func formatAmount(d decimal.Decimal, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = money.EUR
	}
	frac := money.New(0, currency).Currency().Fraction
	minor := d.Shift(int32(frac)).Round(0).IntPart()
	return money.New(minor, currency).Display()
}

// styleAmount colours negative amounts red and positive ones green.
func styleAmount(d decimal.Decimal, s string) string {
	switch d.Sign() {
	case -1:
		return negativeStyle.Render(s)
	case 1:
		return positiveStyle.Render(s)
	}
	return s
}
