package funnel

import "github.com/shopspring/decimal"

var (
	crore    = decimal.NewFromInt(10_000_000)
	lakh     = decimal.NewFromInt(100_000)
	thousand = decimal.NewFromInt(1_000)
)

// FormatCurrency renders an amount with Indian unit suffixes:
// 1,00,00,000 and up as "X.XX Cr", 1,00,000 and up as "X.XX L",
// 1,000 and up as "X.XX K", anything smaller as a bare integer.
func FormatCurrency(amount decimal.Decimal) string {
	switch {
	case amount.GreaterThanOrEqual(crore):
		return amount.Div(crore).StringFixed(2) + " Cr"
	case amount.GreaterThanOrEqual(lakh):
		return amount.Div(lakh).StringFixed(2) + " L"
	case amount.GreaterThanOrEqual(thousand):
		return amount.Div(thousand).StringFixed(2) + " K"
	default:
		return amount.Truncate(0).String()
	}
}
