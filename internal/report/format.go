package report

import (
	"strings"
	"time"

	"liquidation-export/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	CurrencyPrefix = "S/. "
	DateLayout     = "02/01/2006"
)

// FormatCurrency is the only place amounts are turned into text: two
// decimals, half away from zero, with the currency prefix.
func FormatCurrency(d decimal.Decimal) string {
	return CurrencyPrefix + d.StringFixed(2)
}

// FormatIdentifier prints an identifier without any fractional suffix.
func FormatIdentifier(id domain.Identifier) string {
	if n, err := domain.ParseIdentifier(id); err == nil {
		return n.String()
	}
	return strings.TrimSpace(string(id))
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
