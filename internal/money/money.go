// Package money holds display formatting helpers shared by the API layer.
package money

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// Format renders an amount with two decimal places and thousands grouping,
// without a currency symbol: 1234.5 becomes "1,234.50".
func Format(amount decimal.Decimal) string {
	return printer.Sprintf("%v", number.Decimal(
		amount.InexactFloat64(),
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// DateYMD renders a timestamp as "YYYY-MM-DD" in its own location.
func DateYMD(t time.Time) string {
	return t.Format("2006-01-02")
}
