package analytics

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatPercent renders a percentage with two decimals, e.g. "50.00%"
func FormatPercent(p decimal.Decimal) string {
	return p.StringFixed(2) + "%"
}

// FormatCurrency renders a USD amount with thousands separators, e.g. "$1,234.50"
func FormatCurrency(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + printer.Sprintf("$%.2f", d.Round(2).InexactFloat64())
}
