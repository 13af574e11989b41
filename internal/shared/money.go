package shared

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency is the unit every amount is denominated in.
var Currency = currency.THB

// CurrencySymbol prefixes every amount rendered by FormatCurrency.
const CurrencySymbol = "฿"

var moneyPrinter = message.NewPrinter(language.English)

// FormatCurrency renders an amount as Thai baht with grouping and two decimals,
// for example ฿1,234.50.
func FormatCurrency(amount float64) string {
	if amount < 0 {
		return "-" + CurrencySymbol + moneyPrinter.Sprintf("%.2f", -amount)
	}
	return CurrencySymbol + moneyPrinter.Sprintf("%.2f", amount)
}

// FormatDecimal renders a decimal amount the same way as FormatCurrency.
func FormatDecimal(amount decimal.Decimal) string {
	return FormatCurrency(amount.Round(2).InexactFloat64())
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(pct float64) string {
	return moneyPrinter.Sprintf("%.1f%%", pct)
}
