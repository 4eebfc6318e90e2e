package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SettlementCurrency is the only currency the exporter books.
const SettlementCurrency = "EUR"

// MoneyPlaces is the number of fraction digits every amount carries.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Cents converts a minor-unit integer amount into a Money value.
func Cents(minor int64) decimal.Decimal {
	return decimal.New(minor, -MoneyPlaces)
}

// RoundMoney rounds half away from zero to two places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Percentage returns part/whole*100 rounded to two places, or false if whole is zero.
func Percentage(part, whole decimal.Decimal) (decimal.Decimal, bool) {
	if whole.IsZero() {
		return decimal.Zero, false
	}
	return part.Mul(hundred).DivRound(whole, MoneyPlaces), true
}

// SumMoney adds up amounts.
func SumMoney(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// FormatAmount renders an amount with two places and a decimal comma.
func FormatAmount(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(MoneyPlaces), ".", ",", 1)
}

// IsSettlementCurrency reports whether a currency code is the settlement currency.
func IsSettlementCurrency(currency string) bool {
	return strings.EqualFold(currency, SettlementCurrency)
}
