package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCents(t *testing.T) {
	if got := Cents(11900); !got.Equal(decimal.RequireFromString("119.00")) {
		t.Errorf("Cents(11900) = %s", got)
	}
	if got := Cents(-5); got.String() != "-0.05" {
		t.Errorf("Cents(-5) = %s", got)
	}
}

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"1.005", "1.01"},
		{"1.004", "1"},
		{"-1.005", "-1.01"},
		{"2.5", "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundMoney(decimal.RequireFromString(tt.in))
			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("RoundMoney(%s) = %s, want %s", tt.in, got, tt.expected)
			}
		})
	}
}

func TestPercentage(t *testing.T) {
	pct, ok := Percentage(decimal.NewFromInt(19), decimal.NewFromInt(100))
	if !ok || !pct.Equal(decimal.NewFromInt(19)) {
		t.Errorf("Percentage(19, 100) = %s, %v", pct, ok)
	}

	pct, ok = Percentage(decimal.NewFromInt(1), decimal.NewFromInt(3))
	if !ok || pct.String() != "33.33" {
		t.Errorf("Percentage(1, 3) = %s", pct)
	}

	if _, ok := Percentage(decimal.NewFromInt(1), decimal.Zero); ok {
		t.Error("expected no percentage of zero")
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"119", "119,00"},
		{"0.5", "0,50"},
		{"1234.56", "1234,56"},
	}

	for _, tt := range tests {
		if got := FormatAmount(decimal.RequireFromString(tt.in)); got != tt.expected {
			t.Errorf("FormatAmount(%s) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestIsSettlementCurrency(t *testing.T) {
	for _, c := range []string{"eur", "EUR", "Eur"} {
		if !IsSettlementCurrency(c) {
			t.Errorf("%s should be the settlement currency", c)
		}
	}
	if IsSettlementCurrency("usd") {
		t.Error("usd is not the settlement currency")
	}
}

func TestSumMoney(t *testing.T) {
	got := SumMoney(decimal.RequireFromString("0.10"), decimal.RequireFromString("0.20"))
	if !got.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("SumMoney = %s", got)
	}
	if !SumMoney().IsZero() {
		t.Error("empty sum should be zero")
	}
}
