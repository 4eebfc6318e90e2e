package recognition

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stripe-datev/internal/domain"
)

// SplitMonths apportions each amount across the calendar months of p in
// proportion to the seconds of p falling into each month.
//
// Month boundaries are taken in the location of p.Start. Every month is
// weighted by its overlap with p plus one second, over the total length of p;
// each share is rounded half away from zero to cents and whatever rounding
// left over is added to the last month. A trailing month left with only zero
// amounts is dropped. The shares of every column always sum to the input.
func SplitMonths(p domain.Period, amounts ...decimal.Decimal) ([]domain.MonthBucket, error) {
	if len(amounts) == 0 {
		return nil, domain.ErrNoAmounts
	}
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %s > %s", domain.ErrInvalidPeriod, p.Start, p.End)
	}

	if p.IsInstant() {
		return []domain.MonthBucket{{
			Start:   p.Start,
			End:     p.End,
			Amounts: append([]decimal.Decimal(nil), amounts...),
		}}, nil
	}

	loc := p.Start.Location()
	start := p.Start
	end := p.End.In(loc)
	total := decimal.NewFromInt(int64(end.Sub(start) / time.Second))
	if total.IsZero() {
		// sub-second period
		total = decimal.NewFromInt(1)
	}

	remaining := append([]decimal.Decimal(nil), amounts...)
	var buckets []domain.MonthBucket

	for month := domain.StartOfMonth(start); !month.After(end); month = month.AddDate(0, 1, 0) {
		monthEnd := domain.EndOfMonth(month)

		from := month
		if start.After(from) {
			from = start
		}
		to := monthEnd
		if end.Before(to) {
			to = end
		}
		overlap := decimal.NewFromInt(int64(to.Sub(from)/time.Second) + 1)

		shares := make([]decimal.Decimal, len(amounts))
		for i, amount := range amounts {
			shares[i] = amount.Mul(overlap).DivRound(total, domain.MoneyPlaces)
			remaining[i] = remaining[i].Sub(shares[i])
		}

		buckets = append(buckets, domain.MonthBucket{
			Start:   month,
			End:     monthEnd,
			Amounts: shares,
		})
	}

	last := &buckets[len(buckets)-1]
	allZero := true
	for i := range last.Amounts {
		last.Amounts[i] = last.Amounts[i].Add(remaining[i])
		if !last.Amounts[i].IsZero() {
			allZero = false
		}
	}
	if allZero && len(buckets) > 1 {
		buckets = buckets[:len(buckets)-1]
	}

	if err := checkSums(buckets, amounts); err != nil {
		return nil, err
	}

	return buckets, nil
}

func checkSums(buckets []domain.MonthBucket, amounts []decimal.Decimal) error {
	for i, amount := range amounts {
		sum := decimal.Zero
		for _, b := range buckets {
			sum = sum.Add(b.Amounts[i])
		}
		if !sum.Equal(amount) {
			return fmt.Errorf("%w: column %d sums to %s, want %s", domain.ErrSplitInvariant, i, sum, amount)
		}
	}
	return nil
}
