package recognition

import (
	"time"

	"github.com/iho/stripe-datev/internal/domain"
)

// DefaultMinYear is the earliest year accepted in free-text periods.
const DefaultMinYear = 2020

// PeriodExtractor finds a service period mentioned in free text.
type PeriodExtractor struct {
	minYear int
	maxYear int
}

// NewPeriodExtractor creates an extractor accepting years in [minYear, maxYear].
func NewPeriodExtractor(minYear, maxYear int) *PeriodExtractor {
	if maxYear < minYear {
		maxYear = minYear
	}
	return &PeriodExtractor{minYear: minYear, maxYear: maxYear}
}

// Extract returns the period described by text.
//
// The first two years, months and days found (in order of appearance) give
// the start and end components. A missing year falls back to the reference
// date; a missing month means the whole year, unless day ordinals were found,
// in which case extraction fails. Wall-clock times are built in loc, else in
// the location of ref, else in UTC. Extraction also fails for impossible
// calendar dates and for ranges ending before they start.
func (e *PeriodExtractor) Extract(text string, ref *time.Time, loc *time.Location) (domain.Period, bool) {
	var years, months, days []int
	for _, t := range tokenize(text, e.minYear, e.maxYear) {
		switch t.kind {
		case tokenYear:
			years = append(years, t.value)
		case tokenMonth:
			months = append(months, t.value)
		case tokenDay:
			days = append(days, t.value)
		}
	}

	if loc == nil {
		loc = time.UTC
		if ref != nil {
			loc = ref.Location()
		}
	}

	foundYear := true
	var year1, year2 int
	switch {
	case len(years) >= 2:
		year1, year2 = years[0], years[1]
	case len(years) == 1:
		year1, year2 = years[0], years[0]
	default:
		if ref == nil {
			return domain.Period{}, false
		}
		foundYear = false
		year1 = ref.In(loc).Year()
		year2 = year1
	}

	var month1, month2 int
	switch {
	case len(months) >= 2:
		month1, month2 = months[0], months[1]
	case len(months) == 1:
		month1, month2 = months[0], months[0]
	default:
		if !foundYear || len(days) > 0 {
			return domain.Period{}, false
		}
		month1, month2 = 1, 12
	}

	var day1, day2 int
	switch {
	case len(days) >= 2:
		day1, day2 = days[0], days[1]
	case len(days) == 1:
		day1, day2 = days[0], days[0]
	default:
		day1 = 1
		day2 = daysIn(year2, time.Month(month2))
	}

	if !validDay(year1, time.Month(month1), day1) || !validDay(year2, time.Month(month2), day2) {
		return domain.Period{}, false
	}

	p := domain.Period{
		Start: time.Date(year1, time.Month(month1), day1, 0, 0, 0, 0, loc),
		End:   time.Date(year2, time.Month(month2), day2, 23, 59, 59, 0, loc),
	}
	if !p.Valid() {
		return domain.Period{}, false
	}

	return p, true
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func validDay(year int, month time.Month, day int) bool {
	return day >= 1 && day <= daysIn(year, month)
}

// Mentions reports whether text contains any date token at all.
func (e *PeriodExtractor) Mentions(text string) bool {
	return len(tokenize(text, e.minYear, e.maxYear)) > 0
}
