package domain

import (
	"testing"
	"time"
)

func TestPeriod(t *testing.T) {
	start := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)

	if !InstantPeriod(start).IsInstant() {
		t.Error("instant period should be instant")
	}
	if !InstantPeriod(start).Valid() {
		t.Error("instant period should be valid")
	}

	p := Period{Start: start, End: start.Add(-time.Second)}
	if p.Valid() {
		t.Error("period ending before its start should be invalid")
	}

	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}
	in := Period{Start: start, End: start.Add(time.Hour)}.In(berlin)
	if in.Start.Location() != berlin || !in.Start.Equal(start) {
		t.Errorf("In changed the instant or kept the zone: %v", in.Start)
	}
}

func TestMonthBoundaries(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		t     time.Time
		start time.Time
		end   time.Time
		key   string
	}{
		{
			name:  "mid month",
			t:     time.Date(2021, 5, 17, 13, 0, 0, 0, berlin),
			start: time.Date(2021, 5, 1, 0, 0, 0, 0, berlin),
			end:   time.Date(2021, 5, 31, 23, 59, 59, 0, berlin),
			key:   "2021-05",
		},
		{
			name:  "february leap year",
			t:     time.Date(2024, 2, 29, 23, 0, 0, 0, berlin),
			start: time.Date(2024, 2, 1, 0, 0, 0, 0, berlin),
			end:   time.Date(2024, 2, 29, 23, 59, 59, 0, berlin),
			key:   "2024-02",
		},
		{
			name:  "december",
			t:     time.Date(2021, 12, 31, 23, 59, 59, 0, berlin),
			start: time.Date(2021, 12, 1, 0, 0, 0, 0, berlin),
			end:   time.Date(2021, 12, 31, 23, 59, 59, 0, berlin),
			key:   "2021-12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StartOfMonth(tt.t); !got.Equal(tt.start) {
				t.Errorf("StartOfMonth = %v, want %v", got, tt.start)
			}
			if got := EndOfMonth(tt.t); !got.Equal(tt.end) {
				t.Errorf("EndOfMonth = %v, want %v", got, tt.end)
			}
			if got := MonthKey(tt.t); got != tt.key {
				t.Errorf("MonthKey = %s, want %s", got, tt.key)
			}
		})
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{
		From: time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	if !w.Contains(w.From) {
		t.Error("window should contain its start")
	}
	if w.Contains(w.To) {
		t.Error("window should not contain its end")
	}
	if !w.Contains(w.To.Add(-time.Nanosecond)) {
		t.Error("window should contain the instant before its end")
	}
}
