package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stripe-datev/internal/domain"
)

func TestBatchFromDomain(t *testing.T) {
	now := time.Date(2021, 6, 2, 8, 0, 0, 0, time.UTC)
	file := &domain.ExportedFile{
		ID:          "01F7",
		RunID:       "run-1",
		Kind:        domain.RecordKindRevenue,
		Month:       "2021-05",
		FileName:    "EXTF_2021_05_Revenue.csv",
		RecordCount: 3,
		CreatedAt:   now,
	}

	resp := BatchFromDomain(file)
	if resp.ID != "01F7" || resp.Kind != "Revenue" || resp.RecordCount != 3 {
		t.Fatalf("unexpected batch response: %+v", resp)
	}

	list := BatchesFromDomain([]*domain.ExportedFile{file})
	if len(list) != 1 || list[0].FileName != file.FileName {
		t.Fatalf("BatchesFromDomain returned %+v", list)
	}
}

func TestRecordsFromDomain(t *testing.T) {
	records := []domain.Record{{
		Date:           time.Date(2021, 5, 10, 0, 0, 0, 0, time.UTC),
		Amount:         decimal.RequireFromString("119.00"),
		Side:           domain.SideDebit,
		Currency:       "EUR",
		Account:        "10001",
		CounterAccount: "8400",
		Text:           "RE-1 / Muster GmbH",
	}}

	resp := RecordsFromDomain(records)
	if len(resp) != 1 {
		t.Fatalf("expected 1 record, got %d", len(resp))
	}
	if resp[0].Date != "2021-05-10" || resp[0].Side != "S" {
		t.Fatalf("unexpected record response: %+v", resp[0])
	}

	raw, err := json.Marshal(resp[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["amount"] != "119" {
		t.Fatalf("amount should be encoded as a string, got %v", decoded["amount"])
	}
	if _, ok := decoded["tax_key"]; ok {
		t.Fatal("empty tax key should be omitted")
	}
}
