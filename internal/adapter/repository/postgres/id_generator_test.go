package postgres

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestULIDGeneratorMonotonic(t *testing.T) {
	g := NewULIDGenerator()
	fixed := time.Date(2021, 6, 1, 8, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	prev := ""
	for i := 0; i < 100; i++ {
		id := g.Generate()
		if _, err := ulid.Parse(id); err != nil {
			t.Fatalf("invalid ulid %q: %v", id, err)
		}
		if id <= prev {
			t.Fatalf("ids not increasing: %s after %s", id, prev)
		}
		prev = id
	}

	parsed := ulid.MustParse(prev)
	if !ulid.Time(parsed.Time()).Equal(fixed) {
		t.Errorf("timestamp = %s", ulid.Time(parsed.Time()))
	}
}
