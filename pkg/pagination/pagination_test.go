package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default for zero, got %d", got)
	}
	if got := NormalizeLimit(-3); got != DefaultLimit {
		t.Fatalf("expected default for negative, got %d", got)
	}
	if got := NormalizeLimit(MaxLimit + 50); got != MaxLimit {
		t.Fatalf("expected cap at max, got %d", got)
	}
	if got := NormalizeLimit(7); got != 7 {
		t.Fatalf("expected passthrough, got %d", got)
	}
	if got := LimitWithBuffer(7); got != 8 {
		t.Fatalf("expected limit plus one, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{
		CreatedAt: time.Date(2026, 5, 1, 9, 30, 0, 123456789, time.UTC),
		ID:        uuid.New(),
	}

	decoded, err := ParseCursor(EncodeCursor(original))
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if !decoded.CreatedAt.Equal(original.CreatedAt) {
		t.Fatalf("timestamp drifted: %s vs %s", decoded.CreatedAt, original.CreatedAt)
	}
	if decoded.ID != original.ID {
		t.Fatalf("id drifted: %s vs %s", decoded.ID, original.ID)
	}
}

func TestParseCursorEmptyMeansFirstPage(t *testing.T) {
	cursor, err := ParseCursor("   ")
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if cursor != nil {
		t.Fatalf("expected nil cursor, got %+v", cursor)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	for _, value := range []string{"%%%", "bad", "bm90LWEtY3Vyc29y"} {
		if _, err := ParseCursor(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}
