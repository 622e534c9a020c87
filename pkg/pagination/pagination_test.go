package pagination

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := NormalizeLimit(500); got != MaxLimit {
		t.Fatalf("expected max limit, got %d", got)
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected buffered limit 11, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2025, 5, 1, 12, 30, 0, 123, time.UTC), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) || out.ID != in.ID {
		t.Fatalf("cursor mismatch: %+v vs %+v", out, in)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if c, err := ParseCursor(""); err != nil || c != nil {
		t.Fatalf("empty cursor should be nil, got %+v err=%v", c, err)
	}
	if _, err := ParseCursor("%%%"); err == nil {
		t.Fatal("expected invalid cursor to fail")
	}
}

func TestPageOffsets(t *testing.T) {
	page := NewPage(3, 10)
	if page.Offset() != 20 {
		t.Fatalf("expected offset 20, got %d", page.Offset())
	}
	if got := page.TotalPages(21); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
	if got := NewPage(-1, 0); got.Number != 1 || got.Limit != DefaultLimit {
		t.Fatalf("unexpected normalized page %+v", got)
	}
}

func TestParseCursorRequiresBothParts(t *testing.T) {
	token := base64.RawURLEncoding.EncodeToString([]byte(`{"t":"2025-05-01T12:30:00Z"}`))
	if _, err := ParseCursor(token); !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor, got %v", err)
	}
}
