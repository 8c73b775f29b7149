package logs

import (
	"errors"
	"testing"
	"time"
)

func TestParseDateRange_AllNil(t *testing.T) {
	start, hasStart, endExcl, hasEnd, err := ParseDateRange(nil, nil)
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if hasStart || hasEnd || !start.IsZero() || !endExcl.IsZero() {
		t.Fatalf("expected empty range, got %v %v %v %v", start, hasStart, endExcl, hasEnd)
	}
}

func TestParseDateRange_DateOnlyEndIncludesWholeDay(t *testing.T) {
	start, hasStart, endExcl, hasEnd, err := ParseDateRange(ptrStr("2026-04-01"), ptrStr("2026-04-03"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !hasStart || !hasEnd {
		t.Fatalf("expected both bounds")
	}
	if !start.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", start)
	}
	if !endExcl.Equal(time.Date(2026, 4, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end %v", endExcl)
	}
}

func TestParseDateRange_TimestampEndIsExclusiveAsGiven(t *testing.T) {
	_, _, endExcl, hasEnd, err := ParseDateRange(nil, ptrStr("2026-04-03T12:30:00Z"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !hasEnd || !endExcl.Equal(time.Date(2026, 4, 3, 12, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end %v", endExcl)
	}
}

func TestParseDateRange_ReversedIsSwapped(t *testing.T) {
	start, _, endExcl, _, err := ParseDateRange(ptrStr("2026-04-10"), ptrStr("2026-04-01"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !start.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", start)
	}
	if !endExcl.Equal(time.Date(2026, 4, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end %v", endExcl)
	}
}

func TestParseDateRange_BlankIsIgnored(t *testing.T) {
	_, hasStart, _, hasEnd, err := ParseDateRange(ptrStr("  "), ptrStr(""))
	if err != nil || hasStart || hasEnd {
		t.Fatalf("expected blanks ignored, got %v %v %v", hasStart, hasEnd, err)
	}
}

func TestParseDateRange_Invalid(t *testing.T) {
	if _, _, _, _, err := ParseDateRange(nil, ptrStr("04/01/2026")); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
