package query

import (
	"testing"
	"time"
)

func TestAddDays(t *testing.T) {
	// 跨月与闰日
	if got, ok := AddDays("2024-03-01", -1); !ok || got != "2024-02-29" {
		t.Fatalf("expected 2024-02-29, got %s (%v)", got, ok)
	}
	if got, ok := AddDays("2024-12-31", 1); !ok || got != "2025-01-01" {
		t.Fatalf("expected 2025-01-01, got %s (%v)", got, ok)
	}
	if _, ok := AddDays("not-a-date", 1); ok {
		t.Fatal("expected failure for invalid date")
	}
}

func TestWeekday(t *testing.T) {
	// 2024-01-07 是周日
	if got, ok := Weekday("2024-01-07"); !ok || got != 0 {
		t.Fatalf("expected sunday index 0, got %d (%v)", got, ok)
	}
	if got, ok := Weekday("2024-01-08"); !ok || got != 1 {
		t.Fatalf("expected monday index 1, got %d (%v)", got, ok)
	}
	if _, ok := Weekday(""); ok {
		t.Fatal("expected failure for empty date")
	}
}

func TestValidDate(t *testing.T) {
	if !ValidDate("2024-02-29") {
		t.Fatal("leap day should be valid")
	}
	if ValidDate("2023-02-29") || ValidDate("2024-13-01") || ValidDate("20240301") {
		t.Fatal("invalid dates should be rejected")
	}
}

func TestTodayUsesLocation(t *testing.T) {
	utc := Today(time.UTC)
	if !ValidDate(utc) {
		t.Fatalf("expected valid date, got %s", utc)
	}
	if got := Today(nil); !ValidDate(got) {
		t.Fatalf("expected valid date for nil location, got %s", got)
	}
}
