package main

import (
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	year, month, err := parseMonth("2024-02")
	if err != nil || year != 2024 || month != 2 {
		t.Errorf("parseMonth returned %d, %d, %v", year, month, err)
	}
	if _, _, err := parseMonth("2024-13"); err == nil {
		t.Error("Expected an error for month 13")
	}
}

func TestParseTime(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)

	got, err := parseTime("2024-03-01", loc)
	if err != nil {
		t.Fatalf("parseTime failed: %v", err)
	}
	if !got.Equal(time.Date(2024, time.March, 1, 0, 0, 0, 0, loc)) {
		t.Errorf("Expected local midnight, got %v", got)
	}

	got, err = parseTime("2024-03-01T10:00:00Z", loc)
	if err != nil {
		t.Fatalf("parseTime failed: %v", err)
	}
	if !got.Equal(time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected RFC 3339 time %v", got)
	}

	if _, err := parseTime("yesterday", loc); err == nil {
		t.Error("Expected an error for free text")
	}
}
