package models

import (
	"testing"
	"time"
)

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"sqlite style without zone", "2024-05-01 10:00:00", "2024-05-01T10:00:00.000Z"},
		{"iso without zone", "2024-05-01T10:00:00", "2024-05-01T10:00:00.000Z"},
		{"already utc", "2024-05-01T10:00:00Z", "2024-05-01T10:00:00.000Z"},
		{"offset converted to utc", "2024-05-01T12:00:00+02:00", "2024-05-01T10:00:00.000Z"},
		{"postgres text offset", "2024-05-01 12:00:00.5+02", "2024-05-01T10:00:00.500Z"},
		{"empty", "", ""},
		{"garbage passes through", "yesterday", "yesterday"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeTimestamp(tc.raw); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestFormatTimestamp_UsesUTC(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	ts := time.Date(2024, 1, 2, 7, 30, 0, 0, loc)

	if got := FormatTimestamp(ts); got != "2024-01-02T12:30:00.000Z" {
		t.Errorf("Expected UTC rendering, got %q", got)
	}
}

func TestSenderValid(t *testing.T) {
	if !SenderUser.Valid() || !SenderAssistant.Valid() {
		t.Fatal("expected user and assistant to be valid senders")
	}
	if Sender("ai").Valid() {
		t.Fatal("expected unknown sender to be invalid")
	}
}
