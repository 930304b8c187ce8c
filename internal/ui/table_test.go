package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/coffersTech/logreport/internal/engine"
)

func TestWriteReportTable(t *testing.T) {
	earliest := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	latest := earliest.Add(time.Hour)
	reports := []engine.Report{
		{
			Service:       "api",
			RotationCount: 3,
			Total:         4,
			Earliest:      &earliest,
			Latest:        &latest,
			Severities: []engine.Bucket{
				{Value: "INFO", Count: 1, Percent: 25},
				{Value: "ERROR", Count: 3, Percent: 75},
			},
			Categories: []engine.Bucket{{Value: "http", Count: 4, Percent: 100}},
		},
		{Service: "web", RotationCount: 1},
	}

	var buf bytes.Buffer
	if err := WriteReportTable(&buf, reports); err != nil {
		t.Fatalf("WriteReportTable() error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"Service", "api", "web", "ERROR (75%)", "http (100%)", "2024-01-15T10:00:00Z", "2 services, 4 records"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n"); lines != 7 {
		t.Errorf("got %d lines, want 7:\n%s", lines, out)
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"abc", 5, "abc  "},
		{"abc", 3, "abc"},
		{"abcdefgh", 6, "abc..."},
	}
	for _, tt := range tests {
		if got := padRight(tt.in, tt.width); got != tt.want {
			t.Errorf("padRight(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
