package common

import (
	"strings"
	"testing"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.Start()
	m.AddImage(1024, 10, 0)
	m.AddImage(1024, 10, 2)
	m.AddError()
	m.Stop()

	s := m.Snapshot()
	if s.Images != 3 || s.Failed != 1 || s.Errored != 1 || s.Passed() != 1 {
		t.Fatalf("unexpected counts %+v", s)
	}
	if s.Checks != 20 || s.Mismatches != 2 || s.Bytes != 2048 {
		t.Fatalf("unexpected totals %+v", s)
	}
	if !strings.Contains(s.String(), "3 image(s): 1 passed, 1 failed, 1 error(s)") {
		t.Fatalf("String() = %q", s.String())
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.00 KiB"},
		{3 << 20, "3.00 MiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
