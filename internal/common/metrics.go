package common

import (
	"fmt"
	"sync"
	"time"
)

// Metrics accumulates counters across a batch of checksum sweeps.
type Metrics struct {
	mu         sync.Mutex
	start      time.Time
	end        time.Time
	bytes      int64
	images     int64
	failed     int64
	errored    int64
	checks     int64
	mismatches int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Start() {
	m.mu.Lock()
	if m.start.IsZero() {
		m.start = time.Now()
		m.end = time.Time{}
	}
	m.mu.Unlock()
}

func (m *Metrics) Stop() {
	m.mu.Lock()
	if !m.start.IsZero() && m.end.IsZero() {
		m.end = time.Now()
	}
	m.mu.Unlock()
}

// AddImage records one swept image of size bytes with the given number of
// checks and mismatches.
func (m *Metrics) AddImage(size int64, checks, mismatches int) {
	m.mu.Lock()
	m.images++
	if size > 0 {
		m.bytes += size
	}
	m.checks += int64(checks)
	m.mismatches += int64(mismatches)
	if mismatches > 0 {
		m.failed++
	}
	m.mu.Unlock()
}

// AddError records an image that could not be swept.
func (m *Metrics) AddError() {
	m.mu.Lock()
	m.images++
	m.errored++
	m.mu.Unlock()
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Duration:   m.elapsedLocked(),
		Bytes:      m.bytes,
		Images:     m.images,
		Failed:     m.failed,
		Errored:    m.errored,
		Checks:     m.checks,
		Mismatches: m.mismatches,
	}
}

func (m *Metrics) elapsedLocked() time.Duration {
	if m.start.IsZero() {
		return 0
	}
	if !m.end.IsZero() {
		return m.end.Sub(m.start)
	}
	return time.Since(m.start)
}

type MetricsSnapshot struct {
	Duration   time.Duration
	Bytes      int64
	Images     int64
	Failed     int64
	Errored    int64
	Checks     int64
	Mismatches int64
}

// Passed is the number of images whose checksums all matched.
func (s MetricsSnapshot) Passed() int64 {
	return s.Images - s.Failed - s.Errored
}

func (s MetricsSnapshot) String() string {
	return fmt.Sprintf("%d image(s): %d passed, %d failed, %d error(s); %d checks, %d mismatches; %s in %s",
		s.Images, s.Passed(), s.Failed, s.Errored, s.Checks, s.Mismatches, FormatBytes(s.Bytes), s.Duration.Round(time.Millisecond))
}

func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div := float64(unit)
	exp := 0
	for n := float64(b) / div; n >= unit && exp < 6; n /= unit {
		div *= unit
		exp++
	}
	prefixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	return fmt.Sprintf("%.2f %s", float64(b)/div, prefixes[exp])
}
