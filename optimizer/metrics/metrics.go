// Package metrics provides optimization-run performance tracking and the
// size report printed after a run.
package metrics

import (
	"fmt"
	"sync"
	"time"
)

// RunMetrics tracks what an optimization pass touched and saved.
type RunMetrics struct {
	mu sync.Mutex

	// Timing
	StartTime    time.Time
	EndTime      time.Time
	MinifyTime   time.Duration
	AssetTime    time.Duration
	GenerateTime time.Duration

	// Counters
	HTMLFiles     int
	AssetFiles    int
	ImagesEncoded int
	FilesSkipped  int
	BytesBefore   int64
	BytesAfter    int64

	// Offline store verification
	CacheHits   int
	CacheMisses int
}

// NewRunMetrics creates a metrics instance with the clock started.
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{StartTime: time.Now()}
}

// RecordEnd marks the end of the run.
func (m *RunMetrics) RecordEnd() {
	m.mu.Lock()
	m.EndTime = time.Now()
	m.mu.Unlock()
}

// TotalDuration returns the total run duration.
func (m *RunMetrics) TotalDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// RecordHTML adds one minified HTML file's before/after sizes.
func (m *RunMetrics) RecordHTML(before, after int) {
	m.mu.Lock()
	m.HTMLFiles++
	m.BytesBefore += int64(before)
	m.BytesAfter += int64(after)
	m.mu.Unlock()
}

// RecordAsset adds one processed CSS/JS asset.
func (m *RunMetrics) RecordAsset(before, after int) {
	m.mu.Lock()
	m.AssetFiles++
	m.BytesBefore += int64(before)
	m.BytesAfter += int64(after)
	m.mu.Unlock()
}

// RecordImage counts one re-encoded image.
func (m *RunMetrics) RecordImage() {
	m.mu.Lock()
	m.ImagesEncoded++
	m.mu.Unlock()
}

// RecordSkip counts a file left untouched.
func (m *RunMetrics) RecordSkip() {
	m.mu.Lock()
	m.FilesSkipped++
	m.mu.Unlock()
}

// RecordCacheHit counts a manifest entry found in the offline store.
func (m *RunMetrics) RecordCacheHit() {
	m.mu.Lock()
	m.CacheHits++
	m.mu.Unlock()
}

// RecordCacheMiss counts a manifest entry absent from the offline store.
func (m *RunMetrics) RecordCacheMiss() {
	m.mu.Lock()
	m.CacheMisses++
	m.mu.Unlock()
}

// BytesSaved returns total bytes shaved off across all files.
func (m *RunMetrics) BytesSaved() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.BytesBefore - m.BytesAfter
}

// SavingsPercent returns the size reduction as a percentage of input bytes.
func (m *RunMetrics) SavingsPercent() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BytesBefore == 0 {
		return 0
	}
	return float64(m.BytesBefore-m.BytesAfter) / float64(m.BytesBefore) * 100
}

// String returns a single-line summary of the run.
func (m *RunMetrics) String() string {
	duration := m.TotalDuration()
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := m.BytesBefore - m.BytesAfter
	pct := float64(0)
	if m.BytesBefore > 0 {
		pct = float64(saved) / float64(m.BytesBefore) * 100
	}
	line := fmt.Sprintf("📊 Optimized %d html + %d assets in %v (saved %s, %.1f%%)",
		m.HTMLFiles,
		m.AssetFiles,
		duration.Round(time.Millisecond),
		FormatBytes(saved),
		pct,
	)
	if m.CacheHits > 0 || m.CacheMisses > 0 {
		line += fmt.Sprintf(" — %d/%d precached", m.CacheHits, m.CacheHits+m.CacheMisses)
	}
	return line + "\n"
}

// Print outputs the report to stdout.
func (m *RunMetrics) Print() {
	fmt.Println(m.String())
}

// FormatBytes renders a byte count in a human-scaled unit.
func FormatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
