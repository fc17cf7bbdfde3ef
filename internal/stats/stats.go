// Package stats tracks generation counters for the AI status report.
package stats

import (
	"runtime"
	"sync"
	"time"
)

// Collector collects and tracks generation statistics. It is safe for
// concurrent use.
type Collector struct {
	mu            sync.Mutex
	startTime     time.Time
	requestCount  int64
	charCount     int64
	errorCount    int64
	fallbackCount int64
	totalDuration int64 // nanoseconds
	bySource      map[string]int64
}

// NewCollector creates a new stats collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		bySource:  make(map[string]int64),
	}
}

// Stats represents generation statistics at a point in time.
type Stats struct {
	Goroutines  int     `json:"goroutines"`
	Uptime      string  `json:"uptime"`
	HeapAllocMB float64 `json:"heapAllocMB"`

	RequestCount  int64            `json:"requestCount"`
	CharCount     int64            `json:"charCount"`
	ErrorCount    int64            `json:"errorCount"`
	FallbackCount int64            `json:"fallbackCount"`
	AvgLatencyMs  float64          `json:"avgLatencyMs"`
	BySource      map[string]int64 `json:"bySource"`
}

// Collect returns current statistics.
func (c *Collector) Collect() *Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.mu.Lock()
	defer c.mu.Unlock()

	avgLatency := float64(0)
	if c.requestCount > 0 {
		avgLatency = float64(c.totalDuration) / float64(c.requestCount) / 1e6 // nanos to millis
	}
	bySource := make(map[string]int64, len(c.bySource))
	for k, v := range c.bySource {
		bySource[k] = v
	}

	return &Stats{
		Goroutines:    runtime.NumGoroutine(),
		Uptime:        time.Since(c.startTime).Round(time.Second).String(),
		HeapAllocMB:   bytesToMB(int64(m.HeapAlloc)),
		RequestCount:  c.requestCount,
		CharCount:     c.charCount,
		ErrorCount:    c.errorCount,
		FallbackCount: c.fallbackCount,
		AvgLatencyMs:  avgLatency,
		BySource:      bySource,
	}
}

// RecordRequest records a completed generation served by source.
// Anything not served on-device counts as a fallback.
func (c *Collector) RecordRequest(source string, chars int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestCount++
	c.charCount += int64(chars)
	c.totalDuration += duration.Nanoseconds()
	c.bySource[source]++
	if source != "on-device" {
		c.fallbackCount++
	}
}

// RecordError records a failed generation.
func (c *Collector) RecordError() {
	c.mu.Lock()
	c.errorCount++
	c.mu.Unlock()
}

func bytesToMB(b int64) float64 {
	return float64(b) / 1024 / 1024
}
