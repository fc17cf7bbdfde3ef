package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()
	c.RecordRequest("on-device", 10, 10*time.Millisecond)
	c.RecordRequest("backend", 20, 30*time.Millisecond)
	c.RecordRequest("simulated", 5, 20*time.Millisecond)
	c.RecordError()

	s := c.Collect()
	assert.EqualValues(t, 3, s.RequestCount)
	assert.EqualValues(t, 35, s.CharCount)
	assert.EqualValues(t, 1, s.ErrorCount)
	assert.EqualValues(t, 2, s.FallbackCount)
	assert.InDelta(t, 20.0, s.AvgLatencyMs, 0.001)
	assert.Equal(t, map[string]int64{"on-device": 1, "backend": 1, "simulated": 1}, s.BySource)
	assert.Positive(t, s.Goroutines)
}

func TestCollectSnapshotIsCopy(t *testing.T) {
	c := NewCollector()
	c.RecordRequest("backend", 1, time.Millisecond)
	s := c.Collect()
	s.BySource["backend"] = 99
	assert.EqualValues(t, 1, c.Collect().BySource["backend"])
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordRequest("on-device", 1, time.Millisecond)
			c.RecordError()
		}()
	}
	wg.Wait()
	s := c.Collect()
	assert.EqualValues(t, 50, s.RequestCount)
	assert.EqualValues(t, 50, s.ErrorCount)
	assert.Zero(t, s.FallbackCount)
}
