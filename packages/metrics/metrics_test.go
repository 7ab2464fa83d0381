package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_EmptySummaryIsNil(t *testing.T) {
	r := NewRecorder()
	assert.Nil(t, r.Summary())
}

func TestRecorder_Summary(t *testing.T) {
	r := NewRecorder()
	for i := 1; i <= 100; i++ {
		r.Record(time.Duration(i) * 10 * time.Millisecond)
	}

	s := r.Summary()
	require.NotNil(t, s)

	assert.Equal(t, int64(100), s.Count)
	// Recorded 10ms..1000ms uniformly; percentiles land near their ranks.
	assert.InDelta(t, 500, s.P50, 50)
	assert.InDelta(t, 950, s.P95, 50)
	assert.InDelta(t, 990, s.P99, 50)
	assert.InDelta(t, 1000, s.Max, 50)
	assert.InDelta(t, 505, s.Mean, 50)
}

func TestRecorder_ClampsOutOfRange(t *testing.T) {
	r := NewRecorder()
	r.Record(0)
	r.Record(5 * time.Minute)

	s := r.Summary()
	require.NotNil(t, s)
	assert.Equal(t, int64(2), s.Count)
	// 5 minutes clamps to the 60s histogram ceiling.
	assert.LessOrEqual(t, s.Max, int64(60_000))
}

func TestRecorder_Concurrent(t *testing.T) {
	r := NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Record(5 * time.Millisecond)
			}
		}()
	}
	wg.Wait()

	s := r.Summary()
	require.NotNil(t, s)
	assert.Equal(t, int64(1000), s.Count)
}
