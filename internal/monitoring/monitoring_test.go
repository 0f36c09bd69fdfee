package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikirecon/reconcile/internal/cache"
)

func TestLogRequest_ThenGetRates(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("")
	m := New(c, "reconcile")

	require.NoError(t, m.LogRequest(ctx, 3, 150*time.Millisecond))
	require.NoError(t, m.LogRequest(ctx, 2, 100*time.Millisecond))
	require.NoError(t, m.LogRequest(ctx, 1, 50*time.Millisecond))

	rates, err := m.GetRates(ctx)
	require.NoError(t, err)
	require.Len(t, rates, 3)

	oneMinute := rates[0]
	assert.Equal(t, time.Minute, oneMinute.Duration)
	require.NotNil(t, oneMinute.ProcessingTimePerQuery)
	// 3 requests totalling 6 queries and 0.3s of processing time in this bucket.
	assert.InDelta(t, 0.3/6, *oneMinute.ProcessingTimePerQuery, 1e-9)
}

func TestGetRates_NoQueriesYieldsNilProcessingTime(t *testing.T) {
	ctx := context.Background()
	m := New(cache.NewMemory(""), "reconcile")

	rates, err := m.GetRates(ctx)
	require.NoError(t, err)
	for _, r := range rates {
		assert.Nil(t, r.ProcessingTimePerQuery)
		assert.Equal(t, float64(0), r.RequestRate)
	}
}
