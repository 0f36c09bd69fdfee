// Package monitoring implements the service's self-reported request-rate
// and processing-time metrics: three rolling windows (one minute, one
// hour, one day) backed by fixed-width counters in the cache.
package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/wikirecon/reconcile/internal/cache"
)

// windowDurations are the three rolling windows tracked, each reported
// independently in Rates.
var windowDurations = []time.Duration{
	60 * time.Second,
	3600 * time.Second,
	86400 * time.Second,
}

// Counters is the narrow cache surface the monitor needs: raw byte get,
// incrementing float/int counters, and TTL refresh on every write so a
// bucket that's gone quiet eventually falls out of the cache on its own.
type Counters interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	IncrByFloat(ctx context.Context, key string, delta float64, ttl time.Duration) (float64, error)
}

// Monitor records request volume and processing time into fixed-width
// time buckets and reports rolling rates over each window.
type Monitor struct {
	counters Counters
	prefix   string
	now      func() time.Time
}

func New(counters Counters, prefix string) *Monitor {
	return &Monitor{counters: counters, prefix: prefix, now: time.Now}
}

// LogRequest records one reconciliation request: queryCount queries
// processed in processingTime, against every tracked rolling window.
func (m *Monitor) LogRequest(ctx context.Context, queryCount int64, processingTime time.Duration) error {
	now := m.now()
	for _, d := range windowDurations {
		bucket := bucketIndex(now, d)
		if _, err := m.counters.IncrBy(ctx, m.key(d, bucket, "req_count"), 1, d); err != nil {
			return err
		}
		if _, err := m.counters.IncrBy(ctx, m.key(d, bucket, "query_count"), queryCount, d); err != nil {
			return err
		}
		if _, err := m.counters.IncrByFloat(ctx, m.key(d, bucket, "processing_time"), processingTime.Seconds(), d); err != nil {
			return err
		}
	}
	return nil
}

// Rates summarizes the rolling request/query/processing-time rate over a
// single window.
type Rates struct {
	Duration               time.Duration
	MeasureDuration        time.Duration
	MeasureDurationTarget  time.Duration
	RequestRate            float64
	QueryRate               float64
	ProcessingTimePerQuery *float64
}

// GetRates reports the current rolling rate for every tracked window.
func (m *Monitor) GetRates(ctx context.Context) ([]Rates, error) {
	now := m.now()
	out := make([]Rates, 0, len(windowDurations))
	for _, d := range windowDurations {
		bucket := bucketIndex(now, d)
		reqCount, err := m.readFloat(ctx, m.key(d, bucket, "req_count"))
		if err != nil {
			return nil, err
		}
		queryCount, err := m.readFloat(ctx, m.key(d, bucket, "query_count"))
		if err != nil {
			return nil, err
		}
		processingTime, err := m.readFloat(ctx, m.key(d, bucket, "processing_time"))
		if err != nil {
			return nil, err
		}

		measureDuration := timeSinceBucketStarted(now, d)
		if measureDuration <= 0 {
			measureDuration = time.Nanosecond
		}

		rates := Rates{
			Duration:              d,
			MeasureDuration:       measureDuration,
			MeasureDurationTarget: d,
			RequestRate:           reqCount / measureDuration.Seconds(),
			QueryRate:             queryCount / measureDuration.Seconds(),
		}
		if queryCount > 0 {
			perQuery := processingTime / queryCount
			rates.ProcessingTimePerQuery = &perQuery
		}
		out = append(out, rates)
	}
	return out, nil
}

func (m *Monitor) readFloat(ctx context.Context, key string) (float64, error) {
	raw, err := m.counters.Get(ctx, key)
	if err != nil || raw == nil {
		return 0, err
	}
	var f float64
	if _, err := fmt.Sscanf(string(raw), "%g", &f); err != nil {
		return 0, nil
	}
	return f, nil
}

func (m *Monitor) key(d time.Duration, bucket int64, counter string) string {
	return fmt.Sprintf("%s:monitoring:%d:%d:%s", m.prefix, int64(d.Seconds()), bucket, counter)
}

// bucketIndex identifies which fixed-width bucket of length d the instant
// t falls into.
func bucketIndex(t time.Time, d time.Duration) int64 {
	return t.Unix() / int64(d.Seconds())
}

// timeSinceBucketStarted returns how far into the current bucket t is,
// i.e. how much of the window has actually elapsed so far -- the
// denominator GetRates uses instead of the full window length, so a rate
// computed moments after a bucket opened isn't diluted by time that
// hasn't happened yet.
func timeSinceBucketStarted(t time.Time, d time.Duration) time.Duration {
	secs := int64(d.Seconds())
	elapsed := t.Unix() % secs
	return time.Duration(elapsed) * time.Second
}
