package engine

import (
	"sort"
	"time"

	"github.com/coffersTech/logreport/internal/model"
)

// HistogramPoint is the number of records in the bucket starting at Time.
type HistogramPoint struct {
	Time  time.Time `json:"time"`
	Count int       `json:"count"`
}

// ServiceHistogram is the record timeline of one service.
type ServiceHistogram struct {
	Service string           `json:"service"`
	Points  []HistogramPoint `json:"points"`
}

// ComputeHistogram counts records per interval-aligned bucket, oldest
// bucket first. Empty buckets are omitted.
func ComputeHistogram(records []model.LogRecord, interval time.Duration) []HistogramPoint {
	buckets := make(map[int64]int)
	for _, rec := range records {
		ts := rec.CreatedAt.UnixNano()
		bucket := ts - mod(ts, int64(interval))
		buckets[bucket]++
	}

	points := make([]HistogramPoint, 0, len(buckets))
	for ts, count := range buckets {
		points = append(points, HistogramPoint{Time: time.Unix(0, ts).UTC(), Count: count})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})
	return points
}

// mod is a modulo that stays non-negative for timestamps before 1970.
func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
