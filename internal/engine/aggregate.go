package engine

import (
	"time"

	"github.com/coffersTech/logreport/internal/model"
)

// Bucket is one row of a frequency table.
type Bucket struct {
	Value   string `json:"value" yaml:"value"`
	Count   int    `json:"count" yaml:"count"`
	Percent int    `json:"percent" yaml:"percent"`
}

// Distribution counts distinct values, remembering the order in which each
// value was first seen.
type Distribution struct {
	buckets []Bucket
	index   map[string]int
}

// NewDistribution returns an empty Distribution.
func NewDistribution() *Distribution {
	return &Distribution{index: make(map[string]int)}
}

// Add counts one occurrence of value.
func (d *Distribution) Add(value string) {
	if i, ok := d.index[value]; ok {
		d.buckets[i].Count++
		return
	}
	d.index[value] = len(d.buckets)
	d.buckets = append(d.buckets, Bucket{Value: value, Count: 1})
}

// Buckets returns the counts in first-seen order with Percent computed
// against total by truncating integer division.
func (d *Distribution) Buckets(total int) []Bucket {
	out := make([]Bucket, len(d.buckets))
	copy(out, d.buckets)
	if total > 0 {
		for i := range out {
			out[i].Percent = out[i].Count * 100 / total
		}
	}
	return out
}

// Report is the aggregate view of one service's logs.
type Report struct {
	Service       string     `json:"service" yaml:"service"`
	RotationCount int        `json:"rotation_count" yaml:"rotation_count"`
	Total         int        `json:"total" yaml:"total"`
	Earliest      *time.Time `json:"earliest,omitempty" yaml:"earliest,omitempty"`
	Latest        *time.Time `json:"latest,omitempty" yaml:"latest,omitempty"`
	Severities    []Bucket   `json:"severities" yaml:"severities"`
	Categories    []Bucket   `json:"categories" yaml:"categories"`
	Text          string     `json:"text" yaml:"text"`
}

// Empty reports whether no record contributed to r.
func (r Report) Empty() bool {
	return r.Total == 0
}

// Summarize aggregates g and renders its text. The time range is a full
// scan, so records need not be sorted.
func Summarize(g model.LogGroup) Report {
	r := Report{
		Service:       g.Service,
		RotationCount: g.RotationCount,
		Total:         len(g.Records),
	}

	severities := NewDistribution()
	categories := NewDistribution()

	for i := range g.Records {
		rec := &g.Records[i]
		severities.Add(rec.Severity)
		categories.Add(rec.Category)

		if r.Earliest == nil || rec.CreatedAt.Before(*r.Earliest) {
			ts := rec.CreatedAt
			r.Earliest = &ts
		}
		if r.Latest == nil || rec.CreatedAt.After(*r.Latest) {
			ts := rec.CreatedAt
			r.Latest = &ts
		}
	}

	r.Severities = severities.Buckets(r.Total)
	r.Categories = categories.Buckets(r.Total)
	r.Text = Render(r)
	return r
}
