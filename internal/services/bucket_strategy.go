// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for aggregation buckets.
// Each granularity (daily, weekly, monthly) has its own strategy that
// decides which key a record's amount is summed under.

package services

import (
	"time"

	"ledger/internal/core"
)

// Bucketer is the strategy interface for grouping records.
type Bucketer interface {
	// BucketKey returns the key the record is summed under. ok is false when
	// the record cannot be placed in a bucket.
	BucketKey(r core.RecordDetail) (key string, ok bool)
}

// CategoryBucketer groups by category name and ignores dates.
type CategoryBucketer struct{}

func (CategoryBucketer) BucketKey(r core.RecordDetail) (string, bool) {
	return r.CategoryName, true
}

// WeekBucketer groups by the Monday starting the record's ISO week.
type WeekBucketer struct{}

func (WeekBucketer) BucketKey(r core.RecordDetail) (string, bool) {
	d, ok := r.Date()
	if !ok {
		return "", false
	}
	return WeekStart(d).Format(core.DateLayout), true
}

// MonthBucketer groups by the first day of the record's month.
type MonthBucketer struct{}

func (MonthBucketer) BucketKey(r core.RecordDetail) (string, bool) {
	d, ok := r.Date()
	if !ok {
		return "", false
	}
	return MonthStart(d).Format(core.DateLayout), true
}

// WeekStart truncates t to the Monday of its ISO week.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
}

func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

var bucketStrategies = map[core.Granularity]Bucketer{
	core.Daily:   CategoryBucketer{},
	core.Weekly:  WeekBucketer{},
	core.Monthly: MonthBucketer{},
}

// GetBucketer returns the strategy for a granularity. Unknown granularities
// have no strategy; the aggregator treats them as producing no buckets.
func GetBucketer(g core.Granularity) (Bucketer, bool) {
	b, ok := bucketStrategies[g]
	return b, ok
}
