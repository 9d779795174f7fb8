package aggregate

import (
	"fmt"
	"time"
)

// ISOWeek returns the ISO-8601 week bucket of t in UTC, e.g. 2024-W01.
// Weeks start on Monday and week 1 contains the year's first Thursday.
func ISOWeek(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// Buckets counts distinct UTC days, ISO weeks and months.
type Buckets struct {
	Days   map[string]struct{}
	Weeks  map[string]struct{}
	Months map[string]struct{}
}

func newBuckets() Buckets {
	return Buckets{
		Days:   make(map[string]struct{}),
		Weeks:  make(map[string]struct{}),
		Months: make(map[string]struct{}),
	}
}

func (b Buckets) add(t time.Time) {
	b.Days[dayKey(t)] = struct{}{}
	b.Weeks[ISOWeek(t)] = struct{}{}
	b.Months[monthKey(t)] = struct{}{}
}
