// Package analytics implements the dashboard aggregation core: time-bucketed
// event counting with gap filling, and dimensional breakdowns.
package analytics

import (
	"fmt"
	"time"
)

// Granularity selects the bucket size for a time series.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ErrInvalidRange is returned when a requested window is empty or inverted.
var ErrInvalidRange = fmt.Errorf("analytics: invalid time range")

// ParseGranularity validates a granularity string. An empty string defaults
// to day.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case "":
		return GranularityDay, nil
	case GranularityDay, GranularityWeek, GranularityMonth:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("invalid granularity %q: must be day, week or month", s)
}

// Bucket is one (period label, count) pair of a series.
type Bucket struct {
	Label string
	Count int
}

// Series is a gap-free, strictly ascending sequence of buckets.
type Series []Bucket

// Labels returns the period labels in order.
func (s Series) Labels() []string {
	labels := make([]string, len(s))
	for i, b := range s {
		labels[i] = b.Label
	}
	return labels
}

// Values returns the counts in order.
func (s Series) Values() []int {
	values := make([]int, len(s))
	for i, b := range s {
		values[i] = b.Count
	}
	return values
}

// Truncate returns the bucket boundary containing t for the given
// granularity: the calendar day, the Monday of the week, or the first day of
// the month. The result is always midnight UTC.
func Truncate(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	switch g {
	case GranularityWeek:
		// Weeks start on Monday.
		offset := (int(t.Weekday()) + 6) % 7
		t = t.AddDate(0, 0, -offset)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Label formats a bucket boundary as its period label.
func Label(boundary time.Time, g Granularity) string {
	if g == GranularityMonth {
		return boundary.Format("2006-01")
	}
	return boundary.Format("2006-01-02")
}

// step advances a bucket boundary to the next period.
func step(boundary time.Time, g Granularity) time.Time {
	switch g {
	case GranularityWeek:
		return boundary.AddDate(0, 0, 7)
	case GranularityMonth:
		return boundary.AddDate(0, 1, 0)
	}
	return boundary.AddDate(0, 0, 1)
}

// BucketedCounts buckets event timestamps into a gap-free series covering
// every period from windowStart to windowEnd inclusive. Both window ends are
// compared at bucket-boundary granularity, so an event sharing windowEnd's
// bucket is included even if its raw timestamp is later. Periods with no
// events carry an explicit zero count.
func BucketedCounts(timestamps []time.Time, windowStart, windowEnd time.Time, g Granularity) (Series, error) {
	if windowStart.After(windowEnd) {
		return nil, fmt.Errorf("%w: start %s after end %s",
			ErrInvalidRange, windowStart.Format("2006-01-02"), windowEnd.Format("2006-01-02"))
	}

	first := Truncate(windowStart, g)
	last := Truncate(windowEnd, g)

	counts := make(map[time.Time]int, len(timestamps))
	for _, ts := range timestamps {
		counts[Truncate(ts, g)]++
	}

	var series Series
	for b := first; !b.After(last); b = step(b, g) {
		series = append(series, Bucket{Label: Label(b, g), Count: counts[b]})
	}
	return series, nil
}
