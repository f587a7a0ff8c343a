package analytics

import "sort"

// OtherLabel groups events whose dimension value is absent.
const OtherLabel = "Other"

// BreakdownBy groups events by the label the extractor returns and counts
// them, ordered by count descending. Events mapped to an empty label are
// grouped under OtherLabel. Ties keep first-encountered order, matching the
// order events arrive from the store.
func BreakdownBy[E any](events []E, extract func(E) string) Series {
	counts := make(map[string]int)
	var order []string
	for _, ev := range events {
		label := extract(ev)
		if label == "" {
			label = OtherLabel
		}
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}

	series := make(Series, 0, len(order))
	for _, label := range order {
		series = append(series, Bucket{Label: label, Count: counts[label]})
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Count > series[j].Count
	})
	return series
}
