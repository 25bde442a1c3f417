package view

import (
	"sort"

	"calpane/internal/model"
)

// ByDay groups normalized events into per-day buckets keyed by DayKey and
// stable-sorts each bucket ascending by SortKey. The stable sort keeps the
// input's relative order for events with equal keys.
func ByDay(events []model.Event) map[string][]model.Event {
	buckets := make(map[string][]model.Event)
	for _, ev := range events {
		buckets[ev.DayKey] = append(buckets[ev.DayKey], ev)
	}
	for key := range buckets {
		bucket := buckets[key]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].SortKey < bucket[j].SortKey
		})
	}
	return buckets
}

// SortedKeys returns the bucket keys in ascending order. For YYYY-MM-DD keys
// lexicographic order is chronological order.
func SortedKeys(buckets map[string][]model.Event) []string {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
