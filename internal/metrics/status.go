package metrics

import "sort"

// SkipBucket is the number of repetitions skipped for one reason.
type SkipBucket struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// FlattenSkipReasons converts a nested kind->message map into a sorted slice of SkipBucket rows.
// Rows are sorted by descending count, then by kind/message for stability.
func FlattenSkipReasons(buckets map[string]map[string]int) []SkipBucket {
	if len(buckets) == 0 {
		return nil
	}
	rows := make([]SkipBucket, 0)
	for kind, messages := range buckets {
		for msg, count := range messages {
			rows = append(rows, SkipBucket{Kind: kind, Message: msg, Count: count})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			if rows[i].Kind == rows[j].Kind {
				return rows[i].Message < rows[j].Message
			}
			return rows[i].Kind < rows[j].Kind
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
