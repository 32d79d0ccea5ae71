// Package overlap groups projections that land on the same timestamp.
package overlap

import (
	"sort"
	"time"

	"CycleScope/internal/model"
)

// Count maps each projected timestamp to the number of projections hitting it.
// Timestamps are compared as instants; no rounding is applied.
func Count(projections []model.Projection) map[time.Time]int {
	groups := collect(projections)
	out := make(map[time.Time]int, len(groups))
	for _, g := range groups {
		out[g.Time] = g.Count
	}
	return out
}

// Group returns the groups whose size is at least threshold, largest first,
// ties broken by earlier timestamp. Projections inside a group keep input order.
func Group(projections []model.Projection, threshold int) []model.OverlapGroup {
	groups := collect(projections)
	out := groups[:0]
	for _, g := range groups {
		if g.Count >= threshold {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// CountAt returns the overlap count for t from a Count result.
func CountAt(counts map[time.Time]int, t time.Time) int {
	if n, ok := counts[t]; ok {
		return n
	}
	for k, n := range counts {
		if k.Equal(t) {
			return n
		}
	}
	return 0
}

func collect(projections []model.Projection) []model.OverlapGroup {
	index := make(map[int64]int)
	var groups []model.OverlapGroup
	for _, p := range projections {
		key := p.Projected.UnixNano()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, model.OverlapGroup{Time: p.Projected})
		}
		groups[i].Projections = append(groups[i].Projections, p)
		groups[i].Count++
	}
	return groups
}
