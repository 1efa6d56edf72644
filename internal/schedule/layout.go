package schedule

import (
	"sort"

	"weekcal/internal/model"
)

// LayoutDay arranges one day's activities into grid columns and returns them
// ordered by start slot together with the day's peak column count.
//
// Activities are first chained into groups: walking in start order, an
// activity joins the open group while its start lies before the running
// maximum end seen so far, which is interval-merging rather than pairwise
// overlap. Each group's peak concurrency is counted slot by slot, columns
// are assigned greedily (smallest index not taken by an overlapping
// earlier activity), and groups that never actually overlap stretch to the
// full day width.
//
// The inputs are never written to; every activity comes back wrapped in a
// fresh PlacedActivity value.
func LayoutDay(activities []model.Activity) ([]model.PlacedActivity, int) {
	if len(activities) == 0 {
		return []model.PlacedActivity{}, 1
	}

	sorted := make([]model.Activity, len(activities))
	copy(sorted, activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartSlot < sorted[j].StartSlot
	})

	groups := chainGroups(sorted)

	maxDayCols := 1
	placedGroups := make([][]model.PlacedActivity, 0, len(groups))

	for _, group := range groups {
		cols := peakConcurrency(group)
		if cols > maxDayCols {
			maxDayCols = cols
		}

		placed := make([]model.PlacedActivity, len(group))
		for i, act := range group {
			placed[i] = model.PlacedActivity{Activity: act, GroupCols: cols}
			placed[i].ColIndex = smallestFreeColumn(placed[:i], act)
		}
		placedGroups = append(placedGroups, placed)
	}

	out := make([]model.PlacedActivity, 0, len(sorted))
	for _, placed := range placedGroups {
		for _, p := range placed {
			if p.GroupCols == 1 {
				// Chain-linked but never concurrent: occupy the full day width.
				p.ColSpan = maxDayCols
			} else {
				p.ColSpan = 1
			}
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartSlot < out[j].StartSlot
	})
	return out, maxDayCols
}

// chainGroups splits start-sorted activities into maximal runs where each
// member starts strictly before the running maximum end of the run so far.
func chainGroups(sorted []model.Activity) [][]model.Activity {
	groups := make([][]model.Activity, 0, 1)
	current := []model.Activity{sorted[0]}
	runningEnd := sorted[0].EndSlot

	for _, act := range sorted[1:] {
		if act.StartSlot < runningEnd {
			current = append(current, act)
			if act.EndSlot > runningEnd {
				runningEnd = act.EndSlot
			}
			continue
		}
		groups = append(groups, current)
		current = []model.Activity{act}
		runningEnd = act.EndSlot
	}
	return append(groups, current)
}

// peakConcurrency counts, slot by slot across the group's span, the largest
// number of activities active at once. Group sizes are human-scale, so the
// O(n·range) scan is fine.
func peakConcurrency(group []model.Activity) int {
	minStart, maxEnd := group[0].StartSlot, group[0].EndSlot
	for _, act := range group[1:] {
		if act.StartSlot < minStart {
			minStart = act.StartSlot
		}
		if act.EndSlot > maxEnd {
			maxEnd = act.EndSlot
		}
	}

	peak := 0
	for slot := minStart; slot < maxEnd; slot++ {
		n := 0
		for _, act := range group {
			if act.StartSlot <= slot && slot < act.EndSlot {
				n++
			}
		}
		if n > peak {
			peak = n
		}
	}
	return peak
}

// smallestFreeColumn returns the lowest column index not taken by any
// earlier-placed group member whose interval overlaps act.
func smallestFreeColumn(placed []model.PlacedActivity, act model.Activity) int {
	taken := make(map[int]bool, len(placed))
	for _, prev := range placed {
		if overlaps(prev.Activity, act) {
			taken[prev.ColIndex] = true
		}
	}
	col := 0
	for taken[col] {
		col++
	}
	return col
}

func overlaps(a, b model.Activity) bool {
	return max(a.StartSlot, b.StartSlot) < min(a.EndSlot, b.EndSlot)
}
