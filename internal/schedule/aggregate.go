package schedule

import "weekcal/internal/model"

// Aggregate buckets activities by weekday, preserving input order within
// each bucket, lays out every day independently, and assembles the week
// grid. Pure function; the seven buckets share nothing, so per-day layout
// needs no coordination.
func Aggregate(activities []model.Activity) model.WeekLayout {
	var buckets [model.DaysPerWeek][]model.Activity
	for _, act := range activities {
		buckets[act.Day] = append(buckets[act.Day], act)
	}

	var layout model.WeekLayout
	for day := 0; day < model.DaysPerWeek; day++ {
		layout.DayActivities[day], layout.MaxDayCols[day] = LayoutDay(buckets[day])
	}
	return layout
}
