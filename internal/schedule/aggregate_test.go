package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekcal/internal/model"
)

func TestAggregate_Empty(t *testing.T) {
	layout := Aggregate(nil)
	for day := 0; day < model.DaysPerWeek; day++ {
		assert.Empty(t, layout.DayActivities[day])
		assert.Equal(t, 1, layout.MaxDayCols[day])
	}
}

func TestAggregate_BucketsByDay(t *testing.T) {
	layout := Aggregate([]model.Activity{
		act(2, 28, 30, "M"),
		act(2, 29, 32, "N"),
		act(0, 18, 22, "A"),
	})

	require.Len(t, layout.DayActivities[0], 1)
	assert.Equal(t, "A", layout.DayActivities[0][0].Name)
	assert.Equal(t, 1, layout.MaxDayCols[0])

	require.Len(t, layout.DayActivities[2], 2)
	assert.Equal(t, 2, layout.MaxDayCols[2])

	for _, day := range []int{1, 3, 4, 5, 6} {
		assert.Empty(t, layout.DayActivities[day])
		assert.Equal(t, 1, layout.MaxDayCols[day])
	}
}

func TestAggregate_Completeness(t *testing.T) {
	input := []model.Activity{
		act(0, 10, 14, "A"),
		act(0, 12, 16, "B"),
		act(3, 20, 24, "C"),
		act(6, 40, 50, "D"),
		act(3, 22, 26, "E"),
	}
	layout := Aggregate(input)

	// Every input activity appears exactly once across the week, with its
	// parsed fields untouched.
	seen := map[string]model.Activity{}
	total := 0
	for day := 0; day < model.DaysPerWeek; day++ {
		for _, p := range layout.DayActivities[day] {
			seen[p.Name] = p.Activity
			total++
			assert.Equal(t, day, p.Day)
		}
	}
	assert.Equal(t, len(input), total)
	for _, in := range input {
		assert.Equal(t, in, seen[in.Name])
	}
}

func TestAggregate_FullSpanRule(t *testing.T) {
	layout := Aggregate([]model.Activity{
		act(4, 10, 14, "A"),
		act(4, 12, 16, "B"),
		act(4, 30, 34, "Solo"),
	})

	for _, p := range layout.DayActivities[4] {
		if p.GroupCols == 1 {
			assert.Equal(t, layout.MaxDayCols[4], p.ColSpan, p.Name)
		} else {
			assert.Equal(t, 1, p.ColSpan, p.Name)
		}
	}
}
