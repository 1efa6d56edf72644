package model

// Slot arithmetic for the weekly grid. A slot is 30 minutes; a calendar day
// has 48 slots indexed from midnight. End slots may run past 47 (up to 95)
// for activities that cross midnight into the next day.
const (
	SlotMinutes = 30
	SlotsPerDay = 48
	MaxEndSlot  = 2 * SlotsPerDay
	DaysPerWeek = 7
)

// Activity is a single recurring weekly activity as produced by the parser.
// Day is 0..6 with Monday=0. Values are immutable once parsed; the layout
// stage wraps them in PlacedActivity instead of writing onto them.
type Activity struct {
	Day       int    `json:"day"`
	StartSlot int    `json:"start_slot"`
	EndSlot   int    `json:"end_slot"`
	Name      string `json:"name"`
	Note      string `json:"note,omitempty"`
}

// CrossesMidnight reports whether the activity ends on the following
// calendar day.
func (a Activity) CrossesMidnight() bool {
	return a.EndSlot > SlotsPerDay
}

// DurationMinutes returns the activity length in minutes.
func (a Activity) DurationMinutes() int {
	return (a.EndSlot - a.StartSlot) * SlotMinutes
}

// StartClock returns the start time-of-day as (hour, minute).
func (a Activity) StartClock() (hour, minute int) {
	return a.StartSlot / 2, (a.StartSlot % 2) * SlotMinutes
}

// PlacedActivity is an Activity annotated with its grid placement for one
// day's column layout. ColIndex is the 0-based column, ColSpan the number of
// columns the activity renders across, GroupCols the peak concurrency of the
// chain-group the activity belongs to.
type PlacedActivity struct {
	Activity
	ColIndex  int `json:"col_index"`
	ColSpan   int `json:"col_span"`
	GroupCols int `json:"total_cols_in_group"`
}

// ScheduleConfig holds per-schedule options parsed from config lines.
type ScheduleConfig struct {
	// ICSRepeatMonths is the length of the calendar export window in months.
	ICSRepeatMonths int `json:"ics_repeat_months"`
}

// DefaultICSRepeatMonths applies when the input carries no config line.
const DefaultICSRepeatMonths = 6

// Schedule is one successfully parsed submission: the ordered activity list
// plus its options. This is the value held by the schedule store between
// generate and export calls.
type Schedule struct {
	Activities []Activity     `json:"activities"`
	Config     ScheduleConfig `json:"config"`
}

// WeekLayout is the grid layout for a full week: per-weekday placed
// activities (index 0 = Monday) and each day's peak column count.
type WeekLayout struct {
	DayActivities [DaysPerWeek][]PlacedActivity `json:"day_activities"`
	MaxDayCols    [DaysPerWeek]int              `json:"max_day_cols"`
}
