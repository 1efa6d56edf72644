package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

const productID = "-//weekcal//weekly schedule//EN"

// BuildOptions controls calendar materialization.
type BuildOptions struct {
	// Reference is "today": the first date of the export window. Only its
	// calendar date matters; the time of day is discarded.
	Reference time.Time

	// Location is the timezone activities are anchored in.
	// If nil, time.Local is used.
	Location *time.Location
}

// Build materializes a schedule into an ICS document: one VEVENT per
// concrete calendar date over [Reference, Reference + repeat months], with
// the end date's day-of-month clamped to the target month's last valid day.
//
// Events carry concrete timestamps rather than an RRULE; a weekly rule is
// used internally only to enumerate the dates of each weekday bucket.
// Durations are added as elapsed time, so a cross-midnight activity's end
// lands on the following date without any splitting.
func Build(sched *model.Schedule, opts BuildOptions) (string, error) {
	if sched == nil || len(sched.Activities) == 0 {
		return "", fmt.Errorf("ics: schedule has no activities")
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	ref := opts.Reference.In(loc)
	start := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)
	end := addMonthsClamped(start, sched.Config.ICSRepeatMonths)

	var buckets [model.DaysPerWeek][]model.Activity
	for _, act := range sched.Activities {
		buckets[act.Day] = append(buckets[act.Day], act)
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	now := time.Now().UTC()
	eventCount := 0

	for day := 0; day < model.DaysPerWeek; day++ {
		if len(buckets[day]) == 0 {
			continue
		}

		dates, err := weekdayDates(day, start, end)
		if err != nil {
			return "", fmt.Errorf("ics: enumerating dates for day %d: %w", day, err)
		}

		for _, date := range dates {
			for i, act := range buckets[day] {
				hour, minute := act.StartClock()
				begin := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
				finish := begin.Add(time.Duration(act.DurationMinutes()) * time.Minute)

				uid := fmt.Sprintf("%s-%d-%d@weekcal", begin.Format("20060102"), day, i)
				ev := cal.AddEvent(uid)
				ev.SetDtStampTime(now)
				ev.SetStartAt(begin)
				ev.SetEndAt(finish)
				ev.SetSummary(act.Name)
				if act.Note != "" {
					ev.SetDescription(act.Note)
				}
				eventCount++
			}
		}
	}

	appLog.Info("ics build completed",
		"window_start", start.Format(time.DateOnly),
		"window_end", end.Format(time.DateOnly),
		"repeat_months", sched.Config.ICSRepeatMonths,
		"event_count", eventCount,
	)

	return cal.Serialize(), nil
}

// weekdayDates lists every calendar date in [start, end] falling on the
// given weekday (Monday=0), via a WEEKLY rule anchored at the first match.
func weekdayDates(day int, start, end time.Time) ([]time.Time, error) {
	offset := (day - weekdayIndex(start) + model.DaysPerWeek) % model.DaysPerWeek
	first := start.AddDate(0, 0, offset)
	if first.After(end) {
		return nil, nil
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Dtstart: first,
		Until:   end,
	})
	if err != nil {
		return nil, err
	}
	return r.All(), nil
}

// weekdayIndex maps time.Weekday onto the schedule's Monday=0 indexing.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % model.DaysPerWeek
}

// addMonthsClamped advances t by n months, clamping the day-of-month to the
// last valid day of the target month (Jan 31 + 1 month = Feb 28/29). Plain
// AddDate would normalize the overflow into the following month instead.
func addMonthsClamped(t time.Time, n int) time.Time {
	year, month := t.Year(), int(t.Month())+n
	year += (month - 1) / 12
	month = (month-1)%12 + 1

	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, t.Location()).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, t.Location())
}
