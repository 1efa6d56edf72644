package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"weekcal/internal/model"
)

// ParseError describes a single rejected input line. Parsing is
// all-or-nothing: the first bad line aborts the whole submission, so the
// caller can point the user at exactly one line to fix.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: %s: %q", e.Reason, e.Line)
}

var (
	// 週一 09:00-11:00 名稱 [備註]  /  一 23:00-次日 01:00 名稱
	activityRe = regexp.MustCompile(
		`^\s*(週?[一二三四五六日])\s+` +
			`(\d{1,2}):(\d{2})\s*-\s*` +
			`(次日\s*)?(\d{1,2}):(\d{2})\s+` +
			`([^\[]+?)` +
			`(?:\s*\[(.+?)\])?\s*$`)

	configRe = regexp.MustCompile(`(?i)^\s*config:ics_repeat=(\d+)m\s*$`)
)

var dayIndex = map[string]int{
	"一": 0, "二": 1, "三": 2, "四": 3, "五": 4, "六": 5, "日": 6,
}

// Parse converts weekly-routine DSL text into a Schedule. Blank lines are
// skipped. Config lines are last-wins. Any line matching neither grammar,
// or violating the time rules, returns a *ParseError carrying the literal
// line; no partial activity list is ever returned.
func Parse(text string) (*model.Schedule, error) {
	sched := &model.Schedule{
		Activities: []model.Activity{},
		Config:     model.ScheduleConfig{ICSRepeatMonths: model.DefaultICSRepeatMonths},
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := configRe.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n <= 0 {
				return nil, &ParseError{Line: line, Reason: "repeat months must be a positive integer"}
			}
			sched.Config.ICSRepeatMonths = n
			continue
		}

		act, err := parseActivityLine(line)
		if err != nil {
			return nil, err
		}
		sched.Activities = append(sched.Activities, act)
	}

	return sched, nil
}

func parseActivityLine(line string) (model.Activity, error) {
	m := activityRe.FindStringSubmatch(line)
	if m == nil {
		return model.Activity{}, &ParseError{Line: line, Reason: "unrecognized line"}
	}

	dayToken := strings.TrimPrefix(m[1], "週")
	day, ok := dayIndex[dayToken]
	if !ok {
		return model.Activity{}, &ParseError{Line: line, Reason: "unknown weekday " + m[1]}
	}

	startSlot, err := toSlot(m[2], m[3])
	if err != nil {
		return model.Activity{}, &ParseError{Line: line, Reason: err.Error()}
	}
	endSlot, err := toSlot(m[5], m[6])
	if err != nil {
		return model.Activity{}, &ParseError{Line: line, Reason: err.Error()}
	}
	if m[4] != "" {
		// 次日: the end time falls on the following calendar day.
		endSlot += model.SlotsPerDay
	}

	if startSlot >= model.SlotsPerDay {
		return model.Activity{}, &ParseError{Line: line, Reason: "start time must be before midnight"}
	}
	if endSlot >= model.MaxEndSlot {
		return model.Activity{}, &ParseError{Line: line, Reason: "end time runs past the following day"}
	}
	if startSlot >= endSlot {
		return model.Activity{}, &ParseError{Line: line, Reason: "end time must be after start time"}
	}

	name := strings.TrimSpace(m[7])
	if name == "" {
		return model.Activity{}, &ParseError{Line: line, Reason: "activity name is empty"}
	}

	return model.Activity{
		Day:       day,
		StartSlot: startSlot,
		EndSlot:   endSlot,
		Name:      name,
		Note:      strings.TrimSpace(m[8]),
	}, nil
}

// toSlot converts an H:MM / HH:MM clock reading into a slot index. Minutes
// must land exactly on the hour or half hour.
func toSlot(hourStr, minStr string) (int, error) {
	// 24:00 is accepted as end-of-day midnight; the slot-range checks on the
	// assembled activity reject it where it cannot appear.
	h, err := strconv.Atoi(hourStr)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("hour %s out of range", hourStr)
	}
	m, err := strconv.Atoi(minStr)
	if err != nil {
		return 0, fmt.Errorf("bad minutes %s", minStr)
	}
	if m != 0 && m != model.SlotMinutes {
		return 0, fmt.Errorf("minutes must be 00 or 30, got %s", minStr)
	}
	return h*2 + m/model.SlotMinutes, nil
}
