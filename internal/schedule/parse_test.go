package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekcal/internal/model"
)

func TestParse_SingleActivity(t *testing.T) {
	sched, err := Parse("週一 09:00-11:00 A")
	require.NoError(t, err)
	require.Len(t, sched.Activities, 1)

	act := sched.Activities[0]
	assert.Equal(t, 0, act.Day)
	assert.Equal(t, 18, act.StartSlot)
	assert.Equal(t, 22, act.EndSlot)
	assert.Equal(t, "A", act.Name)
	assert.Empty(t, act.Note)
}

func TestParse_BareWeekdayToken(t *testing.T) {
	sched, err := Parse("日 10:00-10:30 早餐")
	require.NoError(t, err)
	require.Len(t, sched.Activities, 1)
	assert.Equal(t, 6, sched.Activities[0].Day)
}

func TestParse_NoteAndNameTrimming(t *testing.T) {
	sched, err := Parse("週二 08:30-09:30   晨跑  [河濱公園] ")
	require.NoError(t, err)
	require.Len(t, sched.Activities, 1)

	act := sched.Activities[0]
	assert.Equal(t, 1, act.Day)
	assert.Equal(t, "晨跑", act.Name)
	assert.Equal(t, "河濱公園", act.Note)
}

func TestParse_CrossMidnight(t *testing.T) {
	sched, err := Parse("週五 23:00-次日 01:00 X")
	require.NoError(t, err)
	require.Len(t, sched.Activities, 1)

	act := sched.Activities[0]
	assert.Equal(t, 4, act.Day)
	assert.Equal(t, 46, act.StartSlot)
	assert.Equal(t, 50, act.EndSlot)
	assert.True(t, act.CrossesMidnight())
}

func TestParse_ConfigLine(t *testing.T) {
	sched, err := Parse("config:ics_repeat=3m\n週一 09:00-10:00 A")
	require.NoError(t, err)
	assert.Equal(t, 3, sched.Config.ICSRepeatMonths)
}

func TestParse_ConfigLineCaseInsensitiveLastWins(t *testing.T) {
	sched, err := Parse("CONFIG:ICS_REPEAT=2M\nconfig:ics_repeat=9m")
	require.NoError(t, err)
	assert.Equal(t, 9, sched.Config.ICSRepeatMonths)
}

func TestParse_ConfigDefault(t *testing.T) {
	sched, err := Parse("週一 09:00-10:00 A")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultICSRepeatMonths, sched.Config.ICSRepeatMonths)
}

func TestParse_BlankLinesSkipped(t *testing.T) {
	sched, err := Parse("\n\n週一 09:00-10:00 A\n\n週二 09:00-10:00 B\n")
	require.NoError(t, err)
	assert.Len(t, sched.Activities, 2)
}

func TestParse_QuarterHourRejected(t *testing.T) {
	sched, err := Parse("週一 09:15-10:00 Bad")
	require.Error(t, err)
	assert.Nil(t, sched)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "週一 09:15-10:00 Bad", perr.Line)
	assert.Contains(t, perr.Reason, "00 or 30")
}

func TestParse_MalformedLine(t *testing.T) {
	_, err := Parse("下週一 09:00-10:00 A")

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "下週一 09:00-10:00 A", perr.Line)
}

func TestParse_NonPositiveDuration(t *testing.T) {
	for _, line := range []string{
		"週一 10:00-10:00 Zero",
		"週一 10:00-09:00 Negative",
	} {
		_, err := Parse(line)
		var perr *ParseError
		require.True(t, errors.As(err, &perr), "line %q", line)
		assert.Contains(t, perr.Reason, "after start")
	}
}

func TestParse_AllOrNothing(t *testing.T) {
	sched, err := Parse("週一 09:00-10:00 OK\n週二 bogus\n週三 09:00-10:00 AlsoOK")
	require.Error(t, err)
	assert.Nil(t, sched)
}

func TestParse_SlotInvariants(t *testing.T) {
	input := "週一 00:00-00:30 Start\n週三 12:00-13:30 Mid\n週日 23:30-次日 23:30 Long"
	sched, err := Parse(input)
	require.NoError(t, err)

	for _, act := range sched.Activities {
		assert.GreaterOrEqual(t, act.StartSlot, 0)
		assert.LessOrEqual(t, act.StartSlot, 47)
		assert.Greater(t, act.EndSlot, act.StartSlot)
		assert.LessOrEqual(t, act.EndSlot, 95)
	}
}

func TestParse_OrderPreserved(t *testing.T) {
	sched, err := Parse("週三 14:00-15:00 M\n週三 09:00-10:00 Earlier")
	require.NoError(t, err)
	require.Len(t, sched.Activities, 2)
	assert.Equal(t, "M", sched.Activities[0].Name)
	assert.Equal(t, "Earlier", sched.Activities[1].Name)
}
