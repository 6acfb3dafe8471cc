package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapEventsToDuties_SingleShiftEvent(t *testing.T) {
	event := RemoteEvent{
		ID:    "ev1",
		Name:  "2024-01-01D",
		Start: time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.January, 1, 20, 0, 0, 0, time.UTC),
	}

	eventByDuty, err := MapEventsToDuties([]RemoteEvent{event})
	require.NoError(t, err)
	require.Len(t, eventByDuty, 1)
	assert.Equal(t, event, eventByDuty[NewDuty(2024, time.January, 1, ShiftDay)])
}

func TestMapEventsToDuties_MultiDayEventCoversEveryDuty(t *testing.T) {
	// A merged event from day 1 10:00 to day 3 10:00 covers five duties.
	event := RemoteEvent{
		ID:    "ev1",
		Name:  "2024-01-01D-2024-01-03D",
		Start: time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.January, 3, 20, 0, 0, 0, time.UTC),
	}

	eventByDuty, err := MapEventsToDuties([]RemoteEvent{event})
	require.NoError(t, err)
	assert.Len(t, eventByDuty, 5)
	for _, duty := range []Duty{
		NewDuty(2024, time.January, 1, ShiftDay),
		NewDuty(2024, time.January, 1, ShiftNight),
		NewDuty(2024, time.January, 2, ShiftDay),
		NewDuty(2024, time.January, 2, ShiftNight),
		NewDuty(2024, time.January, 3, ShiftDay),
	} {
		assert.Equal(t, "ev1", eventByDuty[duty].ID, "duty %s", duty)
	}
}

func TestMapEventsToDuties_OffGridStartTime(t *testing.T) {
	event := RemoteEvent{
		ID:    "ev1",
		Name:  "broken",
		Start: time.Date(2024, time.January, 1, 11, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.January, 1, 20, 0, 0, 0, time.UTC),
	}

	_, err := MapEventsToDuties([]RemoteEvent{event})
	require.ErrorIs(t, err, ErrInvalidScheduleData)
	assert.Contains(t, err.Error(), "11:00")
	assert.Contains(t, err.Error(), "2024-01-01")
}

func TestMapEventsToDuties_OffGridEndTime(t *testing.T) {
	event := RemoteEvent{
		ID:    "ev1",
		Name:  "broken",
		Start: time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.January, 1, 15, 0, 0, 0, time.UTC),
	}

	_, err := MapEventsToDuties([]RemoteEvent{event})
	require.ErrorIs(t, err, ErrInvalidScheduleData)
	assert.Contains(t, err.Error(), "15:00")
}

func TestMapEventsToDuties_OverlappingEventsConflict(t *testing.T) {
	a := RemoteEvent{
		ID:    "ev1",
		Name:  "first",
		Start: time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC),
	}
	b := RemoteEvent{
		ID:    "ev2",
		Name:  "second",
		Start: time.Date(2024, time.January, 1, 20, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC),
	}

	_, err := MapEventsToDuties([]RemoteEvent{a, b})
	require.ErrorIs(t, err, ErrConflictingEvents)
	assert.Contains(t, err.Error(), "2024-01-01N")
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
}

func TestMergeDuties_ContiguousRunBecomesOneEvent(t *testing.T) {
	// Night ends 10:00 next day, exactly where the following day shift
	// starts, so the two merge.
	duties := []Duty{
		NewDuty(2024, time.January, 2, ShiftDay),
		NewDuty(2024, time.January, 1, ShiftNight),
	}

	merged := MergeDuties(duties)
	require.Len(t, merged, 1)
	assert.Equal(t, "2024-01-01N-2024-01-02D", merged[0].Name)
	assert.Equal(t, time.Date(2024, time.January, 1, 20, 0, 0, 0, time.UTC), merged[0].Start)
	assert.Equal(t, time.Date(2024, time.January, 2, 20, 0, 0, 0, time.UTC), merged[0].End)
}

func TestMergeDuties_GapKeepsEventsSeparate(t *testing.T) {
	duties := []Duty{
		NewDuty(2024, time.January, 1, ShiftDay),
		NewDuty(2024, time.January, 3, ShiftDay),
	}

	merged := MergeDuties(duties)
	require.Len(t, merged, 2)
	assert.Equal(t, "2024-01-01D", merged[0].Name)
	assert.Equal(t, "2024-01-03D", merged[1].Name)
}

func TestMergeDuties_SameDayShiftsMerge(t *testing.T) {
	duties := []Duty{
		NewDuty(2024, time.January, 1, ShiftDay),
		NewDuty(2024, time.January, 1, ShiftNight),
	}

	merged := MergeDuties(duties)
	require.Len(t, merged, 1)
	assert.Equal(t, "2024-01-01D-2024-01-01N", merged[0].Name)
	assert.Equal(t, time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC), merged[0].Start)
	assert.Equal(t, time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC), merged[0].End)
}

func TestMergeDuties_RoundTripThroughParse(t *testing.T) {
	// Creating events from duties and parsing them back must reproduce the
	// exact duty coverage.
	duties := []Duty{
		NewDuty(2024, time.February, 1, ShiftNight),
		NewDuty(2024, time.February, 2, ShiftDay),
		NewDuty(2024, time.February, 2, ShiftNight),
		NewDuty(2024, time.February, 5, ShiftDay),
	}

	merged := MergeDuties(duties)
	require.Len(t, merged, 2)

	events := make([]RemoteEvent, len(merged))
	for i, m := range merged {
		events[i] = RemoteEvent{ID: m.Name, Name: m.Name, Start: m.Start, End: m.End}
	}
	eventByDuty, err := MapEventsToDuties(events)
	require.NoError(t, err)

	require.Len(t, eventByDuty, len(duties))
	for _, duty := range duties {
		_, ok := eventByDuty[duty]
		assert.True(t, ok, "duty %s missing after round trip", duty)
	}
}

func TestGroupAdjacent(t *testing.T) {
	consecutive := func(a, b int) bool { return b == a+1 }

	runs := GroupAdjacent([]int{1, 2, 3, 7, 8, 12}, consecutive)
	assert.Equal(t, [][]int{{1, 2, 3}, {7, 8}, {12}}, runs)

	assert.Nil(t, GroupAdjacent(nil, consecutive))
	assert.Equal(t, [][]int{{5}}, GroupAdjacent([]int{5}, consecutive))
}
