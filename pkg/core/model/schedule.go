package model

import (
	"fmt"
	"slices"
	"time"
)

// MapEventsToDuties expands remote events onto the duty grid. Each event is
// walked forward from its start in shift-sized steps, claiming every duty
// it covers; already-merged multi-day events thus map to several duties.
//
// Remote data is validated, not repaired: an event starting off the
// 10:00/20:00 grid or ending between boundaries fails with
// ErrInvalidScheduleData, and two events claiming the same duty fail with
// ErrConflictingEvents.
func MapEventsToDuties(events []RemoteEvent) (map[Duty]RemoteEvent, error) {
	eventByDuty := make(map[Duty]RemoteEvent)
	for _, event := range events {
		if h := event.Start.Hour(); event.Start.Minute() != 0 || (h != DayShiftStartHour && h != NightShiftStartHour) {
			return nil, fmt.Errorf("%w: start time %s on %s is not a shift start",
				ErrInvalidScheduleData, event.Start.Format("15:04"), event.Start.Format("2006-01-02"))
		}
		for ts := event.Start; ts.Before(event.End); {
			var duty Duty
			if ts.Hour() == DayShiftStartHour {
				duty = Duty{Date: DateOf(ts), Shift: ShiftDay}
			} else {
				duty = Duty{Date: DateOf(ts), Shift: ShiftNight}
			}
			if claimed, ok := eventByDuty[duty]; ok {
				return nil, fmt.Errorf("%w: %s is covered by both %q and %q",
					ErrConflictingEvents, duty, claimed.Name, event.Name)
			}
			eventByDuty[duty] = event
			_, ts = duty.Bounds()
			if ts.After(event.End) {
				return nil, fmt.Errorf("%w: end time %s on %s is not a shift boundary",
					ErrInvalidScheduleData, event.End.Format("15:04"), event.End.Format("2006-01-02"))
			}
		}
	}
	return eventByDuty, nil
}

// GroupAdjacent splits items into runs of consecutive elements for which
// adjacent reports true for every neighboring pair. Order is preserved and
// the runs share the backing array of items.
func GroupAdjacent[T any](items []T, adjacent func(a, b T) bool) [][]T {
	var runs [][]T
	start := 0
	for i := 1; i <= len(items); i++ {
		if i == len(items) || !adjacent(items[i-1], items[i]) {
			runs = append(runs, items[start:i])
			start = i
		}
	}
	return runs
}

// MergedEvent is one remote event to be created, covering a run of
// contiguous duties.
type MergedEvent struct {
	Name  string
	Start time.Time
	End   time.Time
}

// MergeDuties sorts duties by (date, shift) and collapses contiguous runs
// into single events. Two duties are contiguous exactly when the end of
// one equals the start of the next; there is no tolerance. A single-duty
// run is named "<duty>", a longer run "<first>-<last>".
func MergeDuties(duties []Duty) []MergedEvent {
	sorted := slices.Clone(duties)
	slices.SortFunc(sorted, Duty.Compare)

	runs := GroupAdjacent(sorted, func(a, b Duty) bool {
		_, aEnd := a.Bounds()
		bStart, _ := b.Bounds()
		return aEnd.Equal(bStart)
	})
	merged := make([]MergedEvent, 0, len(runs))
	for _, run := range runs {
		first, last := run[0], run[len(run)-1]
		name := first.String()
		start, end := first.Bounds()
		if len(run) > 1 {
			name += "-" + last.String()
			_, end = last.Bounds()
		}
		merged = append(merged, MergedEvent{Name: name, Start: start, End: end})
	}
	return merged
}
