package model

import (
	"fmt"
	"slices"
	"time"
)

// RemoteEvent mirrors one schedule event owned by the remote system. It is
// read-only locally; only a refresh after reconciliation replaces it.
type RemoteEvent struct {
	ID    string
	Name  string
	Start time.Time
	End   time.Time
}

// AttendantRule ties one midwife's selective forwarding rule to the
// holiday schedule holding their duty events. EventByDuty is the cached
// view of that schedule, rebuilt from remote data on every fetch.
type AttendantRule struct {
	ID           string
	ScheduleName string
	ScheduleID   string
	EventByDuty  map[Duty]RemoteEvent
}

// AutoAttendant is the single call-forwarding target at the remote
// location, with one forwarding rule per midwife.
type AutoAttendant struct {
	ID            string
	LocationID    string
	RuleByMidwife map[Midwife]AttendantRule
}

func NewAutoAttendant(id, locationID string) *AutoAttendant {
	return &AutoAttendant{
		ID:            id,
		LocationID:    locationID,
		RuleByMidwife: make(map[Midwife]AttendantRule),
	}
}

// AddRule registers a midwife's forwarding rule. At most one rule per
// midwife may exist.
func (a *AutoAttendant) AddRule(m Midwife, rule AttendantRule) error {
	if _, ok := a.RuleByMidwife[m]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, m.Name)
	}
	a.RuleByMidwife[m] = rule
	return nil
}

// ForwardingRoster projects the duty coverage of every rule into a roster
// view spanning the union of all covered dates. The view is for display
// and diffing only; mutations go through the reconciliation engine.
func (a *AutoAttendant) ForwardingRoster() (*DutyRoster, error) {
	dateSet := make(map[time.Time]struct{})
	for _, rule := range a.RuleByMidwife {
		for duty := range rule.EventByDuty {
			dateSet[duty.Date] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, time.Time.Compare)

	roster := NewDutyRoster(dates)
	for midwife, rule := range a.RuleByMidwife {
		if err := roster.AddMidwife(midwife); err != nil {
			return nil, err
		}
		for duty := range rule.EventByDuty {
			if err := roster.Add(midwife, duty); err != nil {
				return nil, err
			}
		}
	}
	return roster, nil
}
