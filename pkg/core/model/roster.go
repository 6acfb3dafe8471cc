package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Midwife is an on-call person: display name plus the number calls are
// forwarded to. Compared by value.
type Midwife struct {
	Name  string
	Phone string
}

// DutyRoster is the local duty→midwife assignment table over a range of
// candidate dates. It is built once per load and replaced wholesale on
// reload, never mutated while being rendered.
type DutyRoster struct {
	Dates         []time.Time
	MidwifeByDuty map[Duty]Midwife

	midwifeByName map[string]Midwife
}

// NewDutyRoster creates an empty roster for the given candidate dates.
// Dates must already be in ascending order.
func NewDutyRoster(dates []time.Time) *DutyRoster {
	return &DutyRoster{
		Dates:         dates,
		MidwifeByDuty: make(map[Duty]Midwife),
		midwifeByName: make(map[string]Midwife),
	}
}

// AddMidwife registers a midwife. Names are unique case-insensitively.
func (r *DutyRoster) AddMidwife(m Midwife) error {
	key := strings.ToLower(m.Name)
	if _, ok := r.midwifeByName[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMidwife, m.Name)
	}
	r.midwifeByName[key] = m
	return nil
}

// Add assigns a midwife to a duty. Each duty has at most one assignee.
func (r *DutyRoster) Add(m Midwife, duty Duty) error {
	if assigned, ok := r.MidwifeByDuty[duty]; ok {
		return fmt.Errorf("%w: %s is already covered by %s", ErrDuplicateAssignment, duty, assigned.Name)
	}
	r.MidwifeByDuty[duty] = m
	return nil
}

// GetMidwife looks a midwife up by name, case-insensitively.
func (r *DutyRoster) GetMidwife(name string) (Midwife, bool) {
	m, ok := r.midwifeByName[strings.ToLower(name)]
	return m, ok
}

// Midwifes returns all registered midwifes sorted by name.
func (r *DutyRoster) Midwifes() []Midwife {
	out := make([]Midwife, 0, len(r.midwifeByName))
	for _, m := range r.midwifeByName {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Check reports every duty in the date range with no assignee, ordered by
// (date, shift). An empty result means the roster is fully covered.
func (r *DutyRoster) Check() []string {
	var problems []string
	for _, date := range r.Dates {
		for _, shift := range []Shift{ShiftDay, ShiftNight} {
			duty := Duty{Date: DateOf(date), Shift: shift}
			if _, ok := r.MidwifeByDuty[duty]; !ok {
				problems = append(problems, fmt.Sprintf("nobody covers the %s shift on %s", shift, duty.Date.Format("2006-01-02")))
			}
		}
	}
	return problems
}
