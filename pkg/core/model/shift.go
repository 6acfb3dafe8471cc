package model

import (
	"fmt"
	"strings"
	"time"
)

// Shift start hours on the duty grid. The merge and parse logic relies on
// these exact boundaries, so they are fixed here rather than configurable.
const (
	DayShiftStartHour   = 10
	NightShiftStartHour = 20
)

// Shift identifies one of the two duty windows per calendar date.
// Day sorts before night.
type Shift int

const (
	ShiftDay Shift = iota
	ShiftNight
)

func (s Shift) String() string {
	if s == ShiftDay {
		return "day"
	}
	return "night"
}

// Letter returns the single-letter code used in duty and event names.
func (s Shift) Letter() string {
	if s == ShiftDay {
		return "D"
	}
	return "N"
}

// ParseShift accepts the full shift name or its letter code, case-insensitively.
func ParseShift(s string) (Shift, error) {
	switch strings.ToLower(s) {
	case "day", "d":
		return ShiftDay, nil
	case "night", "n":
		return ShiftNight, nil
	}
	return 0, fmt.Errorf("unknown shift %q (want day/night or D/N)", s)
}

// Duty is one fillable (date, shift) slot. The date is always midnight UTC
// so duties are comparable and usable as map keys; construct them with
// NewDuty or from DateOf.
type Duty struct {
	Date  time.Time
	Shift Shift
}

func NewDuty(year int, month time.Month, day int, shift Shift) Duty {
	return Duty{Date: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Shift: shift}
}

// DateOf normalizes t to a duty-grid date (midnight UTC).
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Compare orders duties by date, then shift.
func (d Duty) Compare(other Duty) int {
	if c := d.Date.Compare(other.Date); c != 0 {
		return c
	}
	return int(d.Shift) - int(other.Shift)
}

// Bounds returns the half-open [start, end) window covered by the duty:
// day runs 10:00-20:00 on the duty date, night 20:00-10:00 the next day.
func (d Duty) Bounds() (start, end time.Time) {
	dayStart := d.Date.Add(DayShiftStartHour * time.Hour)
	nightStart := d.Date.Add(NightShiftStartHour * time.Hour)
	if d.Shift == ShiftDay {
		return dayStart, nightStart
	}
	return nightStart, dayStart.AddDate(0, 0, 1)
}

// String renders the duty as YYYY-MM-DD plus the shift letter, the form
// used for remote event names.
func (d Duty) String() string {
	return d.Date.Format("2006-01-02") + d.Shift.Letter()
}
