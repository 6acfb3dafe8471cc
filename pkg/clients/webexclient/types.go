package webexclient

import (
	"fmt"
	"time"

	"github.com/NicoB77/ghi/pkg/core/model"
)

// Wire representations of the Webex telephony config objects, limited to
// the fields this tool consumes. Dates are YYYY-MM-DD, times HH:MM.

const (
	stampLayout = "2006-01-02 15:04"
	dateLayout  = "2006-01-02"
	timeLayout  = "15:04"
)

type attendantJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	LocationID string `json:"locationId"`
}

type scheduleJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type eventJSON struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	StartTime string `json:"startTime"`
	EndDate   string `json:"endDate"`
	EndTime   string `json:"endTime"`
}

// ruleJSON is a rule as listed under callForwarding; forwardTo is the bare
// destination number there.
type ruleJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Enabled   bool   `json:"enabled"`
	ForwardTo string `json:"forwardTo"`
}

type selectiveRuleDetailJSON struct {
	HolidaySchedule string `json:"holidaySchedule"`
}

// newRulePayload is the create body for a selective forwarding rule, where
// forwardTo is structured.
type newRulePayload struct {
	Name            string           `json:"name"`
	Enabled         bool             `json:"enabled"`
	HolidaySchedule string           `json:"holidaySchedule"`
	ForwardTo       forwardToPayload `json:"forwardTo"`
	CallsFrom       callsFromPayload `json:"callsFrom"`
}

type forwardToPayload struct {
	Selection   string `json:"selection"`
	PhoneNumber string `json:"phoneNumber"`
}

type callsFromPayload struct {
	Selection string `json:"selection"`
}

type newSchedulePayload struct {
	Type   string      `json:"type"`
	Name   string      `json:"name"`
	Events []eventJSON `json:"events"`
}

type idJSON struct {
	ID string `json:"id"`
}

// eventFromMerged renders a merged duty run in the wire format.
func eventFromMerged(m model.MergedEvent) eventJSON {
	return eventJSON{
		Name:      m.Name,
		StartDate: m.Start.Format(dateLayout),
		StartTime: m.Start.Format(timeLayout),
		EndDate:   m.End.Format(dateLayout),
		EndTime:   m.End.Format(timeLayout),
	}
}

func parseStamp(date, clock string) (time.Time, error) {
	ts, err := time.Parse(stampLayout, date+" "+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q %q", model.ErrInvalidScheduleData, date, clock)
	}
	return ts, nil
}
