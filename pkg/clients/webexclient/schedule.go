package webexclient

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/NicoB77/ghi/pkg/core/model"
)

// FetchScheduleDuties reads a holiday schedule and maps its events onto
// the duty grid. Events ending before the cutoff are deleted remotely and
// skipped: they are expired forwarding windows being garbage collected.
// A zero cutoff disables the garbage collection.
func (c *Client) FetchScheduleDuties(ctx context.Context, locationID, scheduleID string, cutoff time.Time) (map[model.Duty]model.RemoteEvent, error) {
	schedulePath := fmt.Sprintf("locations/%s/schedules/holidays/%s", locationID, scheduleID)
	var resp struct {
		Events []eventJSON `json:"events"`
	}
	if err := c.get(ctx, schedulePath, &resp); err != nil {
		return nil, err
	}

	kept := make([]model.RemoteEvent, 0, len(resp.Events))
	for _, ev := range resp.Events {
		end, err := parseStamp(ev.EndDate, ev.EndTime)
		if err != nil {
			return nil, err
		}
		if !cutoff.IsZero() && end.Before(cutoff) {
			c.logger.Debug("Deleting expired forwarding event",
				zap.String("event", ev.Name),
				zap.String("schedule_id", scheduleID))
			if err := c.DeleteScheduleEvent(ctx, locationID, scheduleID, ev.ID); err != nil {
				return nil, err
			}
			continue
		}
		start, err := parseStamp(ev.StartDate, ev.StartTime)
		if err != nil {
			return nil, err
		}
		kept = append(kept, model.RemoteEvent{ID: ev.ID, Name: ev.Name, Start: start, End: end})
	}
	return model.MapEventsToDuties(kept)
}

// DeleteScheduleEvent removes one event from a holiday schedule.
func (c *Client) DeleteScheduleEvent(ctx context.Context, locationID, scheduleID, eventID string) error {
	return c.delete(ctx, fmt.Sprintf("locations/%s/schedules/holidays/%s/events/%s", locationID, scheduleID, eventID))
}

// CreateScheduleEvent adds one merged-duty event to an existing holiday
// schedule.
func (c *Client) CreateScheduleEvent(ctx context.Context, locationID, scheduleID string, event model.MergedEvent) error {
	path := fmt.Sprintf("locations/%s/schedules/holidays/%s/events", locationID, scheduleID)
	var created idJSON
	return c.post(ctx, path, eventFromMerged(event), &created)
}

// CreateHolidaySchedule creates a new holiday schedule with its initial
// events in a single call and returns the new schedule's identifier.
func (c *Client) CreateHolidaySchedule(ctx context.Context, locationID, name string, events []model.MergedEvent) (string, error) {
	payload := newSchedulePayload{Type: "holidays", Name: name, Events: make([]eventJSON, len(events))}
	for i, ev := range events {
		payload.Events[i] = eventFromMerged(ev)
	}
	var created idJSON
	if err := c.post(ctx, fmt.Sprintf("locations/%s/schedules", locationID), payload, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// CreateSelectiveRule creates an enabled selective call-forwarding rule
// for the midwife, forwarding to their number whenever the named holiday
// schedule is active, and returns the rule's identifier.
func (c *Client) CreateSelectiveRule(ctx context.Context, locationID, attendantID string, midwife model.Midwife, scheduleName string) (string, error) {
	payload := newRulePayload{
		Name:            midwife.Name,
		Enabled:         true,
		HolidaySchedule: scheduleName,
		ForwardTo:       forwardToPayload{Selection: "FORWARD_TO_SPECIFIED_NUMBER", PhoneNumber: midwife.Phone},
		CallsFrom:       callsFromPayload{Selection: "ANY"},
	}
	path := fmt.Sprintf("locations/%s/autoAttendants/%s/callForwarding/selectiveRules", locationID, attendantID)
	var created idJSON
	if err := c.post(ctx, path, payload, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}
