package webexclient

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/NicoB77/ghi/pkg/core/model"
)

// GetAutoAttendant discovers the single auto attendant at the remote
// deployment and loads one AttendantRule per enabled selective forwarding
// rule, with the rule's holiday schedule expanded onto the duty grid.
// Anything other than exactly one attendant fails with
// model.ErrAmbiguousAttendant.
func (c *Client) GetAutoAttendant(ctx context.Context, cutoff time.Time) (*model.AutoAttendant, error) {
	var listResp struct {
		AutoAttendants []attendantJSON `json:"autoAttendants"`
	}
	if err := c.get(ctx, "autoAttendants", &listResp); err != nil {
		return nil, err
	}
	if len(listResp.AutoAttendants) != 1 {
		return nil, fmt.Errorf("%w: found %d", model.ErrAmbiguousAttendant, len(listResp.AutoAttendants))
	}
	attendant := model.NewAutoAttendant(listResp.AutoAttendants[0].ID, listResp.AutoAttendants[0].LocationID)
	c.logger.Debug("Auto attendant discovered",
		zap.String("attendant_id", attendant.ID),
		zap.String("location_id", attendant.LocationID))

	var schedulesResp struct {
		Schedules []scheduleJSON `json:"schedules"`
	}
	if err := c.get(ctx, fmt.Sprintf("locations/%s/schedules", attendant.LocationID), &schedulesResp); err != nil {
		return nil, err
	}
	scheduleIDByName := make(map[string]string)
	for _, schedule := range schedulesResp.Schedules {
		if schedule.Type == "holidays" {
			scheduleIDByName[schedule.Name] = schedule.ID
		}
	}

	var forwardingResp struct {
		CallForwarding struct {
			Rules []ruleJSON `json:"rules"`
		} `json:"callForwarding"`
	}
	forwardingPath := fmt.Sprintf("locations/%s/autoAttendants/%s/callForwarding", attendant.LocationID, attendant.ID)
	if err := c.get(ctx, forwardingPath, &forwardingResp); err != nil {
		return nil, err
	}

	for _, rule := range forwardingResp.CallForwarding.Rules {
		if !rule.Enabled {
			continue
		}
		if err := c.loadRule(ctx, attendant, scheduleIDByName, rule, cutoff); err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
	}
	return attendant, nil
}

func (c *Client) loadRule(ctx context.Context, attendant *model.AutoAttendant, scheduleIDByName map[string]string, rule ruleJSON, cutoff time.Time) error {
	var detail selectiveRuleDetailJSON
	detailPath := fmt.Sprintf("locations/%s/autoAttendants/%s/callForwarding/selectiveRules/%s",
		attendant.LocationID, attendant.ID, rule.ID)
	if err := c.get(ctx, detailPath, &detail); err != nil {
		return err
	}
	scheduleID, ok := scheduleIDByName[detail.HolidaySchedule]
	if !ok {
		return fmt.Errorf("%w: references unknown holiday schedule %q", model.ErrInvalidScheduleData, detail.HolidaySchedule)
	}
	eventByDuty, err := c.FetchScheduleDuties(ctx, attendant.LocationID, scheduleID, cutoff)
	if err != nil {
		return err
	}
	return attendant.AddRule(
		model.Midwife{Name: rule.Name, Phone: rule.ForwardTo},
		model.AttendantRule{
			ID:           rule.ID,
			ScheduleName: detail.HolidaySchedule,
			ScheduleID:   scheduleID,
			EventByDuty:  eventByDuty,
		},
	)
}
