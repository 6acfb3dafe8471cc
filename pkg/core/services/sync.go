package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/NicoB77/ghi/pkg/core/model"
)

// ForwardingAPI is the slice of the remote client the reconciliation
// engine needs. webexclient.Client satisfies it.
type ForwardingAPI interface {
	DeleteScheduleEvent(ctx context.Context, locationID, scheduleID, eventID string) error
	CreateScheduleEvent(ctx context.Context, locationID, scheduleID string, event model.MergedEvent) error
	CreateHolidaySchedule(ctx context.Context, locationID, name string, events []model.MergedEvent) (string, error)
	CreateSelectiveRule(ctx context.Context, locationID, attendantID string, midwife model.Midwife, scheduleName string) (string, error)
	FetchScheduleDuties(ctx context.Context, locationID, scheduleID string, cutoff time.Time) (map[model.Duty]model.RemoteEvent, error)
}

// SyncForwardings reconciles the remote forwarding configuration with the
// desired assignment changes. The input contains only duties whose
// assignee actually changes (see ComputeDelta); the engine trusts it.
//
// For every existing event touching a changed duty, the whole event is
// deleted and its unchanged residue re-created, so previously merged
// multi-day events are split correctly around the change. Deletions are
// issued before any creation. Contiguous duties per midwife become a
// single event. Midwifes without a forwarding rule get a fresh holiday
// schedule and selective rule, at most one per pass. Afterwards every
// rule's event map is re-fetched from the remote system.
//
// Any remote failure aborts the pass; the caller re-runs from a fresh
// parse, there is no compensation.
func SyncForwardings(ctx context.Context, api ForwardingAPI, attendant *model.AutoAttendant, desired map[model.Duty]model.Midwife, logger *zap.Logger) error {
	if len(desired) == 0 {
		logger.Info("Forwarding state already matches, nothing to do")
		return nil
	}
	logger.Info("Reconciling forwarding state", zap.Int("changed_duties", len(desired)))

	removeByMidwife := make(map[model.Midwife][]string)
	newDutiesByMidwife := make(map[model.Midwife][]model.Duty)

	for midwife, rule := range attendant.RuleByMidwife {
		dutiesByEvent := make(map[string][]model.Duty)
		for duty, event := range rule.EventByDuty {
			dutiesByEvent[event.ID] = append(dutiesByEvent[event.ID], duty)
		}
		for eventID, covered := range dutiesByEvent {
			if !anyChanged(covered, desired) {
				continue
			}
			// The whole event goes; its unchanged duties must come back.
			removeByMidwife[midwife] = append(removeByMidwife[midwife], eventID)
			for _, duty := range covered {
				if _, ok := desired[duty]; !ok {
					newDutiesByMidwife[midwife] = append(newDutiesByMidwife[midwife], duty)
				}
			}
		}
	}
	for duty, midwife := range desired {
		newDutiesByMidwife[midwife] = append(newDutiesByMidwife[midwife], duty)
	}

	// Deletions strictly before creations, so re-created windows never
	// overlap events that are about to go.
	for midwife, eventIDs := range removeByMidwife {
		rule := attendant.RuleByMidwife[midwife]
		for _, eventID := range eventIDs {
			logger.Debug("Deleting forwarding event",
				zap.String("midwife", midwife.Name),
				zap.String("event_id", eventID))
			if err := api.DeleteScheduleEvent(ctx, attendant.LocationID, rule.ScheduleID, eventID); err != nil {
				return fmt.Errorf("failed to delete event for %s: %w", midwife.Name, err)
			}
		}
	}

	for midwife, duties := range newDutiesByMidwife {
		events := model.MergeDuties(duties)
		if rule, ok := attendant.RuleByMidwife[midwife]; ok {
			for _, event := range events {
				logger.Debug("Creating forwarding event",
					zap.String("midwife", midwife.Name),
					zap.String("event", event.Name))
				if err := api.CreateScheduleEvent(ctx, attendant.LocationID, rule.ScheduleID, event); err != nil {
					return fmt.Errorf("failed to create event %s for %s: %w", event.Name, midwife.Name, err)
				}
			}
			continue
		}

		logger.Info("Creating schedule and forwarding rule", zap.String("midwife", midwife.Name))
		scheduleID, err := api.CreateHolidaySchedule(ctx, attendant.LocationID, midwife.Name, events)
		if err != nil {
			return fmt.Errorf("failed to create schedule for %s: %w", midwife.Name, err)
		}
		ruleID, err := api.CreateSelectiveRule(ctx, attendant.LocationID, attendant.ID, midwife, midwife.Name)
		if err != nil {
			return fmt.Errorf("failed to create forwarding rule for %s: %w", midwife.Name, err)
		}
		err = attendant.AddRule(midwife, model.AttendantRule{
			ID:           ruleID,
			ScheduleName: midwife.Name,
			ScheduleID:   scheduleID,
			EventByDuty:  make(map[model.Duty]model.RemoteEvent),
		})
		if err != nil {
			return err
		}
	}

	// Refresh from the remote system; the locally synthesized event shape
	// is never trusted as ground truth after a mutation.
	for midwife, rule := range attendant.RuleByMidwife {
		eventByDuty, err := api.FetchScheduleDuties(ctx, attendant.LocationID, rule.ScheduleID, time.Time{})
		if err != nil {
			return fmt.Errorf("failed to refresh schedule for %s: %w", midwife.Name, err)
		}
		rule.EventByDuty = eventByDuty
		attendant.RuleByMidwife[midwife] = rule
	}

	logger.Info("Forwarding state reconciled")
	return nil
}

func anyChanged(duties []model.Duty, desired map[model.Duty]model.Midwife) bool {
	for _, duty := range duties {
		if _, ok := desired[duty]; ok {
			return true
		}
	}
	return false
}
