package services

import (
	"slices"

	"github.com/NicoB77/ghi/pkg/core/model"
)

// ComputeDelta returns every roster assignment whose resolved assignee
// differs from the current forwarding state. Duties already forwarded to
// the same midwife are omitted, so the sync engine only sees changes to
// apply. Forwarding entries with no roster counterpart are left alone: the
// roster covers one month, the remote state may span several.
func ComputeDelta(roster, forwarding *model.DutyRoster) map[model.Duty]model.Midwife {
	delta := make(map[model.Duty]model.Midwife)
	for duty, midwife := range roster.MidwifeByDuty {
		if current, ok := forwarding.MidwifeByDuty[duty]; !ok || current != midwife {
			delta[duty] = midwife
		}
	}
	return delta
}

// SortedDuties returns the delta's duties in (date, shift) order, for
// stable presentation of planned changes.
func SortedDuties(delta map[model.Duty]model.Midwife) []model.Duty {
	duties := make([]model.Duty, 0, len(delta))
	for duty := range delta {
		duties = append(duties, duty)
	}
	slices.SortFunc(duties, model.Duty.Compare)
	return duties
}
