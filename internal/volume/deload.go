package volume

import (
	"fmt"
	"sort"

	"github.com/misterclayt0n/mesocoach/internal/lifecycle"
	"github.com/misterclayt0n/mesocoach/internal/models"
)

const (
	// MRVPressureFraction is the share of MRV at which a muscle counts as saturated.
	MRVPressureFraction = 0.85
	// MinSaturatedMuscles saturated muscles are needed to recommend a deload.
	MinSaturatedMuscles = 2

	ReactiveFatigueThreshold = 0.85

	scheduledReduction = 55
	reactiveReduction  = 30
)

// DeloadReadiness is the MRV pressure check. Recommended alone means deload
// at block end; Urgent means deload now.
type DeloadReadiness struct {
	Recommended bool            `json:"recommended" yaml:"recommended"`
	Urgent      bool            `json:"urgent" yaml:"urgent"`
	Saturated   []models.Muscle `json:"saturated,omitempty" yaml:"saturated,omitempty"`
}

// CheckDeloadReadiness flags a deload when enough muscles sit near MRV.
// finalWeek marks the block's last scheduled accumulation week.
func CheckDeloadReadiness(effective map[models.Muscle]float64, lms *Landmarks, finalWeek bool) DeloadReadiness {
	var saturated []models.Muscle
	for m, sets := range effective {
		if !lms.Known(m) {
			continue
		}
		mrv := lms.Lookup(m).MRV
		if mrv <= 0 {
			continue
		}
		if sets >= MRVPressureFraction*float64(mrv) {
			saturated = append(saturated, m)
		}
	}
	sort.Slice(saturated, func(i, j int) bool { return saturated[i] < saturated[j] })

	r := DeloadReadiness{Saturated: saturated}
	r.Recommended = len(saturated) >= MinSaturatedMuscles
	r.Urgent = r.Recommended && finalWeek
	return r
}

// DecideDeload merges the scheduled lifecycle deload with reactive signals.
// fatigue may be nil when no fresh readiness signal exists.
func DecideDeload(block models.TrainingBlock, readiness DeloadReadiness, fatigue *float64) models.DeloadDecision {
	if lifecycle.IsDeload(block) {
		return models.DeloadDecision{
			Mode:             models.DeloadScheduled,
			Reasons:          []string{fmt.Sprintf("block %d is in its deload week", block.Number)},
			ReductionPercent: scheduledReduction,
			Scope:            models.ScopeVolume,
		}
	}

	var reasons []string
	if readiness.Urgent {
		reasons = append(reasons, fmt.Sprintf("%d muscles at or above %.0f%% of MRV in the final accumulation week",
			len(readiness.Saturated), MRVPressureFraction*100))
	}
	if fatigue != nil && *fatigue >= ReactiveFatigueThreshold {
		reasons = append(reasons, fmt.Sprintf("fatigue score %.2f at or above %.2f", *fatigue, ReactiveFatigueThreshold))
	}
	if len(reasons) == 0 {
		return models.DeloadDecision{Mode: models.DeloadNone, Scope: models.ScopeNone}
	}
	return models.DeloadDecision{
		Mode:             models.DeloadReactive,
		Reasons:          reasons,
		ReductionPercent: reactiveReduction,
		Scope:            models.ScopeBoth,
	}
}
