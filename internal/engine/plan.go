package engine

import (
	"math"

	"github.com/google/uuid"
	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/progression"
	"github.com/misterclayt0n/mesocoach/internal/utils"
)

const (
	MainLiftRestSeconds  = 180
	AccessoryRestSeconds = 90
)

// Warm-up ramp for main lifts, as fractions of the first working load.
var warmupRamp = []struct {
	fraction float64
	reps     int
}{
	{0.5, 5},
	{0.7, 3},
}

var newPlanID = func() string { return uuid.New().String() }

func plannedExercise(ex models.Exercise, role models.ExerciseRole, sets int, r progression.Receipt, rpe float64) models.PlannedExercise {
	rest := AccessoryRestSeconds
	if role != models.RoleAccessory {
		rest = MainLiftRestSeconds
	}
	var rr *models.RepRange
	if ex.RepRange.Max > 0 {
		rr = &models.RepRange{Min: ex.RepRange.Min, Max: ex.RepRange.Max}
	}

	pe := models.PlannedExercise{ExerciseID: ex.ID, Name: ex.Name, Role: role}
	for i := 1; i <= sets; i++ {
		pe.Sets = append(pe.Sets, models.PlannedSet{
			Index:       i,
			TargetReps:  r.TargetReps,
			RepRange:    rr,
			TargetRPE:   rpe,
			TargetLoad:  r.TargetLoad,
			RestSeconds: rest,
		})
	}
	return pe
}

// reducedSets cuts a set count by pct percent, keeping at least one set.
func reducedSets(sets int, pct float64) int {
	return max(1, int(math.Round(float64(sets)*(1-pct/100))))
}

// warmups builds the ramp-up sets for each loaded main lift from its final
// (post-autoregulation) working load.
func warmups(mains []models.PlannedExercise, library map[string]models.Exercise) []models.PlannedExercise {
	var out []models.PlannedExercise
	for _, pe := range mains {
		var load float64
		for _, s := range pe.Sets {
			if !s.Warmup {
				load = s.TargetLoad
				break
			}
		}
		if load <= 0 {
			continue
		}
		step := progression.Increment(library[pe.ExerciseID])

		w := models.PlannedExercise{ExerciseID: pe.ExerciseID, Name: pe.Name, Role: pe.Role}
		for i, r := range warmupRamp {
			w.Sets = append(w.Sets, models.PlannedSet{
				Index:       i + 1,
				Warmup:      true,
				TargetReps:  r.reps,
				TargetLoad:  utils.RoundToStep(load*r.fraction, step),
				RestSeconds: AccessoryRestSeconds,
			})
		}
		out = append(out, w)
	}
	return out
}

// prescribedDirect counts the plan's working sets against each primary muscle.
func prescribedDirect(plan models.WorkoutPlan, library map[string]models.Exercise) map[models.Muscle]float64 {
	out := map[models.Muscle]float64{}
	for _, list := range [][]models.PlannedExercise{plan.MainLifts, plan.Accessories} {
		for _, pe := range list {
			n := float64(pe.WorkingSetCount())
			for _, m := range library[pe.ExerciseID].PrimaryMuscles() {
				out[m] += n
			}
		}
	}
	return out
}
