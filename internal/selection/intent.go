package selection

import (
	"sort"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

var pushMuscles = []models.Muscle{
	models.MuscleChest, models.MuscleFrontDelts, models.MuscleSideDelts, models.MuscleTriceps,
}

var pullMuscles = []models.Muscle{
	models.MuscleLats, models.MuscleUpperBack, models.MuscleRearDelts, models.MuscleBiceps, models.MuscleForearms,
}

var legMuscles = []models.Muscle{
	models.MuscleQuads, models.MuscleHamstrings, models.MuscleGlutes, models.MuscleCalves, models.MuscleAdductors,
}

// IntentMuscles lists the muscles a session intent is responsible for.
// bodyParts is only read for IntentBodyPart.
func IntentMuscles(intent models.SessionIntent, bodyParts []models.Muscle) []models.Muscle {
	var out []models.Muscle
	switch intent {
	case models.IntentPush:
		out = append(out, pushMuscles...)
	case models.IntentPull:
		out = append(out, pullMuscles...)
	case models.IntentLegs:
		out = append(out, legMuscles...)
	case models.IntentUpper:
		out = append(append(out, pushMuscles...), pullMuscles...)
	case models.IntentLower:
		out = append(append(out, legMuscles...), models.MuscleLowerBack, models.MuscleCore)
	case models.IntentBodyPart:
		out = append(out, bodyParts...)
	default:
		out = append(append(append(out, pushMuscles...), pullMuscles...), legMuscles...)
		out = append(out, models.MuscleCore)
	}
	return dedupeMuscles(out)
}

func dedupeMuscles(in []models.Muscle) []models.Muscle {
	seen := make(map[models.Muscle]bool, len(in))
	var out []models.Muscle
	for _, m := range in {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// relevant reports whether an exercise belongs in an intent's pool: it must
// train one of the muscles directly or carry the intent as a split tag.
func relevant(ex models.Exercise, intent models.SessionIntent, muscles map[models.Muscle]bool) bool {
	for _, tag := range ex.SplitTags {
		if tag == intent {
			return true
		}
	}
	for _, m := range ex.PrimaryMuscles() {
		if muscles[m] {
			return true
		}
	}
	return false
}
