package selection

import (
	"math"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

// rotationNovelty favors exercises that have rested for a while or stopped
// progressing. Never-used exercises score 1.
func rotationNovelty(exposure map[string]models.ExerciseExposure, name string) float64 {
	exp, ok := exposure[name]
	if !ok {
		return 1
	}
	recency := math.Min(1, exp.WeeksSinceUse/4)
	usage := 1 - math.Min(1, float64(exp.UsageCount4Wk)/4)
	score := 0.6*recency + 0.4*usage
	if exp.Trend == models.TrendStalled || exp.Trend == models.TrendDeclining {
		score += 0.15
	}
	return clamp01(score)
}

// unitScale maps a 1-5 library rating onto 0-1. Unrated is neutral.
func unitScale(v float64) float64 {
	if v <= 0 {
		return 0.5
	}
	return clamp01((v - 1) / 4)
}

func sraReadiness(sra map[models.Muscle]float64, ex models.Exercise) float64 {
	primary := ex.PrimaryMuscles()
	if len(primary) == 0 {
		return 1
	}
	var sum float64
	for _, m := range primary {
		v, ok := sra[m]
		if !ok {
			v = 1
		}
		sum += v
	}
	return sum / float64(len(primary))
}

// diversity is the share of the exercise's movement patterns not yet in the
// selection, with a small floor so repeats are not zeroed out.
func diversity(ex models.Exercise, have map[string]bool) float64 {
	if len(ex.MovementPatterns) == 0 {
		return 0.5
	}
	fresh := 0
	for _, p := range ex.MovementPatterns {
		if !have[p] {
			fresh++
		}
	}
	if fresh == 0 {
		return 0.3
	}
	return 0.3 + 0.7*float64(fresh)/float64(len(ex.MovementPatterns))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
