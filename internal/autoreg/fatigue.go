// Package autoreg adjusts an already generated plan to the trainee's latest
// readiness check-in.
package autoreg

import (
	"math"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

// Weights of each signal family in the overall score. Missing families are
// dropped and the rest re-normalized.
const (
	SubjectiveWeight    = 0.5
	PhysiologicalWeight = 0.3
	PerformanceWeight   = 0.2
)

// Full-fatigue reference points for the objective signals.
const (
	hrvDropFull   = 20.0 // percent below baseline
	restingHRFull = 10.0 // bpm above baseline
	rpeDriftFull  = 2.0
)

// Score computes the fatigue score for a readiness signal. 0 is fresh.
func Score(sig models.ReadinessSignal) models.FatigueScore {
	var out models.FatigueScore
	var sum, weight float64

	if v, ok := subjective(sig.Subjective); ok {
		out.Subjective = &v
		sum += v * SubjectiveWeight
		weight += SubjectiveWeight
	}
	if v, ok := physiological(sig.Physiological); ok {
		out.Physiological = &v
		sum += v * PhysiologicalWeight
		weight += PhysiologicalWeight
	}
	if v, ok := performance(sig.Performance); ok {
		out.Performance = &v
		sum += v * PerformanceWeight
		weight += PerformanceWeight
	}
	if weight > 0 {
		out.Overall = sum / weight
	}
	return out
}

func subjective(s *models.Subjective) (float64, bool) {
	if s == nil {
		return 0, false
	}
	var sum float64
	n := 0
	for _, v := range []int{s.Sleep, s.Soreness, s.Stress, s.Motivation} {
		if v < 1 || v > 5 {
			continue
		}
		sum += float64(5-v) / 4
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func physiological(p *models.Physiological) (float64, bool) {
	if p == nil {
		return 0, false
	}
	var parts []float64
	if p.HRVDeltaPct != nil {
		parts = append(parts, clamp01(-*p.HRVDeltaPct/hrvDropFull))
	}
	if p.RestingHRDelta != nil {
		parts = append(parts, clamp01(*p.RestingHRDelta/restingHRFull))
	}
	return mean(parts)
}

func performance(p *models.Performance) (float64, bool) {
	if p == nil || p.RPEDrift == nil {
		return 0, false
	}
	return clamp01(*p.RPEDrift / rpeDriftFull), true
}

func mean(v []float64) (float64, bool) {
	if len(v) == 0 {
		return 0, false
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v)), true
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
