package progression

import (
	"time"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

const (
	ConfidenceIntent    = 1.0
	ConfidenceTemplate  = 0.8
	ConfidenceManual    = 0.7
	ConfidenceAnomalous = 0.3

	// LowConfidence is where the anchor stops being taken at face value.
	LowConfidence = 0.5
	// RegressionFraction flags a manual modal load below this share of the
	// latest generated session's modal load.
	RegressionFraction = 0.5
)

const (
	AnomalyUniformRPE     = "uniform_rpe_synthetic"
	AnomalyRPE10Majority  = "rpe10_majority"
	AnomalyLoadRegression = "load_regression_vs_intent"
)

// Confidence scores how far the source session can be trusted. Only manual
// sessions are checked for anomalies.
func Confidence(src models.WorkoutHistoryEntry, q []models.PerformedSet, history []models.WorkoutHistoryEntry, exerciseID string) (float64, []string) {
	switch src.Provenance {
	case models.ProvenanceIntent:
		return ConfidenceIntent, nil
	case models.ProvenanceManual:
	default:
		return ConfidenceTemplate, nil
	}

	var flags []string
	if uniformRPE(q) {
		flags = append(flags, AnomalyUniformRPE)
	}
	tens := 0
	for _, s := range q {
		if *s.RPE >= 10 {
			tens++
		}
	}
	if len(q) > 0 && tens*2 > len(q) {
		flags = append(flags, AnomalyRPE10Majority)
	}
	if ref, ok := IntentReference(history, exerciseID, src); ok && ModalLoad(q) < ref*RegressionFraction {
		flags = append(flags, AnomalyLoadRegression)
	}

	if len(flags) > 0 {
		return ConfidenceAnomalous, flags
	}
	return ConfidenceManual, nil
}

func uniformRPE(q []models.PerformedSet) bool {
	if len(q) < 2 {
		return false
	}
	first := *q[0].RPE
	for _, s := range q[1:] {
		if *s.RPE != first {
			return false
		}
	}
	return true
}

// IntentReference is the modal qualifying load from the most recent
// generated session for the exercise, other than src.
func IntentReference(history []models.WorkoutHistoryEntry, exerciseID string, src models.WorkoutHistoryEntry) (float64, bool) {
	var (
		at   time.Time
		load float64
		ok   bool
	)
	for _, h := range history {
		if h.ID == src.ID || h.Provenance != models.ProvenanceIntent || !h.Status.Performed() {
			continue
		}
		pe, found := h.Find(exerciseID)
		if !found {
			continue
		}
		q := Qualifying(pe.Sets)
		if len(q) == 0 {
			continue
		}
		if !ok || h.Date.After(at) {
			at, load, ok = h.Date, ModalLoad(q), true
		}
	}
	return load, ok
}
