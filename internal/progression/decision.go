package progression

import (
	"fmt"
	"math"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/utils"
)

type Trigger string

const (
	TriggerDoubleProgression Trigger = "double_progression"
	TriggerHold              Trigger = "hold"
	TriggerDeload            Trigger = "deload"
	TriggerReadinessScale    Trigger = "readiness_scale"
	// TriggerInsufficientData: a session exists but none of its sets qualify.
	TriggerInsufficientData Trigger = "insufficient_data"
	// TriggerNoHistory: no performed session inside the recency window.
	TriggerNoHistory Trigger = "no_history"
)

// Receipt explains one exercise's progression decision.
type Receipt struct {
	ExerciseID      string            `json:"exercise_id" yaml:"exercise_id"`
	ExerciseName    string            `json:"exercise_name" yaml:"exercise_name"`
	Trigger         Trigger           `json:"trigger" yaml:"trigger"`
	SourceSessionID string            `json:"source_session_id,omitempty" yaml:"source_session_id,omitempty"`
	SourceDate      time.Time         `json:"source_date,omitempty" yaml:"source_date,omitempty"`
	Provenance      models.Provenance `json:"provenance,omitempty" yaml:"provenance,omitempty"`
	Confidence      float64           `json:"confidence" yaml:"confidence"`
	Anomalies       []string          `json:"anomalies,omitempty" yaml:"anomalies,omitempty"`
	AnchorLoad      float64           `json:"anchor_load" yaml:"anchor_load"`
	PriorReps       int               `json:"prior_reps" yaml:"prior_reps"`
	TargetLoad      float64           `json:"target_load" yaml:"target_load"`
	TargetReps      int               `json:"target_reps" yaml:"target_reps"`
	LoadDelta       float64           `json:"load_delta" yaml:"load_delta"`
	RepDelta        int               `json:"rep_delta" yaml:"rep_delta"`
	Trace           []string          `json:"trace" yaml:"trace"`
}

func (r *Receipt) note(format string, args ...any) {
	r.Trace = append(r.Trace, fmt.Sprintf(format, args...))
}

func (r *Receipt) settle() {
	r.LoadDelta = r.TargetLoad - r.AnchorLoad
	r.RepDelta = r.TargetReps - r.PriorReps
}

// Input is what Decide needs for one exercise.
type Input struct {
	Exercise models.Exercise
	MainLift bool
	History  []models.WorkoutHistoryEntry
	Deload   models.DeloadDecision
	Now      time.Time
	Window   time.Duration
}

// Decide resolves the next load and rep target for one exercise.
func Decide(in Input) Receipt {
	ex := in.Exercise
	r := Receipt{ExerciseID: ex.ID, ExerciseName: ex.Name}
	repMin, repMax := repBounds(ex.RepRange)

	src, pe, ok := LatestSession(in.History, ex.ID, in.Now, in.Window)
	if !ok {
		r.Trigger = TriggerNoHistory
		r.TargetLoad = DefaultLoad(ex)
		r.TargetReps = repMin
		r.note("no performed session in the recency window")
		r.note("default load %.1f from equipment", r.TargetLoad)
		r.settle()
		return r
	}

	r.SourceSessionID = src.ID
	r.SourceDate = src.Date
	r.Provenance = src.Provenance
	r.note("source session %s on %s (%s)", src.ID, src.Date.Format("2006-01-02"), src.Provenance)

	q := Qualifying(pe.Sets)
	if len(q) == 0 {
		r.Trigger = TriggerInsufficientData
		r.AnchorLoad = heaviestWorking(pe)
		r.TargetLoad = r.AnchorLoad
		if r.TargetLoad == 0 {
			r.TargetLoad = DefaultLoad(ex)
		}
		r.TargetReps = repMin
		r.note("no qualifying sets (RPE >= %.0f, not skipped)", MinQualifyingRPE)
		r.note("holding at %.1f", r.TargetLoad)
		r.settle()
		return r
	}
	r.note("%d qualifying sets", len(q))

	anchor := Anchor(q, in.MainLift)
	if in.MainLift {
		r.note("main lift: anchored on top set %.1f", anchor)
	} else {
		r.note("accessory: anchored on modal load %.1f", anchor)
	}
	r.AnchorLoad = anchor
	r.PriorReps = priorReps(q, in.MainLift)

	r.Confidence, r.Anomalies = Confidence(src, q, in.History, ex.ID)
	r.note("confidence %.2f", r.Confidence)
	for _, a := range r.Anomalies {
		r.note("anomaly: %s", a)
	}

	step := Increment(ex)
	trusted := r.Confidence >= LowConfidence
	if !trusted {
		if ref, ok := IntentReference(in.History, ex.ID, src); ok {
			blended := r.Confidence*anchor + (1-r.Confidence)*ref
			anchor = utils.RoundToStep(blended, step)
			r.note("low confidence: blended toward generated-session load %.1f -> %.1f", ref, anchor)
		} else {
			r.note("low confidence: no generated-session reference, keeping anchor")
		}
	}

	switch {
	case in.Deload.Active():
		r.Trigger = TriggerDeload
		r.TargetLoad = anchor
		if in.Deload.CutsIntensity() {
			r.TargetLoad = utils.RoundToStep(anchor*(1-in.Deload.ReductionPercent/100), step)
		}
		r.TargetReps = clampReps(r.PriorReps, repMin, repMax)
		r.note("%s deload (%s, %.0f%%) overrides progression", in.Deload.Mode, in.Deload.Scope, in.Deload.ReductionPercent)

	case trusted && repMax > 0 && allReached(q, repMax):
		r.Trigger = TriggerDoubleProgression
		if anchor == 0 && DefaultLoad(ex) == 0 {
			r.TargetLoad = 0
			r.TargetReps = r.PriorReps + 1
			r.note("every set reached %d reps; unloaded, adding a rep", repMax)
		} else {
			r.TargetLoad = utils.RoundToStep(anchor+step, step)
			r.TargetReps = repMin
			r.note("every set reached %d reps; load +%.1f", repMax, step)
		}

	default:
		r.Trigger = TriggerHold
		r.TargetLoad = anchor
		r.TargetReps = clampReps(r.PriorReps+1, repMin, repMax)
		if trusted {
			r.note("rep target %d not met on every set; holding load", repMax)
		} else {
			r.note("holding load until a trusted session is logged")
		}
	}

	r.settle()
	return r
}

// MarkReadinessScaled re-tags a receipt after autoregulation scaled the load.
func MarkReadinessScaled(r *Receipt, factor float64, reason string) {
	r.Trigger = TriggerReadinessScale
	r.TargetLoad = math.Round(r.TargetLoad*factor*100) / 100
	r.note("readiness scale x%.2f: %s", factor, reason)
	r.settle()
}

func repBounds(rr models.RepRange) (int, int) {
	lo, hi := rr.Min, rr.Max
	if lo <= 0 {
		lo = 8
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func clampReps(n, lo, hi int) int {
	return max(lo, min(n, hi))
}

func allReached(q []models.PerformedSet, target int) bool {
	for _, s := range q {
		if s.Reps < target {
			return false
		}
	}
	return true
}

// priorReps is the rep count the next target builds on: the top set for main
// lifts, the weakest qualifying set otherwise.
func priorReps(q []models.PerformedSet, mainLift bool) int {
	if mainLift {
		return q[0].Reps
	}
	reps := q[0].Reps
	for _, s := range q[1:] {
		reps = min(reps, s.Reps)
	}
	return reps
}

func heaviestWorking(pe models.PerformedExercise) float64 {
	var load float64
	for _, s := range pe.WorkingSets() {
		load = math.Max(load, s.Load)
	}
	return load
}
