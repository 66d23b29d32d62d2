package autoreg

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

// StalenessWindow is the oldest a readiness signal may be and still be used.
// A signal exactly this old is usable.
const StalenessWindow = 48 * time.Hour

// Policy thresholds and adjustments.
const (
	TrimThreshold   = 0.75
	ScaleThreshold  = 0.60
	TrimLoadFactor  = 0.90
	ScaleLoadFactor = 0.95
	RPEReduction    = 0.5
)

type ModificationKind string

const (
	ModTrimSet   ModificationKind = "trim_set"
	ModScaleLoad ModificationKind = "scale_load"
	ModLowerRPE  ModificationKind = "lower_rpe"
)

type Modification struct {
	ExerciseID string           `json:"exercise_id" yaml:"exercise_id"`
	Kind       ModificationKind `json:"kind" yaml:"kind"`
	From       float64          `json:"from" yaml:"from"`
	To         float64          `json:"to" yaml:"to"`
}

// Result is the outcome of one autoregulation pass. When Applied is false the
// plan is returned as given and Reason says why.
type Result struct {
	Applied        bool                 `json:"applied" yaml:"applied"`
	AlreadyApplied bool                 `json:"already_applied,omitempty" yaml:"already_applied,omitempty"`
	Reason         string               `json:"reason,omitempty" yaml:"reason,omitempty"`
	SignalID       string               `json:"signal_id,omitempty" yaml:"signal_id,omitempty"`
	SignalAge      time.Duration        `json:"signal_age" yaml:"signal_age"`
	Fatigue        *models.FatigueScore `json:"fatigue,omitempty" yaml:"fatigue,omitempty"`
	LoadFactor     float64              `json:"load_factor" yaml:"load_factor"`
	Modifications  []Modification       `json:"modifications" yaml:"modifications"`
	Rationale      string               `json:"rationale" yaml:"rationale"`
	Plan           models.WorkoutPlan   `json:"-" yaml:"-"`
}

// Fresh reports whether sig may be used at now. A signal dated after now is
// never fresh.
func Fresh(sig *models.ReadinessSignal, now time.Time) (time.Duration, bool) {
	if sig == nil {
		return 0, false
	}
	age := now.Sub(sig.At)
	return age, age >= 0 && age <= StalenessWindow
}

// Apply runs the readiness policy over plan. The input plan is never
// modified. Applying the same signal twice leaves the plan as after the first pass.
func Apply(plan models.WorkoutPlan, sig *models.ReadinessSignal, now time.Time, log *slog.Logger) Result {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	res := Result{Plan: plan.Clone(), LoadFactor: 1}

	if sig == nil {
		res.Reason = "no readiness signal on record"
		res.Rationale = "plan unchanged: " + res.Reason
		return res
	}
	res.SignalID = sig.ID

	age, ok := Fresh(sig, now)
	res.SignalAge = age
	when := humanize.RelTime(sig.At, now, "ago", "from now")
	if !ok {
		res.Reason = fmt.Sprintf("latest readiness signal is stale (logged %s, limit %s)", when, StalenessWindow)
		if age < 0 {
			res.Reason = fmt.Sprintf("latest readiness signal is dated %s", when)
		}
		res.Rationale = "plan unchanged: " + res.Reason
		log.Warn("skipping autoregulation", "signal", sig.ID, "age", age)
		return res
	}

	score := Score(*sig)
	res.Fatigue = &score
	res.Applied = true

	if plan.AutoregulatedBy == sig.ID {
		res.AlreadyApplied = true
		res.Rationale = fmt.Sprintf("readiness logged %s already applied to this plan", when)
		return res
	}

	switch {
	case score.Overall >= TrimThreshold:
		res.LoadFactor = TrimLoadFactor
		eachExercise(&res.Plan, func(pe *models.PlannedExercise) {
			if m, ok := trimSet(pe); ok {
				res.Modifications = append(res.Modifications, m)
			}
			res.Modifications = append(res.Modifications, scaleLoads(pe, TrimLoadFactor)...)
		})
		res.Rationale = fmt.Sprintf("readiness logged %s: fatigue %.2f >= %.2f, one set trimmed per exercise and loads x%.2f",
			when, score.Overall, TrimThreshold, TrimLoadFactor)

	case score.Overall >= ScaleThreshold:
		res.LoadFactor = ScaleLoadFactor
		eachExercise(&res.Plan, func(pe *models.PlannedExercise) {
			res.Modifications = append(res.Modifications, scaleLoads(pe, ScaleLoadFactor)...)
			res.Modifications = append(res.Modifications, lowerRPE(pe)...)
		})
		res.Rationale = fmt.Sprintf("readiness logged %s: fatigue %.2f >= %.2f, loads x%.2f and target RPE -%.1f",
			when, score.Overall, ScaleThreshold, ScaleLoadFactor, RPEReduction)

	default:
		res.Rationale = fmt.Sprintf("readiness logged %s: fatigue %.2f, no adjustment needed", when, score.Overall)
	}

	res.Plan.AutoregulatedBy = sig.ID
	log.Info("autoregulation applied", "signal", sig.ID, "fatigue", score.Overall, "modifications", len(res.Modifications))
	return res
}

// ScaledExercises lists the exercises whose load the pass changed.
func (r Result) ScaledExercises() []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range r.Modifications {
		if m.Kind == ModScaleLoad && !seen[m.ExerciseID] {
			seen[m.ExerciseID] = true
			out = append(out, m.ExerciseID)
		}
	}
	return out
}

func (r Result) Summary() string {
	if !r.Applied {
		return r.Reason
	}
	kinds := map[ModificationKind]int{}
	for _, m := range r.Modifications {
		kinds[m.Kind]++
	}
	var parts []string
	for _, k := range []ModificationKind{ModTrimSet, ModScaleLoad, ModLowerRPE} {
		if kinds[k] > 0 {
			parts = append(parts, fmt.Sprintf("%s x%d", k, kinds[k]))
		}
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ")
}

func eachExercise(plan *models.WorkoutPlan, fn func(*models.PlannedExercise)) {
	for i := range plan.MainLifts {
		fn(&plan.MainLifts[i])
	}
	for i := range plan.Accessories {
		fn(&plan.Accessories[i])
	}
}

// trimSet drops the last working set, keeping at least one.
func trimSet(pe *models.PlannedExercise) (Modification, bool) {
	n := pe.WorkingSetCount()
	if n <= 1 {
		return Modification{}, false
	}
	for i := len(pe.Sets) - 1; i >= 0; i-- {
		if !pe.Sets[i].Warmup {
			pe.Sets = append(pe.Sets[:i], pe.Sets[i+1:]...)
			break
		}
	}
	return Modification{ExerciseID: pe.ExerciseID, Kind: ModTrimSet, From: float64(n), To: float64(n - 1)}, true
}

func scaleLoads(pe *models.PlannedExercise, factor float64) []Modification {
	var from, to float64
	for i := range pe.Sets {
		s := &pe.Sets[i]
		if s.TargetLoad <= 0 {
			continue
		}
		if !s.Warmup && from == 0 {
			from = s.TargetLoad
		}
		s.TargetLoad = math.Round(s.TargetLoad*factor*100) / 100
		if !s.Warmup && to == 0 {
			to = s.TargetLoad
		}
	}
	if from == 0 {
		return nil
	}
	return []Modification{{ExerciseID: pe.ExerciseID, Kind: ModScaleLoad, From: from, To: to}}
}

func lowerRPE(pe *models.PlannedExercise) []Modification {
	var from, to float64
	for i := range pe.Sets {
		s := &pe.Sets[i]
		if s.Warmup || s.TargetRPE <= 0 {
			continue
		}
		if from == 0 {
			from = s.TargetRPE
		}
		s.TargetRPE = math.Max(5, s.TargetRPE-RPEReduction)
		if to == 0 {
			to = s.TargetRPE
		}
	}
	if from == 0 {
		return nil
	}
	return []Modification{{ExerciseID: pe.ExerciseID, Kind: ModLowerRPE, From: from, To: to}}
}
