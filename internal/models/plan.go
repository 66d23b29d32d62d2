package models

import (
	"fmt"
	"time"
)

type PlannedSet struct {
	Index       int       `json:"index" toml:"index" yaml:"index"`
	Warmup      bool      `json:"warmup,omitempty" toml:"warmup,omitempty" yaml:"warmup,omitempty"`
	TargetReps  int       `json:"target_reps,omitempty" toml:"target_reps,omitempty" yaml:"target_reps,omitempty"`
	RepRange    *RepRange `json:"rep_range,omitempty" toml:"rep_range,omitempty" yaml:"rep_range,omitempty"`
	TargetRPE   float64   `json:"target_rpe" toml:"target_rpe" yaml:"target_rpe"`
	TargetLoad  float64   `json:"target_load" toml:"target_load" yaml:"target_load"`
	RestSeconds int       `json:"rest_seconds" toml:"rest_seconds" yaml:"rest_seconds"`
}

type PlannedExercise struct {
	ExerciseID string       `json:"exercise_id" toml:"exercise_id" yaml:"exercise_id"`
	Name       string       `json:"name" toml:"name" yaml:"name"`
	Role       ExerciseRole `json:"role" toml:"role" yaml:"role"`
	Sets       []PlannedSet `json:"sets" toml:"sets" yaml:"sets"`
}

// WorkingSetCount counts the non-warmup sets.
func (p PlannedExercise) WorkingSetCount() int {
	n := 0
	for _, s := range p.Sets {
		if !s.Warmup {
			n++
		}
	}
	return n
}

type WorkoutPlan struct {
	ID          string            `json:"id" toml:"id" yaml:"id"`
	UserID      string            `json:"user_id" toml:"user_id" yaml:"user_id"`
	Intent      SessionIntent     `json:"intent" toml:"intent" yaml:"intent"`
	GeneratedAt time.Time         `json:"generated_at" toml:"generated_at" yaml:"generated_at"`
	BlockID     string            `json:"block_id,omitempty" toml:"block_id,omitempty" yaml:"block_id,omitempty"`
	BlockWeek   int               `json:"block_week" toml:"block_week" yaml:"block_week"`
	Warmup      []PlannedExercise `json:"warmup" toml:"warmup" yaml:"warmup"`
	MainLifts   []PlannedExercise `json:"main_lifts" toml:"main_lifts" yaml:"main_lifts"`
	Accessories []PlannedExercise `json:"accessories" toml:"accessories" yaml:"accessories"`
	// AutoregulatedBy is the readiness signal id already applied to this plan.
	AutoregulatedBy string `json:"autoregulated_by,omitempty" toml:"autoregulated_by,omitempty" yaml:"autoregulated_by,omitempty"`
}

// Clone returns a deep copy so passes can modify a plan without aliasing.
func (p WorkoutPlan) Clone() WorkoutPlan {
	out := p
	out.Warmup = cloneExercises(p.Warmup)
	out.MainLifts = cloneExercises(p.MainLifts)
	out.Accessories = cloneExercises(p.Accessories)
	return out
}

func cloneExercises(in []PlannedExercise) []PlannedExercise {
	if in == nil {
		return nil
	}
	out := make([]PlannedExercise, len(in))
	for i, pe := range in {
		out[i] = pe
		out[i].Sets = append([]PlannedSet(nil), pe.Sets...)
	}
	return out
}

type DeloadMode string

const (
	DeloadNone      DeloadMode = "none"
	DeloadScheduled DeloadMode = "scheduled"
	DeloadReactive  DeloadMode = "reactive"
)

type DeloadScope string

const (
	ScopeNone      DeloadScope = "none"
	ScopeVolume    DeloadScope = "volume"
	ScopeIntensity DeloadScope = "intensity"
	ScopeBoth      DeloadScope = "both"
)

type DeloadDecision struct {
	Mode             DeloadMode  `json:"mode" yaml:"mode"`
	Reasons          []string    `json:"reasons,omitempty" yaml:"reasons,omitempty"`
	ReductionPercent float64     `json:"reduction_percent" yaml:"reduction_percent"`
	Scope            DeloadScope `json:"scope" yaml:"scope"`
}

func (d DeloadDecision) Active() bool {
	return d.Mode != DeloadNone && d.Mode != ""
}

func (d DeloadDecision) CutsIntensity() bool {
	return d.Active() && (d.Scope == ScopeIntensity || d.Scope == ScopeBoth)
}

type CycleContextSnapshot struct {
	WeekInBlock int    `json:"week_in_block" yaml:"week_in_block"`
	Phase       string `json:"phase" yaml:"phase"`
	BlockType   string `json:"block_type" yaml:"block_type"`
	IsDeload    bool   `json:"is_deload" yaml:"is_deload"`
	Source      string `json:"source" yaml:"source"`
}

// PlanState is the generated plan waiting to be performed, kept in the
// current_plan.toml file between `generate` and `complete`. Performed starts
// as a copy of the plan's working sets and is edited as sets are logged.
type PlanState struct {
	Plan      WorkoutPlan         `toml:"plan"`
	Performed []PerformedExercise `toml:"performed"`
}

// NewPlanState prefills Performed with the prescribed reps and loads.
func NewPlanState(plan WorkoutPlan) *PlanState {
	st := &PlanState{Plan: plan}
	add := func(list []PlannedExercise, main bool) {
		for _, pe := range list {
			done := PerformedExercise{ExerciseID: pe.ExerciseID, Name: pe.Name, IsMainLift: main}
			for _, s := range pe.Sets {
				if s.Warmup {
					continue
				}
				reps := s.TargetReps
				if reps == 0 && s.RepRange != nil {
					reps = s.RepRange.Min
				}
				done.Sets = append(done.Sets, PerformedSet{Index: s.Index, Reps: reps, Load: s.TargetLoad})
			}
			st.Performed = append(st.Performed, done)
		}
	}
	add(plan.MainLifts, true)
	add(plan.Accessories, false)
	return st
}

// ReplaceExercise swaps the exercise at position i of Performed, and its plan
// entry, for ex. Working sets keep their count and rest but take the new load
// and reps. Warm-ups are dropped since they were ramped to the old load.
func (st *PlanState) ReplaceExercise(i int, ex Exercise, load float64, reps int) error {
	if i < 0 || i >= len(st.Performed) {
		return fmt.Errorf("exercise index %d out of range", i+1)
	}
	oldID := st.Performed[i].ExerciseID
	if oldID != ex.ID {
		for _, pe := range st.Performed {
			if pe.ExerciseID == ex.ID {
				return fmt.Errorf("%s is already in the plan", ex.Name)
			}
		}
	}

	var planned *PlannedExercise
	for _, list := range [][]PlannedExercise{st.Plan.MainLifts, st.Plan.Accessories} {
		for j := range list {
			if list[j].ExerciseID == oldID {
				planned = &list[j]
			}
		}
	}
	if planned == nil {
		return fmt.Errorf("%s is not in the plan", oldID)
	}

	planned.ExerciseID, planned.Name = ex.ID, ex.Name
	var sets []PlannedSet
	for _, s := range planned.Sets {
		if s.Warmup {
			continue
		}
		s.TargetLoad = load
		s.TargetReps = reps
		s.RepRange = nil
		sets = append(sets, s)
	}
	planned.Sets = sets

	done := &st.Performed[i]
	done.ExerciseID, done.Name = ex.ID, ex.Name
	done.Sets = done.Sets[:0]
	for _, s := range sets {
		done.Sets = append(done.Sets, PerformedSet{Index: s.Index, Reps: reps, Load: load})
	}
	return nil
}
