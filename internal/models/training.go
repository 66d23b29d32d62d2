package models

import "time"

type SessionStatus string

const (
	StatusCompleted SessionStatus = "completed"
	StatusPartial   SessionStatus = "partial"
	StatusSkipped   SessionStatus = "skipped"
	StatusPlanned   SessionStatus = "planned"
)

// Performed reports whether the session counts as training that happened.
func (s SessionStatus) Performed() bool {
	return s == StatusCompleted || s == StatusPartial
}

// Provenance records who produced a session's numbers.
type Provenance string

const (
	ProvenanceIntent   Provenance = "intent"
	ProvenanceTemplate Provenance = "template"
	ProvenanceManual   Provenance = "manual"
)

type PerformedSet struct {
	Index   int      `json:"index" toml:"index"`
	Reps    int      `json:"reps" toml:"reps"`
	Load    float64  `json:"load" toml:"load"`
	RPE     *float64 `json:"rpe,omitempty" toml:"rpe,omitempty"`
	Skipped bool     `json:"skipped,omitempty" toml:"skipped,omitempty"`
}

type PerformedExercise struct {
	ExerciseID string         `json:"exercise_id" toml:"exercise_id"`
	Name       string         `json:"name" toml:"name"`
	IsMainLift bool           `json:"is_main_lift" toml:"is_main_lift"`
	Sets       []PerformedSet `json:"sets" toml:"sets"`
}

// WorkingSets returns the sets that were not skipped.
func (p PerformedExercise) WorkingSets() []PerformedSet {
	var out []PerformedSet
	for _, s := range p.Sets {
		if !s.Skipped {
			out = append(out, s)
		}
	}
	return out
}

type WorkoutHistoryEntry struct {
	ID         string              `json:"id"`
	UserID     string              `json:"user_id"`
	Date       time.Time           `json:"date"`
	Status     SessionStatus       `json:"status"`
	Intent     SessionIntent       `json:"intent"`
	Provenance Provenance          `json:"provenance"`
	BlockID    string              `json:"block_id,omitempty"`
	BlockWeek  int                 `json:"block_week,omitempty"`
	Exercises  []PerformedExercise `json:"exercises"`
}

func (w WorkoutHistoryEntry) Find(exerciseID string) (PerformedExercise, bool) {
	for _, pe := range w.Exercises {
		if pe.ExerciseID == exerciseID {
			return pe, true
		}
	}
	return PerformedExercise{}, false
}

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStalled   Trend = "stalled"
	TrendDeclining Trend = "declining"
)

// ExerciseExposure summarizes how often and how well an exercise has been trained.
type ExerciseExposure struct {
	ExerciseName   string    `json:"exercise_name"`
	LastUsed       time.Time `json:"last_used"`
	WeeksSinceUse  float64   `json:"weeks_since_use"`
	UsageCount4Wk  int       `json:"usage_count_4wk"`
	UsageCount8Wk  int       `json:"usage_count_8wk"`
	UsageCount12Wk int       `json:"usage_count_12wk"`
	Trend          Trend     `json:"trend"`
}
