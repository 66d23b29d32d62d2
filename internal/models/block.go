package models

import "time"

type BlockState string

const (
	BlockAccumulating BlockState = "accumulating"
	BlockDeloading    BlockState = "deloading"
	BlockCompleted    BlockState = "completed"
)

// RIRBand is an inclusive reps-in-reserve range.
type RIRBand struct {
	Min int `json:"min" toml:"min"`
	Max int `json:"max" toml:"max"`
}

type ExerciseRole string

const (
	RoleCoreCompound ExerciseRole = "core_compound"
	RoleMainLift     ExerciseRole = "main_lift"
	RoleAccessory    ExerciseRole = "accessory"
)

// RoleAssignment pins an exercise to a role for a given session intent.
type RoleAssignment struct {
	ExerciseID string        `json:"exercise_id" toml:"exercise_id"`
	Intent     SessionIntent `json:"intent" toml:"intent"`
	Role       ExerciseRole  `json:"role" toml:"role"`
}

// TrainingBlock is one mesocycle. Only the lifecycle package mutates State and
// the session counters.
type TrainingBlock struct {
	ID                            string           `json:"id"`
	UserID                        string           `json:"user_id"`
	Number                        int              `json:"number"`
	State                         BlockState       `json:"state"`
	AccumulationSessionsCompleted int              `json:"accumulation_sessions_completed"`
	DeloadSessionsCompleted       int              `json:"deload_sessions_completed"`
	SessionsPerWeek               int              `json:"sessions_per_week"`
	DurationWeeks                 int              `json:"duration_weeks"`
	RIRBands                      map[int]RIRBand  `json:"rir_bands,omitempty"`
	CoreRoles                     []RoleAssignment `json:"core_roles,omitempty"`
	StartedAt                     time.Time        `json:"started_at"`
}

// Landmark holds weekly set landmarks for one muscle.
type Landmark struct {
	MEV      int `json:"mev" toml:"mev"`
	MAV      int `json:"mav" toml:"mav"`
	MRV      int `json:"mrv" toml:"mrv"`
	SRAHours int `json:"sra_hours" toml:"sra_hours"`
}
