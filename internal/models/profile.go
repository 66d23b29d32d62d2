package models

type Goal string

const (
	GoalStrength     Goal = "strength"
	GoalPowerlifting Goal = "powerlifting"
	GoalHypertrophy  Goal = "hypertrophy"
	GoalGeneral      Goal = "general"
	GoalFatLoss      Goal = "fat_loss"
)

// StrengthOriented reports whether heavy loading is the point of the goal.
func (g Goal) StrengthOriented() bool {
	return g == GoalStrength || g == GoalPowerlifting
}

type UserProfile struct {
	UserID           string   `json:"user_id" toml:"user_id"`
	Name             string   `json:"name" toml:"name"`
	TrainingAgeYears float64  `json:"training_age_years" toml:"training_age_years"`
	Injuries         []string `json:"injuries" toml:"injuries"`
}

type Goals struct {
	Primary   Goal `json:"primary" toml:"primary"`
	Secondary Goal `json:"secondary,omitempty" toml:"secondary,omitempty"`
}

type SplitType string

const (
	SplitPPL        SplitType = "ppl"
	SplitUpperLower SplitType = "upper_lower"
	SplitFullBody   SplitType = "full_body"
)

type Constraints struct {
	DaysPerWeek    int         `json:"days_per_week" toml:"days_per_week"`
	SessionMinutes int         `json:"session_minutes" toml:"session_minutes"`
	Equipment      []Equipment `json:"equipment" toml:"equipment"`
	Split          SplitType   `json:"split" toml:"split"`
}

type Preferences struct {
	FavoriteExerciseIDs []string `json:"favorite_exercise_ids" toml:"favorite_exercise_ids"`
	AvoidExerciseIDs    []string `json:"avoid_exercise_ids" toml:"avoid_exercise_ids"`
}

// ProfileFile is the TOML document a user edits and imports with `init`.
type ProfileFile struct {
	Profile     UserProfile `json:"profile" toml:"profile"`
	Goals       Goals       `json:"goals" toml:"goals"`
	Constraints Constraints `json:"constraints" toml:"constraints"`
	Preferences Preferences `json:"preferences" toml:"preferences"`
}
