package models

type Muscle string

const (
	MuscleChest      Muscle = "chest"
	MuscleFrontDelts Muscle = "front_delts"
	MuscleSideDelts  Muscle = "side_delts"
	MuscleRearDelts  Muscle = "rear_delts"
	MuscleTriceps    Muscle = "triceps"
	MuscleLats       Muscle = "lats"
	MuscleUpperBack  Muscle = "upper_back"
	MuscleBiceps     Muscle = "biceps"
	MuscleForearms   Muscle = "forearms"
	MuscleQuads      Muscle = "quads"
	MuscleHamstrings Muscle = "hamstrings"
	MuscleGlutes     Muscle = "glutes"
	MuscleCalves     Muscle = "calves"
	MuscleAdductors  Muscle = "adductors"
	MuscleCore       Muscle = "core"
	MuscleLowerBack  Muscle = "lower_back"
)

type MuscleRole string

const (
	RolePrimary   MuscleRole = "primary"
	RoleSecondary MuscleRole = "secondary"
)

type Equipment string

const (
	EquipmentBarbell    Equipment = "barbell"
	EquipmentDumbbell   Equipment = "dumbbell"
	EquipmentCable      Equipment = "cable"
	EquipmentMachine    Equipment = "machine"
	EquipmentKettlebell Equipment = "kettlebell"
	EquipmentBand       Equipment = "band"
	EquipmentBodyweight Equipment = "bodyweight"
)

// SessionIntent is the kind of day being generated.
type SessionIntent string

const (
	IntentPush     SessionIntent = "push"
	IntentPull     SessionIntent = "pull"
	IntentLegs     SessionIntent = "legs"
	IntentUpper    SessionIntent = "upper"
	IntentLower    SessionIntent = "lower"
	IntentFullBody SessionIntent = "full_body"
	IntentBodyPart SessionIntent = "body_part"
)

type ExerciseMuscle struct {
	Muscle Muscle     `json:"muscle" toml:"muscle"`
	Role   MuscleRole `json:"role" toml:"role"`
}

type RepRange struct {
	Min int `json:"min" toml:"min"`
	Max int `json:"max" toml:"max"`
}

// Exercise is a library entry. SFRScore and LengthenedScore are on a 1-5 scale.
type Exercise struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	MovementPatterns   []string         `json:"movement_patterns"`
	SplitTags          []SessionIntent  `json:"split_tags"`
	Muscles            []ExerciseMuscle `json:"muscles"`
	Equipment          []Equipment      `json:"equipment"`
	SFRScore           float64          `json:"sfr_score"`
	LengthenedScore    float64          `json:"lengthened_score"`
	RepRange           RepRange         `json:"rep_range"`
	MainLiftEligible   bool             `json:"main_lift_eligible"`
	HasWeightedVariant bool             `json:"has_weighted_variant"`
	Contraindications  []string         `json:"contraindications"`
}

func (e Exercise) PrimaryMuscles() []Muscle {
	var out []Muscle
	for _, m := range e.Muscles {
		if m.Role == RolePrimary {
			out = append(out, m.Muscle)
		}
	}
	return out
}

func (e Exercise) HasEquipment(eq Equipment) bool {
	for _, have := range e.Equipment {
		if have == eq {
			return true
		}
	}
	return false
}

// BodyweightOnly reports whether the exercise needs nothing but the trainee.
func (e Exercise) BodyweightOnly() bool {
	if len(e.Equipment) == 0 {
		return false
	}
	for _, eq := range e.Equipment {
		if eq != EquipmentBodyweight {
			return false
		}
	}
	return true
}

//
// For TOML parsing only
//

type ExerciseDefTOML struct {
	Name               string   `toml:"name"`
	MovementPatterns   []string `toml:"movement_patterns"`
	SplitTags          []string `toml:"split_tags"`
	Primary            []string `toml:"primary"`
	Secondary          []string `toml:"secondary"`
	Equipment          []string `toml:"equipment"`
	SFRScore           float64  `toml:"sfr_score"`
	LengthenedScore    float64  `toml:"lengthened_score"`
	RepMin             int      `toml:"rep_min"`
	RepMax             int      `toml:"rep_max"`
	MainLift           bool     `toml:"main_lift"`
	HasWeightedVariant bool     `toml:"has_weighted_variant"`
	Contraindications  []string `toml:"contraindications"`
}

type ExerciseImport struct {
	Exercises []ExerciseDefTOML `toml:"exercise"`
}
