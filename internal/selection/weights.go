package selection

import "fmt"

// Weights is the soft-objective weighting. The seven fields sum to 1.
type Weights struct {
	DeficitFill       float64 `toml:"deficit_fill" json:"deficit_fill"`
	RotationNovelty   float64 `toml:"rotation_novelty" json:"rotation_novelty"`
	LengthenedBias    float64 `toml:"lengthened_bias" json:"lengthened_bias"`
	SFREfficiency     float64 `toml:"sfr_efficiency" json:"sfr_efficiency"`
	MovementDiversity float64 `toml:"movement_diversity" json:"movement_diversity"`
	SRAReadiness      float64 `toml:"sra_readiness" json:"sra_readiness"`
	UserPreference    float64 `toml:"user_preference" json:"user_preference"`
}

const (
	PreferenceCeiling = 0.35
	RotationFloor     = 0.01
)

func DefaultWeights() Weights {
	return Weights{
		DeficitFill:       0.35,
		RotationNovelty:   0.22,
		LengthenedBias:    0.20,
		SFREfficiency:     0.12,
		MovementDiversity: 0.07,
		SRAReadiness:      0.03,
		UserPreference:    0.01,
	}
}

func (w Weights) Sum() float64 {
	return w.DeficitFill + w.RotationNovelty + w.LengthenedBias + w.SFREfficiency +
		w.MovementDiversity + w.SRAReadiness + w.UserPreference
}

// Validate rejects negative weights and weights that do not sum to 1.
func (w Weights) Validate() error {
	for _, v := range []float64{w.DeficitFill, w.RotationNovelty, w.LengthenedBias, w.SFREfficiency,
		w.MovementDiversity, w.SRAReadiness, w.UserPreference} {
		if v < 0 {
			return fmt.Errorf("negative weight %v", v)
		}
	}
	if s := w.Sum(); s < 0.999 || s > 1.001 {
		return fmt.Errorf("weights sum to %.3f, want 1", s)
	}
	return nil
}

// ShiftTowardPreference moves rotation-novelty mass onto user-preference.
// Preference rises to at most PreferenceCeiling; rotation never drops below
// RotationFloor. The total is unchanged.
func (w Weights) ShiftTowardPreference() Weights {
	room := PreferenceCeiling - w.UserPreference
	avail := w.RotationNovelty - RotationFloor
	move := min(room, avail)
	if move <= 0 {
		return w
	}
	w.RotationNovelty -= move
	w.UserPreference += move
	return w
}

// SubScores are the seven 0-1 components of a candidate's score.
type SubScores struct {
	DeficitFill       float64 `json:"deficit_fill" yaml:"deficit_fill"`
	RotationNovelty   float64 `json:"rotation_novelty" yaml:"rotation_novelty"`
	LengthenedBias    float64 `json:"lengthened_bias" yaml:"lengthened_bias"`
	SFREfficiency     float64 `json:"sfr_efficiency" yaml:"sfr_efficiency"`
	MovementDiversity float64 `json:"movement_diversity" yaml:"movement_diversity"`
	SRAReadiness      float64 `json:"sra_readiness" yaml:"sra_readiness"`
	UserPreference    float64 `json:"user_preference" yaml:"user_preference"`
}

func (s SubScores) Weighted(w Weights) float64 {
	return s.DeficitFill*w.DeficitFill +
		s.RotationNovelty*w.RotationNovelty +
		s.LengthenedBias*w.LengthenedBias +
		s.SFREfficiency*w.SFREfficiency +
		s.MovementDiversity*w.MovementDiversity +
		s.SRAReadiness*w.SRAReadiness +
		s.UserPreference*w.UserPreference
}
