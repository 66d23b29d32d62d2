package engine

import (
	"fmt"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/config"
	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/progression"
	"github.com/misterclayt0n/mesocoach/internal/selection"
)

// DefaultLookback bounds how far back the weekly volume window may reach.
const DefaultLookback = 7 * 24 * time.Hour

// Settings are the tunables for a run. Zero values mean built-in defaults.
type Settings struct {
	BeamWidth         int
	Weights           selection.Weights
	RecencyWindow     time.Duration
	Lookback          time.Duration
	SessionsPerMuscle int
	// RIRBands come from the config file; a block's own overrides still
	// take precedence.
	RIRBands  map[int]models.RIRBand
	Landmarks map[models.Muscle]models.Landmark
}

func (s Settings) withDefaults() Settings {
	s.BeamWidth = config.ResolveInt(s.BeamWidth, selection.DefaultBeamWidth)
	s.SessionsPerMuscle = config.ResolveInt(s.SessionsPerMuscle, selection.DefaultSessionsPerMuscle)
	if s.Weights.Sum() == 0 {
		s.Weights = selection.DefaultWeights()
	}
	if s.RecencyWindow <= 0 {
		s.RecencyWindow = progression.RecencyWindow
	}
	if s.Lookback <= 0 {
		s.Lookback = DefaultLookback
	}
	return s
}

// SettingsFromConfig resolves the [engine] section of a config file.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	weights, err := config.ResolveWeights(cfg.Engine.Weights)
	if err != nil {
		return Settings{}, err
	}
	bands, err := cfg.RIRBands()
	if err != nil {
		return Settings{}, err
	}
	s := Settings{
		BeamWidth:         config.ResolveInt(cfg.Engine.BeamWidth, selection.DefaultBeamWidth),
		Weights:           weights,
		RecencyWindow:     config.ResolveDays(cfg.Engine.RecencyDays, progression.RecencyWindow),
		Lookback:          config.ResolveDays(cfg.Engine.LookbackDays, DefaultLookback),
		SessionsPerMuscle: config.ResolveInt(cfg.Engine.SessionsPerMuscle, selection.DefaultSessionsPerMuscle),
		RIRBands:          bands,
		Landmarks:         config.ResolveLandmarks(cfg.Engine.Landmarks),
	}
	if s.BeamWidth > 64 {
		return Settings{}, fmt.Errorf("beam_width %d is too large (max 64)", s.BeamWidth)
	}
	return s, nil
}
