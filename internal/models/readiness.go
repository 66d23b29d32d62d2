package models

import "time"

// PainFlag is a subjective pain report against a body zone. Severity runs 0-3.
type PainFlag struct {
	Zone     string    `json:"zone" toml:"zone"`
	Severity int       `json:"severity" toml:"severity"`
	At       time.Time `json:"at" toml:"at"`
}

// Subjective scores are 1 (worst) to 5 (best). Soreness and Stress are
// inverted on input: 5 means none.
type Subjective struct {
	Sleep      int `json:"sleep" toml:"sleep"`
	Soreness   int `json:"soreness" toml:"soreness"`
	Stress     int `json:"stress" toml:"stress"`
	Motivation int `json:"motivation" toml:"motivation"`
}

type Physiological struct {
	HRVDeltaPct    *float64 `json:"hrv_delta_pct,omitempty" toml:"hrv_delta_pct,omitempty"`
	RestingHRDelta *float64 `json:"resting_hr_delta,omitempty" toml:"resting_hr_delta,omitempty"`
}

// Performance is derived from recent sessions: positive RPEDrift means sets
// felt harder than prescribed.
type Performance struct {
	RPEDrift *float64 `json:"rpe_drift,omitempty" toml:"rpe_drift,omitempty"`
}

type ReadinessSignal struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	At            time.Time      `json:"at"`
	Subjective    *Subjective    `json:"subjective,omitempty"`
	Physiological *Physiological `json:"physiological,omitempty"`
	Performance   *Performance   `json:"performance,omitempty"`
	PainFlags     []PainFlag     `json:"pain_flags,omitempty"`
}

// FatigueScore is 0 (fresh) to 1 (wrecked) with the parts that fed it.
type FatigueScore struct {
	Overall       float64  `json:"overall"`
	Subjective    *float64 `json:"subjective,omitempty"`
	Physiological *float64 `json:"physiological,omitempty"`
	Performance   *float64 `json:"performance,omitempty"`
}
