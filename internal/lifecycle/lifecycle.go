// Package lifecycle tracks where a trainee sits inside a training block and
// derives the week-indexed targets (RIR band, weekly sets) from it.
package lifecycle

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/misterclayt0n/mesocoach/internal/models"
)

const (
	AccumulationSessions = 12
	DeloadSessions       = 3

	MaxAccumulationWeek = 4
	DeloadWeek          = 5
)

// Weekly set targets climb RampStepSets per week from MEV. The deload week
// runs at DeloadVolumeFactor of the week-4 target. Neither is configurable.
const (
	RampStepSets       = 2
	DeloadVolumeFactor = 0.45
)

// NewBlock returns a fresh block in ACCUMULATING with zeroed counters.
func NewBlock(userID string, number, sessionsPerWeek int, now time.Time) models.TrainingBlock {
	if sessionsPerWeek < 1 {
		sessionsPerWeek = 3
	}
	return models.TrainingBlock{
		ID:              uuid.New().String(),
		UserID:          userID,
		Number:          number,
		State:           models.BlockAccumulating,
		SessionsPerWeek: sessionsPerWeek,
		DurationWeeks:   DeloadWeek,
		StartedAt:       now.UTC(),
	}
}

// Transition is the outcome of recording one performed session against a block.
type Transition struct {
	Block     models.TrainingBlock
	Successor *models.TrainingBlock
	From      models.BlockState
	To        models.BlockState
	// NoOp is set when the block was already COMPLETED.
	NoOp bool
	Note string
}

// Advance records one performed session. It never mutates its argument; the
// caller is expected to persist Block and Successor as one unit.
func Advance(block models.TrainingBlock, now time.Time) Transition {
	t := Transition{Block: block, From: block.State, To: block.State}

	switch block.State {
	case models.BlockCompleted:
		t.NoOp = true
		t.Note = "block already completed; transition ignored"
		return t

	case models.BlockDeloading:
		t.Block.DeloadSessionsCompleted++
		if t.Block.DeloadSessionsCompleted >= DeloadSessions {
			t.Block.State = models.BlockCompleted
			succ := successor(t.Block, now)
			t.Successor = &succ
			t.Note = "deload finished; successor block created"
		}

	default:
		// An empty state is treated as the default ACCUMULATING.
		t.Block.State = models.BlockAccumulating
		t.Block.AccumulationSessionsCompleted++
		if t.Block.AccumulationSessionsCompleted >= AccumulationSessions {
			t.Block.State = models.BlockDeloading
			t.Note = "accumulation finished; entering deload"
		}
	}

	t.To = t.Block.State
	return t
}

func successor(done models.TrainingBlock, now time.Time) models.TrainingBlock {
	next := NewBlock(done.UserID, done.Number+1, done.SessionsPerWeek, now)
	next.DurationWeeks = done.DurationWeeks
	if done.RIRBands != nil {
		next.RIRBands = make(map[int]models.RIRBand, len(done.RIRBands))
		for w, b := range done.RIRBands {
			next.RIRBands[w] = b
		}
	}
	for _, r := range done.CoreRoles {
		if r.Role == models.RoleCoreCompound {
			next.CoreRoles = append(next.CoreRoles, r)
		}
	}
	return next
}

// Reset puts the block back to the start of accumulation.
func Reset(block models.TrainingBlock) models.TrainingBlock {
	block.State = models.BlockAccumulating
	block.AccumulationSessionsCompleted = 0
	block.DeloadSessionsCompleted = 0
	return block
}

// CurrentWeek is 1-4 while accumulating and 5 once deloading or done.
func CurrentWeek(block models.TrainingBlock) int {
	if block.State == models.BlockDeloading || block.State == models.BlockCompleted {
		return DeloadWeek
	}
	spw := block.SessionsPerWeek
	if spw < 1 {
		spw = 1
	}
	week := block.AccumulationSessionsCompleted/spw + 1
	if week > MaxAccumulationWeek {
		week = MaxAccumulationWeek
	}
	return week
}

// IsDeload reports whether the block is in (or past) its deload phase.
func IsDeload(block models.TrainingBlock) bool {
	return block.State == models.BlockDeloading || block.State == models.BlockCompleted
}

// IsFinalAccumulationWeek reports whether the next session falls in week 4.
func IsFinalAccumulationWeek(block models.TrainingBlock) bool {
	return block.State == models.BlockAccumulating && CurrentWeek(block) == MaxAccumulationWeek
}

var defaultRIR = map[int]models.RIRBand{
	1: {Min: 3, Max: 4},
	2: {Min: 2, Max: 3},
	3: {Min: 2, Max: 3},
	4: {Min: 1, Max: 2},
}

var DeloadRIR = models.RIRBand{Min: 4, Max: 6}

// DefaultRIRBands returns a copy of the built-in week table.
func DefaultRIRBands() map[int]models.RIRBand {
	out := make(map[int]models.RIRBand, len(defaultRIR))
	for w, b := range defaultRIR {
		out[w] = b
	}
	return out
}

// RIRTarget looks up the band for a week. bands is the already-resolved table
// (see config.ResolveRIRBands); missing weeks fall back to the defaults. Deload
// always wins over configuration.
func RIRTarget(state models.BlockState, week int, bands map[int]models.RIRBand) models.RIRBand {
	if week >= DeloadWeek || state == models.BlockDeloading || state == models.BlockCompleted {
		return DeloadRIR
	}
	if week < 1 {
		week = 1
	}
	if b, ok := bands[week]; ok && b.Max >= b.Min && b.Min >= 0 {
		return b
	}
	return defaultRIR[week]
}

// TargetRPE converts an RIR band to the RPE at its midpoint.
func TargetRPE(band models.RIRBand) float64 {
	return 10 - float64(band.Min+band.Max)/2
}

// WeeklyVolumeTarget is the per-muscle set target for a block week.
func WeeklyVolumeTarget(lm models.Landmark, week int, deload bool) int {
	peak := lm.MAV
	if lm.MRV < peak {
		peak = lm.MRV
	}
	if peak < lm.MEV {
		peak = lm.MEV
	}

	if deload || week >= DeloadWeek {
		return int(math.Round(float64(peak) * DeloadVolumeFactor))
	}

	var target int
	switch {
	case week <= 1:
		target = lm.MEV
	case week == 2:
		target = lm.MEV + RampStepSets
	case week == 3:
		target = lm.MEV + 2*RampStepSets
	default:
		target = peak
	}
	if target > peak {
		target = peak
	}
	if target < lm.MEV {
		target = lm.MEV
	}
	return target
}
