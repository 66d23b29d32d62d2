package volume

import (
	"sort"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/lifecycle"
	"github.com/misterclayt0n/mesocoach/internal/models"
)

// IndirectMultiplier weights a secondary-role set against a direct one.
const IndirectMultiplier = 0.3

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) Empty() bool {
	return !w.Start.Before(w.End)
}

// BlockWeekWindow returns the date range of the block's current week: from
// the session that opened the week up to now. If that session has not
// happened yet the window is empty. lookback bounds how far back it may reach.
func BlockWeekWindow(block models.TrainingBlock, history []models.WorkoutHistoryEntry, now time.Time, lookback time.Duration) Window {
	var performed []models.WorkoutHistoryEntry
	for _, h := range history {
		if h.BlockID == block.ID && h.Status.Performed() && !h.Date.After(now) {
			performed = append(performed, h)
		}
	}
	sort.SliceStable(performed, func(i, j int) bool { return performed[i].Date.Before(performed[j].Date) })

	spw := block.SessionsPerWeek
	if spw < 1 {
		spw = 1
	}
	opening := (lifecycle.CurrentWeek(block) - 1) * spw
	if lifecycle.IsDeload(block) {
		opening = block.AccumulationSessionsCompleted
	}

	start := now
	if opening < len(performed) {
		start = performed[opening].Date
	}
	if lookback > 0 && start.Before(now.Add(-lookback)) {
		start = now.Add(-lookback)
	}
	return Window{Start: start, End: now}
}

// Weekly is the set tally for one window.
type Weekly struct {
	Direct    map[models.Muscle]float64
	Indirect  map[models.Muscle]float64
	Effective map[models.Muscle]float64
	// LastTrained is the latest session date that hit the muscle directly.
	LastTrained map[models.Muscle]time.Time
	// Sessions counts sessions that hit the muscle directly.
	Sessions map[models.Muscle]int
}

func newWeekly() Weekly {
	return Weekly{
		Direct:      map[models.Muscle]float64{},
		Indirect:    map[models.Muscle]float64{},
		Effective:   map[models.Muscle]float64{},
		LastTrained: map[models.Muscle]time.Time{},
		Sessions:    map[models.Muscle]int{},
	}
}

// Aggregate counts completed, non-skipped sets per muscle inside the window.
// Exercises missing from the library are ignored.
func Aggregate(history []models.WorkoutHistoryEntry, library map[string]models.Exercise, w Window) Weekly {
	out := newWeekly()
	for _, h := range history {
		if !h.Status.Performed() || !w.Contains(h.Date) {
			continue
		}
		hit := map[models.Muscle]bool{}
		for _, pe := range h.Exercises {
			ex, ok := library[pe.ExerciseID]
			if !ok {
				continue
			}
			n := float64(len(pe.WorkingSets()))
			if n == 0 {
				continue
			}
			for _, m := range ex.Muscles {
				switch m.Role {
				case models.RolePrimary:
					out.Direct[m.Muscle] += n
					hit[m.Muscle] = true
					if h.Date.After(out.LastTrained[m.Muscle]) {
						out.LastTrained[m.Muscle] = h.Date
					}
				case models.RoleSecondary:
					out.Indirect[m.Muscle] += n
				}
			}
		}
		for m := range hit {
			out.Sessions[m]++
		}
	}
	for m, v := range out.Direct {
		out.Effective[m] += v
	}
	for m, v := range out.Indirect {
		out.Effective[m] += v * IndirectMultiplier
	}
	return out
}

// LastTrained scans all performed history (not just a window) for the most
// recent direct hit per muscle.
func LastTrained(history []models.WorkoutHistoryEntry, library map[string]models.Exercise) map[models.Muscle]time.Time {
	out := map[models.Muscle]time.Time{}
	for _, h := range history {
		if !h.Status.Performed() {
			continue
		}
		for _, pe := range h.Exercises {
			ex, ok := library[pe.ExerciseID]
			if !ok || len(pe.WorkingSets()) == 0 {
				continue
			}
			for _, m := range ex.PrimaryMuscles() {
				if h.Date.After(out[m]) {
					out[m] = h.Date
				}
			}
		}
	}
	return out
}

// Targets computes the week's set target for each muscle.
func Targets(lms *Landmarks, muscles []models.Muscle, block models.TrainingBlock) map[models.Muscle]float64 {
	week := lifecycle.CurrentWeek(block)
	deload := lifecycle.IsDeload(block)
	out := make(map[models.Muscle]float64, len(muscles))
	for _, m := range muscles {
		out[m] = float64(lifecycle.WeeklyVolumeTarget(lms.Lookup(m), week, deload))
	}
	return out
}
