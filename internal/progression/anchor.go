// Package progression turns the last performed session of an exercise into
// the next load and rep target, weighted by how much that session can be trusted.
package progression

import (
	"sort"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

const (
	// RecencyWindow bounds how old a session may be and still anchor progression.
	RecencyWindow = 42 * 24 * time.Hour
	// MinQualifyingRPE drops warm-up and feeler sets.
	MinQualifyingRPE = 6.0
)

var trust = map[models.Provenance]int{
	models.ProvenanceIntent:   3,
	models.ProvenanceTemplate: 2,
	models.ProvenanceManual:   1,
}

// LatestSession finds the most recent performed session containing the
// exercise within window of now. Sessions on the same instant are ordered by
// provenance trust, then by id.
func LatestSession(history []models.WorkoutHistoryEntry, exerciseID string, now time.Time, window time.Duration) (models.WorkoutHistoryEntry, models.PerformedExercise, bool) {
	if window <= 0 {
		window = RecencyWindow
	}
	var (
		best   models.WorkoutHistoryEntry
		bestPE models.PerformedExercise
		found  bool
	)
	for _, h := range history {
		if !h.Status.Performed() || h.Date.After(now) || now.Sub(h.Date) > window {
			continue
		}
		pe, ok := h.Find(exerciseID)
		if !ok {
			continue
		}
		if !found || newer(h, best) {
			best, bestPE, found = h, pe, true
		}
	}
	return best, bestPE, found
}

func newer(a, b models.WorkoutHistoryEntry) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	if trust[a.Provenance] != trust[b.Provenance] {
		return trust[a.Provenance] > trust[b.Provenance]
	}
	return a.ID > b.ID
}

// Qualifying keeps sets that were not skipped and carry an RPE of at least
// MinQualifyingRPE, ordered by set index.
func Qualifying(sets []models.PerformedSet) []models.PerformedSet {
	var out []models.PerformedSet
	for _, s := range sets {
		if s.Skipped || s.RPE == nil || *s.RPE < MinQualifyingRPE {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// MainAnchor is the load of the first qualifying set: the top set.
func MainAnchor(q []models.PerformedSet) float64 {
	if len(q) == 0 {
		return 0
	}
	first := q[0]
	for _, s := range q[1:] {
		if s.Index < first.Index {
			first = s
		}
	}
	return first.Load
}

// ModalLoad is the most common load among qualifying sets. Ties go to the
// load with more sets, then the one used on the latest set, then the heavier.
func ModalLoad(q []models.PerformedSet) float64 {
	type tally struct {
		count  int
		latest int
		load   float64
	}
	byLoad := map[float64]*tally{}
	for _, s := range q {
		t, ok := byLoad[s.Load]
		if !ok {
			t = &tally{latest: s.Index, load: s.Load}
			byLoad[s.Load] = t
		}
		t.count++
		if s.Index > t.latest {
			t.latest = s.Index
		}
	}

	var best *tally
	for _, t := range byLoad {
		switch {
		case best == nil:
			best = t
		case t.count != best.count:
			if t.count > best.count {
				best = t
			}
		case t.latest != best.latest:
			if t.latest > best.latest {
				best = t
			}
		case t.load > best.load:
			best = t
		}
	}
	if best == nil {
		return 0
	}
	return best.load
}

// Anchor resolves the reference load for an exercise's next session.
func Anchor(q []models.PerformedSet, mainLift bool) float64 {
	if mainLift {
		return MainAnchor(q)
	}
	return ModalLoad(q)
}
