package selection

import (
	"github.com/misterclayt0n/mesocoach/internal/lifecycle"
	"github.com/misterclayt0n/mesocoach/internal/models"
)

// FindContinuity looks up the most recent performed session with the same
// intent and turns its exercises into set floors for the next one.
// It returns nil when there is no such session.
func FindContinuity(history []models.WorkoutHistoryEntry, intent models.SessionIntent, block models.TrainingBlock, library map[string]models.Exercise, coreRoles map[string]models.ExerciseRole) *Continuity {
	var src *models.WorkoutHistoryEntry
	for i := range history {
		h := &history[i]
		if !h.Status.Performed() || h.Intent != intent {
			continue
		}
		if src == nil || h.Date.After(src.Date) || (h.Date.Equal(src.Date) && h.ID > src.ID) {
			src = h
		}
	}
	if src == nil {
		return nil
	}

	week := lifecycle.CurrentWeek(block)
	deload := lifecycle.IsDeload(block)

	elapsed := 0
	switch {
	case src.BlockID == block.ID && src.BlockWeek > 0:
		elapsed = max(0, week-src.BlockWeek)
	case week > 1:
		elapsed = 1
	}

	c := &Continuity{
		SourceSessionID: src.ID,
		SourceDate:      src.Date,
		ElapsedWeeks:    elapsed,
		MinSets:         map[string]int{},
		MainLifts:       map[string]bool{},
	}

	for _, pe := range src.Exercises {
		if _, ok := library[pe.ExerciseID]; !ok {
			continue
		}
		if _, dup := c.MinSets[pe.ExerciseID]; dup {
			continue
		}
		c.ExerciseIDs = append(c.ExerciseIDs, pe.ExerciseID)

		main := pe.IsMainLift || coreRoles[pe.ExerciseID] == models.RoleCoreCompound || coreRoles[pe.ExerciseID] == models.RoleMainLift
		if main {
			c.MainLifts[pe.ExerciseID] = true
		}

		done := len(pe.WorkingSets())
		if done == 0 {
			c.MinSets[pe.ExerciseID] = 0
			continue
		}
		c.MinSets[pe.ExerciseID] = carriedSets(done, elapsed, week, deload, main)
	}
	return c
}

// carriedSets is the floor for an exercise that was done for done sets last
// time. Accumulation weeks past the first add one set per elapsed week, up to
// the role cap. Deload halves the carried count.
func carriedSets(done, elapsed, week int, deload, main bool) int {
	if deload {
		return max(1, (done+1)/2)
	}
	limit := AccessorySetCap
	if main {
		limit = MainLiftSetCap
	}
	n := done
	if week > 1 {
		n += elapsed
	}
	return min(n, limit)
}
