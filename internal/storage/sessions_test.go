package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/lifecycle"
	"github.com/misterclayt0n/mesocoach/internal/models"
)

func session(id string, date time.Time, status models.SessionStatus) models.WorkoutHistoryEntry {
	rpe := 8.0
	entry := models.WorkoutHistoryEntry{
		ID:         id,
		UserID:     "u1",
		Date:       date,
		Status:     status,
		Intent:     models.IntentPull,
		Provenance: models.ProvenanceIntent,
	}
	if status.Performed() {
		entry.Exercises = []models.PerformedExercise{
			{
				ExerciseID: "barbell_row",
				Name:       "Barbell Row",
				IsMainLift: true,
				Sets: []models.PerformedSet{
					{Index: 1, Reps: 8, Load: 100, RPE: &rpe},
					{Index: 2, Reps: 8, Load: 100, RPE: &rpe},
					{Index: 3, Reps: 6, Load: 100, Skipped: true},
				},
			},
			{
				ExerciseID: "face_pull",
				Name:       "Face Pull",
				Sets:       []models.PerformedSet{{Reps: 15, Load: 20}},
			},
		}
	}
	return entry
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)

	dates := []time.Time{now.Add(-72 * time.Hour), now.Add(-24 * time.Hour), now.Add(-48 * time.Hour)}
	for i, d := range dates {
		status := models.StatusCompleted
		if i == 2 {
			status = models.StatusSkipped
		}
		if _, err := st.RecordSession(ctx, session(fmt.Sprintf("s%d", i), d, status)); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	hist, err := st.History(ctx, "u1", now.Add(-100*time.Hour))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("len = %d, want 3", len(hist))
	}
	if hist[0].ID != "s1" || hist[1].ID != "s2" || hist[2].ID != "s0" {
		t.Errorf("order = %s %s %s, want newest first", hist[0].ID, hist[1].ID, hist[2].ID)
	}
	if hist[1].Status != models.StatusSkipped || len(hist[1].Exercises) != 0 {
		t.Errorf("skipped session = %+v", hist[1])
	}

	s := hist[0]
	if s.Intent != models.IntentPull || s.Provenance != models.ProvenanceIntent || s.BlockID != "" {
		t.Errorf("session header = %+v", s)
	}
	if len(s.Exercises) != 2 || s.Exercises[0].ExerciseID != "barbell_row" || !s.Exercises[0].IsMainLift {
		t.Fatalf("exercises = %+v", s.Exercises)
	}
	row := s.Exercises[0]
	if len(row.Sets) != 3 || !row.Sets[2].Skipped || *row.Sets[0].RPE != 8 || len(row.WorkingSets()) != 2 {
		t.Errorf("row sets = %+v", row.Sets)
	}
	fp := s.Exercises[1]
	if len(fp.Sets) != 1 || fp.Sets[0].Index != 1 || fp.Sets[0].RPE != nil {
		t.Errorf("face pull sets = %+v", fp.Sets)
	}

	recent, err := st.History(ctx, "u1", now.Add(-36*time.Hour))
	if err != nil || len(recent) != 1 {
		t.Errorf("windowed history = %d, %v", len(recent), err)
	}

	if err := st.DeleteSession(ctx, "s0"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.DeleteSession(ctx, "s0"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	var sets int
	st.DB.QueryRow(`SELECT COUNT(*) FROM performed_sets`).Scan(&sets)
	if sets != 4 {
		t.Errorf("performed_sets after cascade = %d, want 4", sets)
	}
}

func TestRecordSessionAndAdvance_NoBlock(t *testing.T) {
	st := newTestStorage(t)
	_, err := st.RecordSessionAndAdvance(context.Background(), session("s1", now, models.StatusCompleted), now)
	if !errors.Is(err, ErrNoActiveBlock) {
		t.Errorf("err = %v, want ErrNoActiveBlock", err)
	}
}

func TestRecordSessionAndAdvance_FullBlock(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)

	first, err := st.StartBlock(ctx, "u1", 3, now)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := st.StartBlock(ctx, "u1", 3, now); !errors.Is(err, ErrActiveBlock) {
		t.Fatalf("second start err = %v, want ErrActiveBlock", err)
	}

	day := 24 * time.Hour
	total := lifecycle.AccumulationSessions + lifecycle.DeloadSessions
	var last lifecycle.Transition
	for i := 0; i < total; i++ {
		at := now.Add(time.Duration(i) * day)
		last, err = st.RecordSessionAndAdvance(ctx, session("", at, models.StatusCompleted), at)
		if err != nil {
			t.Fatalf("session %d: %v", i, err)
		}
		if i == lifecycle.AccumulationSessions-1 && last.To != models.BlockDeloading {
			t.Errorf("after %d sessions state = %s, want deloading", i+1, last.To)
		}
	}
	if last.To != models.BlockCompleted || last.Successor == nil {
		t.Fatalf("final transition = %+v", last)
	}

	active, err := st.ActiveBlock(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if active == nil || active.Number != 2 || active.State != models.BlockAccumulating || active.AccumulationSessionsCompleted != 0 {
		t.Errorf("active after completion = %+v", active)
	}

	blocks, err := st.Blocks(ctx, "u1")
	if err != nil || len(blocks) != 2 {
		t.Fatalf("blocks = %d, %v", len(blocks), err)
	}
	done := blocks[1]
	if done.ID != first.ID || done.State != models.BlockCompleted ||
		done.AccumulationSessionsCompleted != lifecycle.AccumulationSessions ||
		done.DeloadSessionsCompleted != lifecycle.DeloadSessions {
		t.Errorf("completed block = %+v", done)
	}

	hist, err := st.History(ctx, "u1", now.Add(-day))
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != total {
		t.Fatalf("history = %d, want %d", len(hist), total)
	}
	oldest, newest := hist[len(hist)-1], hist[0]
	if oldest.BlockID != first.ID || oldest.BlockWeek != 1 {
		t.Errorf("first session block ref = %s week %d", oldest.BlockID, oldest.BlockWeek)
	}
	if newest.BlockWeek != lifecycle.DeloadWeek {
		t.Errorf("last session week = %d, want %d", newest.BlockWeek, lifecycle.DeloadWeek)
	}
}

func TestRecordSessionAndAdvance_SkippedDoesNotAdvance(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)
	if _, err := st.StartBlock(ctx, "u1", 3, now); err != nil {
		t.Fatal(err)
	}

	tr, err := st.RecordSessionAndAdvance(ctx, session("", now, models.StatusSkipped), now)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !tr.NoOp || tr.Block.AccumulationSessionsCompleted != 0 {
		t.Errorf("transition = %+v", tr)
	}
	b, _ := st.ActiveBlock(ctx, "u1")
	if b.AccumulationSessionsCompleted != 0 {
		t.Errorf("counter = %d, want 0", b.AccumulationSessionsCompleted)
	}
}

func TestRecordSessionAndAdvance_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)
	if _, err := st.StartBlock(ctx, "u1", 3, now); err != nil {
		t.Fatal(err)
	}

	if _, err := st.RecordSessionAndAdvance(ctx, session("dup", now, models.StatusCompleted), now); err != nil {
		t.Fatalf("first record: %v", err)
	}
	// Same session id: the insert fails after the block update.
	if _, err := st.RecordSessionAndAdvance(ctx, session("dup", now.Add(time.Hour), models.StatusCompleted), now); err == nil {
		t.Fatal("duplicate session id accepted")
	}

	b, err := st.ActiveBlock(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if b.AccumulationSessionsCompleted != 1 {
		t.Errorf("counter after failed record = %d, want 1", b.AccumulationSessionsCompleted)
	}
	hist, _ := st.History(ctx, "u1", now.Add(-time.Hour))
	if len(hist) != 1 {
		t.Errorf("sessions = %d, want 1", len(hist))
	}
}

func TestResetBlock(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)

	if _, err := st.ResetBlock(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("reset without block err = %v", err)
	}

	b, err := st.StartBlock(ctx, "u1", 3, now)
	if err != nil {
		t.Fatal(err)
	}
	b.CoreRoles = []models.RoleAssignment{{ExerciseID: "barbell_row", Intent: models.IntentPull, Role: models.RoleCoreCompound}}
	b.RIRBands = map[int]models.RIRBand{1: {Min: 3, Max: 4}}
	if err := st.SaveBlock(ctx, *b); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := st.RecordSessionAndAdvance(ctx, session("", now.Add(time.Duration(i)*time.Hour), models.StatusCompleted), now); err != nil {
			t.Fatal(err)
		}
	}

	reset, err := st.ResetBlock(ctx, "u1")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	got, _ := st.ActiveBlock(ctx, "u1")
	if got.ID != reset.ID || got.AccumulationSessionsCompleted != 0 || got.State != models.BlockAccumulating {
		t.Errorf("after reset = %+v", got)
	}
	if len(got.CoreRoles) != 1 || got.CoreRoles[0].Intent != models.IntentPull || got.CoreRoles[0].Role != models.RoleCoreCompound {
		t.Errorf("core roles = %+v", got.CoreRoles)
	}
	if got.RIRBands[1] != (models.RIRBand{Min: 3, Max: 4}) {
		t.Errorf("rir bands = %+v", got.RIRBands)
	}
}
