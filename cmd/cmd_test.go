package cmd

import (
	"testing"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

func TestParsePainFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    models.PainFlag
		wantErr bool
	}{
		{in: "knee:2", want: models.PainFlag{Zone: "knee", Severity: 2}},
		{in: " Lower_Back : 0", want: models.PainFlag{Zone: "lower_back", Severity: 0}},
		{in: "knee", wantErr: true},
		{in: ":2", wantErr: true},
		{in: "knee:4", wantErr: true},
		{in: "knee:bad", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePainFlag(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeWeekStreak(t *testing.T) {
	now := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC) // Wednesday
	day := 24 * time.Hour
	entry := func(ago time.Duration, status models.SessionStatus) models.WorkoutHistoryEntry {
		return models.WorkoutHistoryEntry{Date: now.Add(-ago), Status: status}
	}

	tests := []struct {
		name     string
		sessions []models.WorkoutHistoryEntry
		want     int
	}{
		{name: "empty", want: 0},
		{
			name:     "three weeks",
			sessions: []models.WorkoutHistoryEntry{entry(0, models.StatusCompleted), entry(7*day, models.StatusPartial), entry(14*day, models.StatusCompleted)},
			want:     3,
		},
		{
			name:     "gap",
			sessions: []models.WorkoutHistoryEntry{entry(day, models.StatusCompleted), entry(14*day, models.StatusCompleted)},
			want:     1,
		},
		{
			name:     "skipped does not count",
			sessions: []models.WorkoutHistoryEntry{entry(0, models.StatusSkipped), entry(7*day, models.StatusCompleted)},
			want:     0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeWeekStreak(tt.sessions, now); got != tt.want {
				t.Errorf("streak = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSessionFromPlan(t *testing.T) {
	fixed := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	clock = func() time.Time { return fixed }
	t.Cleanup(func() { clock = time.Now })

	plan := models.WorkoutPlan{
		ID:     "plan-1",
		UserID: "u1",
		Intent: models.IntentPull,
		MainLifts: []models.PlannedExercise{{
			ExerciseID: "barbell_row",
			Name:       "Barbell Row",
			Sets:       []models.PlannedSet{{Index: 1, TargetReps: 8, TargetLoad: 100}, {Index: 2, TargetReps: 8, TargetLoad: 100}},
		}},
	}
	state := models.NewPlanState(plan)

	entry := sessionFromPlan(state)
	if entry.ID != "plan-1" || entry.UserID != "u1" || !entry.Date.Equal(fixed) {
		t.Errorf("header = %+v", entry)
	}
	if entry.Status != models.StatusCompleted || entry.Provenance != models.ProvenanceIntent {
		t.Errorf("status/provenance = %s/%s", entry.Status, entry.Provenance)
	}
	if len(entry.Exercises) != 1 || len(entry.Exercises[0].Sets) != 2 {
		t.Fatalf("exercises = %+v", entry.Exercises)
	}

	state.Performed[0].Sets[1].Skipped = true
	if got := sessionFromPlan(state).Status; got != models.StatusPartial {
		t.Errorf("status with skipped set = %s, want partial", got)
	}
}
