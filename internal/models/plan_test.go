package models

import "testing"

func testPlan() WorkoutPlan {
	return WorkoutPlan{
		ID:     "p1",
		Intent: IntentPull,
		MainLifts: []PlannedExercise{{
			ExerciseID: "barbell_row",
			Name:       "Barbell Row",
			Role:       RoleMainLift,
			Sets: []PlannedSet{
				{Index: 0, Warmup: true, TargetReps: 8, TargetLoad: 50},
				{Index: 1, TargetReps: 8, TargetRPE: 7.5, TargetLoad: 100, RestSeconds: 180},
				{Index: 2, TargetReps: 8, TargetRPE: 7.5, TargetLoad: 100, RestSeconds: 180},
			},
		}},
		Accessories: []PlannedExercise{{
			ExerciseID: "face_pull",
			Name:       "Face Pull",
			Role:       RoleAccessory,
			Sets:       []PlannedSet{{Index: 1, RepRange: &RepRange{Min: 12, Max: 15}, TargetLoad: 20}},
		}},
	}
}

func TestNewPlanState(t *testing.T) {
	st := NewPlanState(testPlan())
	if len(st.Performed) != 2 {
		t.Fatalf("performed = %d, want 2", len(st.Performed))
	}
	row := st.Performed[0]
	if !row.IsMainLift || len(row.Sets) != 2 || row.Sets[0].Load != 100 || row.Sets[0].Reps != 8 {
		t.Errorf("row = %+v", row)
	}
	fp := st.Performed[1]
	if fp.IsMainLift || fp.Sets[0].Reps != 12 {
		t.Errorf("face pull = %+v", fp)
	}
}

func TestPlanState_ReplaceExercise(t *testing.T) {
	pendlay := Exercise{ID: "pendlay_row", Name: "Pendlay Row"}

	tests := []struct {
		name    string
		index   int
		ex      Exercise
		wantErr bool
	}{
		{name: "main lift", index: 0, ex: pendlay},
		{name: "out of range", index: 2, ex: pendlay, wantErr: true},
		{name: "already planned", index: 0, ex: Exercise{ID: "face_pull", Name: "Face Pull"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewPlanState(testPlan())
			err := st.ReplaceExercise(tt.index, tt.ex, 90, 6)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			pe := st.Plan.MainLifts[0]
			if pe.ExerciseID != "pendlay_row" || len(pe.Sets) != 2 || pe.Sets[0].TargetLoad != 90 || pe.Sets[0].RestSeconds != 180 {
				t.Errorf("planned = %+v", pe)
			}
			done := st.Performed[0]
			if done.ExerciseID != "pendlay_row" || !done.IsMainLift || len(done.Sets) != 2 || done.Sets[1].Reps != 6 {
				t.Errorf("performed = %+v", done)
			}
		})
	}
}
