package progression

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

var now = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

func rpe(v float64) *float64 { return &v }

// sets builds qualifying sets from loads, all at the same reps and RPE.
func sets(reps int, r float64, loads ...float64) []models.PerformedSet {
	out := make([]models.PerformedSet, len(loads))
	for i, l := range loads {
		out[i] = models.PerformedSet{Index: i, Reps: reps, Load: l, RPE: rpe(r)}
	}
	return out
}

func session(id string, daysAgo int, prov models.Provenance, exerciseID string, s []models.PerformedSet) models.WorkoutHistoryEntry {
	return models.WorkoutHistoryEntry{
		ID:         id,
		Date:       now.Add(-time.Duration(daysAgo) * 24 * time.Hour),
		Status:     models.StatusCompleted,
		Provenance: prov,
		Exercises:  []models.PerformedExercise{{ExerciseID: exerciseID, Sets: s}},
	}
}

var barbellRow = models.Exercise{
	ID:        "row",
	Name:      "Barbell Row",
	Equipment: []models.Equipment{models.EquipmentBarbell},
	RepRange:  models.RepRange{Min: 6, Max: 10},
}

var dbCurl = models.Exercise{
	ID:        "curl",
	Name:      "Dumbbell Curl",
	Equipment: []models.Equipment{models.EquipmentDumbbell},
	RepRange:  models.RepRange{Min: 8, Max: 10},
}

func TestMainAnchorUsesTopSet(t *testing.T) {
	q := Qualifying(sets(5, 8, 45, 40, 40, 40, 40))
	if got := MainAnchor(q); got != 45 {
		t.Errorf("MainAnchor = %v, want 45", got)
	}
	if got := ModalLoad(q); got != 40 {
		t.Errorf("ModalLoad = %v, want 40", got)
	}

	r := Decide(Input{
		Exercise: barbellRow,
		MainLift: true,
		History:  []models.WorkoutHistoryEntry{session("s1", 3, models.ProvenanceIntent, "row", sets(5, 8, 45, 40, 40, 40, 40))},
		Now:      now,
	})
	if r.AnchorLoad != 45 {
		t.Errorf("receipt anchor = %v, want 45", r.AnchorLoad)
	}
}

func TestModalLoadTieBreaks(t *testing.T) {
	at := func(idx int, load float64) models.PerformedSet {
		return models.PerformedSet{Index: idx, Reps: 10, Load: load, RPE: rpe(8)}
	}
	tests := []struct {
		name string
		sets []models.PerformedSet
		want float64
	}{
		{"most sets wins", []models.PerformedSet{at(0, 60), at(1, 60), at(2, 65)}, 60},
		{"count tie goes to latest set", []models.PerformedSet{at(0, 70), at(1, 60), at(2, 60), at(3, 70)}, 70},
		{"single sets, latest wins", []models.PerformedSet{at(0, 65), at(1, 62.5)}, 62.5},
		{"full tie goes to heavier", []models.PerformedSet{at(0, 50), at(0, 55)}, 55},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ModalLoad(tt.sets); got != tt.want {
				t.Errorf("ModalLoad = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQualifying(t *testing.T) {
	in := []models.PerformedSet{
		{Index: 3, Reps: 8, Load: 100, RPE: rpe(8)},
		{Index: 0, Reps: 5, Load: 60, RPE: rpe(5)},
		{Index: 1, Reps: 8, Load: 100},
		{Index: 2, Reps: 8, Load: 100, RPE: rpe(9), Skipped: true},
		{Index: 4, Reps: 8, Load: 100, RPE: rpe(6)},
	}
	got := Qualifying(in)
	if len(got) != 2 || got[0].Index != 3 || got[1].Index != 4 {
		t.Errorf("Qualifying = %+v", got)
	}
}

func TestConfidence(t *testing.T) {
	varied := []models.PerformedSet{
		{Index: 0, Reps: 10, Load: 40, RPE: rpe(7)},
		{Index: 1, Reps: 10, Load: 40, RPE: rpe(8)},
		{Index: 2, Reps: 9, Load: 40, RPE: rpe(9)},
	}
	intentPrior := session("prior", 10, models.ProvenanceIntent, "curl", sets(10, 8, 100, 100, 100))

	tests := []struct {
		name    string
		prov    models.Provenance
		sets    []models.PerformedSet
		history []models.WorkoutHistoryEntry
		want    float64
		flags   []string
	}{
		{"generated", models.ProvenanceIntent, sets(10, 8, 40, 40), nil, ConfidenceIntent, nil},
		{"template", models.ProvenanceTemplate, sets(10, 8, 40, 40), nil, ConfidenceTemplate, nil},
		{"manual clean", models.ProvenanceManual, varied, nil, ConfidenceManual, nil},
		{"manual uniform rpe", models.ProvenanceManual, sets(10, 8, 40, 40, 40), nil, ConfidenceAnomalous, []string{AnomalyUniformRPE}},
		{"manual rpe 10 majority", models.ProvenanceManual, []models.PerformedSet{
			{Index: 0, Reps: 10, Load: 40, RPE: rpe(10)},
			{Index: 1, Reps: 10, Load: 40, RPE: rpe(10)},
			{Index: 2, Reps: 10, Load: 40, RPE: rpe(9)},
		}, nil, ConfidenceAnomalous, []string{AnomalyRPE10Majority}},
		{"manual regression", models.ProvenanceManual, varied, []models.WorkoutHistoryEntry{intentPrior}, ConfidenceAnomalous, []string{AnomalyLoadRegression}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := session("src", 1, tt.prov, "curl", tt.sets)
			got, flags := Confidence(src, Qualifying(tt.sets), append(tt.history, src), "curl")
			if got != tt.want {
				t.Errorf("confidence = %v, want %v", got, tt.want)
			}
			if !reflect.DeepEqual(flags, tt.flags) {
				t.Errorf("flags = %v, want %v", flags, tt.flags)
			}
		})
	}
}

func TestDefaultLoad(t *testing.T) {
	eq := func(e ...models.Equipment) models.Exercise { return models.Exercise{Equipment: e} }
	tests := []struct {
		name string
		ex   models.Exercise
		want float64
	}{
		{"barbell", eq(models.EquipmentBarbell), BarbellFloor},
		{"barbell beats dumbbell", eq(models.EquipmentDumbbell, models.EquipmentBarbell), BarbellFloor},
		{"dumbbell beats cable", eq(models.EquipmentCable, models.EquipmentDumbbell), DumbbellFloor},
		{"cable", eq(models.EquipmentCable), CableFloor},
		{"machine", eq(models.EquipmentMachine), OtherFloor},
		{"bodyweight", eq(models.EquipmentBodyweight), 0},
		{"hybrid bodyweight and machine", eq(models.EquipmentMachine, models.EquipmentBodyweight), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultLoad(tt.ex); got != tt.want {
				t.Errorf("DefaultLoad = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecide(t *testing.T) {
	pullup := models.Exercise{
		ID:        "pullup",
		Equipment: []models.Equipment{models.EquipmentBodyweight},
		RepRange:  models.RepRange{Min: 6, Max: 10},
	}
	noRPE := []models.PerformedSet{{Index: 0, Reps: 8, Load: 90}, {Index: 1, Reps: 8, Load: 95}}
	mainHold := []models.PerformedSet{
		{Index: 0, Reps: 8, Load: 120, RPE: rpe(8)},
		{Index: 1, Reps: 7, Load: 120, RPE: rpe(8.5)},
		{Index: 2, Reps: 6, Load: 120, RPE: rpe(9)},
	}

	tests := []struct {
		name       string
		ex         models.Exercise
		main       bool
		history    []models.WorkoutHistoryEntry
		deload     models.DeloadDecision
		trigger    Trigger
		targetLoad float64
		targetReps int
	}{
		{
			name:       "no history",
			ex:         barbellRow,
			main:       true,
			trigger:    TriggerNoHistory,
			targetLoad: BarbellFloor,
			targetReps: 6,
		},
		{
			name:       "session outside window",
			ex:         barbellRow,
			main:       true,
			history:    []models.WorkoutHistoryEntry{session("old", 43, models.ProvenanceIntent, "row", mainHold)},
			trigger:    TriggerNoHistory,
			targetLoad: BarbellFloor,
			targetReps: 6,
		},
		{
			name:       "no qualifying sets",
			ex:         barbellRow,
			main:       true,
			history:    []models.WorkoutHistoryEntry{session("s", 2, models.ProvenanceIntent, "row", noRPE)},
			trigger:    TriggerInsufficientData,
			targetLoad: 95,
			targetReps: 6,
		},
		{
			name:       "rep target met",
			ex:         dbCurl,
			history:    []models.WorkoutHistoryEntry{session("s", 2, models.ProvenanceIntent, "curl", sets(10, 8, 14, 14, 14))},
			trigger:    TriggerDoubleProgression,
			targetLoad: 16,
			targetReps: 8,
		},
		{
			name:       "rep target not met",
			ex:         barbellRow,
			main:       true,
			history:    []models.WorkoutHistoryEntry{session("s", 2, models.ProvenanceIntent, "row", mainHold)},
			trigger:    TriggerHold,
			targetLoad: 120,
			targetReps: 9,
		},
		{
			name:       "scheduled deload keeps load",
			ex:         barbellRow,
			main:       true,
			history:    []models.WorkoutHistoryEntry{session("s", 2, models.ProvenanceIntent, "row", mainHold)},
			deload:     models.DeloadDecision{Mode: models.DeloadScheduled, Scope: models.ScopeVolume, ReductionPercent: 55},
			trigger:    TriggerDeload,
			targetLoad: 120,
			targetReps: 8,
		},
		{
			name:       "reactive deload cuts load",
			ex:         barbellRow,
			main:       true,
			history:    []models.WorkoutHistoryEntry{session("s", 2, models.ProvenanceIntent, "row", mainHold)},
			deload:     models.DeloadDecision{Mode: models.DeloadReactive, Scope: models.ScopeBoth, ReductionPercent: 30},
			trigger:    TriggerDeload,
			targetLoad: 85,
			targetReps: 8,
		},
		{
			name: "low confidence blends and holds",
			ex:   dbCurl,
			history: []models.WorkoutHistoryEntry{
				session("generated", 9, models.ProvenanceIntent, "curl", sets(8, 8, 100, 100)),
				session("typed", 1, models.ProvenanceManual, "curl", sets(10, 8, 40, 40, 40)),
			},
			trigger:    TriggerHold,
			targetLoad: 82,
			targetReps: 10,
		},
		{
			name:       "bodyweight adds reps",
			ex:         pullup,
			main:       true,
			history:    []models.WorkoutHistoryEntry{session("s", 2, models.ProvenanceIntent, "pullup", sets(10, 8, 0, 0))},
			trigger:    TriggerDoubleProgression,
			targetLoad: 0,
			targetReps: 11,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Decide(Input{Exercise: tt.ex, MainLift: tt.main, History: tt.history, Deload: tt.deload, Now: now})
			if r.Trigger != tt.trigger {
				t.Errorf("trigger = %s, want %s (trace %v)", r.Trigger, tt.trigger, r.Trace)
			}
			if math.Abs(r.TargetLoad-tt.targetLoad) > 1e-9 {
				t.Errorf("target load = %v, want %v (trace %v)", r.TargetLoad, tt.targetLoad, r.Trace)
			}
			if r.TargetReps != tt.targetReps {
				t.Errorf("target reps = %d, want %d", r.TargetReps, tt.targetReps)
			}
			if len(r.Trace) == 0 {
				t.Error("empty decision trace")
			}
			if math.Abs(r.LoadDelta-(r.TargetLoad-r.AnchorLoad)) > 1e-9 {
				t.Errorf("load delta %v inconsistent", r.LoadDelta)
			}
		})
	}
}

func TestLatestSessionTieBreak(t *testing.T) {
	manual := session("a", 1, models.ProvenanceManual, "row", sets(8, 8, 100))
	generated := session("b", 1, models.ProvenanceIntent, "row", sets(8, 8, 110))

	for _, order := range [][]models.WorkoutHistoryEntry{{manual, generated}, {generated, manual}} {
		got, _, ok := LatestSession(order, "row", now, 0)
		if !ok || got.ID != "b" {
			t.Errorf("LatestSession picked %q, want the generated session", got.ID)
		}
	}
}

func TestMarkReadinessScaled(t *testing.T) {
	r := Receipt{Trigger: TriggerHold, AnchorLoad: 100, TargetLoad: 100, PriorReps: 8, TargetReps: 9}
	MarkReadinessScaled(&r, 0.9, "fatigue 0.80")
	if r.Trigger != TriggerReadinessScale || r.TargetLoad != 90 || r.LoadDelta != -10 {
		t.Errorf("receipt after scaling = %+v", r)
	}
}
