package selection

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/lifecycle"
	"github.com/misterclayt0n/mesocoach/internal/models"
)

var now = time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

func rpe(v float64) *float64 { return &v }

func exercise(id string, main bool, eq models.Equipment, patterns string, primary []models.Muscle, secondary ...models.Muscle) models.Exercise {
	ex := models.Exercise{
		ID:               id,
		Name:             strings.ReplaceAll(id, "_", " "),
		MovementPatterns: []string{patterns},
		Equipment:        []models.Equipment{eq},
		SFRScore:         3,
		LengthenedScore:  3,
		RepRange:         models.RepRange{Min: 6, Max: 10},
		MainLiftEligible: main,
	}
	for _, m := range primary {
		ex.Muscles = append(ex.Muscles, models.ExerciseMuscle{Muscle: m, Role: models.RolePrimary})
	}
	for _, m := range secondary {
		ex.Muscles = append(ex.Muscles, models.ExerciseMuscle{Muscle: m, Role: models.RoleSecondary})
	}
	return ex
}

func pullLibrary() []models.Exercise {
	rackPull := exercise("rack_pull", true, models.EquipmentBarbell, "hinge", []models.Muscle{models.MuscleUpperBack}, models.MuscleGlutes)
	rackPull.Contraindications = []string{"lower_back"}
	return []models.Exercise{
		exercise("barbell_row", true, models.EquipmentBarbell, "horizontal_pull", []models.Muscle{models.MuscleLats, models.MuscleUpperBack}, models.MuscleBiceps),
		exercise("pullup", true, models.EquipmentBodyweight, "vertical_pull", []models.Muscle{models.MuscleLats}, models.MuscleBiceps),
		exercise("lat_pulldown", false, models.EquipmentCable, "vertical_pull", []models.Muscle{models.MuscleLats}, models.MuscleBiceps),
		exercise("cable_row", false, models.EquipmentCable, "horizontal_pull", []models.Muscle{models.MuscleUpperBack}, models.MuscleRearDelts),
		exercise("db_curl", false, models.EquipmentDumbbell, "elbow_flexion", []models.Muscle{models.MuscleBiceps}),
		exercise("face_pull", false, models.EquipmentCable, "rear_delt_fly", []models.Muscle{models.MuscleRearDelts}),
		rackPull,
		exercise("bench_press", true, models.EquipmentBarbell, "horizontal_push", []models.Muscle{models.MuscleChest}, models.MuscleTriceps),
	}
}

var fullGym = []models.Equipment{
	models.EquipmentBarbell, models.EquipmentDumbbell, models.EquipmentCable, models.EquipmentBodyweight,
}

func baseInput() BuildInput {
	return BuildInput{
		Intent:    models.IntentPull,
		Goal:      models.GoalHypertrophy,
		Block:     lifecycle.NewBlock("u1", 1, 3, now.Add(-24*time.Hour)),
		Library:   pullLibrary(),
		Equipment: fullGym,
		Now:       now,
	}
}

func TestIntentMuscles(t *testing.T) {
	tests := []struct {
		intent models.SessionIntent
		has    models.Muscle
		hasNot models.Muscle
	}{
		{models.IntentPush, models.MuscleChest, models.MuscleLats},
		{models.IntentPull, models.MuscleLats, models.MuscleQuads},
		{models.IntentLegs, models.MuscleQuads, models.MuscleChest},
		{models.IntentUpper, models.MuscleBiceps, models.MuscleHamstrings},
		{models.IntentLower, models.MuscleLowerBack, models.MuscleTriceps},
	}
	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			got := IntentMuscles(tt.intent, nil)
			found := map[models.Muscle]bool{}
			for _, m := range got {
				found[m] = true
			}
			if !found[tt.has] || found[tt.hasNot] {
				t.Errorf("IntentMuscles(%s) = %v", tt.intent, got)
			}
		})
	}

	parts := IntentMuscles(models.IntentBodyPart, []models.Muscle{models.MuscleCalves, models.MuscleCalves})
	if len(parts) != 1 || parts[0] != models.MuscleCalves {
		t.Errorf("body part intent = %v, want [calves]", parts)
	}
}

func TestWeights(t *testing.T) {
	w := DefaultWeights()
	if err := w.Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}

	shifted := w.ShiftTowardPreference()
	if math.Abs(shifted.RotationNovelty-RotationFloor) > 1e-9 {
		t.Errorf("rotation = %v, want floor %v", shifted.RotationNovelty, RotationFloor)
	}
	if shifted.UserPreference > PreferenceCeiling+1e-9 {
		t.Errorf("preference %v above ceiling", shifted.UserPreference)
	}
	if math.Abs(shifted.Sum()-1) > 1e-9 {
		t.Errorf("shift changed total weight to %v", shifted.Sum())
	}

	// Preference already near the ceiling only takes what fits.
	w.UserPreference, w.DeficitFill = 0.30, 0.06
	shifted = w.ShiftTowardPreference()
	if math.Abs(shifted.UserPreference-PreferenceCeiling) > 1e-9 || math.Abs(shifted.RotationNovelty-0.17) > 1e-9 {
		t.Errorf("got preference %v rotation %v", shifted.UserPreference, shifted.RotationNovelty)
	}
}

func TestShouldDemote(t *testing.T) {
	pullup := exercise("pullup", true, models.EquipmentBodyweight, "vertical_pull", []models.Muscle{models.MuscleLats})
	weighted := pullup
	weighted.HasWeightedVariant = true
	row := exercise("barbell_row", true, models.EquipmentBarbell, "horizontal_pull", []models.Muscle{models.MuscleLats})

	tests := []struct {
		name string
		ex   models.Exercise
		goal models.Goal
		want bool
	}{
		{"bodyweight main under strength", pullup, models.GoalStrength, true},
		{"bodyweight main under powerlifting", pullup, models.GoalPowerlifting, true},
		{"bodyweight main under hypertrophy", pullup, models.GoalHypertrophy, false},
		{"weighted variant exists", weighted, models.GoalStrength, false},
		{"loaded main lift", row, models.GoalStrength, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldDemote(tt.ex, tt.goal); got != tt.want {
				t.Errorf("ShouldDemote = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPainConflicts(t *testing.T) {
	pool := pullLibrary()
	tests := []struct {
		name string
		flag models.PainFlag
		want bool
	}{
		{"recent severe", models.PainFlag{Zone: "Lower_Back", Severity: 2, At: now.Add(-24 * time.Hour)}, true},
		{"mild", models.PainFlag{Zone: "lower_back", Severity: 1, At: now.Add(-24 * time.Hour)}, false},
		{"stale", models.PainFlag{Zone: "lower_back", Severity: 3, At: now.Add(-8 * 24 * time.Hour)}, false},
		{"other zone", models.PainFlag{Zone: "knee", Severity: 3, At: now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PainConflicts(pool, []models.PainFlag{tt.flag}, now)
			_, conflicted := got["rack_pull"]
			if conflicted != tt.want {
				t.Errorf("rack_pull conflicted = %v, want %v (%v)", conflicted, tt.want, got)
			}
		})
	}
}

func TestOptimize_ExcludesPainConflicts(t *testing.T) {
	in := baseInput()
	in.PainFlags = []models.PainFlag{{Zone: "lower_back", Severity: 2, At: now.Add(-2 * time.Hour)}}
	out, err := Optimize(BuildObjective(in), Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range out.Selected {
		if id == "rack_pull" {
			t.Fatal("pain-conflicting exercise selected")
		}
	}
	var reasons []string
	for _, r := range out.Rejected {
		if r.ExerciseID == "rack_pull" {
			reasons = r.Reasons
		}
	}
	if len(reasons) == 0 || reasons[0] != "pain conflict: lower_back" {
		t.Errorf("rack_pull rejection reasons = %v", reasons)
	}
}

func TestOptimize_RespectsBounds(t *testing.T) {
	tests := []struct {
		name             string
		template         bool
		minEx, maxEx     int
		minMain, maxMain int
	}{
		{"defaults", false, DefaultMinExercises, DefaultMaxExercises, DefaultMinMainLifts, DefaultMaxMainLifts},
		{"template", true, DefaultMinExercises, TemplateMaxExercises, DefaultMinMainLifts, DefaultMaxMainLifts},
		{"tight", false, 3, 3, 1, 1},
		{"two mains", false, 4, 5, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.TemplateContext = tt.template
			obj := BuildObjective(in)
			obj.Constraints.MinExercises, obj.Constraints.MaxExercises = tt.minEx, tt.maxEx
			obj.Constraints.MinMainLifts, obj.Constraints.MaxMainLifts = tt.minMain, tt.maxMain

			out, err := Optimize(obj, Options{})
			if err != nil {
				t.Fatal(err)
			}
			if n := len(out.Selected); n < tt.minEx || n > tt.maxEx {
				t.Errorf("selected %d exercises, want [%d,%d]", n, tt.minEx, tt.maxEx)
			}
			if n := len(out.MainLifts); n < tt.minMain || n > tt.maxMain {
				t.Errorf("selected %d main lifts, want [%d,%d]", n, tt.minMain, tt.maxMain)
			}
			if len(out.Accessories) < DefaultMinAccessories {
				t.Errorf("selected %d accessories, want >= %d", len(out.Accessories), DefaultMinAccessories)
			}
			if len(out.MainLifts)+len(out.Accessories) != len(out.Selected) {
				t.Errorf("main/accessory split does not partition selection")
			}
			for _, id := range out.Selected {
				if id == "bench_press" {
					t.Errorf("push exercise selected for pull intent")
				}
				if out.SetTargets[id] < 1 {
					t.Errorf("%s has no sets", id)
				}
				if _, ok := out.Rationale[id]; !ok {
					t.Errorf("%s has no rationale", id)
				}
			}
		})
	}
}

func TestOptimize_Deterministic(t *testing.T) {
	first, err := Optimize(BuildObjective(baseInput()), Options{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := Optimize(BuildObjective(baseInput()), Options{})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, first, again)
		}
	}
}

func TestOptimize_NoCompatibleExercises(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BuildInput)
	}{
		{"everything avoided", func(in *BuildInput) {
			for _, ex := range in.Library {
				in.Preferences.AvoidExerciseIDs = append(in.Preferences.AvoidExerciseIDs, ex.ID)
			}
		}},
		{"no equipment for the pool", func(in *BuildInput) {
			in.Library = in.Library[:1]
			in.Equipment = []models.Equipment{models.EquipmentKettlebell}
		}},
		{"empty library", func(in *BuildInput) { in.Library = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			tt.mutate(&in)
			_, err := Optimize(BuildObjective(in), Options{})
			if !errors.Is(err, ErrNoCompatibleExercises) {
				t.Errorf("err = %v, want ErrNoCompatibleExercises", err)
			}
		})
	}
}

func TestOptimize_Unsatisfiable(t *testing.T) {
	in := baseInput()
	var accessories []models.Exercise
	for _, ex := range in.Library {
		if !ex.MainLiftEligible {
			accessories = append(accessories, ex)
		}
	}
	in.Library = accessories

	_, err := Optimize(BuildObjective(in), Options{})
	if !errors.Is(err, ErrUnsatisfiable) {
		t.Errorf("err = %v, want ErrUnsatisfiable", err)
	}
}

func TestOptimize_StrengthGoalDemotesBodyweightMainLift(t *testing.T) {
	in := baseInput()
	in.Goal = models.GoalStrength
	obj := BuildObjective(in)
	if !obj.Constraints.Demoted["pullup"] {
		t.Fatal("pullup should be demoted under a strength goal")
	}
	out, err := Optimize(obj, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range out.MainLifts {
		if id == "pullup" {
			t.Error("demoted pullup occupies a main-lift slot")
		}
	}
}

func weekOnePull(block models.TrainingBlock) models.WorkoutHistoryEntry {
	sets := func(n int, load float64) []models.PerformedSet {
		var out []models.PerformedSet
		for i := 0; i < n; i++ {
			out = append(out, models.PerformedSet{Index: i, Reps: 8, Load: load, RPE: rpe(8)})
		}
		return out
	}
	return models.WorkoutHistoryEntry{
		ID:         "s1",
		Date:       now.Add(-5 * 24 * time.Hour),
		Status:     models.StatusCompleted,
		Intent:     models.IntentPull,
		Provenance: models.ProvenanceIntent,
		BlockID:    block.ID,
		BlockWeek:  1,
		Exercises: []models.PerformedExercise{
			{ExerciseID: "barbell_row", IsMainLift: true, Sets: sets(3, 120)},
			{ExerciseID: "lat_pulldown", Sets: sets(3, 70)},
			{ExerciseID: "cable_row", Sets: sets(3, 60)},
			{ExerciseID: "db_curl", Sets: sets(2, 14)},
			{ExerciseID: "face_pull", Sets: sets(4, 20)},
		},
	}
}

func TestBuildObjective_ContinuityFavorites(t *testing.T) {
	in := baseInput()
	in.Block.AccumulationSessionsCompleted = 3
	in.History = []models.WorkoutHistoryEntry{weekOnePull(in.Block)}

	obj := BuildObjective(in)
	if obj.Continuity == nil {
		t.Fatal("expected continuity from the week-1 pull session")
	}
	if obj.Continuity.ElapsedWeeks != 1 {
		t.Errorf("elapsed weeks = %d, want 1", obj.Continuity.ElapsedWeeks)
	}
	for _, pe := range in.History[0].Exercises {
		if !obj.Favorites[pe.ExerciseID] {
			t.Errorf("%s missing from favorites", pe.ExerciseID)
		}
	}
	want := map[string]int{"barbell_row": 4, "lat_pulldown": 4, "cable_row": 4, "db_curl": 3, "face_pull": 4}
	if !reflect.DeepEqual(obj.Continuity.MinSets, want) {
		t.Errorf("min sets = %v, want %v", obj.Continuity.MinSets, want)
	}
	if math.Abs(obj.Weights.RotationNovelty-RotationFloor) > 1e-9 {
		t.Errorf("rotation weight = %v, want %v", obj.Weights.RotationNovelty, RotationFloor)
	}

	out, err := Optimize(obj, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, pe := range in.History[0].Exercises {
		got := out.SetTargets[pe.ExerciseID]
		if got < want[pe.ExerciseID] {
			t.Errorf("%s: %d sets, want >= %d", pe.ExerciseID, got, want[pe.ExerciseID])
		}
		if out.Rationale[pe.ExerciseID].Step != "continuity" {
			t.Errorf("%s step = %q", pe.ExerciseID, out.Rationale[pe.ExerciseID].Step)
		}
	}
	if out.MainLifts[0] != "barbell_row" {
		t.Errorf("main lifts = %v, want barbell_row first", out.MainLifts)
	}
}

func TestBuildObjective_OtherIntentIgnored(t *testing.T) {
	in := baseInput()
	s := weekOnePull(in.Block)
	s.Intent = models.IntentPush
	in.History = []models.WorkoutHistoryEntry{s}
	if obj := BuildObjective(in); obj.Continuity != nil {
		t.Errorf("continuity taken from a push session")
	}

	s.Intent = models.IntentPull
	s.Status = models.StatusSkipped
	in.History = []models.WorkoutHistoryEntry{s}
	if obj := BuildObjective(in); obj.Continuity != nil {
		t.Errorf("continuity taken from a skipped session")
	}
}

func TestCarriedSets(t *testing.T) {
	tests := []struct {
		name                string
		done, elapsed, week int
		deload, main        bool
		want                int
	}{
		{"week one keeps count", 3, 0, 1, false, false, 3},
		{"one week later", 3, 1, 2, false, false, 4},
		{"accessory cap", 3, 2, 3, false, false, AccessorySetCap},
		{"main cap", 4, 3, 4, false, true, MainLiftSetCap},
		{"main below cap", 3, 1, 2, false, true, 4},
		{"deload halves", 4, 1, 5, true, true, 2},
		{"deload floor", 1, 0, 5, true, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := carriedSets(tt.done, tt.elapsed, tt.week, tt.deload, tt.main); got != tt.want {
				t.Errorf("carriedSets = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuildExposure(t *testing.T) {
	library := map[string]models.Exercise{}
	for _, ex := range pullLibrary() {
		library[ex.ID] = ex
	}
	session := func(daysAgo int, id string, load float64) models.WorkoutHistoryEntry {
		return models.WorkoutHistoryEntry{
			ID:     id + "-" + strconv.Itoa(daysAgo),
			Date:   now.Add(-time.Duration(daysAgo) * 24 * time.Hour),
			Status: models.StatusCompleted,
			Exercises: []models.PerformedExercise{{
				ExerciseID: id,
				Sets:       []models.PerformedSet{{Index: 0, Reps: 8, Load: load, RPE: rpe(8)}},
			}},
		}
	}
	history := []models.WorkoutHistoryEntry{
		session(21, "barbell_row", 100),
		session(14, "barbell_row", 105),
		session(7, "barbell_row", 110),
		session(0, "barbell_row", 115),
		session(60, "db_curl", 14),
		session(50, "db_curl", 14),
		session(40, "db_curl", 14),
		session(10, "cable_row", 70),
		session(3, "cable_row", 60),
	}

	exp := BuildExposure(history, library, now)
	tests := []struct {
		name  string
		trend models.Trend
		use4  int
		use12 int
	}{
		{"barbell row", models.TrendImproving, 4, 4},
		{"db curl", models.TrendStalled, 0, 3},
		{"cable row", models.TrendDeclining, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := exp[tt.name]
			if !ok {
				t.Fatalf("no exposure for %q", tt.name)
			}
			if got.Trend != tt.trend {
				t.Errorf("trend = %s, want %s", got.Trend, tt.trend)
			}
			if got.UsageCount4Wk != tt.use4 || got.UsageCount12Wk != tt.use12 {
				t.Errorf("usage 4wk=%d 12wk=%d, want %d %d", got.UsageCount4Wk, got.UsageCount12Wk, tt.use4, tt.use12)
			}
		})
	}
	if w := exp["db curl"].WeeksSinceUse; math.Abs(w-40.0/7) > 1e-9 {
		t.Errorf("weeks since use = %v", w)
	}
}
