package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Barbell Row":           "barbell_row",
		"Barbell Row (Pendlay)": "barbell_row_pendlay",
		"  Lat   Pull-Down  ":   "lat_pull_down",
		"45° Back Extension":    "45_back_extension",
		"Dumbbell Curl":         "dumbbell_curl",
		"":                      "",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseLibraryTOML(t *testing.T) {
	path := writeFile(t, "library.toml", `
[[exercise]]
name = "Barbell Row"
movement_patterns = ["Horizontal_Pull"]
split_tags = ["PULL", "upper"]
primary = ["upper_back", "lats"]
secondary = ["biceps"]
equipment = ["Barbell"]
sfr_score = 3.5
lengthened_score = 3
rep_min = 6
rep_max = 10
main_lift = true

[[exercise]]
name = "Face Pull"
split_tags = ["pull"]
primary = ["rear_delts"]
equipment = ["cable"]
rep_min = 12
rep_max = 20
`)

	lib, err := ParseLibraryTOML(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(lib) != 2 {
		t.Fatalf("len = %d, want 2", len(lib))
	}
	row := lib[0]
	if row.ID != "barbell_row" || !row.MainLiftEligible || row.RepRange != (models.RepRange{Min: 6, Max: 10}) {
		t.Errorf("row = %+v", row)
	}
	if len(row.Muscles) != 3 || row.Muscles[2].Role != models.RoleSecondary || row.Muscles[0].Muscle != models.MuscleUpperBack {
		t.Errorf("muscles = %+v", row.Muscles)
	}
	if row.SplitTags[0] != models.IntentPull || row.Equipment[0] != models.EquipmentBarbell || row.MovementPatterns[0] != "horizontal_pull" {
		t.Errorf("lowercasing: %+v / %+v / %+v", row.SplitTags, row.Equipment, row.MovementPatterns)
	}
	if lib[1].ID != "face_pull" || lib[1].MainLiftEligible {
		t.Errorf("face pull = %+v", lib[1])
	}
}

func TestParseLibraryTOML_Invalid(t *testing.T) {
	tests := []struct {
		name, body string
	}{
		{"missing name", "[[exercise]]\nprimary = [\"chest\"]\n"},
		{"inverted reps", "[[exercise]]\nname = \"Dip\"\nprimary = [\"chest\"]\nrep_min = 12\nrep_max = 8\n"},
		{"no primary", "[[exercise]]\nname = \"Dip\"\n"},
		{"duplicate", "[[exercise]]\nname = \"Dip\"\nprimary = [\"chest\"]\n[[exercise]]\nname = \"dip\"\nprimary = [\"chest\"]\n"},
		{"bad toml", "[[exercise]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLibraryTOML(writeFile(t, "lib.toml", tt.body)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseProfileTOML(t *testing.T) {
	path := writeFile(t, "profile.toml", `
[profile]
user_id = "u1"
name = "Ana"
training_age_years = 2.5
injuries = ["shoulder"]

[goals]
primary = "Hypertrophy"

[constraints]
days_per_week = 4
equipment = ["barbell", "cable"]
split = "UPPER_LOWER"

[preferences]
avoid_exercise_ids = ["upright_row"]
`)
	pf, err := ParseProfileTOML(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pf.Goals.Primary != models.GoalHypertrophy || pf.Constraints.Split != models.SplitUpperLower {
		t.Errorf("enums = %q / %q", pf.Goals.Primary, pf.Constraints.Split)
	}
	if pf.Profile.TrainingAgeYears != 2.5 || pf.Constraints.DaysPerWeek != 4 || pf.Preferences.AvoidExerciseIDs[0] != "upright_row" {
		t.Errorf("profile = %+v", pf)
	}

	if _, err := ParseProfileTOML(writeFile(t, "p.toml", "[goals]\nprimary = \"strength\"\n")); err == nil {
		t.Error("profile without user_id accepted")
	}
}

func TestParseSessionLogTOML(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	path := writeFile(t, "session.toml", `
date = "2025-03-08"
intent = "PULL"

[[exercise]]
name = "Barbell Row"
is_main_lift = true

  [[exercise.sets]]
  index = 1
  reps = 8
  load = 100.0
  rpe = 8.5

  [[exercise.sets]]
  index = 2
  reps = 7
  load = 100.0
`)
	entry, err := ParseSessionLogTOML(path, "u1", now)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if entry.Provenance != models.ProvenanceManual || entry.Status != models.StatusCompleted || entry.Intent != models.IntentPull {
		t.Errorf("header = %+v", entry)
	}
	if !entry.Date.Equal(time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", entry.Date)
	}
	pe := entry.Exercises[0]
	if pe.ExerciseID != "barbell_row" || len(pe.Sets) != 2 || *pe.Sets[0].RPE != 8.5 || pe.Sets[1].RPE != nil {
		t.Errorf("exercise = %+v", pe)
	}

	if _, err := ParseSessionLogTOML(writeFile(t, "s.toml", "date = \"today\"\n"), "u1", now); err == nil {
		t.Error("session without intent accepted")
	}
}

func TestBoolToInt(t *testing.T) {
	if BoolToInt(true) != 1 || BoolToInt(false) != 0 {
		t.Error("BoolToInt")
	}
}
