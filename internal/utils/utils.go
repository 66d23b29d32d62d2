package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/BurntSushi/toml"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

// ParseLibraryTOML reads an exercise library file ([[exercise]] tables) and
// converts each entry into a library exercise with a slug id.
func ParseLibraryTOML(path string) ([]models.Exercise, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var imp models.ExerciseImport
	if err := toml.Unmarshal(data, &imp); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	out := make([]models.Exercise, 0, len(imp.Exercises))
	for i, def := range imp.Exercises {
		ex, err := ExerciseFromDef(def)
		if err != nil {
			return nil, fmt.Errorf("exercise #%d: %w", i+1, err)
		}
		if seen[ex.ID] {
			return nil, fmt.Errorf("exercise #%d: duplicate id %q", i+1, ex.ID)
		}
		seen[ex.ID] = true
		out = append(out, ex)
	}
	return out, nil
}

func ExerciseFromDef(def models.ExerciseDefTOML) (models.Exercise, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return models.Exercise{}, errors.New("missing name")
	}
	if def.RepMin < 0 || def.RepMax < def.RepMin {
		return models.Exercise{}, fmt.Errorf("%s: invalid rep range %d-%d", name, def.RepMin, def.RepMax)
	}
	if len(def.Primary) == 0 {
		return models.Exercise{}, fmt.Errorf("%s: no primary muscles", name)
	}

	ex := models.Exercise{
		ID:                 Slug(name),
		Name:               name,
		MovementPatterns:   lower(def.MovementPatterns),
		SFRScore:           def.SFRScore,
		LengthenedScore:    def.LengthenedScore,
		RepRange:           models.RepRange{Min: def.RepMin, Max: def.RepMax},
		MainLiftEligible:   def.MainLift,
		HasWeightedVariant: def.HasWeightedVariant,
		Contraindications:  lower(def.Contraindications),
	}
	for _, t := range lower(def.SplitTags) {
		ex.SplitTags = append(ex.SplitTags, models.SessionIntent(t))
	}
	for _, m := range lower(def.Primary) {
		ex.Muscles = append(ex.Muscles, models.ExerciseMuscle{Muscle: models.Muscle(m), Role: models.RolePrimary})
	}
	for _, m := range lower(def.Secondary) {
		ex.Muscles = append(ex.Muscles, models.ExerciseMuscle{Muscle: models.Muscle(m), Role: models.RoleSecondary})
	}
	for _, e := range lower(def.Equipment) {
		ex.Equipment = append(ex.Equipment, models.Equipment(e))
	}
	return ex, nil
}

func ParseProfileTOML(path string) (*models.ProfileFile, error) {
	var pf models.ProfileFile
	if _, err := toml.DecodeFile(path, &pf); err != nil {
		return nil, err
	}
	if pf.Profile.UserID == "" {
		return nil, errors.New("profile.user_id is required")
	}
	pf.Goals.Primary = models.Goal(strings.ToLower(string(pf.Goals.Primary)))
	pf.Goals.Secondary = models.Goal(strings.ToLower(string(pf.Goals.Secondary)))
	pf.Constraints.Split = models.SplitType(strings.ToLower(string(pf.Constraints.Split)))
	return &pf, nil
}

// SessionLog is a manually written session file for `log-session`.
type SessionLog struct {
	Date      string                     `toml:"date"`
	Intent    string                     `toml:"intent"`
	Status    string                     `toml:"status"`
	Exercises []models.PerformedExercise `toml:"exercise"`
}

// ParseSessionLogTOML reads a SessionLog into a history entry with manual
// provenance. Date defaults to now and status to completed.
func ParseSessionLogTOML(path, userID string, now time.Time) (models.WorkoutHistoryEntry, error) {
	var log SessionLog
	if _, err := toml.DecodeFile(path, &log); err != nil {
		return models.WorkoutHistoryEntry{}, err
	}

	date, err := ParseWhen(log.Date, now)
	if err != nil {
		return models.WorkoutHistoryEntry{}, err
	}
	status := models.SessionStatus(strings.ToLower(log.Status))
	if status == "" {
		status = models.StatusCompleted
	}
	if log.Intent == "" {
		return models.WorkoutHistoryEntry{}, errors.New("session intent is required")
	}

	entry := models.WorkoutHistoryEntry{
		UserID:     userID,
		Date:       date,
		Status:     status,
		Intent:     models.SessionIntent(strings.ToLower(log.Intent)),
		Provenance: models.ProvenanceManual,
		Exercises:  log.Exercises,
	}
	for i := range entry.Exercises {
		pe := &entry.Exercises[i]
		if pe.ExerciseID == "" {
			pe.ExerciseID = Slug(pe.Name)
		}
		if pe.ExerciseID == "" {
			return models.WorkoutHistoryEntry{}, fmt.Errorf("exercise #%d has neither exercise_id nor name", i+1)
		}
	}
	return entry, nil
}

// Slug lowercases name and joins its words with underscores:
// "Barbell Row (Pendlay)" becomes "barbell_row_pendlay".
func Slug(name string) string {
	var sb strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
			pending = false
			continue
		}
		pending = true
	}
	return sb.String()
}

func lower(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
