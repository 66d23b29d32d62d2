package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/utils"
)

const exerciseColumns = `id, name, movement_patterns, split_tags, muscles, equipment, sfr_score,
	lengthened_score, rep_min, rep_max, main_lift, has_weighted_variant, contraindications`

// UpsertExercise inserts a library entry or updates the one with the same name.
// The stored id of an existing entry is kept.
func (s *Storage) UpsertExercise(ctx context.Context, ex models.Exercise) error {
	return upsertExercise(ctx, s.DB, ex, s.now())
}

// ImportLibrary upserts every exercise in one transaction.
func (s *Storage) ImportLibrary(ctx context.Context, exercises []models.Exercise) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	for _, ex := range exercises {
		if err := upsertExercise(ctx, tx, ex, now); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Failed to commit transaction: %w", err)
	}
	s.log.Info("exercise library imported", "count", len(exercises))
	return nil
}

func upsertExercise(ctx context.Context, q querier, ex models.Exercise, now time.Time) error {
	arrays := make([]string, 0, 5)
	for _, v := range []any{ex.MovementPatterns, ex.SplitTags, ex.Muscles, ex.Equipment, ex.Contraindications} {
		b, err := json.Marshal(nonNil(v))
		if err != nil {
			return fmt.Errorf("Failed to encode exercise %s: %w", ex.Name, err)
		}
		arrays = append(arrays, string(b))
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO exercises (`+exerciseColumns+`, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				movement_patterns = excluded.movement_patterns,
				split_tags = excluded.split_tags,
				muscles = excluded.muscles,
				equipment = excluded.equipment,
				sfr_score = excluded.sfr_score,
				lengthened_score = excluded.lengthened_score,
				rep_min = excluded.rep_min,
				rep_max = excluded.rep_max,
				main_lift = excluded.main_lift,
				has_weighted_variant = excluded.has_weighted_variant,
				contraindications = excluded.contraindications`,
		ex.ID,
		ex.Name,
		arrays[0],
		arrays[1],
		arrays[2],
		arrays[3],
		ex.SFRScore,
		ex.LengthenedScore,
		ex.RepRange.Min,
		ex.RepRange.Max,
		utils.BoolToInt(ex.MainLiftEligible),
		utils.BoolToInt(ex.HasWeightedVariant),
		arrays[4],
		formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("Failed to save exercise %s: %w", ex.Name, err)
	}
	return nil
}

// nonNil turns nil slices into empty ones so they encode as [].
func nonNil(v any) any {
	switch x := v.(type) {
	case []string:
		if x == nil {
			return []string{}
		}
	case []models.SessionIntent:
		if x == nil {
			return []models.SessionIntent{}
		}
	case []models.ExerciseMuscle:
		if x == nil {
			return []models.ExerciseMuscle{}
		}
	case []models.Equipment:
		if x == nil {
			return []models.Equipment{}
		}
	}
	return v
}

// ListExercises returns the whole library ordered by name.
func (s *Storage) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+exerciseColumns+` FROM exercises ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("Failed to query exercises: %w", err)
	}
	defer rows.Close()

	var out []models.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func (s *Storage) GetExerciseByID(ctx context.Context, id string) (*models.Exercise, error) {
	return s.getExercise(ctx, "id", id)
}

func (s *Storage) GetExerciseByName(ctx context.Context, name string) (*models.Exercise, error) {
	return s.getExercise(ctx, "name", name)
}

func (s *Storage) getExercise(ctx context.Context, column, value string) (*models.Exercise, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE `+column+` = ?`, value)
	ex, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("exercise %q: %w", value, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExercise(sc scanner) (models.Exercise, error) {
	var (
		ex                                              models.Exercise
		patterns, tags, muscles, equipment, contraindic string
		main, weighted                                  int
	)
	err := sc.Scan(
		&ex.ID,
		&ex.Name,
		&patterns,
		&tags,
		&muscles,
		&equipment,
		&ex.SFRScore,
		&ex.LengthenedScore,
		&ex.RepRange.Min,
		&ex.RepRange.Max,
		&main,
		&weighted,
		&contraindic,
	)
	if err != nil {
		return ex, err
	}
	ex.MainLiftEligible = main != 0
	ex.HasWeightedVariant = weighted != 0

	for _, f := range []struct {
		raw string
		dst any
	}{
		{patterns, &ex.MovementPatterns},
		{tags, &ex.SplitTags},
		{muscles, &ex.Muscles},
		{equipment, &ex.Equipment},
		{contraindic, &ex.Contraindications},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return ex, fmt.Errorf("Failed to decode exercise %s: %w", ex.Name, err)
		}
	}
	return ex, nil
}
