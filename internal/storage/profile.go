package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

// SaveProfile stores the profile, goals, constraints, and preferences of one user.
func (s *Storage) SaveProfile(ctx context.Context, pf models.ProfileFile) error {
	userID := pf.Profile.UserID
	if userID == "" {
		return errors.New("profile has no user_id")
	}
	if pf.Constraints.DaysPerWeek < 1 || pf.Constraints.DaysPerWeek > 7 {
		return fmt.Errorf("days_per_week %d out of range 1-7", pf.Constraints.DaysPerWeek)
	}

	goal, err := goalVocab.encode(pf.Goals.Primary)
	if err != nil {
		return err
	}
	secondary, err := goalVocab.optional(pf.Goals.Secondary)
	if err != nil {
		return err
	}
	split, err := splitVocab.optional(pf.Constraints.Split)
	if err != nil {
		return err
	}

	arrays := make([]string, 0, 4)
	for _, v := range []any{
		nonNil(pf.Profile.Injuries),
		nonNil(pf.Constraints.Equipment),
		nonNil(pf.Preferences.FavoriteExerciseIDs),
		nonNil(pf.Preferences.AvoidExerciseIDs),
	} {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("Failed to encode profile: %w", err)
		}
		arrays = append(arrays, string(b))
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO profiles
			(user_id, name, training_age_years, injuries, goal_primary, goal_secondary,
			 days_per_week, session_minutes, equipment, split, favorites, avoids, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				name = excluded.name,
				training_age_years = excluded.training_age_years,
				injuries = excluded.injuries,
				goal_primary = excluded.goal_primary,
				goal_secondary = excluded.goal_secondary,
				days_per_week = excluded.days_per_week,
				session_minutes = excluded.session_minutes,
				equipment = excluded.equipment,
				split = excluded.split,
				favorites = excluded.favorites,
				avoids = excluded.avoids,
				updated_at = excluded.updated_at`,
		userID,
		pf.Profile.Name,
		pf.Profile.TrainingAgeYears,
		arrays[0],
		goal,
		secondary,
		pf.Constraints.DaysPerWeek,
		pf.Constraints.SessionMinutes,
		arrays[1],
		split,
		arrays[2],
		arrays[3],
		formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("Failed to save profile: %w", err)
	}
	return nil
}

// GetProfile returns ErrNotFound when the user has not been initialized.
func (s *Storage) GetProfile(ctx context.Context, userID string) (*models.ProfileFile, error) {
	var (
		pf                                     models.ProfileFile
		injuries, equipment, favorites, avoids string
		goal                                   string
		secondary, split                       sql.NullString
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT user_id, name, training_age_years, injuries, goal_primary, goal_secondary,
			days_per_week, session_minutes, equipment, split, favorites, avoids
		FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(
		&pf.Profile.UserID,
		&pf.Profile.Name,
		&pf.Profile.TrainingAgeYears,
		&injuries,
		&goal,
		&secondary,
		&pf.Constraints.DaysPerWeek,
		&pf.Constraints.SessionMinutes,
		&equipment,
		&split,
		&favorites,
		&avoids,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile for %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Failed to load profile: %w", err)
	}

	if pf.Goals.Primary, err = goalVocab.decode(goal); err != nil {
		return nil, err
	}
	if secondary.Valid {
		if pf.Goals.Secondary, err = goalVocab.decode(secondary.String); err != nil {
			return nil, err
		}
	}
	if split.Valid {
		if pf.Constraints.Split, err = splitVocab.decode(split.String); err != nil {
			return nil, err
		}
	}

	for _, f := range []struct {
		raw string
		dst any
	}{
		{injuries, &pf.Profile.Injuries},
		{equipment, &pf.Constraints.Equipment},
		{favorites, &pf.Preferences.FavoriteExerciseIDs},
		{avoids, &pf.Preferences.AvoidExerciseIDs},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("Failed to decode profile: %w", err)
		}
	}
	return &pf, nil
}
