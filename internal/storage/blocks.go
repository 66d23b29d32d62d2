package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/lifecycle"
	"github.com/misterclayt0n/mesocoach/internal/models"
)

var ErrActiveBlock = errors.New("an unfinished training block already exists")

// blockSettings is the JSON stored in training_blocks.settings.
type blockSettings struct {
	RIRBands  map[int]models.RIRBand `json:"rir_bands,omitempty"`
	CoreRoles []storedRole           `json:"core_roles,omitempty"`
}

type storedRole struct {
	ExerciseID string `json:"exercise_id"`
	Intent     string `json:"intent,omitempty"`
	Role       string `json:"role"`
}

const blockColumns = `id, user_id, number, state, accumulation_sessions_completed,
	deload_sessions_completed, sessions_per_week, duration_weeks, settings, started_at`

// ActiveBlock returns the user's unfinished block, or nil when there is none.
func (s *Storage) ActiveBlock(ctx context.Context, userID string) (*models.TrainingBlock, error) {
	return activeBlock(ctx, s.DB, userID)
}

func activeBlock(ctx context.Context, q querier, userID string) (*models.TrainingBlock, error) {
	completed, _ := blockStateVocab.encode(models.BlockCompleted)
	row := q.QueryRowContext(ctx,
		`SELECT `+blockColumns+` FROM training_blocks
		WHERE user_id = ? AND state != ?
		ORDER BY number DESC LIMIT 1`,
		userID, completed)
	b, err := scanBlock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Blocks lists every block for a user, newest first.
func (s *Storage) Blocks(ctx context.Context, userID string) ([]models.TrainingBlock, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+blockColumns+` FROM training_blocks WHERE user_id = ? ORDER BY number DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("Failed to query blocks: %w", err)
	}
	defer rows.Close()

	var out []models.TrainingBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// StartBlock creates the next block for a user. It fails with ErrActiveBlock
// if an unfinished block exists.
func (s *Storage) StartBlock(ctx context.Context, userID string, sessionsPerWeek int, now time.Time) (*models.TrainingBlock, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := activeBlock(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, fmt.Errorf("%w: block %d is %s", ErrActiveBlock, current.Number, current.State)
	}

	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(number) FROM training_blocks WHERE user_id = ?`, userID).Scan(&last); err != nil {
		return nil, fmt.Errorf("Failed to read block numbers: %w", err)
	}

	b := lifecycle.NewBlock(userID, int(last.Int64)+1, sessionsPerWeek, now)
	if err := saveBlock(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Failed to commit transaction: %w", err)
	}
	return &b, nil
}

// ResetBlock puts the user's active block back to the start of accumulation.
func (s *Storage) ResetBlock(ctx context.Context, userID string) (*models.TrainingBlock, error) {
	b, err := s.ActiveBlock(ctx, userID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("active block for %q: %w", userID, ErrNotFound)
	}
	reset := lifecycle.Reset(*b)
	if err := saveBlock(ctx, s.DB, reset); err != nil {
		return nil, err
	}
	return &reset, nil
}

// SaveBlock inserts or replaces a block.
func (s *Storage) SaveBlock(ctx context.Context, b models.TrainingBlock) error {
	return saveBlock(ctx, s.DB, b)
}

func saveBlock(ctx context.Context, q querier, b models.TrainingBlock) error {
	state, err := blockStateVocab.encode(b.State)
	if err != nil {
		return err
	}
	settings := blockSettings{RIRBands: b.RIRBands}
	for _, r := range b.CoreRoles {
		role, err := roleVocab.encode(r.Role)
		if err != nil {
			return err
		}
		intent, err := intentVocab.optional(r.Intent)
		if err != nil {
			return err
		}
		sr := storedRole{ExerciseID: r.ExerciseID, Role: role}
		if intent != nil {
			sr.Intent = intent.(string)
		}
		settings.CoreRoles = append(settings.CoreRoles, sr)
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("Failed to encode block settings: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO training_blocks (`+blockColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				state = excluded.state,
				accumulation_sessions_completed = excluded.accumulation_sessions_completed,
				deload_sessions_completed = excluded.deload_sessions_completed,
				sessions_per_week = excluded.sessions_per_week,
				duration_weeks = excluded.duration_weeks,
				settings = excluded.settings`,
		b.ID,
		b.UserID,
		b.Number,
		state,
		b.AccumulationSessionsCompleted,
		b.DeloadSessionsCompleted,
		b.SessionsPerWeek,
		b.DurationWeeks,
		string(raw),
		formatTime(b.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("Failed to save block %d: %w", b.Number, err)
	}
	return nil
}

func scanBlock(sc scanner) (models.TrainingBlock, error) {
	var (
		b                    models.TrainingBlock
		state, raw, startStr string
	)
	err := sc.Scan(
		&b.ID,
		&b.UserID,
		&b.Number,
		&state,
		&b.AccumulationSessionsCompleted,
		&b.DeloadSessionsCompleted,
		&b.SessionsPerWeek,
		&b.DurationWeeks,
		&raw,
		&startStr,
	)
	if err != nil {
		return b, err
	}
	if b.State, err = blockStateVocab.decode(state); err != nil {
		return b, err
	}
	if b.StartedAt, err = parseTime(startStr); err != nil {
		return b, err
	}

	var settings blockSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return b, fmt.Errorf("Failed to decode block settings: %w", err)
	}
	b.RIRBands = settings.RIRBands
	for _, sr := range settings.CoreRoles {
		ra := models.RoleAssignment{ExerciseID: sr.ExerciseID}
		if ra.Role, err = roleVocab.decode(sr.Role); err != nil {
			return b, err
		}
		if sr.Intent != "" {
			if ra.Intent, err = intentVocab.decode(sr.Intent); err != nil {
				return b, err
			}
		}
		b.CoreRoles = append(b.CoreRoles, ra)
	}
	return b, nil
}
