package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/misterclayt0n/mesocoach/internal/lifecycle"
	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/utils"
)

var ErrNoActiveBlock = errors.New("no active training block")

// RecordSession stores a session without touching any block. Used for
// imported and manually logged sessions outside a mesocycle.
func (s *Storage) RecordSession(ctx context.Context, entry models.WorkoutHistoryEntry) (string, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("Failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := insertSession(ctx, tx, entry)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("Failed to commit transaction: %w", err)
	}
	return id, nil
}

// RecordSessionAndAdvance stores a session against the user's active block
// and advances the block's lifecycle. The block update, the successor block
// (if any), and the session rows commit together or not at all.
//
// Skipped sessions are stored but do not advance the block.
func (s *Storage) RecordSessionAndAdvance(ctx context.Context, entry models.WorkoutHistoryEntry, now time.Time) (lifecycle.Transition, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return lifecycle.Transition{}, fmt.Errorf("Failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	block, err := activeBlock(ctx, tx, entry.UserID)
	if err != nil {
		return lifecycle.Transition{}, err
	}
	if block == nil {
		return lifecycle.Transition{}, fmt.Errorf("%w for %q", ErrNoActiveBlock, entry.UserID)
	}

	entry.BlockID = block.ID
	entry.BlockWeek = lifecycle.CurrentWeek(*block)

	t := lifecycle.Transition{Block: *block, From: block.State, To: block.State, NoOp: true, Note: "session not performed; block unchanged"}
	if entry.Status.Performed() {
		t = lifecycle.Advance(*block, now)
		if err := saveBlock(ctx, tx, t.Block); err != nil {
			return t, err
		}
		if t.Successor != nil {
			if err := saveBlock(ctx, tx, *t.Successor); err != nil {
				return t, err
			}
		}
	}

	if _, err := insertSession(ctx, tx, entry); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, fmt.Errorf("Failed to commit transaction: %w", err)
	}

	if t.From != t.To {
		s.log.Info("block transition", "block", t.Block.Number, "from", t.From, "to", t.To)
	}
	if t.NoOp && entry.Status.Performed() {
		s.log.Warn("session recorded against a completed block", "block", t.Block.Number)
	}
	return t, nil
}

func insertSession(ctx context.Context, q querier, entry models.WorkoutHistoryEntry) (string, error) {
	if entry.UserID == "" {
		return "", errors.New("session has no user_id")
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	status, err := statusVocab.encode(entry.Status)
	if err != nil {
		return "", err
	}
	intent, err := intentVocab.encode(entry.Intent)
	if err != nil {
		return "", err
	}
	prov, err := provenanceVocab.encode(entry.Provenance)
	if err != nil {
		return "", err
	}

	var blockID, blockWeek any
	if entry.BlockID != "" {
		blockID, blockWeek = entry.BlockID, entry.BlockWeek
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO workout_sessions (id, user_id, date, status, intent, provenance, block_id, block_week)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, formatTime(entry.Date), status, intent, prov, blockID, blockWeek,
	)
	if err != nil {
		return "", fmt.Errorf("Failed to insert session: %w", err)
	}

	for pos, pe := range entry.Exercises {
		seID := uuid.New().String()
		_, err := q.ExecContext(ctx,
			`INSERT INTO session_exercises (id, session_id, position, exercise_id, name, is_main_lift)
				VALUES (?, ?, ?, ?, ?, ?)`,
			seID, entry.ID, pos, pe.ExerciseID, pe.Name, utils.BoolToInt(pe.IsMainLift),
		)
		if err != nil {
			return "", fmt.Errorf("Failed to insert session exercise %s: %w", pe.ExerciseID, err)
		}

		for i, set := range pe.Sets {
			idx := set.Index
			if idx == 0 {
				idx = i + 1
			}
			var rpe any
			if set.RPE != nil {
				rpe = *set.RPE
			}
			_, err := q.ExecContext(ctx,
				`INSERT INTO performed_sets (id, session_exercise_id, set_index, reps, load, rpe, skipped)
					VALUES (?, ?, ?, ?, ?, ?, ?)`,
				uuid.New().String(), seID, idx, set.Reps, set.Load, rpe, utils.BoolToInt(set.Skipped),
			)
			if err != nil {
				return "", fmt.Errorf("Failed to insert set %d of %s: %w", idx, pe.ExerciseID, err)
			}
		}
	}
	return entry.ID, nil
}

// History returns the user's sessions on or after since, newest first.
func (s *Storage) History(ctx context.Context, userID string, since time.Time) ([]models.WorkoutHistoryEntry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT ws.id, ws.date, ws.status, ws.intent, ws.provenance, ws.block_id, ws.block_week,
			se.id, se.exercise_id, se.name, se.is_main_lift,
			ps.set_index, ps.reps, ps.load, ps.rpe, ps.skipped
		FROM workout_sessions ws
		LEFT JOIN session_exercises se ON se.session_id = ws.id
		LEFT JOIN performed_sets ps ON ps.session_exercise_id = se.id
		WHERE ws.user_id = ? AND ws.date >= ?
		ORDER BY ws.date DESC, ws.id, se.position, ps.set_index`,
		userID, formatTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("Failed to query history: %w", err)
	}
	defer rows.Close()

	var (
		out    []models.WorkoutHistoryEntry
		lastSE string
	)
	for rows.Next() {
		var (
			id, date, status, intent, prov string
			blockID                        sql.NullString
			blockWeek                      sql.NullInt64
			seID, exID, exName             sql.NullString
			isMain                         sql.NullInt64
			setIdx, reps, skipped          sql.NullInt64
			load, rpe                      sql.NullFloat64
		)
		if err := rows.Scan(&id, &date, &status, &intent, &prov, &blockID, &blockWeek,
			&seID, &exID, &exName, &isMain,
			&setIdx, &reps, &load, &rpe, &skipped); err != nil {
			return nil, fmt.Errorf("Failed to scan history row: %w", err)
		}

		if len(out) == 0 || out[len(out)-1].ID != id {
			entry := models.WorkoutHistoryEntry{ID: id, UserID: userID, BlockID: blockID.String, BlockWeek: int(blockWeek.Int64)}
			if entry.Date, err = parseTime(date); err != nil {
				return nil, err
			}
			if entry.Status, err = statusVocab.decode(status); err != nil {
				return nil, err
			}
			if entry.Intent, err = intentVocab.decode(intent); err != nil {
				return nil, err
			}
			if entry.Provenance, err = provenanceVocab.decode(prov); err != nil {
				return nil, err
			}
			out = append(out, entry)
			lastSE = ""
		}
		if !seID.Valid {
			continue
		}

		cur := &out[len(out)-1]
		if seID.String != lastSE {
			cur.Exercises = append(cur.Exercises, models.PerformedExercise{
				ExerciseID: exID.String,
				Name:       exName.String,
				IsMainLift: isMain.Int64 != 0,
			})
			lastSE = seID.String
		}
		if !setIdx.Valid {
			continue
		}

		pe := &cur.Exercises[len(cur.Exercises)-1]
		set := models.PerformedSet{
			Index:   int(setIdx.Int64),
			Reps:    int(reps.Int64),
			Load:    load.Float64,
			Skipped: skipped.Int64 != 0,
		}
		if rpe.Valid {
			v := rpe.Float64
			set.RPE = &v
		}
		pe.Sets = append(pe.Sets, set)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and its exercises and sets. Block counters
// are left alone.
func (s *Storage) DeleteSession(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM workout_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("Failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	return nil
}
