package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

// readinessData is the JSON body of a readiness_signals row.
type readinessData struct {
	Subjective    *models.Subjective    `json:"subjective,omitempty"`
	Physiological *models.Physiological `json:"physiological,omitempty"`
	Performance   *models.Performance   `json:"performance,omitempty"`
	PainFlags     []models.PainFlag     `json:"pain_flags,omitempty"`
}

// SaveReadiness stores a readiness signal and returns its id.
func (s *Storage) SaveReadiness(ctx context.Context, sig models.ReadinessSignal) (string, error) {
	if sig.UserID == "" {
		return "", errors.New("readiness signal has no user_id")
	}
	if sig.ID == "" {
		sig.ID = uuid.New().String()
	}
	if sig.At.IsZero() {
		sig.At = s.now()
	}
	if sub := sig.Subjective; sub != nil {
		for name, v := range map[string]int{
			"sleep":      sub.Sleep,
			"soreness":   sub.Soreness,
			"stress":     sub.Stress,
			"motivation": sub.Motivation,
		} {
			if v < 1 || v > 5 {
				return "", fmt.Errorf("%s score %d out of range 1-5", name, v)
			}
		}
	}
	for _, pf := range sig.PainFlags {
		if pf.Severity < 0 || pf.Severity > 3 {
			return "", fmt.Errorf("pain severity %d for %s out of range 0-3", pf.Severity, pf.Zone)
		}
	}

	raw, err := json.Marshal(readinessData{
		Subjective:    sig.Subjective,
		Physiological: sig.Physiological,
		Performance:   sig.Performance,
		PainFlags:     sig.PainFlags,
	})
	if err != nil {
		return "", fmt.Errorf("Failed to encode readiness signal: %w", err)
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO readiness_signals (id, user_id, at, data) VALUES (?, ?, ?, ?)`,
		sig.ID, sig.UserID, formatTime(sig.At), string(raw),
	)
	if err != nil {
		return "", fmt.Errorf("Failed to save readiness signal: %w", err)
	}
	return sig.ID, nil
}

// LatestReadiness returns the most recent signal, or nil when none is logged.
// Freshness is for the caller to judge.
func (s *Storage) LatestReadiness(ctx context.Context, userID string) (*models.ReadinessSignal, error) {
	var (
		sig     = models.ReadinessSignal{UserID: userID}
		at, raw string
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, at, data FROM readiness_signals
		WHERE user_id = ? ORDER BY at DESC LIMIT 1`,
		userID,
	).Scan(&sig.ID, &at, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Failed to load readiness signal: %w", err)
	}

	if sig.At, err = parseTime(at); err != nil {
		return nil, err
	}
	var data readinessData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("Failed to decode readiness signal: %w", err)
	}
	sig.Subjective = data.Subjective
	sig.Physiological = data.Physiological
	sig.Performance = data.Performance
	sig.PainFlags = data.PainFlags
	return &sig, nil
}

// RecentPainFlags returns the pain flags of every signal logged at or after
// since, oldest first. A flag without its own time takes its signal's.
func (s *Storage) RecentPainFlags(ctx context.Context, userID string, since time.Time) ([]models.PainFlag, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT at, data FROM readiness_signals
		WHERE user_id = ? AND at >= ? ORDER BY at`,
		userID, formatTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("Failed to query pain flags: %w", err)
	}
	defer rows.Close()

	out := []models.PainFlag{}
	for rows.Next() {
		var at, raw string
		if err := rows.Scan(&at, &raw); err != nil {
			return nil, fmt.Errorf("Failed to scan readiness signal: %w", err)
		}
		signalAt, err := parseTime(at)
		if err != nil {
			return nil, err
		}
		var data readinessData
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return nil, fmt.Errorf("Failed to decode readiness signal: %w", err)
		}
		for _, pf := range data.PainFlags {
			if pf.At.IsZero() {
				pf.At = signalAt
			}
			out = append(out, pf)
		}
	}
	return out, rows.Err()
}
