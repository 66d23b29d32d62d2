package storage

import (
	"context"
	"errors"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/engine"
	"github.com/misterclayt0n/mesocoach/internal/selection"
)

// HistoryWindow is how far back a snapshot reads sessions. It covers the
// 12-week exposure counts plus a full block.
const HistoryWindow = 16 * 7 * 24 * time.Hour

var _ engine.Source = (*Storage)(nil)

// Snapshot reads everything a generation run needs for one user. A user with
// no profile gets a snapshot without one and the engine reports the missing
// context.
func (s *Storage) Snapshot(ctx context.Context, userID string) (*engine.Snapshot, error) {
	snap := &engine.Snapshot{}

	pf, err := s.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, err
	default:
		snap.Profile = &pf.Profile
		snap.Goals = &pf.Goals
		snap.Constraints = &pf.Constraints
		snap.Preferences = pf.Preferences
	}

	if snap.Library, err = s.ListExercises(ctx); err != nil {
		return nil, err
	}
	if snap.History, err = s.History(ctx, userID, s.now().Add(-HistoryWindow)); err != nil {
		return nil, err
	}
	if snap.Readiness, err = s.LatestReadiness(ctx, userID); err != nil {
		return nil, err
	}
	if snap.PainFlags, err = s.RecentPainFlags(ctx, userID, s.now().Add(-selection.PainWindow)); err != nil {
		return nil, err
	}
	if snap.Block, err = s.ActiveBlock(ctx, userID); err != nil {
		return nil, err
	}
	return snap, nil
}
