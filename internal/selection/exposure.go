package selection

import (
	"sort"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/utils"
)

const (
	trendSessions = 6
	// trendSlopeFraction is the per-session slope, as a share of mean e1RM,
	// that separates improving/declining from stalled.
	trendSlopeFraction = 0.005
	weekSpan           = 7 * 24 * time.Hour
)

type e1rmPoint struct {
	at   time.Time
	e1rm float64
}

// BuildExposure derives the exposure map, keyed by exercise name, from
// performed history. Exercises not in the library are keyed by the logged name.
func BuildExposure(history []models.WorkoutHistoryEntry, library map[string]models.Exercise, now time.Time) map[string]models.ExerciseExposure {
	points := map[string][]e1rmPoint{}
	out := map[string]models.ExerciseExposure{}

	for _, h := range history {
		if !h.Status.Performed() || h.Date.After(now) {
			continue
		}
		for _, pe := range h.Exercises {
			name := pe.Name
			if ex, ok := library[pe.ExerciseID]; ok {
				name = ex.Name
			}
			if name == "" {
				continue
			}

			exp := out[name]
			exp.ExerciseName = name
			if h.Date.After(exp.LastUsed) {
				exp.LastUsed = h.Date
			}
			age := now.Sub(h.Date)
			if age <= 4*weekSpan {
				exp.UsageCount4Wk++
			}
			if age <= 8*weekSpan {
				exp.UsageCount8Wk++
			}
			if age <= 12*weekSpan {
				exp.UsageCount12Wk++
			}
			out[name] = exp

			best := 0.0
			for _, s := range pe.WorkingSets() {
				if v := utils.CalculateEpley1RM(s.Load, s.Reps); v > best {
					best = v
				}
			}
			if best > 0 {
				points[name] = append(points[name], e1rmPoint{at: h.Date, e1rm: best})
			}
		}
	}

	for name, exp := range out {
		exp.WeeksSinceUse = now.Sub(exp.LastUsed).Hours() / (24 * 7)
		exp.Trend = classifyTrend(points[name])
		out[name] = exp
	}
	return out
}

// classifyTrend fits a least-squares line through the last few sessions' e1RM.
func classifyTrend(pts []e1rmPoint) models.Trend {
	sort.Slice(pts, func(i, j int) bool { return pts[i].at.Before(pts[j].at) })
	if len(pts) > trendSessions {
		pts = pts[len(pts)-trendSessions:]
	}
	if len(pts) < 2 {
		return models.TrendStalled
	}

	n := float64(len(pts))
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range pts {
		x := float64(i)
		sumX += x
		sumY += p.e1rm
		sumXY += x * p.e1rm
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return models.TrendStalled
	}
	slope := (n*sumXY - sumX*sumY) / denom
	mean := sumY / n

	switch {
	case slope > trendSlopeFraction*mean:
		return models.TrendImproving
	case slope < -trendSlopeFraction*mean:
		return models.TrendDeclining
	default:
		return models.TrendStalled
	}
}
