// Package volume turns landmark tables and training history into weekly
// per-muscle set targets, actuals, and deload signals.
package volume

import (
	"io"
	"log/slog"
	"sort"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

// FallbackLandmark is used for any muscle missing from the table.
var FallbackLandmark = models.Landmark{MEV: 8, MAV: 12, MRV: 16, SRAHours: 48}

var defaultLandmarks = map[models.Muscle]models.Landmark{
	models.MuscleChest:      {MEV: 8, MAV: 16, MRV: 22, SRAHours: 48},
	models.MuscleFrontDelts: {MEV: 0, MAV: 8, MRV: 12, SRAHours: 48},
	models.MuscleSideDelts:  {MEV: 8, MAV: 18, MRV: 26, SRAHours: 36},
	models.MuscleRearDelts:  {MEV: 6, MAV: 16, MRV: 26, SRAHours: 36},
	models.MuscleTriceps:    {MEV: 6, MAV: 12, MRV: 18, SRAHours: 48},
	models.MuscleLats:       {MEV: 10, MAV: 18, MRV: 24, SRAHours: 48},
	models.MuscleUpperBack:  {MEV: 8, MAV: 16, MRV: 24, SRAHours: 48},
	models.MuscleBiceps:     {MEV: 8, MAV: 16, MRV: 24, SRAHours: 36},
	models.MuscleForearms:   {MEV: 2, MAV: 8, MRV: 16, SRAHours: 36},
	models.MuscleQuads:      {MEV: 8, MAV: 14, MRV: 20, SRAHours: 72},
	models.MuscleHamstrings: {MEV: 6, MAV: 12, MRV: 18, SRAHours: 72},
	models.MuscleGlutes:     {MEV: 4, MAV: 10, MRV: 16, SRAHours: 72},
	models.MuscleCalves:     {MEV: 8, MAV: 14, MRV: 20, SRAHours: 36},
	models.MuscleAdductors:  {MEV: 4, MAV: 8, MRV: 14, SRAHours: 48},
	models.MuscleCore:       {MEV: 0, MAV: 12, MRV: 20, SRAHours: 36},
	models.MuscleLowerBack:  {MEV: 0, MAV: 6, MRV: 10, SRAHours: 72},
}

// DefaultLandmarks returns a copy of the built-in table.
func DefaultLandmarks() map[models.Muscle]models.Landmark {
	out := make(map[models.Muscle]models.Landmark, len(defaultLandmarks))
	for m, lm := range defaultLandmarks {
		out[m] = lm
	}
	return out
}

// Landmarks is a read-only lookup over a landmark table.
type Landmarks struct {
	table map[models.Muscle]models.Landmark
	log   *slog.Logger
}

func NewLandmarks(table map[models.Muscle]models.Landmark, log *slog.Logger) *Landmarks {
	if table == nil {
		table = DefaultLandmarks()
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Landmarks{table: table, log: log}
}

// Lookup never fails: unknown muscles get FallbackLandmark and a warning.
func (l *Landmarks) Lookup(m models.Muscle) models.Landmark {
	if lm, ok := l.table[m]; ok {
		return lm
	}
	l.log.Warn("unknown muscle group, using fallback landmark",
		"muscle", string(m),
		"mev", FallbackLandmark.MEV,
		"mav", FallbackLandmark.MAV,
		"mrv", FallbackLandmark.MRV,
	)
	return FallbackLandmark
}

func (l *Landmarks) Known(m models.Muscle) bool {
	_, ok := l.table[m]
	return ok
}

// Muscles lists the tracked muscles in a stable order.
func (l *Landmarks) Muscles() []models.Muscle {
	out := make([]models.Muscle, 0, len(l.table))
	for m := range l.table {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
