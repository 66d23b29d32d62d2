package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/lifecycle"
	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/selection"
	"github.com/misterclayt0n/mesocoach/internal/volume"
)

// Each Resolve function settles one setting. Precedence, highest first:
// the training block's own override, the config file, the built-in default.

// ResolveRIRBands merges the week table. Invalid bands (Min > Max or
// negative) are skipped at each level.
func ResolveRIRBands(block, file map[int]models.RIRBand) map[int]models.RIRBand {
	out := lifecycle.DefaultRIRBands()
	for _, layer := range []map[int]models.RIRBand{file, block} {
		for week, b := range layer {
			if week < 1 || week >= lifecycle.DeloadWeek || b.Min < 0 || b.Min > b.Max {
				continue
			}
			out[week] = b
		}
	}
	return out
}

// RIRBands parses the config file's [engine.rir] table, keyed by week number.
func (c *Config) RIRBands() (map[int]models.RIRBand, error) {
	out := make(map[int]models.RIRBand, len(c.Engine.RIR))
	for k, b := range c.Engine.RIR {
		week, err := strconv.Atoi(strings.TrimPrefix(k, "week"))
		if err != nil {
			return nil, fmt.Errorf("Failed to parse rir week %q: %w", k, err)
		}
		out[week] = b
	}
	return out, nil
}

// ResolveWeights returns the file weights when present and valid.
func ResolveWeights(file *selection.Weights) (selection.Weights, error) {
	if file == nil {
		return selection.DefaultWeights(), nil
	}
	if err := file.Validate(); err != nil {
		return selection.DefaultWeights(), fmt.Errorf("invalid [engine.weights]: %w", err)
	}
	return *file, nil
}

// ResolveLandmarks overlays file landmarks on the default table. Unknown
// muscle names are kept so lookups for them stop warning.
func ResolveLandmarks(file map[string]models.Landmark) map[models.Muscle]models.Landmark {
	out := volume.DefaultLandmarks()
	for name, lm := range file {
		if lm.MEV < 0 || lm.MAV < lm.MEV || lm.MRV < lm.MAV {
			continue
		}
		out[models.Muscle(strings.ToLower(name))] = lm
	}
	return out
}

// ResolveDays converts a day count to a duration, falling back to def.
func ResolveDays(days int, def time.Duration) time.Duration {
	if days > 0 {
		return time.Duration(days) * 24 * time.Hour
	}
	return def
}

// ResolveInt returns v when positive, def otherwise.
func ResolveInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
