// Package selection builds the scoring problem for a session and solves it
// with a bounded beam search.
package selection

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/cache"
	"github.com/misterclayt0n/mesocoach/internal/lifecycle"
	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/volume"
)

const (
	PainSeverityThreshold = 2
	PainWindow            = 7 * 24 * time.Hour

	MainLiftSetCap  = 5
	AccessorySetCap = 4

	DefaultMinExercises      = 3
	DefaultMaxExercises      = 6
	TemplateMaxExercises     = 8
	DefaultMinMainLifts      = 1
	DefaultMaxMainLifts      = 3
	DefaultMinAccessories    = 2
	DefaultSessionsPerMuscle = 2

	// DirectSetCeiling caps direct weekly sets per muscle when allocating.
	DirectSetCeiling = 12
)

// Constraints are the hard limits a selection must respect.
type Constraints struct {
	VolumeFloor    map[models.Muscle]float64
	VolumeCeiling  map[models.Muscle]float64
	PainConflicts  map[string][]string
	UserAvoids     map[string]bool
	Equipment      map[models.Equipment]bool
	MinExercises   int
	MaxExercises   int
	MinMainLifts   int
	MaxMainLifts   int
	MinAccessories int
	// Demoted exercises are main-lift eligible in the library but may only
	// be used as accessories for this objective.
	Demoted map[string]bool
}

// VolumeContext holds weekly maps restricted to the intent's muscles.
type VolumeContext struct {
	Target          map[models.Muscle]float64
	Actual          map[models.Muscle]float64
	EffectiveActual map[models.Muscle]float64
	// SessionsRemaining is how many more sessions this week are expected to
	// hit each muscle, including this one.
	SessionsRemaining map[models.Muscle]int
}

// Continuity is the carry-over from the last performed session of the same intent.
type Continuity struct {
	SourceSessionID string
	SourceDate      time.Time
	ElapsedWeeks    int
	ExerciseIDs     []string
	MinSets         map[string]int
	MainLifts       map[string]bool
}

// Objective is everything the optimizer needs, frozen for one run.
type Objective struct {
	Intent      models.SessionIntent
	Muscles     []models.Muscle
	Goal        models.Goal
	Week        int
	Deload      bool
	Constraints Constraints
	Weights     Weights
	Volume      VolumeContext
	Rotation    map[string]models.ExerciseExposure
	// SRA is the recovered fraction (0-1) per muscle.
	SRA        map[models.Muscle]float64
	Favorites  map[string]bool
	Continuity *Continuity
	CoreRoles  map[string]models.ExerciseRole
	Pool       []models.Exercise
}

// BuildInput is the immutable snapshot the builder reads.
type BuildInput struct {
	Intent          models.SessionIntent
	BodyParts       []models.Muscle
	Goal            models.Goal
	Block           models.TrainingBlock
	Landmarks       *volume.Landmarks
	Library         []models.Exercise
	History         []models.WorkoutHistoryEntry
	Exposure        map[string]models.ExerciseExposure
	PainFlags       []models.PainFlag
	Preferences     models.Preferences
	Equipment       []models.Equipment
	TemplateContext bool
	SessionMinutes  int
	Weights         Weights
	Lookback        time.Duration
	// SessionsPerMuscle is how many sessions a week should hit each muscle.
	SessionsPerMuscle int
	Now               time.Time
	Pool              *cache.PoolCache
	Log               *slog.Logger
}

// BuildObjective assembles the selection problem. It never fails: an empty
// pool is reported by the optimizer.
func BuildObjective(in BuildInput) *Objective {
	if in.Landmarks == nil {
		in.Landmarks = volume.NewLandmarks(nil, in.Log)
	}
	if in.Weights.Sum() == 0 {
		in.Weights = DefaultWeights()
	}
	if in.SessionsPerMuscle <= 0 {
		in.SessionsPerMuscle = DefaultSessionsPerMuscle
	}

	library := make(map[string]models.Exercise, len(in.Library))
	for _, ex := range in.Library {
		library[ex.ID] = ex
	}

	week := lifecycle.CurrentWeek(in.Block)
	deload := lifecycle.IsDeload(in.Block)
	muscles := IntentMuscles(in.Intent, in.BodyParts)

	obj := &Objective{
		Intent:    in.Intent,
		Muscles:   muscles,
		Goal:      in.Goal,
		Week:      week,
		Deload:    deload,
		Weights:   in.Weights,
		Favorites: map[string]bool{},
		CoreRoles: map[string]models.ExerciseRole{},
	}

	for _, r := range in.Block.CoreRoles {
		if r.Intent == in.Intent || r.Intent == "" {
			obj.CoreRoles[r.ExerciseID] = r.Role
		}
	}

	obj.Pool = substitutionPool(in, muscles)
	obj.Constraints = buildConstraints(in, muscles, obj.Pool)

	window := volume.BlockWeekWindow(in.Block, in.History, in.Now, in.Lookback)
	weekly := volume.Aggregate(in.History, library, window)
	obj.Volume = buildVolumeContext(in, muscles, weekly)

	obj.Rotation = in.Exposure
	if obj.Rotation == nil {
		obj.Rotation = BuildExposure(in.History, library, in.Now)
	}
	obj.SRA = recovery(in, muscles, library)

	for _, id := range in.Preferences.FavoriteExerciseIDs {
		obj.Favorites[id] = true
	}
	obj.Continuity = FindContinuity(in.History, in.Intent, in.Block, library, obj.CoreRoles)
	if obj.Continuity != nil {
		for _, id := range obj.Continuity.ExerciseIDs {
			obj.Favorites[id] = true
		}
		obj.Weights = obj.Weights.ShiftTowardPreference()
	}
	return obj
}

// substitutionPool is the intent-relevant slice of the library for the
// available equipment. It is the part of the build that is shared across
// requests, so it goes through the cache.
func substitutionPool(in BuildInput, muscles []models.Muscle) []models.Exercise {
	key := poolKey(in.Intent, in.BodyParts, in.Equipment)
	return in.Pool.GetOrLoad(key, in.Now, func() []models.Exercise {
		set := make(map[models.Muscle]bool, len(muscles))
		for _, m := range muscles {
			set[m] = true
		}
		var out []models.Exercise
		for _, ex := range in.Library {
			if relevant(ex, in.Intent, set) {
				out = append(out, ex)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out
	})
}

func poolKey(intent models.SessionIntent, parts []models.Muscle, eq []models.Equipment) string {
	ps := make([]string, 0, len(parts))
	for _, p := range parts {
		ps = append(ps, string(p))
	}
	es := make([]string, 0, len(eq))
	for _, e := range eq {
		es = append(es, string(e))
	}
	sort.Strings(ps)
	sort.Strings(es)
	return string(intent) + "|" + strings.Join(ps, ",") + "|" + strings.Join(es, ",")
}

func buildConstraints(in BuildInput, muscles []models.Muscle, pool []models.Exercise) Constraints {
	c := Constraints{
		VolumeFloor:    map[models.Muscle]float64{},
		VolumeCeiling:  map[models.Muscle]float64{},
		PainConflicts:  PainConflicts(pool, in.PainFlags, in.Now),
		UserAvoids:     map[string]bool{},
		Equipment:      map[models.Equipment]bool{},
		MinExercises:   DefaultMinExercises,
		MaxExercises:   DefaultMaxExercises,
		MinMainLifts:   DefaultMinMainLifts,
		MaxMainLifts:   DefaultMaxMainLifts,
		MinAccessories: DefaultMinAccessories,
		Demoted:        map[string]bool{},
	}
	if in.TemplateContext {
		c.MaxExercises = TemplateMaxExercises
	}
	if in.SessionMinutes > 0 {
		// Roughly ten minutes per exercise including warm-ups.
		byTime := in.SessionMinutes / 10
		c.MaxExercises = max(c.MinExercises, min(c.MaxExercises, byTime))
	}

	for _, m := range muscles {
		lm := in.Landmarks.Lookup(m)
		c.VolumeFloor[m] = float64(lm.MEV)
		c.VolumeCeiling[m] = float64(lm.MRV)
	}
	for _, id := range in.Preferences.AvoidExerciseIDs {
		c.UserAvoids[id] = true
	}
	for _, eq := range in.Equipment {
		c.Equipment[eq] = true
	}
	for _, ex := range pool {
		if ShouldDemote(ex, in.Goal) {
			c.Demoted[ex.ID] = true
		}
	}
	return c
}

// ShouldDemote reports whether a main-lift-eligible exercise must be treated
// as an accessory: strength goals need a loadable main lift.
func ShouldDemote(ex models.Exercise, goal models.Goal) bool {
	return goal.StrengthOriented() && ex.MainLiftEligible && ex.BodyweightOnly() && !ex.HasWeightedVariant
}

// PainConflicts maps exercise ids to the recent pain zones they are
// contraindicated for. Only flags at or above PainSeverityThreshold within
// PainWindow of now count.
func PainConflicts(pool []models.Exercise, flags []models.PainFlag, now time.Time) map[string][]string {
	zones := map[string]bool{}
	for _, f := range flags {
		if f.Severity < PainSeverityThreshold {
			continue
		}
		if !f.At.IsZero() && (now.Sub(f.At) > PainWindow || f.At.After(now)) {
			continue
		}
		zones[strings.ToLower(strings.TrimSpace(f.Zone))] = true
	}

	out := map[string][]string{}
	if len(zones) == 0 {
		return out
	}
	for _, ex := range pool {
		for _, tag := range ex.Contraindications {
			z := strings.ToLower(strings.TrimSpace(tag))
			if zones[z] {
				out[ex.ID] = append(out[ex.ID], z)
			}
		}
	}
	return out
}

func buildVolumeContext(in BuildInput, muscles []models.Muscle, weekly volume.Weekly) VolumeContext {
	targets := volume.Targets(in.Landmarks, muscles, in.Block)
	vc := VolumeContext{
		Target:            targets,
		Actual:            map[models.Muscle]float64{},
		EffectiveActual:   map[models.Muscle]float64{},
		SessionsRemaining: map[models.Muscle]int{},
	}
	for _, m := range muscles {
		vc.Actual[m] = weekly.Direct[m]
		vc.EffectiveActual[m] = weekly.Effective[m]
		vc.SessionsRemaining[m] = max(1, in.SessionsPerMuscle-weekly.Sessions[m])
	}
	return vc
}

func recovery(in BuildInput, muscles []models.Muscle, library map[string]models.Exercise) map[models.Muscle]float64 {
	last := volume.LastTrained(in.History, library)
	out := make(map[models.Muscle]float64, len(muscles))
	for _, m := range muscles {
		t, ok := last[m]
		if !ok || t.After(in.Now) {
			out[m] = 1
			continue
		}
		sra := in.Landmarks.Lookup(m).SRAHours
		if sra <= 0 {
			out[m] = 1
			continue
		}
		out[m] = min(1, in.Now.Sub(t).Hours()/float64(sra))
	}
	return out
}
