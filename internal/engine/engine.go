// Package engine runs one session generation: lifecycle and volume context,
// exercise selection, progression, deload, and autoregulation, over a
// snapshot fetched once at the start of the run.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/autoreg"
	"github.com/misterclayt0n/mesocoach/internal/cache"
	"github.com/misterclayt0n/mesocoach/internal/config"
	"github.com/misterclayt0n/mesocoach/internal/lifecycle"
	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/progression"
	"github.com/misterclayt0n/mesocoach/internal/selection"
	"github.com/misterclayt0n/mesocoach/internal/volume"
)

// ErrMissingContext means the snapshot lacks something generation cannot
// default: the profile, goals, constraints, or a usable intent.
var ErrMissingContext = errors.New("missing generation context")

// InjuryPainSeverity is the severity given to profile injuries when they are
// turned into pain flags.
const InjuryPainSeverity = selection.PainSeverityThreshold

// Snapshot is everything one run reads. It is never modified by the engine.
type Snapshot struct {
	Profile     *models.UserProfile
	Goals       *models.Goals
	Constraints *models.Constraints
	Preferences models.Preferences
	Library     []models.Exercise
	History     []models.WorkoutHistoryEntry
	// Exposure is keyed by exercise name. Nil means derive it from History.
	Exposure map[string]models.ExerciseExposure
	// Readiness is the latest signal and drives autoregulation only.
	Readiness *models.ReadinessSignal
	// PainFlags are the flags of every signal inside the pain window. Nil
	// means take them from Readiness.
	PainFlags []models.PainFlag
	// Block is the active training block, nil when none has been started.
	Block *models.TrainingBlock
}

// Source loads a snapshot for a user.
type Source interface {
	Snapshot(ctx context.Context, userID string) (*Snapshot, error)
}

type Request struct {
	UserID          string
	Intent          models.SessionIntent
	BodyParts       []models.Muscle
	TemplateContext bool
	Now             time.Time
}

// Result is a generated plan with everything that explains it.
type Result struct {
	Plan      models.WorkoutPlan    `json:"plan" yaml:"plan"`
	Selection *selection.Output     `json:"selection" yaml:"selection"`
	Receipts  []progression.Receipt `json:"receipts" yaml:"receipts"`
	Deload    models.DeloadDecision `json:"deload" yaml:"deload"`
	// DeloadReadiness covers every tracked muscle in the block week, not
	// just the ones this session trains.
	DeloadReadiness volume.DeloadReadiness      `json:"deload_readiness" yaml:"deload_readiness"`
	Cycle           models.CycleContextSnapshot `json:"cycle" yaml:"cycle"`
	Autoreg         autoreg.Result              `json:"autoregulation" yaml:"autoregulation"`
	Compliance      []volume.Compliance         `json:"compliance" yaml:"compliance"`
}

type Engine struct {
	src      Source
	pool     *cache.PoolCache
	settings Settings
	log      *slog.Logger
}

// New wires an engine. pool may be nil to disable the substitution cache.
func New(src Source, pool *cache.PoolCache, settings Settings, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{src: src, pool: pool, settings: settings, log: log}
}

// Generate fetches the user's snapshot once and runs generation over it.
func (e *Engine) Generate(ctx context.Context, req Request) (*Result, error) {
	snap, err := e.src.Snapshot(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load snapshot for %s: %w", req.UserID, err)
	}
	return Run(snap, req, e.settings, e.pool, e.log)
}

// Run is one deterministic generation over snap.
func Run(snap *Snapshot, req Request, settings Settings, pool *cache.PoolCache, log *slog.Logger) (*Result, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := validate(snap, req); err != nil {
		return nil, err
	}
	settings = settings.withDefaults()
	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	log = log.With("user", req.UserID, "intent", req.Intent)

	block, source := activeBlock(snap, req.UserID, now)
	week := lifecycle.CurrentWeek(block)

	landmarks := volume.NewLandmarks(settings.Landmarks, log)
	library := make(map[string]models.Exercise, len(snap.Library))
	for _, ex := range snap.Library {
		library[ex.ID] = ex
	}

	obj := selection.BuildObjective(selection.BuildInput{
		Intent:            req.Intent,
		BodyParts:         req.BodyParts,
		Goal:              snap.Goals.Primary,
		Block:             block,
		Landmarks:         landmarks,
		Library:           snap.Library,
		History:           snap.History,
		Exposure:          snap.Exposure,
		PainFlags:         painFlags(snap, now),
		Preferences:       snap.Preferences,
		Equipment:         snap.Constraints.Equipment,
		TemplateContext:   req.TemplateContext,
		SessionMinutes:    snap.Constraints.SessionMinutes,
		Weights:           settings.Weights,
		Lookback:          settings.Lookback,
		SessionsPerMuscle: settings.SessionsPerMuscle,
		Now:               now,
		Pool:              pool,
		Log:               log,
	})

	sel, err := selection.Optimize(obj, selection.Options{BeamWidth: settings.BeamWidth})
	if err != nil {
		return nil, fmt.Errorf("Failed to select exercises: %w", err)
	}

	weekly := volume.Aggregate(snap.History, library, volume.BlockWeekWindow(block, snap.History, now, settings.Lookback))
	readiness := deloadReadiness(weekly, sel, block, landmarks)
	decision := deloadDecision(snap, block, readiness, now)
	if decision.Active() {
		log.Info("deload in effect", "mode", decision.Mode, "scope", decision.Scope)
	} else if readiness.Recommended {
		log.Info("deload recommended at block end", "saturated", readiness.Saturated)
	}

	bands := config.ResolveRIRBands(block.RIRBands, settings.RIRBands)
	band := lifecycle.RIRTarget(block.State, week, bands)
	if decision.Mode == models.DeloadReactive {
		band = lifecycle.DeloadRIR
	}
	rpe := lifecycle.TargetRPE(band)

	res := &Result{Selection: sel, Deload: decision, DeloadReadiness: readiness}
	plan := models.WorkoutPlan{
		ID:          newPlanID(),
		UserID:      req.UserID,
		Intent:      req.Intent,
		GeneratedAt: now,
		BlockID:     block.ID,
		BlockWeek:   week,
	}

	for _, id := range sel.Selected {
		ex := library[id]
		role := sel.Rationale[id].Role
		main := role != models.RoleAccessory
		if main && obj.CoreRoles[id] == models.RoleCoreCompound {
			role = models.RoleCoreCompound
		}

		receipt := progression.Decide(progression.Input{
			Exercise: ex,
			MainLift: main,
			History:  snap.History,
			Deload:   decision,
			Now:      now,
			Window:   settings.RecencyWindow,
		})
		res.Receipts = append(res.Receipts, receipt)

		sets := sel.SetTargets[id]
		if decision.Mode == models.DeloadReactive {
			sets = reducedSets(sets, decision.ReductionPercent)
		}
		pe := plannedExercise(ex, role, sets, receipt, rpe)
		if main {
			plan.MainLifts = append(plan.MainLifts, pe)
		} else {
			plan.Accessories = append(plan.Accessories, pe)
		}
	}

	res.Autoreg = autoreg.Apply(plan, snap.Readiness, now, log)
	plan = res.Autoreg.Plan
	if res.Autoreg.Applied && !res.Autoreg.AlreadyApplied {
		scaled := map[string]bool{}
		for _, id := range res.Autoreg.ScaledExercises() {
			scaled[id] = true
		}
		for i := range res.Receipts {
			if scaled[res.Receipts[i].ExerciseID] {
				progression.MarkReadinessScaled(&res.Receipts[i], res.Autoreg.LoadFactor, res.Autoreg.Rationale)
			}
		}
	}

	plan.Warmup = warmups(plan.MainLifts, library)
	res.Plan = plan
	res.Compliance = volume.Report(obj.Volume.Actual, prescribedDirect(plan, library), obj.Volume.Target, landmarks)
	res.Cycle = models.CycleContextSnapshot{
		WeekInBlock: week,
		Phase:       phase(block),
		BlockType:   blockType(snap.Goals.Primary),
		IsDeload:    lifecycle.IsDeload(block) || decision.Mode == models.DeloadReactive,
		Source:      source,
	}

	log.Info("plan generated",
		"plan", plan.ID,
		"week", week,
		"main_lifts", len(plan.MainLifts),
		"accessories", len(plan.Accessories),
		"autoregulated", res.Autoreg.Applied)
	return res, nil
}

func validate(snap *Snapshot, req Request) error {
	switch {
	case snap == nil:
		return fmt.Errorf("%w: no snapshot", ErrMissingContext)
	case snap.Profile == nil:
		return fmt.Errorf("%w: user profile", ErrMissingContext)
	case snap.Goals == nil || snap.Goals.Primary == "":
		return fmt.Errorf("%w: goals", ErrMissingContext)
	case snap.Constraints == nil:
		return fmt.Errorf("%w: constraints", ErrMissingContext)
	case req.Intent == "":
		return fmt.Errorf("%w: session intent", ErrMissingContext)
	case req.Intent == models.IntentBodyPart && len(req.BodyParts) == 0:
		return fmt.Errorf("%w: body part intent without body parts", ErrMissingContext)
	}
	return nil
}

// activeBlock returns the snapshot's block, or a fresh default block when
// the user has none. The second value is the cycle source tag.
func activeBlock(snap *Snapshot, userID string, now time.Time) (models.TrainingBlock, string) {
	if snap.Block != nil {
		return *snap.Block, "block"
	}
	return lifecycle.NewBlock(userID, 1, snap.Constraints.DaysPerWeek, now), "default"
}

// painFlags merges readiness pain reports with standing profile injuries.
func painFlags(snap *Snapshot, now time.Time) []models.PainFlag {
	out := append([]models.PainFlag(nil), snap.PainFlags...)
	if snap.PainFlags == nil && snap.Readiness != nil {
		out = append(out, snap.Readiness.PainFlags...)
	}
	for _, zone := range snap.Profile.Injuries {
		out = append(out, models.PainFlag{Zone: zone, Severity: InjuryPainSeverity, At: now})
	}
	return out
}

// deloadReadiness projects the block week's effective sets with this
// session's added on top.
func deloadReadiness(weekly volume.Weekly, sel *selection.Output, block models.TrainingBlock, lms *volume.Landmarks) volume.DeloadReadiness {
	projected := make(map[models.Muscle]float64, len(weekly.Effective))
	for m, v := range weekly.Effective {
		projected[m] = v
	}
	for m, v := range sel.VolumeFilled {
		projected[m] += v
	}
	return volume.CheckDeloadReadiness(projected, lms, lifecycle.IsFinalAccumulationWeek(block))
}

func deloadDecision(snap *Snapshot, block models.TrainingBlock, readiness volume.DeloadReadiness, now time.Time) models.DeloadDecision {
	var fatigue *float64
	if _, fresh := autoreg.Fresh(snap.Readiness, now); fresh {
		f := autoreg.Score(*snap.Readiness).Overall
		fatigue = &f
	}
	return volume.DecideDeload(block, readiness, fatigue)
}

func phase(block models.TrainingBlock) string {
	if lifecycle.IsDeload(block) {
		return "deload"
	}
	return "accumulation"
}

func blockType(goal models.Goal) string {
	if goal.StrengthOriented() {
		return "strength"
	}
	return "hypertrophy"
}
