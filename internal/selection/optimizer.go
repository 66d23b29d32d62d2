package selection

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/volume"
)

var (
	ErrNoCompatibleExercises = errors.New("no compatible exercises")
	ErrUnsatisfiable         = errors.New("selection constraints cannot be satisfied")
)

const (
	DefaultBeamWidth = 6
	// DefaultMinMarginal is the weighted score an extra exercise must bring
	// once every minimum is met.
	DefaultMinMarginal = 0.4
)

type Options struct {
	BeamWidth   int
	MinMarginal float64
}

// Candidate is an exercise that passed the hard filters.
type Candidate struct {
	Exercise     models.Exercise
	MainEligible bool
	Forced       bool
	Static       SubScores
}

type Rationale struct {
	Score      float64             `json:"score" yaml:"score"`
	Components SubScores           `json:"components" yaml:"components"`
	Step       string              `json:"step" yaml:"step"`
	Role       models.ExerciseRole `json:"role" yaml:"role"`
}

type Rejection struct {
	ExerciseID string   `json:"exercise_id" yaml:"exercise_id"`
	Name       string   `json:"name" yaml:"name"`
	Reasons    []string `json:"reasons" yaml:"reasons"`
}

// Output is the optimizer's answer. MainLifts and Accessories partition Selected.
type Output struct {
	Selected      []string                  `json:"selected" yaml:"selected"`
	MainLifts     []string                  `json:"main_lifts" yaml:"main_lifts"`
	Accessories   []string                  `json:"accessories" yaml:"accessories"`
	SetTargets    map[string]int            `json:"set_targets" yaml:"set_targets"`
	Rationale     map[string]Rationale      `json:"rationale" yaml:"rationale"`
	VolumeFilled  map[models.Muscle]float64 `json:"volume_filled" yaml:"volume_filled"`
	VolumeDeficit map[models.Muscle]float64 `json:"volume_deficit" yaml:"volume_deficit"`
	Rejected      []Rejection               `json:"rejected" yaml:"rejected"`
}

type pick struct {
	idx   int
	role  models.ExerciseRole
	comps SubScores
	score float64
	step  string
}

type state struct {
	picks    []pick
	used     map[int]bool
	main     int
	acc      int
	score    float64
	filled   map[models.Muscle]float64
	patterns map[string]bool
}

func (s *state) key() string {
	parts := make([]string, 0, len(s.picks))
	for _, p := range s.picks {
		parts = append(parts, strconv.Itoa(p.idx)+":"+string(p.role))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (s *state) extend(p pick, c Candidate) *state {
	ns := &state{
		picks:    append(append([]pick(nil), s.picks...), p),
		used:     make(map[int]bool, len(s.used)+1),
		main:     s.main,
		acc:      s.acc,
		score:    s.score + p.score,
		filled:   make(map[models.Muscle]float64, len(s.filled)),
		patterns: make(map[string]bool, len(s.patterns)),
	}
	for k := range s.used {
		ns.used[k] = true
	}
	ns.used[p.idx] = true
	for k, v := range s.filled {
		ns.filled[k] = v
	}
	for k := range s.patterns {
		ns.patterns[k] = true
	}
	for _, mp := range c.Exercise.MovementPatterns {
		ns.patterns[mp] = true
	}
	if p.role == models.RoleAccessory {
		ns.acc++
	} else {
		ns.main++
	}
	return ns
}

type optimizer struct {
	obj   *Objective
	opts  Options
	cands []Candidate
}

// Optimize selects exercises and set counts for the objective. It is
// deterministic for a given objective.
func Optimize(obj *Objective, opts Options) (*Output, error) {
	if opts.BeamWidth <= 0 {
		opts.BeamWidth = DefaultBeamWidth
	}
	if opts.MinMarginal <= 0 {
		opts.MinMarginal = DefaultMinMarginal
	}

	o := &optimizer{obj: obj, opts: opts}
	out := &Output{
		SetTargets:    map[string]int{},
		Rationale:     map[string]Rationale{},
		VolumeFilled:  map[models.Muscle]float64{},
		VolumeDeficit: map[models.Muscle]float64{},
	}

	pool := append([]models.Exercise(nil), obj.Pool...)
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	for _, ex := range pool {
		if reasons := o.hardReasons(ex); len(reasons) > 0 {
			out.Rejected = append(out.Rejected, Rejection{ExerciseID: ex.ID, Name: ex.Name, Reasons: reasons})
			continue
		}
		o.cands = append(o.cands, o.candidate(ex))
	}
	if len(o.cands) == 0 {
		return out, fmt.Errorf("%w for %s: %d candidates filtered out", ErrNoCompatibleExercises, obj.Intent, len(out.Rejected))
	}

	seed, skipped := o.seed()
	out.Rejected = append(out.Rejected, skipped...)

	best := o.search(seed)
	if best == nil {
		c := obj.Constraints
		return out, fmt.Errorf("%w: need %d-%d exercises with %d-%d main lifts and %d accessories from %d candidates",
			ErrUnsatisfiable, c.MinExercises, c.MaxExercises, c.MinMainLifts, c.MaxMainLifts, c.MinAccessories, len(o.cands))
	}

	o.finish(best, out)
	return out, nil
}

func (o *optimizer) hardReasons(ex models.Exercise) []string {
	c := o.obj.Constraints
	var reasons []string
	if c.UserAvoids[ex.ID] {
		reasons = append(reasons, "on avoid list")
	}
	for _, zone := range c.PainConflicts[ex.ID] {
		reasons = append(reasons, "pain conflict: "+zone)
	}
	if len(c.Equipment) > 0 {
		for _, eq := range ex.Equipment {
			if eq != models.EquipmentBodyweight && !c.Equipment[eq] {
				reasons = append(reasons, "missing equipment: "+string(eq))
			}
		}
	}
	return reasons
}

func (o *optimizer) candidate(ex models.Exercise) Candidate {
	obj := o.obj
	demoted := obj.Constraints.Demoted[ex.ID]
	role := obj.CoreRoles[ex.ID]
	eligible := ex.MainLiftEligible || role == models.RoleCoreCompound || role == models.RoleMainLift
	if obj.Continuity != nil && obj.Continuity.MainLifts[ex.ID] {
		eligible = true
	}

	c := Candidate{
		Exercise:     ex,
		MainEligible: eligible && !demoted,
	}
	if obj.Continuity != nil {
		_, c.Forced = obj.Continuity.MinSets[ex.ID]
	}

	c.Static = SubScores{
		RotationNovelty: rotationNovelty(obj.Rotation, ex.Name),
		LengthenedBias:  unitScale(ex.LengthenedScore),
		SFREfficiency:   unitScale(ex.SFRScore),
		SRAReadiness:    sraReadiness(obj.SRA, ex),
	}
	if obj.Favorites[ex.ID] {
		c.Static.UserPreference = 1
	}
	return c
}

// roles lists the roles a candidate may take, preferred first.
func (o *optimizer) roles(c Candidate) []models.ExerciseRole {
	if !c.MainEligible {
		return []models.ExerciseRole{models.RoleAccessory}
	}
	if c.Forced && !o.obj.Continuity.MainLifts[c.Exercise.ID] {
		return []models.ExerciseRole{models.RoleAccessory, models.RoleMainLift}
	}
	return []models.ExerciseRole{models.RoleMainLift, models.RoleAccessory}
}

// fits reports whether st can take one more exercise in role and still reach
// every minimum with the slots left.
func (o *optimizer) fits(st *state, role models.ExerciseRole) bool {
	c := o.obj.Constraints
	main, acc := st.main, st.acc
	if role == models.RoleAccessory {
		acc++
	} else {
		main++
	}
	total := main + acc
	if total > c.MaxExercises || main > c.MaxMainLifts {
		return false
	}
	need := max(0, c.MinMainLifts-main) + max(0, c.MinAccessories-acc)
	need = max(need, c.MinExercises-total)
	return c.MaxExercises-total >= need
}

func (o *optimizer) satisfied(st *state) bool {
	c := o.obj.Constraints
	total := st.main + st.acc
	return total >= c.MinExercises && total <= c.MaxExercises &&
		st.main >= c.MinMainLifts && st.main <= c.MaxMainLifts &&
		st.acc >= c.MinAccessories
}

// seed places continuity favorites first, in the order they were performed.
func (o *optimizer) seed() (*state, []Rejection) {
	st := &state{
		used:     map[int]bool{},
		filled:   map[models.Muscle]float64{},
		patterns: map[string]bool{},
	}
	if o.obj.Continuity == nil {
		return st, nil
	}
	byID := make(map[string]int, len(o.cands))
	for i, c := range o.cands {
		byID[c.Exercise.ID] = i
	}

	var skipped []Rejection
	for _, id := range o.obj.Continuity.ExerciseIDs {
		i, ok := byID[id]
		if !ok {
			continue
		}
		c := o.cands[i]
		placed := false
		for _, role := range o.roles(c) {
			if !o.fits(st, role) {
				continue
			}
			st = st.extend(o.score(st, i, role, "continuity"), c)
			placed = true
			break
		}
		if !placed {
			skipped = append(skipped, Rejection{
				ExerciseID: id,
				Name:       c.Exercise.Name,
				Reasons:    []string{"continuity favorite does not fit session limits"},
			})
		}
	}
	return st, skipped
}

func (o *optimizer) score(st *state, idx int, role models.ExerciseRole, step string) pick {
	c := o.cands[idx]
	comps := c.Static
	sets := o.setsFor(c, role, nil)
	comps.DeficitFill = o.deficitFill(c.Exercise, sets, st.filled)
	comps.MovementDiversity = diversity(c.Exercise, st.patterns)
	return pick{idx: idx, role: role, comps: comps, score: comps.Weighted(o.obj.Weights), step: step}
}

func (o *optimizer) search(seed *state) *state {
	var best *state
	consider := func(st *state) {
		if !o.satisfied(st) {
			return
		}
		if best == nil || st.score > best.score+1e-9 ||
			(math.Abs(st.score-best.score) <= 1e-9 && st.key() < best.key()) {
			best = st
		}
	}
	consider(seed)

	beam := []*state{seed}
	for depth := len(seed.picks); depth < o.obj.Constraints.MaxExercises; depth++ {
		seen := map[string]*state{}
		for _, st := range beam {
			done := o.satisfied(st)
			for i, c := range o.cands {
				if st.used[i] {
					continue
				}
				for _, role := range o.roles(c) {
					if !o.fits(st, role) {
						continue
					}
					p := o.score(st, i, role, fmt.Sprintf("beam-%d", depth+1))
					if done && p.score < o.opts.MinMarginal {
						continue
					}
					ns := st.extend(p, c)
					k := ns.key()
					if prev, ok := seen[k]; !ok || ns.score > prev.score {
						seen[k] = ns
					}
					break
				}
			}
		}
		if len(seen) == 0 {
			break
		}

		next := make([]*state, 0, len(seen))
		for _, st := range seen {
			next = append(next, st)
		}
		sort.Slice(next, func(i, j int) bool {
			if math.Abs(next[i].score-next[j].score) > 1e-9 {
				return next[i].score > next[j].score
			}
			return next[i].key() < next[j].key()
		})
		if len(next) > o.opts.BeamWidth {
			next = next[:o.opts.BeamWidth]
		}
		for _, st := range next {
			consider(st)
		}
		beam = next
	}
	return best
}

// setsFor sizes one exercise from the remaining per-session deficit of its
// primary muscles. alloc holds sets already given to earlier picks.
func (o *optimizer) setsFor(c Candidate, role models.ExerciseRole, alloc map[models.Muscle]float64) int {
	obj := o.obj
	limit := AccessorySetCap
	if role != models.RoleAccessory {
		limit = MainLiftSetCap
	}
	floor := 2
	if obj.Deload {
		floor = 1
	}

	need := 0
	for _, m := range c.Exercise.PrimaryMuscles() {
		target, ok := obj.Volume.Target[m]
		if !ok {
			continue
		}
		left := math.Max(0, target-obj.Volume.EffectiveActual[m])
		share := int(math.Ceil(left/float64(max(1, obj.Volume.SessionsRemaining[m])))) - int(alloc[m])
		need = max(need, share)
	}
	sets := min(max(need, floor), limit)

	for _, m := range c.Exercise.PrimaryMuscles() {
		if _, ok := obj.Volume.Actual[m]; !ok {
			continue
		}
		room := DirectSetCeiling - int(obj.Volume.Actual[m]) - int(alloc[m])
		if sets > room {
			sets = max(1, room)
		}
	}

	if obj.Continuity != nil {
		if carried := obj.Continuity.MinSets[c.Exercise.ID]; sets < carried {
			sets = carried
		}
		limit = max(limit, obj.Continuity.MinSets[c.Exercise.ID])
	}
	return min(sets, limit)
}

func (o *optimizer) deficitFill(ex models.Exercise, sets int, filled map[models.Muscle]float64) float64 {
	vc := o.obj.Volume
	var total, covered float64
	for _, em := range ex.Muscles {
		w := float64(sets)
		if em.Role == models.RoleSecondary {
			w *= volume.IndirectMultiplier
		}
		total += w
		target, ok := vc.Target[em.Muscle]
		if !ok {
			continue
		}
		left := math.Max(0, target-vc.EffectiveActual[em.Muscle]-filled[em.Muscle])
		covered += math.Min(w, left)
	}
	if total == 0 {
		return 0
	}
	score := covered / total

	for _, m := range ex.PrimaryMuscles() {
		ceiling, ok := o.obj.Constraints.VolumeCeiling[m]
		if ok && ceiling > 0 && vc.EffectiveActual[m]+filled[m]+float64(sets) > ceiling {
			score *= 0.5
			break
		}
	}
	return score
}

func (o *optimizer) finish(best *state, out *Output) {
	picks := append([]pick(nil), best.picks...)
	// Main lifts lead the session; otherwise keep selection order.
	sort.SliceStable(picks, func(i, j int) bool {
		return picks[i].role != models.RoleAccessory && picks[j].role == models.RoleAccessory
	})

	alloc := map[models.Muscle]float64{}
	chosen := map[int]bool{}
	for _, p := range picks {
		c := o.cands[p.idx]
		id := c.Exercise.ID
		chosen[p.idx] = true

		sets := o.setsFor(c, p.role, alloc)
		for _, em := range c.Exercise.Muscles {
			w := float64(sets)
			if em.Role == models.RoleSecondary {
				w *= volume.IndirectMultiplier
			} else {
				alloc[em.Muscle] += float64(sets)
			}
			out.VolumeFilled[em.Muscle] += w
		}

		out.Selected = append(out.Selected, id)
		if p.role == models.RoleAccessory {
			out.Accessories = append(out.Accessories, id)
		} else {
			out.MainLifts = append(out.MainLifts, id)
		}
		out.SetTargets[id] = sets
		out.Rationale[id] = Rationale{Score: p.score, Components: p.comps, Step: p.step, Role: p.role}
	}

	for _, m := range o.obj.Muscles {
		left := o.obj.Volume.Target[m] - o.obj.Volume.EffectiveActual[m] - out.VolumeFilled[m]
		out.VolumeDeficit[m] = math.Max(0, left)
	}

	rejected := map[string]bool{}
	for _, r := range out.Rejected {
		rejected[r.ExerciseID] = true
	}
	for i, c := range o.cands {
		if chosen[i] || rejected[c.Exercise.ID] {
			continue
		}
		out.Rejected = append(out.Rejected, Rejection{
			ExerciseID: c.Exercise.ID,
			Name:       c.Exercise.Name,
			Reasons:    []string{"outscored by selected exercises"},
		})
	}
	sort.SliceStable(out.Rejected, func(i, j int) bool { return out.Rejected[i].ExerciseID < out.Rejected[j].ExerciseID })
}
