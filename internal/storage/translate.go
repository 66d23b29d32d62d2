package storage

import (
	"errors"
	"fmt"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

// The database stores enumerations in upper case; the engine uses lower case.
// Every stored enum goes through one of the vocabularies below, and nothing
// else in the package converts between the two spellings.

var ErrUnknownValue = errors.New("unknown enumeration value")

type vocab[T ~string] struct {
	name   string
	toDB   map[T]string
	fromDB map[string]T
}

func newVocab[T ~string](name string, toDB map[T]string) vocab[T] {
	v := vocab[T]{name: name, toDB: toDB, fromDB: make(map[string]T, len(toDB))}
	for k, s := range toDB {
		if _, dup := v.fromDB[s]; dup {
			panic(fmt.Sprintf("storage: duplicate %s spelling %q", name, s))
		}
		v.fromDB[s] = k
	}
	return v
}

func (v vocab[T]) encode(x T) (string, error) {
	s, ok := v.toDB[x]
	if !ok {
		return "", fmt.Errorf("%w: %s %q", ErrUnknownValue, v.name, x)
	}
	return s, nil
}

func (v vocab[T]) decode(s string) (T, error) {
	x, ok := v.fromDB[s]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: stored %s %q", ErrUnknownValue, v.name, s)
	}
	return x, nil
}

// optional encodes the empty value as SQL NULL.
func (v vocab[T]) optional(x T) (any, error) {
	if x == "" {
		return nil, nil
	}
	return v.encode(x)
}

var (
	statusVocab = newVocab("session status", map[models.SessionStatus]string{
		models.StatusCompleted: "COMPLETED",
		models.StatusPartial:   "PARTIAL",
		models.StatusSkipped:   "SKIPPED",
		models.StatusPlanned:   "PLANNED",
	})

	intentVocab = newVocab("session intent", map[models.SessionIntent]string{
		models.IntentPush:     "PUSH",
		models.IntentPull:     "PULL",
		models.IntentLegs:     "LEGS",
		models.IntentUpper:    "UPPER",
		models.IntentLower:    "LOWER",
		models.IntentFullBody: "FULL_BODY",
		models.IntentBodyPart: "BODY_PART",
	})

	provenanceVocab = newVocab("provenance", map[models.Provenance]string{
		models.ProvenanceIntent:   "INTENT",
		models.ProvenanceTemplate: "TEMPLATE",
		models.ProvenanceManual:   "MANUAL",
	})

	blockStateVocab = newVocab("block state", map[models.BlockState]string{
		models.BlockAccumulating: "ACCUMULATING",
		models.BlockDeloading:    "DELOADING",
		models.BlockCompleted:    "COMPLETED",
	})

	goalVocab = newVocab("goal", map[models.Goal]string{
		models.GoalStrength:     "STRENGTH",
		models.GoalPowerlifting: "POWERLIFTING",
		models.GoalHypertrophy:  "HYPERTROPHY",
		models.GoalGeneral:      "GENERAL_FITNESS",
		models.GoalFatLoss:      "FAT_LOSS",
	})

	splitVocab = newVocab("split", map[models.SplitType]string{
		models.SplitPPL:        "PPL",
		models.SplitUpperLower: "UPPER_LOWER",
		models.SplitFullBody:   "FULL_BODY",
	})

	roleVocab = newVocab("exercise role", map[models.ExerciseRole]string{
		models.RoleCoreCompound: "CORE_COMPOUND",
		models.RoleMainLift:     "MAIN_LIFT",
		models.RoleAccessory:    "ACCESSORY",
	})
)
