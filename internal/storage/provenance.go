package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/misterclayt0n/mesocoach/internal/autoreg"
	"github.com/misterclayt0n/mesocoach/internal/engine"
	"github.com/misterclayt0n/mesocoach/internal/progression"
	"github.com/misterclayt0n/mesocoach/internal/selection"
)

// Decision logs are stored as {"kind": ..., "data": {...}}. Every kind has a
// fixed shape. Unknown kinds, unknown fields, and missing required fields are
// rejected on both write and read.

var ErrMalformedDecisionLog = errors.New("malformed decision log")

type DecisionKind string

const (
	KindSelection      DecisionKind = "selection_rationale"
	KindAutoregulation DecisionKind = "autoregulation"
	KindProgression    DecisionKind = "progression"
)

// Decision is one of SelectionRecord, AutoregRecord, or ProgressionRecord.
type Decision interface {
	Kind() DecisionKind
	validate() error
}

type SelectionRecord struct {
	Selected   []string                       `json:"selected"`
	SetTargets map[string]int                 `json:"set_targets"`
	Rationale  map[string]selection.Rationale `json:"rationale"`
	Rejected   []selection.Rejection          `json:"rejected,omitempty"`
}

func (SelectionRecord) Kind() DecisionKind { return KindSelection }

func (r SelectionRecord) validate() error {
	if len(r.Selected) == 0 {
		return errors.New("selected is empty")
	}
	for _, id := range r.Selected {
		if r.SetTargets[id] < 1 {
			return fmt.Errorf("no set target for %q", id)
		}
		if _, ok := r.Rationale[id]; !ok {
			return fmt.Errorf("no rationale for %q", id)
		}
	}
	return nil
}

type AutoregRecord struct {
	Applied       bool                   `json:"applied"`
	SignalID      string                 `json:"signal_id,omitempty"`
	Fatigue       *float64               `json:"fatigue,omitempty"`
	LoadFactor    float64                `json:"load_factor"`
	Modifications []autoreg.Modification `json:"modifications,omitempty"`
	Rationale     string                 `json:"rationale"`
}

func (AutoregRecord) Kind() DecisionKind { return KindAutoregulation }

func (r AutoregRecord) validate() error {
	if r.LoadFactor <= 0 || r.LoadFactor > 1 || math.IsNaN(r.LoadFactor) {
		return fmt.Errorf("load_factor %v out of range (0, 1]", r.LoadFactor)
	}
	if r.Applied && r.SignalID == "" {
		return errors.New("applied without a signal_id")
	}
	if r.Fatigue != nil && (*r.Fatigue < 0 || *r.Fatigue > 1) {
		return fmt.Errorf("fatigue %v out of range [0, 1]", *r.Fatigue)
	}
	if r.Rationale == "" {
		return errors.New("rationale is empty")
	}
	return nil
}

type ProgressionRecord struct {
	Receipts []progression.Receipt `json:"receipts"`
}

func (ProgressionRecord) Kind() DecisionKind { return KindProgression }

var knownTriggers = map[progression.Trigger]bool{
	progression.TriggerDoubleProgression: true,
	progression.TriggerHold:              true,
	progression.TriggerDeload:            true,
	progression.TriggerReadinessScale:    true,
	progression.TriggerInsufficientData:  true,
	progression.TriggerNoHistory:         true,
}

func (r ProgressionRecord) validate() error {
	if len(r.Receipts) == 0 {
		return errors.New("receipts is empty")
	}
	for _, rc := range r.Receipts {
		if rc.ExerciseID == "" {
			return errors.New("receipt without exercise_id")
		}
		if !knownTriggers[rc.Trigger] {
			return fmt.Errorf("unknown trigger %q for %s", rc.Trigger, rc.ExerciseID)
		}
	}
	return nil
}

type envelope struct {
	Kind DecisionKind    `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func encodeDecision(d Decision) ([]byte, error) {
	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDecisionLog, d.Kind(), err)
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: d.Kind(), Data: data})
}

func decodeDecision(payload []byte) (Decision, error) {
	var env envelope
	if err := strictUnmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", ErrMalformedDecisionLog, err)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: %s: missing data", ErrMalformedDecisionLog, env.Kind)
	}

	var (
		d   Decision
		err error
	)
	switch env.Kind {
	case KindSelection:
		var r SelectionRecord
		err = strictUnmarshal(env.Data, &r)
		d = r
	case KindAutoregulation:
		var r AutoregRecord
		err = strictUnmarshal(env.Data, &r)
		d = r
	case KindProgression:
		var r ProgressionRecord
		err = strictUnmarshal(env.Data, &r)
		d = r
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrMalformedDecisionLog, env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDecisionLog, env.Kind, err)
	}
	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDecisionLog, env.Kind, err)
	}
	return d, nil
}

func strictUnmarshal(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// DecisionsFor splits a generation result into its decision records.
func DecisionsFor(res *engine.Result) []Decision {
	var out []Decision
	if sel := res.Selection; sel != nil && len(sel.Selected) > 0 {
		out = append(out, SelectionRecord{
			Selected:   sel.Selected,
			SetTargets: sel.SetTargets,
			Rationale:  sel.Rationale,
			Rejected:   sel.Rejected,
		})
	}

	ar := AutoregRecord{
		Applied:       res.Autoreg.Applied,
		SignalID:      res.Autoreg.SignalID,
		LoadFactor:    res.Autoreg.LoadFactor,
		Modifications: res.Autoreg.Modifications,
		Rationale:     res.Autoreg.Rationale,
	}
	if f := res.Autoreg.Fatigue; f != nil {
		v := f.Overall
		ar.Fatigue = &v
	}
	out = append(out, ar)

	if len(res.Receipts) > 0 {
		out = append(out, ProgressionRecord{Receipts: res.Receipts})
	}
	return out
}

// SaveDecisionLogs validates and stores every decision for a plan in one transaction.
func (s *Storage) SaveDecisionLogs(ctx context.Context, planID string, decisions ...Decision) error {
	if planID == "" {
		return errors.New("decision log has no plan_id")
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(s.now())
	for _, d := range decisions {
		payload, err := encodeDecision(d)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO decision_logs (id, plan_id, kind, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), planID, string(d.Kind()), string(payload), now,
		)
		if err != nil {
			return fmt.Errorf("Failed to save %s decision: %w", d.Kind(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Failed to commit transaction: %w", err)
	}
	return nil
}

type DecisionLog struct {
	ID        string
	PlanID    string
	CreatedAt time.Time
	Decision  Decision
}

// DecisionLogs returns the decisions stored for a plan in insertion order.
// A row that fails validation aborts the read with ErrMalformedDecisionLog.
func (s *Storage) DecisionLogs(ctx context.Context, planID string) ([]DecisionLog, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, kind, payload, created_at FROM decision_logs WHERE plan_id = ? ORDER BY rowid`,
		planID)
	if err != nil {
		return nil, fmt.Errorf("Failed to query decision logs: %w", err)
	}
	defer rows.Close()

	var out []DecisionLog
	for rows.Next() {
		log := DecisionLog{PlanID: planID}
		var kind, payload, created string
		if err := rows.Scan(&log.ID, &kind, &payload, &created); err != nil {
			return nil, fmt.Errorf("Failed to scan decision log: %w", err)
		}
		if log.Decision, err = decodeDecision([]byte(payload)); err != nil {
			return nil, fmt.Errorf("decision log %s: %w", log.ID, err)
		}
		if string(log.Decision.Kind()) != kind {
			return nil, fmt.Errorf("%w: row kind %q holds %q", ErrMalformedDecisionLog, kind, log.Decision.Kind())
		}
		if log.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, log)
	}
	return out, rows.Err()
}
