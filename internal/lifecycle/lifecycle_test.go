package lifecycle

import (
	"math"
	"testing"
	"time"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

var now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestAdvance_AccumulationToDeload(t *testing.T) {
	b := NewBlock("u1", 1, 3, now)
	for i := 0; i < AccumulationSessions-1; i++ {
		tr := Advance(b, now)
		if tr.Block.State != models.BlockAccumulating {
			t.Fatalf("session %d: state = %s, want accumulating", i+1, tr.Block.State)
		}
		if tr.Block.AccumulationSessionsCompleted != b.AccumulationSessionsCompleted+1 {
			t.Fatalf("counter did not increment")
		}
		b = tr.Block
	}

	tr := Advance(b, now)
	if tr.Block.State != models.BlockDeloading {
		t.Fatalf("state = %s, want deloading", tr.Block.State)
	}
	if tr.Successor != nil {
		t.Fatalf("successor created too early")
	}
}

func TestAdvance_DeloadCompletesWithSuccessor(t *testing.T) {
	b := NewBlock("u1", 4, 4, now)
	b.State = models.BlockDeloading
	b.AccumulationSessionsCompleted = AccumulationSessions
	b.RIRBands = map[int]models.RIRBand{1: {Min: 2, Max: 3}}
	b.CoreRoles = []models.RoleAssignment{
		{ExerciseID: "squat", Intent: models.IntentLegs, Role: models.RoleCoreCompound},
		{ExerciseID: "curl", Intent: models.IntentPull, Role: models.RoleAccessory},
	}

	for i := 0; i < DeloadSessions-1; i++ {
		b = Advance(b, now).Block
	}
	tr := Advance(b, now)

	if tr.Block.State != models.BlockCompleted {
		t.Fatalf("state = %s, want completed", tr.Block.State)
	}
	s := tr.Successor
	if s == nil {
		t.Fatal("expected successor block")
	}
	if s.ID == b.ID || s.ID == "" {
		t.Errorf("successor id = %q, want new id", s.ID)
	}
	if s.Number != 5 {
		t.Errorf("successor number = %d, want 5", s.Number)
	}
	if s.AccumulationSessionsCompleted != 0 || s.DeloadSessionsCompleted != 0 {
		t.Errorf("successor counters not zeroed: %+v", s)
	}
	if s.State != models.BlockAccumulating {
		t.Errorf("successor state = %s", s.State)
	}
	if len(s.CoreRoles) != 1 || s.CoreRoles[0].ExerciseID != "squat" {
		t.Errorf("core roles = %+v, want only squat carried", s.CoreRoles)
	}
	s.RIRBands[1] = models.RIRBand{Min: 0, Max: 0}
	if b.RIRBands[1].Min != 2 {
		t.Errorf("successor RIR bands alias the completed block")
	}
}

func TestAdvance_CompletedIsNoOp(t *testing.T) {
	b := NewBlock("u1", 1, 3, now)
	b.State = models.BlockCompleted
	b.DeloadSessionsCompleted = 3

	tr := Advance(b, now)
	if !tr.NoOp {
		t.Fatal("expected no-op")
	}
	if tr.Block.DeloadSessionsCompleted != 3 || tr.Successor != nil {
		t.Errorf("no-op transition changed the block: %+v", tr)
	}
}

func TestReset(t *testing.T) {
	b := NewBlock("u1", 1, 3, now)
	b.State = models.BlockDeloading
	b.AccumulationSessionsCompleted = 12
	b.DeloadSessionsCompleted = 1

	r := Reset(b)
	if r.State != models.BlockAccumulating || r.AccumulationSessionsCompleted != 0 || r.DeloadSessionsCompleted != 0 {
		t.Errorf("reset = %+v", r)
	}
}

func TestCurrentWeek(t *testing.T) {
	tests := []struct {
		name  string
		state models.BlockState
		acc   int
		spw   int
		want  int
	}{
		{"fresh", models.BlockAccumulating, 0, 3, 1},
		{"end of week 1", models.BlockAccumulating, 2, 3, 1},
		{"start of week 2", models.BlockAccumulating, 3, 3, 2},
		{"week 4", models.BlockAccumulating, 9, 3, 4},
		{"capped at 4", models.BlockAccumulating, 11, 2, 4},
		{"deloading", models.BlockDeloading, 12, 3, 5},
		{"completed", models.BlockCompleted, 12, 3, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := models.TrainingBlock{State: tt.state, AccumulationSessionsCompleted: tt.acc, SessionsPerWeek: tt.spw}
			if got := CurrentWeek(b); got != tt.want {
				t.Errorf("CurrentWeek() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRIRTarget(t *testing.T) {
	custom := map[int]models.RIRBand{1: {Min: 2, Max: 3}, 5: {Min: 0, Max: 1}}

	tests := []struct {
		name  string
		state models.BlockState
		week  int
		bands map[int]models.RIRBand
		want  models.RIRBand
	}{
		{"default week 1", models.BlockAccumulating, 1, nil, models.RIRBand{Min: 3, Max: 4}},
		{"default week 4", models.BlockAccumulating, 4, nil, models.RIRBand{Min: 1, Max: 2}},
		{"override week 1", models.BlockAccumulating, 1, custom, models.RIRBand{Min: 2, Max: 3}},
		{"override missing week", models.BlockAccumulating, 3, custom, models.RIRBand{Min: 2, Max: 3}},
		{"week 5 ignores override", models.BlockAccumulating, 5, custom, DeloadRIR},
		{"deloading state", models.BlockDeloading, 2, custom, DeloadRIR},
		{"completed state", models.BlockCompleted, 1, custom, DeloadRIR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RIRTarget(tt.state, tt.week, tt.bands); got != tt.want {
				t.Errorf("RIRTarget() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWeeklyVolumeTarget_NonDecreasingWithinBounds(t *testing.T) {
	landmarks := []models.Landmark{
		{MEV: 10, MAV: 16, MRV: 22},
		{MEV: 8, MAV: 14, MRV: 20},
		{MEV: 0, MAV: 8, MRV: 16},
		{MEV: 6, MAV: 8, MRV: 10},  // mev+4 overshoots mav
		{MEV: 8, MAV: 20, MRV: 12}, // mav above mrv
	}

	for _, lm := range landmarks {
		prev := -1
		for week := 1; week <= 4; week++ {
			got := WeeklyVolumeTarget(lm, week, false)
			if got < prev {
				t.Errorf("%+v week %d: %d < previous %d", lm, week, got, prev)
			}
			if got > lm.MRV || got < lm.MEV {
				t.Errorf("%+v week %d: %d outside [mev, mrv]", lm, week, got)
			}
			prev = got
		}
	}
}

func TestWeeklyVolumeTarget_Ramp(t *testing.T) {
	lm := models.Landmark{MEV: 10, MAV: 16, MRV: 22}
	want := []int{10, 12, 14, 16}
	for i, w := range want {
		if got := WeeklyVolumeTarget(lm, i+1, false); got != w {
			t.Errorf("week %d = %d, want %d", i+1, got, w)
		}
	}
}

func TestWeeklyVolumeTarget_Deload(t *testing.T) {
	for _, lm := range []models.Landmark{{MEV: 10, MAV: 16, MRV: 22}, {MEV: 6, MAV: 10, MRV: 16}, {MEV: 4, MAV: 11, MRV: 9}} {
		week4 := WeeklyVolumeTarget(lm, 4, false)
		want := int(math.Round(float64(week4) * 0.45))
		if got := WeeklyVolumeTarget(lm, 5, true); got != want {
			t.Errorf("%+v deload = %d, want %d", lm, got, want)
		}
	}
}

func TestWeeklyVolumeTarget_WeekTwo(t *testing.T) {
	tests := []struct {
		lm   models.Landmark
		want int
	}{
		{models.Landmark{MEV: 10, MAV: 16, MRV: 22}, 12},
		{models.Landmark{MEV: 0, MAV: 8, MRV: 12}, 2},
		{models.Landmark{MEV: 7, MAV: 8, MRV: 20}, 8}, // capped at mav
		{models.Landmark{MEV: 8, MAV: 20, MRV: 9}, 9},  // capped at mrv
	}
	for _, tt := range tests {
		if got := WeeklyVolumeTarget(tt.lm, 2, false); got != tt.want {
			t.Errorf("%+v week 2 = %d, want %d", tt.lm, got, tt.want)
		}
	}
}

func TestTargetRPE(t *testing.T) {
	if got := TargetRPE(models.RIRBand{Min: 3, Max: 4}); got != 6.5 {
		t.Errorf("TargetRPE(3-4) = %v, want 6.5", got)
	}
	if got := TargetRPE(DeloadRIR); got != 5 {
		t.Errorf("TargetRPE(deload) = %v, want 5", got)
	}
}
