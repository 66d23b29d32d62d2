package utils

import (
	"math"
	"testing"
)

func TestCalculateEpley1RM(t *testing.T) {
	tests := []struct {
		name string
		load float64
		reps int
		want float64
	}{
		{"100kg x 5", 100, 5, 116.67},
		{"80kg x 10", 80, 10, 106.67},
		{"single is the load", 140, 1, 140},
		{"zero reps", 100, 0, 0},
		{"bodyweight", 0, 12, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateEpley1RM(tt.load, tt.reps)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("CalculateEpley1RM(%v, %v) = %v, want %v", tt.load, tt.reps, got, tt.want)
			}
		})
	}
}

func TestRoundToStep(t *testing.T) {
	tests := []struct {
		load, step, want float64
	}{
		{101.2, 2.5, 100},
		{101.3, 2.5, 102.5},
		{23, 2, 24},
		{17.5, 0, 17.5},
	}
	for _, tt := range tests {
		if got := RoundToStep(tt.load, tt.step); got != tt.want {
			t.Errorf("RoundToStep(%v, %v) = %v, want %v", tt.load, tt.step, got, tt.want)
		}
	}
}
