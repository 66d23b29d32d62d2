package utils

import "math"

// CalculateEpley1RM estimates a one-rep max from a set.
func CalculateEpley1RM(load float64, reps int) float64 {
	if reps <= 0 || load <= 0 {
		return 0
	}
	if reps == 1 {
		return load
	}
	return load * (1 + float64(reps)/30)
}

// RoundToStep rounds a load to the nearest plate increment.
func RoundToStep(load, step float64) float64 {
	if step <= 0 {
		return load
	}
	return math.Round(load/step) * step
}
