package evo

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// --- Statistical Functions ---

// Mean calculates the average of a slice of float64 values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	return stat.Mean(values, nil)
}

// Stdev calculates the sample standard deviation of a slice of float64 values.
func Stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0.0 // Undefined for less than 2 values
	}
	return stat.StdDev(values, nil)
}

// Sum calculates the sum of a slice of float64 values.
func Sum(values []float64) float64 {
	return floats.Sum(values)
}

// MaxFloat calculates the maximum value in a slice of float64 values.
// Returns negative infinity if the slice is empty.
func MaxFloat(values []float64) float64 {
	if len(values) == 0 {
		return math.Inf(-1)
	}
	return floats.Max(values)
}

// MinFloat calculates the minimum value in a slice of float64 values.
// Returns positive infinity if the slice is empty.
func MinFloat(values []float64) float64 {
	if len(values) == 0 {
		return math.Inf(1)
	}
	return floats.Min(values)
}

// Median calculates the median of a slice of float64 values.
// Returns NaN if the slice is empty.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}

	// Sort a copy so the caller's slice keeps its order
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2.0
}

// StatFunctions maps function names to the actual statistical functions.
// Used by the fitness criterion and the generation report.
var StatFunctions = map[string]func([]float64) float64{
	"mean":   Mean,
	"stdev":  Stdev,
	"sum":    Sum,
	"max":    MaxFloat,
	"min":    MinFloat,
	"median": Median,
}
