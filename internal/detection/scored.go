package detection

import "math"

// Scored pairs a detected value with the detector's confidence in it.
//
// Lines and panel rectangles share this wrapper so confidence is handled the
// same way at every stage. Confidence is always within [0, 1].
type Scored[T any] struct {
	Value      T       `json:"value"`
	Confidence float64 `json:"confidence"`
}

// NewScored wraps v, clamping confidence into [0, 1].
func NewScored[T any](v T, confidence float64) Scored[T] {
	return Scored[T]{Value: v, Confidence: ClampConfidence(confidence)}
}

// ClampConfidence constrains c to [0, 1]. NaN becomes 0.
func ClampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// MeanConfidence returns the arithmetic mean confidence of items, or 0 for
// an empty slice.
func MeanConfidence[T any](items []Scored[T]) float64 {
	if len(items) == 0 {
		return 0
	}
	sum := 0.0
	for _, it := range items {
		sum += it.Confidence
	}
	return ClampConfidence(sum / float64(len(items)))
}
