package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch reports a comparison between vectors of unequal
// length. This is a data-integrity bug, never coerced away by padding.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// CosineSimilarity returns the directional alignment of a and b in [-1, 1].
// A zero-magnitude operand yields 0 rather than a division by zero.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp float drift so callers can rely on the bound.
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return float32(sim), nil
}

func EuclideanDistance(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum)), nil
}

func SerializeVector(v []float32) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func DeserializeVector(s string) ([]float32, error) {
	var v []float32
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("deserialize vector: %w", err)
	}
	return v, nil
}
