// Package vecmath provides the pure vector-space math used by the fidelity
// engine: cosine similarity, norms, and embedding validation.
package vecmath

import (
	"errors"
	"fmt"
	"math"
)

// #region errors

// ErrDimensionMismatch indicates two vectors of unequal length were compared.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// ErrInvalidEmbedding indicates an embedding containing NaN/Inf or no elements.
var ErrInvalidEmbedding = errors.New("invalid embedding")

// #endregion errors

// #region validate

// Validate rejects embeddings that cannot participate in similarity math:
// empty vectors and vectors containing NaN or Inf components.
func Validate(v []float32) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", ErrInvalidEmbedding)
	}
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite component at index %d", ErrInvalidEmbedding, i)
		}
	}
	return nil
}

// CheckDims verifies two vectors share a dimension.
func CheckDims(a, b []float32) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	return nil
}

// #endregion validate

// #region cosine

// Cosine computes cosine similarity in [-1, 1]. A zero-norm vector yields 0.
// Inputs must already be validated; dimensions must match.
func Cosine(a, b []float32) (float64, error) {
	if err := CheckDims(a, b); err != nil {
		return 0, err
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Guard against float drift pushing the result out of range.
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim, nil
}

// #endregion cosine

// #region norms

// Norm computes the L2 norm.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v. Zero vectors are returned as-is.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	n := Norm(v)
	if n == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}

// Clamp01 clamps x to [0, 1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// #endregion norms
