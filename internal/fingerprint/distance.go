package fingerprint

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyEmbedding     = errors.New("embedding is empty")
	ErrZeroEmbedding      = errors.New("embedding has zero length")
	ErrEmbeddingDimension = errors.New("embedding dimensions differ")
)

// CosineDistance returns 1 - cos(a, b), in [0, 2]. Embeddings that cannot be
// compared yield an error and no distance; the caller decides what a failed
// comparison is worth.
func CosineDistance(a, b []float32) (float64, error) {
	switch {
	case len(a) == 0 || len(b) == 0:
		return 0, ErrEmptyEmbedding
	case len(a) != len(b):
		return 0, fmt.Errorf("%w: %d vs %d", ErrEmbeddingDimension, len(a), len(b))
	}

	var dot, sumA, sumB float64
	for i, x := range a {
		y := float64(b[i])
		dot += float64(x) * y
		sumA += float64(x) * float64(x)
		sumB += y * y
	}
	if sumA == 0 || sumB == 0 {
		return 0, ErrZeroEmbedding
	}

	cos := dot / (math.Sqrt(sumA) * math.Sqrt(sumB))
	if math.IsNaN(cos) {
		return 0, errors.New("embedding contains NaN")
	}
	// rounding can push |cos| slightly past 1
	return 1 - min(max(cos, -1), 1), nil
}
