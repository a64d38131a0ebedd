// Package vector holds the small amount of vector math the semantic
// matcher needs.
package vector

import "math"

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Mismatched dimensions or a zero-magnitude operand yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
