package search

import "math"

// cosineSimilarity computes the cosine of the angle between two equal-length
// vectors. Returns 0 for zero-magnitude input.
func cosineSimilarity(a, b []float32) float64 {
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

// normalizeCosine maps cosine similarity from [-1, 1] to a [0, 1] relevance score.
func normalizeCosine(cos float64) float64 {
	score := (cos + 1) / 2
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
