package match

import (
	"math"
	"sort"
)

// vectorIndex is a flat exhaustive nearest-neighbor index over the corpus
// vectors. Row i holds the vector for corpus ordinal i. Distances are
// squared L2, so lower is closer; the index is append-only and safe for
// concurrent searches once built.
type vectorIndex struct {
	dim     int
	vectors [][]float32
}

func newVectorIndex(dim int) *vectorIndex {
	return &vectorIndex{dim: dim}
}

// Len returns the number of indexed vectors.
func (ix *vectorIndex) Len() int {
	return len(ix.vectors)
}

// Add appends vectors to the index in order. Every vector must have the
// index dimensionality; vectors are L2-normalized on insertion so stored
// and freshly-embedded rows stay comparable.
func (ix *vectorIndex) Add(vectors ...[]float32) error {
	for _, v := range vectors {
		if len(v) == 0 {
			return ErrEmptyVector
		}
		if len(v) != ix.dim {
			return ErrDimensionMismatch
		}
		ix.vectors = append(ix.vectors, l2Normalize(v))
	}
	return nil
}

// Search returns the ordinals and squared L2 distances of the k nearest
// rows, ordered by (distance, ordinal) ascending. The secondary ordinal
// sort makes equal distances resolve deterministically, which in turn makes
// downstream first-seen tie-breaking a documented contract rather than
// incidental behavior. k is capped at the index size.
func (ix *vectorIndex) Search(query []float32, k int) ([]int, []float64, error) {
	if len(query) != ix.dim {
		return nil, nil, ErrDimensionMismatch
	}
	if k > len(ix.vectors) {
		k = len(ix.vectors)
	}
	if k <= 0 {
		return nil, nil, nil
	}

	q := l2Normalize(query)
	type hit struct {
		ordinal  int
		distance float64
	}
	hits := make([]hit, len(ix.vectors))
	for i, v := range ix.vectors {
		hits[i] = hit{ordinal: i, distance: squaredL2(q, v)}
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].distance != hits[b].distance {
			return hits[a].distance < hits[b].distance
		}
		return hits[a].ordinal < hits[b].ordinal
	})

	ordinals := make([]int, k)
	distances := make([]float64, k)
	for i := 0; i < k; i++ {
		ordinals[i] = hits[i].ordinal
		distances[i] = hits[i].distance
	}
	return ordinals, distances, nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// l2Normalize returns a unit-norm copy of v; a zero vector is returned as
// a zero copy.
func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	norm := math.Sqrt(sum)
	if norm == 0 {
		copy(out, v)
		return out
	}
	inv := float32(1 / norm)
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}
