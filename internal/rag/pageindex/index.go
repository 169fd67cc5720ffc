package pageindex

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var ErrDimensionMismatch = errors.New("vector dimension does not match index")

// Hit is one search result: squared L2 distance and the chunk position it belongs to.
type Hit struct {
	Distance float32 `json:"distance"`
	Position int     `json:"position"`
}

// FlatL2 is an exact, append-only nearest neighbour index over squared
// Euclidean distance. Vectors are stored row-major in Data.
type FlatL2 struct {
	Dim   int       `msgpack:"dim"`
	Total int       `msgpack:"ntotal"`
	Data  []float32 `msgpack:"data"`
}

func NewFlatL2(dim int) *FlatL2 {
	return &FlatL2{Dim: dim}
}

func (f *FlatL2) Len() int {
	return f.Total
}

// Add appends vectors at positions Len()..Len()+len(vectors)-1. An index
// created with dimension 0 takes the dimension of the first vector added.
// Nothing is added when any vector has the wrong dimension.
func (f *FlatL2) Add(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	dim := f.Dim
	if dim == 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim || dim == 0 {
			return fmt.Errorf("vector %d has %d dims, index has %d: %w", i, len(v), dim, ErrDimensionMismatch)
		}
	}

	f.Dim = dim
	f.Data = slices.Grow(f.Data, len(vectors)*dim)
	for _, v := range vectors {
		f.Data = append(f.Data, v...)
	}
	f.Total += len(vectors)
	return nil
}

// Vector returns a copy of the vector stored at position i.
func (f *FlatL2) Vector(i int) []float32 {
	return slices.Clone(f.Data[i*f.Dim : (i+1)*f.Dim])
}

// Search returns the min(k, Len()) nearest vectors to q, nearest first.
// Equal distances are ordered by position.
func (f *FlatL2) Search(q []float32, k int) ([]Hit, error) {
	if k <= 0 || f.Total == 0 {
		return nil, nil
	}
	if len(q) != f.Dim {
		return nil, fmt.Errorf("query has %d dims, index has %d: %w", len(q), f.Dim, ErrDimensionMismatch)
	}

	hits := make([]Hit, f.Total)
	for i := range f.Total {
		row := f.Data[i*f.Dim : (i+1)*f.Dim]
		var d float32
		for j, x := range row {
			diff := x - q[j]
			d += diff * diff
		}
		hits[i] = Hit{Distance: d, Position: i}
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})
	return hits[:min(k, f.Total)], nil
}

func (f *FlatL2) valid() bool {
	return f.Dim >= 0 && f.Total >= 0 && len(f.Data) == f.Dim*f.Total
}
