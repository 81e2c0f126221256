package bootstrap

import (
	"fmt"
	"math"
	"sort"
)

// Boundaries are N+1 strictly increasing edges describing N contiguous bins.
// Bin i covers [edges[i], edges[i+1]). The first and last bins are unbounded:
// values below edges[0] fall into bin 0 and values at or above edges[N] fall into bin N-1.
type Boundaries struct {
	edges []float64
}

// NewBoundaries validates and copies the given edges.
// Infinite sentinels are allowed as outer edges.
func NewBoundaries(edges ...float64) (Boundaries, error) {
	if len(edges) < 2 {
		return Boundaries{}, fmt.Errorf("%w: need at least 2 edges, got %d", ErrInvalidBoundaries, len(edges))
	}
	for i, e := range edges {
		if math.IsNaN(e) {
			return Boundaries{}, fmt.Errorf("%w: edge %d is NaN", ErrInvalidBoundaries, i)
		}
		if i > 0 && !(e > edges[i-1]) {
			return Boundaries{}, fmt.Errorf("%w: edge %d (%v) is not greater than edge %d (%v)",
				ErrInvalidBoundaries, i, e, i-1, edges[i-1])
		}
	}

	cp := make([]float64, len(edges))
	copy(cp, edges)
	return Boundaries{edges: cp}, nil
}

// Categories returns the number of bins.
func (b Boundaries) Categories() int {
	if len(b.edges) < 2 {
		return 0
	}
	return len(b.edges) - 1
}

// Edges returns a copy of the edges.
func (b Boundaries) Edges() []float64 {
	out := make([]float64, len(b.edges))
	copy(out, b.edges)
	return out
}

// Locate returns the bin index for a single value.
func (b Boundaries) Locate(r float64) (int, error) {
	n := b.Categories()
	if n == 0 {
		return 0, fmt.Errorf("%w: zero bins", ErrInvalidBoundaries)
	}
	if math.IsNaN(r) {
		return 0, fmt.Errorf("%w: NaN", ErrInvalidReturn)
	}
	// first interior edge strictly greater than r; interior edges are edges[1..n-1]
	interior := b.edges[1:n]
	return sort.Search(len(interior), func(i int) bool { return interior[i] > r }), nil
}

// Categorize assigns every return to its bin, in input order.
// The same input always yields the same output.
func Categorize(returns []float64, b Boundaries) ([]int, error) {
	if b.Categories() == 0 {
		return nil, fmt.Errorf("%w: zero bins", ErrInvalidBoundaries)
	}

	cats := make([]int, len(returns))
	for i, r := range returns {
		if math.IsNaN(r) {
			return nil, fmt.Errorf("%w: return %d is NaN", ErrInvalidReturn, i)
		}
		c, err := b.Locate(r)
		if err != nil {
			return nil, err
		}
		cats[i] = c
	}
	return cats, nil
}

// Observation is one historical return tagged with its category.
type Observation struct {
	Return   float64
	Category int
}

// Pool is the fixed set of observations the simulator resamples from.
// Categories is the size of the category space; zero means "infer from the observations".
type Pool struct {
	Observations []Observation
	Categories   int
}

// NewPool categorizes the returns and builds a pool whose category space is
// the number of bins in b.
func NewPool(returns []float64, b Boundaries) (Pool, error) {
	cats, err := Categorize(returns, b)
	if err != nil {
		return Pool{}, err
	}

	obs := make([]Observation, len(returns))
	for i, r := range returns {
		obs[i] = Observation{Return: r, Category: cats[i]}
	}
	return Pool{Observations: obs, Categories: b.Categories()}, nil
}

// Len returns the number of observations.
func (p Pool) Len() int { return len(p.Observations) }

// categorySpace returns the declared category count or, when undeclared,
// one more than the largest category index in the pool.
func (p Pool) categorySpace() int {
	if p.Categories > 0 {
		return p.Categories
	}
	maxCat := -1
	for _, o := range p.Observations {
		if o.Category > maxCat {
			maxCat = o.Category
		}
	}
	return maxCat + 1
}
