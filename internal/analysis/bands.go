// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
)

var (
	ErrEdgeCount    = errors.New("band table needs one more edge than bands")
	ErrEdgeOrder    = errors.New("band edges must be strictly increasing")
	ErrEdgeIncludes = errors.New("band edges must start above the DC bin")
)

// BandTable maps bands onto ranges of transform bins. Band i covers bins
// [edges[i], edges[i+1]). The table is validated once and never changes.
type BandTable struct {
	edges []int
}

// NewBandTable validates edges for numBands bands and copies them.
func NewBandTable(edges []int, numBands int) (*BandTable, error) {
	if numBands <= 0 || len(edges) != numBands+1 {
		return nil, fmt.Errorf("%w: %d bands, %d edges", ErrEdgeCount, numBands, len(edges))
	}
	if edges[0] < 1 {
		return nil, fmt.Errorf("%w: first edge is %d", ErrEdgeIncludes, edges[0])
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return nil, fmt.Errorf("%w: edge %d (%d) after edge %d (%d)", ErrEdgeOrder, i, edges[i], i-1, edges[i-1])
		}
	}
	return &BandTable{edges: append([]int(nil), edges...)}, nil
}

// Len returns the number of bands.
func (t *BandTable) Len() int {
	return len(t.edges) - 1
}

// Bins returns the bin range [lo, hi) of band i, clipped to a magnitude array
// of n bins. A band lying entirely past the end has lo == hi.
func (t *BandTable) Bins(i, n int) (lo, hi int) {
	lo, hi = t.edges[i], t.edges[i+1]
	if hi > n {
		hi = n
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}
