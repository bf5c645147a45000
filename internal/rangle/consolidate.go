package rangle

import (
	"fmt"
	"math"
)

// MergeReason tells which consolidation policy picked the merged pair
type MergeReason string

const (
	// MergeEvicted means a chunk fell at or below the minimum validity ratio
	MergeEvicted MergeReason = "evicted"
	// MergeMinCost means the pair with the fewest valid items was merged
	MergeMinCost MergeReason = "min_cost"
)

// Merge describes the single merge performed by Consolidate. Left and Right
// index the chunk list as it was before merging.
type Merge struct {
	Left   int
	Right  int
	Reason MergeReason
}

// Consolidate merges exactly one pair of adjacent chunks and returns the new
// list. The input slice is left untouched. It needs at least two chunks.
func Consolidate(chunks []Chunk, items Items, opts Options) ([]Chunk, Merge, error) {
	if err := opts.Validate(); err != nil {
		return nil, Merge{}, err
	}
	opts = opts.withDefaults()
	p, err := compilePath(opts.Path)
	if err != nil {
		return nil, Merge{}, err
	}
	if len(chunks) < 2 {
		return nil, Merge{}, fmt.Errorf("%w: need at least two chunks to consolidate, got %d", ErrInvalidOptions, len(chunks))
	}
	merged, m := consolidate(chunks, items, p, opts.MinValidChunkRatio)
	return merged, m, nil
}

func consolidate(chunks []Chunk, items Items, p fieldPath, minRatio float64) ([]Chunk, Merge) {
	valid := make([]int, len(chunks))
	for i, c := range chunks {
		upper := c.To
		if c.Open {
			upper = math.MaxInt64
		}
		valid[i] = countInRange(c.From, upper, items, p)
	}

	m, ok := evictionPair(chunks, valid, minRatio)
	if !ok {
		m = minCostPair(valid)
	}
	return mergeChunks(chunks, m.Left, m.Right), m
}

// evictionPair finds the first chunk whose validity ratio is at or below
// minRatio and pairs it with its successor, or its predecessor when last.
func evictionPair(chunks []Chunk, valid []int, minRatio float64) (Merge, bool) {
	last := len(chunks) - 1
	for i, c := range chunks {
		if validityRatio(valid[i], c) > minRatio {
			continue
		}
		if i == last {
			return Merge{Left: i - 1, Right: i, Reason: MergeEvicted}, true
		}
		return Merge{Left: i, Right: i + 1, Reason: MergeEvicted}, true
	}
	return Merge{}, false
}

// validityRatio is valid/num; a chunk without a positive count scores 0
func validityRatio(valid int, c Chunk) float64 {
	if !c.HasNum || c.Num <= 0 {
		return 0
	}
	return float64(valid) / float64(c.Num)
}

// minCostPair returns the leftmost adjacent pair with the smallest summed count
func minCostPair(valid []int) Merge {
	m := Merge{Left: 0, Right: 1, Reason: MergeMinCost}
	best := valid[0] + valid[1]
	for i := 1; i < len(valid)-1; i++ {
		if sum := valid[i] + valid[i+1]; sum < best {
			m.Left, m.Right = i, i+1
			best = sum
		}
	}
	return m
}

func mergeChunks(chunks []Chunk, left, right int) []Chunk {
	out := make([]Chunk, 0, len(chunks)-(right-left))
	out = append(out, chunks[:left]...)
	out = append(out, Chunk{
		From: chunks[left].From,
		To:   chunks[right].To,
		Open: chunks[right].Open,
	})
	return append(out, chunks[right+1:]...)
}
