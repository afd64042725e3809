package dataset

import (
	"iter"
	"slices"
)

// Batches partitions records into contiguous groups of up to size records,
// preserving input order; the final batch may be smaller. The sequence is
// lazy and restartable. size must be at least 1.
func Batches(records []Record, size int) iter.Seq[[]Record] {
	return slices.Chunk(records, size)
}

// BatchCount reports how many batches Batches will yield.
func BatchCount(records, size int) int {
	if records <= 0 {
		return 0
	}

	return (records + size - 1) / size
}
