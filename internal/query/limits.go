package query

import (
	"math"

	"github.com/roach88/vcq/internal/store"
)

// NoLimit marks a query without a result limit.
const NoLimit = store.NoLimit

// Limits holds the tunables of slice-limit inflation.
type Limits struct {
	// HardMaxLimit caps the inflated limit of a single slice.
	HardMaxLimit int
	// DirectionMultiplier scales the limit of a whole-category scan
	// when only one of two directions is wanted.
	DirectionMultiplier int
	// ModificationSlack is added when the transaction has changes that
	// may hide stored rows.
	ModificationSlack int
	// MaxSortIteration caps how many rows are sorted in memory.
	MaxSortIteration int
}

// DefaultLimits returns the built-in limits.
func DefaultLimits() Limits {
	return Limits{
		HardMaxLimit:        300000,
		DirectionMultiplier: 2,
		ModificationSlack:   5,
		MaxSortIteration:    1000000,
	}
}

// ComputeLimit inflates base for remaining constraints the slice does not
// enforce, so that fewer limit adjustments are needed after in-memory
// filtering. HardMaxLimit bounds only the inflated term: the result is
// max(base, min(HardMaxLimit, inflated)), so a caller limit above
// HardMaxLimit is returned unchanged and never truncated.
func (l Limits) ComputeLimit(remaining, base int, hasModifications bool) int {
	if base == NoLimit {
		return base
	}
	return max(base, min(l.HardMaxLimit, l.adjust(remaining, base, hasModifications)))
}

// adjust doubles base per remaining constraint, saturating at MaxInt32.
func (l Limits) adjust(remaining, base int, hasModifications bool) int {
	limit := base
	if remaining > 0 && base > 0 {
		maxMultiplier := math.MaxInt32 / base
		multiplier := maxMultiplier
		if remaining < 31 {
			multiplier = min(maxMultiplier, 1<<remaining)
		}
		limit = base * multiplier
	}
	if hasModifications {
		limit += min(math.MaxInt32-limit, l.ModificationSlack)
	}
	return limit
}
