package service

import (
	"math"
	"sort"

	"github.com/emretalan/muse-db/internal/models"
)

// ApplyFirstPickBias narrows the pool to the top weight quantile for a
// session's very first pick, so brand-new sessions start from a higher
// quality floor. Pools at or below minPool are left alone: biasing a tiny
// pool would over-constrain it. Returns the input unchanged (same order)
// when no bias applies.
func ApplyFirstPickBias(candidates []models.WeightedCandidate, isFirstPick bool, percentile float64, minPool int) []models.WeightedCandidate {
	if !isFirstPick || len(candidates) <= minPool {
		return candidates
	}

	keep := int(math.Ceil(float64(len(candidates)) * percentile))
	if keep < 1 {
		keep = 1
	}
	if keep >= len(candidates) {
		return candidates
	}

	sorted := make([]models.WeightedCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight > sorted[j].Weight
	})
	return sorted[:keep]
}
