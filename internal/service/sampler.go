package service

import (
	"math/rand/v2"

	"github.com/emretalan/muse-db/internal/models"
)

// SampleWeighted draws one candidate with probability proportional to its
// weight. When every weight is zero the draw degrades to uniform. Returns
// false only for an empty input.
//
// rng may be nil, in which case the process-wide random source is used;
// tests pass a seeded generator for deterministic sequences.
func SampleWeighted(rng *rand.Rand, candidates []models.WeightedCandidate) (models.WeightedCandidate, bool) {
	if len(candidates) == 0 {
		return models.WeightedCandidate{}, false
	}

	var total float64
	for _, c := range candidates {
		total += c.Weight
	}
	if total <= 0 {
		return candidates[intN(rng, len(candidates))], true
	}

	r := float64n(rng) * total
	var acc float64
	for _, c := range candidates {
		acc += c.Weight
		if acc > r {
			return c, true
		}
	}
	// Floating point accumulation can leave acc marginally below total.
	return candidates[len(candidates)-1], true
}

// ShuffledCopy returns a uniformly shuffled copy of the movie list, leaving
// the input untouched.
func ShuffledCopy(rng *rand.Rand, movies []models.Movie) []models.Movie {
	out := make([]models.Movie, len(movies))
	copy(out, movies)
	shuffle(rng, len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

func intN(rng *rand.Rand, n int) int {
	if rng != nil {
		return rng.IntN(n)
	}
	return rand.IntN(n)
}

func float64n(rng *rand.Rand) float64 {
	if rng != nil {
		return rng.Float64()
	}
	return rand.Float64()
}

func shuffle(rng *rand.Rand, n int, swap func(i, j int)) {
	if rng != nil {
		rng.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}
