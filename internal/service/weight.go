package service

import (
	"math"

	"github.com/emretalan/muse-db/internal/models"
)

// Weight scores a movie for sampling: the rating normalized to [0,1], damped
// by the vote count on a log scale so runaway popularity cannot dominate.
// Zero only when the vote average itself is zero.
func Weight(m models.Movie) float64 {
	return (m.VoteAverage / 10.0) * math.Log10(float64(m.VoteCount)+1)
}
