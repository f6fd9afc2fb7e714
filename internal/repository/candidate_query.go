package repository

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/emretalan/muse-db/internal/models"
)

// CandidateQuery assembles the candidate-fetch predicate from a closed set of
// optional clauses, each composed with AND. Quality floors are always present;
// every other clause is added only when the caller's filter carries it.
type CandidateQuery struct {
	conditions []string
	args       []interface{}
}

// NewCandidateQuery starts a query with the non-overridable quality floors:
// non-adult, runtime known and at least minRuntime, vote count and average at
// or above the configured minimums.
func NewCandidateQuery(minRuntime, minVoteCount int, minVoteAverage float64) *CandidateQuery {
	q := &CandidateQuery{}
	q.add("m.adult = FALSE")
	q.add(fmt.Sprintf("m.runtime >= $%d", q.next()), minRuntime)
	q.add(fmt.Sprintf("m.vote_count >= $%d", q.next()), minVoteCount)
	q.add(fmt.Sprintf("m.vote_average >= $%d", q.next()), minVoteAverage)
	return q
}

// Era restricts the release date to the bucket's inclusive year range. The
// most recent bucket is open-ended upward. Unknown buckets are ignored.
func (q *CandidateQuery) Era(era models.Era) *CandidateQuery {
	from, to, ok := era.YearRange()
	if !ok {
		return q
	}
	q.add(fmt.Sprintf("m.release_date >= $%d::date", q.next()), fmt.Sprintf("%d-01-01", from))
	if to > 0 {
		q.add(fmt.Sprintf("m.release_date <= $%d::date", q.next()), fmt.Sprintf("%d-12-31", to))
	}
	return q
}

// RuntimeBounds restricts runtime to the caller's optional min/max minutes.
func (q *CandidateQuery) RuntimeBounds(minRuntime, maxRuntime *int) *CandidateQuery {
	if minRuntime != nil {
		q.add(fmt.Sprintf("m.runtime >= $%d", q.next()), *minRuntime)
	}
	if maxRuntime != nil {
		q.add(fmt.Sprintf("m.runtime <= $%d", q.next()), *maxRuntime)
	}
	return q
}

// Languages restricts the original language to the given set.
func (q *CandidateQuery) Languages(codes []string) *CandidateQuery {
	if len(codes) == 0 {
		return q
	}
	q.add(fmt.Sprintf("m.original_language = ANY($%d)", q.next()), pq.Array(codes))
	return q
}

// Genres keeps movies having at least one of the requested genres
// (inclusive OR, not "has all"). IDs are TMDB genre ids, the public genre
// identifiers served by the genre listing.
func (q *CandidateQuery) Genres(genreIDs []int) *CandidateQuery {
	if len(genreIDs) == 0 {
		return q
	}
	q.add(fmt.Sprintf(`EXISTS (
			SELECT 1 FROM movie_genres mg
			INNER JOIN genres g ON g.id = mg.genre_id
			WHERE mg.movie_id = m.id AND g.tmdb_id = ANY($%d)
		)`, q.next()), pq.Array(genreIDs))
	return q
}

// Exclude drops the given movie ids from the result.
func (q *CandidateQuery) Exclude(movieIDs []int) *CandidateQuery {
	if len(movieIDs) == 0 {
		return q
	}
	q.add(fmt.Sprintf("NOT (m.id = ANY($%d))", q.next()), pq.Array(movieIDs))
	return q
}

// Apply adds every clause the filter specification carries.
func (q *CandidateQuery) Apply(f models.FilterSpec) *CandidateQuery {
	if f.Era != "" {
		q.Era(f.Era)
	}
	q.RuntimeBounds(f.MinRuntime, f.MaxRuntime)
	q.Languages(f.Languages)
	q.Genres(f.GenreIDs)
	return q
}

// SQL returns the full SELECT with its positional arguments, capped at limit
// rows. Truncation order is vote count descending so a capped pool keeps the
// highest-signal titles.
func (q *CandidateQuery) SQL(limit int) (string, []interface{}) {
	args := append([]interface{}{}, q.args...)
	query := fmt.Sprintf(`
		SELECT m.id, m.tmdb_id, m.title, COALESCE(m.overview, ''),
			COALESCE(TO_CHAR(m.release_date, 'YYYY-MM-DD'), ''),
			m.runtime, m.vote_average, m.vote_count, m.popularity, m.adult,
			COALESCE(m.poster_path, ''), COALESCE(m.backdrop_path, ''),
			m.original_language
		FROM movies m
		WHERE %s
		ORDER BY m.vote_count DESC
		LIMIT $%d
	`, strings.Join(q.conditions, " AND "), len(args)+1)
	args = append(args, limit)
	return query, args
}

// Where returns the assembled WHERE clause and arguments, for tests that
// assert the predicate as data.
func (q *CandidateQuery) Where() (string, []interface{}) {
	return strings.Join(q.conditions, " AND "), q.args
}

func (q *CandidateQuery) add(cond string, args ...interface{}) {
	q.conditions = append(q.conditions, cond)
	q.args = append(q.args, args...)
}

// next returns the positional index the next argument will occupy.
func (q *CandidateQuery) next() int {
	return len(q.args) + 1
}
