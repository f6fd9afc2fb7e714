package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/emretalan/muse-db/internal/config"
	"github.com/emretalan/muse-db/internal/models"
	"github.com/emretalan/muse-db/internal/service"
)

func testPolicy() config.EngineConfig {
	return config.EngineConfig{
		MinRuntime:          60,
		MinVoteCount:        50,
		MinVoteAverage:      5.0,
		CandidateCap:        1000,
		RecentExcludeLimit:  20,
		FirstPickPercentile: 0.3,
		FirstPickMinPool:    10,
		DefaultBrowseLimit:  30,
		ImageBaseURL:        "https://image.tmdb.org/t/p/w500",
	}
}

// fakeCatalog serves movies from memory, applying the filter dimensions the
// engine delegates to the catalog store.
type fakeCatalog struct {
	movies     []models.Movie
	genreNames map[int][]string // movie id -> genre names
	genreIDs   map[int][]int    // movie id -> public (TMDB) genre ids
	genreList  []models.Genre

	fetchErr    error
	gotExcluded []int
	listCalls   int
}

func (f *fakeCatalog) FetchCandidates(_ context.Context, filters models.FilterSpec, excludeIDs []int) ([]models.Movie, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	f.gotExcluded = excludeIDs

	excluded := make(map[int]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	out := make([]models.Movie, 0, len(f.movies))
	for _, m := range f.movies {
		if excluded[m.ID] || !f.matches(m, filters) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeCatalog) matches(m models.Movie, filters models.FilterSpec) bool {
	if filters.Era != "" {
		from, to, _ := filters.Era.YearRange()
		if m.Year() < from || (to > 0 && m.Year() > to) {
			return false
		}
	}
	if len(filters.GenreIDs) > 0 {
		found := false
		for _, want := range filters.GenreIDs {
			for _, have := range f.genreIDs[m.ID] {
				if want == have {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	if len(filters.Languages) > 0 {
		found := false
		for _, lang := range filters.Languages {
			if m.OriginalLanguage == lang {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if filters.MinRuntime != nil && (m.Runtime == nil || *m.Runtime < *filters.MinRuntime) {
		return false
	}
	if filters.MaxRuntime != nil && (m.Runtime == nil || *m.Runtime > *filters.MaxRuntime) {
		return false
	}
	return true
}

func (f *fakeCatalog) GenresForMovies(_ context.Context, movieIDs []int) (map[int][]string, error) {
	out := make(map[int][]string)
	for _, id := range movieIDs {
		if names, ok := f.genreNames[id]; ok {
			out[id] = names
		}
	}
	return out, nil
}

func (f *fakeCatalog) ListGenres(context.Context) ([]models.Genre, error) {
	f.listCalls++
	return f.genreList, nil
}

func (f *fakeCatalog) Ping(context.Context) error { return nil }

type recordedPick struct {
	sessionID string
	movieID   int
	filters   models.FilterSpec
}

// fakePicks is an in-memory session history store.
type fakePicks struct {
	recent    []int
	hasPicks  bool
	records   []recordedPick
	recordErr error
	recentErr error
}

func (f *fakePicks) RecordPick(_ context.Context, sessionID string, movieID int, filters models.FilterSpec) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.records = append(f.records, recordedPick{sessionID, movieID, filters})
	return nil
}

func (f *fakePicks) RecentMovieIDs(_ context.Context, _ string, limit int) ([]int, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakePicks) HasPicks(context.Context, string) (bool, error) {
	return f.hasPicks, nil
}

func ratedMovie(id int, title string, year string, avg float64, votes int) models.Movie {
	rt := 100
	return models.Movie{
		ID:          id,
		Title:       title,
		ReleaseDate: year + "-06-15",
		Runtime:     &rt,
		VoteAverage: avg,
		VoteCount:   votes,
	}
}

func newTestService(catalog *fakeCatalog, picks *fakePicks, seed uint64) *service.RecommendationService {
	return service.NewRecommendationService(catalog, picks, nil, testPolicy(), testRand(seed))
}

// ── PickMovie ──────────────────────────────────────────────────────────────

func TestPickMovie_NeverReturnsRecentlyShown(t *testing.T) {
	catalog := &fakeCatalog{}
	for i := 1; i <= 5; i++ {
		catalog.movies = append(catalog.movies, ratedMovie(i, "m", "2015", 7.0, 500))
	}
	picks := &fakePicks{recent: []int{1, 2, 3, 4}, hasPicks: true}
	svc := newTestService(catalog, picks, 11)

	for i := 0; i < 20; i++ {
		resp, err := svc.PickMovie(context.Background(), "s1", models.FilterSpec{})
		if err != nil {
			t.Fatalf("PickMovie returned error: %v", err)
		}
		if resp.Movie == nil {
			t.Fatal("PickMovie returned no movie with one eligible candidate")
		}
		if resp.Movie.ID != 5 {
			t.Fatalf("PickMovie returned excluded movie %d", resp.Movie.ID)
		}
	}
}

func TestPickMovie_NoMatchIsNotAnError(t *testing.T) {
	catalog := &fakeCatalog{}
	picks := &fakePicks{hasPicks: true}
	svc := newTestService(catalog, picks, 1)

	resp, err := svc.PickMovie(context.Background(), "s1", models.FilterSpec{})
	if err != nil {
		t.Fatalf("empty catalog should not be an error, got: %v", err)
	}
	if resp.Movie != nil {
		t.Errorf("expected nil movie, got %d", resp.Movie.ID)
	}
	if resp.Message == "" {
		t.Error("expected an explanatory message for the empty outcome")
	}
	if len(picks.records) != 0 {
		t.Errorf("no-match outcome wrote %d pick records, want 0", len(picks.records))
	}
}

func TestPickMovie_WritesExactlyOneRecord(t *testing.T) {
	catalog := &fakeCatalog{
		movies:     []models.Movie{ratedMovie(42, "The Movie", "2012", 8.1, 2000)},
		genreNames: map[int][]string{42: {"Drama"}},
	}
	picks := &fakePicks{hasPicks: true}
	svc := newTestService(catalog, picks, 2)

	filters := models.FilterSpec{Era: models.Era2010s}
	resp, err := svc.PickMovie(context.Background(), "s1", filters)
	if err != nil {
		t.Fatalf("PickMovie returned error: %v", err)
	}
	if resp.Movie == nil {
		t.Fatal("PickMovie returned no movie")
	}
	if len(picks.records) != 1 {
		t.Fatalf("wrote %d pick records, want 1", len(picks.records))
	}
	rec := picks.records[0]
	if rec.sessionID != "s1" || rec.movieID != resp.Movie.ID {
		t.Errorf("record = (%s, %d), want (s1, %d)", rec.sessionID, rec.movieID, resp.Movie.ID)
	}
	if rec.filters.Era != models.Era2010s {
		t.Errorf("record filters era = %q, want %q", rec.filters.Era, models.Era2010s)
	}
}

func TestPickMovie_RecordWriteFailureFailsCall(t *testing.T) {
	catalog := &fakeCatalog{movies: []models.Movie{ratedMovie(1, "m", "2015", 7.0, 500)}}
	picks := &fakePicks{hasPicks: true, recordErr: errors.New("history store down")}
	svc := newTestService(catalog, picks, 3)

	if _, err := svc.PickMovie(context.Background(), "s1", models.FilterSpec{}); err == nil {
		t.Fatal("expected error when the pick record write fails")
	}
}

func TestPickMovie_StoreFailurePropagates(t *testing.T) {
	catalog := &fakeCatalog{fetchErr: errors.New("catalog unreachable")}
	picks := &fakePicks{hasPicks: true}
	svc := newTestService(catalog, picks, 4)

	if _, err := svc.PickMovie(context.Background(), "s1", models.FilterSpec{}); err == nil {
		t.Fatal("expected catalog failure to propagate")
	}

	catalog2 := &fakeCatalog{movies: []models.Movie{ratedMovie(1, "m", "2015", 7.0, 500)}}
	picks2 := &fakePicks{recentErr: errors.New("history unreachable")}
	svc2 := newTestService(catalog2, picks2, 4)
	if _, err := svc2.PickMovie(context.Background(), "s1", models.FilterSpec{}); err == nil {
		t.Fatal("expected history failure to propagate")
	}
}

func TestPickMovie_FirstPickStaysInTopQuantile(t *testing.T) {
	catalog := &fakeCatalog{}
	topIDs := make(map[int]bool)
	for i := 1; i <= 100; i++ {
		// Ascending quality: ids 71..100 form the top 30% by weight.
		catalog.movies = append(catalog.movies, ratedMovie(i, "m", "2015", float64(i)/10, 1000))
		if i > 70 {
			topIDs[i] = true
		}
	}
	svc := newTestService(catalog, &fakePicks{hasPicks: false}, 5)

	for i := 0; i < 50; i++ {
		resp, err := svc.PickMovie(context.Background(), "fresh", models.FilterSpec{})
		if err != nil {
			t.Fatalf("PickMovie returned error: %v", err)
		}
		if !topIDs[resp.Movie.ID] {
			t.Fatalf("first pick chose movie %d outside the top quantile", resp.Movie.ID)
		}
	}
}

func TestPickMovie_ResolvedShape(t *testing.T) {
	m := ratedMovie(7, "Arrival", "2016", 7.345, 900)
	m.PosterPath = "/arrival.jpg"
	m.OriginalLanguage = "en"
	m.Overview = "aliens arrive"
	catalog := &fakeCatalog{
		movies:     []models.Movie{m},
		genreNames: map[int][]string{7: {"Drama", "Sci-Fi"}},
	}
	svc := newTestService(catalog, &fakePicks{hasPicks: true}, 6)

	resp, err := svc.PickMovie(context.Background(), "s1", models.FilterSpec{})
	if err != nil {
		t.Fatalf("PickMovie returned error: %v", err)
	}
	got := resp.Movie
	if got.Title != "Arrival" || got.Year != 2016 {
		t.Errorf("resolved (%q, %d), want (Arrival, 2016)", got.Title, got.Year)
	}
	if got.PosterURL != "https://image.tmdb.org/t/p/w500/arrival.jpg" {
		t.Errorf("poster URL = %q", got.PosterURL)
	}
	if got.VoteAverage != 7.3 {
		t.Errorf("vote average = %v, want 7.3", got.VoteAverage)
	}
	if len(got.Genres) != 2 {
		t.Errorf("genres = %v, want two names", got.Genres)
	}
	if got.Runtime == nil || *got.Runtime != 100 {
		t.Errorf("runtime = %v, want 100", got.Runtime)
	}
}

func TestPickMovie_EraAndGenreFiltering(t *testing.T) {
	catalog := &fakeCatalog{
		movies: []models.Movie{
			ratedMovie(1, "Comedy 2015", "2015", 7.0, 800),
			ratedMovie(2, "Comedy 2016", "2016", 6.5, 1200),
			ratedMovie(3, "Comedy 2021", "2021", 8.0, 3000),
		},
		genreIDs: map[int][]int{1: {35}, 2: {35}, 3: {35}},
		genreNames: map[int][]string{
			1: {"Comedy"}, 2: {"Comedy"}, 3: {"Comedy"},
		},
	}
	picks := &fakePicks{hasPicks: true}
	svc := newTestService(catalog, picks, 8)

	filters := models.FilterSpec{Era: models.Era2010s, GenreIDs: []int{35}}
	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		resp, err := svc.PickMovie(context.Background(), "s1", filters)
		if err != nil {
			t.Fatalf("PickMovie returned error: %v", err)
		}
		if resp.Movie.ID == 3 {
			t.Fatal("2021 title returned for the 2010-2019 era")
		}
		seen[resp.Movie.ID] = true
	}
	if !seen[1] || !seen[2] {
		t.Errorf("expected both eligible comedies across repeated calls, saw %v", seen)
	}
}

// ── BrowseMovies ───────────────────────────────────────────────────────────

func TestBrowseMovies_LimitAndNoRecord(t *testing.T) {
	catalog := &fakeCatalog{}
	for i := 1; i <= 50; i++ {
		catalog.movies = append(catalog.movies, ratedMovie(i, "m", "2010", 6.0, 300))
	}
	picks := &fakePicks{}
	svc := newTestService(catalog, picks, 12)

	resp, err := svc.BrowseMovies(context.Background(), models.BrowseRequest{Limit: 5})
	if err != nil {
		t.Fatalf("BrowseMovies returned error: %v", err)
	}
	if len(resp.Movies) != 5 || resp.Count != 5 {
		t.Fatalf("got %d movies (count %d), want 5", len(resp.Movies), resp.Count)
	}
	seen := make(map[int]bool)
	for _, m := range resp.Movies {
		if seen[m.ID] {
			t.Fatalf("movie %d returned twice", m.ID)
		}
		seen[m.ID] = true
	}
	if len(picks.records) != 0 {
		t.Errorf("browse wrote %d pick records, want 0", len(picks.records))
	}
}

func TestBrowseMovies_DefaultLimit(t *testing.T) {
	catalog := &fakeCatalog{}
	for i := 1; i <= 80; i++ {
		catalog.movies = append(catalog.movies, ratedMovie(i, "m", "2010", 6.0, 300))
	}
	svc := newTestService(catalog, &fakePicks{}, 13)

	resp, err := svc.BrowseMovies(context.Background(), models.BrowseRequest{})
	if err != nil {
		t.Fatalf("BrowseMovies returned error: %v", err)
	}
	if len(resp.Movies) != 30 {
		t.Errorf("got %d movies, want the default limit of 30", len(resp.Movies))
	}
}

func TestBrowseMovies_UnionsCallerAndRecencyExclusions(t *testing.T) {
	catalog := &fakeCatalog{}
	for i := 1; i <= 10; i++ {
		catalog.movies = append(catalog.movies, ratedMovie(i, "m", "2010", 6.0, 300))
	}
	picks := &fakePicks{recent: []int{1, 2}}
	svc := newTestService(catalog, picks, 14)

	resp, err := svc.BrowseMovies(context.Background(), models.BrowseRequest{
		SessionID:  "s1",
		ExcludeIDs: []int{2, 3},
	})
	if err != nil {
		t.Fatalf("BrowseMovies returned error: %v", err)
	}

	wantExcluded := map[int]bool{1: true, 2: true, 3: true}
	got := make(map[int]bool)
	for _, id := range catalog.gotExcluded {
		got[id] = true
	}
	for id := range wantExcluded {
		if !got[id] {
			t.Errorf("exclusion set missing movie %d: %v", id, catalog.gotExcluded)
		}
	}
	for _, m := range resp.Movies {
		if wantExcluded[m.ID] {
			t.Errorf("excluded movie %d was returned", m.ID)
		}
	}
}

func TestBrowseMovies_EmptyPool(t *testing.T) {
	svc := newTestService(&fakeCatalog{}, &fakePicks{}, 15)
	resp, err := svc.BrowseMovies(context.Background(), models.BrowseRequest{Limit: 10})
	if err != nil {
		t.Fatalf("BrowseMovies returned error: %v", err)
	}
	if len(resp.Movies) != 0 {
		t.Errorf("got %d movies from an empty pool, want 0", len(resp.Movies))
	}
}
