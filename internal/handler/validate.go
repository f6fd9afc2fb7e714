package handler

import (
	"github.com/emretalan/muse-db/internal/models"
)

const minRuntimeBound = 60

// validateSessionID checks the opaque session identifier shape. Returns an
// empty string when valid.
func validateSessionID(sessionID string) string {
	if sessionID == "" {
		return "session_id is required"
	}
	if len(sessionID) > 255 {
		return "session_id must be at most 255 characters"
	}
	return ""
}

// validateFilters checks the caller-controllable filter dimensions before
// the engine runs. Returns an empty string when valid.
func validateFilters(f models.FilterSpec) string {
	if f.Era != "" {
		if _, _, ok := f.Era.YearRange(); !ok {
			return "era must be one of 1980-1989, 1990-1999, 2000-2009, 2010-2019, 2020-present"
		}
	}
	for _, id := range f.GenreIDs {
		if id <= 0 {
			return "genre_ids must be positive"
		}
	}
	if f.MinRuntime != nil && *f.MinRuntime < minRuntimeBound {
		return "min_runtime must be at least 60"
	}
	if f.MaxRuntime != nil && *f.MaxRuntime < minRuntimeBound {
		return "max_runtime must be at least 60"
	}
	if f.MinRuntime != nil && f.MaxRuntime != nil && *f.MinRuntime > *f.MaxRuntime {
		return "min_runtime must not exceed max_runtime"
	}
	return ""
}
