// Package recommend builds provider search queries from genre, era and language criteria and turns the provider's
// results into deduplicated, capped pages.
package recommend

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cratedig/internal/auth"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/services"
)

// FetchSize is the number of items requested from the provider per search.
const FetchSize = 50

// Searcher executes a provider track search.
type Searcher interface {
	SearchTracks(ctx context.Context, accessToken, query string, limit, offset int) ([]models.Track, error)
}

// CredentialSource yields a credential fit to present upstream.
type CredentialSource interface {
	Ensure(ctx context.Context, cred models.Credential) auth.Result
}

// Outcome is a successful search along with the credential it ran under.
type Outcome struct {
	Page  models.SearchResultPage
	Query string
	// Auth is the lifecycle result for the credential; persist Auth.Credential when Auth.Changed is set.
	Auth auth.Result
}

// Engine runs recommendation searches.
type Engine struct {
	searcher Searcher
	creds    CredentialSource
	logger   *log.Logger
}

// NewEngine creates an [Engine]. A nil logger discards output.
func NewEngine(s Searcher, creds CredentialSource, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{searcher: s, creds: creds, logger: logger}
}

// Search validates criteria, ensures the credential, runs one provider search of [FetchSize] items at
// criteria.Offset and returns at most [models.PageSize] tracks deduplicated by id.
//
// The returned [auth.Result] is populated even on error once the credential check has run, so callers can persist a
// refreshed or failed credential. Nothing is retried.
func (e *Engine) Search(ctx context.Context, criteria models.SearchCriteria, cred models.Credential) (Outcome, error) {
	if !cred.HasAccessToken() {
		return Outcome{}, ErrUnauthorized
	}

	query, err := BuildQuery(criteria)
	if err != nil {
		return Outcome{}, err
	}

	if criteria.Offset < 0 {
		criteria.Offset = 0
	}

	out := Outcome{Query: query}
	out.Auth = e.creds.Ensure(ctx, cred)
	if !out.Auth.OK() {
		e.logger.Warn("searching with stale credential", "state", out.Auth.State, "error", out.Auth.Err)
	}

	items, err := e.searcher.SearchTracks(ctx, out.Auth.Credential.AccessToken, query, FetchSize, criteria.Offset)
	if err != nil {
		var pe *services.ProviderError
		if out.Auth.State == auth.RefreshFailed && errors.As(err, &pe) && pe.Unauthorized() {
			return out, &Error{Code: CodeRefreshFailed, Message: "session expired, sign in again", Status: pe.Status, Err: err}
		}
		return out, providerError(err)
	}

	tracks := Dedup(items, models.PageSize)
	e.logger.Debug("search complete", "query", query, "offset", criteria.Offset, "fetched", len(items), "kept", len(tracks))

	out.Page = models.SearchResultPage{Tracks: tracks, NextOffset: criteria.Offset + models.PageSize}
	return out, nil
}

// Dedup keeps the first occurrence of each track id in order, dropping entries without an id, and stops after limit
// tracks.
func Dedup(items []models.Track, limit int) []models.Track {
	seen := make(map[string]struct{}, len(items))
	tracks := make([]models.Track, 0, min(len(items), limit))

	for _, t := range items {
		if len(tracks) == limit {
			break
		}
		if t.ID == "" {
			continue
		}
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		tracks = append(tracks, t)
	}
	return tracks
}
