// Package auth implements the token lifecycle manager: it decides when a provider credential must be refreshed,
// performs the refresh round-trip, and reports the outcome in-band instead of returning an error.
package auth

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cratedig/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// defaultLifetime is used when a grant carries no expiry.
const defaultLifetime = time.Hour

// State is the lifecycle state of a credential after [Manager.Ensure].
type State int

const (
	Valid State = iota
	ExpiredPendingRefresh
	RefreshFailed
)

func (s State) String() string {
	switch s {
	case Valid:
		return "VALID"
	case ExpiredPendingRefresh:
		return "EXPIRED_PENDING_REFRESH"
	case RefreshFailed:
		return "REFRESH_FAILED"
	default:
		return "UNKNOWN"
	}
}

// Refresher performs the provider's refresh_token grant.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Result is the tagged outcome of [Manager.Ensure].
//
// Credential is always usable for reads. When State is [RefreshFailed], Err holds the provider failure and the
// credential's token fields are the ones passed in. Changed is set whenever the credential differs from the input and
// must be written back to the session store.
type Result struct {
	Credential models.Credential
	State      State
	Refreshed  bool
	Changed    bool
	Err        error
}

// OK reports whether the credential can be presented upstream.
func (r Result) OK() bool { return r.State == Valid }

// Options configures a [Manager].
type Options struct {
	// Coalesce collapses concurrent refreshes of the same refresh token into one provider call.
	Coalesce bool
	// Now overrides the clock.
	Now    func() time.Time
	Logger *log.Logger
}

// Manager owns the refresh decision for provider credentials. It keeps no per-user state; the session store is the
// only place a credential lives between requests.
type Manager struct {
	refresher Refresher
	now       func() time.Time
	logger    *log.Logger
	group     *singleflight.Group
}

// NewManager creates a [Manager] that refreshes through r.
func NewManager(r Refresher, opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	m := &Manager{refresher: r, now: opts.Now, logger: opts.Logger}
	if opts.Coalesce {
		m.group = &singleflight.Group{}
	}
	return m
}

// Ensure returns cred unchanged while it is unexpired. Otherwise it performs exactly one refresh round-trip and
// returns either a credential with a new access token and expiry, or the input credential marked REFRESH_FAILED.
//
// A credential carrying REFRESH_FAILED is retried like any other expired credential.
func (m *Manager) Ensure(ctx context.Context, cred models.Credential) Result {
	now := m.now()
	if !cred.Expired(now) {
		return Result{Credential: cred, State: Valid}
	}

	m.logger.Debug("credential expired, refreshing", "state", ExpiredPendingRefresh, "expired_at", cred.Expiry())

	token, err := m.refresh(ctx, cred.RefreshToken)
	if err != nil {
		m.logger.Warn("refresh failed", "error", err)
		failed := cred
		failed.LastError = models.RefreshFailed
		return Result{
			Credential: failed,
			State:      RefreshFailed,
			Changed:    cred.LastError != models.RefreshFailed,
			Err:        err,
		}
	}

	return Result{
		Credential: Grant(token, cred.RefreshToken, m.now()),
		State:      Valid,
		Refreshed:  true,
		Changed:    true,
	}
}

func (m *Manager) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if m.group == nil {
		return m.refresher.Refresh(ctx, refreshToken)
	}

	v, err, shared := m.group.Do(refreshToken, func() (any, error) {
		return m.refresher.Refresh(context.WithoutCancel(ctx), refreshToken)
	})
	if shared {
		m.logger.Debug("joined in-flight refresh")
	}
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

// Grant builds a credential from a token grant. previousRefresh is kept when the grant does not rotate the refresh
// token; the expiry falls back to now plus one hour when the grant declares none.
func Grant(token *oauth2.Token, previousRefresh string, now time.Time) models.Credential {
	refresh := token.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}

	expiry := token.Expiry
	if expiry.IsZero() {
		expiry = now.Add(defaultLifetime)
	}

	return models.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    expiry.UnixMilli(),
	}
}
