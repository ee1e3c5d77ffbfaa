// Package services implements the music provider client used by the token lifecycle manager, the recommendation
// engine and playlist creation.
//
// # Provider Interface
//
// [Provider] lists the Web API calls the application makes: track search, current user, playlist creation, adding
// tracks and genre seeds. Every call takes the bearer token as an argument, so one [SpotifyService] is shared by all
// requests and sessions without holding any per-user state.
//
// # OAuth2 Grants
//
// [Authorizer] covers the authorization code exchange used at sign-in and the refresh_token grant used by
// auth.Manager. Both go through [golang.org/x/oauth2] with the service's HTTP client injected via
// [oauth2.HTTPClient], so the same timeout applies to token and API calls.
//
// # Outbound Policy
//
//   - Every request has an explicit timeout (10s unless configured).
//   - A [rate.Limiter] gates requests client-side when requests_per_second is set.
//   - Nothing is retried here; callers decide.
//
// # Error Handling
//
// Upstream failures are returned as [*ProviderError] carrying the HTTP status (0 for transport failures) and the
// provider's message. It matches [shared.ErrAPIRequest] with errors.Is.
package services
