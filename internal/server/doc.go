// Package server provides HTTP routing, middleware, session cookies and OAuth callback handling shared by the web API
// and the CLI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger] and [Recoverer] are the stock middleware.
//
// The [BasicRouter] implementation uses [http.ServeMux] for path matching and dispatches on method per path.
//
// # Responses
//
// JSON endpoints answer with [WriteJSON]; failures use [WriteError], whose body is {"error": code, "message": text}.
//
// # Sessions
//
// [SessionCodec] signs the session cookie as an HS256 JWT holding only the session id. The credential itself lives in
// the session store.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the one-shot authorization code callback used by the CLI login command. It validates the
// state parameter, exchanges the code and sends the result through a channel. It only processes one callback to
// prevent replay attacks.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
