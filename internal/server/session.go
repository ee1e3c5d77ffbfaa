package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

const sessionIssuer = "cratedig"

var (
	ErrInvalidSession = errors.New("invalid session cookie")
	ErrExpiredSession = errors.New("session cookie expired")
)

// SessionClaims identify the server-side session a cookie belongs to.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionCodec signs and verifies session cookies as HS256 JWTs.
//
// The cookie carries only the session id; the credential stays in the session store.
type SessionCodec struct {
	secret []byte
	maxAge time.Duration
	name   string
	secure bool
	now    func() time.Time
}

// NewSessionCodec creates a codec from the session configuration.
func NewSessionCodec(cfg shared.SessionConfig) (*SessionCodec, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%w: session.secret is required", shared.ErrInvalidConfig)
	}
	name := cfg.CookieName
	if name == "" {
		name = "cratedig_session"
	}
	maxAge := cfg.MaxAge()
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	return &SessionCodec{
		secret: []byte(cfg.Secret),
		maxAge: maxAge,
		name:   name,
		secure: cfg.Secure,
		now:    time.Now,
	}, nil
}

// Encode signs a token for sessionID.
func (c *SessionCodec) Encode(sessionID string) (string, error) {
	now := c.now()
	claims := &SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies a token and returns its session id.
func (c *SessionCodec) Decode(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return c.secret, nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredSession
		}
		return "", ErrInvalidSession
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return "", ErrInvalidSession
	}
	return claims.SessionID, nil
}

// SetCookie writes the signed session cookie for sessionID.
func (c *SessionCodec) SetCookie(w http.ResponseWriter, sessionID string) error {
	token, err := c.Encode(sessionID)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie expires the session cookie.
func (c *SessionCodec) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionID reads and verifies the session cookie on r.
func (c *SessionCodec) SessionID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return "", ErrInvalidSession
	}
	return c.Decode(cookie.Value)
}

// CookieName returns the name of the session cookie.
func (c *SessionCodec) CookieName() string { return c.name }
