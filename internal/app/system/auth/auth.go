// Package auth verifies the opaque user identity attached to API requests.
//
// Clients authenticate with a bearer token in the Authorization header:
//
//	Authorization: Bearer <token>
//
// Tokens are HMAC-signed blobs produced by the identity service that issues
// them (see TokenManager.Issue, which the issuer and the tests share). The
// service itself never stores tokens; verifying the signature and expiry is
// the whole check, and the only thing a token carries is the user id.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// tokenName is the name under which token payloads are encoded. It is bound
// into the HMAC, so tokens minted for another service will not verify here.
const tokenName = "droppic-token"

// Principal is the authenticated caller in the request context. UserID is
// the opaque identifier the identity provider assigned; it is the owner key
// on every file entry the caller touches.
type Principal struct {
	UserID string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the principal & "found?" flag from the request context.
func CurrentUser(r *http.Request) (*Principal, bool) {
	p, ok := r.Context().Value(currentUserKey).(*Principal)
	return p, ok
}

// TokenConfigError is returned when token configuration is invalid.
type TokenConfigError struct {
	Message string
}

func (e *TokenConfigError) Error() string {
	return e.Message
}

// tokenClaims is the payload encoded into a bearer token.
type tokenClaims struct {
	UserID string
}

// TokenManager issues and verifies signed bearer tokens.
type TokenManager struct {
	codec  *securecookie.SecureCookie
	logger *zap.Logger
}

// NewTokenManager creates a TokenManager.
//
// Parameters:
//   - signingKey: HMAC key for tokens (must be ≥32 chars in production)
//   - maxAge: how long an issued token stays valid
//   - secure: production mode; weak keys abort startup instead of warning
//   - logger: zap logger for verification failures
func NewTokenManager(signingKey string, maxAge time.Duration, secure bool, logger *zap.Logger) (*TokenManager, error) {
	if signingKey == "" {
		return nil, &TokenConfigError{Message: "auth token key is empty; provide ≥32 random chars"}
	}
	if len(signingKey) < 32 {
		if secure {
			return nil, &TokenConfigError{Message: "auth token key is too weak for production; provide ≥32 random chars"}
		}
		logger.Warn("auth token key is weak; 32+ random chars required in production",
			zap.Int("length", len(signingKey)))
	}

	codec := securecookie.New([]byte(signingKey), nil)
	codec.MaxAge(int(maxAge.Seconds()))

	return &TokenManager{
		codec:  codec,
		logger: logger,
	}, nil
}

// Issue creates a signed token for the given user id. The token embeds its
// issue time; Verify rejects it once the configured max age has passed.
func (tm *TokenManager) Issue(userID string) (string, error) {
	return tm.codec.Encode(tokenName, tokenClaims{UserID: userID})
}

// Verify extracts and validates the bearer token on a request. Returns the
// caller's user id and true when the token is present, well-formed, signed
// by us, and not expired.
func (tm *TokenManager) Verify(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		tm.logger.Debug("auth rejected: invalid Authorization format",
			zap.String("path", r.URL.Path))
		return "", false
	}

	var claims tokenClaims
	if err := tm.codec.Decode(tokenName, parts[1], &claims); err != nil {
		tm.logger.Debug("auth rejected: token did not verify",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		return "", false
	}
	if claims.UserID == "" {
		return "", false
	}

	return claims.UserID, true
}

// RequireUser returns middleware that verifies the bearer token and injects
// the principal into the request context. Requests without a valid token get
// a 401 JSON error.
func (tm *TokenManager) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := tm.Verify(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		next.ServeHTTP(w, withUser(r, &Principal{UserID: userID}))
	})
}

func withUser(r *http.Request, p *Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, p))
}

// WithTestUser injects a Principal into the request context for testing.
func WithTestUser(r *http.Request, p *Principal) *http.Request {
	return withUser(r, p)
}
