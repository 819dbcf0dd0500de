package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey int

const appIDContextKey contextKey = 0

// TokenIssuer is the iss claim of every token the Authenticator signs.
const TokenIssuer = "parley"

// ErrEmptySecret is returned by NewAuthenticator for an empty key.
var ErrEmptySecret = errors.New("jwt secret is empty")

// Authenticator issues and validates HMAC-signed bearer tokens. The token
// subject is the application id the turn is executed for, so the allow-list
// of the app applies to the caller instead of whatever the body claims.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

// NewAuthenticator creates an Authenticator signing with secret (HS256).
func NewAuthenticator(secret []byte) (*Authenticator, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &Authenticator{secret: secret, now: time.Now}, nil
}

// IssueToken signs a token for appID valid for ttl.
func (a *Authenticator) IssueToken(appID string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Issuer:    TokenIssuer,
		Subject:   appID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Validate checks tokenStr and returns the application id it was issued for.
func (a *Authenticator) Validate(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.Subject, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// token's application id in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractBearerToken(r)
		if tokenStr == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeJSONError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
			return
		}

		appID, err := a.Validate(tokenStr)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			writeJSONError(w, http.StatusUnauthorized, "invalid token: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), appIDContextKey, appID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ApplicationID returns the application id stored by Middleware.
func ApplicationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(appIDContextKey).(string)
	return id, ok
}

// extractBearerToken pulls the token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
