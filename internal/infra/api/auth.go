package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// HookClaims authorise calls to the trigger and calendar routes.
type HookClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

const hookScope = "hooks"

// HookAuth signs and verifies HS256 hook tokens.
type HookAuth struct{ secret []byte }

func NewHookAuth(secret string) *HookAuth { return &HookAuth{secret: []byte(secret)} }

// Enabled is false when no secret is configured.
func (a *HookAuth) Enabled() bool { return a != nil && len(a.secret) > 0 }

// Mint issues a token for subject. A zero ttl issues a token without expiry.
func (a *HookAuth) Mint(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := HookClaims{
		Scope: hookScope,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   subject,
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseFromRequest reads "Authorization: Bearer <jwt>" or ?token=<jwt>.
func (a *HookAuth) ParseFromRequest(r *http.Request) (*HookClaims, error) {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return a.parse(strings.TrimSpace(hdr[7:]))
		}
	}
	if tok := r.URL.Query().Get("token"); tok != "" {
		return a.parse(tok)
	}
	return nil, ErrMissingToken
}

func (a *HookAuth) parse(tok string) (*HookClaims, error) {
	claims := &HookClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid || claims.Scope != hookScope {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Require rejects requests without a valid token. It passes everything
// through when auth is disabled.
func (a *HookAuth) Require() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.Enabled() {
				next.ServeHTTP(w, r)
				return
			}
			if _, err := a.ParseFromRequest(r); err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
