package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TokenClaims are the JWT claims issued for API token access. The membership
// fields are a snapshot taken at issue time and are not refreshed while the
// token remains valid.
type TokenClaims struct {
	UserID           string `json:"user_id"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	MembershipActive bool   `json:"membership_active"`
	MembershipTier   string `json:"membership_tier,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies API access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenIssuer creates a TokenIssuer. secret must be non-empty; ttl of zero
// defaults to 24 hours.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, issuer: "wellspring"}, nil
}

// Issue creates a signed token for the given user.
func (ti *TokenIssuer) Issue(u *SessionUser) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID:           u.ID,
		Email:            u.Email,
		Role:             u.Role,
		MembershipActive: u.MembershipActive,
		MembershipTier:   u.MembershipTier,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Verify parses and validates a signed token, returning its claims.
func (ti *TokenIssuer) Verify(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ti.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// TTL returns the configured token lifetime.
func (ti *TokenIssuer) TTL() time.Duration {
	return ti.ttl
}

// BearerAuth returns middleware that validates a JWT from the Authorization
// header using the Bearer scheme and injects the token's user snapshot into
// the request context. Use this for token-authenticated API routes that
// bypass cookie sessions and CSRF.
//
// Usage in routes.go:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(apicors.Middleware())
//	    r.Use(auth.BearerAuth(tokenIssuer, logger))
//	    r.Mount("/api/v1", apiRoutes)
//	})
func BearerAuth(ti *TokenIssuer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("token request rejected: missing Authorization header",
					zap.String("path", r.URL.Path))
				writeJSONError(w, http.StatusUnauthorized, "missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Debug("token request rejected: invalid Authorization format",
					zap.String("path", r.URL.Path))
				writeJSONError(w, http.StatusUnauthorized, "invalid Authorization format")
				return
			}

			claims, err := ti.Verify(parts[1])
			if err != nil {
				logger.Warn("token request rejected: invalid token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err))
				writeJSONError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			u := &SessionUser{
				ID:               claims.UserID,
				Email:            claims.Email,
				Role:             claims.Role,
				MembershipActive: claims.MembershipActive,
				MembershipTier:   claims.MembershipTier,
			}
			next.ServeHTTP(w, withUser(r, u))
		})
	}
}
