package stubserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	roleStudent = "student"
	roleAdmin   = "admin"

	tokenIssuer = "attendance-stub"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	Role      string `json:"role"`
	StudentID int    `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}

type tokenAuthority struct {
	secret []byte
	ttl    time.Duration
}

// issue signs a token for the given identity. The token ID is random so
// tokens from repeated logins remain distinguishable.
func (a *tokenAuthority) issue(role, subject string, studentID int) (string, error) {
	claims := Claims{
		Role:      role,
		StudentID: studentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// parse validates a token string and returns its claims.
func (a *tokenAuthority) parse(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Issuer != tokenIssuer {
		return nil, errors.New("issuer mismatch")
	}
	return claims, nil
}

type claimsContextKey struct{}

// requireRole rejects requests without a valid bearer token of the given
// role and injects the claims into the request context.
func (s *Server) requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respondError(w, http.StatusUnauthorized, "authorization required")
				return
			}
			claims, err := s.tokens.parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			if claims.Role != role {
				respondError(w, http.StatusUnauthorized, "wrong role for this endpoint")
				return
			}
			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// claimsFrom extracts the authenticated claims placed by requireRole.
func claimsFrom(r *http.Request) *Claims {
	claims, _ := r.Context().Value(claimsContextKey{}).(*Claims)
	return claims
}
