package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWT validation errors.
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// Claims is the token payload; Sub carries the owner identity every record
// is scoped to.
type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTValidator verifies HMAC-signed bearer tokens.
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator creates a validator over a shared secret.
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

// ValidateToken parses and verifies a token string.
func (v *JWTValidator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Sub == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

type contextKey string

const ownerContextKey contextKey = "owner"

// AuthMiddleware rejects requests without a valid bearer token before any
// handler work happens, and stores the owner identity in the context.
func AuthMiddleware(validator *JWTValidator) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized",
					fmt.Errorf("%w: missing token", ErrUnauthorized))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized",
					fmt.Errorf("%w: %s", ErrUnauthorized, err))
				return
			}

			ctx := context.WithValue(r.Context(), ownerContextKey, claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// OwnerFromContext returns the authenticated owner identity.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerContextKey).(string)
	return owner, ok && owner != ""
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}
