package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tobenna/launchpad/internal/api/problem"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxTraceID
)

var (
	jwtSecret   []byte
	jwtIssuer   string
	jwtAudience string
)

// SetJWTSecret installs the HS256 signing secret. Empty values are ignored so
// a misconfigured call cannot silently clear a working secret.
func SetJWTSecret(secret string) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
}

// SetJWTValidation configures optional issuer and audience checks.
func SetJWTValidation(issuer, audience string) {
	jwtIssuer = strings.TrimSpace(issuer)
	jwtAudience = strings.TrimSpace(audience)
}

// JWTSecret returns a copy of the signing secret for token issuance.
func JWTSecret() []byte {
	out := make([]byte, len(jwtSecret))
	copy(out, jwtSecret)
	return out
}

func JWTIssuer() string   { return jwtIssuer }
func JWTAudience() string { return jwtAudience }

type userClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// AuthMiddleware requires a valid bearer token and puts the caller's user id
// on the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			unauthorized(w, r, "auth/missing-bearer-token", "A bearer token is required")
			return
		}
		if len(jwtSecret) == 0 {
			problem.Write(w, r, http.StatusInternalServerError, problem.Type("auth/misconfigured"), "", "auth is not configured")
			return
		}

		userID, err := verifyToken(raw)
		if err != nil {
			unauthorized(w, r, "auth/invalid-token", "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxUserID).(string)
	return id
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header {
		return "", false
	}
	return token, true
}

func verifyToken(raw string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if jwtIssuer != "" {
		opts = append(opts, jwt.WithIssuer(jwtIssuer))
	}
	if jwtAudience != "" {
		opts = append(opts, jwt.WithAudience(jwtAudience))
	}

	claims := &userClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("token invalid")
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("user_id claim missing")
	}
	// The sub claim, when present, must not contradict user_id.
	if claims.Subject != "" && claims.Subject != claims.UserID {
		return "", fmt.Errorf("sub does not match user_id")
	}
	return claims.UserID, nil
}

func unauthorized(w http.ResponseWriter, r *http.Request, slug, detail string) {
	problem.Write(w, r, http.StatusUnauthorized, problem.Type(slug), "", detail)
}
