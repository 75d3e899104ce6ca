package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/skypro/simplebanking/internal/api/problem"
	"github.com/skypro/simplebanking/internal/domain"
)

type contextKey string

const (
	userContextKey  contextKey = "user_id"
	roleContextKey  contextKey = "user_role"
	traceContextKey contextKey = "trace_id"
)

// AdminKeyHeader carries the configured bootstrap secret that lets an operator
// create the first users before any ADMIN account exists.
const AdminKeyHeader = "X-SECURITY-ADMIN-KEY"

type authClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates bearer tokens and the admin bootstrap header. All secrets are
// injected from configuration; nothing here is package-global.
type Auth struct {
	secret   []byte
	issuer   string
	audience string
	adminKey []byte
	tokenTTL time.Duration
}

func NewAuth(secret, issuer, audience, adminKey string) *Auth {
	return &Auth{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		adminKey: []byte(adminKey),
		tokenTTL: 24 * time.Hour,
	}
}

// IssueToken signs an HS256 token for the given user.
func (a *Auth) IssueToken(userID int64, role string) (string, error) {
	now := time.Now()
	sub := strconv.FormatInt(userID, 10)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, authClaims{
		UserID: sub,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    a.issuer,
			Audience:  jwt.ClaimStrings{a.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-30 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
	})
	return token.SignedString(a.secret)
}

// Middleware validates the JWT token and injects user metadata into the context.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/authorization-header-required"), http.StatusText(http.StatusUnauthorized), "Authorization header required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/invalid-token-format"), http.StatusText(http.StatusUnauthorized), "Invalid token format")
			return
		}

		claims, err := a.parseToken(tokenString)
		if err != nil {
			problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/invalid-token"), http.StatusText(http.StatusUnauthorized), "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims.UserID)
		ctx = context.WithValue(ctx, roleContextKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Auth) parseToken(tokenString string) (*authClaims, error) {
	claims := &authClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return a.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("missing user_id claim")
	}
	if claims.Subject != "" && claims.Subject != claims.UserID {
		return nil, fmt.Errorf("subject/user_id mismatch")
	}
	return claims, nil
}

// RequireRole ensures the authenticated user has the required role.
func (a *Auth) RequireRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := UserRoleFromContext(r.Context())
			if role != requiredRole {
				problem.Write(w, r, http.StatusForbidden, problem.Type("auth/insufficient-permissions"), http.StatusText(http.StatusForbidden), "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminGate admits requests carrying either the configured bootstrap key or an
// ADMIN bearer token. The key comparison is constant time.
func (a *Auth) AdminGate(next http.Handler) http.Handler {
	withRole := a.Middleware(a.RequireRole(domain.RoleAdmin)(next))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(AdminKeyHeader)
		if key != "" {
			if len(a.adminKey) == 0 || subtle.ConstantTimeCompare([]byte(key), a.adminKey) != 1 {
				problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/invalid-admin-key"), http.StatusText(http.StatusUnauthorized), "Invalid admin key")
				return
			}
			ctx := context.WithValue(r.Context(), roleContextKey, domain.RoleAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		withRole.ServeHTTP(w, r)
	})
}

// UserIDFromContext returns the authenticated user ID.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(userContextKey).(string); ok {
		return v
	}
	return ""
}

// UserRoleFromContext returns the role of the authenticated user.
func UserRoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(roleContextKey).(string); ok {
		return v
	}
	return ""
}

// TraceIDFromContext returns the trace id for the request.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(traceContextKey).(string); ok {
		return v
	}
	return ""
}
