package api

import (
	"context"
	"net/http"
	"strings"

	"fleettrack/internal/shared/jwt"
	"fleettrack/internal/shared/util"
)

type contextKey string

const (
	SubjectIDKey contextKey = "subject_id"
	RoleKey      contextKey = "role"
	CompanyIDKey contextKey = "company_id"
)

// AuthMiddleware decodes the bearer credential and requires an owner or
// dispatcher role. The resolved {subject, role, companyId} travel on the
// request context as explicit values.
func AuthMiddleware(tokens *jwt.Manager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			util.WriteJSONError(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			util.WriteJSONError(w, "invalid Authorization format", http.StatusUnauthorized)
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil {
			util.WriteJSONError(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		if claims.Role != jwt.RoleOwner && claims.Role != jwt.RoleDispatcher {
			util.WriteJSONError(w, "owner or dispatcher role required", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), SubjectIDKey, claims.Subject)
		ctx = context.WithValue(ctx, RoleKey, claims.Role)
		ctx = context.WithValue(ctx, CompanyIDKey, claims.CompanyID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func CompanyIDFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(CompanyIDKey).(int64); ok {
		return id
	}
	return 0
}
