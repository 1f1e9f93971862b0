package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const TenantKey contextKey = "tenant"

// public paths bypass authentication and rate limiting
var publicPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/live":    true,
	"/metrics": true,
}

func isPublic(r *http.Request) bool { return publicPaths[r.URL.Path] }

// APIKeyAuth validates the API key from the Authorization or X-API-Key header.
// keys maps tenant to key; an empty map disables authentication.
func APIKeyAuth(keys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r) {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				// Support both "Bearer <key>" and "<key>" formats
				apiKey = strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			}
			if apiKey == "" {
				writeError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			// constant-time comparison over every key
			var tenant string
			for t, key := range keys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					tenant = t
				}
			}
			if tenant == "" {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), TenantKey, tenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTenantFromContext extracts the authenticated tenant.
func GetTenantFromContext(ctx context.Context) string {
	if tenant, ok := ctx.Value(TenantKey).(string); ok {
		return tenant
	}
	return ""
}

// RequireTenant validates the {tenant} URL parameter and, when the request is
// authenticated, requires it to match the key's tenant.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urlTenant := chi.URLParam(r, "tenant")
		if err := ValidateTenantID(urlTenant); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if auth := GetTenantFromContext(r.Context()); auth != "" && auth != urlTenant {
			writeError(w, http.StatusForbidden, "API key is not valid for tenant "+urlTenant)
			return
		}
		next.ServeHTTP(w, r)
	})
}
