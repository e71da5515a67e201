package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
)

const tenantHeader = "X-Tenant-ID"

// RequireTenant rejects requests without a tenant header. Handlers read the
// header themselves and pass the tenant down as an explicit argument; there is
// no request-scoped tenant global.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(tenantHeader) == "" {
			http.Error(w, fmt.Sprintf("%s header is required", tenantHeader), http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tenantID(r *http.Request) string {
	return r.Header.Get(tenantHeader)
}

func LoggingMiddleware(log logr.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.V(1).Info("http request", "method", r.Method, "path", r.URL.Path,
				"tenant_id", tenantID(r), "duration_ms", time.Since(start).Milliseconds())
		})
	}
}

func RecoveryMiddleware(log logr.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error(fmt.Errorf("%v", err), "panic recovered", "path", r.URL.Path)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
