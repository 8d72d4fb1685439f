package http

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
	"github.com/aussiebroadwan/bookstack/pkg/httpx"
)

// ReadyzHandler is the readiness probe. It checks the critical
// dependencies: Postgres and Redis.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	rdb *redis.Client,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &healthChecks{
			Database: "ok",
			Cache:    "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		// Check database connectivity
		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// Check Redis connectivity. The revocation registry lives here, so a
		// dead Redis means authenticated traffic cannot be served safely.
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			checks.Cache = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, healthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
