package http

import (
	"net/http"
	"time"

	"github.com/stagedoor/auth/internal/auth/store"
	"github.com/stagedoor/auth/pkg/httpx"
	"github.com/stagedoor/auth/pkg/slogx"
)

// ReadyzHandler reports readiness: the store must answer a ping before the
// service advertises itself as ready.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			slogx.FromContext(r.Context()).Error("readiness check failed", "err", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
				Status:  "unavailable",
				Uptime:  time.Since(startTime).String(),
				Version: version,
			})
			return
		}

		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
