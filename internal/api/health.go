package api

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

type healthResponse struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	CatalogSize int               `json:"catalog_size"`
}

// HealthHandlerFunc returns an http.HandlerFunc that pings every named
// dependency. Any failure reports 503 "degraded".
func HealthHandlerFunc(pingers map[string]Pinger, catalog ListingCatalog, log *slog.Logger) http.HandlerFunc {
	names := make([]string, 0, len(pingers))
	for name := range pingers {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(names))
		for _, name := range names {
			checks[name] = "ok"
			if err := pingers[name].Ping(ctx); err != nil {
				log.Error("health check: ping failed", "dependency", name, "err", err)
				checks[name] = "error"
				status = http.StatusServiceUnavailable
			}
		}

		resp := healthResponse{Status: "ok", Checks: checks, CatalogSize: catalog.Len()}
		if status != http.StatusOK {
			resp.Status = "degraded"
		}
		writeJSON(w, status, resp)
	}
}
