package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/emunotify/internal/pkg/config"
)

// middlewareMaintenance answers 503 for routes listed in
// app.maintenance.endpoints. An entry ending in "/*" blocks the whole prefix,
// e.g. "/api/v1/notification/admin/*".
func middlewareMaintenance(cfg config.Config) Middleware {
	exact := map[string]struct{}{}
	var prefixes []string
	if cfg != nil {
		for _, e := range cfg.GetArray("app.maintenance.endpoints") {
			if p, ok := strings.CutSuffix(e, "/*"); ok {
				prefixes = append(prefixes, p+"/")
				continue
			}
			exact[e] = struct{}{}
		}
	}

	blocked := func(route string) bool {
		if _, ok := exact[route]; ok {
			return true
		}
		for _, p := range prefixes {
			if strings.HasPrefix(route, p) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if blocked(matchedRoutePath(r)) {
				w.Header().Set("Retry-After", "120")
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
