package router

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

const healthTimeout = 2 * time.Second

type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// healthHandler answers 200 when every probe passes, 503 otherwise.
func healthHandler(checks []HealthCheck) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "up", Dependencies: make(map[string]string, len(checks))}
		code := http.StatusOK

		for _, c := range checks {
			if c.Check == nil {
				resp.Dependencies[c.Name] = "up"
				continue
			}
			if err := c.Check(ctx); err != nil {
				resp.Dependencies[c.Name] = "down"
				resp.Status = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Dependencies[c.Name] = "up"
		}

		writeJSON(w, resp, code)
	}
}
