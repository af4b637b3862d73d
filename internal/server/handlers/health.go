package handlers

import "net/http"

// StatusReporter exposes the last known state of each backing dependency.
type StatusReporter interface {
	Status() map[string]bool
}

type healthResponse struct {
	Status       string          `json:"status"`
	Dependencies map[string]bool `json:"dependencias,omitempty"`
}

// Health answers 200 when every dependency is up and 503 otherwise. Without
// a reporter it only confirms the process is serving.
func Health(reporter StatusReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reporter == nil {
			respondWithJSON(w, http.StatusOK, healthResponse{Status: "ok"})
			return
		}

		deps := reporter.Status()
		for _, up := range deps {
			if !up {
				respondWithJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Dependencies: deps})
				return
			}
		}
		respondWithJSON(w, http.StatusOK, healthResponse{Status: "ok", Dependencies: deps})
	}
}
