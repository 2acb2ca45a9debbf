package handler

import "net/http"

// ReadinessFunc reports why the process cannot serve yet, or nil when it can.
type ReadinessFunc func() error

type readinessResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// NewReadinessHandler answers 200 while ready reports nil and 503 with the
// reason otherwise. A nil ready is always ready.
func NewReadinessHandler(ready ReadinessFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(); err != nil {
				respondWithJSON(w, http.StatusServiceUnavailable, readinessResponse{Status: "unavailable", Reason: err.Error()})
				return
			}
		}
		respondWithJSON(w, http.StatusOK, readinessResponse{Status: "ok"})
	}
}
