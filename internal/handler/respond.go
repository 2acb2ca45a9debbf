package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Lutefd/log-pipeline/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondWithError logs client errors at warn level and server errors at
// error level before writing {"error": msg}.
func respondWithError(w http.ResponseWriter, code int, msg string) {
	switch {
	case code >= http.StatusInternalServerError:
		logger.Errorf("responding with %d: %s", code, msg)
	case code >= http.StatusBadRequest:
		logger.Warnf("responding with %d: %s", code, msg)
	}
	respondWithJSON(w, code, errorResponse{Error: msg})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	dat, err := json.Marshal(payload)
	if err != nil {
		logger.Errorf("failed to marshal %T response: %v", payload, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(dat)
}
