package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mailproof/mailproof/pipeline"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code, msg string) {
	respondJSON(w, status, ErrorResponse{Error: msg, Code: code, Timestamp: time.Now()})
}

// respondPipelineError maps pipeline stages to HTTP statuses. Input defects
// are client errors; key lookup failures depend on infrastructure and are
// reported as bad gateway.
func respondPipelineError(w http.ResponseWriter, err error) {
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	status := http.StatusUnprocessableEntity
	if perr.Stage == pipeline.StageKey {
		status = http.StatusBadGateway
	}
	respondError(w, status, perr.Stage+"_failed", perr.Error())
}
