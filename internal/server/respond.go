package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// All API responses share the same envelope: {"status":"success",...} or
// {"status":"error","message":...}.

func respondData(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   data,
	})
}

func respondFields(w http.ResponseWriter, fields map[string]any) {
	payload := map[string]any{"status": "success"}
	for k, v := range fields {
		payload[k] = v
	}
	respondJSON(w, http.StatusOK, payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{
		"status":  "error",
		"message": message,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}
