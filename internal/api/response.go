package api

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// RespondWithJSON writes payload as JSON with the given status code.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("Failed to marshal %T response: %v", payload, err)
		RespondWithError(w, http.StatusInternalServerError, "Failed to marshal response")
		return
	}
	RespondWithRaw(w, code, "application/json", response)
}

// RespondWithRaw writes an already encoded body.
func RespondWithRaw(w http.ResponseWriter, code int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		log.Debugf("Failed to write response body: %v", err)
	}
}

// RespondWithError writes the {"error": message} envelope. Server errors
// are logged, client errors are not.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	if code >= http.StatusInternalServerError {
		log.WithField("status", code).Error(message)
	}
	body, _ := json.Marshal(map[string]string{"error": message})
	RespondWithRaw(w, code, "application/json", body)
}
