package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// ContentType holds the content type values used across the handlers.
var ContentType = struct {
	JSON string
	Text string
}{
	JSON: "application/json",
	Text: "text/plain",
}

type dataEnvelope struct {
	Data interface{} `json:"data"`
}

type errorEnvelope struct {
	Message string `json:"message"`
}

// WriteDataResponse wraps the payload in the {"data": ...} envelope
// used by all successful API responses.
func WriteDataResponse(w http.ResponseWriter, data interface{}, statusCode int) {
	payload, err := json.Marshal(dataEnvelope{Data: data})
	if err != nil {
		log.Errorf("failed to marshal data response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, payload, statusCode)
}

// WriteErrorResponse wraps the message in the {"message": ...} envelope
// used by all failed API responses.
func WriteErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	payload, err := json.Marshal(errorEnvelope{Message: message})
	if err != nil {
		log.Errorf("failed to marshal error response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, payload, statusCode)
}

func WriteTextResponseOK(w http.ResponseWriter, message string) {
	WriteResponseBytes(w, ContentType.Text, []byte(message), http.StatusOK)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Add("Content-Type", contentType)
	}
	w.WriteHeader(statusCode)

	if _, err := w.Write(message); err != nil {
		// TODO: add metrics and alarms instead... sometime in the future
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}
