package webhook

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, code int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func messageBody(message string) map[string]string {
	return map[string]string{"message": message}
}

func errorBody(reason string) map[string]string {
	return map[string]string{"error": reason}
}
