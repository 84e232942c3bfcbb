// Package handlers exposes the pipeline over HTTP.
package handlers

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
)

// maxBodyBytes bounds request bodies; questions and API keys are small.
const maxBodyBytes = 64 << 10

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// requestFields reads a JSON object body or a form body into a flat string map.
// Non-string JSON values are ignored. An unreadable body yields an empty map.
func requestFields(w http.ResponseWriter, r *http.Request) map[string]string {
	fields := map[string]string{}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return fields
		}
		var raw map[string]any
		if err := json.Unmarshal(body, &raw); err != nil {
			return fields
		}
		for k, v := range raw {
			if s, ok := v.(string); ok {
				fields[k] = strings.TrimSpace(s)
			}
		}
		return fields
	}

	if err := r.ParseForm(); err != nil {
		return fields
	}
	for k := range r.PostForm {
		fields[k] = strings.TrimSpace(r.PostForm.Get(k))
	}
	return fields
}

// firstField returns the first non-empty value among names.
func firstField(fields map[string]string, names ...string) string {
	for _, n := range names {
		if v := fields[n]; v != "" {
			return v
		}
	}
	return ""
}
