package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"bookshelf/internal/platform/validate"
)

// Envelope is the shape of every JSON response.
type Envelope struct {
	Success   bool          `json:"success"`
	Data      any           `json:"data,omitempty"`
	Error     string        `json:"error,omitempty"`
	Code      string        `json:"code,omitempty"`
	Message   string        `json:"message,omitempty"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Meta      any           `json:"meta,omitempty"`
	Timestamp string        `json:"timestamp"`
}

type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DetailsFrom converts validation failures into response details.
func DetailsFrom(fields []validate.FieldError) []ErrorDetail {
	if len(fields) == 0 {
		return nil
	}
	out := make([]ErrorDetail, len(fields))
	for i, f := range fields {
		out[i] = ErrorDetail{Field: f.Field, Message: f.Message}
	}
	return out
}

var now = time.Now

func buildMeta(r *http.Request, customMeta map[string]any) any {
	requestID := ""
	if r != nil {
		requestID = RequestIDFrom(r)
	}
	if requestID == "" && len(customMeta) == 0 {
		return nil
	}
	meta := make(map[string]any, len(customMeta)+1)
	if requestID != "" {
		meta["request_id"] = requestID
	}
	for k, v := range customMeta {
		meta[k] = v
	}
	return meta
}

func write(w http.ResponseWriter, status int, env Envelope) {
	env.Timestamp = now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func JSONSuccess(w http.ResponseWriter, r *http.Request, data any, meta map[string]any) {
	write(w, http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Meta:    buildMeta(r, meta),
	})
}

func JSONSuccessCreated(w http.ResponseWriter, r *http.Request, data any) {
	write(w, http.StatusCreated, Envelope{
		Success: true,
		Data:    data,
		Meta:    buildMeta(r, nil),
	})
}

func JSONMessage(w http.ResponseWriter, r *http.Request, message string) {
	write(w, http.StatusOK, Envelope{
		Success: true,
		Message: message,
		Meta:    buildMeta(r, nil),
	})
}

func JSONError(w http.ResponseWriter, r *http.Request, statusCode int, code string, message string, details []ErrorDetail) {
	write(w, statusCode, Envelope{
		Success: false,
		Error:   message,
		Code:    code,
		Details: details,
		Meta:    buildMeta(r, nil),
	})
}
