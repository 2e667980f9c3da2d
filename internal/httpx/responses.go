package httpx

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"libraryapi/internal/apperr"
)

// APIVersion is echoed in every envelope.
const APIVersion = "1.0"

var now = time.Now

// Envelope is the uniform response body.
type Envelope struct {
	Status     string         `json:"status"`
	Timestamp  string         `json:"timestamp"`
	APIVersion string         `json:"api_version"`
	Message    string         `json:"message,omitempty"`
	Data       any            `json:"data,omitempty"`
	Error      map[string]any `json:"error,omitempty"`
}

// Responder renders envelopes. Debug controls whether 5xx errors expose
// their underlying cause.
type Responder struct {
	Debug  bool
	Logger *slog.Logger
}

func NewResponder(debug bool, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{Debug: debug, Logger: logger}
}

// JSON writes a success envelope with the given status.
func (rs *Responder) JSON(w http.ResponseWriter, status int, message string, data any) {
	env := Envelope{
		Status:     "success",
		Timestamp:  now().Format(time.RFC3339),
		APIVersion: APIVersion,
		Message:    message,
		Data:       data,
	}
	if status >= http.StatusBadRequest {
		env.Status = "error"
		env.Data = nil
	}
	rs.write(w, status, env)
}

// Error writes an error envelope for err. Errors outside the taxonomy are
// rendered as INTERNAL_ERROR.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	if appErr.Status >= http.StatusInternalServerError {
		rs.Logger.Error("request failed",
			slog.String("code", appErr.Code),
			slog.String("request_id", RequestIDFrom(r)),
			slog.Any("error", appErr.Err),
		)
	}
	env := Envelope{
		Status:     "error",
		Timestamp:  now().Format(time.RFC3339),
		APIVersion: APIVersion,
		Message:    appErr.Message,
		Error:      appErr.Body(rs.Debug),
	}
	rs.write(w, appErr.Status, env)
}

func (rs *Responder) write(w http.ResponseWriter, status int, env Envelope) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		rs.Logger.Error("encode response", slog.Any("error", err))
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
