package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Every response carries at least a success flag and a message; partial
// successes add a warning instead of failing.
type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func OK(w http.ResponseWriter, payload map[string]interface{}) {
	body := envelope{"success": true, "message": "ok"}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// OKWithWarning reports forward progress on an operation whose secondary
// step failed.
func OKWithWarning(w http.ResponseWriter, warning string, payload map[string]interface{}) {
	slog.Warn("partial success", "warning", warning)
	body := envelope{"success": true, "message": "ok", "warning": warning}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	writeJSON(w, http.StatusBadRequest, envelope{"success": false, "message": msg})
}

func Unauthorized(w http.ResponseWriter, msg string) {
	slog.Warn("unauthorized", "message", msg)
	writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "message": msg})
}

func Forbidden(w http.ResponseWriter, msg string) {
	slog.Warn("forbidden", "message", msg)
	writeJSON(w, http.StatusForbidden, envelope{"success": false, "message": msg})
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	writeJSON(w, http.StatusNotFound, envelope{"success": false, "message": msg})
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	body := envelope{"success": false, "message": msg}
	if err != nil {
		body["message"] = msg + ": " + err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, body)
}
