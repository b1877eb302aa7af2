package metrics

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"
)

// EnvPrefix limits EnvHandler to the client's own settings.
const EnvPrefix = "FIT_"

var reloadCallback func() error

// SetReloadCallback sets the function to call when configuration reload is requested
func SetReloadCallback(callback func() error) {
	reloadCallback = callback
}

// Instrument wraps an http.Handler to record request count, status codes, latency
// and requests-per-minute on the Default registry.
func Instrument(next http.Handler) http.Handler {
	return Default.Instrument(next)
}

func (r *Registry) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(sw, req)
		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		r.recordRequest(req.Method, sw.status, time.Since(start), time.Now())
	})
}

// StatsHandler returns a compact JSON snapshot of the Default registry.
func StatsHandler(w http.ResponseWriter, req *http.Request) {
	Default.StatsHandler(w, req)
}

func (r *Registry) StatsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(r.Snapshot())
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// EnvHandler provides GET/POST access to FIT_* environment variables
func EnvHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		handleGetEnv(w)
	case http.MethodPost, http.MethodPut:
		handleSetEnv(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func handleGetEnv(w http.ResponseWriter) {
	envVars := make(map[string]string)
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if strings.Contains(key, "TOKEN") || strings.Contains(key, "PASSWORD") {
			value = "***"
		}
		envVars[key] = value
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"env_vars":  envVars,
	})
}

func handleSetEnv(w http.ResponseWriter, r *http.Request) {
	var request map[string]string
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid JSON request body", http.StatusBadRequest)
		return
	}

	updated := make(map[string]string)
	errors := make(map[string]string)

	for key, value := range request {
		if !strings.HasPrefix(key, EnvPrefix) {
			errors[key] = "Only " + EnvPrefix + "* prefixed environment variables are allowed"
			continue
		}
		if !isValidEnvVarName(key) {
			errors[key] = "Invalid environment variable name format"
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			errors[key] = "Failed to set environment variable: " + err.Error()
			continue
		}
		updated[key] = value
	}

	reloadMessage := "Environment variables updated. Note: Some changes may require a restart to take effect."
	if len(updated) > 0 && reloadCallback != nil {
		if err := reloadCallback(); err != nil {
			errors["reload"] = "Component reload failed: " + err.Error()
			reloadMessage = "Environment variables updated, but component reload failed. Manual restart may be required."
		} else {
			reloadMessage = "Environment variables updated and components reloaded successfully."
		}
	}

	statusCode := http.StatusOK
	if len(errors) > 0 && len(updated) == 0 {
		statusCode = http.StatusBadRequest
	}
	writeJSON(w, statusCode, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"updated":   updated,
		"errors":    errors,
		"message":   reloadMessage,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// isValidEnvVarName checks if the environment variable name is valid
func isValidEnvVarName(name string) bool {
	if len(name) == 0 {
		return false
	}
	for _, char := range name {
		if !((char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '_') {
			return false
		}
	}
	return true
}
