// Package respond provides utilities for sending HTTP responses in JSON format.
// It includes error handling with sanitization to prevent leaking sensitive information.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hretheum/vectorwave.io-sub009/internal/domain/entity"
)

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// Log the error but cannot send error response as headers already sent
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Error writes a JSON error response with the given status code and error message.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// SafeError sanitizes error messages before returning them to callers.
// Validation errors carry caller-actionable messages and pass through
// as-is; anything else is logged with secrets masked and replaced by a
// generic message.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	// 500エラーは常に内部エラーとして扱う
	if code < 500 && isCallerError(err) {
		JSON(w, code, map[string]string{"error": err.Error()})
		return
	}

	// 内部エラーはログに出力し、汎用メッセージを返す
	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}

// isCallerError reports whether the error message is safe to show the
// caller. Domain validation errors qualify by type; the substring list
// covers ad-hoc caller errors built inline by handlers.
func isCallerError(err error) bool {
	var validationErr *entity.ValidationError
	if errors.As(err, &validationErr) {
		return true
	}
	if errors.Is(err, entity.ErrValidationFailed) || errors.Is(err, entity.ErrInvalidInput) {
		return true
	}

	safeFragments := []string{
		"required",
		"invalid",
		"not found",
		"must be",
		"cannot be",
		"too long",
		"rate limit",
	}
	msg := strings.ToLower(err.Error())
	for _, safe := range safeFragments {
		if strings.Contains(msg, safe) {
			return true
		}
	}
	return false
}
