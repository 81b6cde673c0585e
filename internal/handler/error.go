package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/DukeRupert/catalog-admin/internal/requestctx"
)

// ErrorResponse answers a request that failed outside a modal or list
// panel: unknown records, rate limits, double submits. The status comes
// from the error code and the body is the user-facing message only.
// htmx callers get plain text, which app.js shows as a toast; API-style
// callers asking for JSON get a JSONError.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	status := ErrorCodeToHTTPStatus(code)

	level, msg := slog.LevelInfo, "client error"
	if status >= 500 {
		level, msg = slog.LevelError, "server error"
	}
	logger.Log(r.Context(), level, msg,
		"error", err.Error(),
		"code", code,
		"op", domain.ErrorOp(err),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"request_id", requestctx.RequestID(r.Context()),
	)

	if !wantsJSON(r) {
		http.Error(w, message, status)
		return
	}

	var body JSONError
	body.Error.Code = code
	body.Error.Message = message
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// NotFoundResponse answers paths no route matches.
func NotFoundResponse(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, r, logger, domain.Errorf(domain.ENOTFOUND, "", "The requested page was not found"))
	}
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON is false for htmx even when it sends a JSON Accept header.
func wantsJSON(r *http.Request) bool {
	if isHTMX(r) {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// JSONError is the error body for JSON callers.
type JSONError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
