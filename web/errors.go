package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/inho1628/korea-community-website/board"
)

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, board.ErrPostNotFound),
		errors.Is(err, board.ErrCommentNotFound),
		errors.Is(err, board.ErrGalleryNotFound),
		errors.Is(err, board.ErrApplicationNotFound),
		errors.Is(err, board.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, board.ErrAlreadyLiked),
		errors.Is(err, board.ErrGalleryExists),
		errors.Is(err, board.ErrApplicationClosed):
		return http.StatusConflict
	case errors.Is(err, board.ErrLoginRequired),
		errors.Is(err, board.ErrAdminCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, board.ErrAdminOnly):
		return http.StatusForbidden
	case errors.Is(err, board.ErrInvalidInput),
		errors.Is(err, board.ErrDuplicateAdmin):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as JSON. Unexpected errors are logged and hidden.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func (s *Server) panicked(w http.ResponseWriter, r *http.Request, v any) {
	s.logger.ErrorContext(r.Context(), "panic serving request",
		"method", r.Method, "path", r.URL.Path, "panic", v, "stack", string(debug.Stack()))
	w.Header().Set("Connection", "close")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return nil
}
