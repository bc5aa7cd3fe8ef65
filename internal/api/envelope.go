package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/leca/loqed-births/internal/apperr"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Erro string `json:"erro"`
	Tipo string `json:"tipo"`
}

// MessageBody is the JSON shape of plain success responses.
type MessageBody struct {
	Mensagem string `json:"mensagem"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidImage, apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindTokenInvalid:
		return http.StatusForbidden
	case apperr.KindDuplicateName:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as an {erro, tipo} body with the status of its kind.
// Errors without a kind are reported as internal with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "kind", kind, "error", err)
	}
	WriteJSON(w, status, ErrorBody{Erro: apperr.MessageOf(err), Tipo: string(kind)})
}

// WriteJSON serialises resp as JSON and writes it to w with the given HTTP status code.
func WriteJSON(w http.ResponseWriter, status int, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("WriteJSON: failed to encode response", "error", err)
	}
}
