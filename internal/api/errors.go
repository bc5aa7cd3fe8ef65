package api

import (
	"net/http"

	"github.com/leca/loqed-births/internal/apperr"
)

// BadRequest writes a 400 validation error response.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusBadRequest, ErrorBody{Erro: msg, Tipo: string(apperr.KindValidation)})
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusNotFound, ErrorBody{Erro: msg, Tipo: string(apperr.KindNotFound)})
}

// TooLarge writes a 413 error response.
func TooLarge(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorBody{Erro: msg, Tipo: string(apperr.KindValidation)})
}

// TooManyRequests writes a 429 error response.
func TooManyRequests(w http.ResponseWriter) {
	WriteJSON(w, http.StatusTooManyRequests, ErrorBody{Erro: "rate limit exceeded", Tipo: "rate_limited"})
}
