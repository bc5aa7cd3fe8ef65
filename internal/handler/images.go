package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/leca/loqed-births/internal/api"
)

// GetSecureImage handles GET /get_secure_image/{content_id}.
func (h *Handler) GetSecureImage(w http.ResponseWriter, r *http.Request) {
	link, err := h.Images.IssueSecureLink(chi.URLParam(r, "content_id"))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"secure_url": link})
}

// SecureImage handles GET /secure_image/{token}.
func (h *Handler) SecureImage(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.Images.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "private, no-store")
	writeImage(w, data, contentType)
}

// LoadImage handles GET /load_image/{content_id}.
func (h *Handler) LoadImage(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.Images.Load(r.Context(), chi.URLParam(r, "content_id"))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	writeImage(w, data, contentType)
}

func writeImage(w http.ResponseWriter, data []byte, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
