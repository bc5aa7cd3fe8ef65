package handler

import (
	"encoding/json"
	"net/http"

	"github.com/leca/loqed-births/internal/api"
)

type askRequest struct {
	Pergunta string `json:"pergunta"`
}

// Ask handles POST /perguntar.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var body askRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	answer, err := h.Registry.Ask(r.Context(), body.Pergunta)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"resposta": answer})
}
