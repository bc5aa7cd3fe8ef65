package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leca/loqed-births/internal/api"
	"github.com/leca/loqed-births/internal/model"
	"github.com/leca/loqed-births/internal/registry"
)

const msgUserNotFound = "Usuário não encontrado"

// parseForm parses a multipart or urlencoded body. It writes the error
// response and returns false when the body is unusable.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	err := r.ParseMultipartForm(h.MaxUploadBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err == nil {
		return true
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		api.TooLarge(w, "upload exceeds the size limit")
		return false
	}
	api.BadRequest(w, "invalid form: "+err.Error())
	return false
}

// formFile reads the named file field. ok is false when the field is absent.
func formFile(r *http.Request, field string) (registry.Upload, bool, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return registry.Upload{}, false, nil
	}
	fh := r.MultipartForm.File[field][0]
	data, err := readFileHeader(fh)
	if err != nil {
		return registry.Upload{}, false, err
	}
	return registry.Upload{
		Data:        data,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	}, true, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// formValue returns the trimmed value of field, empty when it was not sent.
func formValue(r *http.Request, field string) string {
	return strings.TrimSpace(r.Form.Get(field))
}

// AddUser handles POST /add_user.
func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	name := formValue(r, "nome")
	birthDate := formValue(r, "data_nascimento")
	upload, hasImage, err := formFile(r, "imagem")
	if err != nil {
		api.BadRequest(w, "failed to read imagem: "+err.Error())
		return
	}
	if name == "" || birthDate == "" || !hasImage {
		api.BadRequest(w, "Campos obrigatórios: nome, data de nascimento e imagem")
		return
	}

	p, err := h.Registry.Create(r.Context(), registry.CreateInput{
		Name:      name,
		BirthDate: birthDate,
		Image:     upload,
	})
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]string{
		"mensagem":  "Usuário cadastrado!",
		"id":        p.ID,
		"imagem":    p.ImageFilename,
		"imagem_id": p.ImageID,
	})
}

// GetUsers handles GET /get_users.
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	persons, err := h.Registry.List(r.Context())
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	if persons == nil {
		persons = []*model.Person{}
	}
	api.WriteJSON(w, http.StatusOK, persons)
}

// UpdateUser handles PUT /update_user/{id}. Only the non-blank fields in the
// form change.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.parseForm(w, r) {
		return
	}

	var in registry.UpdateInput
	if v := formValue(r, "nome"); v != "" {
		in.Name = &v
	}
	if v := formValue(r, "data_nascimento"); v != "" {
		in.BirthDate = &v
	}
	upload, hasImage, err := formFile(r, "imagem")
	if err != nil {
		api.BadRequest(w, "failed to read imagem: "+err.Error())
		return
	}
	if hasImage {
		in.Image = &upload
	}

	if _, err := h.Registry.Update(r.Context(), id, in); err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.MessageBody{Mensagem: "Usuário atualizado!"})
}

// DeleteUser handles DELETE /delete_user/{id}. Repeating the call for an
// already deleted id succeeds again.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		api.NotFound(w, msgUserNotFound)
		return
	}

	if err := h.Registry.Delete(r.Context(), id); err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.MessageBody{Mensagem: "Usuário deletado com sucesso!"})
}
