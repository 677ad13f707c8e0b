package handlers

import (
	"net/http"
	"strconv"
)

// ListCategories returns the user's categories.
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	categories, err := h.svc.ListCategories(user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory adds a category for the user.
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.svc.AddCategory(user.ID, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idBody{ID: id})
}

// DeleteCategory removes one of the user's categories.
func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid category id"})
		return
	}

	if err := h.svc.DeleteCategory(user.ID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
