package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/familyhub/familyhub/internal/model"
	"github.com/familyhub/familyhub/internal/store"
	"github.com/familyhub/familyhub/internal/websocket"
)

type CategoryHandler struct {
	store  *store.CategoryStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewCategoryHandler(s *store.CategoryStore, hub *websocket.Hub, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{store: s, hub: hub, logger: logger}
}

type categoryRequest struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.List()
	if err != nil {
		h.logger.Error("list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeData(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	exists, err := h.store.NameExists(req.Name, 0)
	if err != nil {
		h.logger.Error("check category name", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "A category with that name already exists")
		return
	}

	category, err := h.store.Create(req.Name, req.Color, req.Icon)
	if err != nil {
		h.logger.Error("create category", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewEvent("category", "created", category.ID, nil))
	}
	writeData(w, http.StatusCreated, category)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get category", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get category")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	exists, err := h.store.NameExists(req.Name, id)
	if err != nil {
		h.logger.Error("check category name", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "A category with that name already exists")
		return
	}

	category, err := h.store.Update(id, req.Name, req.Color, req.Icon)
	if err != nil {
		h.logger.Error("update category", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewEvent("category", "updated", id, nil))
	}
	writeData(w, http.StatusOK, category)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get category", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get category")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete category", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewEvent("category", "deleted", id, nil))
	}
	writeData(w, http.StatusOK, map[string]bool{"deleted": true})
}
