package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/familyhub/familyhub/internal/model"
	"github.com/familyhub/familyhub/internal/store"
	"github.com/familyhub/familyhub/internal/websocket"
)

const passwordHashCost = 12

type FamilyMemberHandler struct {
	store  *store.FamilyMemberStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewFamilyMemberHandler(s *store.FamilyMemberStore, hub *websocket.Hub, logger *slog.Logger) *FamilyMemberHandler {
	return &FamilyMemberHandler{store: s, hub: hub, logger: logger}
}

func (h *FamilyMemberHandler) broadcast(ev websocket.Event) {
	if h.hub != nil {
		h.hub.Broadcast(ev)
	}
}

type memberRequest struct {
	Name        string  `json:"name"`
	AvatarType  string  `json:"avatarType"`
	AvatarValue string  `json:"avatarValue"`
	Color       string  `json:"color"`
	Password    *string `json:"password"`
}

func normalizeMemberRequest(req *memberRequest) string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "Name is required"
	}
	if req.AvatarType == "" {
		req.AvatarType = "dicebear"
	}
	if req.AvatarType != "dicebear" && req.AvatarType != "custom" {
		return "Avatar type must be 'dicebear' or 'custom'"
	}
	if req.AvatarValue == "" {
		// dicebear avatars are seeded by the member's name
		req.AvatarValue = req.Name
	}
	if req.Color == "" {
		req.Color = model.PastelColors[0]
	}
	if !model.IsPastelColor(req.Color) {
		return "Color must be one of the palette colors"
	}
	return ""
}

func (h *FamilyMemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.List()
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list family members")
		return
	}
	if members == nil {
		members = []model.FamilyMember{}
	}
	writeData(w, http.StatusOK, members)
}

func (h *FamilyMemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	member, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get family member")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "Family member not found")
		return
	}
	writeData(w, http.StatusOK, member)
}

func (h *FamilyMemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := normalizeMemberRequest(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var passwordHash *string
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), passwordHashCost)
		if err != nil {
			h.logger.Error("hash password", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to create family member")
			return
		}
		s := string(hash)
		passwordHash = &s
	}

	member, err := h.store.Create(req.Name, req.AvatarType, req.AvatarValue, req.Color, false, passwordHash)
	if err != nil {
		h.logger.Error("create member", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create family member")
		return
	}

	h.broadcast(websocket.NewEvent("member", "created", member.ID, nil))
	writeData(w, http.StatusCreated, member)
}

func (h *FamilyMemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get family member")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Family member not found")
		return
	}

	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := normalizeMemberRequest(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	member, err := h.store.Update(id, req.Name, req.AvatarType, req.AvatarValue, req.Color)
	if err != nil {
		h.logger.Error("update member", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update family member")
		return
	}

	h.broadcast(websocket.NewEvent("member", "updated", id, nil))
	writeData(w, http.StatusOK, member)
}

func (h *FamilyMemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get family member")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Family member not found")
		return
	}
	if existing.IsAdmin {
		writeError(w, http.StatusForbidden, "The admin member cannot be deleted")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete member", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete family member")
		return
	}

	h.broadcast(websocket.NewEvent("member", "deleted", id, nil))
	writeData(w, http.StatusOK, map[string]bool{"deleted": true})
}

// SetPassword sets or replaces a member's login password.
func (h *FamilyMemberHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get family member")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Family member not found")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Password) < 4 {
		writeError(w, http.StatusBadRequest, "Password must be at least 4 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordHashCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to set password")
		return
	}

	if err := h.store.SetPassword(id, string(hash)); err != nil {
		h.logger.Error("set password", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to set password")
		return
	}

	writeData(w, http.StatusOK, map[string]bool{"updated": true})
}
