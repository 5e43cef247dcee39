package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/familyhub/familyhub/internal/model"
	"github.com/familyhub/familyhub/internal/store"
)

type SetupHandler struct {
	memberStore   *store.FamilyMemberStore
	settingsStore *store.SettingsStore
	adminStore    *store.AdminStore
	logger        *slog.Logger
}

func NewSetupHandler(ms *store.FamilyMemberStore, ss *store.SettingsStore, as *store.AdminStore, logger *slog.Logger) *SetupHandler {
	return &SetupHandler{memberStore: ms, settingsStore: ss, adminStore: as, logger: logger}
}

// Status reports whether first-run setup has completed: an admin credential
// exists and at least one family member has been created.
func (h *SetupHandler) Status(w http.ResponseWriter, r *http.Request) {
	admin, err := h.adminStore.Get()
	if err != nil {
		h.logger.Error("get admin", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to check setup status")
		return
	}

	members, err := h.memberStore.List()
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to check setup status")
		return
	}

	writeData(w, http.StatusOK, map[string]bool{
		"setupComplete": admin != nil && len(members) > 0,
	})
}

// Complete runs first-run setup: creates the settings row, the admin
// credential, and the admin family member. Refuses to run twice.
func (h *SetupHandler) Complete(w http.ResponseWriter, r *http.Request) {
	existingAdmin, err := h.adminStore.Get()
	if err != nil {
		h.logger.Error("get admin", "error", err)
		writeError(w, http.StatusInternalServerError, "Setup failed")
		return
	}
	if existingAdmin != nil {
		writeError(w, http.StatusConflict, "Setup has already been completed")
		return
	}

	var req struct {
		AdminName     string `json:"adminName"`
		AdminPassword string `json:"adminPassword"`
		Currency      string `json:"currency"`
		PointValue    string `json:"pointValue"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.AdminName = strings.TrimSpace(req.AdminName)
	if req.AdminName == "" {
		writeError(w, http.StatusBadRequest, "Admin name is required")
		return
	}
	if len(req.AdminPassword) < 6 {
		writeError(w, http.StatusBadRequest, "Admin password must be at least 6 characters")
		return
	}
	if req.Currency == "" {
		req.Currency = "$"
	}
	if req.PointValue == "" {
		req.PointValue = "0.10"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), passwordHashCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "Setup failed")
		return
	}
	hashStr := string(hash)

	if _, err := h.adminStore.Create(hashStr); err != nil {
		h.logger.Error("create admin", "error", err)
		writeError(w, http.StatusInternalServerError, "Setup failed")
		return
	}

	settings, err := h.settingsStore.Get()
	if err != nil {
		h.logger.Error("get settings", "error", err)
		writeError(w, http.StatusInternalServerError, "Setup failed")
		return
	}
	if settings == nil {
		if _, err := h.settingsStore.Create(req.Currency, req.PointValue); err != nil {
			h.logger.Error("create settings", "error", err)
			writeError(w, http.StatusInternalServerError, "Setup failed")
			return
		}
	}

	member, err := h.memberStore.Create(req.AdminName, "dicebear", req.AdminName, model.PastelColors[0], true, &hashStr)
	if err != nil {
		h.logger.Error("create admin member", "error", err)
		writeError(w, http.StatusInternalServerError, "Setup failed")
		return
	}

	h.logger.Info("setup completed", "admin_member_id", member.ID)
	writeData(w, http.StatusCreated, map[string]any{
		"setupComplete": true,
		"adminMember":   member,
	})
}
