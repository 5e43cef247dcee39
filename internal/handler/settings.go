package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/familyhub/familyhub/internal/model"
	"github.com/familyhub/familyhub/internal/store"
	"github.com/familyhub/familyhub/internal/websocket"
)

type SettingsHandler struct {
	settingsStore *store.SettingsStore
	adminStore    *store.AdminStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewSettingsHandler(ss *store.SettingsStore, as *store.AdminStore, hub *websocket.Hub, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settingsStore: ss, adminStore: as, hub: hub, logger: logger}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsStore.Get()
	if err != nil {
		h.logger.Error("get settings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}
	if settings == nil {
		writeError(w, http.StatusNotFound, "Settings not configured")
		return
	}
	writeData(w, http.StatusOK, settings)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsStore.Get()
	if err != nil {
		h.logger.Error("get settings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}
	if settings == nil {
		writeError(w, http.StatusNotFound, "Settings not configured")
		return
	}

	var req struct {
		Currency   string  `json:"currency"`
		PointValue string  `json:"pointValue"`
		QRBaseURL  *string `json:"qrBaseUrl"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Currency = strings.TrimSpace(req.Currency)
	if req.Currency == "" {
		req.Currency = settings.Currency
	}
	req.PointValue = strings.TrimSpace(req.PointValue)
	if req.PointValue == "" {
		req.PointValue = settings.PointValue
	} else if _, err := strconv.ParseFloat(req.PointValue, 64); err != nil {
		writeError(w, http.StatusBadRequest, "Point value must be a number")
		return
	}
	if req.QRBaseURL == nil {
		req.QRBaseURL = settings.QRBaseURL
	}

	updated, err := h.settingsStore.Update(settings.ID, req.Currency, req.PointValue, req.QRBaseURL)
	if err != nil {
		h.logger.Error("update settings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewEvent("settings", "updated", updated.ID, nil))
	}
	writeData(w, http.StatusOK, updated)
}

// AuthType reports which credential kind gates the settings screen.
func (h *SettingsHandler) AuthType(w http.ResponseWriter, r *http.Request) {
	admin, err := h.adminStore.Get()
	if err != nil {
		h.logger.Error("get admin", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get auth type")
		return
	}
	if admin == nil {
		writeError(w, http.StatusNotFound, "Setup not complete")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"authType": admin.AuthType})
}

// verifyAdmin checks a credential against the admin row using its configured
// auth type.
func verifyAdmin(admin *model.Admin, credential string) bool {
	var hash *string
	switch admin.AuthType {
	case model.AuthTypePIN:
		hash = admin.PINHash
	default:
		hash = admin.PasswordHash
	}
	if hash == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*hash), []byte(credential)) == nil
}

// Verify checks the admin credential without changing anything. Used by the
// settings screen gate.
func (h *SettingsHandler) Verify(w http.ResponseWriter, r *http.Request) {
	admin, err := h.adminStore.Get()
	if err != nil {
		h.logger.Error("get admin", "error", err)
		writeError(w, http.StatusInternalServerError, "Verification failed")
		return
	}
	if admin == nil {
		writeError(w, http.StatusNotFound, "Setup not complete")
		return
	}

	var req struct {
		Credential string `json:"credential"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if !verifyAdmin(admin, req.Credential) {
		writeError(w, http.StatusUnauthorized, "Incorrect password or PIN")
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"verified": true})
}

// UpdateSecurity changes the admin credential. The current credential must
// verify first. Setting a PIN switches the auth type to pin; setting a
// password switches it back.
func (h *SettingsHandler) UpdateSecurity(w http.ResponseWriter, r *http.Request) {
	admin, err := h.adminStore.Get()
	if err != nil {
		h.logger.Error("get admin", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update security")
		return
	}
	if admin == nil {
		writeError(w, http.StatusNotFound, "Setup not complete")
		return
	}

	var req struct {
		CurrentCredential string `json:"currentCredential"`
		NewPassword       string `json:"newPassword"`
		NewPIN            string `json:"newPin"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if !verifyAdmin(admin, req.CurrentCredential) {
		writeError(w, http.StatusUnauthorized, "Incorrect password or PIN")
		return
	}

	switch {
	case req.NewPassword != "":
		if len(req.NewPassword) < 6 {
			writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), passwordHashCost)
		if err != nil {
			h.logger.Error("hash password", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to update security")
			return
		}
		if err := h.adminStore.SetPassword(admin.ID, string(hash)); err != nil {
			h.logger.Error("set admin password", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to update security")
			return
		}
		writeData(w, http.StatusOK, map[string]string{"authType": model.AuthTypePassword})
	case req.NewPIN != "":
		if len(req.NewPIN) < 4 || !isDigits(req.NewPIN) {
			writeError(w, http.StatusBadRequest, "PIN must be at least 4 digits")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPIN), passwordHashCost)
		if err != nil {
			h.logger.Error("hash pin", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to update security")
			return
		}
		if err := h.adminStore.SetPIN(admin.ID, string(hash)); err != nil {
			h.logger.Error("set admin pin", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to update security")
			return
		}
		writeData(w, http.StatusOK, map[string]string{"authType": model.AuthTypePIN})
	default:
		writeError(w, http.StatusBadRequest, "A new password or PIN is required")
	}
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
