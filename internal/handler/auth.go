package handler

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/familyhub/familyhub/internal/auth"
	"github.com/familyhub/familyhub/internal/model"
	"github.com/familyhub/familyhub/internal/store"
)

const (
	sessionTokenPrefix = "familyhub_"
	sessionLifetime    = 30 * 24 * time.Hour
)

type AuthHandler struct {
	memberStore  *store.FamilyMemberStore
	sessionStore *store.SessionStore
	logger       *slog.Logger
}

func NewAuthHandler(ms *store.FamilyMemberStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{memberStore: ms, sessionStore: ss, logger: logger}
}

func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return sessionTokenPrefix + hex.EncodeToString(buf), nil
}

// Members lists family members for the login screen. Public; exposes only
// whether a member has a password, never the hash.
func (h *AuthHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberStore.List()
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

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID   int64  `json:"memberId"`
		Password   string `json:"password"`
		DeviceName string `json:"deviceName"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	member, err := h.memberStore.GetByID(req.MemberID)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if member == nil {
		writeError(w, http.StatusUnauthorized, "Invalid member or password")
		return
	}

	if member.HasPassword {
		hash, err := h.memberStore.GetPasswordHash(member.ID)
		if err != nil {
			h.logger.Error("login password hash", "error", err)
			writeError(w, http.StatusInternalServerError, "Login failed")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			writeError(w, http.StatusUnauthorized, "Invalid member or password")
			return
		}
	}

	token, err := newSessionToken()
	if err != nil {
		h.logger.Error("session token", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	deviceName := strings.TrimSpace(req.DeviceName)
	if deviceName == "" {
		deviceName = "Unknown device"
	}

	session, err := h.sessionStore.Create(member.ID, token, deviceName, time.Now().Add(sessionLifetime))
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.logger.Info("member logged in", "member_id", member.ID, "device", deviceName)

	writeData(w, http.StatusOK, map[string]any{
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
		"member":    member,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	authz := r.Header.Get("Authorization")
	token := strings.TrimPrefix(authz, "Bearer ")
	if token == "" || token == authz {
		writeError(w, http.StatusBadRequest, "No session token provided")
		return
	}

	deleted, err := h.sessionStore.DeleteByToken(token)
	if err != nil {
		h.logger.Error("delete session", "error", err)
		writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	writeData(w, http.StatusOK, map[string]bool{"loggedOut": true})
}

// Me returns the member attached to the current session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	member := auth.MemberFromContext(r.Context())
	if member == nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired session")
		return
	}
	writeData(w, http.StatusOK, member)
}
