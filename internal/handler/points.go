package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/familyhub/familyhub/internal/model"
	"github.com/familyhub/familyhub/internal/store"
	"github.com/familyhub/familyhub/internal/websocket"
)

const historyLimit = 50

type PointsHandler struct {
	pointsStore   *store.PointsStore
	memberStore   *store.FamilyMemberStore
	settingsStore *store.SettingsStore
	activityStore *store.ActivityStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewPointsHandler(
	ps *store.PointsStore,
	ms *store.FamilyMemberStore,
	ss *store.SettingsStore,
	as *store.ActivityStore,
	hub *websocket.Hub,
	logger *slog.Logger,
) *PointsHandler {
	return &PointsHandler{
		pointsStore:   ps,
		memberStore:   ms,
		settingsStore: ss,
		activityStore: as,
		hub:           hub,
		logger:        logger,
	}
}

func (h *PointsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	member, err := h.memberStore.GetByID(id)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get balance")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "Family member not found")
		return
	}

	balance, err := h.pointsStore.GetBalance(id)
	if err != nil {
		h.logger.Error("get balance", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get balance")
		return
	}
	writeData(w, http.StatusOK, balance)
}

func (h *PointsHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	history, err := h.pointsStore.HistoryByMember(id, historyLimit)
	if err != nil {
		h.logger.Error("point history", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get point history")
		return
	}
	if history == nil {
		history = []model.PointTransaction{}
	}
	writeData(w, http.StatusOK, history)
}

func (h *PointsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.pointsStore.Leaderboard()
	if err != nil {
		h.logger.Error("leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get leaderboard")
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeData(w, http.StatusOK, entries)
}

// Redeem cashes out a member's entire positive balance. The money value of
// the redemption is derived from the configured point value and currency.
func (h *PointsHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID int64 `json:"memberId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	member, err := h.memberStore.GetByID(req.MemberID)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to redeem points")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "Family member not found")
		return
	}

	settings, err := h.settingsStore.Get()
	if err != nil {
		h.logger.Error("get settings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to redeem points")
		return
	}

	currency := "$"
	pointValue := 0.0
	if settings != nil {
		currency = settings.Currency
		if v, err := strconv.ParseFloat(settings.PointValue, 64); err == nil {
			pointValue = v
		}
	}

	tx, moneyValue, err := h.pointsStore.RedeemAll(req.MemberID, currency, pointValue)
	if err != nil {
		h.logger.Error("redeem points", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to redeem points")
		return
	}
	if tx == nil {
		writeError(w, http.StatusBadRequest, "No points to redeem")
		return
	}

	_, err = h.activityStore.Insert(model.ActivityPointsRedeemed, &req.MemberID, nil, model.PointsRedeemedMetadata{
		Amount:     tx.Amount,
		MoneyValue: moneyValue,
	})
	if err != nil {
		h.logger.Error("insert redemption activity", "error", err)
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewEvent("points", "redeemed", req.MemberID, map[string]any{
			"amount": tx.Amount,
		}))
	}

	writeData(w, http.StatusOK, map[string]any{
		"transaction": tx,
		"amount":      tx.Amount,
		"moneyValue":  moneyValue,
	})
}
