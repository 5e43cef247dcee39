package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/familyhub/familyhub/internal/chore"
	"github.com/familyhub/familyhub/internal/model"
	"github.com/familyhub/familyhub/internal/recurrence"
	"github.com/familyhub/familyhub/internal/store"
	"github.com/familyhub/familyhub/internal/websocket"
)

type ChoreHandler struct {
	choreStore    *store.ChoreStore
	memberStore   *store.FamilyMemberStore
	categoryStore *store.CategoryStore
	engine        *chore.Engine
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewChoreHandler(
	cs *store.ChoreStore,
	ms *store.FamilyMemberStore,
	cats *store.CategoryStore,
	engine *chore.Engine,
	hub *websocket.Hub,
	logger *slog.Logger,
) *ChoreHandler {
	return &ChoreHandler{
		choreStore:    cs,
		memberStore:   ms,
		categoryStore: cats,
		engine:        engine,
		hub:           hub,
		logger:        logger,
	}
}

func (h *ChoreHandler) broadcast(ev websocket.Event) {
	if h.hub != nil {
		h.hub.Broadcast(ev)
	}
}

// writeEngineError maps completion engine errors onto the wire envelope.
func (h *ChoreHandler) writeEngineError(w http.ResponseWriter, err error) {
	var cd *chore.CooldownError
	switch {
	case errors.As(err, &cd):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":          "Chore is on cooldown",
			"cooldownEndsAt": cd.EndsAt,
		})
	case errors.Is(err, chore.ErrChoreNotFound):
		writeError(w, http.StatusNotFound, "Chore not found")
	case errors.Is(err, chore.ErrChoreDeleted):
		writeError(w, http.StatusNotFound, "Chore has been deleted")
	case errors.Is(err, chore.ErrMemberNotFound):
		writeError(w, http.StatusNotFound, "Family member not found")
	case errors.Is(err, chore.ErrCompletionNotFound):
		writeError(w, http.StatusNotFound, "Completion not found")
	case errors.Is(err, chore.ErrUndoExpired):
		writeError(w, http.StatusConflict, "This completion can no longer be undone")
	default:
		h.logger.Error("chore engine", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

type choreRequest struct {
	Title           string          `json:"title"`
	Description     *string         `json:"description"`
	Points          int             `json:"points"`
	CategoryID      *int64          `json:"categoryId"`
	AssigneeID      *int64          `json:"assigneeId"`
	IsPermanent     bool            `json:"isPermanent"`
	RecurringType   *string         `json:"recurringType"`
	RecurringConfig json.RawMessage `json:"recurringConfig"`
	DueDate         *string         `json:"dueDate"`
	DueTime         *string         `json:"dueTime"`
	EndDate         *string         `json:"endDate"`
	CooldownType    *string         `json:"cooldownType"`
	CooldownHours   *int            `json:"cooldownHours"`
}

// toParams validates the request and normalizes it into store params.
// Cooldown fields only apply to permanent chores; hours only travel with the
// "hours" type; permanent chores default to "unlimited".
func (h *ChoreHandler) toParams(req *choreRequest) (store.ChoreParams, string) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return store.ChoreParams{}, "Title is required"
	}
	if req.Points < 0 {
		return store.ChoreParams{}, "Points cannot be negative"
	}

	if _, err := recurrence.Parse(req.RecurringConfig); err != nil {
		return store.ChoreParams{}, "Invalid recurring config: " + err.Error()
	}

	p := store.ChoreParams{
		Title:           req.Title,
		Description:     req.Description,
		Points:          req.Points,
		CategoryID:      req.CategoryID,
		AssigneeID:      req.AssigneeID,
		IsPermanent:     req.IsPermanent,
		RecurringType:   req.RecurringType,
		RecurringConfig: req.RecurringConfig,
		DueDate:         req.DueDate,
		DueTime:         req.DueTime,
		EndDate:         req.EndDate,
	}

	if req.IsPermanent {
		cooldownType := model.CooldownUnlimited
		if req.CooldownType != nil && *req.CooldownType != "" {
			cooldownType = *req.CooldownType
		}
		switch cooldownType {
		case model.CooldownUnlimited, model.CooldownDaily:
			p.CooldownType = &cooldownType
		case model.CooldownHours:
			if req.CooldownHours == nil || *req.CooldownHours <= 0 {
				return store.ChoreParams{}, "Hours cooldown requires a positive cooldownHours"
			}
			p.CooldownType = &cooldownType
			p.CooldownHours = req.CooldownHours
		default:
			return store.ChoreParams{}, "Cooldown type must be 'unlimited', 'daily' or 'hours'"
		}
	}

	return p, ""
}

func (h *ChoreHandler) checkRefs(p store.ChoreParams) (string, error) {
	if p.AssigneeID != nil {
		member, err := h.memberStore.GetByID(*p.AssigneeID)
		if err != nil {
			return "", err
		}
		if member == nil {
			return "Assignee not found", nil
		}
	}
	if p.CategoryID != nil {
		category, err := h.categoryStore.GetByID(*p.CategoryID)
		if err != nil {
			return "", err
		}
		if category == nil {
			return "Category not found", nil
		}
	}
	return "", nil
}

// choreWithDue annotates a chore with whether it is due today.
type choreWithDue struct {
	model.Chore
	DueToday bool `json:"dueToday"`
}

func dueToday(c *model.Chore, today time.Time) bool {
	if cfg, err := recurrence.Parse(c.RecurringConfig); err == nil && cfg != nil {
		return cfg.OccursOn(c.CreatedAt, today)
	}
	if c.DueDate != nil {
		return *c.DueDate == today.Format("2006-01-02")
	}
	return false
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	includeDeleted := r.URL.Query().Get("includeDeleted") == "true"

	chores, err := h.choreStore.List(includeDeleted)
	if err != nil {
		h.logger.Error("list chores", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list chores")
		return
	}

	today := time.Now()
	out := make([]choreWithDue, 0, len(chores))
	for _, c := range chores {
		out = append(out, choreWithDue{Chore: c, DueToday: dueToday(&c, today)})
	}
	writeData(w, http.StatusOK, out)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	c, err := h.choreStore.GetByID(id)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get chore")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Chore not found")
		return
	}
	writeData(w, http.StatusOK, c)
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p, msg := h.toParams(&req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	msg, err := h.checkRefs(p)
	if err != nil {
		h.logger.Error("check chore refs", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create chore")
		return
	}
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	c, err := h.choreStore.Create(p, uuid.NewString())
	if err != nil {
		h.logger.Error("create chore", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create chore")
		return
	}

	h.broadcast(websocket.NewEvent("chore", "created", c.ID, nil))
	writeData(w, http.StatusCreated, c)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	existing, err := h.choreStore.GetByID(id)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get chore")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Chore not found")
		return
	}

	var req choreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p, msg := h.toParams(&req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	msg, err = h.checkRefs(p)
	if err != nil {
		h.logger.Error("check chore refs", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update chore")
		return
	}
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	c, err := h.choreStore.Update(id, p)
	if err != nil {
		h.logger.Error("update chore", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update chore")
		return
	}

	h.broadcast(websocket.NewEvent("chore", "updated", id, nil))
	writeData(w, http.StatusOK, c)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	existing, err := h.choreStore.GetByID(id)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get chore")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Chore not found")
		return
	}

	if r.URL.Query().Get("hard") == "true" {
		err = h.choreStore.HardDelete(id)
	} else {
		err = h.choreStore.SoftDelete(id)
	}
	if err != nil {
		h.logger.Error("delete chore", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete chore")
		return
	}

	h.broadcast(websocket.NewEvent("chore", "deleted", id, nil))
	writeData(w, http.StatusOK, map[string]bool{"deleted": true})
}

type completeRequest struct {
	MemberID int64 `json:"memberId"`
}

func (h *ChoreHandler) complete(w http.ResponseWriter, r *http.Request, choreID int64) {
	var req completeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := h.engine.Complete(r.Context(), choreID, req.MemberID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.broadcast(websocket.NewEvent("chore", "completed", choreID, map[string]any{
		"memberId": req.MemberID,
		"points":   result.PointsEarned,
	}))

	writeData(w, http.StatusOK, map[string]any{
		"completion":      result.Completion,
		"pointsEarned":    result.PointsEarned,
		"choreName":       result.ChoreName,
		"completedByName": result.CompletedByName,
	})
}

func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	h.complete(w, r, id)
}

// UndoCompletion reverses a completion: the completion row, its earned point
// transaction, and its activity entry are removed, and a one-time chore is
// restored.
func (h *ChoreHandler) UndoCompletion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	choreID, err := h.engine.Undo(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.broadcast(websocket.NewEvent("chore", "completion_undone", choreID, nil))
	writeData(w, http.StatusOK, map[string]any{"choreId": choreID})
}

func (h *ChoreHandler) Completions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	completions, err := h.choreStore.ListCompletionsByChore(id)
	if err != nil {
		h.logger.Error("list completions", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list completions")
		return
	}
	if completions == nil {
		completions = []model.ChoreCompletion{}
	}
	writeData(w, http.StatusOK, completions)
}

// LookupByQR resolves a scanned QR token to its chore. Soft-deleted chores
// never match.
func (h *ChoreHandler) LookupByQR(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	c, err := h.engine.FindByQRToken(token)
	if err != nil {
		h.logger.Error("qr lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to look up chore")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Chore not found")
		return
	}
	writeData(w, http.StatusOK, c)
}

func (h *ChoreHandler) CompleteByQR(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	c, err := h.engine.FindByQRToken(token)
	if err != nil {
		h.logger.Error("qr lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to look up chore")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Chore not found")
		return
	}
	h.complete(w, r, c.ID)
}

func (h *ChoreHandler) CompleteByNFC(w http.ResponseWriter, r *http.Request) {
	tagID := r.PathValue("tagId")

	c, err := h.engine.FindByNFCTag(tagID)
	if err != nil {
		h.logger.Error("nfc lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to look up chore")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Chore not found")
		return
	}
	h.complete(w, r, c.ID)
}

// BindNFC attaches an NFC tag id to a chore. A tag can only be bound to one
// chore at a time, soft-deleted chores included.
func (h *ChoreHandler) BindNFC(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	existing, err := h.choreStore.GetByID(id)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get chore")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Chore not found")
		return
	}

	var req struct {
		TagID string `json:"tagId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.TagID = strings.TrimSpace(req.TagID)
	if req.TagID == "" {
		writeError(w, http.StatusBadRequest, "Tag id is required")
		return
	}

	holder, err := h.choreStore.GetByNFCTagAny(req.TagID)
	if err != nil {
		h.logger.Error("nfc conflict check", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to bind NFC tag")
		return
	}
	if holder != nil && holder.ID != id {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   "This NFC tag is already bound to another chore",
			"boundTo": holder.Title,
		})
		return
	}

	c, err := h.choreStore.SetNFCTag(id, &req.TagID)
	if err != nil {
		h.logger.Error("bind nfc", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to bind NFC tag")
		return
	}

	h.broadcast(websocket.NewEvent("chore", "updated", id, nil))
	writeData(w, http.StatusOK, c)
}

func (h *ChoreHandler) UnbindNFC(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	existing, err := h.choreStore.GetByID(id)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get chore")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Chore not found")
		return
	}

	c, err := h.choreStore.SetNFCTag(id, nil)
	if err != nil {
		h.logger.Error("unbind nfc", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to unbind NFC tag")
		return
	}

	h.broadcast(websocket.NewEvent("chore", "updated", id, nil))
	writeData(w, http.StatusOK, c)
}
