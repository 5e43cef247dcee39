package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/familyhub/familyhub/internal/model"
	"github.com/familyhub/familyhub/internal/store"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

type ActivityHandler struct {
	store  *store.ActivityStore
	logger *slog.Logger
}

func NewActivityHandler(s *store.ActivityStore, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{store: s, logger: logger}
}

// Feed returns the paged activity feed, newest first.
func (h *ActivityHandler) Feed(w http.ResponseWriter, r *http.Request) {
	limit := defaultFeedLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxFeedLimit)
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid offset")
			return
		}
		offset = n
	}

	items, err := h.store.Feed(limit, offset)
	if err != nil {
		h.logger.Error("activity feed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load activity feed")
		return
	}
	if items == nil {
		items = []model.ActivityFeedItem{}
	}
	writeData(w, http.StatusOK, items)
}
