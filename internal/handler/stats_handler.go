package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Lutefd/log-pipeline/internal/cache"
	"github.com/Lutefd/log-pipeline/internal/logger"
	"github.com/Lutefd/log-pipeline/internal/model"
	"github.com/go-chi/chi/v5"
)

const (
	defaultAlertLimit = 50
	maxAlertLimit     = 500
)

// SnapshotFunc returns the current counters of the running process. It must
// be safe to call from any goroutine.
type SnapshotFunc func() any

type AlertLister interface {
	ListRecent(ctx context.Context, limit int) ([]model.Alert, error)
}

type SnapshotGetter interface {
	Get(ctx context.Context, key string) (model.StatsSnapshot, error)
}

type StatsHandler struct {
	snapshot SnapshotFunc
	alerts   AlertLister
	cache    SnapshotGetter
}

// NewStatsHandler accepts nil alerts or cache; the routes backed by them then
// answer 503.
func NewStatsHandler(snapshot SnapshotFunc, alerts AlertLister, cache SnapshotGetter) *StatsHandler {
	return &StatsHandler{
		snapshot: snapshot,
		alerts:   alerts,
		cache:    cache,
	}
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.snapshot())
}

func (h *StatsHandler) GetGroupStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		respondWithError(w, http.StatusServiceUnavailable, "snapshot cache is not configured")
		return
	}

	groupID := chi.URLParam(r, "groupID")
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	snapshot, err := h.cache.Get(ctx, cache.SnapshotKey(groupID))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "no stats published for group "+groupID)
			return
		}
		logger.Errorf("failed to read stats for group %s: %v", groupID, err)
		respondWithError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	respondWithJSON(w, http.StatusOK, snapshot)
}

func (h *StatsHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		respondWithError(w, http.StatusServiceUnavailable, "alert store is not configured")
		return
	}

	limit := defaultAlertLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxAlertLimit)
	}

	alerts, err := h.alerts.ListRecent(r.Context(), limit)
	if err != nil {
		logger.Errorf("failed to list alerts: %v", err)
		respondWithError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	if alerts == nil {
		alerts = []model.Alert{}
	}
	respondWithJSON(w, http.StatusOK, alerts)
}
