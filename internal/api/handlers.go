package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"webinar_archive/internal/domain"
	"webinar_archive/internal/service"
)

// Catalog is the part of the catalog service the handlers use.
type Catalog interface {
	MergedView(ctx context.Context, opts service.ViewOptions) ([]domain.MergedWebinar, error)
	SetFlag(ctx context.Context, req service.ToggleRequest) (string, error)
}

type SyncStatus interface {
	Get(ctx context.Context, sourceID string) (*domain.SyncState, error)
}

type Handler struct {
	catalog    Catalog
	syncStatus SyncStatus
	sourceID   string
	logger     *slog.Logger
}

// NewHandler builds the route handlers. syncStatus may be nil, in which case
// /health omits refresh details.
func NewHandler(catalog Catalog, syncStatus SyncStatus, sourceID string, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:    catalog,
		syncStatus: syncStatus,
		sourceID:   sourceID,
		logger:     logger.With("component", "api"),
	}
}

func (h *Handler) ListWebinars(c *gin.Context) {
	view, err := h.catalog.MergedView(c.Request.Context(), service.ViewOptions{Sort: c.Query("sort")})
	if err != nil {
		h.logger.Error("failed to build catalog view", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) ToggleWatched(c *gin.Context) {
	h.toggle(c, domain.FlagWatched)
}

func (h *Handler) ToggleFavorite(c *gin.Context) {
	h.toggle(c, domain.FlagFavorite)
}

// toggleBody accepts ids as JSON strings or numbers.
type toggleBody struct {
	WebcastID domain.ID `json:"webcastId"`
	ObjectID  domain.ID `json:"objectID"`
	Watched   *bool     `json:"watched"`
	Favorite  *bool     `json:"favorite"`
}

func (h *Handler) toggle(c *gin.Context, flag domain.Flag) {
	var body toggleBody
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		// A body that cannot be read is treated like an empty one.
		h.logger.Debug("ignoring unreadable toggle body", "error", err)
		raw = nil
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			// An unparseable body is treated like an empty one.
			h.logger.Debug("ignoring malformed toggle body", "error", err)
			body = toggleBody{}
		}
	}

	value := body.Watched
	if flag == domain.FlagFavorite {
		value = body.Favorite
	}

	webcastID, err := h.catalog.SetFlag(c.Request.Context(), service.ToggleRequest{
		Flag:      flag,
		Value:     value,
		WebcastID: string(body.WebcastID),
		ObjectID:  string(body.ObjectID),
	})
	if err != nil {
		if service.IsClientError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		h.logger.Error("failed to toggle flag", "flag", flag, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "webcastId": webcastID})
}

func (h *Handler) Health(c *gin.Context) {
	resp := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if h.syncStatus != nil {
		state, err := h.syncStatus.Get(c.Request.Context(), h.sourceID)
		if err != nil {
			h.logger.Warn("sync state unavailable", "error", err)
			resp["status"] = "degraded"
		} else if !state.LastSyncedAt.IsZero() {
			resp["last_synced_at"] = state.LastSyncedAt.UTC().Format(time.RFC3339)
			resp["last_run_id"] = state.LastRunID
			resp["catalog_size"] = state.CatalogSize
		}
	}

	c.JSON(http.StatusOK, resp)
}
