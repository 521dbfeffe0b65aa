package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"polyglot/internal/logger"
	"polyglot/internal/model"
	"polyglot/internal/service"
)

// heartbeatInterval keeps idle event streams open through proxies.
const heartbeatInterval = 15 * time.Second

type SyncHandler struct {
	service   service.SyncService
	heartbeat time.Duration
}

type publishRequest struct {
	Translations   map[string]string `json:"translations"`
	ActiveLanguage string            `json:"activeLanguage"`
	Origin         string            `json:"origin"`
}

func NewSyncHandler(service service.SyncService) *SyncHandler {
	return &SyncHandler{service: service, heartbeat: heartbeatInterval}
}

// RegisterRoutes mounts the handlers on a group rooted at /sync.
func (h *SyncHandler) RegisterRoutes(g *echo.Group) {
	g.PUT("/:key", h.Publish)
	g.GET("/:key", h.Poll)
	g.GET("/:key/events", h.Events)
}

// Publish replaces the stored snapshot for key and returns it with the
// store-assigned timestamp.
// @Summary Publish snapshot
// @Description Replace the session snapshot for a sync key. The server assigns the timestamp.
// @Tags sync
// @Accept json
// @Produce json
// @Param key path string true "Sync key"
// @Param snapshot body publishRequest true "Full column map"
// @Success 200 {object} model.Snapshot
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /sync/{key} [put]
func (h *SyncHandler) Publish(c echo.Context) error {
	var req publishRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}

	snapshot, err := h.service.Publish(c.Request().Context(), model.Snapshot{
		Key:            c.Param("key"),
		Translations:   req.Translations,
		ActiveLanguage: req.ActiveLanguage,
		Origin:         req.Origin,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, snapshot)
}

// Poll answers whether the snapshot changed after the "since" timestamp.
// @Summary Poll snapshot
// @Description Return the snapshot if it is newer than since, otherwise no_changes
// @Tags sync
// @Produce json
// @Param key path string true "Sync key"
// @Param since query int false "Last seen timestamp"
// @Success 200 {object} model.PollResult
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /sync/{key} [get]
func (h *SyncHandler) Poll(c echo.Context) error {
	since, err := parseSinceParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid since"})
	}

	result, err := h.service.Poll(c.Request().Context(), c.Param("key"), since)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Events streams snapshots for key as server-sent events. The current
// snapshot, if any, is sent first.
// @Summary Stream snapshots
// @Description Server-sent events carrying every new snapshot for a sync key
// @Tags sync
// @Produce text/event-stream
// @Param key path string true "Sync key"
// @Success 200 {string} string "event stream"
// @Router /sync/{key}/events [get]
func (h *SyncHandler) Events(c echo.Context) error {
	key := c.Param("key")
	ctx := c.Request().Context()

	updates, unsubscribe := h.service.Subscribe(key)
	defer unsubscribe()

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()

	var last int64
	send := func(snapshot model.Snapshot) error {
		if snapshot.Timestamp <= last {
			return nil
		}
		data, err := json.Marshal(snapshot)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Response(), "event: snapshot\nid: %d\ndata: %s\n\n", snapshot.Timestamp, data); err != nil {
			return err
		}
		c.Response().Flush()
		last = snapshot.Timestamp
		return nil
	}

	if current, err := h.service.Get(ctx, key); err == nil {
		if err := send(current); err != nil {
			return nil
		}
	}

	logger.Debug("sync stream opened", "module", "handler", "action", "request", "resource", "sync", "result", "ok", "key", key)
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("sync stream closed", "module", "handler", "action", "request", "resource", "sync", "result", "ok", "key", key)
			return nil
		case snapshot, ok := <-updates:
			if !ok {
				return nil
			}
			if err := send(snapshot); err != nil {
				return nil
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(c.Response(), ": ping\n\n"); err != nil {
				return nil
			}
			c.Response().Flush()
		}
	}
}
