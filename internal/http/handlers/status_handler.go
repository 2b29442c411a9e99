package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LulDrako/playmarket-docker/internal/http/middleware"
)

const statusPingTimeout = 2 * time.Second

// StatusResponse reports the service version and store reachability.
type StatusResponse struct {
	Status   string            `json:"status" example:"ok"`
	Time     string            `json:"time" example:"2025-01-01T00:00:00Z"`
	Database string            `json:"database" example:"connected"`
	Version  string            `json:"version" example:"1.0.0"`
	Stores   map[string]string `json:"stores,omitempty"`
}

// Status godoc
// @ID          status
// @Summary     Service status
// @Description Pings every backing store. database is "connected" only when all of them answer.
// @Tags        Status
// @Produce     json
// @Success     200  {object} handlers.StatusResponse
// @Router      /status [get]
func (h *Handlers) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), statusPingTimeout)
	defer cancel()

	database := "connected"
	stores := make(map[string]string, len(h.stores))
	for name, ping := range h.stores {
		if err := ping(ctx); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("store", name).Msg("status ping failed")
			stores[name] = "unreachable"
			database = "degraded"
			continue
		}
		stores[name] = "connected"
	}

	ok(c, http.StatusOK, StatusResponse{
		Status:   "ok",
		Time:     h.now().UTC().Format(time.RFC3339),
		Database: database,
		Version:  h.version,
		Stores:   stores,
	})
}
