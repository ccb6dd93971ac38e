package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const statusOK = "ok"

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Dashboard snapshot
// @Description  Latest reading, history window, turn countdown, active configuration and command availability.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  models.DashboardSnapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/dashboard [get]
// @Security     BearerAuth
func (h *Handler) getDashboard(c *gin.Context) {
	snap, err := h.services.Snapshot()
	if err != nil {
		h.respondError(c, "dashboard_snapshot_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      List presets
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "presets"
// @Router       /api/v1/presets [get]
// @Security     BearerAuth
func (h *Handler) listPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": h.services.Presets()})
}

// @Summary      List actuator commands
// @Tags         control
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "commands"
// @Router       /api/v1/commands [get]
// @Security     BearerAuth
func (h *Handler) listCommands(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"commands": h.services.Commands()})
}
