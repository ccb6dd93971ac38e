package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	statusSent           = "sent"
	statusMaintenanceOff = "maintenance_off"
)

// @Summary      Send an actuator command
// @Description  Blocked with 423 while the incubator is in maintenance.
// @Tags         control
// @Produce      json
// @Param        name  path      string  true  "Command"  Enums(LAMP_ON,LAMP_OFF,FAN_ON,FAN_OFF,SERVO_TURN,ALL_OFF,TEST_ALL)
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      423   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/commands/{name} [post]
// @Security     BearerAuth
func (h *Handler) sendCommand(c *gin.Context) {
	name := c.Param("name")
	if err := h.services.SendCommand(c.Request.Context(), name); err != nil {
		h.respondError(c, "command_failed", err, "command", name)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSent, "command": name})
}

// @Summary      Exit maintenance mode
// @Description  Commits the active configuration with maintenance off. Not subject to the command gate.
// @Tags         control
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, config"
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/maintenance/exit [post]
// @Security     BearerAuth
func (h *Handler) exitMaintenance(c *gin.Context) {
	cfg, err := h.services.ExitMaintenance(c.Request.Context())
	if err != nil {
		h.respondError(c, "maintenance_exit_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusMaintenanceOff, "config": cfg})
}
