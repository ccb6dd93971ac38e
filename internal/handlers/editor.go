package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	statusCancelled = "cancelled"
	statusCommitted = "committed"

	errEmptyFields = "no fields to edit"
)

// EditFieldsRequest documents the PATCH /editor/fields payload. Any subset
// of the fields may be sent; numbers may also be sent as strings.
type EditFieldsRequest struct {
	PresetName      string  `json:"preset_name,omitempty" example:"CUSTOM"`
	TargetTempLow   float64 `json:"target_temp_low,omitempty" example:"37.5"`
	TargetTempHigh  float64 `json:"target_temp_high,omitempty" example:"38"`
	TargetHumLow    float64 `json:"target_hum_low,omitempty" example:"55"`
	TempOffset      float64 `json:"temp_offset,omitempty" example:"0.2"`
	HumOffset       float64 `json:"hum_offset,omitempty" example:"-1"`
	IsMaintenance   bool    `json:"is_maintenance,omitempty" example:"false"`
	IntervalHours   int     `json:"interval_hours,omitempty" example:"2"`
	IntervalMinutes int     `json:"interval_minutes,omitempty" example:"30"`
	IntervalSeconds int     `json:"interval_seconds,omitempty" example:"0"`
}

// @Summary      Current draft
// @Tags         editor
// @Produce      json
// @Success      200  {object}  models.EditorView
// @Failure      409  {object}  map[string]string  "editor not open"
// @Router       /api/v1/editor [get]
// @Security     BearerAuth
func (h *Handler) getEditor(c *gin.Context) {
	view, err := h.services.EditorView()
	if err != nil {
		h.respondError(c, "editor_view_failed", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary      Open the settings editor
// @Description  Starts a draft copied from the active configuration.
// @Tags         editor
// @Produce      json
// @Success      200  {object}  models.EditorView
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/editor/open [post]
// @Security     BearerAuth
func (h *Handler) openEditor(c *gin.Context) {
	view, err := h.services.OpenEditor()
	if err != nil {
		h.respondError(c, "editor_open_failed", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary      Apply a preset to the draft
// @Description  Copies the preset's targets and turn interval. Offsets and maintenance are kept; unknown names change nothing.
// @Tags         editor
// @Produce      json
// @Param        name  path      string  true  "Preset name"  Enums(AYAM,BEBEK)
// @Success      200   {object}  models.EditorView
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/editor/preset/{name} [post]
// @Security     BearerAuth
func (h *Handler) applyPreset(c *gin.Context) {
	view, err := h.services.ApplyPreset(c.Param("name"))
	if err != nil {
		h.respondError(c, "editor_preset_failed", err, "preset", c.Param("name"))
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary      Edit draft fields
// @Tags         editor
// @Accept       json
// @Produce      json
// @Param        body  body      EditFieldsRequest  true  "Fields to set"
// @Success      200   {object}  models.EditorView
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/editor/fields [patch]
// @Security     BearerAuth
func (h *Handler) editFields(c *gin.Context) {
	var fields map[string]any
	if ok := h.bindJSONOrBadRequest(c, &fields); !ok {
		return
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errEmptyFields})
		return
	}
	view, err := h.services.EditFields(fields)
	if err != nil {
		h.respondError(c, "editor_edit_failed", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary      Discard the draft
// @Tags         editor
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/editor/cancel [post]
// @Security     BearerAuth
func (h *Handler) cancelEditor(c *gin.Context) {
	if err := h.services.CancelEditor(); err != nil {
		h.respondError(c, "editor_cancel_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusCancelled})
}

// @Summary      Commit the draft
// @Description  Sends the draft to the incubator. On failure the draft is kept for a retry.
// @Tags         editor
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, config"
// @Failure      409  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/editor/commit [post]
// @Security     BearerAuth
func (h *Handler) commitEditor(c *gin.Context) {
	cfg, err := h.services.CommitEditor(c.Request.Context())
	if err != nil {
		h.respondError(c, "editor_commit_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusCommitted, "config": cfg})
}
