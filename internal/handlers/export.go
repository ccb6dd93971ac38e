package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"smart_hatchery/internal/models"
	"smart_hatchery/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	exportFileName  = "laporan.csv"
	csvTimeLayout   = "2006-01-02T15:04:05"
	errInvalidLimit = "invalid 'limit'; use a positive integer"
)

var csvHeader = []string{"Time", "Temp", "Hum", "Status"}

// @Summary      Export history as CSV
// @Description  Without from/to the current history window is exported; with either bound the local archive is queried.
// @Tags         export
// @Produce      text/csv
// @Param        from   query   string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"
// @Param        to     query   string  false  "End of range; date-only treated as end of day"
// @Param        limit  query   int     false  "Max rows from the archive"
// @Success      200    {string}  string  "CSV"
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/export/history.csv [get]
// @Security     BearerAuth
func (h *Handler) exportHistoryCSV(c *gin.Context) {
	from, to, ok := h.parseRangeQuery(c)
	if !ok {
		return
	}
	limit := 0
	if qs := c.Query("limit"); qs != "" {
		n, err := strconv.Atoi(qs)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidLimit})
			return
		}
		limit = n
	}

	var (
		points []models.HistoryPoint
		err    error
	)
	if from.IsZero() && to.IsZero() {
		points, err = h.services.Monitoring.History()
		if err != nil {
			h.respondError(c, "export_history_failed", err)
			return
		}
	} else {
		points, err = h.services.Archive.Range(c.Request.Context(), service.HistoryFilter{From: from, To: to, Limit: limit})
		if err != nil {
			h.logAndJSONError(c, http.StatusInternalServerError, "failed to load history", "export_archive_failed", err,
				"from", from, "to", to)
			return
		}
	}

	c.Header("Content-Disposition", `attachment; filename="`+exportFileName+`"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(csvHeader)
	for _, p := range points {
		_ = w.Write(csvRow(p))
	}
	w.Flush()
	if err := w.Error(); err != nil && h.log != nil {
		h.log.Infow("export_write_failed", "err", err)
	}
}

func csvRow(p models.HistoryPoint) []string {
	ts := ""
	if !p.Timestamp.IsZero() {
		ts = p.Timestamp.UTC().Format(csvTimeLayout)
	}
	return []string{
		ts,
		strconv.FormatFloat(p.Temperature, 'f', -1, 64),
		strconv.FormatFloat(p.Humidity, 'f', -1, 64),
		string(p.Status),
	}
}
