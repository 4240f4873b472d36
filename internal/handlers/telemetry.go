package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type exportRequest struct {
	Path string `json:"path" binding:"required"`
}

// exportTelemetry writes the in-memory log to a CSV file. The log itself is
// untouched; clearing is a separate, explicit action.
func (h *Handler) exportTelemetry(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}

	rows := h.services.Telemetry.Len()
	if err := h.services.Telemetry.Export(req.Path); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to export telemetry log", "telemetry_export_failed", err)
		return
	}

	h.recordEvent(c, eventExport, "telemetry log exported", gin.H{"path": req.Path, "rows": rows})
	c.JSON(http.StatusOK, gin.H{"status": "exported", "path": req.Path, "rows": rows})
}

func (h *Handler) clearTelemetry(c *gin.Context) {
	h.services.Telemetry.Clear()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
