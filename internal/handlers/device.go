package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"reflowctl/internal/models"
)

// Archive event types written by the bridge.
const (
	eventConnect    = "CONNECT"
	eventDisconnect = "DISCONNECT"
	eventStart      = "START"
	eventStop       = "STOP"
	eventFan        = "FAN"
	eventExport     = "EXPORT"
)

// connect establishes the device link described by the request body and
// starts the telemetry poller.
func (h *Handler) connect(c *gin.Context) {
	var cfg models.ConnConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}

	if err := h.services.Connect(cfg); err != nil {
		// One human-readable message per attempt.
		h.logAndJSONError(c, http.StatusBadGateway, err.Error(), "connect_failed", err)
		return
	}

	h.services.Poller.Start()
	h.recordEvent(c, eventConnect, "connected to "+cfg.String(), gin.H{"kind": cfg.Kind})
	c.JSON(http.StatusOK, gin.H{"status": "connected", "endpoint": cfg.String()})
}

// disconnect stops polling and closes the link. Idempotent.
func (h *Handler) disconnect(c *gin.Context) {
	h.services.Poller.Stop()
	if err := h.services.Disconnect(); err != nil && h.log != nil {
		h.log.Warnw("disconnect_close_failed", "err", err)
	}
	h.recordEvent(c, eventDisconnect, "disconnected", nil)
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

func (h *Handler) startProcess(c *gin.Context) {
	if err := h.services.Start(c.Request.Context()); err != nil {
		h.logAndJSONError(c, statusForError(err), err.Error(), "process_start_failed", err)
		return
	}
	h.recordEvent(c, eventStart, "reflow process started", nil)
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

func (h *Handler) stopProcess(c *gin.Context) {
	if err := h.services.Stop(c.Request.Context()); err != nil {
		h.logAndJSONError(c, statusForError(err), err.Error(), "process_stop_failed", err)
		return
	}
	h.recordEvent(c, eventStop, "reflow process stopped", nil)
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

func (h *Handler) toggleFan(c *gin.Context) {
	if err := h.services.ToggleFan(c.Request.Context()); err != nil {
		h.logAndJSONError(c, statusForError(err), err.Error(), "fan_toggle_failed", err)
		return
	}
	h.recordEvent(c, eventFan, "fan toggled", nil)
	c.JSON(http.StatusOK, gin.H{"status": "fan_toggled"})
}

// getStatus issues one status request and reports sample staleness alongside.
func (h *Handler) getStatus(c *gin.Context) {
	sample, err := h.services.Status(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, statusForError(err), err.Error(), "status_failed", err)
		return
	}

	resp := gin.H{"sample": sample}
	if last := h.services.LastSampleAt(); !last.IsZero() {
		resp["sample_age_ms"] = time.Since(last).Milliseconds()
	}
	c.JSON(http.StatusOK, resp)
}
