package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"reflowctl/internal/logger"
	"reflowctl/internal/service"
)

// Handler wires the HTTP bridge to the device session and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.health)

	api := router.Group("/api/v1")
	{
		conn := api.Group("/connection")
		{
			conn.POST("", h.connect)
			conn.DELETE("", h.disconnect)
		}

		proc := api.Group("/process")
		{
			proc.POST("/start", h.startProcess)
			proc.POST("/stop", h.stopProcess)
			proc.POST("/fan", h.toggleFan)
			proc.GET("/status", h.getStatus)
		}

		api.GET("/profile", h.getProfile)
		api.POST("/profile", h.postProfile)

		api.GET("/events", h.getEvents)

		tele := api.Group("/telemetry")
		{
			tele.POST("/export", h.exportTelemetry)
			tele.POST("/clear", h.clearTelemetry)
		}
	}

	// Telemetry stream (HTTP upgrade), same port.
	router.GET("/ws", h.wsTelemetry)

	return router
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"connected": h.services.Connected(),
	})
}

// statusForError maps session errors to HTTP codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidProfile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnreachable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// logAndJSONError centralizes error logging and the error response shape.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error) {
	if h.log != nil && err != nil {
		h.log.Errorw(logKey, "err", err)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// recordEvent appends to the archive, best-effort.
func (h *Handler) recordEvent(c *gin.Context, typ, message string, meta any) {
	if err := h.services.Record(c.Request.Context(), typ, message, meta); err != nil && h.log != nil {
		h.log.Debugw("event_record_failed", "type", typ, "err", err)
	}
}
