package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reflowctl/internal/models"
	"reflowctl/internal/service"
)

// getProfile pulls the preset currently stored on the station.
func (h *Handler) getProfile(c *gin.Context) {
	p, err := h.services.LoadProfile(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, statusForError(err), err.Error(), "profile_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// postProfile validates the submitted draft and pushes it to the station.
// Validation failures are reported per field before anything hits the wire.
func (h *Handler) postProfile(c *gin.Context) {
	var p models.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}

	if verrs := service.ValidateProfile(p); len(verrs) > 0 {
		msgs := make([]string, 0, len(verrs))
		for _, v := range verrs {
			msgs = append(msgs, v.Error())
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": msgs})
		return
	}

	if err := h.services.SaveProfile(c.Request.Context(), p); err != nil {
		h.logAndJSONError(c, statusForError(err), err.Error(), "profile_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "name": p.Name})
}
