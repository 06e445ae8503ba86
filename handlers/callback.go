package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/access"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/callback"
	"github.com/synergylearning/moodle-mod-onlyoffice/pkg/logger"
)

// Callback receives save notifications from the document server. The signed
// doc ticket rides in the URL; a request with a missing or invalid ticket is
// acknowledged with error 1 before any document is touched. The HTTP status
// is always 200: the document server only inspects the error field.
func (h *Handlers) Callback(c *gin.Context) {
	ack := func(code int) {
		c.JSON(http.StatusOK, callback.Response{Status: "success", Error: code})
	}

	claims, err := h.codec.Decode(c.Query("doc"))
	if err != nil {
		logger.Warnf("callback with invalid doc ticket: %v", err)
		ack(1)
		return
	}
	ticket, err := access.TicketFromClaims(claims)
	if err != nil {
		logger.Warnf("callback with malformed doc ticket: %v", err)
		ack(1)
		return
	}

	var req callback.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		ack(1)
		return
	}

	c.JSON(http.StatusOK, h.callbacks.HandleRequest(c.Request.Context(), ticket, &req))
}
