package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/access"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/storage"
	"github.com/synergylearning/moodle-mod-onlyoffice/pkg/logger"
)

// ServeFile streams a stored file. The document server and offline-mode
// downloads authenticate with the signed doc ticket in the URL; management
// tooling may instead present a Bearer token carrying the manage capability.
// Ticket-authenticated responses are always forced downloads.
func (h *Handlers) ServeFile(c *gin.Context) {
	activityID := c.Param("activity")
	area := c.Param("area")
	if !storage.ValidArea(area) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown file area"})
		return
	}
	itemID, err := strconv.ParseInt(c.Param("itemid"), 10, 64)
	if err != nil || itemID < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	forced, ok := h.authorizeFileAccess(c, activityID, area, itemID)
	if !ok {
		return
	}

	var prefix string
	switch area {
	case storage.AreaGroup:
		prefix = storage.GroupPrefix(activityID, itemID)
	case storage.AreaInitial:
		prefix = storage.InitialPrefix(activityID)
	case storage.AreaTemplates:
		prefix = storage.TemplatePrefix(int(itemID))
	}

	key, err := h.files.FirstKey(c.Request.Context(), prefix)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		logger.Errorf("resolve file under %s: %v", prefix, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve file"})
		return
	}

	rc, size, err := h.files.Download(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		logger.Errorf("download %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	defer rc.Close()

	filename := path.Base(key)
	contentType := mime.TypeByExtension(path.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := "inline"
	if forced {
		disposition = "attachment"
	}
	extra := map[string]string{
		"Content-Disposition": fmt.Sprintf(`%s; filename="%s"`, disposition, filename),
	}
	c.DataFromReader(http.StatusOK, size, contentType, rc, extra)
}

// authorizeFileAccess checks the doc ticket or Bearer credential on a file
// request, writing the error response itself on failure. The boolean result
// reports whether the download must be forced.
func (h *Handlers) authorizeFileAccess(c *gin.Context, activityID, area string, itemID int64) (forced bool, ok bool) {
	if docToken := c.Query("doc"); docToken != "" {
		claims, err := h.codec.Decode(docToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid doc ticket"})
			return false, false
		}
		ticket, err := access.TicketFromClaims(claims)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid doc ticket"})
			return false, false
		}
		// the ticket is scoped to one document: activity, group and area
		// must all match what it was issued for
		if area == storage.AreaTemplates || ticket.CMID != activityID {
			c.JSON(http.StatusForbidden, gin.H{"error": "ticket does not cover this file"})
			return false, false
		}
		if area == storage.AreaGroup && ticket.GroupID != itemID {
			c.JSON(http.StatusForbidden, gin.H{"error": "ticket does not cover this file"})
			return false, false
		}
		return true, true
	}

	auth := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
		return false, false
	}
	claims, err := h.codec.Decode(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return false, false
	}
	actor, err := access.ActorFromClaims(claims)
	if err != nil || !actor.HasCapability(access.CapManage) {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient capabilities"})
		return false, false
	}
	return false, true
}
