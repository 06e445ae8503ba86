package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/access"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/activity"
	actrepo "github.com/synergylearning/moodle-mod-onlyoffice/internal/activity/repository"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/document/store"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/editor"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/events"
	"github.com/synergylearning/moodle-mod-onlyoffice/pkg/logger"
	"github.com/synergylearning/moodle-mod-onlyoffice/pkg/middleware"
)

// EditorConfig resolves the document for the requested (activity, group) pair
// and returns the signed editor configuration. When the document server does
// not answer the liveness probe, the response degrades to offline mode with a
// direct download link instead.
func (h *Handlers) EditorConfig(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}

	act, groupID, ok := h.resolveActivity(c)
	if !ok {
		return
	}

	doc, file, err := h.docs.GetOrCreate(c.Request.Context(), act, groupID)
	if err != nil {
		if errors.Is(err, store.ErrInitialFileMissing) || errors.Is(err, store.ErrUnknownFormat) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		logger.Errorf("resolve document for activity %s group %d: %v", act.ID, groupID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve document"})
		return
	}

	if !h.server.IsOnline(c.Request.Context()) {
		downloadURL, err := h.editor.OfflineDownloadURL(act, doc, file, actor)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "editor is not configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"mode":        "offline",
			"downloadUrl": downloadURL,
		})
		return
	}

	cfg, err := h.editor.Build(act, doc, file, actor, c.GetHeader("User-Agent"))
	if err != nil {
		if errors.Is(err, editor.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "editor is not configured"})
			return
		}
		logger.Errorf("build editor config for activity %s: %v", act.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build editor config"})
		return
	}

	if err := h.events.Publish(c.Request.Context(), events.Event{
		Type:        events.TypeDocumentViewed,
		DocumentID:  doc.ID,
		ActivityID:  act.ID,
		GroupID:     groupID,
		DocumentKey: doc.Key,
		ActorID:     actor.ID,
		Time:        time.Now().UTC(),
	}); err != nil {
		logger.Warnf("publish view event for activity %s: %v", act.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"mode":              "editor",
		"documentServerUrl": h.docserverURL,
		"config":            cfg,
		"display": gin.H{
			"mode":        act.Display,
			"name":        act.DisplayName,
			"description": act.DisplayDescription,
			"width":       act.Width,
			"height":      act.Height,
		},
	})
}

// LockDocument flips the lock flag of one document. Requires the lock
// capability.
func (h *Handlers) LockDocument(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}
	if !access.CanLock(actor) {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient capabilities"})
		return
	}

	var req struct {
		CMID    string `json:"cmid" binding:"required"`
		GroupID int64  `json:"groupid"`
		Locked  bool   `json:"locked"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	act, err := h.acts.Get(c.Request.Context(), req.CMID)
	if err != nil {
		if errors.Is(err, actrepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "activity not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load activity"})
		return
	}

	doc, _, err := h.docs.GetOrCreate(c.Request.Context(), act, req.GroupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve document"})
		return
	}
	if err := h.docs.SetLocked(c.Request.Context(), doc, actor, req.Locked); err != nil {
		logger.Errorf("set lock for activity %s group %d: %v", req.CMID, req.GroupID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update lock"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cmid": req.CMID, "groupid": req.GroupID, "locked": doc.Locked})
}

// resolveActivity reads cmid and group from the query string and loads the
// activity, writing the error response itself on failure.
func (h *Handlers) resolveActivity(c *gin.Context) (*activity.Activity, int64, bool) {
	cmid := c.Query("cmid")
	if cmid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing cmid"})
		return nil, 0, false
	}
	var groupID int64
	if raw := c.Query("group"); raw != "" {
		var err error
		groupID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || groupID < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group"})
			return nil, 0, false
		}
	}

	act, err := h.acts.Get(c.Request.Context(), cmid)
	if err != nil {
		if errors.Is(err, actrepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "activity not found"})
			return nil, 0, false
		}
		logger.Errorf("load activity %s: %v", cmid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load activity"})
		return nil, 0, false
	}
	return act, groupID, true
}
