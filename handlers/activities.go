package handlers

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/activity"
	actrepo "github.com/synergylearning/moodle-mod-onlyoffice/internal/activity/repository"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/storage"
	"github.com/synergylearning/moodle-mod-onlyoffice/pkg/logger"
)

type createActivityRequest struct {
	CourseID    string  `json:"courseId"`
	Name        string  `json:"name" binding:"required"`
	Intro       string  `json:"intro"`
	Format      string  `json:"format" binding:"required"`
	InitialText *string `json:"initialText"`

	Display            *string `json:"display"`
	DisplayName        *bool   `json:"displayName"`
	DisplayDescription *bool   `json:"displayDescription"`
	Width              int     `json:"width"`
	Height             int     `json:"height"`

	CanDownload *bool `json:"canDownload"`
	CanPrint    *bool `json:"canPrint"`
}

type updateActivityRequest struct {
	Name  *string `json:"name"`
	Intro *string `json:"intro"`

	Display            *string `json:"display"`
	DisplayName        *bool   `json:"displayName"`
	DisplayDescription *bool   `json:"displayDescription"`
	Width              *int    `json:"width"`
	Height             *int    `json:"height"`

	CanDownload *bool `json:"canDownload"`
	CanPrint    *bool `json:"canPrint"`

	Format *string `json:"format"`
}

// CreateActivity registers a new activity instance. Site defaults fill any
// omitted display and permission fields.
func (h *Handlers) CreateActivity(c *gin.Context) {
	var req createActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !activity.ValidFormat(req.Format) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown format"})
		return
	}
	if len(req.Name) > activity.NameLengthMax {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name too long"})
		return
	}

	act := &activity.Activity{
		CourseID:    req.CourseID,
		Name:        strings.TrimSpace(req.Name),
		Intro:       req.Intro,
		Format:      req.Format,
		InitialText: h.defaults.InitialText,
		Display:     h.defaults.Display,
		Width:       req.Width,
		Height:      req.Height,
		CanDownload: h.defaults.CanDownload,
		CanPrint:    h.defaults.CanPrint,
	}
	if req.InitialText != nil {
		act.InitialText = *req.InitialText
	}
	if req.Display != nil {
		act.Display = *req.Display
	}
	if req.DisplayName != nil {
		act.DisplayName = *req.DisplayName
	}
	if req.DisplayDescription != nil {
		act.DisplayDescription = *req.DisplayDescription
	}
	if req.CanDownload != nil {
		act.CanDownload = *req.CanDownload
	}
	if req.CanPrint != nil {
		act.CanPrint = *req.CanPrint
	}
	if act.Display != activity.DisplayCurrent && act.Display != activity.DisplayNew {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown display mode"})
		return
	}

	id, err := h.acts.Create(c.Request.Context(), act)
	if err != nil {
		logger.Errorf("create activity: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create activity"})
		return
	}
	act.ID = id
	c.JSON(http.StatusCreated, act)
}

func (h *Handlers) GetActivity(c *gin.Context) {
	act, err := h.acts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, actrepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "activity not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load activity"})
		return
	}
	c.JSON(http.StatusOK, act)
}

// UpdateActivity applies a partial update. The initial-content format is
// fixed at creation and cannot be changed.
func (h *Handlers) UpdateActivity(c *gin.Context) {
	var req updateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	act, err := h.acts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, actrepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "activity not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load activity"})
		return
	}

	if req.Format != nil && *req.Format != act.Format {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format is fixed at creation"})
		return
	}
	if req.Name != nil {
		if len(*req.Name) > activity.NameLengthMax {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name too long"})
			return
		}
		act.Name = strings.TrimSpace(*req.Name)
	}
	if req.Intro != nil {
		act.Intro = *req.Intro
	}
	if req.Display != nil {
		if *req.Display != activity.DisplayCurrent && *req.Display != activity.DisplayNew {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown display mode"})
			return
		}
		act.Display = *req.Display
	}
	if req.DisplayName != nil {
		act.DisplayName = *req.DisplayName
	}
	if req.DisplayDescription != nil {
		act.DisplayDescription = *req.DisplayDescription
	}
	if req.Width != nil {
		act.Width = *req.Width
	}
	if req.Height != nil {
		act.Height = *req.Height
	}
	if req.CanDownload != nil {
		act.CanDownload = *req.CanDownload
	}
	if req.CanPrint != nil {
		act.CanPrint = *req.CanPrint
	}

	if err := h.acts.Update(c.Request.Context(), act); err != nil {
		logger.Errorf("update activity %s: %v", act.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update activity"})
		return
	}
	c.JSON(http.StatusOK, act)
}

// DeleteActivity removes the activity and cascades to its document records
// and stored files.
func (h *Handlers) DeleteActivity(c *gin.Context) {
	id := c.Param("id")
	if err := h.acts.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, actrepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "activity not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete activity"})
		return
	}
	if err := h.docs.DeleteForActivity(c.Request.Context(), id); err != nil {
		logger.Errorf("cascade delete for activity %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete documents"})
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadInitialFile captures the initial file of an upload-format activity.
// Replaces any previously captured file; live per-group documents already
// materialized from the old file are not touched.
func (h *Handlers) UploadInitialFile(c *gin.Context) {
	act, err := h.acts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, actrepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "activity not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load activity"})
		return
	}
	if act.Format != activity.FormatUpload {
		c.JSON(http.StatusBadRequest, gin.H{"error": "activity does not use an initial upload"})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer src.Close()

	prefix := storage.InitialPrefix(act.ID)
	if err := h.files.DeletePrefix(c.Request.Context(), prefix); err != nil {
		logger.Errorf("clear initial area for activity %s: %v", act.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}
	key := prefix + path.Base(fh.Filename)
	if err := h.files.Upload(c.Request.Context(), key, src, fh.Size, fh.Header.Get("Content-Type")); err != nil {
		logger.Errorf("store initial file for activity %s: %v", act.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"activity": act.ID, "filename": path.Base(fh.Filename)})
}

// UploadTemplate installs a site-level template for one blank-template
// format, overriding the built-in blank file for documents created after.
func (h *Handlers) UploadTemplate(c *gin.Context) {
	format := c.Param("format")
	slot := activity.TemplateSlot(format)
	if slot == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format has no template slot"})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	if ext := strings.TrimPrefix(path.Ext(fh.Filename), "."); ext != activity.TemplateExt(format) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "template extension does not match format"})
		return
	}
	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer src.Close()

	prefix := storage.TemplatePrefix(slot)
	if err := h.files.DeletePrefix(c.Request.Context(), prefix); err != nil {
		logger.Errorf("clear template slot %d: %v", slot, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store template"})
		return
	}
	key := prefix + path.Base(fh.Filename)
	if err := h.files.Upload(c.Request.Context(), key, src, fh.Size, fh.Header.Get("Content-Type")); err != nil {
		logger.Errorf("store template for slot %d: %v", slot, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store template"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"format": format, "slot": slot, "filename": path.Base(fh.Filename)})
}

// DedupKeys runs the document-key uniqueness sweep.
func (h *Handlers) DedupKeys(c *gin.Context) {
	n, err := h.docs.DedupKeys(c.Request.Context())
	if err != nil {
		logger.Errorf("dedup keys: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed", "rekeyed": n})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rekeyed": n})
}
