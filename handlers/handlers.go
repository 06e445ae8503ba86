package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/access"
	actrepo "github.com/synergylearning/moodle-mod-onlyoffice/internal/activity/repository"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/callback"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/config"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/crypt"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/docserver"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/document/store"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/editor"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/events"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/storage"
	"github.com/synergylearning/moodle-mod-onlyoffice/pkg/middleware"
)

// Handlers owns the HTTP surface of the bridge service.
type Handlers struct {
	acts         actrepo.Repository
	docs         *store.Store
	files        storage.Storage
	codec        *crypt.Codec
	editor       *editor.Builder
	server       *docserver.Client
	callbacks    *callback.API
	events       events.Sink
	docserverURL string
	defaults     config.DefaultsConfig
}

func New(
	acts actrepo.Repository,
	docs *store.Store,
	files storage.Storage,
	codec *crypt.Codec,
	builder *editor.Builder,
	server *docserver.Client,
	callbacks *callback.API,
	sink events.Sink,
	docserverURL string,
	defaults config.DefaultsConfig,
) *Handlers {
	return &Handlers{
		acts:         acts,
		docs:         docs,
		files:        files,
		codec:        codec,
		editor:       builder,
		server:       server,
		callbacks:    callbacks,
		events:       sink,
		docserverURL: docserverURL,
		defaults:     defaults,
	}
}

// Register mounts all routes. launch authenticates LMS launch tokens for the
// editor-facing endpoints; admin authenticates the OIDC-protected management
// endpoints.
func (h *Handlers) Register(r *gin.Engine, launch, admin gin.HandlerFunc) {
	// document-server facing, authenticated by the signed doc ticket in the URL
	r.POST("/callback", h.Callback)
	r.GET("/files/:activity/:area/:itemid/*filename", h.ServeFile)

	api := r.Group("/api/v1")

	ed := api.Group("", launch)
	ed.GET("/editor/config", middleware.RequireCapability(access.CapView), h.EditorConfig)
	ed.POST("/documents/lock", h.LockDocument)

	adm := api.Group("", admin)
	adm.POST("/activities", h.CreateActivity)
	adm.GET("/activities/:id", h.GetActivity)
	adm.PATCH("/activities/:id", h.UpdateActivity)
	adm.DELETE("/activities/:id", h.DeleteActivity)
	adm.POST("/activities/:id/file", h.UploadInitialFile)
	adm.PUT("/templates/:format", h.UploadTemplate)
	adm.POST("/maintenance/dedup-keys", h.DedupKeys)
}
