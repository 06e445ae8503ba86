package callback

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/access"
	actrepo "github.com/synergylearning/moodle-mod-onlyoffice/internal/activity/repository"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/docserver"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/document/store"
	"github.com/synergylearning/moodle-mod-onlyoffice/pkg/logger"
	"github.com/synergylearning/moodle-mod-onlyoffice/pkg/metrics"
)

// Save-status codes posted by the document server.
const (
	StatusNotFound        = 0
	StatusEditing         = 1
	StatusMustSave        = 2
	StatusErrorSaving     = 3
	StatusClosedNoChanges = 4
	StatusForceSave       = 6
	StatusErrorForceSave  = 7
)

// ErrLocked means the edit gate denied the save: the document is locked to
// this actor or the actor is outside the document's group.
var ErrLocked = errors.New("document is locked for this user")

// Request is the body the document server posts to the callback endpoint.
type Request struct {
	Status int    `json:"status"`
	URL    string `json:"url,omitempty"`
}

// Response is the acknowledgement the document server expects. Error is 0 on
// success and 1 on any denial or failure.
type Response struct {
	Status string `json:"status"`
	Error  int    `json:"error"`
}

// API classifies one inbound save notification and applies content saves
// through the document store. One-shot per request: there is no multi-step
// conversation with the document server.
type API struct {
	acts  actrepo.Repository
	store *store.Store
	fetch *docserver.Client
}

func New(acts actrepo.Repository, docs *store.Store, fetch *docserver.Client) *API {
	return &API{acts: acts, store: docs, fetch: fetch}
}

// HandleRequest processes one callback for the document identified by the
// verified ticket. It never returns an error: every outcome is expressed in
// the acknowledgement, and repeated identical notifications are safe beyond
// re-rotating the key.
func (a *API) HandleRequest(ctx context.Context, ticket *access.Ticket, req *Request) *Response {
	metrics.CallbacksTotal.WithLabelValues(strconv.Itoa(req.Status)).Inc()

	resp := &Response{Status: "success", Error: 0}
	switch req.Status {
	case StatusMustSave, StatusForceSave:
		if err := a.saveDocument(ctx, ticket, req); err != nil {
			logger.Warnf("callback save failed for activity %s group %d: %v", ticket.CMID, ticket.GroupID, err)
			metrics.SavesFailed.Inc()
			resp.Error = 1
		} else {
			metrics.SavesApplied.Inc()
		}
	case StatusEditing, StatusClosedNoChanges:
		// informational, nothing to persist
	case StatusNotFound, StatusErrorSaving, StatusErrorForceSave:
		resp.Error = 1
	default:
		resp.Error = 1
	}
	return resp
}

// saveDocument applies one content save. Any failure leaves the prior
// content and key untouched.
func (a *API) saveDocument(ctx context.Context, ticket *access.Ticket, req *Request) error {
	act, err := a.acts.Get(ctx, ticket.CMID)
	if err != nil {
		return fmt.Errorf("resolve activity: %w", err)
	}
	doc, _, err := a.store.GetOrCreate(ctx, act, ticket.GroupID)
	if err != nil {
		return fmt.Errorf("resolve document: %w", err)
	}

	if access.IsLockedFor(&ticket.Actor, doc) {
		return fmt.Errorf("%w (actor %s)", ErrLocked, ticket.Actor.ID)
	}
	if req.URL == "" {
		return fmt.Errorf("save notification carries no content URL")
	}

	body, size, err := a.fetch.Fetch(ctx, req.URL)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := a.store.ReplaceContent(ctx, doc, body, size); err != nil {
		return err
	}
	return nil
}
