package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/access"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/activity"
	actrepo "github.com/synergylearning/moodle-mod-onlyoffice/internal/activity/repository"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/callback"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/config"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/crypt"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/docserver"
	docrepo "github.com/synergylearning/moodle-mod-onlyoffice/internal/document/repository"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/document/store"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/editor"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/events"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/storage"
	"github.com/synergylearning/moodle-mod-onlyoffice/pkg/middleware"
)

const handlersTestSecret = "handlers-test-secret-32-bytes-xxxxx"

type testEnv struct {
	router  *gin.Engine
	codec   *crypt.Codec
	acts    *actrepo.MemoryRepo
	docRepo *docrepo.MemoryRepo
	files   *storage.MemoryStorage
	docs    *store.Store
	sink    *events.MemorySink
	act     *activity.Activity
}

// newTestEnv wires the full HTTP surface against in-memory backends. The
// docserverURL decides online vs offline behaviour; admin routes run with a
// pass-through auth stub.
func newTestEnv(t *testing.T, docserverURL string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec := crypt.NewCodec(handlersTestSecret)
	acts := actrepo.NewMemoryRepo()
	docRepo := docrepo.NewMemoryRepo()
	files := storage.NewMemoryStorage()
	sink := events.NewMemorySink()
	docs := store.New(docRepo, files, sink)
	client := docserver.NewClient(docserverURL, 10*time.Second)
	builder := editor.NewBuilder(codec, "https://bridge.example.org", "https://lms.example.org/course/view.php")
	cb := callback.New(acts, docs, client)

	h := New(acts, docs, files, codec, builder, client, cb, sink, docserverURL, config.DefaultsConfig{
		CanDownload: true,
		CanPrint:    true,
		Display:     activity.DisplayCurrent,
	})

	r := gin.New()
	adminStub := func(c *gin.Context) { c.Next() }
	h.Register(r, middleware.LaunchAuth(codec), adminStub)

	act := &activity.Activity{
		Name:        "Notes",
		Format:      activity.FormatText,
		InitialText: "hello",
		CanDownload: true,
		CanPrint:    true,
	}
	_, err := acts.Create(context.Background(), act)
	require.NoError(t, err)

	return &testEnv{
		router:  r,
		codec:   codec,
		acts:    acts,
		docRepo: docRepo,
		files:   files,
		docs:    docs,
		sink:    sink,
		act:     act,
	}
}

func (e *testEnv) launchToken(t *testing.T, caps []string, groups []int64) string {
	t.Helper()
	ticket := &access.Ticket{
		Actor: access.Actor{ID: "u1", Name: "Test User", Groups: groups, Capabilities: caps},
		CMID:  e.act.ID,
	}
	token, err := e.codec.EncodeAndSign(ticket.Claims())
	require.NoError(t, err)
	return token
}

func (e *testEnv) docTicket(t *testing.T, caps []string, groups []int64, groupID int64) string {
	t.Helper()
	ticket := &access.Ticket{
		Actor:   access.Actor{ID: "u1", Name: "Test User", Groups: groups, Capabilities: caps},
		CMID:    e.act.ID,
		GroupID: groupID,
	}
	token, err := e.codec.EncodeAndSign(ticket.Claims())
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(method, path, bearer string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(t *testing.T, method, path, bearer string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(method, path, bearer, bytes.NewReader(raw))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// multipartBody builds a single-file multipart form.
func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

// onlineDocServer is a stand-in document server that answers the liveness
// probe.
func onlineDocServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}
