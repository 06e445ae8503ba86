package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/activity"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/storage"
)

func TestCreateActivity_AppliesDefaults(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.doJSON(t, http.MethodPost, "/api/v1/activities", "", map[string]interface{}{
		"courseId": "c1",
		"name":     "Budget",
		"format":   activity.FormatSpreadsheet,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	require.NotEmpty(t, body["id"])
	require.Equal(t, activity.DisplayCurrent, body["display"])
	require.Equal(t, true, body["canDownload"])
	require.Equal(t, true, body["canPrint"])
}

func TestCreateActivity_RejectsUnknownFormat(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.doJSON(t, http.MethodPost, "/api/v1/activities", "", map[string]interface{}{
		"name":   "Bad",
		"format": "slideshow",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateActivity_RejectsLongName(t *testing.T) {
	env := newTestEnv(t, "")
	name := make([]byte, activity.NameLengthMax+1)
	for i := range name {
		name[i] = 'a'
	}
	w := env.doJSON(t, http.MethodPost, "/api/v1/activities", "", map[string]interface{}{
		"name":   string(name),
		"format": activity.FormatText,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateActivity_FormatImmutable(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.doJSON(t, http.MethodPatch, "/api/v1/activities/"+env.act.ID, "", map[string]interface{}{
		"format": activity.FormatSpreadsheet,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateActivity_PartialUpdate(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.doJSON(t, http.MethodPatch, "/api/v1/activities/"+env.act.ID, "", map[string]interface{}{
		"name":     "Renamed",
		"canPrint": false,
	})
	require.Equal(t, http.StatusOK, w.Code)

	got, err := env.acts.Get(context.Background(), env.act.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Name)
	require.False(t, got.CanPrint)
	require.Equal(t, activity.FormatText, got.Format)
}

func TestDeleteActivity_Cascades(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	_, _, err := env.docs.GetOrCreate(ctx, env.act, 0)
	require.NoError(t, err)

	w := env.do(http.MethodDelete, "/api/v1/activities/"+env.act.ID, "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	_, err = env.acts.Get(ctx, env.act.ID)
	require.Error(t, err)
	_, err = env.files.FirstKey(ctx, storage.GroupPrefix(env.act.ID, 0))
	require.True(t, errors.Is(err, storage.ErrObjectNotFound))
}

func TestDeleteActivity_Unknown(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.do(http.MethodDelete, "/api/v1/activities/none", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadInitialFile(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	act := &activity.Activity{Name: "Handout", Format: activity.FormatUpload}
	_, err := env.acts.Create(ctx, act)
	require.NoError(t, err)

	body, contentType := multipartBody(t, "file", "handout.docx", []byte("doc-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities/"+act.ID+"/file", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	// first view of the activity now materializes from the upload
	_, file, err := env.docs.GetOrCreate(ctx, act, 0)
	require.NoError(t, err)
	require.Equal(t, "docx", file.Ext)
}

func TestUploadInitialFile_WrongFormat(t *testing.T) {
	env := newTestEnv(t, "")
	body, contentType := multipartBody(t, "file", "x.txt", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities/"+env.act.ID+"/file", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadTemplate(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	body, contentType := multipartBody(t, "file", "site.xlsx", []byte("template-bytes"))
	req := httptest.NewRequest(http.MethodPut, "/api/v1/templates/"+activity.FormatSpreadsheet, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	// documents created after pick up the override instead of the blank file
	act := &activity.Activity{Name: "Budget", Format: activity.FormatSpreadsheet}
	_, err := env.acts.Create(ctx, act)
	require.NoError(t, err)
	_, file, err := env.docs.GetOrCreate(ctx, act, 0)
	require.NoError(t, err)
	rc, _, err := env.files.Download(ctx, file.ObjectKey)
	require.NoError(t, err)
	defer rc.Close()
	buf := make([]byte, 32)
	n, _ := rc.Read(buf)
	require.Equal(t, "template-bytes", string(buf[:n]))
}

func TestUploadTemplate_WrongExtension(t *testing.T) {
	env := newTestEnv(t, "")
	body, contentType := multipartBody(t, "file", "site.docx", []byte("x"))
	req := httptest.NewRequest(http.MethodPut, "/api/v1/templates/"+activity.FormatSpreadsheet, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadTemplate_FormatWithoutSlot(t *testing.T) {
	env := newTestEnv(t, "")
	body, contentType := multipartBody(t, "file", "x.txt", []byte("x"))
	req := httptest.NewRequest(http.MethodPut, "/api/v1/templates/"+activity.FormatText, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDedupKeys(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	first, _, err := env.docs.GetOrCreate(ctx, env.act, 0)
	require.NoError(t, err)

	other := &activity.Activity{Name: "Other", Format: activity.FormatText, InitialText: "x"}
	_, err = env.acts.Create(ctx, other)
	require.NoError(t, err)
	second, _, err := env.docs.GetOrCreate(ctx, other, 0)
	require.NoError(t, err)

	// force a collision
	require.NoError(t, env.docRepo.SetKey(ctx, second.ID, first.Key))

	w := env.do(http.MethodPost, "/api/v1/maintenance/dedup-keys", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(1), decodeBody(t, w)["rekeyed"])
}
