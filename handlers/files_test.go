package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/access"
)

func (e *testEnv) groupFilePath(t *testing.T) string {
	t.Helper()
	_, file, err := e.docs.GetOrCreate(context.Background(), e.act, 0)
	require.NoError(t, err)
	return fmt.Sprintf("/files/%s/group/0/%s", e.act.ID, url.PathEscape(file.Filename))
}

func TestServeFile_WithDocTicket(t *testing.T) {
	env := newTestEnv(t, "")
	path := env.groupFilePath(t)
	ticket := env.docTicket(t, nil, nil, 0)

	w := env.do(http.MethodGet, path+"?doc="+url.QueryEscape(ticket), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "hello", w.Body.String())
	require.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
}

func TestServeFile_TicketForOtherActivityRejected(t *testing.T) {
	env := newTestEnv(t, "")
	path := env.groupFilePath(t)

	// ticket scoped to a different activity
	foreign := &access.Ticket{
		Actor: access.Actor{ID: "u1", Name: "Test User"},
		CMID:  "someone-else",
	}
	token, err := env.codec.EncodeAndSign(foreign.Claims())
	require.NoError(t, err)

	w := env.do(http.MethodGet, path+"?doc="+url.QueryEscape(token), "", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestServeFile_TicketForOtherGroupRejected(t *testing.T) {
	env := newTestEnv(t, "")
	path := env.groupFilePath(t)
	ticket := env.docTicket(t, nil, []int64{5}, 5)

	w := env.do(http.MethodGet, path+"?doc="+url.QueryEscape(ticket), "", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestServeFile_NoCredentials(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.do(http.MethodGet, env.groupFilePath(t), "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServeFile_ManageBearerServesInline(t *testing.T) {
	env := newTestEnv(t, "")
	path := env.groupFilePath(t)
	token := env.launchToken(t, []string{access.CapManage}, nil)

	w := env.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "hello", w.Body.String())
	require.Contains(t, w.Header().Get("Content-Disposition"), "inline")
}

func TestServeFile_BearerWithoutManageRejected(t *testing.T) {
	env := newTestEnv(t, "")
	path := env.groupFilePath(t)
	token := env.launchToken(t, []string{access.CapView}, nil)

	w := env.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestServeFile_UnknownArea(t *testing.T) {
	env := newTestEnv(t, "")
	token := env.launchToken(t, []string{access.CapManage}, nil)
	w := env.do(http.MethodGet, "/files/"+env.act.ID+"/secret/0/x.txt", token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestServeFile_BadItemID(t *testing.T) {
	env := newTestEnv(t, "")
	token := env.launchToken(t, []string{access.CapManage}, nil)
	w := env.do(http.MethodGet, "/files/"+env.act.ID+"/group/-1/x.txt", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServeFile_TemplatesRequireManage(t *testing.T) {
	env := newTestEnv(t, "")
	ticket := env.docTicket(t, nil, nil, 0)
	w := env.do(http.MethodGet, "/files/site/templates/1/t.xlsx?doc="+url.QueryEscape(ticket), "", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestServeFile_Missing(t *testing.T) {
	env := newTestEnv(t, "")
	token := env.launchToken(t, []string{access.CapManage}, nil)
	w := env.do(http.MethodGet, "/files/"+env.act.ID+"/initial/0/none.bin", token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
