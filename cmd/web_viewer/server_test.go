package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rybak/internal/actionlog"
	"rybak/internal/controller"
	"rybak/internal/database"
	"rybak/internal/logger"
)

func newTestServer(t *testing.T) (*server, *database.DatabaseManager) {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "viewer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var out bytes.Buffer
	m, err := database.NewDatabaseManager(db, "sqlite", logger.NewWriterLogger(&out, nil))
	require.NoError(t, err)
	require.NoError(t, m.EnsureSchema(ctx))
	return newServer(m), m
}

func TestIndex_ShowsStatusSessionsAndLog(t *testing.T) {
	s, m := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, m.UpdateStatus(ctx, "fishing"))
	require.NoError(t, m.AddAction(ctx, "tolerance:12"))

	l := actionlog.New("sess-web")
	at := time.UnixMilli(1717243200000)
	e, _ := l.Record(controller.Decision{Kind: controller.Press, At: at, Target: 120, RawTarget: 118, Actuator: 80, Diff: 40})
	require.NoError(t, m.SaveActionEntry(ctx, e))
	e, _ = l.Record(controller.Decision{
		Kind: controller.ReleaseAligned, At: at.Add(400 * time.Millisecond),
		Target: 100, RawTarget: 100, Actuator: 98, Diff: 2, Hold: 400 * time.Millisecond, Caught: true,
	})
	require.NoError(t, m.SaveActionEntry(ctx, e))

	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Статус: fishing")
	assert.Contains(t, body, "tolerance:12")
	assert.Contains(t, body, "sess-web")
	assert.Contains(t, body, "🎯 ALIGNED")
	assert.Contains(t, body, "400ms")
	assert.Contains(t, body, "🐟 #1")
}

func TestIndex_FilterByKind(t *testing.T) {
	s, m := newTestServer(t)
	ctx := context.Background()

	l := actionlog.New("k")
	at := time.UnixMilli(1717243200000)
	for _, d := range []controller.Decision{
		{Kind: controller.Press, At: at},
		{Kind: controller.Release, At: at.Add(time.Second)},
	} {
		e, _ := l.Record(d)
		require.NoError(t, m.SaveActionEntry(ctx, e))
	}

	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?kind=press", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "⬆️ PRESS")
	assert.NotContains(t, rec.Body.String(), "⬇️ RELEASE")
}

func TestIndex_UnknownPath(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAction_QueuesValidCommands(t *testing.T) {
	s, m := newTestServer(t)

	form := url.Values{"action": {"prediction:off"}}
	req := httptest.NewRequest(http.MethodPost, "/action", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	a, err := m.GetLatestUnexecutedAction(context.Background())
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "prediction:off", a.Action)
}

func TestAction_RejectsUnknown(t *testing.T) {
	s, m := newTestServer(t)

	form := url.Values{"action": {"jump"}}
	req := httptest.NewRequest(http.MethodPost, "/action", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/action", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	a, err := m.GetLatestUnexecutedAction(context.Background())
	require.NoError(t, err)
	assert.Nil(t, a)
}
