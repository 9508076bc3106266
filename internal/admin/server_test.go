package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/longbridgeapp/assert"
	"github.com/rs/zerolog"

	"github.com/keshon/textcmd/internal/storage"
	"github.com/keshon/textcmd/pkg/jobmgr"
	"github.com/keshon/textcmd/pkg/cmd"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memStore struct {
	saved   int
	last    cmd.Snapshot
	saveErr error
	history map[string][]storage.CommandHistoryRecord
}

func (m *memStore) SaveSettings(snap cmd.Snapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved++
	m.last = snap
	return nil
}

func (m *memStore) FetchCommandHistory(guildID string) ([]storage.CommandHistoryRecord, error) {
	return m.history[guildID], nil
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Settings(t *testing.T) {
	settings := cmd.NewSettings(zerolog.Nop())
	store := &memStore{}
	h := New(settings, store, "", zerolog.Nop()).Handler()

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/settings/prefix", `{"prefix":"$"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "$", settings.Prefix())

	rec = do(t, h, http.MethodPut, "/guilds/42/prefix", `{"prefix":"?"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "?", settings.ResolvePrefix("42"))
	assert.Equal(t, "?", store.last.GuildPrefixes["42"])

	rec = do(t, h, http.MethodPut, "/guilds/42/prefix", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/guilds/42/prefix", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "$", settings.ResolvePrefix("42"))

	rec = do(t, h, http.MethodGet, "/settings", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var snap cmd.Snapshot
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "$", snap.Prefix)
	assert.Equal(t, 3, store.saved)
}

func TestServer_MutesAndPermissions(t *testing.T) {
	settings := cmd.NewSettings(zerolog.Nop())
	h := New(settings, &memStore{}, "", zerolog.Nop()).Handler()

	do(t, h, http.MethodPut, "/mutes/channels/c1", "")
	do(t, h, http.MethodPut, "/mutes/users/u1", "")
	assert.True(t, settings.IsMuted("c1", "x"))
	assert.True(t, settings.IsMuted("c9", "u1"))

	do(t, h, http.MethodDelete, "/mutes/channels/c1", "")
	rec := do(t, h, http.MethodDelete, "/mutes/users/u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, settings.IsMuted("c1", "u1"))

	rec = do(t, h, http.MethodPut, "/permissions/admin/u2", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, settings.HasPermission("u2", "admin"))

	var body struct {
		Holders []string `json:"holders"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"u2"}, body.Holders)

	do(t, h, http.MethodDelete, "/permissions/admin/u2", "")
	assert.False(t, settings.HasPermission("u2", "admin"))
}

func TestServer_History(t *testing.T) {
	store := &memStore{history: map[string][]storage.CommandHistoryRecord{
		"g": {{Command: "ping"}},
		"":  {{Command: "roll"}},
	}}
	h := New(cmd.NewSettings(zerolog.Nop()), store, "", zerolog.Nop()).Handler()

	rec := do(t, h, http.MethodGet, "/history/g", "")
	var list []storage.CommandHistoryRecord
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, len(list))
	assert.Equal(t, "ping", list[0].Command)

	rec = do(t, h, http.MethodGet, "/history/direct", "")
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, "roll", list[0].Command)

	noStore := New(cmd.NewSettings(zerolog.Nop()), nil, "", zerolog.Nop()).Handler()
	rec = do(t, noStore, http.MethodGet, "/history/g", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_SaveFailure(t *testing.T) {
	settings := cmd.NewSettings(zerolog.Nop())
	h := New(settings, &memStore{saveErr: errors.New("disk full")}, "", zerolog.Nop()).Handler()

	rec := do(t, h, http.MethodPut, "/mutes/users/u1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, settings.IsMuted("c", "u1"))
}

func TestServer_Auth(t *testing.T) {
	h := New(cmd.NewSettings(zerolog.Nop()), nil, "secret", zerolog.Nop()).Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/settings", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/settings", "", "Authorization", "Bearer nope").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/settings", "", "Authorization", "Bearer secret").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/settings", "", "Authorization", "secret").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/settings", "", "Authorization", "Basic secret").Code)
}

func TestServer_Jobs(t *testing.T) {
	jobs := jobmgr.NewManager(nil)
	defer jobs.StopAll()
	block := func(ctx context.Context) error { <-ctx.Done(); return nil }
	assert.NoError(t, jobs.StartAsync(context.Background(), "cooldown-sweeper", block))

	h := New(cmd.NewSettings(zerolog.Nop()), nil, "", zerolog.Nop()).WithJobs(jobs).Handler()

	var health struct {
		Status string `json:"status"`
		Jobs   string `json:"jobs"`
	}
	rec := do(t, h, http.MethodGet, "/health", "")
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "Running jobs: cooldown-sweeper", health.Jobs)

	var list struct {
		Jobs []string `json:"jobs"`
	}
	rec = do(t, h, http.MethodGet, "/jobs", "")
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []string{"cooldown-sweeper"}, list.Jobs)

	rec = do(t, h, http.MethodDelete, "/jobs/cooldown-sweeper", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, len(jobs.List()))
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/jobs/cooldown-sweeper", "").Code)

	noJobs := New(cmd.NewSettings(zerolog.Nop()), nil, "", zerolog.Nop()).Handler()
	assert.Equal(t, http.StatusServiceUnavailable, do(t, noJobs, http.MethodGet, "/jobs", "").Code)
}
