package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svlns-gdc/journal-backend/health"
	"github.com/svlns-gdc/journal-backend/interfaces"
	"github.com/svlns-gdc/journal-backend/replication"
	"github.com/svlns-gdc/journal-backend/secrets"
	"github.com/svlns-gdc/journal-backend/storage"
	"github.com/svlns-gdc/journal-backend/store"
	"github.com/svlns-gdc/journal-backend/workflow"
)

type testEnv struct {
	router *chi.Mux
	mem    *store.InMemory
}

// newTestEnv wires a handler over in-memory stores with a single local
// file provider.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := store.NewInMemory()

	fileConnector, err := storage.NewFileConnector(t.TempDir(), logger)
	require.NoError(t, err)

	factory := storage.NewConnectorFactory(nil, secrets.StaticTokenSource{}, logger,
		storage.WithConnector(fileConnector, true))

	coordinator := replication.NewCoordinator(factory, mem, mem, replication.DefaultCoordinatorConfig(), logger)
	monitor := health.NewMonitor(factory, time.Second, logger)
	wf := workflow.NewService(mem, logger)

	handler := NewHandler(coordinator, monitor, mem, mem, wf, logger)

	router := chi.NewRouter()
	router.Post("/api/storage/files", handler.HandleUploadFile)
	router.Get("/api/storage/files/{entity_type}/{entity_id}", handler.HandleListFiles)
	router.Get("/api/storage/files/{file_id}/replication", handler.HandleReplicationStatus)
	router.Get("/api/storage/health", handler.HandleStorageHealth)
	router.Get("/api/storage/usage", handler.HandleGetUsage)
	router.Put("/api/storage/usage", handler.HandleUpdateUsage)
	router.Post("/api/submissions/{submission_id}/status", handler.HandleSubmissionStatus)

	return &testEnv{router: router, mem: mem}
}

func multipartUpload(t *testing.T, fields map[string]string, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandleUploadFile(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartUpload(t, map[string]string{
		"provider":    "file",
		"entity_type": "article",
		"entity_id":   "art-1",
		"is_primary":  "true",
	}, "paper.pdf", []byte("manuscript"))

	req := httptest.NewRequest(http.MethodPost, "/api/storage/files", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var loc interfaces.FileLocation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&loc))
	assert.Equal(t, "paper.pdf", loc.Filename)
	assert.Equal(t, interfaces.ProviderFile, loc.Provider)
	assert.Equal(t, interfaces.FileTypePDF, loc.FileType)
	assert.NotEmpty(t, loc.URL)
	assert.Equal(t, []string{loc.URL}, loc.BackupURLs)

	files, err := env.mem.GetFileLocations(context.Background(), interfaces.EntityArticle, "art-1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, files[0].IsPrimary)
}

func TestHandleUploadFileTooLarge(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartUpload(t, map[string]string{
		"provider":    "file",
		"entity_type": "article",
		"entity_id":   "art-1",
	}, "huge.bin", bytes.Repeat([]byte{0}, maxUploadSize+1))

	req := httptest.NewRequest(http.MethodPost, "/api/storage/files", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	files, err := env.mem.GetFileLocations(context.Background(), interfaces.EntityArticle, "art-1")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestHandleUploadFileValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"unknown provider", map[string]string{
			"provider": "ftp", "entity_type": "article", "entity_id": "art-1",
		}},
		{"unknown entity type", map[string]string{
			"provider": "file", "entity_type": "widget", "entity_id": "art-1",
		}},
		{"missing entity id", map[string]string{
			"provider": "file", "entity_type": "article",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartUpload(t, tt.fields, "paper.pdf", []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/api/storage/files", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleUploadFileUnregisteredProvider(t *testing.T) {
	env := newTestEnv(t)

	// github parses but is not registered with the factory.
	body, contentType := multipartUpload(t, map[string]string{
		"provider":    "github",
		"entity_type": "article",
		"entity_id":   "art-1",
	}, "paper.pdf", []byte("x"))

	req := httptest.NewRequest(http.MethodPost, "/api/storage/files", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListFiles(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartUpload(t, map[string]string{
		"provider":    "file",
		"entity_type": "issue",
		"entity_id":   "iss-1",
	}, "cover.png", []byte("image"))
	req := httptest.NewRequest(http.MethodPost, "/api/storage/files", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/storage/files/issue/iss-1", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var files []interfaces.CloudFile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&files))
	require.Len(t, files, 1)
	assert.Equal(t, interfaces.FileTypeImage, files[0].FileLocation.FileType)

	// Unknown entity yields an empty list, not an error.
	req = httptest.NewRequest(http.MethodGet, "/api/storage/files/issue/iss-2", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestHandleReplicationStatus(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartUpload(t, map[string]string{
		"provider":    "file",
		"entity_type": "article",
		"entity_id":   "art-1",
	}, "paper.pdf", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/storage/files", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var loc interfaces.FileLocation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&loc))

	req = httptest.NewRequest(http.MethodGet, "/api/storage/files/"+loc.ID+"/replication", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var state replication.ReplicationState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	// The single file provider is also the primary, so nothing to replicate.
	assert.Equal(t, interfaces.ReplicationComplete, state.Status)

	req = httptest.NewRequest(http.MethodGet, "/api/storage/files/file_missing/replication", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleStorageHealth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/storage/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var results map[interfaces.ProviderType]bool
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&results))
	require.Len(t, results, 1)
	assert.True(t, results[interfaces.ProviderFile])
}

func TestHandleUsage(t *testing.T) {
	env := newTestEnv(t)

	payload := `{"provider_type":"github","used_space_mb":12.5,"total_space_mb":1000}`
	req := httptest.NewRequest(http.MethodPut, "/api/storage/usage", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/storage/usage", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var usage []interfaces.StorageUsage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&usage))
	require.Len(t, usage, 1)
	assert.Equal(t, interfaces.ProviderGitHub, usage[0].ProviderType)
	assert.Equal(t, 12.5, usage[0].UsedSpaceMB)
	assert.Equal(t, interfaces.HealthHealthy, usage[0].HealthStatus)
}

func TestHandleUpdateUsageValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		payload string
	}{
		{"unknown provider", `{"provider_type":"ftp","used_space_mb":1,"total_space_mb":10}`},
		{"negative used", `{"provider_type":"github","used_space_mb":-1,"total_space_mb":10}`},
		{"zero total", `{"provider_type":"github","used_space_mb":1,"total_space_mb":0}`},
		{"bad json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/storage/usage", strings.NewReader(tt.payload))
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleSubmissionStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.mem.SetStatus(ctx, "sub-1", "submitted"))

	post := func(id, status string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/submissions/"+id+"/status",
			strings.NewReader(`{"status":"`+status+`"}`))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	rec := post("sub-1", "under_review")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "under_review", resp["status"])

	// Skipping review is not allowed.
	rec = post("sub-1", "published")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown status values are rejected before hitting the store.
	rec = post("sub-1", "archived")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown submissions are 404.
	rec = post("sub-99", "under_review")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
