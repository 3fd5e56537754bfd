package files

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filegate/service/internal/session"
	"github.com/filegate/service/internal/storage"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// newTestRouter mounts the handler the way cmd/api does, with an optional principal
// injected in place of the session middleware.
func newTestRouter(svc *Service, p session.Principal) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !p.IsZero() {
				req = req.WithContext(session.WithPrincipal(req.Context(), p))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/files", h.List)
	r.Post("/files", h.Upload)
	r.Get("/files/stats", h.Stats)
	r.Get("/files/{key}/download", h.Download)
	r.Get("/files/{key}/share", h.Share)
	r.Delete("/files/{key}", h.Delete)
	return r
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var env envelope
	if rr.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	}
	return rr, env
}

func newLocalService(t *testing.T, maxBytes int64) *Service {
	t.Helper()
	local, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	svc := NewService(local, NewValidator([]string{"txt", "pdf"}, maxBytes), Timeouts{Call: time.Second}, nil)
	svc.now = func() time.Time { return scenarioTime }
	return svc
}

func TestHandlerLocalLifecycle(t *testing.T) {
	t.Parallel()
	router := newTestRouter(newLocalService(t, 1024), alice)

	body, ct := multipartBody(t, "file", "notes.txt", []byte("hello world"))
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", ct)
	rr, env := do(t, router, req)
	require.Equal(t, http.StatusCreated, rr.Code, env.Error)

	var uploaded UploadResult
	require.NoError(t, json.Unmarshal(env.Data, &uploaded))
	assert.Equal(t, "20240115_093000_notes.txt", uploaded.Key)

	rr, env = do(t, router, httptest.NewRequest(http.MethodGet, "/files", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var entries []Entry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "notes.txt", entries[0].OriginalName)

	rr, env = do(t, router, httptest.NewRequest(http.MethodGet, "/files/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1.0, stats["fileCount"])
	assert.Contains(t, stats, "totalSizeMB")
	assert.Contains(t, stats["bucketLabel"], "uploads/")

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/files/"+uploaded.Key+"/download", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "hello world", rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Disposition"), `filename=notes.txt`)

	rr, env = do(t, router, httptest.NewRequest(http.MethodGet, "/files/"+uploaded.Key+"/share", nil))
	assert.Equal(t, http.StatusNotImplemented, rr.Code)
	assert.NotEmpty(t, env.Error)

	rr, _ = do(t, router, httptest.NewRequest(http.MethodDelete, "/files/"+uploaded.Key, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	rr, _ = do(t, router, httptest.NewRequest(http.MethodDelete, "/files/"+uploaded.Key, nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, _ = do(t, router, httptest.NewRequest(http.MethodGet, "/files/"+uploaded.Key+"/download", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerUploadRejections(t *testing.T) {
	t.Parallel()
	router := newTestRouter(newLocalService(t, 10), alice)

	tests := []struct {
		name     string
		field    string
		filename string
		content  []byte
		status   int
	}{
		{name: "extension not allowed", field: "file", filename: "run.exe", content: []byte("x"), status: http.StatusBadRequest},
		{name: "no extension", field: "file", filename: "README", content: []byte("x"), status: http.StatusBadRequest},
		{name: "at ceiling", field: "file", filename: "ok.txt", content: bytes.Repeat([]byte("x"), 10), status: http.StatusCreated},
		{name: "over ceiling", field: "file", filename: "big.txt", content: bytes.Repeat([]byte("x"), 11), status: http.StatusRequestEntityTooLarge},
		{name: "wrong field", field: "upload", filename: "a.txt", content: []byte("x"), status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		body, ct := multipartBody(t, tt.field, tt.filename, tt.content)
		req := httptest.NewRequest(http.MethodPost, "/files", body)
		req.Header.Set("Content-Type", ct)
		rr, env := do(t, router, req)
		assert.Equal(t, tt.status, rr.Code, "%s: %s", tt.name, env.Error)
	}

	req := httptest.NewRequest(http.MethodPost, "/files", bytes.NewReader([]byte("not multipart")))
	req.Header.Set("Content-Type", "text/plain")
	rr, _ := do(t, router, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerRejectsOversizedContentLengthEarly(t *testing.T) {
	t.Parallel()
	router := newTestRouter(newLocalService(t, 10), alice)

	req := httptest.NewRequest(http.MethodPost, "/files", http.NoBody)
	req.ContentLength = 10 + multipartOverhead + 1
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rr, env := do(t, router, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Contains(t, env.Error, "limit")
}

func TestHandlerRequiresPrincipal(t *testing.T) {
	t.Parallel()
	backend := newMemoryBackend(true)
	svc := NewService(backend, newDefaultValidator(), Timeouts{Call: time.Second}, nil)
	router := newTestRouter(svc, session.Principal{})

	body, ct := multipartBody(t, "file", "a.txt", []byte("x"))
	upload := httptest.NewRequest(http.MethodPost, "/files", body)
	upload.Header.Set("Content-Type", ct)

	for _, req := range []*http.Request{
		upload,
		httptest.NewRequest(http.MethodGet, "/files", nil),
		httptest.NewRequest(http.MethodGet, "/files/stats", nil),
		httptest.NewRequest(http.MethodGet, "/files/k.txt/download", nil),
		httptest.NewRequest(http.MethodGet, "/files/k.txt/share", nil),
		httptest.NewRequest(http.MethodDelete, "/files/k.txt", nil),
	} {
		rr, _ := do(t, router, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, req.URL.Path)
	}
	assert.Zero(t, backend.Calls())
}

func TestHandlerSigningBackendRedirects(t *testing.T) {
	t.Parallel()
	backend := newMemoryBackend(true)
	svc := newTestService(backend)
	router := newTestRouter(svc, alice)

	body, ct := multipartBody(t, "file", "report.pdf", []byte("pdf"))
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", ct)
	rr, _ := do(t, router, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/files/20240115_093000_report.pdf/download", nil))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Contains(t, rr.Header().Get("Location"), "https://objects.example.com/20240115_093000_report.pdf")

	rr, env := do(t, router, httptest.NewRequest(http.MethodGet, "/files/20240115_093000_report.pdf/share", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var link ShareLink
	require.NoError(t, json.Unmarshal(env.Data, &link))
	assert.Equal(t, "report.pdf", link.OriginalName)
	assert.NotEmpty(t, link.URL)
}

func TestHandlerPercentInFilename(t *testing.T) {
	t.Parallel()
	router := newTestRouter(newLocalService(t, 1024), alice)

	for _, name := range []string{"100%.txt", "a%41.txt", "aA.txt"} {
		body, ct := multipartBody(t, "file", name, []byte("content of "+name))
		req := httptest.NewRequest(http.MethodPost, "/files", body)
		req.Header.Set("Content-Type", ct)
		rr, env := do(t, router, req)
		require.Equal(t, http.StatusCreated, rr.Code, env.Error)
	}

	for _, name := range []string{"100%.txt", "a%41.txt"} {
		key := "20240115_093000_" + name
		path := "/files/" + url.PathEscape(key)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path+"/download", nil))
		require.Equal(t, http.StatusOK, rr.Code, key)
		assert.Equal(t, "content of "+name, rr.Body.String())

		rr, env := do(t, router, httptest.NewRequest(http.MethodDelete, path, nil))
		require.Equal(t, http.StatusOK, rr.Code, key)
		var deleted deleteResult
		require.NoError(t, json.Unmarshal(env.Data, &deleted))
		assert.Equal(t, key, deleted.Key)
	}

	rr, env := do(t, router, httptest.NewRequest(http.MethodGet, "/files", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var entries []Entry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "20240115_093000_aA.txt", entries[0].Key)
}
