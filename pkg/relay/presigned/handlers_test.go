package presigned

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/image-upload-relay/pkg/relay"
	"github.com/tendant/image-upload-relay/pkg/relay/memstore"
)

func setupHandlersTest(t *testing.T, opts ...Option) (*chi.Mux, *Signer, *memstore.Store) {
	t.Helper()
	signer := New("", append([]Option{WithSecretKey(testSecret)}, opts...)...)
	store := memstore.New()

	router := chi.NewRouter()
	NewHandlers(signer, store).Mount(router)
	return router, signer, store
}

func TestHandlers_GenerateUploadURL(t *testing.T) {
	router, _, _ := setupHandlersTest(t)

	req := httptest.NewRequest(http.MethodGet, "/generate-upload-url?fileName="+url.QueryEscape("my photo.JPG"), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var descriptor relay.Descriptor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &descriptor))
	assert.NoError(t, descriptor.Validate())
	assert.Contains(t, descriptor.FileKey, "my_photo.JPG")
}

func TestHandlers_GenerateUploadURL_MissingFileName(t *testing.T) {
	router, _, _ := setupHandlersTest(t)

	req := httptest.NewRequest(http.MethodGet, "/generate-upload-url", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing_file_name")
}

func TestHandlers_Upload_RoundTrip(t *testing.T) {
	router, signer, store := setupHandlersTest(t)

	descriptor, err := signer.Presign(context.Background(), "photo.jpg")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, descriptor.UploadURL, bytes.NewReader([]byte("jpeg bytes")))
	req.Header.Set("Content-Type", "image/jpg")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	obj, err := store.Get(context.Background(), descriptor.FileKey)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(obj.Data))
	assert.Equal(t, "image/jpg", obj.ContentType)
}

func TestHandlers_Upload_Rejections(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	router, signer, store := setupHandlersTest(t, WithClock(fixedClock(now)), WithExpiration(time.Minute))

	signed, err := signer.SignPath(http.MethodPut, "/objects/abc-photo.jpg")
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"missing signature", "/objects/abc-photo.jpg?expires=1", http.StatusUnauthorized, "missing_signature"},
		{"missing expires", "/objects/abc-photo.jpg?signature=x", http.StatusUnauthorized, "missing_expires"},
		{"invalid expires", "/objects/abc-photo.jpg?signature=x&expires=x", http.StatusBadRequest, "invalid_expires"},
		{"wrong key", "/objects/other.jpg?" + mustQuery(t, signed), http.StatusForbidden, "invalid_signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, tt.target, bytes.NewReader([]byte("x")))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}

	assert.Equal(t, 0, store.Len())
}

func TestHandlers_Download_RoundTrip(t *testing.T) {
	router, signer, store := setupHandlersTest(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "abc-photo.jpg", "image/jpg", bytes.NewReader([]byte("jpeg bytes"))))

	req := httptest.NewRequest(http.MethodGet, "/generate-download-url?fileKey=abc-photo.jpg", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp downloadURLResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.DownloadURL)

	req = httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg bytes", w.Body.String())
	assert.Equal(t, "image/jpg", w.Header().Get("Content-Type"))

	// an upload URL does not grant reads
	uploadURL, err := signer.SignPath(http.MethodPut, "/objects/abc-photo.jpg")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, uploadURL, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandlers_Download_NotFound(t *testing.T) {
	router, signer, _ := setupHandlersTest(t)

	downloadURL, err := signer.PresignDownload("missing.jpg")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, downloadURL, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestHandlers_GenerateDownloadURL_MissingFileKey(t *testing.T) {
	router, _, _ := setupHandlersTest(t)

	req := httptest.NewRequest(http.MethodGet, "/generate-download-url", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing_file_key")
}

func mustQuery(t *testing.T, signed string) string {
	t.Helper()
	u, err := url.Parse(signed)
	require.NoError(t, err)
	return u.RawQuery
}
