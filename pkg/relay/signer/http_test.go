package signer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/image-upload-relay/pkg/relay"
)

func newSignerServer(t *testing.T, status int, body string) (*httptest.Server, *[]string) {
	t.Helper()
	var fileNames []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		fileNames = append(fileNames, r.URL.Query().Get("fileName"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &fileNames
}

func TestHTTPSigner_Presign_Success(t *testing.T) {
	server, fileNames := newSignerServer(t, http.StatusOK, `{"upload_url":"https://store/x","file_key":"abc123","extra":true}`)

	descriptor, err := NewHTTPSigner(server.URL).Presign(context.Background(), "my photo.jpg")
	require.NoError(t, err)

	assert.Equal(t, relay.Descriptor{UploadURL: "https://store/x", FileKey: "abc123"}, descriptor)
	assert.Equal(t, []string{"my photo.jpg"}, *fileNames)
}

func TestHTTPSigner_Presign_KeepsExistingQuery(t *testing.T) {
	var rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		w.Write([]byte(`{"upload_url":"u","file_key":"k"}`))
	}))
	defer server.Close()

	_, err := NewHTTPSigner(server.URL+"/sign?stage=prod").Presign(context.Background(), "a.png")
	require.NoError(t, err)
	assert.Equal(t, "fileName=a.png&stage=prod", rawQuery)
}

func TestHTTPSigner_Presign_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing upload_url", `{"file_key":"abc123"}`, "missing upload_url"},
		{"missing file_key", `{"upload_url":"https://store/x"}`, "missing file_key"},
		{"empty object", `{}`, "missing upload_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newSignerServer(t, http.StatusOK, tt.body)

			_, err := NewHTTPSigner(server.URL).Presign(context.Background(), "a.png")
			require.Error(t, err)
			assert.ErrorIs(t, err, relay.ErrMalformedSignerResponse)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestHTTPSigner_Presign_InvalidJSON(t *testing.T) {
	server, _ := newSignerServer(t, http.StatusOK, `<html>oops</html>`)

	_, err := NewHTTPSigner(server.URL).Presign(context.Background(), "a.png")
	assert.ErrorIs(t, err, relay.ErrMalformedSignerResponse)
}

func TestHTTPSigner_Presign_NonOKStatus(t *testing.T) {
	server, _ := newSignerServer(t, http.StatusForbidden, `{"message":"Forbidden"}`)

	_, err := NewHTTPSigner(server.URL).Presign(context.Background(), "a.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, relay.ErrSignerRejected)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Equal(t, `{"message":"Forbidden"}`, statusErr.Body)
}

func TestHTTPSigner_Presign_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewHTTPSigner(url).Presign(context.Background(), "a.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signer request failed")
	assert.NotErrorIs(t, err, relay.ErrMalformedSignerResponse)
}

func TestHTTPSigner_Presign_ContextCancelled(t *testing.T) {
	server, fileNames := newSignerServer(t, http.StatusOK, `{"upload_url":"u","file_key":"k"}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPSigner(server.URL).Presign(ctx, "a.png")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *fileNames)
}
