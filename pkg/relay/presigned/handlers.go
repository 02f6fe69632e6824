package presigned

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/image-upload-relay/pkg/relay"
	"github.com/tendant/image-upload-relay/pkg/relay/memstore"
)

// ObjectStore persists uploaded bodies and serves them back
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, reader io.Reader) error
	Get(ctx context.Context, key string) (*memstore.Object, error)
}

// Handlers serves the local signer endpoint and the presigned upload receiver
type Handlers struct {
	signer *Signer
	store  ObjectStore
}

// NewHandlers creates handlers that issue URLs with signer and store uploads in store
func NewHandlers(signer *Signer, store ObjectStore) *Handlers {
	return &Handlers{
		signer: signer,
		store:  store,
	}
}

// Mount mounts the handlers on a chi router
func (h *Handlers) Mount(r chi.Router) {
	r.Get("/generate-upload-url", h.HandleGenerateUploadURL)
	r.Get("/generate-download-url", h.HandleGenerateDownloadURL)
	r.Put(ObjectsPrefix+"*", h.HandleUpload)
	r.Get(ObjectsPrefix+"*", h.HandleDownload)
}

type downloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// HandleGenerateUploadURL answers GET /generate-upload-url?fileName=<name> with a descriptor
func (h *Handlers) HandleGenerateUploadURL(w http.ResponseWriter, r *http.Request) {
	fileName := relay.SanitizeFilename(r.URL.Query().Get("fileName"))
	if fileName == "" {
		writeError(w, r, http.StatusBadRequest, "missing_file_name", "fileName query parameter is required")
		return
	}

	descriptor, err := h.signer.Presign(r.Context(), fileName)
	if err != nil {
		slog.Error("Failed to presign upload", "file_name", fileName, "error", err)
		writeError(w, r, http.StatusInternalServerError, "presign_failed", err.Error())
		return
	}

	slog.Info("Issued presigned upload URL", "file_key", descriptor.FileKey)
	render.JSON(w, r, descriptor)
}

// HandleGenerateDownloadURL answers GET /generate-download-url?fileKey=<key> with a signed GET URL
func (h *Handlers) HandleGenerateDownloadURL(w http.ResponseWriter, r *http.Request) {
	fileKey := r.URL.Query().Get("fileKey")
	if fileKey == "" {
		writeError(w, r, http.StatusBadRequest, "missing_file_key", "fileKey query parameter is required")
		return
	}

	downloadURL, err := h.signer.PresignDownload(fileKey)
	if err != nil {
		slog.Error("Failed to presign download", "file_key", fileKey, "error", err)
		writeError(w, r, http.StatusInternalServerError, "presign_failed", err.Error())
		return
	}

	render.JSON(w, r, downloadURLResponse{DownloadURL: downloadURL})
}

// HandleUpload handles PUT requests to presigned upload URLs
// URL format: PUT /objects/{key}?signature={hmac}&expires={timestamp}
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		writeError(w, r, http.StatusBadRequest, "missing_object_key", "object key is required in URL path")
		return
	}

	if err := h.signer.ValidateRequest(r); err != nil {
		status, code := statusFor(err)
		slog.Warn("Presigned upload signature validation failed", "file_key", key, "error", err)
		writeError(w, r, status, code, err.Error())
		return
	}

	if err := h.store.Put(r.Context(), key, r.Header.Get("Content-Type"), r.Body); err != nil {
		slog.Error("Presigned upload failed", "file_key", key, "error", err)
		writeError(w, r, http.StatusInternalServerError, "upload_failed", err.Error())
		return
	}

	slog.Info("Presigned upload stored", "file_key", key, "content_type", r.Header.Get("Content-Type"))

	// S3 answers presigned PUTs with 200 and an empty body
	w.WriteHeader(http.StatusOK)
}

// HandleDownload handles GET requests to presigned download URLs
// URL format: GET /objects/{key}?signature={hmac}&expires={timestamp}
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		writeError(w, r, http.StatusBadRequest, "missing_object_key", "object key is required in URL path")
		return
	}

	if err := h.signer.ValidateRequest(r); err != nil {
		status, code := statusFor(err)
		slog.Warn("Presigned download signature validation failed", "file_key", key, "error", err)
		writeError(w, r, status, code, err.Error())
		return
	}

	obj, err := h.store.Get(r.Context(), key)
	if errors.Is(err, memstore.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		slog.Error("Presigned download failed", "file_key", key, "error", err)
		writeError(w, r, http.StatusInternalServerError, "download_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(obj.Data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: errorBody{Code: code, Message: message}})
}
