package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/image-upload-relay/pkg/relay"
)

// Response messages the browser client relies on
const (
	MessageUploadSuccessful = "Upload successful"
	MessageNoFile           = "No file received"
	MessageInvalidFileName  = "Invalid file name"
	MessageNotImage         = "File is not an image"
	MessageTooLarge         = "File too large"
	MessageUploadFailed     = "Failed to upload to S3"
)

// DefaultMaxMemory is how much of a multipart body is held in memory before spilling
const DefaultMaxMemory = 32 << 20

// multipartOverhead allows for part headers and boundaries on top of the file limit
const multipartOverhead = 1 << 20

// UploadResponse is the JSON body of every POST /upload answer
type UploadResponse struct {
	Message string `json:"message"`
	FileKey string `json:"file_key,omitempty"`
}

// UploadHandler relays browser uploads through a relay.Service
type UploadHandler struct {
	service        relay.Service
	maxUploadBytes int64
	maxMemory      int64
}

// NewUploadHandler creates an upload handler. maxUploadBytes of zero means unlimited.
func NewUploadHandler(service relay.Service, maxUploadBytes int64) *UploadHandler {
	return &UploadHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		maxMemory:      DefaultMaxMemory,
	}
}

// HandleUpload handles POST /upload with a multipart field named "file"
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	}

	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			slog.Warn("Upload exceeds limit", "limit", h.maxUploadBytes)
			writeMessage(w, r, http.StatusRequestEntityTooLarge, MessageTooLarge)
			return
		}
		slog.Warn("No multipart form in upload request", "error", err)
		writeMessage(w, r, http.StatusBadRequest, MessageNoFile)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		slog.Warn("No file in upload request", "error", err)
		writeMessage(w, r, http.StatusBadRequest, MessageNoFile)
		return
	}
	defer file.Close()

	result, err := h.service.Relay(r.Context(), relay.Upload{
		FileName: header.Filename,
		Body:     file,
		Size:     header.Size,
	})
	if err != nil {
		status, message := statusFor(err)
		if status < http.StatusInternalServerError {
			slog.Warn("Upload rejected", "file_name", header.Filename, "kind", relay.KindOf(err).String(), "error", err)
		} else {
			slog.Error("Upload relay failed", "file_name", header.Filename, "kind", relay.KindOf(err).String(), "error", err)
		}
		writeMessage(w, r, status, message)
		return
	}

	slog.Info("Upload relayed", "file_key", result.FileKey, "content_type", result.ContentType, "size", header.Size)
	render.JSON(w, r, UploadResponse{Message: MessageUploadSuccessful, FileKey: result.FileKey})
}

// statusFor maps a relay failure to the HTTP status and message returned to the client
func statusFor(err error) (int, string) {
	switch relay.KindOf(err) {
	case relay.KindInput:
		switch {
		case errors.Is(err, relay.ErrTooLarge):
			return http.StatusRequestEntityTooLarge, MessageTooLarge
		case errors.Is(err, relay.ErrInvalidFileName):
			return http.StatusBadRequest, MessageInvalidFileName
		case errors.Is(err, relay.ErrNotImage):
			return http.StatusBadRequest, MessageNotImage
		default:
			return http.StatusBadRequest, MessageNoFile
		}
	case relay.KindUpstream:
		if errors.Is(err, relay.ErrObjectStoreRejected) {
			return http.StatusInternalServerError, MessageUploadFailed
		}
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, UploadResponse{Message: message})
}
