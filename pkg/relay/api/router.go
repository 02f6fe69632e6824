// Package api exposes the upload relay over HTTP.
package api

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/tendant/image-upload-relay/pkg/relay"
	"github.com/tendant/image-upload-relay/pkg/relay/presigned"
)

//go:embed static
var staticFiles embed.FS

// RouterConfig holds everything NewRouter wires together
type RouterConfig struct {
	Service        relay.Service
	Logger         *httplog.Logger // request logging is skipped when nil
	Environment    string          // "development" enables permissive CORS
	SignerMode     string
	MaxUploadBytes int64
	RequestTimeout time.Duration       // zero disables the per-request deadline
	Local          *presigned.Handlers // mounted when the local signer is in use
}

// NewRouter builds the HTTP handler for the relay server
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.Logger != nil {
		r.Use(httplog.RequestLogger(cfg.Logger))
	}
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	// CORS for development
	if cfg.Environment == "development" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         300,
		}))
	}

	uploads := NewUploadHandler(cfg.Service, cfg.MaxUploadBytes)

	r.Get("/", handleIndex)
	r.Get("/health", handleHealth(cfg.SignerMode))
	r.Post("/upload", uploads.HandleUpload)

	if cfg.Local != nil {
		cfg.Local.Mount(r)
	}

	return r
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile(staticFiles, "static/index.html")
	if err != nil {
		http.Error(w, "index page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

type healthResponse struct {
	Status     string `json:"status"`
	SignerMode string `json:"signer_mode"`
}

func handleHealth(signerMode string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, healthResponse{Status: "ok", SignerMode: signerMode})
	}
}
