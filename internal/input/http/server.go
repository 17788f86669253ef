package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dontpanicw/ClinicMedia/internal/port"
	"github.com/dontpanicw/ClinicMedia/pkg/log"
)

type Server struct {
	handler *Handler
	server  *http.Server
}

// Options holds the optional parts of the router.
type Options struct {
	MaxUploadBytes int64
	AllowedOrigins []string
	// MediaPrefix and Media serve stored objects when blobs live on local disk.
	MediaPrefix string
	Media       http.Handler
}

func NewServer(addr string, usecases port.MediaUsecases, sessions port.SessionManager, opts Options) *Server {
	handler := NewHandler(usecases, sessions, opts.MaxUploadBytes)

	return &Server{
		handler: handler,
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(handler, sessions, opts),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       300 * time.Second,
		},
	}
}

func NewRouter(handler *Handler, sessions port.SessionManager, opts Options) *mux.Router {
	router := mux.NewRouter()
	router.Use(accessLog, corsMiddleware(opts.AllowedOrigins))

	router.HandleFunc("/healthz", handler.Health).Methods(http.MethodGet)
	router.HandleFunc("/auth/login", handler.Login).Methods(http.MethodPost, http.MethodOptions)

	admin := router.NewRoute().Subrouter()
	admin.Use(RequireAdmin(sessions))
	admin.HandleFunc("/auth/logout", handler.Logout).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/auth/session", handler.CurrentSession).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/upload", handler.UploadImage).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/upload", handler.DeleteImage).Methods(http.MethodDelete, http.MethodOptions)
	admin.HandleFunc("/assets", handler.ListAssets).Methods(http.MethodGet, http.MethodOptions)

	if opts.Media != nil && opts.MediaPrefix != "" {
		router.PathPrefix(opts.MediaPrefix + "/").
			Handler(http.StripPrefix(opts.MediaPrefix, opts.Media)).
			Methods(http.MethodGet, http.MethodHead)
	}

	return router
}

func (s *Server) Start() error {
	log.Infof("Starting HTTP server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	log.Infof("Shutting down HTTP server...")
	return s.server.Shutdown(ctx)
}
