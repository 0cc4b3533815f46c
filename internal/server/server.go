// Package server exposes the routing engine over HTTP: ticket and
// analytics reads plus processing triggers, for the operations
// dashboard.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"fire/internal/classify"
	"fire/internal/ingest"
	"fire/internal/pipeline"
	"fire/internal/store"
)

// Server is the HTTP façade over the store and the pipeline.
type Server struct {
	store     *store.Store
	batch     *pipeline.Batch
	processor *pipeline.Processor
	seeder    *ingest.Seeder
	assistant classify.Assistant
	dataDir   string
	logger    *zap.Logger
	http      *http.Server
}

// Options carries the server wiring.
type Options struct {
	Addr           string
	AllowedOrigins []string
	Store          *store.Store
	Batch          *pipeline.Batch
	Processor      *pipeline.Processor
	Seeder         *ingest.Seeder
	Assistant      classify.Assistant
	DataDir        string
	Logger         *zap.Logger
}

// New builds a server; call Start to listen.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{
		store:     opts.Store,
		batch:     opts.Batch,
		processor: opts.Processor,
		seeder:    opts.Seeder,
		assistant: opts.Assistant,
		dataDir:   opts.DataDir,
		logger:    opts.Logger,
	}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Router(opts.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router assembles the chi routing tree. Exposed for tests.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/tickets", s.handleListTickets)
		r.Get("/tickets/{id}", s.handleGetTicket)
		r.Get("/analytics/summary", s.handleSummary)
		r.Get("/analytics/managers", s.handleManagerLoads)
		r.Post("/analytics/assistant", s.handleAssistant)
		r.Post("/process/run", s.handleProcessRun)
		r.Post("/process/ingest", s.handleIngest)
		r.Post("/process/upload", s.handleUpload)
		r.Post("/process/{id}", s.handleProcessTicket)
	})
	return r
}

// Start listens until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
