package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/GoRAG/internal/adapter/utils"
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/handlers"
	"github.com/akolanti/GoRAG/internal/middleware"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

type Server struct {
	server *http.Server
	logger *logger_i.Logger
}

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// NewRouter mounts the API behind the middleware chain. Health, metrics and
// swagger stay open.
func NewRouter(h *handlers.Handlers, mw *middleware.Middleware) http.Handler {
	r := utils.NewRouter()

	r.Router.Get("/health", h.GetHandler)
	r.Router.Post("/query", mw.Wrap(h.QueryHandler))
	r.Router.Post("/search", mw.Wrap(h.SearchHandler))
	r.Router.Get("/status/{id}", mw.Wrap(h.GetStatusHandler))
	r.Router.Post("/ingest", mw.Wrap(h.PostIngestHandler))
	r.Router.Post("/reindex", mw.Wrap(h.ReindexHandler))
	r.Router.Get("/stats", mw.Wrap(h.StatsHandler))
	return r.Router
}

func NewServer(listenAddr string, handler http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:         listenAddr,
			Handler:      handler,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: logger_i.NewLogger("Server"),
	}
}

func (s *Server) CreateServer() {
	s.logger.Info("Server is listening at", "address", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Server crashed", "error", err, "addr", s.server.Addr)
	}
}

func (s *Server) ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	s.logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		s.server.SetKeepAlivesEnabled(false)

		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Error("Could not shutdown gracefully", "error", err)
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Gracefully shut down")
		close(shutdownParams.StopExecution)
	case <-ctx.Done():
		s.logger.Error("Force shut down")
		os.Exit(1)
	}
}
