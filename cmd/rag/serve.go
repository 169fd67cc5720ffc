package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/data/redisStore"
	"github.com/akolanti/GoRAG/internal/data/store"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/handlers"
	"github.com/akolanti/GoRAG/internal/job"
	"github.com/akolanti/GoRAG/internal/middleware"
	"github.com/akolanti/GoRAG/internal/server"
	"github.com/akolanti/GoRAG/internal/worker"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/spf13/cobra"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with its worker pool",
	Long: `Serve the asynchronous query API.

Questions and reindex requests are queued as jobs and picked up by an
auto-scaling worker pool. Job state lives in Redis, or in memory when Redis
is offline.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("listen-addr") {
			appCfg.Server.ListenAddr = listenAddr
		}
		return runServer(appCfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
}

func runServer(cfg *config.AppConfig) error {
	logger := logger_i.NewLogger("main")

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	jobStore, err := newJobStore(serviceContext, cfg.Redis, logger)
	if err != nil {
		return err
	}
	service := job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, config.BufferLimit),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          jobStore,
	})

	ragService, err := newRagService(serviceContext, cfg, serviceOptions{generator: true, cache: true})
	if err != nil {
		logger.Error("External services failed to initialize", "error", err)
		return err
	}
	if _, err := ragService.Refresh(serviceContext); err != nil {
		logger.Error("Initial index refresh failed", "error", err)
		return err
	}

	stopWorkerChannel := make(chan bool)
	var workerWaitGroup sync.WaitGroup
	worker.NewPool(service, ragService, stopWorkerChannel, &workerWaitGroup).Start()

	h := handlers.NewHandlers(service, ragService, cfg.Source.Dir, cfg.Source.Extensions)
	srv := server.NewServer(cfg.Server.ListenAddr, server.NewRouter(h, middleware.New(cfg.Server)))

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool)

	go srv.ShutDownHandler(server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	})
	go srv.CreateServer()

	<-stopExecution
	logger.Info("Server stopped")
	return nil
}

func newJobStore(ctx context.Context, cfg config.RedisConfig, logger *logger_i.Logger) (jobModel.JobStore, error) {
	redis, err := redisStore.NewRedisStore(ctx, cfg, config.RedisJobStore)
	if err == nil {
		return store.NewRedisJobStore(redis), nil
	}
	if !config.FALLBACK_REDIS_TO_INTERNALSTORE {
		return nil, err
	}
	logger.Error("Redis stores are offline, using the in-memory job store", "error", err)
	return store.InitInMemoryJobStore(), nil
}
