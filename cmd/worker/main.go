package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stewardai/adaptive-rag/internal/bootstrap"
	"github.com/stewardai/adaptive-rag/internal/config"
	"github.com/stewardai/adaptive-rag/internal/core/domain"
	"github.com/stewardai/adaptive-rag/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "rag-worker")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("rag-worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		log.Printf("worker metrics listening on :%s", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("worker metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeRunCompleted(ctx, func(handlerCtx context.Context, run domain.RunRecord) error {
		workerMetrics.StartArchive()
		workerMetrics.ObserveQueueLag("rag-worker", time.Since(run.CreatedAt))

		archiveCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()

		start := time.Now()
		archiveErr := app.Archive.SaveRun(archiveCtx, &run)
		workerMetrics.FinishArchive("rag-worker", time.Since(start), archiveErr)
		return archiveErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
