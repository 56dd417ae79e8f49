package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jaehyunkim/docuvision/internal/bootstrap"
	"github.com/jaehyunkim/docuvision/internal/config"
	"github.com/jaehyunkim/docuvision/internal/core/ports"
	"github.com/jaehyunkim/docuvision/internal/observability/logging"
	"github.com/jaehyunkim/docuvision/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
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

	app.ProcessUC.SetPageObserver(func(blockCount int) {
		workerMetrics.ObservePage("worker", blockCount)
	})
	var processor ports.RequestProcessor = app.ProcessUC

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeRequestCreated(ctx, func(handlerCtx context.Context, requestID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		// Request ids are UUIDv7, so the creation timestamp is embedded.
		if id, err := uuid.Parse(requestID); err == nil && id.Version() == 7 {
			sec, nsec := id.Time().UnixTime()
			workerMetrics.ObserveQueueLag("worker", time.Since(time.Unix(sec, nsec)))
		}

		workerMetrics.StartRequest()
		start := time.Now()
		processErr := processor.ProcessByID(processCtx, requestID)
		workerMetrics.FinishRequest("worker", time.Since(start), processErr)
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
