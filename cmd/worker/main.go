package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kasap-ot/thesis-project/internal/config"
	"github.com/kasap-ot/thesis-project/internal/logging"
	"github.com/kasap-ot/thesis-project/internal/metrics"
	"github.com/kasap-ot/thesis-project/internal/notify"
	"github.com/kasap-ot/thesis-project/internal/queue"
	"github.com/kasap-ot/thesis-project/internal/store"
)

// Worker consumes queued notifications and emails the affected parties.
func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.Production())

	if cfg.QueueBackend == "memory" {
		log.Fatal("the in-memory queue is drained by the api process; set QUEUE_BACKEND=redis to run a worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewDB(ctx, cfg.DatabaseURL, store.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.WithField("addr", cfg.RedisAddr).Warn("redis not reachable, consumer will keep retrying")
	}

	m := metrics.New()
	srv := &http.Server{Addr: cfg.WorkerMetrics, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	q := queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	messages, err := q.Consume(ctx)
	if err != nil {
		log.WithError(err).Fatal("queue consume init failed")
	}

	dispatcher := notify.NewDispatcher(notify.NewDBDirectory(db.Client), notify.LogMailer{}, m)
	log.WithField("key", cfg.QueueKey).Info("worker started, waiting for notifications")
	dispatcher.Run(ctx, messages)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("worker stopped")
}
