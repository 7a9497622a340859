package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/kasap-ot/thesis-project/internal/application"
	"github.com/kasap-ot/thesis-project/internal/auth"
	"github.com/kasap-ot/thesis-project/internal/config"
	"github.com/kasap-ot/thesis-project/internal/httpapi"
	"github.com/kasap-ot/thesis-project/internal/httpmiddleware"
	"github.com/kasap-ot/thesis-project/internal/logging"
	"github.com/kasap-ot/thesis-project/internal/metrics"
	"github.com/kasap-ot/thesis-project/internal/notify"
	"github.com/kasap-ot/thesis-project/internal/offer"
	"github.com/kasap-ot/thesis-project/internal/offerparser"
	"github.com/kasap-ot/thesis-project/internal/profile"
	"github.com/kasap-ot/thesis-project/internal/queue"
	"github.com/kasap-ot/thesis-project/internal/store"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.Production())

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.WithError(err).Fatal("http server failed")
	}
}

func runHTTP(cfg config.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewDB(ctx, cfg.DatabaseURL, store.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	if db == nil {
		return err
	}
	if err != nil {
		log.WithError(err).Warn("db not reachable")
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := store.Migrate(db.Client.DB); err != nil {
			return err
		}
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	m := metrics.New()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		mem := queue.NewInMemory(64)
		q = mem
		// Only this process can drain an in-memory queue.
		messages, err := mem.Consume(ctx)
		if err != nil {
			return err
		}
		dispatcher := notify.NewDispatcher(notify.NewDBDirectory(db.Client), notify.LogMailer{}, m)
		go dispatcher.Run(ctx, messages)
		log.Info("in-memory queue, dispatching notifications in process")
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	}

	var parser offer.Parser
	if !cfg.ParserSkip {
		client := offerparser.New(cfg.ParserURL)
		if err := client.Health(ctx); err != nil {
			log.WithError(err).Warn("offer parser not available")
		}
		parser = client
	}

	offers := offer.NewService(offer.NewRepository(db.Client), parser)
	apps := application.NewService(application.NewRepository(db.Client), notify.NewQueueNotifier(q), m)
	profiles := profile.NewService(profile.NewRepository(db.Client))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.Logger("/healthz", "/metrics"))
	r.Use(httpmiddleware.Metrics(m))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.NewLimiter(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		dbHealthy := db.Healthy(c.Request.Context())
		redisHealthy := cfg.QueueBackend == "memory" || redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !dbHealthy || !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"db": dbHealthy, "redis": redisHealthy})
	})

	v1 := r.Group("/v1",
		httpmiddleware.Timeout(cfg.RequestTimeout),
		auth.Authenticate(cfg.JWTSigningKey, cfg.JWTIssuer),
	)
	httpapi.NewHandler(offers, apps, profiles).Register(v1)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server forced shutdown")
	}

	log.Info("server exited")
	return nil
}
