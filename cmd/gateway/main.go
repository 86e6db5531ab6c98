package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-alloy/internal/alloy"
	api "github.com/mind-engage/mindengage-alloy/internal/api/http"
	"github.com/mind-engage/mindengage-alloy/internal/cache"
	"github.com/mind-engage/mindengage-alloy/internal/config"
	"github.com/mind-engage/mindengage-alloy/internal/db"
	"github.com/mind-engage/mindengage-alloy/internal/events"
	"github.com/mind-engage/mindengage-alloy/internal/logging"
	"github.com/mind-engage/mindengage-alloy/internal/metrics"
	"github.com/mind-engage/mindengage-alloy/internal/monitor"
	"github.com/mind-engage/mindengage-alloy/internal/process"
	storage "github.com/mind-engage/mindengage-alloy/internal/storage"
	syncx "github.com/mind-engage/mindengage-alloy/internal/sync"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg := config.FromEnv()

	log, err := logging.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("gateway stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer dbh.Close()
	store := process.NewSQLStore(dbh, cfg.DBDriver)
	journal := syncx.NewEventRepo(dbh)

	ref, err := alloy.LoadReference(cfg.ReferenceDataPath)
	if err != nil {
		return fmt.Errorf("reference data: %w", err)
	}

	var m *metrics.Metrics
	if cfg.EnableMetrics {
		m = metrics.New()
	}

	// --- Cache ---
	var c cache.Cache = cache.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisClient(openCtx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rc.Close()
		c = cache.NewRedisCache(rc)
	}

	// --- Events ---
	var pub events.Publisher = events.NewLogPublisher(log.Named("events"))
	if cfg.RabbitMQURL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("rabbitmq: %w", err)
		}
		defer conn.Close()
		rp, err := events.NewRabbitPublisher(conn, cfg.EventsExchange)
		if err != nil {
			return fmt.Errorf("rabbitmq publisher: %w", err)
		}
		defer rp.Close()
		pub = rp
	}

	// --- Blobs ---
	bs, err := storage.Open(openCtx, cfg)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	svc := monitor.New(store, ref,
		monitor.WithCache(c, cfg.CacheTTL),
		monitor.WithPublisher(pub, events.DefaultRetry),
		monitor.WithJournal(journal),
		monitor.WithMetrics(m),
		monitor.WithLogger(log.Named("monitor")),
		monitor.WithDefaultGrade(cfg.DefaultGrade),
		monitor.WithCostPerKg(cfg.CostPerKg),
	)

	h := api.NewRouter(api.Deps{
		Store:             store,
		Monitor:           svc,
		Reference:         ref,
		Blobs:             bs,
		Events:            journal,
		Metrics:           m,
		Log:               log.Named("http"),
		Ready:             dbh.PingContext,
		CORSOrigins:       cfg.CORSOrigins(),
		LowStockThreshold: cfg.LowStockThreshold,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("mode", string(cfg.Mode)),
			zap.String("db", cfg.DBDriver),
			zap.String("blob", cfg.BlobDriver),
			zap.Bool("redis", cfg.RedisAddr != ""),
			zap.Bool("rabbitmq", cfg.RabbitMQURL != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
