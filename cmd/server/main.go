package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Skotchmaster/stores_api/internal/config"
	"github.com/Skotchmaster/stores_api/internal/db"
	"github.com/Skotchmaster/stores_api/internal/events"
	"github.com/Skotchmaster/stores_api/internal/httpserver"
	"github.com/Skotchmaster/stores_api/internal/logging"
	"github.com/Skotchmaster/stores_api/internal/metrics"
	authmw "github.com/Skotchmaster/stores_api/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/stores_api/internal/middleware/logging"
	"github.com/Skotchmaster/stores_api/internal/repo"
	"github.com/Skotchmaster/stores_api/internal/revocation"
	"github.com/Skotchmaster/stores_api/internal/search"
	"github.com/Skotchmaster/stores_api/internal/service"
	"github.com/Skotchmaster/stores_api/internal/tokens"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			log.Error("db close error", "error", err)
		}
	}()
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}

	var (
		revoked revocation.Store
		readyFn = []func(context.Context) error{func(ctx context.Context) error { return db.Ping(ctx, gdb) }}
	)
	switch cfg.RevocationBackend {
	case config.RevocationRedis:
		kv := revocation.NewRedisKV(revocation.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer func() {
			if err := kv.Close(); err != nil {
				log.Error("redis close error", "error", err)
			}
		}()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := kv.Ping(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		revoked = revocation.NewRedisStore(kv)
		readyFn = append(readyFn, kv.Ping)
		log.Info("revocation backend: redis", "addr", cfg.RedisAddr)
	default:
		revoked = revocation.NewMemoryStore()
		log.Info("revocation backend: memory")
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers)
		defer func() {
			if err := kp.Close(); err != nil {
				log.Error("kafka close error", "error", err)
			}
		}()
		publisher = kp
		log.Info("publishing events to kafka", "brokers", cfg.KafkaBrokers)
	}

	var index search.Index = search.Disabled{}
	if cfg.ESURL != "" {
		esCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		client, err := search.NewClient(esCtx, search.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		cancel()
		if err != nil {
			return err
		}
		index = search.NewElasticIndex(client, cfg.ESIndex)
		log.Info("item search enabled", "url", cfg.ESURL, "index", cfg.ESIndex)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	tokenCfg := tokens.Config{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}
	r := repo.New(gdb)

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(log), m.Middleware())

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: &service.AuthService{
			Users:   r,
			Issuer:  tokens.NewIssuer(tokenCfg),
			Revoked: revoked,
			Events:  publisher,
			Metrics: m,
		}},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: &service.CatalogService{
			Repo:   r,
			Search: index,
			Events: publisher,
		}},
		Tokens: &authmw.TokenMiddleware{
			Validator: tokens.NewValidator(tokenCfg, revoked),
			Metrics:   m,
		},
		Ready: func(ctx context.Context) error {
			for _, fn := range readyFn {
				if err := fn(ctx); err != nil {
					return err
				}
			}
			return nil
		},
		Gatherer: reg,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}

	log.Info("shutdown complete")
	return nil
}
