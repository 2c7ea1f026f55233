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

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/rental-availability/internal/availability"
	"github.com/iliyamo/rental-availability/internal/cache"
	"github.com/iliyamo/rental-availability/internal/clock"
	"github.com/iliyamo/rental-availability/internal/config"
	"github.com/iliyamo/rental-availability/internal/database"
	"github.com/iliyamo/rental-availability/internal/handler"
	"github.com/iliyamo/rental-availability/internal/logger"
	"github.com/iliyamo/rental-availability/internal/middleware"
	"github.com/iliyamo/rental-availability/internal/queue"
	"github.com/iliyamo/rental-availability/internal/repository"
	"github.com/iliyamo/rental-availability/internal/router"
	"github.com/iliyamo/rental-availability/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	availCfg, err := config.LoadAvailabilityConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("mysql: %w", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Warn("redis unreachable; running without availability cache and rate limiting")
	} else {
		defer rdb.Close()
	}

	clk := clock.NewSystem()
	engine := availability.New(
		availability.WithLogger(log.Named("availability")),
		availability.WithMaxRangeDays(availCfg.MaxRangeDays),
	)
	svc := &service.AvailabilityService{
		Products:        repository.NewProductRepo(db),
		Reservations:    repository.NewReservationRepo(db),
		Cache:           cache.NewAvailabilityCache(config.LoadCacheConfig(), rdb),
		Events:          queue.NewPublisher(cfg.AMQPURL, log.Named("publisher")),
		Engine:          engine,
		Clock:           clk,
		Location:        availCfg.TimeZone,
		HoldingStatuses: availCfg.HoldingStatuses,
		Log:             log.Named("service"),
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterMiddleware(e, log.Named("http"))

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log.Named("ratelimit"))
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db, clk), clk, log), cfg.JWTSecret)
	router.RegisterAvailability(e, handler.NewAvailabilityHandler(svc, engine, log), limiter)
	router.RegisterOwner(e, handler.NewOwnerProductHandler(svc, log), cfg.JWTSecret)

	consumer := queue.NewConsumer(cfg.AMQPURL, svc, log.Named("consumer"))
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("invalidation consumer stopped", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	serverErr := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("tz", availCfg.TimeZone.String()))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serverErr:
		stop()
		<-consumerDone
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	<-consumerDone
	return nil
}
