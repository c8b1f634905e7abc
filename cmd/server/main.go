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

	"github.com/gin-gonic/gin"
	"github.com/glowbook/service-booking/internal/application"
	"github.com/glowbook/service-booking/internal/auth"
	"github.com/glowbook/service-booking/internal/clock"
	"github.com/glowbook/service-booking/internal/config"
	"github.com/glowbook/service-booking/internal/database"
	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	bookingEvents "github.com/glowbook/service-booking/internal/events"
	"github.com/glowbook/service-booking/internal/geo"
	"github.com/glowbook/service-booking/internal/handler"
	"github.com/glowbook/service-booking/internal/logger"
	"github.com/glowbook/service-booking/internal/middleware"
	"github.com/glowbook/service-booking/internal/noshow"
	"github.com/glowbook/service-booking/internal/payment"
	"github.com/glowbook/service-booking/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "service-booking"

// locator is what both location stores offer: reads for the no-show checks
// and writes for the provider location endpoint.
type locator interface {
	application.Geolocator
	handler.LocationUpdater
}

// publisher is an event sink that may hold a connection.
type publisher interface {
	application.EventPublisher
	Close() error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.Storage),
		zap.String("timezone", cfg.Timezone.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.NewSystem()
	var checks []handler.Check

	// Storage
	var bookingRepo bookingDomain.BookingRepository
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage, bookings are lost on restart")
		bookingRepo = repository.NewMemoryBookingRepository()
	} else {
		db, err := database.Connect(ctx, cfg.DBConfig, log)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		if err := database.Migrate(db); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		bookingRepo = repository.NewGormBookingRepository(db)
		checks = append(checks, handler.Check{Name: "postgres", Ping: database.Ping(db)})
	}

	// Events
	var producer publisher
	if len(cfg.KafkaConfig.Brokers) > 0 {
		producer = bookingEvents.NewProducer(cfg.KafkaConfig.Brokers, log)
	} else {
		log.Warn("no kafka brokers configured, events are only logged")
		producer = bookingEvents.NewLogProducer(log)
	}
	defer func() { _ = producer.Close() }()

	// Provider locations
	var locations locator
	if cfg.RedisConfig.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer func() { _ = rdb.Close() }()
		locations = geo.NewRedisLocator(rdb, cfg.NoShow.LocationMaxAge, clk)
		checks = append(checks, handler.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	} else {
		log.Warn("no redis configured, provider locations kept in memory")
		locations = geo.NewMemoryLocator(cfg.NoShow.LocationMaxAge, clk)
	}

	// Payments
	var gateway application.PaymentGateway
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey, log)
	} else {
		log.Warn("no stripe key configured, refunds and no-show captures will be skipped")
		gateway = payment.Unconfigured{}
	}

	// Services
	guard := noshow.NewGuard(clk, cfg.NoShow.Countdown, log)
	defer guard.Close()

	bookingService := application.NewBookingService(
		bookingRepo,
		gateway,
		producer,
		guard,
		clk,
		cfg.Timezone,
		log,
	)
	noShowService := application.NewNoShowService(
		bookingService,
		locations,
		bookingDomain.NewNoShowChargeStrategy(cfg.NoShow.ChargePercent),
		cfg.NoShow.RadiusMeters,
		log,
	)

	// HTTP
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 15*time.Minute)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeadersMiddleware())

	handler.NewHealthHandler(serviceName, checks...).RegisterRoutes(router)
	handler.NewBookingHandler(bookingService, noShowService, log).RegisterRoutes(&router.RouterGroup, jwtManager, limiter)
	handler.NewLocationHandler(locations, log).RegisterRoutes(&router.RouterGroup, jwtManager, limiter)
	handler.NewAdminBookingHandler(bookingService, log).RegisterRoutes(&router.RouterGroup, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if len(cfg.KafkaConfig.Brokers) > 0 {
		groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
		paymentConsumer := bookingEvents.NewPaymentEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			bookingService,
			log,
		)
		defer func() { _ = paymentConsumer.Close() }()

		g.Go(func() error {
			log.Info("starting payment event consumer", zap.String("group_id", groupID))
			if err := paymentConsumer.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("payment consumer: %w", err)
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down " + serviceName + "...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server forced shutdown", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("service stopped with error", zap.Error(err))
	}
	log.Info(serviceName + " stopped")
}
