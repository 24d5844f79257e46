package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dormhub/service-booking/internal/application"
	"github.com/dormhub/service-booking/internal/config"
	"github.com/dormhub/service-booking/internal/domain/pricing"
	bookingEvents "github.com/dormhub/service-booking/internal/events"
	"github.com/dormhub/service-booking/internal/handler"
	"github.com/dormhub/service-booking/internal/platform/database"
	"github.com/dormhub/service-booking/internal/platform/health"
	"github.com/dormhub/service-booking/internal/platform/kafka"
	"github.com/dormhub/service-booking/internal/platform/lock"
	"github.com/dormhub/service-booking/internal/platform/logger"
	"github.com/dormhub/service-booking/internal/platform/middleware"
	"github.com/dormhub/service-booking/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "service-booking"

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

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.IsDevelopment() {
		if err := repository.AutoMigrateModels(db); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), cfg.MigrationsDir, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Booking lock: Redis when several replicas share the ledger, in-process otherwise
	var locker lock.Locker
	if cfg.RedisConfig.Addr != "" {
		redisClient := lock.NewRedisClient(cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
		defer func() { _ = redisClient.Close() }()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			pingCancel()
			log.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisConfig.Addr), zap.Error(err))
		}
		pingCancel()

		locker = lock.NewRedisLocker(redisClient, "dormhub:lock:", cfg.LockConfig.TTL, cfg.LockConfig.Wait, log)
		log.Info("using redis booking lock", zap.String("addr", cfg.RedisConfig.Addr))
	} else {
		locker = lock.NewKeyedMutex(cfg.LockConfig.Wait)
		log.Info("using in-process booking lock")
	}

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)
	rateRepo := repository.NewGormRateRepository(db)
	eventLog := repository.NewGormStatusEventRepository(db)
	unitOfWork := repository.NewGormUnitOfWork(db)

	// Initialize application services
	pricingService := application.NewPricingService(rateRepo, pricing.NewEngine(), log)
	coordinator := application.NewTransitionCoordinator(
		unitOfWork,
		locker,
		pricingService,
		application.NewRefundProcessor(log),
		kafkaProducer,
		log,
	)
	queries := application.NewBookingQueries(bookingRepo, paymentRepo, eventLog, log)

	// Initialize and start payment event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
	paymentConsumer := bookingEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		coordinator,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Setup Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	health.NewHandler(db, serviceName).RegisterRoutes(router)

	// Register routes
	handler.NewPricingHandler(pricingService).RegisterRoutes(&router.RouterGroup)
	handler.NewBookingHandler(coordinator, queries).RegisterRoutes(&router.RouterGroup)
	handler.NewAdminBookingHandler(queries).RegisterRoutes(&router.RouterGroup)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Stop consuming before the HTTP server drains
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
