package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholarship-api/internal/config"
	"github.com/noah-isme/scholarship-api/internal/database"
	"github.com/noah-isme/scholarship-api/internal/events"
	"github.com/noah-isme/scholarship-api/internal/repository"
	"github.com/noah-isme/scholarship-api/internal/service"
	"github.com/noah-isme/scholarship-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName+" worker").Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName+" worker")
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	applicationService := service.NewApplicationService(
		repository.NewApplicationRepository(db),
		repository.NewScholarshipRepository(db),
		repository.NewStudentRepository(db),
		events.NewBrokerPublisher(redisClient, natsConn, cfg.EventsChannel, logger),
		validator.New(validator.WithRequiredStructEnabled()),
		logger,
	)

	scheduler, err := worker.NewExpiryScheduler(applicationService, cfg.ExpirySchedule, logger)
	if err != nil {
		log.Fatalf("failed to schedule expiry sweep: %v", err)
	}

	if _, err := scheduler.RunOnce(context.Background()); err != nil {
		logger.Error().Err(err).Msg("initial expiry sweep failed")
	}
	scheduler.Start()
	logger.Info().Str("schedule", cfg.ExpirySchedule).Msg("expiry worker started")

	metricsApp := worker.NewMetricsApp()
	go func() {
		if err := metricsApp.Listen(cfg.WorkerMetricsAddress()); err != nil {
			logger.Error().Err(err).Msg("metrics listener stopped")
		}
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	scheduler.Stop(ctx)
	if err := metricsApp.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to stop metrics listener")
	}

	log.Println("worker stopped")
}
