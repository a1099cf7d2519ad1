package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholarship-api/internal/config"
	"github.com/noah-isme/scholarship-api/internal/database"
	"github.com/noah-isme/scholarship-api/internal/events"
	"github.com/noah-isme/scholarship-api/internal/handler"
	"github.com/noah-isme/scholarship-api/internal/middleware"
	"github.com/noah-isme/scholarship-api/internal/observability"
	"github.com/noah-isme/scholarship-api/internal/repository"
	"github.com/noah-isme/scholarship-api/internal/router"
	"github.com/noah-isme/scholarship-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName+" api")
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	publisher := events.NewBrokerPublisher(redisClient, natsConn, cfg.EventsChannel, logger)

	studentRepo := repository.NewStudentRepository(db)
	scholarshipRepo := repository.NewScholarshipRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	disbursementRepo := repository.NewDisbursementRepository(db)

	applicationService := service.NewApplicationService(applicationRepo, scholarshipRepo, studentRepo, publisher, validate, logger)
	disbursementService := service.NewDisbursementService(disbursementRepo, applicationRepo, validate, logger)
	matchingService := service.NewMatchingService(studentRepo, scholarshipRepo, redisClient, service.MatchingConfig{
		CacheTTL: cfg.RecommendationCacheTTL,
		Limit:    cfg.RecommendationLimit,
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ApplicationHandler:  handler.NewApplicationHandler(applicationService, logger),
		MatchingHandler:     handler.NewMatchingHandler(matchingService, logger),
		AdminHandler:        handler.NewAdminHandler(applicationService, logger),
		DisbursementHandler: handler.NewDisbursementHandler(disbursementService, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
