package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/auth"
	"github.com/noah-isme/art-exam-api/internal/config"
	"github.com/noah-isme/art-exam-api/internal/database"
	"github.com/noah-isme/art-exam-api/internal/handler"
	"github.com/noah-isme/art-exam-api/internal/middleware"
	"github.com/noah-isme/art-exam-api/internal/repository"
	"github.com/noah-isme/art-exam-api/internal/router"
	"github.com/noah-isme/art-exam-api/internal/service"
	cloud "github.com/noah-isme/art-exam-api/pkg/cloudinary"
	"github.com/noah-isme/art-exam-api/pkg/events"
	"github.com/noah-isme/art-exam-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	ctx := context.Background()

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, exam catalog cache disabled")
	}

	var publisher service.EventPublisher
	natsPublisher, err := events.Connect(cfg.NATSURL, cfg.EventSubjectPrefix, logger)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsPublisher != nil {
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	fileStore, err := newFileStore(cfg, logger)
	if err != nil {
		log.Fatalf("failed to configure file storage: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	accessSigner := auth.NewSigner(cfg.JWTSecret, cfg.AccessTokenTTL, auth.TokenTypeAccess)
	refreshSigner := auth.NewSigner(cfg.JWTRefreshSecret, cfg.RefreshTokenTTL, auth.TokenTypeRefresh)

	userRepo := repository.NewUserRepository(db)
	collegeRepo := repository.NewCollegeRepository(db)
	examItemRepo := repository.NewExamItemRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	adminStudentRepo := repository.NewAdminStudentRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	resultsRepo := repository.NewResultsRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	activityService := service.NewActivityService(activityRepo, validate, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, natsPublisher.Conn(), natsPublisher.Subject("notifications"), validate, logger)
	authService := service.NewAuthService(userRepo, accessSigner, refreshSigner, validate, logger)
	uploadService := service.NewUploadService(fileStore, cfg.UploadMaxSizeMB, logger)
	resultsService := service.NewResultsService(studentRepo, resultsRepo, publisher, notificationService, logger)
	catalogService := service.NewExamCatalogService(examItemRepo, studentRepo, collegeRepo, redisClient, cfg.CatalogCacheTTL, validate, activityService, logger)
	collegeService := service.NewCollegeService(collegeRepo, catalogService, validate, activityService, logger)
	studentService := service.NewStudentService(studentRepo, collegeRepo, resultsService, uploadService, validate, publisher, cfg.PhotoMaxDimension, logger)
	answerService := service.NewAnswerService(studentRepo, examItemRepo, answerRepo, uploadService, validate, publisher, logger)
	adminStudentService := service.NewAdminStudentService(adminStudentRepo, userRepo, resultsService, validate, activityService, publisher, notificationService, logger)
	gradingService := service.NewAdminGradingService(answerRepo, validate, activityService, publisher, logger)
	exportService := service.NewExportService(adminStudentRepo, resultsService, activityService, logger)
	seedService := service.NewSeedService(collegeRepo, catalogService, validate, cfg.SeedEnabled, cfg.SeedToken, logger)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("failed to provision admin account: %v", err)
		}
	}

	streamCtx, stopStreams := context.WithCancel(ctx)
	defer stopStreams()
	notificationService.Start(streamCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLogging: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		HealthHandler:       handler.NewHealthHandler(cfg, healthChecks(db, redisClient, natsPublisher), logger),
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		CollegeHandler:      handler.NewCollegeHandler(collegeService, logger),
		ExamHandler:         handler.NewExamHandler(catalogService, logger),
		StudentHandler:      handler.NewStudentHandler(studentService, resultsService, logger),
		AnswerHandler:       handler.NewAnswerHandler(answerService, logger),
		AdminStudentHandler: handler.NewAdminStudentHandler(adminStudentService, logger),
		AdminGradingHandler: handler.NewAdminGradingHandler(gradingService, logger),
		AdminActivity:       handler.NewAdminActivityHandler(activityService, logger),
		AdminExportHandler:  handler.NewAdminExportHandler(exportService, logger),
		SeedHandler:         handler.NewSeedHandler(seedService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
		JWTMiddleware:       middleware.JWTProtected(accessSigner),
		SubmitLimiter:       middleware.RateLimit("answers", cfg.SubmitRateLimit, cfg.SubmitRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func healthChecks(db *gorm.DB, redisClient *redis.Client, natsPublisher *events.Publisher) map[string]handler.HealthCheckFunc {
	checks := map[string]handler.HealthCheckFunc{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if conn := natsPublisher.Conn(); conn != nil {
		checks["nats"] = func(context.Context) error {
			if !conn.IsConnected() {
				return fmt.Errorf("nats connection %s", conn.Status())
			}
			return nil
		}
	}
	return checks
}

func newFileStore(cfg config.Config, logger zerolog.Logger) (service.FileStore, error) {
	if cfg.StorageDriver == config.StorageDriverCloudinary {
		return cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
	}
	return storage.NewLocal(cfg.MediaRoot)
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
