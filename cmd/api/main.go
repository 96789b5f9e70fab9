package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sidupak-api/internal/config"
	"github.com/noah-isme/sidupak-api/internal/credit"
	"github.com/noah-isme/sidupak-api/internal/database"
	"github.com/noah-isme/sidupak-api/internal/handler"
	"github.com/noah-isme/sidupak-api/internal/middleware"
	"github.com/noah-isme/sidupak-api/internal/models"
	"github.com/noah-isme/sidupak-api/internal/repository"
	"github.com/noah-isme/sidupak-api/internal/router"
	"github.com/noah-isme/sidupak-api/internal/service"
	"github.com/noah-isme/sidupak-api/internal/storage"
)

const (
	activityEvidenceDir  = "pelaksanaan-pendidikan"
	educationEvidenceDir = "pendidikan"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL, cfg.DatabasePool)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Faculty{}, &models.Department{}, &models.Semester{}, &models.Lecturer{}, &models.Submission{}, &models.AuditLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set, credit summaries are not cached")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	activityStore, educationStore, err := evidenceStores(cfg)
	if err != nil {
		log.Fatalf("failed to prepare evidence storage: %v", err)
	}

	registry, err := credit.NewRegistry()
	if err != nil {
		log.Fatalf("failed to build category registry: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)
	lecturerRepo := repository.NewLecturerRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	auditService := service.NewAuditService(auditRepo, validate, logger)
	summaryService := service.NewCreditSummaryService(submissionRepo, redisClient, cfg.SummaryCacheTTL, logger)
	publisher := service.NewNATSEventPublisher(natsConn, cfg.NATSSubject, logger)

	newSubmissionService := func(family string, rules credit.Validator, store storage.EvidenceStore) service.SubmissionService {
		return service.NewSubmissionService(service.SubmissionDependencies{
			Family:      family,
			Rules:       rules,
			Store:       store,
			Submissions: submissionRepo,
			Lecturers:   lecturerRepo,
			References:  referenceRepo,
			Audit:       auditService,
			Events:      publisher,
			Summary:     summaryService,
			Validator:   validate,
		}, logger)
	}

	activityService := newSubmissionService(models.FamilyActivity, registry, activityStore)
	educationService := newSubmissionService(models.FamilyEducation, credit.NewEducationValidator(), educationStore)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.UploadMaxBytes) + 1<<20,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler:  handler.NewSubmissionHandler(activityService, cfg.UploadMaxBytes, logger),
		EducationHandler: handler.NewSubmissionHandler(educationService, cfg.UploadMaxBytes, logger),
		SummaryHandler:   handler.NewCreditSummaryHandler(summaryService, logger),
		AuditHandler:     handler.NewAuditHandler(auditService, logger),
		JWTMiddleware:    middleware.JWTProtected(cfg.JWTSecret),
		UploadLimiter:    middleware.RateLimit("evidence-upload", cfg.UploadRateLimit, time.Minute),
		HealthProbes:     healthProbes(db, redisClient, natsConn, activityStore),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func evidenceStores(cfg config.Config) (storage.EvidenceStore, storage.EvidenceStore, error) {
	if cfg.StorageDriver == config.StorageDriverMinio {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := storage.NewMinioClient(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
		})
		if err != nil {
			return nil, nil, err
		}
		return storage.NewMinioStore(client, cfg.MinioBucket, activityEvidenceDir),
			storage.NewMinioStore(client, cfg.MinioBucket, educationEvidenceDir), nil
	}

	activity, err := storage.NewOSStore(filepath.Join(cfg.UploadDir, activityEvidenceDir))
	if err != nil {
		return nil, nil, err
	}
	education, err := storage.NewOSStore(filepath.Join(cfg.UploadDir, educationEvidenceDir))
	if err != nil {
		return nil, nil, err
	}
	return activity, education, nil
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn, store storage.EvidenceStore) []handler.HealthProbe {
	probes := []handler.HealthProbe{{
		Name: "database",
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}

	if redisClient != nil {
		probes = append(probes, handler.HealthProbe{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	if natsConn != nil {
		probes = append(probes, handler.HealthProbe{
			Name: "nats",
			Check: func(context.Context) error {
				if !natsConn.IsConnected() {
					return nats.ErrConnectionClosed
				}
				return nil
			},
		})
	}
	if checker, ok := store.(storage.ReadinessChecker); ok {
		probes = append(probes, handler.HealthProbe{Name: "storage", Check: checker.Ready})
	}

	return probes
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
