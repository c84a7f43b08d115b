package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/nucleushq/nucleus/internal/analysis"
	"github.com/nucleushq/nucleus/internal/config"
	"github.com/nucleushq/nucleus/internal/domain/fiber/handler"
	"github.com/nucleushq/nucleus/internal/middleware"
	"github.com/nucleushq/nucleus/internal/model"
	"github.com/nucleushq/nucleus/internal/repository"
	"github.com/nucleushq/nucleus/internal/service"
	"github.com/nucleushq/nucleus/internal/usecase"
	"github.com/nucleushq/nucleus/internal/worker"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	config.InitLogger()

	loc, err := time.LoadLocation(appConfig.Timezone)
	if err != nil {
		logrus.Fatalf("invalid APP_TIMEZONE %q: %v", appConfig.Timezone, err)
	}

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: appConfig.Env != "production",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.Env != "production"
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	db := ConnectDB()

	ideaRepo := repository.NewIdeaRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)

	provider, embedder := buildLLM()
	analyzer := analysis.NewAnalyzer(provider)

	uc := usecase.NewIdeaUsecase(ideaRepo, quotaRepo, analyzer, embedder, loc, appConfig.DailyIdeaLimit)

	auth := middleware.NewAuthenticator()
	ideaHandler := handler.NewIdeaHandler(uc, auth)
	ideaHandler.RegisterRoutes(app)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.New(uc, appConfig.WorkerConcurrency, appConfig.WorkerPollInterval)
	go w.Run(ctx)

	go func() {
		<-ctx.Done()
		logrus.Info("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	logrus.Infof("Server running on %s", appConfig.Port)
	if err := app.Listen(appConfig.Port); err != nil {
		logrus.Fatal(err)
	}
}

// buildLLM picks the completion provider from LLM_PROVIDER and wires the
// Gemini embedder when a key is available, regardless of provider.
func buildLLM() (analysis.Provider, usecase.Embedder) {
	ctx := context.Background()

	var gemini *service.GeminiService
	if config.LoadGeminiConfig().APIKey != "" {
		var err error
		gemini, err = service.NewGeminiService(ctx)
		if err != nil {
			logrus.Fatalf("gemini init: %v", err)
		}
	}

	var provider analysis.Provider
	switch config.LoadLLMConfig().Provider {
	case "gemini":
		if gemini == nil {
			logrus.Fatal("LLM_PROVIDER=gemini but GEMINI_API_KEY not set")
		}
		provider = gemini
	default:
		provider = service.NewOpenRouterService()
	}

	// A nil *GeminiService must not become a non-nil interface.
	if gemini == nil {
		return provider, nil
	}
	return provider, gemini
}

func ConnectDB() *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		dbConfig.Host,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Name,
		dbConfig.Port,
		dbConfig.SSLMode,
		appConfig.Timezone,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("Could not connect to database: %v", err)
	}
	pgDB, err := db.DB()
	if err != nil {
		logrus.Fatalf("Could not get database instance: %v", err)
	}
	if appConfig.Env != "production" {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	// Embedding vectors need pgvector.
	db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`)

	if err := db.AutoMigrate(&model.Idea{}, &model.SubmissionQuota{}); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	return db
}
