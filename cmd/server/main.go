package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	config "github.com/maheshrc27/composeflow/configs"
	"github.com/maheshrc27/composeflow/internal/api/handlers"
	"github.com/maheshrc27/composeflow/internal/api/middleware"
	job "github.com/maheshrc27/composeflow/internal/jobs"
	"github.com/maheshrc27/composeflow/internal/queue"
	"github.com/maheshrc27/composeflow/internal/repository"
	"github.com/maheshrc27/composeflow/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	asynqClient := asynq.NewClient(redisConn)
	defer asynqClient.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	sessionRepo := repository.NewSessionRepository(rdb, cfg.SecretKey, time.Duration(cfg.SessionTTLMinutes)*time.Minute)

	contentClient := service.NewContentClient(*cfg)
	sessionService := service.NewSessionService(*cfg, sessionRepo)

	var uploader service.MediaUploader
	if cfg.UploadBackend == "r2" {
		uploader = service.NewR2Service(*cfg)
	} else {
		uploader = service.NewRemoteUploader(contentClient, cfg.UploadEndpoint)
	}

	composerService := service.NewComposerService(uploader)
	scheduler := queue.NewScheduler(asynqClient, cfg.SecretKey)
	publishService := service.NewPublishService(contentClient, scheduler, func(sessionID, label string) {
		slog.Info("publish progress", "session", sessionID, "label", label)
	})
	previewService := service.NewPreviewService()

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg, sessionService, composerService)
	app.Post("/login", auth.Login)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())
	app.Post("/logout", authMiddleware.AuthMiddleware(), auth.Logout)

	account := handlers.NewAccountHandler(sessionService, contentClient)
	api.Get("/accounts", account.ListAccounts)

	composer := handlers.NewComposerHandler(sessionService, composerService, publishService, previewService)
	api.Get("/composer", composer.GetDraft)
	api.Post("/composer/draft", composer.UpdateDraft)
	api.Post("/composer/accounts", composer.ToggleAccount)
	api.Post("/composer/media", composer.UploadMedia)
	api.Delete("/composer/media", composer.RemoveMedia)
	api.Post("/composer/media/primary", composer.SelectPrimary)
	api.Post("/composer/media/edited", composer.MarkEdited)
	api.Get("/composer/preview", composer.Preview)
	api.Get("/composer/mentions", composer.Suggestions)
	api.Post("/composer/mentions", composer.ApplyMention)
	api.Post("/composer/publish", composer.PublishNow)
	api.Post("/composer/draft/save", composer.SaveDraft)
	api.Post("/composer/schedule", composer.Schedule)
	api.Get("/composer/result", composer.Result)

	// cron jobs
	sweeperJob := job.NewSessionSweeperJob(composerService, time.Duration(cfg.DraftIdleMinutes)*time.Minute)

	// queue
	queueW := queue.NewQueue(contentClient, cfg.SecretKey)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", sweeperJob.SweepSessions)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app)
}

func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	log.Println("Server shutdown complete.")
}
