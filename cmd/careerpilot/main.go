package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/goliatone/careerpilot"
	"github.com/goliatone/careerpilot/chat"
	"github.com/goliatone/careerpilot/mailer"
	"github.com/goliatone/careerpilot/stores/mongodb"
)

func main() {
	_ = godotenv.Load()

	cfg, err := careerpilot.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := careerpilot.NewLogger()

	store, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		log.Fatalf("mongodb: %v", err)
	}
	defer store.Close(context.Background())

	tokens, err := careerpilot.NewTokenService([]byte(cfg.SigningKey), cfg.TokenExpiration, "careerpilot", logger)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	accounts := careerpilot.NewAccountService(store.Users(), tokens).WithLogger(logger)

	opts := []careerpilot.HTTPControllerOption{
		careerpilot.WithHTTPLogger(logger),
	}

	var generator chat.Generator
	if cfg.GoogleAPIKey != "" {
		generator, err = chat.NewGeminiGenerator(ctx, cfg.GoogleAPIKey)
		if err != nil {
			logger.Error("chat provider unavailable, falling back to echo mode: %v", err)
			generator = nil
		}
	} else {
		logger.Info("GOOGLE_API_KEY not set, chat runs in echo mode")
	}
	opts = append(opts, careerpilot.WithChat(
		chat.NewService(generator, store.ChatLogs(), logger),
	))

	if cfg.MailerConfigured() {
		opts = append(opts, careerpilot.WithMailer(mailer.New(mailer.Config{
			Host:     cfg.EmailHost,
			Port:     cfg.EmailPort,
			Username: cfg.EmailUser,
			Password: cfg.EmailPass,
		}, logger)))
	} else {
		logger.Info("EMAIL_USER/EMAIL_PASS not set, contact form disabled")
	}

	controller := careerpilot.NewHTTPController(accounts, tokens, opts...)

	app := fiber.New(fiber.Config{
		AppName:      "careerpilot",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.ClientURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use("/api", limiter.New(limiter.Config{
		Max:        300,
		Expiration: 15 * time.Minute,
	}))
	app.Use("/api/auth", limiter.New(limiter.Config{
		Max:        30,
		Expiration: 15 * time.Minute,
	}))

	controller.RegisterRoutes(app)

	app.Static("/", "./public")

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown: %v", err)
	}
}
