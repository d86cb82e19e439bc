package main

import (
	"log"

	"gst-invoicing-backend/config"
	"gst-invoicing-backend/controllers"
	"gst-invoicing-backend/database"
	"gst-invoicing-backend/logger"
	"gst-invoicing-backend/middlewares"
	"gst-invoicing-backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger.Set(zl)

	if err := middlewares.SetJWTSecret(cfg.JWTSecret); err != nil {
		zl.Fatal("auth", zap.Error(err))
	}
	controllers.Configure(cfg)

	// ---- Database (public)
	if err := database.Connect(cfg); err != nil {
		zl.Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(); err != nil {
		zl.Fatal("migrate", zap.Error(err))
	}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    cfg.BodyLimitBytes,
	})
	app.Use(middlewares.RequestLogger())

	// ---- CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))

	// ---- Global rate limiter (client IP keyed)
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
	}))

	routes.Register(app)

	zl.Info("API server starting", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zl.Fatal("listen", zap.Error(err))
	}
}
