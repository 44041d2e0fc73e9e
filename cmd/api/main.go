package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Philip-857-bit/feedback/internal/auth"
	"github.com/Philip-857-bit/feedback/internal/config"
	"github.com/Philip-857-bit/feedback/internal/database"
	"github.com/Philip-857-bit/feedback/internal/handler"
	"github.com/Philip-857-bit/feedback/internal/middleware"
	"github.com/Philip-857-bit/feedback/internal/repository"
	"github.com/Philip-857-bit/feedback/internal/service"
	"github.com/Philip-857-bit/feedback/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Initialize MinIO client
	minioClient, err := storage.NewMinIOClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}

	// Initialize session service
	sessionService := auth.NewSessionService(cfg)

	// Initialize repositories and services
	feedbackRepo := repository.NewFeedbackRepository(db)

	var mailer service.Mailer
	if cfg.SMTP.Host != "" {
		mailer = service.NewSMTPMailer(cfg)
	} else {
		log.Println("SMTP not configured; confirmation mail disabled")
	}

	feedbackService := service.NewFeedbackService(feedbackRepo, minioClient, mailer, cfg.Upload.FailOpen)

	// Initialize handlers
	feedbackHandler := handler.NewFeedbackHandler(feedbackService, feedbackRepo, cfg)
	authHandler := handler.NewAuthHandler(sessionService, cfg)

	// Initialize session middleware
	sessionMiddleware := middleware.NewSessionMiddleware(sessionService)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.Upload.MaxPhotoSize) * 6, // form fields + a handful of photos
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"error": fiber.Map{
					"code":    "INTERNAL_ERROR",
					"message": err.Error(),
				},
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORS.Origins, ","),
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: true,
	}))

	// API v1 routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public submission
	api.Post("/feedback", feedbackHandler.Submit)

	// Auth routes
	authRoutes := api.Group("/auth")
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Get("/me", sessionMiddleware.Required(), authHandler.Me)

	// Admin routes
	adminRoutes := api.Group("/admin", sessionMiddleware.Required())
	adminRoutes.Get("/feedback", feedbackHandler.AdminList)
	adminRoutes.Get("/feedback/stats", feedbackHandler.AdminStats)
	adminRoutes.Get("/feedback/export", feedbackHandler.AdminExport)
	adminRoutes.Get("/feedback/:id", feedbackHandler.AdminGet)
	adminRoutes.Delete("/feedback/:id", feedbackHandler.AdminDelete)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
