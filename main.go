package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"gametracker/internal/handlers"
	"gametracker/internal/middleware"
	"gametracker/internal/models"
	"gametracker/internal/repositories"
	"gametracker/internal/services"
	"gametracker/pkg/rabbitmq"
)

// loadConfig sets up Viper defaults; every key can be overridden through the
// environment.
func loadConfig() {
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=gametracker port=5432 sslmode=disable")
	viper.SetDefault("JWT_SECRET", "dev_secret_change_me")
	viper.SetDefault("RABBITMQ_URL", "") // empty disables event publishing
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.AutomaticEnv() // Load environment variables
}

// openDatabase connects GORM with the configured driver. SQLite exists for
// tests and quick local runs; production uses PostgreSQL.
func openDatabase() (*gorm.DB, error) {
	dsn := viper.GetString("DATABASE_DSN")
	if viper.GetString("DATABASE_DRIVER") == "sqlite" {
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// rateLimitExceeded is the shared 429 response body.
func rateLimitExceeded(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error": "Too many requests, please try again later",
	})
}

// NewApp wires the whole application: config, database, repositories,
// services, handlers, and middleware. It returns the Fiber app ready to
// listen, plus the RabbitMQ client (nil when events are disabled).
func NewApp() (*fiber.App, *rabbitmq.Client, error) {
	loadConfig()

	db, err := openDatabase()
	if err != nil {
		return nil, nil, err
	}
	if err := db.AutoMigrate(&models.Game{}, &models.User{}); err != nil {
		return nil, nil, err
	}

	uploadDir := viper.GetString("UPLOAD_DIR")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, nil, err
	}

	// Game events are best effort: a missing or unreachable broker must not
	// keep the API from serving.
	var mqClient *rabbitmq.Client
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: url})
		if err != nil {
			log.Printf("Warning: RabbitMQ unavailable, game events disabled: %v", err)
			mqClient = nil
		}
	}

	// --- Repositories ---
	gameRepo := repositories.NewGORMGameRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	// --- Services ---
	gameService := services.NewGameService(gameRepo, mqClient)
	authService := services.NewAuthService(userRepo, viper.GetString("JWT_SECRET"))

	// --- Handlers ---
	gameHandler := handlers.NewGameHandler(gameService, uploadDir)
	publicHandler := handlers.NewPublicGameHandler(gameService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()

	// --- Middleware ---
	app.Use(logger.New()) // Request logger
	app.Use(cors.New())
	app.Use(limiter.New(limiter.Config{
		Max:          100,
		Expiration:   15 * time.Minute,
		LimitReached: rateLimitExceeded,
	}))
	authRateLimit := limiter.New(limiter.Config{
		Max:          5,
		Expiration:   15 * time.Minute,
		LimitReached: rateLimitExceeded,
	})

	// --- Routes ---
	// Public game routes use three-segment paths, so they never collide
	// with /games/:id; auth routes carry the stricter limiter.
	publicHandler.RegisterRoutes(app)
	gameHandler.RegisterRoutes(app, middleware.AuthRequired(authService))
	authHandler.RegisterRoutes(app, authRateLimit)

	// Uploaded cover images are served straight from disk.
	app.Static("/uploads", uploadDir)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app, mqClient, nil
}

func main() {
	app, mqClient, err := NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	if mqClient != nil {
		defer mqClient.Close()

		// Log-only consumer so the queue is drained even with no external
		// consumer attached.
		go func() {
			log.Println("Starting RabbitMQ consumer for game events...")
			err := mqClient.ConsumeGameEvents(func(msg amqp.Delivery) error {
				log.Printf("Received game event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil // Return nil to acknowledge
			})
			if err != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", err)
			}
		}()
	}

	appPort := viper.GetString("APP_PORT")
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
