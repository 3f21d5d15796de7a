package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/helioshop/concierge-backend/database"
	"github.com/helioshop/concierge-backend/internal/config"
	"github.com/helioshop/concierge-backend/internal/handlers"
	"github.com/helioshop/concierge-backend/internal/jobs"
	"github.com/helioshop/concierge-backend/internal/models"
	"github.com/helioshop/concierge-backend/internal/routes"
	"github.com/helioshop/concierge-backend/internal/services"
	"github.com/helioshop/concierge-backend/internal/storage"
)

func main() {
	// .env is for local development; deployed environments inject real
	// environment variables.
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration: ", err)
	}

	store, err := buildStore(cfg)
	if err != nil {
		log.Fatal("failed to initialize session store: ", err)
	}

	var transport services.Transport
	twilioService, err := services.NewTwilioService(cfg.Twilio)
	if err != nil {
		log.Printf("Twilio not configured (%v) - responses will be logged only", err)
	} else {
		transport = twilioService
		log.Println("Twilio transport initialized")
	}

	engine := services.NewEngine(services.DefaultCatalog())
	router := services.NewDialogueRouter(store, engine)
	whatsapp := handlers.NewWhatsAppHandler(router, transport)

	sweeper := jobs.NewSessionSweeper(store, cfg.SweepEvery)
	sweeper.Start()

	app := fiber.New(fiber.Config{
		AppName: "Concierge Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	routes.SetupRoutes(app, cfg, store, whatsapp)

	// Graceful shutdown.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Println("shutting down...")
		sweeper.Stop()
		_ = app.Shutdown()
	}()

	log.Printf("concierge backend starting on port %s", cfg.Port)
	log.Printf("session store: %s (TTL %v)", cfg.SessionStore, cfg.SessionTTL)
	log.Printf("environment: %s", cfg.Environment)

	log.Fatal(app.Listen(":" + cfg.Port))
}

// buildStore selects the session persistence backend.
func buildStore(cfg *config.Config) (storage.SessionStore, error) {
	switch cfg.SessionStore {
	case "postgres":
		db, err := database.ConnectPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&models.SessionRecord{}); err != nil {
			return nil, err
		}
		log.Println("using PostgreSQL session storage")
		return storage.NewDatabaseStore(db, cfg.SessionTTL), nil

	case "sqlite":
		db, err := database.ConnectSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&models.SessionRecord{}); err != nil {
			return nil, err
		}
		log.Println("using SQLite session storage")
		return storage.NewDatabaseStore(db, cfg.SessionTTL), nil

	default:
		log.Println("using in-memory session storage (single instance only)")
		return storage.NewMemoryStore(cfg.SessionTTL), nil
	}
}
