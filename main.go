package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"wrestling-universe-tracker/handlers"
	"wrestling-universe-tracker/models"
	"wrestling-universe-tracker/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // CSV imports
	})

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Requested-With, X-Request-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Wrestler{},
		&models.TagTeam{},
		&models.TagTeamMember{},
		&models.Match{},
		&models.MatchParticipant{},
		&models.Championship{},
		&models.HighlightLabel{},
		&models.HighlightRecord{},
		&models.RecomputeWatermark{},
		&models.TitleReign{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	rosterService := services.NewRosterService(db)
	matchService := services.NewMatchService(db)
	importService := services.NewImportService(db)
	highlightService := services.NewHighlightService(db)

	// Championship config and the label vocabulary it implies
	if err := highlightService.SeedChampionships(); err != nil {
		log.Fatal("failed to seed championships:", err)
	}

	interval := 5 * time.Minute
	if raw := os.Getenv("RECOMPUTE_INTERVAL_MINUTES"); raw != "" {
		if mins, err := strconv.Atoi(raw); err == nil && mins > 0 {
			interval = time.Duration(mins) * time.Minute
		} else {
			log.Printf("⚠️  Invalid RECOMPUTE_INTERVAL_MINUTES %q, using default 5", raw)
		}
	}
	highlightService.StartRecomputeScheduler(interval)

	handlers.SetupRosterRoutes(app, rosterService)
	handlers.SetupMatchRoutes(app, matchService, importService)
	handlers.SetupHighlightRoutes(app, highlightService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Printf("✅ Highlight recompute scheduler running (every %s)", interval)
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
