package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"camp-study-system/handlers"
	"camp-study-system/middleware"
	"camp-study-system/models"
	"camp-study-system/services"
	"camp-study-system/utils"
	"camp-study-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // cover photos only, nothing bigger
	})

	// Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Camp{},
		&models.Cohort{},
		&models.Enrollment{},
		&models.EnrollmentSettings{},
		&models.CampReferral{},
		&models.BadgeType{},
		&models.UserBadge{},
		&models.CampSupervisor{},
		&models.FriendRequest{},
		&models.TaskProgress{},
		&models.CampNotification{},
		&models.NotificationStats{},
		&models.CampUser{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	resolver := services.NewCohortResolver(db)
	badgeService := services.NewBadgeService(db)
	referralService := services.NewReferralService(db, badgeService)
	leaderboardCache := services.NewMemoryLeaderboardCache(5 * time.Minute)

	if err := badgeService.EnsureBadgeCatalog(); err != nil {
		log.Fatal("failed to seed badge catalog:", err)
	}

	notifier := services.NewNotificationServiceClient(
		os.Getenv("NOTIFICATION_SERVICE_URL"),
		os.Getenv("CAMP_SERVICE_TOKEN"),
	)
	mailer := services.NewSendgridMailer()

	enrollmentService := services.NewEnrollmentService(db, resolver, referralService, badgeService, notifier, mailer, leaderboardCache)
	membershipService := services.NewMembershipService(db, resolver, leaderboardCache)
	campService := services.NewCampService(db, resolver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Background workers ---
	profileServiceURL := os.Getenv("PROFILE_SERVICE_URL")
	campServiceToken := os.Getenv("CAMP_SERVICE_TOKEN")
	if profileServiceURL == "" {
		log.Println("PROFILE_SERVICE_URL not set — profile sync worker disabled")
	} else {
		syncWorker := workers.NewProfileSyncWorker(db, profileServiceURL, "/api/v1/public/profiles", campServiceToken)
		syncWorker.Start(ctx)
	}

	leaderboardWorker := workers.NewLeaderboardWorker(db, leaderboardCache)
	go leaderboardWorker.PollLeaderboards(ctx, 2*time.Minute)

	campService.StartCohortScheduler()

	handlers.SetupCampRoutes(app, campService)
	handlers.SetupEnrollmentRoutes(app, enrollmentService, referralService, membershipService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("Server running on http://localhost:5300")
	log.Println("Cohort scheduler running")
	log.Println("GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
