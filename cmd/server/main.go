// Command server runs the wellbeing backend HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	bookingapi "github.com/amanihq/wellbeing-backend/internal/api/booking"
	checkinapi "github.com/amanihq/wellbeing-backend/internal/api/checkin"
	"github.com/amanihq/wellbeing-backend/internal/cache"
	"github.com/amanihq/wellbeing-backend/internal/calendar"
	"github.com/amanihq/wellbeing-backend/internal/config"
	"github.com/amanihq/wellbeing-backend/internal/notify"
	"github.com/amanihq/wellbeing-backend/internal/repository"
	bookingsvc "github.com/amanihq/wellbeing-backend/internal/service/booking"
	"github.com/amanihq/wellbeing-backend/internal/service/rewards"
	"github.com/amanihq/wellbeing-backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.Get()

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	redisCache, err := cache.NewRedisCache(&cfg.Database.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisCache.Close()

	// Repositories
	achievementRepo := repository.NewAchievementRepository(db)
	checkInRepo := repository.NewCheckInRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	therapistRepo := repository.NewTherapistRepository(db)
	userRepo := repository.NewUserRepository(db)

	// External collaborators
	availability := calendar.NewCachedChecker(
		calendar.NewClient(&cfg.Calendar, log),
		redisCache,
		time.Duration(cfg.Calendar.CacheTTL)*time.Second,
		log,
	)
	smsClient := notify.NewSMSClient(&cfg.Notifications.SMS, log)
	pushClient := notify.NewPushClient(&cfg.Notifications.Push, log)

	// Core services
	levels, err := rewards.NewLevelTableFromConfig(&cfg.Rewards)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid level table configuration")
	}
	ledger := rewards.NewLedger(time.Duration(cfg.Rewards.StreakWindowHours) * time.Hour)
	rewardService := rewards.NewService(achievementRepo, ledger, levels, pushClient, log)
	bookingService := bookingsvc.NewService(sessionRepo, therapistRepo, userRepo, availability, smsClient, log)

	// HTTP API
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := router.Group("/api/v1")
	checkinapi.NewHandler(rewardService, checkInRepo, cfg.Rewards.CheckInGems, log).RegisterRoutes(v1)
	bookingapi.NewHandler(bookingService, log).RegisterRoutes(v1)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
}
