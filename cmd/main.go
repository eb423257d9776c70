package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"portfolio-analytics-api/internal/config"
	"portfolio-analytics-api/internal/controllers"
	"portfolio-analytics-api/internal/messaging"
	"portfolio-analytics-api/internal/middleware"
	mongorepo "portfolio-analytics-api/internal/repositories/mongo"
	"portfolio-analytics-api/internal/scheduler"
	"portfolio-analytics-api/internal/services"
	"portfolio-analytics-api/pkg/cache"
	"portfolio-analytics-api/pkg/database"
	"portfolio-analytics-api/pkg/logger"
	"portfolio-analytics-api/pkg/metrics"
)

// @title Portfolio Analytics API
// @version 1.0
// @description Portfolio financial health analytics service

// @host localhost:8085
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logger)
	log := logrus.WithField("service", "portfolio-analytics-api")

	log.Info("Starting Portfolio Analytics API service...")

	// Initialize database connection
	db, err := database.NewMongoDB(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer db.Disconnect()

	// Initialize Redis cache
	cacheClient, err := cache.NewRedisClient(cfg.Cache)
	if err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	defer cacheClient.Close()

	// Initialize repositories
	mongoDB := db.GetDatabase()
	portfolioRepo := mongorepo.NewPortfolioRepository(mongoDB)
	valuationRepo := mongorepo.NewValuationHistoryRepository(mongoDB)
	benchmarkRepo := mongorepo.NewBenchmarkHistoryRepository(mongoDB)
	analysisRepo := mongorepo.NewAnalysisRepository(mongoDB)

	// Initialize alert publisher
	var alertPublisher *messaging.AlertPublisher
	if cfg.RabbitMQ.Enabled {
		alertPublisher, err = messaging.NewAlertPublisher(
			cfg.GetRabbitMQURL(),
			cfg.RabbitMQ.AlertExchange,
			cfg.RabbitMQ.AlertRoutingKey,
			logrus.StandardLogger(),
		)
		if err != nil {
			log.Error("Failed to initialize alert publisher, alerts disabled: ", err)
		} else {
			defer alertPublisher.Close()
		}
	}

	// Initialize metrics
	m := metrics.New()

	// Initialize services
	var emitter services.AlertEmitter
	if alertPublisher != nil {
		emitter = alertPublisher
	}
	analysisService := services.NewAnalysisService(
		portfolioRepo,
		valuationRepo,
		benchmarkRepo,
		analysisRepo,
		cacheClient,
		emitter,
		m,
		cfg.Analytics,
		logrus.StandardLogger(),
	)

	// Initialize controllers
	analysisController := controllers.NewAnalysisController(analysisService, logrus.StandardLogger())
	healthController := controllers.NewHealthController(db, cacheClient)

	// Initialize scheduler
	cronScheduler, err := scheduler.NewScheduler(analysisService, cfg.Scheduler, logrus.StandardLogger())
	if err != nil {
		log.Fatal("Failed to initialize scheduler: ", err)
	}
	if err := cronScheduler.Start(); err != nil {
		log.Fatal("Failed to start scheduler: ", err)
	}

	// Setup HTTP server
	router := setupRouter(cfg, m, analysisController, healthController)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: ", err)
	}

	cronScheduler.Stop()

	log.Info("Server exited")
}

func setupRouter(cfg *config.Config,
	m *metrics.Metrics,
	analysisController *controllers.AnalysisController,
	healthController *controllers.HealthController) *gin.Engine {

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logrus.StandardLogger()))
	router.Use(middleware.Metrics(m))

	// Rate limiting
	if cfg.RateLimit.Enabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
		router.Use(rateLimiter.RateLimit())
	}

	// Health and metrics endpoints
	router.GET("/health", healthController.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	auth := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret, cfg.Auth.RequireAuth)

	api := router.Group("/api")
	api.Use(auth.ValidateToken())

	admin := api.Group("/admin")
	admin.Use(auth.AdminOnly())

	analysisController.RegisterRoutes(api, admin)

	return router
}
