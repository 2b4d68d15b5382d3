package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"slink-api/internal/cache"
	"slink-api/internal/config"
	"slink-api/internal/controllers"
	"slink-api/internal/database"
	"slink-api/internal/jwt"
	"slink-api/internal/logger"
	"slink-api/internal/middleware"
	"slink-api/internal/repository"
	"slink-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.Load()

	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database ready")

	// Redis is optional; continue without a cache if it is unavailable
	var cacheClient cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Warn("failed to connect to Redis, continuing without cache", zap.Error(err))
			cacheClient = nil
		} else {
			log.Info("connected to Redis cache")
		}
	}

	// Repositories
	urlRepo := repository.NewURLRepository(db)
	userRepo := repository.NewUserRepository(db)
	visitRepo := repository.NewVisitRepository(db)

	jwtService := jwt.NewJWTService(
		cfg.JWTSecret,
		time.Duration(cfg.JWTTTL)*time.Hour,
	)

	// Visit recording runs detached from the redirect path
	recorder := service.NewVisitRecorder(visitRepo, log, 0)

	metadataFetcher := service.NewMetadataFetcher(
		time.Duration(cfg.MetadataTimeout)*time.Second,
		log,
	)

	// Services
	urlService := service.NewURLService(urlRepo, visitRepo, cacheClient, recorder, metadataFetcher, log, cfg.BaseURL, cfg.IPHashSalt)
	authService := service.NewAuthService(userRepo, jwtService)
	userService := service.NewUserService(userRepo)

	// Controllers
	shortenerController := controllers.NewShortenerController(urlService, userRepo)
	authController := controllers.NewAuthController(authService)
	adminController := controllers.NewAdminController(urlService, userService)
	qrcodeController := controllers.NewQRCodeController(cfg.BaseURL)

	// Rate limiters
	generalRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	authRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitAuthRPS), cfg.RateLimitAuthBurst)
	shortenRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitShortenRPS), cfg.RateLimitShortenBurst)
	redirectRateLimiter := middleware.NewRateLimiter(30.0, 60) // more lenient for redirects

	router := gin.Default()
	router.Use(middleware.MetricsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Redirect endpoint
	router.GET("/:shortCode", redirectRateLimiter.LimitMiddleware(), shortenerController.RedirectToURL)

	api := router.Group("/api/v1")
	api.Use(generalRateLimiter.LimitMiddleware())
	{
		auth := api.Group("/auth")
		auth.Use(authRateLimiter.LimitMiddleware())
		{
			auth.POST("/register", authController.Register)
			auth.POST("/login", authController.Login)
		}

		// Protected routes - require JWT authentication
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtService))
		{
			protected.POST("/shorten", shortenRateLimiter.LimitMiddleware(), shortenerController.CreateShortURL)

			protected.GET("/urls", shortenerController.GetUserURLs)
			protected.GET("/urls/check-code", shortenerController.CheckCode)
			if cfg.EnableClaim {
				protected.POST("/urls/claim", shortenerController.ClaimURLs)
			}
			protected.GET("/url/:id", shortenerController.GetURL)
			protected.PATCH("/url/:id", shortenerController.UpdateURL)
			protected.DELETE("/url/:id", shortenerController.DeleteURL)
			protected.GET("/url/:id/analytics", shortenerController.GetAnalytics)

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminMiddleware(userRepo))
			{
				admin.GET("/urls", adminController.ListURLs)
				admin.GET("/users", adminController.ListUsers)
				admin.PATCH("/users/:id", adminController.UpdateUser)
				admin.DELETE("/users/:id", adminController.DeleteUser)
				admin.POST("/import", adminController.ImportURLs)
			}
		}

		api.GET("/qrcode/:shortCode", qrcodeController.GenerateQRCode)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	// Drain queued visits before the process exits
	recorder.Close()
}
