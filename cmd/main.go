package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"learnhub/internal/auth"
	"learnhub/internal/config"
	"learnhub/internal/database"
	"learnhub/internal/handlers"
	"learnhub/internal/jobs"
	"learnhub/internal/notify"
	"learnhub/internal/repository"
	"learnhub/internal/services"
	"learnhub/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// Redis leaderboard cache. The engine works without it; reads fall
	// back to the database.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cache := repository.NewLeaderboardCache(redisClient)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	cacheAvailable := cache.Ping(pingCtx) == nil
	pingCancel()
	if !cacheAvailable {
		log.Println("Redis unavailable, leaderboard reads will hit the database")
	}

	// Async audit-trail writer
	pool := worker.NewPool(4, 1024, db)
	pool.Start()

	// WebSocket change-signal hub
	hubCtx, hubCancel := context.WithCancel(context.Background())
	var hub *notify.Hub
	if cacheAvailable {
		hub = notify.NewHub(cache)
	} else {
		hub = notify.NewHub(nil)
	}
	go hub.Run(hubCtx)

	// Initialize services
	authService := services.NewAuthService(db)
	xpService := services.NewXPService(db, cfg.XP.DailyCap).
		WithActivityPool(pool).
		WithNotifier(hub)
	leaderboardService := services.NewLeaderboardService(db)
	if cacheAvailable {
		xpService.WithLeaderboardCache(cache)
		leaderboardService.WithCache(cache)
	}
	courseService := services.NewCourseService(db, xpService)
	bountyService := services.NewBountyService(db, xpService)
	socialService := services.NewSocialService(db, xpService, cfg.XP.ReactionXP)
	adminService := services.NewAdminService(db, xpService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.App.AuthMessage)
	userHandler := handlers.NewUserHandler(authService, xpService, cfg.XP.DailyLoginXP)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	courseHandler := handlers.NewCourseHandler(courseService)
	bountyHandler := handlers.NewBountyHandler(bountyService)
	socialHandler := handlers.NewSocialHandler(socialService)
	adminHandler := handlers.NewAdminHandler(adminService, courseService, bountyService, socialService)

	// Periodic leaderboard cache rebuild
	var refresher *jobs.SnapshotRefresher
	if cacheAvailable {
		refresher = jobs.NewSnapshotRefresher(leaderboardService, cache, cfg.XP.SnapshotRefresh)
		if err := refresher.Start(); err != nil {
			log.Fatalf("Failed to start snapshot refresher: %v", err)
		}
	}

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/wallet", authHandler.WalletLogin)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	// Public routes
	router.GET("/api/leaderboard", leaderboardHandler.GetLeaderboard)
	router.GET("/api/leaderboard/rank/:wallet", leaderboardHandler.GetRank)
	router.GET("/api/courses", courseHandler.ListCourses)
	router.GET("/api/courses/:id", courseHandler.GetCourse)
	router.GET("/api/bounties", bountyHandler.ListBounties)
	router.GET("/api/bounties/:id/submissions", bountyHandler.GetSubmissions)
	router.GET("/api/feed", socialHandler.GetFeed)
	router.GET("/api/posts/:id/reactions", socialHandler.GetReactions)

	// WebSocket change signals
	router.GET("/ws", func(c *gin.Context) {
		notify.ServeWS(hub, c.Writer, c.Request)
	})

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.GET("/profile", userHandler.GetProfile)
		api.PUT("/profile", userHandler.UpdateProfile)
		api.GET("/activities", userHandler.GetActivities)
		api.POST("/daily-claim", userHandler.DailyClaim)

		api.GET("/courses/completions", courseHandler.GetCompletions)
		api.POST("/courses/:id/complete", courseHandler.CompleteCourse)

		api.POST("/bounties/:id/submissions", bountyHandler.Submit)

		api.POST("/posts", socialHandler.CreatePost)
		api.POST("/posts/:id/reactions", socialHandler.React)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(adminHandler.AdminMiddleware())
	{
		admin.POST("/xp/grant", adminHandler.GrantXP)
		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/logs", adminHandler.GetLogs)

		admin.POST("/courses", adminHandler.CreateCourse)
		admin.POST("/bounties", adminHandler.CreateBounty)
		admin.POST("/bounties/:id/close", adminHandler.CloseBounty)
		admin.POST("/submissions/:id/review", adminHandler.ReviewSubmission)
		admin.DELETE("/posts/:id", adminHandler.HidePost)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)
		log.Printf("Wallet auth: POST http://localhost:%s/auth/wallet", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if refresher != nil {
		refresher.Stop()
	}
	hubCancel()
	if err := pool.Shutdown(5 * time.Second); err != nil {
		log.Printf("Activity pool shutdown: %v", err)
	}
	if cacheAvailable {
		if err := cache.Close(); err != nil {
			log.Printf("Redis close: %v", err)
		}
	}

	log.Println("Server exited")
}
