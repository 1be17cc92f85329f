// @title           BackSnap Backend API
// @version         1.0.0
// @description     Backend API for BackSnap background removal. Handles sign-in via Supabase Auth, image uploads, Clipdrop background removal, per-user image history, and a 20-requests-per-day quota.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"backsnap-backend/internal/clipdrop"
	"backsnap-backend/internal/config"
	"backsnap-backend/internal/database"
	"backsnap-backend/internal/handlers"
	"backsnap-backend/internal/middleware"
	"backsnap-backend/internal/pipeline"
	"backsnap-backend/internal/quota"
	"backsnap-backend/internal/records"
	"backsnap-backend/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Clipdrop client
	clipdropClient := clipdrop.NewClient(cfg.ClipdropAPIBaseURL, cfg.ClipdropAPIKey)

	// Supabase clients
	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}

	authClient := supabase.NewAuthClient(supabaseClient)

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.OriginalsBucket, cfg.ProcessedBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	// Database client for direct queries
	var dbClient *supabase.DatabaseClient
	if cfg.DatabaseURL != "" {
		dbClient, err = supabase.NewDatabaseClient(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize database client: %v", err)
		}
		defer dbClient.Close()

		migrator, err := database.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: Failed to initialize migrator: %v", err)
		} else {
			defer migrator.Close()
			if err := migrator.Run(); err != nil {
				log.Printf("Warning: Migration failed: %v", err)
			} else {
				log.Println("Migrations completed successfully")
			}
		}
	} else {
		log.Fatal("DATABASE_URL is required: image records and the authoritative quota live in Postgres")
	}

	// Quota store: the database row is authoritative. The optional Redis
	// cache only serves the read endpoint.
	var quotaStore quota.Store = quota.NewPostgresStore(dbClient, cfg.DailyRequestLimit)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		quotaStore = quota.NewCachedStore(quotaStore, rdb)
	}

	recordStore := records.NewStore(storageClient, dbClient)

	processingPipeline := pipeline.New(quotaStore, recordStore, clipdropClient, cfg.MaxUploadBytes, cfg.MaxMegapixels)

	// Handlers
	authHandler := handlers.NewAuthHandler(authClient)
	quotaHandler := handlers.NewQuotaHandler(quotaStore)
	imagesHandler := handlers.NewImagesHandler(processingPipeline, recordStore, realtimeClient, cfg.MaxUploadBytes)

	// Setup router
	router := gin.Default()

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// Auth routes (no auth middleware; they establish the session)
	auth := router.Group("/api/v1/auth")
	auth.POST("/signup", authHandler.SignUp)
	auth.POST("/signin", authHandler.SignIn)
	auth.POST("/signin/oauth", authHandler.SignInWithOAuth)
	auth.POST("/signout", authHandler.SignOut)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	api.GET("/quota", quotaHandler.GetQuota)

	api.POST("/images", imagesHandler.Upload)
	api.GET("/images", imagesHandler.ListImages)
	api.GET("/images/:image_id", imagesHandler.GetImage)
	api.DELETE("/images/:image_id", imagesHandler.DeleteImage)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
