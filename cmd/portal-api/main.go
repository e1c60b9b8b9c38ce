package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/uok-ict/portal-api/api/swagger"
	"github.com/uok-ict/portal-api/internal/handler"
	"github.com/uok-ict/portal-api/internal/middleware"
	"github.com/uok-ict/portal-api/internal/models"
	"github.com/uok-ict/portal-api/internal/repository"
	"github.com/uok-ict/portal-api/internal/service"
	"github.com/uok-ict/portal-api/pkg/cache"
	"github.com/uok-ict/portal-api/pkg/config"
	"github.com/uok-ict/portal-api/pkg/database"
	"github.com/uok-ict/portal-api/pkg/export"
	"github.com/uok-ict/portal-api/pkg/logger"
	"github.com/uok-ict/portal-api/pkg/mailer"
	corsmiddleware "github.com/uok-ict/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/uok-ict/portal-api/pkg/middleware/requestid"
)

// @title University Portal API
// @version 1.0.0
// @description Admissions lifecycle, credential issuance and appointment workflows
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsService := service.NewMetricsService()
	mail := mailer.New(cfg.Mail, logr)
	letters := export.NewOfferLetterRenderer("")

	// repositories
	applicationRepo := repository.NewApplicationRepository(db)
	userRepo := repository.NewUserRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	lecturerRepo := repository.NewLecturerRepository(db)
	programRepo := repository.NewProgramRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	txManager := database.NewTxManager(db)

	// services
	cacheService := service.NewCacheService(cacheRepo, metricsService,
		cfg.Admissions.StatsCacheTTL, logr, redisClient != nil)
	allocator := service.NewAllocator(applicationRepo, userRepo, cfg.Provisioning.StudentNumberBase)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	admissionService := service.NewAdmissionService(applicationRepo, userRepo, programRepo,
		allocator, txManager, cacheService, mail, metricsService, validate, logr,
		service.AdmissionConfig{
			SecretLength:  cfg.Provisioning.SecretLength,
			RetryAttempts: cfg.Provisioning.RetryAttempts,
			RetryBackoff:  cfg.Provisioning.RetryBackoff,
			StatsCacheTTL: cfg.Admissions.StatsCacheTTL,
		})
	provisioningService := service.NewProvisioningService(applicationRepo, userRepo,
		allocator, txManager, mail, letters, metricsService, logr,
		service.ProvisioningConfig{
			SecretLength:  cfg.Provisioning.SecretLength,
			RetryAttempts: cfg.Provisioning.RetryAttempts,
			RetryBackoff:  cfg.Provisioning.RetryBackoff,
		})
	hiringService := service.NewHiringService(staffRepo, lecturerRepo, userRepo,
		allocator, txManager, metricsService, validate, logr,
		service.HiringConfig{
			SecretLength:  cfg.Provisioning.SecretLength,
			RetryAttempts: cfg.Provisioning.RetryAttempts,
			RetryBackoff:  cfg.Provisioning.RetryBackoff,
		})
	userService := service.NewUserService(userRepo, logr)
	catalogService := service.NewCatalogService(programRepo)

	// handlers
	authHandler := handler.NewAuthHandler(authService)
	admissionHandler := handler.NewAdmissionHandler(admissionService)
	provisioningHandler := handler.NewProvisioningHandler(provisioningService)
	hiringHandler := handler.NewHiringHandler(hiringService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	userHandler := handler.NewUserHandler(userService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/:portal/login", authHandler.Login)
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/change-password", middleware.JWT(authService), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	admissions := api.Group("/admissions")
	{
		admissions.POST("/apply", admissionHandler.Apply)
		admissions.GET("/track/:regNumber", admissionHandler.Track)

		staffOnly := middleware.RequireStaff()
		protected := admissions.Group("", middleware.JWT(authService))
		{
			protected.GET("", staffOnly, admissionHandler.List)
			protected.GET("/stats", staffOnly, admissionHandler.Stats)
			protected.GET("/export", staffOnly, admissionHandler.ExportCSV)
			protected.GET("/:id", admissionHandler.Get)
			protected.PUT("/:id/documents", admissionHandler.UpdateDocuments)
			protected.POST("/:id/submit", admissionHandler.Submit)
			protected.POST("/:id/review", staffOnly, admissionHandler.StartReview)
			protected.POST("/:id/decision", staffOnly, admissionHandler.Decide)
			protected.POST("/:id/issue-access", staffOnly, provisioningHandler.IssueAccess)
			protected.GET("/:id/offer-letter", provisioningHandler.OfferLetter)
		}
	}

	hiring := api.Group("/hiring", middleware.JWT(authService), middleware.RequireAdmin())
	{
		hiring.POST("/staff", hiringHandler.HireStaff)
		hiring.POST("/staff/replace", hiringHandler.ReplaceStaff)
		hiring.GET("/staff/:office", hiringHandler.StaffHistory)
		hiring.POST("/staff/:office/deactivate", hiringHandler.DeactivateStaff)
		hiring.POST("/lecturers", hiringHandler.HireLecturer)
		hiring.POST("/lecturers/replace", hiringHandler.ReplaceLecturer)
		hiring.GET("/lecturers/:module", hiringHandler.LecturerHistory)
		hiring.POST("/lecturers/:module/deactivate", hiringHandler.DeactivateLecturer)
	}

	catalogs := api.Group("/catalogs")
	{
		catalogs.GET("/offices", catalogHandler.Offices)
		catalogs.GET("/modules", catalogHandler.Modules)
		catalogs.GET("/programs", catalogHandler.Programs)
	}

	users := api.Group("/users", middleware.JWT(authService))
	{
		users.GET("", middleware.RequireAdmin(), userHandler.List)
		users.GET("/:id", middleware.SelfOrRoles("id", models.RoleAdmin), userHandler.Get)
	}

	api.GET("/metrics/snapshot", middleware.JWT(authService),
		middleware.RequireAdmin(), metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
