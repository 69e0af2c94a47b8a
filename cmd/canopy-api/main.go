package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/canopyhq/canopy-api/api/swagger"
	"github.com/canopyhq/canopy-api/internal/handler"
	"github.com/canopyhq/canopy-api/internal/middleware"
	"github.com/canopyhq/canopy-api/internal/models"
	"github.com/canopyhq/canopy-api/internal/repository"
	"github.com/canopyhq/canopy-api/internal/service"
	"github.com/canopyhq/canopy-api/pkg/cache"
	"github.com/canopyhq/canopy-api/pkg/config"
	"github.com/canopyhq/canopy-api/pkg/database"
	"github.com/canopyhq/canopy-api/pkg/logger"
	corsmiddleware "github.com/canopyhq/canopy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/canopyhq/canopy-api/pkg/middleware/requestid"
)

// @title Canopy API
// @version 1.0.0
// @description Hierarchical content backend with inherited permissions
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	itemRepo := repository.NewItemRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewBulkReportRepository(redisClient, cfg.Bulk.ReportTTL, logr)

	validate := validator.New()

	if cfg.Env == config.EnvDevelopment {
		seedDevUser(context.Background(), userRepo, logr)
	}

	authRepo := struct {
		*repository.UserRepository
		*repository.AuditRepository
	}{userRepo, auditRepo}

	authSvc := service.NewAuthService(authRepo, validate, logr, cfg.JWT)
	itemSvc := service.NewItemService(itemRepo, membershipRepo, likeRepo, auditRepo, cfg.Tree, logr)
	membershipSvc := service.NewMembershipService(itemRepo, membershipRepo, auditRepo, logr)
	bulkSvc := service.NewBulkService(itemSvc, reportRepo, cfg.Bulk, logr)
	exportSvc := service.NewExportService(itemRepo, membershipRepo, logr, nil, nil)

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
		itemSvc.SetMetrics(metricsSvc)
		bulkSvc.SetMetrics(metricsSvc)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bulkSvc.Start(ctx)
	defer bulkSvc.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metricsSvc != nil {
		r.Use(middleware.Metrics(metricsSvc))
	}

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		checkCtx, checkCancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer checkCancel()
		if err := db.PingContext(checkCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		if err := redisClient.Ping(checkCtx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if metricsSvc != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	handler.NewAuthHandler(authSvc).Routes(api)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	handler.NewItemHandler(itemSvc).Routes(protected)
	handler.NewShareHandler(membershipSvc).Routes(protected)
	handler.NewBulkHandler(bulkSvc).Routes(protected)
	if cfg.Exports.Enabled {
		handler.NewExportHandler(exportSvc).Routes(protected)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// seedDevUser ensures a local login exists in development environments.
func seedDevUser(ctx context.Context, users *repository.UserRepository, logr *zap.Logger) {
	const email = "dev@canopy.local"
	if _, err := users.FindByEmail(ctx, email); err == nil {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("canopy-dev"), bcrypt.DefaultCost)
	if err != nil {
		logr.Warn("failed to hash dev password", zap.Error(err))
		return
	}
	err = users.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Canopy Developer",
		Active:       true,
	})
	if err != nil {
		logr.Warn("failed to seed dev user", zap.Error(err))
		return
	}
	logr.Sugar().Infow("seeded development user", "email", email)
}
