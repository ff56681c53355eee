package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "schools24/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"schools24/internal/auth"
	"schools24/internal/cache"
	"schools24/internal/config"
	"schools24/internal/db"
	"schools24/internal/handler"
	"schools24/internal/logger"
	"schools24/internal/repository"
	"schools24/internal/repository/memory"
	"schools24/internal/router"
	"schools24/internal/seed"
	"schools24/internal/service"
)

// @title Schools24 API
// @version 1.0
// @description School management API: classes, teacher assignments, subjects, users, schools and fees.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg, zlog)
	if err != nil {
		zlog.Fatal("store init", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cacheClient.Ping(ctx); err != nil {
		zlog.Warn("redis unavailable, caching disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		cacheClient = nil
	}

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	userService := service.NewUserService(store, cacheClient, cfg.CacheTTL)
	authService := service.NewAuthService(store.Users(), userService, jwtService, tokenStore)
	classService := service.NewClassService(store, cacheClient)
	assignmentService := service.NewAssignmentService(store, cacheClient, zlog)
	subjectService := service.NewSubjectService(store, cacheClient, cfg.CacheTTL)
	schoolService := service.NewSchoolService(store, cacheClient, zlog)
	feeService := service.NewFeeService(store)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	adminHandler := handler.NewAdminHandler(userService, classService, assignmentService, subjectService)
	feeHandler := handler.NewFeeHandler(feeService)
	developerHandler := handler.NewDeveloperHandler(schoolService)
	seedHandler := handler.NewSeedHandler(store.Users(), seed.Services{
		Auth:        authService,
		Subjects:    subjectService,
		Classes:     classService,
		Assignments: assignmentService,
	}, zlog)

	e := echo.New()
	e.HideBanner = true

	// Register routes
	router.Register(
		e,
		cfg,
		zlog,
		jwtService,
		authService,
		authHandler,
		adminHandler,
		feeHandler,
		developerHandler,
		seedHandler,
	)

	zlog.Info("swagger documentation available", zap.String("url", swaggerURL(cfg.SwaggerHost)))

	go func() {
		addr := ":" + cfg.ServerPort
		zlog.Info("server starting", zap.String("addr", addr), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown", zap.Error(err))
	}
}

func openStore(cfg *config.Config, zlog *zap.Logger) (repository.Store, error) {
	var (
		gormDB *gorm.DB
		err    error
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		zlog.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	case config.DriverSQLite:
		gormDB, err = db.NewSQLite(cfg.SQLitePath)
	default:
		gormDB, err = db.NewMySQL(cfg.MySQLDSN)
	}
	if err != nil {
		return nil, err
	}
	if cfg.ResetDB {
		zlog.Warn("RESET_DB=true detected, dropping all tables")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		return nil, err
	}
	return repository.NewStore(gormDB), nil
}

// swaggerURL accepts a host with or without scheme.
func swaggerURL(host string) string {
	if host == "" {
		// docker-compose maps the container's 8080 to 5000
		return "http://localhost:5000/swagger/index.html"
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
