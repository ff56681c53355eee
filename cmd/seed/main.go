package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"schools24/internal/auth"
	"schools24/internal/config"
	"schools24/internal/db"
	"schools24/internal/logger"
	"schools24/internal/repository"
	"schools24/internal/seed"
	"schools24/internal/service"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("starting seed script")

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}
	zlog.Info("database migrations completed")

	store := repository.NewStore(gormDB)
	userService := service.NewUserService(store, nil, cfg.CacheTTL)
	services := seed.Services{
		Auth: service.NewAuthService(store.Users(), userService,
			auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL), auth.NewTokenStore(nil)),
		Subjects:    service.NewSubjectService(store, nil, cfg.CacheTTL),
		Classes:     service.NewClassService(store, nil),
		Assignments: service.NewAssignmentService(store, nil, zlog),
	}

	result, err := seed.Run(context.Background(), store.Users(), services, zlog)
	if err != nil {
		zlog.Fatal("seed failed", zap.Error(err))
	}
	if result.Skipped {
		zlog.Info("database already seeded, nothing to do")
		return
	}
	zlog.Info("seed completed",
		zap.Int("subjects", result.Subjects),
		zap.Int("users", result.Users),
		zap.Int("classes", result.Classes),
	)
}
