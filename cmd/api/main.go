package main

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "github.com/civiceye/civiceye-api/api/swagger"
	"github.com/civiceye/civiceye-api/internal/handler"
	"github.com/civiceye/civiceye-api/internal/repository"
	"github.com/civiceye/civiceye-api/internal/router"
	"github.com/civiceye/civiceye-api/internal/service"
	"github.com/civiceye/civiceye-api/pkg/cache"
	"github.com/civiceye/civiceye-api/pkg/config"
	"github.com/civiceye/civiceye-api/pkg/database"
	"github.com/civiceye/civiceye-api/pkg/logger"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// @title CivicEye API
// @version 1.0.0
// @description Civic issue reporting and public announcements
// @BasePath /api
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

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Announcements.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, announcement cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Announcements.CacheTTL, logr, true)
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	issueRepo := repository.NewIssueRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	announcementSvc := service.NewAnnouncementService(announcementRepo, cacheSvc, validate, logr)
	issueSvc := service.NewIssueService(issueRepo, validate, logr)

	// Backfill hype columns for issues created before the counter existed.
	// Fire and forget: readiness must not wait on it and a failure only logs.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		issueSvc.EnsureHypeFields(ctx)
	}()

	r := router.New(cfg, logr, authSvc, metricsSvc, router.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Announcements: handler.NewAnnouncementHandler(announcementSvc),
		Issues:        handler.NewIssueHandler(issueSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
