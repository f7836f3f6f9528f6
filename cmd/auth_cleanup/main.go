package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"buyerleads/internal/config"
	"buyerleads/internal/database"
	"buyerleads/internal/domain/auth"
	"buyerleads/internal/pkg/jwt"
	"buyerleads/internal/pkg/logger"
	"buyerleads/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg := logger.Must(cfg.LogLevel, cfg.AppEnv)
	defer lg.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		lg.Fatal("db connect failed", zap.Error(err))
	}
	if err := database.Migrate(ctx, db, lg); err != nil {
		lg.Fatal("migrate failed", zap.Error(err))
	}

	svc := auth.NewService(
		repository.NewUserRepository(db),
		repository.NewMagicLinkRepository(db),
		auth.NewDevConsoleMailer(lg),
		jwt.New(cfg.JWTSecret, cfg.SessionTTL),
		auth.Config{AppURL: cfg.AppURL, LinkTTL: cfg.MagicLinkTTL, Pepper: cfg.MagicLinkPepper},
		lg,
	)

	n, err := svc.CleanupLinks(ctx)
	if err != nil {
		lg.Fatal("cleanup magic_links failed", zap.Error(err))
	}
	lg.Info("auth cleanup completed", zap.Int64("magic_links", n))
}
