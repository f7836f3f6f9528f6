package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"buyerleads/internal/config"
	"buyerleads/internal/database"
	"buyerleads/internal/domain/auth"
	"buyerleads/internal/domain/buyer"
	"buyerleads/internal/middleware"
	"buyerleads/internal/pkg/jwt"
	"buyerleads/internal/repository"
)

type Server struct {
	cfg    *config.AppConfig
	logger *zap.Logger
	db     *gorm.DB
	redis  *redis.Client
	http   *http.Server
}

// NewServer connects storage, runs migrations and wires every handler.
func NewServer(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	// ----- Database -----
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	s.db = db
	if err := database.Migrate(ctx, db, logger); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// ----- Rate limiter -----
	var limiter middleware.Limiter = middleware.NewMemoryLimiter()
	if cfg.RateLimitBackend == "redis" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := s.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		limiter = middleware.NewRedisLimiter(s.redis)
		logger.Info("redis rate limiter enabled", zap.String("addr", cfg.RedisAddr))
	}

	// ----- Auth -----
	tokens := jwt.New(cfg.JWTSecret, cfg.SessionTTL)
	var mailer auth.Mailer = auth.NewDevConsoleMailer(logger)
	if cfg.SMTPHost != "" {
		mailer = auth.NewSMTPMailer(auth.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
		})
	}
	authService := auth.NewService(
		repository.NewUserRepository(db),
		repository.NewMagicLinkRepository(db),
		mailer,
		tokens,
		auth.Config{
			AppURL:   cfg.AppURL,
			LinkTTL:  cfg.MagicLinkTTL,
			Cooldown: cfg.MagicLinkCooldown,
			Pepper:   cfg.MagicLinkPepper,
			ProdLike: cfg.IsProdLike(),
		},
		logger,
	)
	authHandler := auth.NewHandler(authService, auth.CookieConfig{
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	}, logger)

	// ----- Buyers -----
	hub := buyer.NewHub(OriginChecker(cfg.CORSOrigins), logger)
	buyerService := buyer.NewService(repository.NewStore(db), hub, logger)
	buyerHandler := buyer.NewHandler(buyerService, hub, logger, cfg.ImportMaxFailures)

	router := NewRouter(RouterDeps{
		Logger:       logger,
		DB:           db,
		Tokens:       tokens,
		Limiter:      limiter,
		AuthHandler:  authHandler,
		BuyerHandler: buyerHandler,
		CORSOrigins:  cfg.CORSOrigins,
	})

	s.http = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	err := s.http.Shutdown(shutdownCtx)
	s.close()
	return err
}

func (s *Server) close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
