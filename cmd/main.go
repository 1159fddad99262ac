package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/NeuroDev204/Neuro-bank/config"
	"github.com/NeuroDev204/Neuro-bank/db"
	"github.com/NeuroDev204/Neuro-bank/internal/audit"
	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
	"github.com/NeuroDev204/Neuro-bank/internal/auth/handler"
	repo "github.com/NeuroDev204/Neuro-bank/internal/auth/repository/postgres"
	"github.com/NeuroDev204/Neuro-bank/internal/auth/service"
	"github.com/NeuroDev204/Neuro-bank/internal/cache"
	"github.com/NeuroDev204/Neuro-bank/internal/notify"
	"github.com/NeuroDev204/Neuro-bank/internal/ratelimit"
)

const tokenCleanupInterval = time.Hour

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	ctx := context.Background()

	if err := db.RunMigrations(cfg.DBURL); err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisStore, err := cache.NewRedisStore(cfg.RedisURL)
	if err != nil {
		logger.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer redisStore.Close()

	if err := redisStore.Ping(ctx); err != nil {
		logger.Error("redis ping failed", "error", err)
		os.Exit(1)
	}

	privateKey, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		logger.Error("failed to read private key", "error", err)
		os.Exit(1)
	}
	publicKey, err := os.ReadFile(cfg.PublicKeyPath)
	if err != nil {
		logger.Error("failed to read public key", "error", err)
		os.Exit(1)
	}

	tokenService, err := service.NewTokenService(privateKey, publicKey, cfg.JWTIssuer,
		cfg.AccessExpiryMin, cfg.RefreshExpiryDay)
	if err != nil {
		logger.Error("failed to build token service", "error", err)
		os.Exit(1)
	}

	userRepo := repo.NewUserRepository(dbPool)
	credentialRepo := repo.NewCredentialRepository(dbPool)
	deviceRepo := repo.NewDeviceRepository(dbPool)
	otpRepo := repo.NewOtpRepository(dbPool)
	refreshTokenRepo := repo.NewRefreshTokenRepository(dbPool)
	auditRepo := repo.NewAuditRepository(dbPool)

	recorder := audit.NewRecorder(auditRepo, logger)
	defer recorder.Close()

	limiter := ratelimit.NewLimiter(redisStore)

	var notifier domain.Notifier
	if cfg.SMTPAddr != "" {
		notifier = notify.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
	} else {
		logger.Warn("SMTP_ADDR not set, one-time codes are logged instead of mailed")
		notifier = notify.NewLogMailer(logger)
	}

	otpService := service.NewOtpService(otpRepo, redisStore, limiter, notifier, logger)
	verifier := service.NewCredentialVerifier(userRepo, credentialRepo, recorder, logger)
	deviceTracker := service.NewDeviceTracker(deviceRepo, cfg.RequireDeviceFingerprint)
	userService := service.NewUserService(userRepo, credentialRepo, otpService, recorder)
	authService := service.NewAuthService(userRepo, verifier, deviceTracker, otpService,
		tokenService, refreshTokenRepo, redisStore, redisStore, limiter, recorder, logger)

	go runTokenCleanup(ctx, refreshTokenRepo, logger)

	authHandler := handler.NewAuthHandler(authService, userService)
	authMiddleware := handler.NewAuthMiddleware(tokenService, redisStore)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler, authMiddleware)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

// runTokenCleanup prunes expired and revoked refresh tokens on an interval so
// the table does not grow without bound.
func runTokenCleanup(ctx context.Context, tokens domain.RefreshTokenRepository, logger *slog.Logger) {
	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := tokens.DeleteExpiredAndRevoked(ctx, time.Now().UTC())
			if err != nil {
				logger.Error("refresh token cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("pruned refresh tokens", "count", deleted)
			}
		}
	}
}
