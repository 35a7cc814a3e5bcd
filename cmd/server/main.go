package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AntonTsoy/auth-service/internal/account"
	"github.com/AntonTsoy/auth-service/internal/auth"
	"github.com/AntonTsoy/auth-service/internal/db"
	"github.com/AntonTsoy/auth-service/internal/logging"
	"github.com/AntonTsoy/auth-service/internal/secret"
	"github.com/AntonTsoy/auth-service/internal/token"
	"github.com/AntonTsoy/auth-service/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type tokenStore interface {
	auth.RefreshTokenStore
	token.ExpiredPurger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(ctx, "postgres init failed", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	var store tokenStore
	switch cfg.TokenStore {
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error(ctx, "redis init failed", "error", err)
			os.Exit(1)
		}
		store = token.NewRedisRepository(rdb, "")
	default:
		store = token.NewTokenRepository(pg)
	}

	authService := auth.NewService(
		account.NewRepository(pg),
		store,
		secret.NewBcrypt(cfg.BcryptCost),
		token.NewSigner(cfg.JWTSecret),
		logger,
	)
	authHandler := auth.NewAuthHandler(authService, logger, cfg.CookieSecure)

	if cfg.SweepInterval > 0 {
		go token.NewSweeper(store, cfg.SweepInterval, logger).Run(ctx)
	}

	router := gin.Default()
	router.GET("/healthz", func(c *gin.Context) {
		if err := pg.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	authHandler.Routes(router.Group("/auth"))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "shutdown failed", "error", err)
		}
	}()

	logger.Info(ctx, "auth service listening", "addr", cfg.ListenAddr, "token_store", cfg.TokenStore)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
}
