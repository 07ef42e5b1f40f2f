package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contactbox/backend/internal/config"
	"github.com/contactbox/backend/internal/handler"
	"github.com/contactbox/backend/internal/logging"
	"github.com/contactbox/backend/internal/repository"
	"github.com/contactbox/backend/internal/service"
	"github.com/contactbox/backend/pkg/auth"
	"github.com/joho/godotenv"
)

const migrateRetryInterval = 5 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Setup("INFO", "json")
		logging.Fatal("invalid configuration", "error", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	store := openStore(ctx, cfg)

	messageService := service.NewMessageService(store.Messages, service.MessageOptions{
		ListLimit:        cfg.ListLimit,
		RequirePhone:     cfg.RequirePhone,
		RequireEmail:     cfg.RequireEmail,
		RefreshDeletedAt: cfg.SoftDeleteRefresh,
	})

	if cfg.AdminSeedOnStartup {
		seedAdmin(ctx, cfg, store)
	}

	limiter := handler.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	defer limiter.Close()

	routes := handler.Routes(handler.RouteConfig{
		Base: handler.New(store, handler.CORSConfig{
			Origin:  cfg.CORSOrigin,
			Methods: cfg.CORSMethods,
			Headers: cfg.CORSHeaders,
		}),
		Messages:      handler.NewMessageHandler(messageService),
		Auth:          newAuthenticator(cfg, store),
		SubmitLimiter: limiter,
		AllowPurge:    cfg.AllowPurge,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           routes,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server listening",
			"addr", server.Addr,
			"store", store.Driver,
			"auth_mode", cfg.AuthMode,
			"purge_enabled", cfg.AllowPurge,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")
	stopBackground()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		slog.Error("store close error", "error", err)
	}
}

// openStore opens the configured store. DB の障害ではプロセスを落とさず、
// degraded モード（health は 503）で起動を続ける。AUTO_MIGRATE は DB が
// 応答するようになった時点でバックグラウンド実行する。
func openStore(ctx context.Context, cfg *config.Config) *repository.Store {
	if !cfg.HasDatabase() {
		slog.Error("DATABASE_URL is not set; starting without a store")
		return repository.Unavailable(errors.New("DATABASE_URL is not set"))
	}

	store, err := repository.Open(ctx, cfg.StoreOptions())
	if err != nil {
		slog.Error("failed to open store; starting degraded", "driver", cfg.StoreDriver, "error", err)
		return repository.Unavailable(err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		slog.Error("database unreachable at startup; continuing degraded", "driver", store.Driver, "error", err)
		if cfg.AutoMigrate {
			go autoMigrate(ctx, store)
		}
		return store
	}
	slog.Info("database connected", "driver", store.Driver)

	if cfg.AutoMigrate {
		autoMigrate(ctx, store)
	}
	return store
}

func autoMigrate(ctx context.Context, store *repository.Store) {
	version, err := store.MigrateWhenReady(ctx, migrateRetryInterval)
	if err != nil {
		slog.Error("auto-migrate failed", "driver", store.Driver, "error", err)
		return
	}
	slog.Info("schema up to date", "driver", store.Driver, "version", version)
}

func seedAdmin(ctx context.Context, cfg *config.Config, store *repository.Store) {
	if !cfg.HasAdminCredentials() {
		slog.Warn("ADMIN_SEED_ON_STARTUP is set but ADMIN_USER/ADMIN_PASS are missing; skipping seed")
		return
	}
	svc := service.NewAdminService(store.Admins, cfg.BcryptCost)
	if _, err := svc.EnsureAdmin(ctx, cfg.AdminUser, cfg.AdminPass); err != nil {
		slog.Error("admin seed failed", "username", cfg.AdminUser, "error", err)
	}
}

func newAuthenticator(cfg *config.Config, store *repository.Store) auth.Authenticator {
	if cfg.AuthMode == config.AuthModeStatic {
		slog.Warn("AUTH_MODE=static compares plaintext env credentials; provision a stored admin with createadmin instead")
		if !cfg.HasAdminCredentials() {
			slog.Warn("ADMIN_USER/ADMIN_PASS are not set; every admin request will be rejected")
		}
		return service.NewStaticAuthenticator(cfg.AdminUser, cfg.AdminPass)
	}
	return service.NewStoreAuthenticator(store.Admins, cfg.BcryptCost)
}
