package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/contactbox/backend/internal/config"
	"github.com/contactbox/backend/internal/logging"
	"github.com/contactbox/backend/internal/repository"
	"github.com/contactbox/backend/internal/service"
	"github.com/joho/godotenv"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: createadmin [username] [password]

管理者アカウントを作成、または既存アカウントのパスワードを置き換える。
引数を省略した場合は ADMIN_USER / ADMIN_PASS を使用する。`)
	os.Exit(1)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Setup("INFO", "json")
		logging.Fatal("invalid configuration", "error", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	username, password := cfg.AdminUser, cfg.AdminPass
	switch len(os.Args) {
	case 1:
	case 3:
		username, password = os.Args[1], os.Args[2]
	default:
		usage()
	}
	if username == "" || password == "" {
		slog.Error("username and password are required (args or ADMIN_USER/ADMIN_PASS)")
		usage()
	}
	if !cfg.HasDatabase() {
		logging.Fatal("DATABASE_URL (or MONGO_URI) is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := repository.Open(ctx, cfg.StoreOptions())
	if err != nil {
		logging.Fatal("open store failed", "error", err)
	}
	defer func() { _ = store.Close(context.Background()) }()

	if err := store.Ping(ctx); err != nil {
		logging.Fatal("connect failed", "driver", store.Driver, "error", err)
	}
	if _, err := store.Migrate(ctx, repository.MigrateUp); err != nil {
		logging.Fatal("migrate failed", "error", err)
	}

	admin, err := service.NewAdminService(store.Admins, cfg.BcryptCost).EnsureAdmin(ctx, username, password)
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		logging.Fatal("invalid admin credentials", "code", verr.Code)
	}
	if err != nil {
		logging.Fatal("create admin failed", "error", err)
	}
	slog.Info("admin ready", "username", admin.Username, "driver", store.Driver)
}
