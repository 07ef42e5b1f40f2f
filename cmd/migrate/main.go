package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/contactbox/backend/internal/config"
	"github.com/contactbox/backend/internal/logging"
	"github.com/contactbox/backend/internal/repository"
	"github.com/joho/godotenv"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [command]

Commands:
  up (default)  未適用のマイグレーションをすべて適用
  down          直近のマイグレーションを 1 つ戻す
  version       現在のスキーマバージョンを表示`)
	os.Exit(1)
}

func main() {
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		logging.Setup("INFO", "json")
		logging.Fatal("invalid configuration", "error", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	cmd := repository.MigrateUp
	if len(os.Args) > 1 {
		cmd = repository.MigrateCommand(os.Args[1])
	}
	switch cmd {
	case repository.MigrateUp, repository.MigrateDown, repository.MigrateVersion:
	default:
		usage()
	}

	if !cfg.HasDatabase() {
		logging.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	store, err := repository.Open(ctx, cfg.StoreOptions())
	if err != nil {
		logging.Fatal("open store failed", "error", err)
	}
	defer func() { _ = store.Close(ctx) }()

	if err := store.Ping(ctx); err != nil {
		logging.Fatal("connect failed", "driver", store.Driver, "error", err)
	}

	version, err := store.Migrate(ctx, cmd)
	if err != nil {
		logging.Fatal("migration failed", "command", cmd, "error", err)
	}
	slog.Info("migration completed", "command", cmd, "driver", store.Driver, "version", version)
}
