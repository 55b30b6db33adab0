// Command migrate prepares the identity store for the configured backend and
// exits. Run it before starting the server.
package main

import (
	"context"
	"os"
	"time"

	"github.com/Skotchmaster/recommend_shop/internal/config"
	"github.com/Skotchmaster/recommend_shop/internal/es"
	"github.com/Skotchmaster/recommend_shop/internal/logging"
	"github.com/Skotchmaster/recommend_shop/internal/migrate"
)

func main() {
	cfg := config.Load()
	cfg.MustValid()

	log := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "command", "migrate")
	ctx, cancel := context.WithTimeout(logging.IntoContext(context.Background(), log), time.Minute)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Error("migrate_failed", "store", cfg.StoreBackend, "error", err)
		cancel()
		os.Exit(1)
	}
	log.Info("migrate_complete", "store", cfg.StoreBackend)
}

func run(ctx context.Context, cfg *config.Config) error {
	switch cfg.StoreBackend {
	case config.BackendElasticsearch:
		client, err := es.NewClient(ctx, cfg)
		if err != nil {
			return err
		}
		return migrate.Indices(ctx, client, cfg.UsersIndex, cfg.RefreshTokensIndex)
	default:
		return migrate.Postgres(ctx, cfg.DatabaseURL)
	}
}
