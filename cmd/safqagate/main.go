package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/safqa-app/safqagate/internal/config"
	"github.com/safqa-app/safqagate/internal/database"
	"github.com/safqa-app/safqagate/internal/logging"
	"github.com/safqa-app/safqagate/internal/metrics"
	"github.com/safqa-app/safqagate/internal/registry"
	"github.com/safqa-app/safqagate/internal/repository"
	"github.com/safqa-app/safqagate/internal/server"
	"github.com/safqa-app/safqagate/internal/storage"
)

// defaultChoices seeds the registry when no file or database source is
// configured.
var defaultChoices = map[string][]string{
	"city":     {"الرياض", "جدة", "الدمام", "مكة", "المدينة"},
	"industry": {"retail", "food", "travel", "electronics", "services"},
	"category": {"discount", "bundle", "cashback", "free_shipping"},
}

func main() {
	cfg := config.LoadConfig()
	boot := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	archiveClient, err := storage.NewArchiveClient(cfg.Archive)
	if err != nil {
		boot.Fatal().Err(err).Msg("archive client")
	}
	if archiveClient != nil {
		if err := archiveClient.EnsureBucket(ctx); err != nil {
			boot.Warn().Err(err).Msg("ensure archive bucket, shipping may fail")
		}
	}
	shipper := storage.NewShipper(archiveClient, cfg.Primary.Env, boot)
	shipper.Start(ctx)

	emitter, err := logging.Setup(logging.Config{
		Level:        cfg.Logging.Level,
		Dir:          cfg.Logging.Dir,
		File:         cfg.Logging.File,
		Console:      cfg.Logging.Console,
		MaxArchives:  cfg.Logging.MaxArchives,
		RedactFields: cfg.Ingress.RedactFields,
		OnRotate:     shipper.Enqueue,
	})
	if err != nil {
		boot.Fatal().Err(err).Msg("logging setup")
	}
	defer logging.Close()

	nrApp, err := cfg.Observability.NewRelicApp()
	if err != nil {
		boot.Fatal().Err(err).Msg("new relic")
	}

	provider, pool, choices := buildRegistry(ctx, cfg, boot)
	if pool != nil {
		defer pool.Close()
	}
	if choices != nil && cfg.Registry.RefreshInterval > 0 {
		go refreshChoices(ctx, time.Duration(cfg.Registry.RefreshInterval)*time.Second, choices, provider, boot)
	}

	srv := server.New(cfg, server.Deps{
		Emitter:  emitter,
		Registry: provider,
		Metrics:  metrics.New(),
		Choices:  choices,
		Archive:  archiveClient,
		NewRelic: nrApp,
	})

	boot.Info().Str("port", cfg.Server.Port).Str("env", cfg.Primary.Env).Msg("safqagate listening")
	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		boot.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
	shipper.Wait()
}

// refreshChoices re-reads the choice store on a fixed interval and
// publishes a fresh snapshot. A failed read keeps the current snapshot.
func refreshChoices(ctx context.Context, every time.Duration, choices *repository.ChoiceRepository, provider *registry.Provider, boot zerolog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fields, err := choices.Load(ctx)
			if err != nil {
				boot.Warn().Err(err).Msg("registry refresh")
				continue
			}
			if len(fields) > 0 {
				provider.Publish(registry.NewSnapshot(fields))
			}
		}
	}
}

// buildRegistry resolves the configured choice source. The pool is
// non-nil only for the postgres source; the caller owns closing it.
func buildRegistry(ctx context.Context, cfg *config.Config, boot zerolog.Logger) (*registry.Provider, *pgxpool.Pool, *repository.ChoiceRepository) {
	switch cfg.Registry.Source {
	case "file":
		snap, err := registry.LoadSeedFile(cfg.Registry.SeedFile)
		if err != nil {
			boot.Fatal().Err(err).Msg("registry seed file")
		}
		return registry.NewProvider(snap), nil, nil

	case "postgres":
		url := cfg.Database.URL()
		if err := database.RunMigrations(ctx, url); err != nil {
			boot.Fatal().Err(err).Msg("migrations")
		}
		pool, err := database.NewPool(ctx, url, boot, cfg.Database.QueryLogLevel)
		if err != nil {
			boot.Fatal().Err(err).Msg("database pool")
		}
		choices := repository.NewChoiceRepository(pool)
		seed, err := choices.Load(ctx)
		if err != nil {
			boot.Fatal().Err(err).Msg("load registry")
		}
		if len(seed) == 0 {
			seed = defaultChoices
		}
		return registry.NewProvider(registry.NewSnapshot(seed)), pool, choices

	default:
		return registry.NewProvider(registry.NewSnapshot(defaultChoices)), nil, nil
	}
}
