package app

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/amaumene/gridguide/internal/clients"
	"github.com/amaumene/gridguide/internal/config"
	"github.com/amaumene/gridguide/internal/domain"
	"github.com/amaumene/gridguide/internal/storage"
)

const cacheDirPerms = 0755

// App owns one wired pipeline instance.
type App struct {
	cfg      *config.Config
	pipeline *Pipeline
}

func New(cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.CacheDir(), cacheDirPerms); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	provider := clients.NewGracenoteAdapter(cfg)
	windows := storage.NewWindowCache(cfg.CacheDir(), provider, cfg.Provider.RetentionDays)
	series := storage.NewSeriesCache(cfg.CacheDir(), provider)

	var aliasDir domain.AliasDirectory
	if cfg.Receiver.Enabled && cfg.Receiver.MatchChannels {
		aliasDir = clients.NewTVHeadendClient(cfg.ReceiverURL(), cfg.Receiver.Username, cfg.Receiver.Password)
	}

	return &App{
		cfg:      cfg,
		pipeline: NewPipeline(cfg, windows, series, aliasDir),
	}, nil
}

// Run executes one guide run and logs its summary.
func (a *App) Run(ctx context.Context) error {
	log.WithFields(log.Fields{
		"zipcode": a.cfg.Provider.PostalCode,
		"lineup":  a.cfg.Provider.Lineup,
	}).Info("starting guide run")

	result, err := a.pipeline.Run(ctx)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"elapsed":  result.Elapsed.Round(10 * time.Millisecond).String(),
		"stations": result.Stations,
		"episodes": result.Episodes,
	}).Info("guide run completed")
	return nil
}
