package app

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/amaumene/gridguide/internal/config"
	"github.com/amaumene/gridguide/internal/domain"
	"github.com/amaumene/gridguide/internal/service"
	"github.com/amaumene/gridguide/internal/storage"
)

const (
	// One grid window covers three hours, eight windows per day.
	windowSeconds = 10800
	windowsPerDay = 8

	maxPrimeWorkers = 4
	outputFilePerms = 0644
)

// Pipeline executes one guide run: load windows, assemble the schedule,
// enrich it, render the document, prune stale caches.
type Pipeline struct {
	cfg      *config.Config
	windows  *storage.WindowCache
	series   *storage.SeriesCache
	aliasDir domain.AliasDirectory
}

func NewPipeline(cfg *config.Config, windows *storage.WindowCache, series *storage.SeriesCache, aliasDir domain.AliasDirectory) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		windows:  windows,
		series:   series,
		aliasDir: aliasDir,
	}
}

// Run drives the stages in sequence. Per-window and per-series failures are
// logged skips; only errors that invalidate the whole run propagate.
func (p *Pipeline) Run(ctx context.Context) (*domain.RunResult, error) {
	started := time.Now()
	gridStart := started.Truncate(time.Hour).Unix()

	aliases := p.loadAliases(ctx)
	p.windows.Sweep(gridStart)

	epochs := windowEpochs(gridStart, p.cfg.Provider.Days)
	p.primeWindows(ctx, epochs)

	assembler, err := p.assemble(ctx, epochs, aliases)
	if err != nil {
		return nil, err
	}
	schedule := assembler.Schedule()

	referenced := make(map[string]struct{})
	if p.cfg.Details.FetchDetails {
		referenced = service.NewEnricher(p.series).Enrich(ctx, schedule)
	}

	stats, err := p.writeDocument(schedule)
	if err != nil {
		return nil, err
	}

	p.series.Prune(referenced)

	return &domain.RunResult{
		Elapsed:  time.Since(started),
		Stations: stats.Stations,
		Episodes: stats.Episodes,
	}, nil
}

// loadAliases fetches the receiver channel directory. A failure skips alias
// matching for the run, nothing more.
func (p *Pipeline) loadAliases(ctx context.Context) map[string]string {
	if p.aliasDir == nil {
		return nil
	}
	aliases, err := p.aliasDir.Aliases(ctx)
	if err != nil {
		log.WithError(err).Warn("could not fetch receiver channels, skipping alias matching")
		return nil
	}
	return aliases
}

func windowEpochs(gridStart int64, days int) []int64 {
	count := days * windowsPerDay
	epochs := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		epochs = append(epochs, gridStart+int64(i)*windowSeconds)
	}
	return epochs
}

// primeWindows downloads missing windows concurrently. Each prime touches
// only its own cache file; schedule mutation stays on the sequential path.
func (p *Pipeline) primeWindows(ctx context.Context, epochs []int64) {
	workers := pool.New().WithMaxGoroutines(maxPrimeWorkers)
	for _, epoch := range epochs {
		epoch := epoch
		workers.Go(func() {
			// Prime logs its own failures; the window is absent this run.
			_ = p.windows.Prime(ctx, epoch)
		})
	}
	workers.Wait()
}

func (p *Pipeline) assemble(ctx context.Context, epochs []int64, aliases map[string]string) (*service.Assembler, error) {
	assembler := service.NewAssembler(service.AssemblerOptions{
		StationIDs:    p.cfg.Stations.IDs,
		ChannelMatch:  p.cfg.Stations.ChannelMatch,
		ReceiverMatch: p.cfg.Receiver.MatchChannels && aliases != nil,
		Aliases:       aliases,
	})
	if len(p.cfg.Stations.IDs) == 0 {
		log.Info("no station list configured, adding all stations")
	}

	stationsLoaded := false
	for _, epoch := range epochs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		payload, err := p.windows.Fetch(ctx, epoch)
		if err != nil {
			continue
		}

		grid, err := service.DecodeGrid(payload)
		if err != nil {
			log.WithFields(log.Fields{
				"window": epoch,
				"error":  err,
			}).Warn("json error for window, deleting file")
			p.windows.Remove(epoch)
			continue
		}

		log.WithField("window", epoch).Info("parsing window")
		if !stationsLoaded {
			assembler.IngestStations(grid)
			stationsLoaded = true
		}
		if unsafe := assembler.IngestEpisodes(grid); unsafe {
			log.WithField("window", epoch).Info("deleting window due to TBA listings")
			p.windows.Remove(epoch)
		}
	}
	return assembler, nil
}

func (p *Pipeline) writeDocument(schedule *domain.Schedule) (service.Stats, error) {
	writer := service.NewXMLTVWriter(service.XMLTVOptions{
		ComposedDescriptions: p.cfg.Details.ComposedDescriptions,
		DescriptionOrder:     service.TokensFromInts(p.cfg.Details.DescriptionOrder),
		IconMode:             p.cfg.Details.IconMode,
		Genres:               p.cfg.Details.Genres,
	})

	document, stats := writer.Render(schedule)
	if err := writeFile(p.cfg.OutputPath(), document); err != nil {
		return stats, fmt.Errorf("writing output document: %w", err)
	}

	log.WithFields(log.Fields{
		"path":     p.cfg.OutputPath(),
		"stations": stats.Stations,
		"episodes": stats.Episodes,
	}).Info("xmltv document written")
	return stats, nil
}

func writeFile(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, outputFilePerms)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return file.Close()
}
