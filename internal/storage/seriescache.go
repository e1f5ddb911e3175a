package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	log "github.com/sirupsen/logrus"

	"github.com/amaumene/gridguide/gracenote"
	"github.com/amaumene/gridguide/internal/domain"
)

const (
	seriesExt        = ".json"
	detailAttempts   = 3
	detailRetryDelay = time.Second
)

var errEmptyOverview = errors.New("empty overview response")

// SeriesCache fetches and persists supplemental per-series metadata. A
// series whose download exhausts its retries is recorded as failed and not
// attempted again within the run.
type SeriesCache struct {
	dir    string
	source domain.OverviewSource
	failed map[string]struct{}
}

func NewSeriesCache(dir string, source domain.OverviewSource) *SeriesCache {
	return &SeriesCache{
		dir:    dir,
		source: source,
		failed: make(map[string]struct{}),
	}
}

func (c *SeriesCache) path(seriesID string) string {
	return filepath.Join(c.dir, seriesID+seriesExt)
}

// Fetch returns the decoded series detail, downloading with bounded retry
// when no cache entry exists. Absence for any reason yields
// domain.ErrDetailUnavailable; the episodes keep base data only.
func (c *SeriesCache) Fetch(ctx context.Context, seriesID string) (*gracenote.Overview, error) {
	path := c.path(seriesID)

	info, err := os.Stat(path)
	if err == nil && info.Size() == 0 {
		log.WithField("series", seriesID).Warn("zero-length cache entry, deleting")
		os.Remove(path)
		return nil, domain.ErrDetailUnavailable
	}

	if os.IsNotExist(err) {
		if _, tried := c.failed[seriesID]; tried {
			return nil, domain.ErrDetailUnavailable
		}
		if err := c.download(ctx, seriesID); err != nil {
			c.failed[seriesID] = struct{}{}
			log.WithFields(log.Fields{
				"series": seriesID,
				"error":  err,
			}).Warn("could not download details data, skipping series")
			return nil, domain.ErrDetailUnavailable
		}
	}

	return c.decode(seriesID)
}

func (c *SeriesCache) download(ctx context.Context, seriesID string) error {
	log.WithField("series", seriesID).Info("downloading details data")

	return retry.Do(
		func() error {
			payload, err := c.source.FetchOverview(ctx, seriesID)
			if err != nil {
				return err
			}
			if len(payload) == 0 {
				return errEmptyOverview
			}
			return c.writeEntry(seriesID, payload)
		},
		retry.Attempts(detailAttempts),
		retry.Delay(detailRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(attempt uint, err error) {
			log.WithFields(log.Fields{
				"series":  seriesID,
				"attempt": attempt + 1,
				"error":   err,
			}).Warn("retry downloading details data")
		}),
	)
}

func (c *SeriesCache) writeEntry(seriesID string, payload []byte) error {
	file, err := os.OpenFile(c.path(seriesID), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, cacheFilePerms)
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(payload); err != nil {
		os.Remove(c.path(seriesID))
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

func (c *SeriesCache) decode(seriesID string) (*gracenote.Overview, error) {
	data, err := os.ReadFile(c.path(seriesID))
	if err != nil {
		return nil, domain.ErrDetailUnavailable
	}

	var overview gracenote.Overview
	if err := json.Unmarshal(data, &overview); err != nil {
		log.WithFields(log.Fields{
			"series": seriesID,
			"error":  err,
		}).Warn("could not parse details data, deleting file")
		c.Remove(seriesID)
		return nil, domain.ErrDetailUnavailable
	}
	return &overview, nil
}

// Remove deletes the series cache entry. Callers invoke it when the series
// still carries placeholder listings.
func (c *SeriesCache) Remove(seriesID string) {
	if err := os.Remove(c.path(seriesID)); err != nil && !os.IsNotExist(err) {
		log.WithFields(log.Fields{
			"series": seriesID,
			"error":  err,
		}).Warn("error deleting cache entry")
	}
}

// Prune deletes every series entry whose id is not in the referenced set.
// Window entries (numeric names) are left alone.
func (c *SeriesCache) Prune(referenced map[string]struct{}) {
	log.Info("checking for old series cache files")

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("could not read cache directory")
		}
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, seriesExt) {
			continue
		}
		id := strings.TrimSuffix(name, seriesExt)
		if isNumeric(id) {
			continue
		}
		if _, ok := referenced[id]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil {
			log.WithFields(log.Fields{
				"entry": name,
				"error": err,
			}).Warn("error deleting old series cache entry")
			continue
		}
		log.WithField("entry", name).Info("deleting old series cache")
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
