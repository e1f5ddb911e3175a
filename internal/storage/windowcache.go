package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"

	"github.com/amaumene/gridguide/internal/domain"
)

const (
	windowExt      = ".json.gz"
	secondsPerDay  = 86400
	cacheFilePerms = 0644
)

// WindowCache fetches and persists one grid window per provider time offset.
type WindowCache struct {
	dir           string
	source        domain.GridSource
	retentionDays int
}

func NewWindowCache(dir string, source domain.GridSource, retentionDays int) *WindowCache {
	return &WindowCache{
		dir:           dir,
		source:        source,
		retentionDays: retentionDays,
	}
}

func (c *WindowCache) path(epoch int64) string {
	return filepath.Join(c.dir, strconv.FormatInt(epoch, 10)+windowExt)
}

// Fetch returns the window's raw bytes, reading the cache entry when one
// exists and downloading otherwise. A window that cannot be fetched or read
// back yields domain.ErrWindowUnavailable; the run continues without it.
func (c *WindowCache) Fetch(ctx context.Context, epoch int64) ([]byte, error) {
	data, err := c.readEntry(epoch)
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		// Corrupt entry: delete so it is never read twice, no data this run.
		log.WithFields(log.Fields{
			"window": epoch,
			"error":  err,
		}).Warn("cache entry unreadable, deleting")
		c.Remove(epoch)
		return nil, domain.ErrWindowUnavailable
	}
	return c.download(ctx, epoch)
}

// Prime downloads and persists the window only when no cache entry exists.
// Distinct epochs write distinct files, so primes can run concurrently.
func (c *WindowCache) Prime(ctx context.Context, epoch int64) error {
	if _, err := os.Stat(c.path(epoch)); err == nil {
		return nil
	}
	_, err := c.download(ctx, epoch)
	return err
}

func (c *WindowCache) download(ctx context.Context, epoch int64) ([]byte, error) {
	log.WithField("window", epoch).Info("downloading guide data")

	payload, err := c.source.FetchGrid(ctx, epoch)
	if err != nil {
		log.WithFields(log.Fields{
			"window": epoch,
			"error":  err,
		}).Warn("could not download guide data")
		return nil, domain.ErrWindowUnavailable
	}

	if err := c.writeEntry(epoch, payload); err != nil {
		return nil, fmt.Errorf("persisting window %d: %w", epoch, err)
	}
	return payload, nil
}

func (c *WindowCache) readEntry(epoch int64) ([]byte, error) {
	file, err := os.Open(c.path(epoch))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("opening compressed entry: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("decompressing entry: %w", err)
	}
	return data, nil
}

func (c *WindowCache) writeEntry(epoch int64, payload []byte) error {
	file, err := os.OpenFile(c.path(epoch), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, cacheFilePerms)
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	defer file.Close()

	writer := gzip.NewWriter(file)
	if _, err := writer.Write(payload); err != nil {
		writer.Close()
		os.Remove(c.path(epoch))
		return fmt.Errorf("compressing cache entry: %w", err)
	}
	if err := writer.Close(); err != nil {
		os.Remove(c.path(epoch))
		return fmt.Errorf("flushing cache entry: %w", err)
	}
	return nil
}

// Remove deletes the window's cache entry. Callers invoke it when a stored
// payload is malformed or contains placeholder listings.
func (c *WindowCache) Remove(epoch int64) {
	if err := os.Remove(c.path(epoch)); err != nil && !os.IsNotExist(err) {
		log.WithFields(log.Fields{
			"window": epoch,
			"error":  err,
		}).Warn("error deleting cache entry")
	}
}

// Sweep deletes every window entry outside the retention horizon: keys below
// gridStart plus retentionDays. Series entries (non-numeric names) are left
// alone.
func (c *WindowCache) Sweep(gridStart int64) {
	log.Info("checking for old cache files")

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("could not read cache directory")
		}
		return
	}

	horizon := gridStart + int64(c.retentionDays)*secondsPerDay
	for _, entry := range entries {
		key := strings.SplitN(entry.Name(), ".", 2)[0]
		epoch, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		if epoch < horizon {
			if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
				log.WithFields(log.Fields{
					"entry": entry.Name(),
					"error": err,
				}).Warn("error deleting old cache entry")
				continue
			}
			log.WithField("entry", entry.Name()).Info("deleting old cache")
		}
	}
}
