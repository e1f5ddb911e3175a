package service

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/amaumene/gridguide/gracenote"
	"github.com/amaumene/gridguide/internal/domain"
)

const airDateLayout = "2006-01-02T15:04:05Z"

// DetailCache is the series-detail lookup the enricher draws from.
type DetailCache interface {
	Fetch(ctx context.Context, seriesID string) (*gracenote.Overview, error)
	Remove(seriesID string)
}

// Enricher applies cached series details to episodes in place: artwork,
// genres, cast, and the original-air-date resolved from the matching
// upcoming-episode entry.
type Enricher struct {
	cache   DetailCache
	dropped map[string]struct{}
}

func NewEnricher(cache DetailCache) *Enricher {
	return &Enricher{
		cache:   cache,
		dropped: make(map[string]struct{}),
	}
}

// Enrich walks the schedule in channel order and returns the set of series
// ids still referenced by it, for cache pruning. A series whose upcoming
// listings carry a placeholder subtitle is deleted from the cache and
// dropped for the rest of the run; its episodes keep base data only.
func (e *Enricher) Enrich(ctx context.Context, schedule *domain.Schedule) map[string]struct{} {
	referenced := make(map[string]struct{})

	for _, station := range schedule.SortedStations() {
		for _, episode := range station.SortedEpisodes() {
			if err := ctx.Err(); err != nil {
				return referenced
			}
			if episode.SeriesID == "" {
				continue
			}
			referenced[episode.SeriesID] = struct{}{}

			if err := e.enrichEpisode(ctx, episode); err != nil {
				if errors.Is(err, domain.ErrSeriesPlaceholder) {
					delete(referenced, episode.SeriesID)
				}
			}
		}
	}
	return referenced
}

func (e *Enricher) enrichEpisode(ctx context.Context, episode *domain.Episode) error {
	if _, gone := e.dropped[episode.SeriesID]; gone {
		return domain.ErrSeriesPlaceholder
	}

	detail, err := e.cache.Fetch(ctx, episode.SeriesID)
	if err != nil {
		return err
	}

	episode.Image = detail.SeriesImage
	episode.Background = detail.BackgroundImage

	genres := detail.SeriesGenres
	if episode.IsMovie() {
		genres = "Movie|" + genres
		episode.Cast = castNames(detail.OverviewTab.Cast)
	}
	episode.Genres = splitGenres(genres)

	return e.applyUpcoming(episode, detail)
}

// applyUpcoming resolves the original-air-date from the upcoming-episode
// entry matching the airing's program id, and detects placeholder subtitles
// that invalidate the whole series for this run.
func (e *Enricher) applyUpcoming(episode *domain.Episode, detail *gracenote.Overview) error {
	for _, airing := range detail.UpcomingEpisodes {
		if !strings.EqualFold(episode.ProgramID, airing.TmsID) {
			continue
		}

		if airing.OriginalAirDate != "" {
			if aired, err := parseAirDate(airing.OriginalAirDate); err == nil {
				episode.OriginalAirDate = aired
			} else {
				log.WithFields(log.Fields{
					"program": episode.ProgramID,
					"date":    airing.OriginalAirDate,
					"error":   err,
				}).Warn("could not parse original air date")
			}
		}

		if strings.Contains(airing.EpisodeTitle, domain.PlaceholderMarker) {
			log.WithField("series", episode.SeriesID).Info("deleting series cache due to TBA listings")
			e.cache.Remove(episode.SeriesID)
			e.dropped[episode.SeriesID] = struct{}{}
			return domain.ErrSeriesPlaceholder
		}
	}
	return nil
}

// parseAirDate handles the provider's bare-Z timestamps by inserting the
// missing seconds before parsing.
func parseAirDate(raw string) (int64, error) {
	normalized := strings.Replace(raw, "Z", ":00Z", 1)
	aired, err := time.Parse(airDateLayout, normalized)
	if err != nil {
		return 0, err
	}
	return aired.Unix(), nil
}

func castNames(cast []gracenote.CastMember) []string {
	names := make([]string, 0, len(cast))
	for _, member := range cast {
		names = append(names, member.Name)
	}
	return names
}

func splitGenres(raw string) []string {
	parts := strings.Split(raw, "|")
	genres := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			genres = append(genres, part)
		}
	}
	return genres
}
