package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/amaumene/gridguide/gracenote"
	"github.com/amaumene/gridguide/internal/domain"
)

const eventTimeLayout = "2006-01-02T15:04:05Z"

var trailingDigitsPattern = regexp.MustCompile(`(\d+)$`)

// DecodeGrid structurally validates a raw window payload.
func DecodeGrid(payload []byte) (*gracenote.Grid, error) {
	var grid gracenote.Grid
	if err := json.Unmarshal(payload, &grid); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return &grid, nil
}

// AssemblerOptions configure station filtering and number derivation.
type AssemblerOptions struct {
	// StationIDs limits ingestion to the listed channel ids; empty keeps all.
	StationIDs []string
	// ChannelMatch appends a call-sign derived sub-number to numbers that
	// have none.
	ChannelMatch bool
	// ReceiverMatch attaches receiver aliases to sub-numbered channels.
	ReceiverMatch bool
	// Aliases is the receiver's number-to-name directory; nil skips matching.
	Aliases map[string]string
}

// Assembler merges decoded grid windows into the Schedule model.
type Assembler struct {
	opts     AssemblerOptions
	filter   map[string]struct{}
	schedule *domain.Schedule
}

func NewAssembler(opts AssemblerOptions) *Assembler {
	var filter map[string]struct{}
	if len(opts.StationIDs) > 0 {
		filter = make(map[string]struct{}, len(opts.StationIDs))
		for _, id := range opts.StationIDs {
			filter[id] = struct{}{}
		}
	}
	return &Assembler{
		opts:     opts,
		filter:   filter,
		schedule: domain.NewSchedule(),
	}
}

func (a *Assembler) Schedule() *domain.Schedule {
	return a.schedule
}

func (a *Assembler) keep(channelID string) bool {
	if a.filter == nil {
		return true
	}
	_, ok := a.filter[channelID]
	return ok
}

// IngestStations populates the station set from one window payload. It runs
// once, on the first successfully parsed window; repeated runs on the same
// payload are idempotent.
func (a *Assembler) IngestStations(grid *gracenote.Grid) {
	for _, channel := range grid.Channels {
		if channel.ChannelID == "" || !a.keep(channel.ChannelID) {
			continue
		}

		station := &domain.Station{
			ID:       channel.ChannelID,
			CallSign: channel.CallSign,
			Icon:     strings.SplitN(channel.Thumbnail, "?", 2)[0],
			Number:   a.displayNumber(channel.ChannelNo, channel.CallSign),
			Episodes: make(map[string]*domain.Episode),
		}

		if a.opts.ReceiverMatch && strings.Contains(station.Number, ".") {
			if name, ok := a.opts.Aliases[station.Number]; ok {
				station.Alias = name
			}
		}

		a.schedule.Stations[station.ID] = station
	}

	log.WithField("stations", len(a.schedule.Stations)).Info("stations added to schedule")
}

// displayNumber derives the rendered channel number. A raw number without a
// sub-number gains the call sign's trailing digit run (default ".1") when
// channel matching is on; otherwise the raw number passes through.
func (a *Assembler) displayNumber(raw, callSign string) string {
	if strings.Contains(raw, ".") || !a.opts.ChannelMatch || callSign == "" {
		return raw
	}
	if sub := trailingDigitsPattern.FindString(callSign); sub != "" {
		return raw + "." + sub
	}
	return raw + ".1"
}

// IngestEpisodes merges one window's airings into the already ingested
// stations; channels absent from the Schedule are ignored. It reports
// whether the window carried a placeholder title and must be discarded.
func (a *Assembler) IngestEpisodes(grid *gracenote.Grid) (unsafe bool) {
	for _, channel := range grid.Channels {
		station, ok := a.schedule.Stations[channel.ChannelID]
		if !ok {
			continue
		}

		for _, event := range channel.Events {
			episode, err := buildEpisode(event)
			if err != nil {
				log.WithFields(log.Fields{
					"station": channel.ChannelID,
					"program": event.Program.TmsID,
					"error":   err,
				}).Warn("skipping airing")
				continue
			}

			station.Episodes[strconv.FormatInt(episode.Start, 10)] = episode

			if strings.Contains(episode.Show, domain.PlaceholderMarker) ||
				strings.Contains(episode.Title, domain.PlaceholderMarker) {
				unsafe = true
			}
		}
	}
	return unsafe
}

func buildEpisode(event gracenote.Event) (*domain.Episode, error) {
	start, err := time.Parse(eventTimeLayout, event.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parsing start time: %w", err)
	}
	end, err := time.Parse(eventTimeLayout, event.EndTime)
	if err != nil {
		return nil, fmt.Errorf("parsing end time: %w", err)
	}

	return &domain.Episode{
		ProgramID: event.Program.TmsID,
		Start:     start.Unix(),
		End:       end.Unix(),
		Duration:  event.Duration,
		Show:      event.Program.Title,
		Title:     event.Program.EpisodeTitle,
		Desc:      event.Program.ShortDesc,
		Year:      event.Program.ReleaseYear,
		Rating:    event.Rating,
		Flags:     event.Flag,
		Tags:      event.Tags,
		Season:    event.Program.Season,
		Number:    event.Program.Episode,
		Thumb:     event.Thumbnail,
		SeriesID:  event.SeriesID,
		Filters:   event.Filter,
	}, nil
}
