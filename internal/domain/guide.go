package domain

import (
	"sort"
	"strconv"
	"time"
)

// PlaceholderMarker flags unpublished listings. A window or series detail
// containing it is discarded so the next run fetches fresh data.
const PlaceholderMarker = "TBA"

// Station is one broadcast channel, keyed by the provider channel id.
type Station struct {
	ID       string
	CallSign string
	Icon     string
	// Number is the derived display number, optionally carrying a ".N"
	// sub-number appended from the call sign.
	Number string
	// Alias is the matched receiver channel name, empty when no match was
	// found or matching is disabled.
	Alias string
	// Episodes is keyed by the airing start epoch rendered as a string; a
	// station airs at most one program per start time.
	Episodes map[string]*Episode
}

// Episode is one airing instance. Enrichment fields stay zero until the
// series-detail and description stages fill them in place.
type Episode struct {
	ProgramID string
	Start     int64
	End       int64
	Duration  int
	Show      string
	Title     string
	Desc      string
	Year      string
	Rating    string
	Flags     []string
	Tags      []string
	Season    string
	Number    string
	Thumb     string
	SeriesID  string
	Filters   []string

	// Filled by series-detail enrichment.
	OriginalAirDate int64
	StarRating      string
	Image           string
	Background      string
	Genres          []string
	Cast            []string

	// Filled by the description composer when composed mode is on.
	Composed string
}

// IsMovie reports whether the airing is a movie listing.
func (e *Episode) IsMovie() bool {
	return len(e.ProgramID) >= 2 && e.ProgramID[:2] == "MV"
}

// Flagged reports whether any of the given flags is set on the episode.
func (e *Episode) Flagged(names ...string) bool {
	for _, flag := range e.Flags {
		for _, name := range names {
			if flag == name {
				return true
			}
		}
	}
	return false
}

// Schedule is the aggregate program guide, built fresh each run.
type Schedule struct {
	Stations map[string]*Station
}

func NewSchedule() *Schedule {
	return &Schedule{Stations: make(map[string]*Station)}
}

// SortedStations returns the stations in output order: ascending by the
// numeric value of the display number when every number parses, otherwise
// ascending by call sign.
func (s *Schedule) SortedStations() []*Station {
	stations := make([]*Station, 0, len(s.Stations))
	for _, station := range s.Stations {
		stations = append(stations, station)
	}

	numeric := true
	for _, station := range stations {
		if _, err := strconv.ParseFloat(station.Number, 64); err != nil {
			numeric = false
			break
		}
	}

	if numeric {
		sort.Slice(stations, func(i, j int) bool {
			a, _ := strconv.ParseFloat(stations[i].Number, 64)
			b, _ := strconv.ParseFloat(stations[j].Number, 64)
			return a < b
		})
	} else {
		sort.Slice(stations, func(i, j int) bool {
			return stations[i].CallSign < stations[j].CallSign
		})
	}
	return stations
}

// SortedEpisodes returns the station's airings in ascending start order.
func (st *Station) SortedEpisodes() []*Episode {
	episodes := make([]*Episode, 0, len(st.Episodes))
	for _, episode := range st.Episodes {
		episodes = append(episodes, episode)
	}
	sort.Slice(episodes, func(i, j int) bool {
		return episodes[i].Start < episodes[j].Start
	})
	return episodes
}

// RunResult summarizes one completed pipeline run.
type RunResult struct {
	Elapsed  time.Duration
	Stations int
	Episodes int
}
