package service

import (
	"context"
	"testing"

	"github.com/amaumene/gridguide/gracenote"
	"github.com/amaumene/gridguide/internal/domain"
)

type fakeDetailCache struct {
	details map[string]*gracenote.Overview
	err     error
	fetches int
	removed []string
}

func (f *fakeDetailCache) Fetch(ctx context.Context, seriesID string) (*gracenote.Overview, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.details[seriesID], nil
}

func (f *fakeDetailCache) Remove(seriesID string) {
	f.removed = append(f.removed, seriesID)
}

func enrichSchedule(seriesID, programID string) *domain.Schedule {
	schedule := domain.NewSchedule()
	schedule.Stations["10001"] = &domain.Station{
		ID:     "10001",
		Number: "7.1",
		Episodes: map[string]*domain.Episode{
			"1714586400": {
				ProgramID: programID,
				Start:     1714586400,
				End:       1714588200,
				SeriesID:  seriesID,
			},
		},
	}
	return schedule
}

func TestEnricher_AppliesDetails(t *testing.T) {
	cache := &fakeDetailCache{details: map[string]*gracenote.Overview{
		"EP00000001": {
			SeriesImage:     "p1_art",
			BackgroundImage: "p1_bg",
			SeriesGenres:    "Comedy|Sitcom",
			UpcomingEpisodes: []gracenote.UpcomingEpisode{
				{TmsID: "ep000000010001", OriginalAirDate: "2024-05-01T00:00Z", EpisodeTitle: "Pilot"},
			},
		},
	}}

	schedule := enrichSchedule("EP00000001", "EP000000010001")
	referenced := NewEnricher(cache).Enrich(context.Background(), schedule)

	if _, ok := referenced["EP00000001"]; !ok {
		t.Error("series missing from referenced set")
	}

	episode := schedule.Stations["10001"].Episodes["1714586400"]
	if episode.Image != "p1_art" || episode.Background != "p1_bg" {
		t.Errorf("artwork = %q/%q, want p1_art/p1_bg", episode.Image, episode.Background)
	}
	if len(episode.Genres) != 2 || episode.Genres[0] != "Comedy" || episode.Genres[1] != "Sitcom" {
		t.Errorf("Genres = %v, want [Comedy Sitcom]", episode.Genres)
	}
	if episode.OriginalAirDate != 1714521600 {
		t.Errorf("OriginalAirDate = %d, want 1714521600 (case-insensitive id match)", episode.OriginalAirDate)
	}
}

func TestEnricher_MovieGenresAndCast(t *testing.T) {
	cache := &fakeDetailCache{details: map[string]*gracenote.Overview{
		"MV01234567": {
			SeriesGenres: "Thriller",
			OverviewTab: gracenote.OverviewTab{
				Cast: []gracenote.CastMember{{Name: "Ann Lee"}, {Name: "Bob Roy"}},
			},
		},
	}}

	schedule := enrichSchedule("MV01234567", "MV012345670000")
	NewEnricher(cache).Enrich(context.Background(), schedule)

	episode := schedule.Stations["10001"].Episodes["1714586400"]
	if len(episode.Genres) != 2 || episode.Genres[0] != "Movie" || episode.Genres[1] != "Thriller" {
		t.Errorf("Genres = %v, want [Movie Thriller]", episode.Genres)
	}
	if len(episode.Cast) != 2 || episode.Cast[0] != "Ann Lee" {
		t.Errorf("Cast = %v, want [Ann Lee Bob Roy]", episode.Cast)
	}
}

func TestEnricher_PlaceholderSeriesDropped(t *testing.T) {
	cache := &fakeDetailCache{details: map[string]*gracenote.Overview{
		"EP00000002": {
			UpcomingEpisodes: []gracenote.UpcomingEpisode{
				{TmsID: "EP000000020001", EpisodeTitle: "TBA"},
			},
		},
	}}

	schedule := enrichSchedule("EP00000002", "EP000000020001")
	schedule.Stations["10001"].Episodes["1714590000"] = &domain.Episode{
		ProgramID: "EP000000020001",
		Start:     1714590000,
		End:       1714591800,
		SeriesID:  "EP00000002",
	}

	referenced := NewEnricher(cache).Enrich(context.Background(), schedule)

	if _, ok := referenced["EP00000002"]; ok {
		t.Error("placeholder series still referenced, want pruned")
	}
	if len(cache.removed) != 1 || cache.removed[0] != "EP00000002" {
		t.Errorf("removed = %v, want one deletion of EP00000002", cache.removed)
	}
	if cache.fetches != 1 {
		t.Errorf("fetches = %d, want 1 (dropped series must not be refetched)", cache.fetches)
	}
}

func TestEnricher_UnavailableDetailKeepsBaseData(t *testing.T) {
	cache := &fakeDetailCache{err: domain.ErrDetailUnavailable}
	schedule := enrichSchedule("EP00000003", "EP000000030001")

	referenced := NewEnricher(cache).Enrich(context.Background(), schedule)

	if _, ok := referenced["EP00000003"]; !ok {
		t.Error("unavailable series missing from referenced set, want kept")
	}
	episode := schedule.Stations["10001"].Episodes["1714586400"]
	if episode.Image != "" || len(episode.Genres) != 0 {
		t.Error("episode gained detail fields despite unavailable series")
	}
}

func TestParseAirDate(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "2024-05-01T00:00Z", want: 1714521600},
		{raw: "2024-05-01T18:30Z", want: 1714588200},
		{raw: "garbage", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseAirDate(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAirDate(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAirDate(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
