package gracenote

// Grid is the decoded grid document: one three hour schedule slice.
type Grid struct {
	Channels []Channel `json:"channels"`
}

type Channel struct {
	ChannelID string  `json:"channelId"`
	CallSign  string  `json:"callSign"`
	ChannelNo string  `json:"channelNo"`
	Thumbnail string  `json:"thumbnail"`
	Events    []Event `json:"events"`
}

type Event struct {
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	Duration  int      `json:"duration"`
	Rating    string   `json:"rating"`
	Flag      []string `json:"flag"`
	Tags      []string `json:"tags"`
	Thumbnail string   `json:"thumbnail"`
	SeriesID  string   `json:"seriesId"`
	Filter    []string `json:"filter"`
	Program   Program  `json:"program"`
}

type Program struct {
	TmsID        string `json:"tmsId"`
	Title        string `json:"title"`
	EpisodeTitle string `json:"episodeTitle"`
	ShortDesc    string `json:"shortDesc"`
	ReleaseYear  string `json:"releaseYear"`
	Season       string `json:"season"`
	Episode      string `json:"episode"`
}

// Overview is the decoded per-series overview document.
type Overview struct {
	SeriesImage      string            `json:"seriesImage"`
	BackgroundImage  string            `json:"backgroundImage"`
	SeriesGenres     string            `json:"seriesGenres"`
	OverviewTab      OverviewTab       `json:"overviewTab"`
	UpcomingEpisodes []UpcomingEpisode `json:"upcomingEpisodeTab"`
}

type OverviewTab struct {
	Cast []CastMember `json:"cast"`
}

type CastMember struct {
	Name string `json:"name"`
}

type UpcomingEpisode struct {
	TmsID           string `json:"tmsID"`
	OriginalAirDate string `json:"originalAirDate"`
	EpisodeTitle    string `json:"episodeTitle"`
}
