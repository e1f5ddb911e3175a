package service

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/amaumene/gridguide/internal/domain"
)

const (
	documentEncoding = "utf-8"
	channelIDSuffix  = ".gridguide"
	programmeLang    = "en"
	assetURLPrefix   = "https://zap2it.tmsimg.com/assets/"
	timestampLayout  = "20060102150405"
)

// Icon emission modes; values match the settings file.
const (
	IconsOff = iota
	IconsArtwork
	IconsThumbnail
)

// genreCategories translates provider filter keywords into output category
// tags, in the order the receiver UI lists them.
var genreCategories = map[string]string{
	"art":           "Arts / Culture (without music)",
	"children":      "Children's / Youth programs",
	"family":        "Children's / Youth programs",
	"education":     "Education / Science / Factual topics",
	"how-to":        "Leisure hobbies",
	"movie":         "Movie / Drama",
	"movies":        "Movie / Drama",
	"music":         "Music / Ballet / Dance",
	"news":          "News / Current affairs",
	"game-show":     "Game show / Quiz / Contest",
	"law":           "Show / Game show",
	"talk":          "Talk show",
	"politics":      "Social / Political issues / Economics",
	"sports":        "Sports",
	"entertainment": "Popular culture / Traditional Arts",
	"travel":        "Tourism / Travel",
	"sitcom":        "Variety show",
	"animated":      "Cartoons / Puppets",
}

// XMLTVOptions configure the rendering modes.
type XMLTVOptions struct {
	// ComposedDescriptions emits the token-composed description instead of
	// the provider's short description.
	ComposedDescriptions bool
	// DescriptionOrder is the token order for composed descriptions.
	DescriptionOrder []Token
	// IconMode selects programme icon emission.
	IconMode int
	// Genres enables category tag emission.
	Genres bool
}

// Stats reports what one render pass emitted.
type Stats struct {
	Stations int
	Episodes int
}

// XMLTVWriter serializes a Schedule into an XMLTV document, deterministically
// ordered: channels in display order, then programmes per channel by start
// time.
type XMLTVWriter struct {
	opts XMLTVOptions
}

func NewXMLTVWriter(opts XMLTVOptions) *XMLTVWriter {
	return &XMLTVWriter{opts: opts}
}

// Render produces the document bytes and emission counts. A programme that
// cannot be rendered is logged and skipped; the document continues.
func (w *XMLTVWriter) Render(schedule *domain.Schedule) ([]byte, Stats) {
	log.Info("creating xmltv document")

	var b strings.Builder
	stats := Stats{}

	writeHeader(&b)

	stations := schedule.SortedStations()
	for _, station := range stations {
		writeChannel(&b, station)
		stats.Stations++
	}

	offset := localHourOffset(time.Now())
	for _, station := range stations {
		for _, episode := range station.SortedEpisodes() {
			if err := w.writeProgramme(&b, station, episode, offset); err != nil {
				log.WithFields(log.Fields{
					"station": station.ID,
					"episode": episode.Start,
					"error":   err,
				}).Warn("no data for episode, skipping")
				continue
			}
			stats.Episodes++
		}
	}

	b.WriteString("</tv>\n")
	return []byte(b.String()), stats
}

func writeHeader(b *strings.Builder) {
	b.WriteString("<?xml version=\"1.0\" encoding=\"" + documentEncoding + "\"?>\n")
	b.WriteString("<?xml-stylesheet href=\"xmltv.xsl\" type=\"text/xsl\"?>\n")
	b.WriteString("<!DOCTYPE tv SYSTEM \"xmltv.dtd\">\n\n")
	b.WriteString("<tv source-info-url=\"http://tvschedule.gracenote.com/\" source-info-name=\"gracenote.com\">\n")
}

func writeChannel(b *strings.Builder, station *domain.Station) {
	b.WriteString("\t<channel id=\"" + station.ID + channelIDSuffix + "\">\n")
	if station.Alias != "" {
		b.WriteString("\t\t<display-name>" + escape(station.Alias) + "</display-name>\n")
	}
	switch {
	case station.Number != "" && station.CallSign != "":
		b.WriteString("\t\t<display-name>" + station.Number + " " + escape(station.CallSign) + "</display-name>\n")
		b.WriteString("\t\t<display-name>" + escape(station.CallSign) + "</display-name>\n")
		b.WriteString("\t\t<display-name>" + station.Number + "</display-name>\n")
	case station.CallSign != "":
		b.WriteString("\t\t<display-name>" + escape(station.CallSign) + "</display-name>\n")
	case station.Number != "":
		b.WriteString("\t\t<display-name>" + station.Number + "</display-name>\n")
	}
	if station.Icon != "" {
		b.WriteString("\t\t<icon src=\"http:" + station.Icon + "\" />\n")
	}
	b.WriteString("\t</channel>\n")
}

func (w *XMLTVWriter) writeProgramme(b *strings.Builder, station *domain.Station, episode *domain.Episode, offset string) error {
	if episode.Start <= 0 || episode.End <= 0 {
		return fmt.Errorf("missing schedule times")
	}

	start := localTimestamp(episode.Start)
	stop := localTimestamp(episode.End)
	b.WriteString("\t<programme start=\"" + start + " " + offset + "\" stop=\"" + stop + " " + offset +
		"\" channel=\"" + station.ID + channelIDSuffix + "\">\n")

	if len(episode.ProgramID) > 4 {
		b.WriteString("\t\t<episode-num system=\"dd_progid\">" +
			episode.ProgramID[:len(episode.ProgramID)-4] + "." + episode.ProgramID[len(episode.ProgramID)-4:] +
			"</episode-num>\n")
	}
	if episode.Show != "" {
		b.WriteString("\t\t<title lang=\"" + programmeLang + "\">" + escape(episode.Show) + "</title>\n")
	}
	if episode.Title != "" {
		b.WriteString("\t\t<sub-title lang=\"" + programmeLang + "\">" + escape(episode.Title) + "</sub-title>\n")
	} else if episode.Year != "" {
		b.WriteString("\t\t<sub-title lang=\"" + programmeLang + "\">Movie (" + episode.Year + ")</sub-title>\n")
	}

	w.writeDescription(b, episode)
	writeEpisodeNumbers(b, episode)

	if episode.Year != "" {
		b.WriteString("\t\t<date>" + episode.Year + "</date>\n")
	}

	w.writeIcon(b, episode)
	writeAiringMarkers(b, episode, offset)
	writeRatings(b, episode)
	if w.opts.Genres {
		writeCategories(b, episode)
	}

	b.WriteString("\t</programme>\n")
	return nil
}

func (w *XMLTVWriter) writeDescription(b *strings.Builder, episode *domain.Episode) {
	if w.opts.ComposedDescriptions {
		composed := Compose(episode, w.opts.DescriptionOrder)
		episode.Composed = composed
		b.WriteString("\t\t<desc lang=\"" + programmeLang + "\">" + escape(composed) + "</desc>\n")
		return
	}
	if episode.Desc != "" {
		b.WriteString("\t\t<desc lang=\"" + programmeLang + "\">" + escape(episode.Desc) + "</desc>\n")
	}
}

func writeEpisodeNumbers(b *strings.Builder, episode *domain.Episode) {
	season, okS := numberValue(episode.Season)
	number, okE := numberValue(episode.Number)
	if !okS || !okE {
		return
	}
	b.WriteString(fmt.Sprintf("\t\t<episode-num system=\"onscreen\">S%02dE%02d</episode-num>\n", season, number))
	b.WriteString(fmt.Sprintf("\t\t<episode-num system=\"xmltv_ns\">%d.%d.</episode-num>\n", season-1, number-1))
}

// writeIcon follows the icon priority: movie listings use the thumbnail;
// otherwise series artwork falls back to the thumbnail, unless the mode
// restricts to thumbnails or disables icons entirely.
func (w *XMLTVWriter) writeIcon(b *strings.Builder, episode *domain.Episode) {
	if w.opts.IconMode == IconsOff {
		return
	}

	ref := ""
	switch {
	case episode.IsMovie():
		ref = episode.Thumb
	case w.opts.IconMode == IconsArtwork:
		ref = episode.Image
		if ref == "" {
			ref = episode.Thumb
		}
	case w.opts.IconMode == IconsThumbnail:
		ref = episode.Thumb
	}

	if ref != "" {
		b.WriteString("\t\t<icon src=\"" + assetURLPrefix + ref + ".jpg\" />\n")
	}
}

func writeAiringMarkers(b *strings.Builder, episode *domain.Episode, offset string) {
	if !episode.Flagged("New", "Live") {
		b.WriteString("\t\t<previously-shown ")
		if episode.OriginalAirDate > 0 {
			b.WriteString("start=\"" + localTimestamp(episode.OriginalAirDate) + " " + offset + "\"")
		}
		b.WriteString(" />\n")
	}
	if episode.Flagged("New") {
		b.WriteString("\t\t<new />\n")
	}
	if episode.Flagged("Live") {
		b.WriteString("\t\t<live />\n")
	}
}

func writeRatings(b *strings.Builder, episode *domain.Episode) {
	if episode.Rating != "" {
		b.WriteString("\t\t<rating>\n\t\t\t<value>" + episode.Rating + "</value>\n\t\t</rating>\n")
	}
	if episode.StarRating != "" {
		b.WriteString("\t\t<star-rating>\n\t\t\t<value>" + episode.StarRating + "/4</value>\n\t\t</star-rating>\n")
	}
}

func writeCategories(b *strings.Builder, episode *domain.Episode) {
	for _, category := range sortCategories(episode.Filters, episode.Genres) {
		b.WriteString("\t\t<category lang=\"" + programmeLang + "\">" + escape(category) + "</category>\n")
	}
}

// sortCategories maps provider filter keywords through the fixed category
// table and appends the raw genre strings.
func sortCategories(filters, genres []string) []string {
	categories := make([]string, 0, len(filters)+len(genres))
	for _, filter := range filters {
		keyword := strings.ToLower(strings.TrimPrefix(filter, "filter-"))
		if category, ok := genreCategories[keyword]; ok {
			categories = append(categories, category)
		} else {
			log.WithField("category", keyword).Warn("unsupported category, will not be stored in the xmltv")
		}
	}
	return append(categories, genres...)
}

func localTimestamp(epoch int64) string {
	return time.Unix(epoch, 0).In(time.Local).Format(timestampLayout)
}

// localHourOffset renders the zone offset at the given instant with minutes
// forced to 00.
func localHourOffset(at time.Time) string {
	_, seconds := at.In(time.Local).Zone()
	return fmt.Sprintf("%+03d00", seconds/3600)
}

// escape applies the document's minimal entity escaping.
func escape(s string) string {
	return strings.ReplaceAll(s, "&", "&amp;")
}
