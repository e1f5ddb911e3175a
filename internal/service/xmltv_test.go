package service

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/amaumene/gridguide/internal/domain"
)

func testSchedule() *domain.Schedule {
	schedule := domain.NewSchedule()
	schedule.Stations["10001"] = &domain.Station{
		ID:       "10001",
		CallSign: "WABC",
		Number:   "7.1",
		Alias:    "ABC East",
		Icon:     "//zap2it.tmsimg.com/h3/s10001.png",
		Episodes: map[string]*domain.Episode{
			"1714586400": {
				ProgramID: "EP000000010001",
				Start:     1714586400,
				End:       1714588200,
				Show:      "Fast & Loose",
				Title:     "Pilot",
				Desc:      "Teams face off.",
				Rating:    "TV-PG",
				Flags:     []string{"New"},
				Season:    "3",
				Number:    "5",
				Filters:   []string{"filter-News"},
				Genres:    []string{"Comedy"},
			},
		},
	}
	return schedule
}

func renderString(t *testing.T, opts XMLTVOptions, schedule *domain.Schedule) (string, Stats) {
	t.Helper()
	doc, stats := NewXMLTVWriter(opts).Render(schedule)
	return string(doc), stats
}

func TestXMLTVWriter_Render(t *testing.T) {
	doc, stats := renderString(t, XMLTVOptions{Genres: true}, testSchedule())

	if stats.Stations != 1 || stats.Episodes != 1 {
		t.Errorf("stats = %+v, want 1 station, 1 episode", stats)
	}
	if !strings.HasPrefix(doc, "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n") {
		t.Error("document missing xml declaration")
	}
	if !strings.HasSuffix(doc, "</tv>\n") {
		t.Error("document missing closing tv element")
	}

	wantChannel := "\t<channel id=\"10001.gridguide\">\n" +
		"\t\t<display-name>ABC East</display-name>\n" +
		"\t\t<display-name>7.1 WABC</display-name>\n" +
		"\t\t<display-name>WABC</display-name>\n" +
		"\t\t<display-name>7.1</display-name>\n" +
		"\t\t<icon src=\"http://zap2it.tmsimg.com/h3/s10001.png\" />\n" +
		"\t</channel>\n"
	if !strings.Contains(doc, wantChannel) {
		t.Errorf("channel block missing or wrong, document:\n%s", doc)
	}

	offset := localHourOffset(time.Now())
	wantOpen := "\t<programme start=\"" + localTimestamp(1714586400) + " " + offset +
		"\" stop=\"" + localTimestamp(1714588200) + " " + offset + "\" channel=\"10001.gridguide\">\n"
	if !strings.Contains(doc, wantOpen) {
		t.Errorf("programme element missing or wrong, document:\n%s", doc)
	}

	for _, want := range []string{
		"<episode-num system=\"dd_progid\">EP00000001.0001</episode-num>",
		"<title lang=\"en\">Fast &amp; Loose</title>",
		"<sub-title lang=\"en\">Pilot</sub-title>",
		"<desc lang=\"en\">Teams face off.</desc>",
		"<episode-num system=\"onscreen\">S03E05</episode-num>",
		"<episode-num system=\"xmltv_ns\">2.4.</episode-num>",
		"<new />",
		"<rating>\n\t\t\t<value>TV-PG</value>\n\t\t</rating>",
		"<category lang=\"en\">News / Current affairs</category>",
		"<category lang=\"en\">Comedy</category>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if strings.Contains(doc, "<previously-shown") {
		t.Error("new airing must not carry previously-shown")
	}
}

func TestXMLTVWriter_MovieProgramme(t *testing.T) {
	schedule := domain.NewSchedule()
	schedule.Stations["10002"] = &domain.Station{
		ID:       "10002",
		CallSign: "TCM",
		Number:   "50.1",
		Episodes: map[string]*domain.Episode{
			"1714586400": {
				ProgramID:       "MV012345670000",
				Start:           1714586400,
				End:             1714593600,
				Show:            "The Big Heist",
				Year:            "1968",
				Thumb:           "p99_thumb",
				Image:           "p99_art",
				StarRating:      "3",
				OriginalAirDate: 1714521600,
			},
		},
	}

	doc, _ := renderString(t, XMLTVOptions{IconMode: IconsArtwork}, schedule)

	if !strings.Contains(doc, "<sub-title lang=\"en\">Movie (1968)</sub-title>") {
		t.Error("movie sub-title fallback missing")
	}
	if !strings.Contains(doc, "<date>1968</date>") {
		t.Error("release date missing")
	}
	if !strings.Contains(doc, "<icon src=\"https://zap2it.tmsimg.com/assets/p99_thumb.jpg\" />") {
		t.Error("movie icon must use the thumbnail, not the series artwork")
	}
	if !strings.Contains(doc, "<star-rating>\n\t\t\t<value>3/4</value>\n\t\t</star-rating>") {
		t.Error("star rating missing")
	}

	offset := localHourOffset(time.Now())
	wantShown := "<previously-shown start=\"" + localTimestamp(1714521600) + " " + offset + "\" />"
	if !strings.Contains(doc, wantShown) {
		t.Errorf("document missing %q", wantShown)
	}
}

func TestXMLTVWriter_IconsOff(t *testing.T) {
	doc, _ := renderString(t, XMLTVOptions{IconMode: IconsOff}, testSchedule())
	if strings.Contains(doc, assetURLPrefix) {
		t.Error("programme icons emitted with icons disabled")
	}
}

func TestXMLTVWriter_ComposedDescription(t *testing.T) {
	opts := XMLTVOptions{
		ComposedDescriptions: true,
		DescriptionOrder:     TokensFromInts([]int{17, 4, 9}),
	}
	doc, _ := renderString(t, opts, testSchedule())
	if !strings.Contains(doc, "<desc lang=\"en\">Pilot  Teams face off. </desc>") {
		t.Errorf("composed description missing, document:\n%s", doc)
	}
}

func TestXMLTVWriter_SkipsEpisodeWithoutTimes(t *testing.T) {
	schedule := testSchedule()
	schedule.Stations["10001"].Episodes["0"] = &domain.Episode{ProgramID: "EP000000010002"}

	doc, stats := renderString(t, XMLTVOptions{}, schedule)
	if stats.Episodes != 1 {
		t.Errorf("episodes = %d, want 1 (timeless airing skipped)", stats.Episodes)
	}
	if strings.Contains(doc, "EP00000001.0002") {
		t.Error("timeless airing rendered, want skipped")
	}
}

func TestLocalHourOffset_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^[+-]\d{4}$`)
	if got := localHourOffset(time.Now()); !pattern.MatchString(got) {
		t.Errorf("localHourOffset() = %q, want signed four-digit offset", got)
	}
}

func TestSortCategories(t *testing.T) {
	got := sortCategories([]string{"filter-Sports", "filter-Obscure"}, []string{"Documentary"})
	want := []string{"Sports", "Documentary"}
	if len(got) != len(want) {
		t.Fatalf("sortCategories() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("category[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
