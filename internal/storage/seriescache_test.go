package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/amaumene/gridguide/internal/domain"
)

type fakeOverviewSource struct {
	payloads map[string][]byte
	err      error
	calls    int
}

func (f *fakeOverviewSource) FetchOverview(ctx context.Context, seriesID string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payloads[seriesID], nil
}

const overviewJSON = `{
	"seriesImage": "p123_b_v4",
	"backgroundImage": "p123_bg",
	"seriesGenres": "Comedy|Sitcom",
	"upcomingEpisodeTab": [
		{"tmsID": "EP000000010001", "originalAirDate": "2024-05-01T00:00Z", "episodeTitle": "Pilot"}
	]
}`

func TestSeriesCache_FetchDownloadsAndPersists(t *testing.T) {
	dir := t.TempDir()
	source := &fakeOverviewSource{payloads: map[string][]byte{"EP00000001": []byte(overviewJSON)}}
	cache := NewSeriesCache(dir, source)
	ctx := context.Background()

	detail, err := cache.Fetch(ctx, "EP00000001")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if detail.SeriesImage != "p123_b_v4" {
		t.Errorf("SeriesImage = %q, want %q", detail.SeriesImage, "p123_b_v4")
	}
	if detail.SeriesGenres != "Comedy|Sitcom" {
		t.Errorf("SeriesGenres = %q, want %q", detail.SeriesGenres, "Comedy|Sitcom")
	}

	if _, err := cache.Fetch(ctx, "EP00000001"); err != nil {
		t.Fatalf("Fetch() second call error = %v", err)
	}
	if source.calls != 1 {
		t.Errorf("source calls = %d, want 1 (second fetch must hit the cache)", source.calls)
	}
}

func TestSeriesCache_ZeroLengthEntry(t *testing.T) {
	dir := t.TempDir()
	source := &fakeOverviewSource{}
	cache := NewSeriesCache(dir, source)

	path := filepath.Join(dir, "EP00000002.json")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("writing empty entry: %v", err)
	}

	_, err := cache.Fetch(context.Background(), "EP00000002")
	if !errors.Is(err, domain.ErrDetailUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrDetailUnavailable", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("zero-length entry still on disk, want deleted")
	}
	if source.calls != 0 {
		t.Errorf("source calls = %d, want 0", source.calls)
	}
}

func TestSeriesCache_MalformedEntryDeleted(t *testing.T) {
	dir := t.TempDir()
	cache := NewSeriesCache(dir, &fakeOverviewSource{})

	path := filepath.Join(dir, "EP00000003.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatalf("writing malformed entry: %v", err)
	}

	_, err := cache.Fetch(context.Background(), "EP00000003")
	if !errors.Is(err, domain.ErrDetailUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrDetailUnavailable", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("malformed entry still on disk, want deleted")
	}
}

func TestSeriesCache_FailedSeriesNotRetriedThisRun(t *testing.T) {
	source := &fakeOverviewSource{err: errors.New("connection refused")}
	cache := NewSeriesCache(t.TempDir(), source)
	ctx := context.Background()

	if _, err := cache.Fetch(ctx, "EP00000004"); !errors.Is(err, domain.ErrDetailUnavailable) {
		t.Fatalf("Fetch() error = %v, want ErrDetailUnavailable", err)
	}
	attempts := source.calls
	if attempts != detailAttempts {
		t.Errorf("source calls = %d, want %d retry attempts", attempts, detailAttempts)
	}

	if _, err := cache.Fetch(ctx, "EP00000004"); !errors.Is(err, domain.ErrDetailUnavailable) {
		t.Fatalf("Fetch() second call error = %v, want ErrDetailUnavailable", err)
	}
	if source.calls != attempts {
		t.Errorf("source calls = %d after second fetch, want %d (failed series must not be retried)", source.calls, attempts)
	}
}

func TestSeriesCache_EmptyResponseRetried(t *testing.T) {
	source := &fakeOverviewSource{payloads: map[string][]byte{}}
	cache := NewSeriesCache(t.TempDir(), source)

	if _, err := cache.Fetch(context.Background(), "EP00000005"); !errors.Is(err, domain.ErrDetailUnavailable) {
		t.Fatalf("Fetch() error = %v, want ErrDetailUnavailable", err)
	}
	if source.calls != detailAttempts {
		t.Errorf("source calls = %d, want %d (empty responses are retried)", source.calls, detailAttempts)
	}
}

func TestSeriesCache_Prune(t *testing.T) {
	dir := t.TempDir()
	cache := NewSeriesCache(dir, &fakeOverviewSource{})

	files := []string{"EP00000006.json", "SH00000007.json", "1700000000.json.gz"}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatalf("writing entry %s: %v", name, err)
		}
	}

	cache.Prune(map[string]struct{}{"EP00000006": {}})

	tests := []struct {
		name     string
		wantKept bool
	}{
		{name: "EP00000006.json", wantKept: true},
		{name: "SH00000007.json", wantKept: false},
		{name: "1700000000.json.gz", wantKept: true},
	}
	for _, tt := range tests {
		_, err := os.Stat(filepath.Join(dir, tt.name))
		kept := err == nil
		if kept != tt.wantKept {
			t.Errorf("entry %s kept = %v, want %v", tt.name, kept, tt.wantKept)
		}
	}
}
