package domain

import "context"

// GridSource fetches one raw schedule slice from the provider.
type GridSource interface {
	FetchGrid(ctx context.Context, start int64) ([]byte, error)
}

// OverviewSource fetches raw supplemental metadata for one series.
type OverviewSource interface {
	FetchOverview(ctx context.Context, seriesID string) ([]byte, error)
}

// AliasDirectory lists receiver channels as a display-number to name mapping.
type AliasDirectory interface {
	Aliases(ctx context.Context) (map[string]string, error)
}
