package clients

import (
	"context"
	"fmt"

	"github.com/amaumene/gridguide/gracenote"
	"github.com/amaumene/gridguide/internal/config"
)

// gracenoteAdapter implements domain.GridSource and domain.OverviewSource
// against the gracenote listings API.
type gracenoteAdapter struct {
	host       string
	lineupCode string
	country    string
	device     string
	postalCode string
}

func NewGracenoteAdapter(cfg *config.Config) *gracenoteAdapter {
	return &gracenoteAdapter{
		host:       gracenote.DefaultHost,
		lineupCode: cfg.Provider.LineupCode,
		country:    cfg.Country(),
		device:     cfg.Provider.Device,
		postalCode: cfg.Provider.PostalCode,
	}
}

func (a *gracenoteAdapter) FetchGrid(ctx context.Context, start int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := gracenote.FetchGrid(ctx, a.host, gracenote.GridParams{
		LineupCode: a.lineupCode,
		Country:    a.country,
		Device:     a.device,
		PostalCode: a.postalCode,
		Time:       start,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching grid window: %w", err)
	}
	return body, nil
}

func (a *gracenoteAdapter) FetchOverview(ctx context.Context, seriesID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := gracenote.FetchOverview(ctx, a.host, seriesID)
	if err != nil {
		return nil, fmt.Errorf("fetching series overview: %w", err)
	}
	return body, nil
}
