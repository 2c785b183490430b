// Package finder runs one nearby query end to end: current catalog snapshot,
// fresh live status, resolution.
package finder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/zh-parking-finder/internal/catalog"
	"github.com/mohammed-shakir/zh-parking-finder/internal/core/model"
	"github.com/mohammed-shakir/zh-parking-finder/internal/core/observability"
	"github.com/mohammed-shakir/zh-parking-finder/internal/feed"
	"github.com/mohammed-shakir/zh-parking-finder/internal/resolve"
)

type CatalogProvider interface {
	Current(ctx context.Context) (*catalog.Catalog, error)
}

type StatusFetcher interface {
	Fetch(ctx context.Context) (feed.Snapshot, error)
}

// Interface is what the HTTP front-end depends on.
type Interface interface {
	Nearby(ctx context.Context, p model.LatLng) (resolve.Outcome, error)
}

type Finder struct {
	catalogs CatalogProvider
	status   StatusFetcher
	opts     resolve.Options
	logger   *slog.Logger
	now      func() time.Time
}

var _ Interface = (*Finder)(nil)

func New(catalogs CatalogProvider, status StatusFetcher, opts resolve.Options, logger *slog.Logger) *Finder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{catalogs: catalogs, status: status, opts: opts, logger: logger, now: time.Now}
}

// Nearby resolves the facilities around p. Errors wrap catalog.ErrUnavailable
// or feed.ErrUnavailable; the query is aborted and never retried here.
func (f *Finder) Nearby(ctx context.Context, p model.LatLng) (resolve.Outcome, error) {
	start := f.now()
	if !p.Valid() {
		return resolve.Outcome{}, fmt.Errorf("invalid coordinate %s", p)
	}
	f.logger.DebugContext(ctx, "nearby query", "lat", p.Lat, "lng", p.Lng)

	cat, err := f.catalogs.Current(ctx)
	if err != nil {
		observability.ObserveQuery("catalog_unavailable", time.Since(start).Seconds())
		f.logger.ErrorContext(ctx, "catalog unavailable", "err", err)
		if !errors.Is(err, catalog.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", catalog.ErrUnavailable, err)
		}
		return resolve.Outcome{}, err
	}

	snap, err := f.status.Fetch(ctx)
	if err != nil {
		observability.ObserveQuery("feed_unavailable", time.Since(start).Seconds())
		if !errors.Is(err, feed.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", feed.ErrUnavailable, err)
		}
		return resolve.Outcome{}, err
	}
	if len(snap) == 0 {
		f.logger.WarnContext(ctx, "live status feed is empty; all statuses unknown")
	}

	out := resolve.Resolve(p, cat, snap, f.opts)
	observability.ObserveQuery(out.Kind.String(), time.Since(start).Seconds())
	if out.Kind == resolve.Matches {
		observability.IncMatchRadius(out.RadiusKm)
		f.logger.InfoContext(ctx, "found parkings",
			"radius_km", out.RadiusKm,
			"matched", out.Matched,
			"returned", len(out.Results))
	} else {
		f.logger.InfoContext(ctx, "no parkings within maximum radius", "facilities", cat.Len())
	}
	return out, nil
}
