package capabilities

import (
	"context"

	"github.com/brunoga/deep"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/logging"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of capability requests in flight.
const DefaultConcurrency = 4

// Enrich returns a copy of services with capabilities resolved, at most
// limit at a time. A failing service is logged and keeps no capabilities.
// The returned error is non-nil only when ctx ends first.
func Enrich(ctx context.Context, r Resolver, services []models.Service, limit int, lg *logging.Logger) ([]models.Service, error) {
	out := deep.MustCopy(services)
	if r == nil || len(out) == 0 {
		return out, nil
	}
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var eg errgroup.Group
	eg.SetLimit(limit)
	for i := range out {
		svc := &out[i]
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			caps, err := r.Resolve(ctx, svc.URL, svc.Format)
			if err != nil {
				lg.Warn("capabilities unavailable",
					"service", svc.ID, "url", svc.URL, "format", svc.Format, "error", err)
				svc.Capabilities = nil
				return nil
			}
			svc.Capabilities = caps
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
