package sw

import (
	"context"
	"net/http"
	"sync"

	"github.com/Sternrassler/northwest-bus-cache/pkg/cache"
	"github.com/Sternrassler/northwest-bus-cache/pkg/manifest"
	"github.com/Sternrassler/northwest-bus-cache/pkg/network"
	"golang.org/x/sync/errgroup"
)

// precache fetches every manifest entry with bounded parallelism.
// The first failure cancels the remaining fetches and is returned as an
// *InstallError; on success every entry is returned keyed by request identity.
func (c *Controller) precache(ctx context.Context) (map[cache.RequestKey]*cache.Entry, error) {
	entries := make(map[cache.RequestKey]*cache.Entry, c.config.Manifest.Len())
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)

	for _, raw := range c.config.Manifest.Entries {
		raw := raw // per-iteration copy (go1.21 loop semantics)
		g.Go(func() error {
			key, entry, err := c.fetchEntry(gctx, raw)
			if err != nil {
				return &InstallError{CacheName: c.config.CacheName, Entry: raw, Err: err}
			}

			mu.Lock()
			entries[key] = entry
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Controller) fetchEntry(ctx context.Context, raw string) (cache.RequestKey, *cache.Entry, error) {
	u, err := manifest.Resolve(c.config.Origin, raw)
	if err != nil {
		return cache.RequestKey{}, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return cache.RequestKey{}, nil, err
	}

	resp, err := c.config.Network.Fetch(req)
	if err := network.CheckResponse(u.String(), resp, err); err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return cache.RequestKey{}, nil, err
	}

	entry, err := cache.ResponseToEntry(resp)
	resp.Body.Close()
	if err != nil {
		return cache.RequestKey{}, nil, err
	}
	entry.URL = u.String()

	c.logger.Debug().Str("url", entry.URL).Int("bytes", len(entry.Data)).Msg("Fetched manifest entry")
	return cache.KeyForRequest(req), entry, nil
}
