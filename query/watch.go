// query/watch.go
package query

import (
	"context"
	"time"

	"go.uber.org/zap"

	logger "github.com/tvmsuite/console/logging"
)

// Watch refreshes a key on a fixed interval and reports every settle
// to onUpdate, until ctx is cancelled. This is the console's
// equivalent of the self-updating dashboard and list views: refresh
// is interval-driven or user-triggered, never focus-driven. Each tick
// goes through Refresh, so a mutation's invalidation between ticks is
// always observed by the next one, and a tick that loses the race
// with an invalidation is discarded inside the cache.
func (c *Cache) Watch(ctx context.Context, key Key, fetch Fetcher, interval time.Duration, onUpdate func(Entry)) {
	report := func(data interface{}, err error) {
		entry, ok := c.Peek(key)
		if !ok {
			entry = Entry{Data: data, Err: err}
		}
		onUpdate(entry)
	}

	report(c.Fetch(ctx, key, fetch))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			data, err := c.Refresh(ctx, key, fetch)
			if err != nil {
				// Transient failures retry naturally on the next tick.
				logger.Debug("Background refresh failed", zap.String("key", key.String()), zap.Error(err))
			}
			report(data, err)
		}
	}
}
