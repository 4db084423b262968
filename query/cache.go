// query/cache.go
package query

import (
	"context"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	logger "github.com/tvmsuite/console/logging"
)

// Resource names used as the first half of every cache key. A
// mutation names the resources it affects and every key under those
// resources is invalidated together.
const (
	ResourceViolations     = "violations"
	ResourceViolationStats = "violation-stats"
	ResourceDashboard      = "dashboard"
	ResourceEnforcers      = "enforcers"
	ResourceOffenders      = "repeat-offenders"
	ResourceSettings       = "settings"
	ResourceReports        = "reports"
)

// Key identifies one cached query result: the resource plus the
// serialized filter parameters. Distinct filter combinations cache
// independently, which is also what makes a late response for an
// abandoned filter a no-op.
type Key struct {
	Resource string
	Params   string
}

func NewKey(resource string, params url.Values) Key {
	return Key{Resource: resource, Params: params.Encode()}
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Resource
	}
	return k.Resource + "?" + k.Params
}

// Entry is the observable state of one cached query.
type Entry struct {
	Data      interface{}
	Err       error
	Loading   bool // first load for this key has not settled yet
	Fetching  bool // any fetch in flight, including background refreshes
	FetchedAt time.Time
}

// Fetcher loads the authoritative value for a key.
type Fetcher func(ctx context.Context) (interface{}, error)

type state struct {
	entry  Entry
	loaded bool // first fetch settled
	stale  bool // invalidated since last fetch
	gen    int  // bumped on invalidation; settles from older gens are dropped
}

// Cache holds exactly one authoritative entry per key. Concurrent
// fetches under the same key are coalesced through singleflight;
// keys never interfere with each other.
type Cache struct {
	mu     sync.Mutex
	states map[Key]*state
	group  singleflight.Group
}

func NewCache() *Cache {
	return &Cache{states: make(map[Key]*state)}
}

// Peek returns the current entry without triggering a fetch.
func (c *Cache) Peek(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.states[key]
	if !ok {
		return Entry{}, false
	}
	return st.entry, true
}

// Fetch is the read-through path. A fresh entry is served from the
// cache; a missing, failed or invalidated one goes to the network.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch Fetcher) (interface{}, error) {
	c.mu.Lock()
	st := c.ensure(key)
	if st.loaded && !st.stale && st.entry.Err == nil {
		data := st.entry.Data
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	return c.Refresh(ctx, key, fetch)
}

// Refresh always goes to the network (deduplicated per key) and
// settles the entry, unless the key was invalidated while the fetch
// was in flight, in which case the late response is discarded.
func (c *Cache) Refresh(ctx context.Context, key Key, fetch Fetcher) (interface{}, error) {
	c.mu.Lock()
	st := c.ensure(key)
	gen := st.gen
	st.entry.Fetching = true
	if !st.loaded {
		st.entry.Loading = true
	}
	c.mu.Unlock()

	data, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		return fetch(ctx)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	st = c.ensure(key)
	st.entry.Fetching = false
	st.entry.Loading = false
	if st.gen != gen {
		// The key was invalidated after this fetch started; the
		// response is stale and must not overwrite newer state.
		logger.Debug("Discarding stale response", zap.String("key", key.String()))
		return data, err
	}
	st.loaded = true
	st.stale = false
	st.entry.Data = data
	st.entry.Err = err
	st.entry.FetchedAt = time.Now()
	return data, err
}

// Invalidate marks every key under the given resources stale and
// bumps their generation so in-flight responses cannot land. It is
// the synchronization point between mutations and background
// refreshes: the next read after Invalidate is authoritative.
func (c *Cache) Invalidate(resources ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, st := range c.states {
		for _, resource := range resources {
			if key.Resource == resource {
				st.stale = true
				st.gen++
				c.group.Forget(key.String())
				break
			}
		}
	}
}

// InvalidateKey invalidates a single key.
func (c *Cache) InvalidateKey(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.states[key]
	if !ok {
		return
	}
	st.stale = true
	st.gen++
	c.group.Forget(key.String())
}

// Patch applies an optimistic update to a loaded entry in place. The
// entry stays fresh so the UI reflects the change immediately; the
// mutation's subsequent Invalidate makes the next read authoritative.
func (c *Cache) Patch(key Key, patch func(data interface{}) interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.states[key]
	if !ok || !st.loaded || st.entry.Err != nil {
		return
	}
	st.entry.Data = patch(st.entry.Data)
}

// PatchResource applies an optimistic update to every loaded entry of
// a resource, e.g. all cached pages of the violations list.
func (c *Cache) PatchResource(resource string, patch func(key Key, data interface{}) interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, st := range c.states {
		if key.Resource != resource || !st.loaded || st.entry.Err != nil {
			continue
		}
		st.entry.Data = patch(key, st.entry.Data)
	}
}

func (c *Cache) ensure(key Key) *state {
	st, ok := c.states[key]
	if !ok {
		st = &state{}
		c.states[key] = st
	}
	return st
}
