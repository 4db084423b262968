// query/cache_test.go
package query_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	consoleerrors "github.com/tvmsuite/console/errors"
	logger "github.com/tvmsuite/console/logging"
	"github.com/tvmsuite/console/query"
)

func countingFetcher(calls *int64, value interface{}, delay time.Duration) query.Fetcher {
	return func(ctx context.Context) (interface{}, error) {
		atomic.AddInt64(calls, 1)
		if delay > 0 {
			time.Sleep(delay)
		}
		return value, nil
	}
}

func TestFetchServesFromCache(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	cache := query.NewCache()
	key := query.NewKey(query.ResourceDashboard, nil)
	var calls int64

	data, err := cache.Fetch(context.Background(), key, countingFetcher(&calls, "first", 0))
	require.NoError(t, err)
	assert.Equal(t, "first", data)

	// The second read is a cache hit even with a different fetcher.
	data, err = cache.Fetch(context.Background(), key, countingFetcher(&calls, "second", 0))
	require.NoError(t, err)
	assert.Equal(t, "first", data)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestConcurrentFetchesAreDeduplicated(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	cache := query.NewCache()
	key := query.NewKey(query.ResourceViolations, nil)
	var calls int64
	fetch := countingFetcher(&calls, "page", 100*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := cache.Fetch(context.Background(), key, fetch)
			assert.NoError(t, err)
			assert.Equal(t, "page", data)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestDistinctParamsCacheIndependently(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	cache := query.NewCache()
	var calls int64
	page1 := query.NewKey(query.ResourceViolations, map[string][]string{"page": {"1"}})
	page2 := query.NewKey(query.ResourceViolations, map[string][]string{"page": {"2"}})

	_, err := cache.Fetch(context.Background(), page1, countingFetcher(&calls, "p1", 0))
	require.NoError(t, err)
	_, err = cache.Fetch(context.Background(), page2, countingFetcher(&calls, "p2", 0))
	require.NoError(t, err)

	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestInvalidateForcesRefetch(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	cache := query.NewCache()
	key := query.NewKey(query.ResourceEnforcers, nil)
	var calls int64

	_, err := cache.Fetch(context.Background(), key, countingFetcher(&calls, "v1", 0))
	require.NoError(t, err)

	cache.Invalidate(query.ResourceEnforcers)

	data, err := cache.Fetch(context.Background(), key, countingFetcher(&calls, "v2", 0))
	require.NoError(t, err)
	assert.Equal(t, "v2", data)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestLateResponseAfterInvalidationIsDiscarded(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	cache := query.NewCache()
	key := query.NewKey(query.ResourceSettings, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	slowDone := make(chan struct{})

	go func() {
		defer close(slowDone)
		cache.Refresh(context.Background(), key, func(ctx context.Context) (interface{}, error) {
			close(started)
			<-release
			return "stale", nil
		})
	}()

	<-started
	// The mutation lands while the old fetch is still in flight.
	cache.Invalidate(query.ResourceSettings)
	close(release)
	<-slowDone

	// The stale settle must not have become the cached value.
	data, err := cache.Fetch(context.Background(), key, func(ctx context.Context) (interface{}, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", data)

	entry, ok := cache.Peek(key)
	require.True(t, ok)
	assert.Equal(t, "fresh", entry.Data)
}

func TestPeekDistinguishesFirstLoadFromRefresh(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	cache := query.NewCache()
	key := query.NewKey(query.ResourceViolations, nil)

	heldFetch := func(value string, started, release chan struct{}) query.Fetcher {
		return func(ctx context.Context) (interface{}, error) {
			close(started)
			<-release
			return value, nil
		}
	}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		cache.Fetch(context.Background(), key, heldFetch("v1", started, release))
	}()

	// The very first fetch is both loading and fetching.
	<-started
	entry, ok := cache.Peek(key)
	require.True(t, ok)
	assert.True(t, entry.Loading)
	assert.True(t, entry.Fetching)

	close(release)
	<-done
	entry, ok = cache.Peek(key)
	require.True(t, ok)
	assert.False(t, entry.Loading)
	assert.False(t, entry.Fetching)
	assert.Equal(t, "v1", entry.Data)

	// A refresh after invalidation fetches, but the key has data, so
	// it is not loading: the view keeps the old rows on screen.
	cache.Invalidate(query.ResourceViolations)
	started = make(chan struct{})
	release = make(chan struct{})
	done = make(chan struct{})
	go func() {
		defer close(done)
		cache.Refresh(context.Background(), key, heldFetch("v2", started, release))
	}()

	<-started
	entry, ok = cache.Peek(key)
	require.True(t, ok)
	assert.False(t, entry.Loading)
	assert.True(t, entry.Fetching)
	assert.Equal(t, "v1", entry.Data)

	close(release)
	<-done
	entry, ok = cache.Peek(key)
	require.True(t, ok)
	assert.False(t, entry.Loading)
	assert.False(t, entry.Fetching)
	assert.Equal(t, "v2", entry.Data)
}

func TestPatchAppliesOptimisticallyWithoutFetch(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	cache := query.NewCache()
	key := query.NewKey(query.ResourceViolations, nil)
	var calls int64

	_, err := cache.Fetch(context.Background(), key, countingFetcher(&calls, []string{"a", "b"}, 0))
	require.NoError(t, err)

	cache.Patch(key, func(data interface{}) interface{} {
		return append(data.([]string), "c")
	})

	data, err := cache.Fetch(context.Background(), key, countingFetcher(&calls, nil, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, data)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestPatchIgnoresUnloadedKeys(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	cache := query.NewCache()
	key := query.NewKey(query.ResourceViolations, nil)

	cache.Patch(key, func(data interface{}) interface{} {
		t.Fatal("patch must not run for a key that was never loaded")
		return data
	})
}

func TestRunMutationSuccessInvalidatesDependents(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	cache := query.NewCache()
	listKey := query.NewKey(query.ResourceViolations, nil)
	statsKey := query.NewKey(query.ResourceViolationStats, nil)
	var listCalls, statsCalls int64

	_, err := cache.Fetch(context.Background(), listKey, countingFetcher(&listCalls, "list", 0))
	require.NoError(t, err)
	_, err = cache.Fetch(context.Background(), statsKey, countingFetcher(&statsCalls, "stats", 0))
	require.NoError(t, err)

	result := cache.RunMutation(context.Background(), query.Mutation{
		Name: "test.update",
		Call: func(ctx context.Context) (interface{}, error) {
			return "updated", nil
		},
		Invalidates: []string{query.ResourceViolations, query.ResourceViolationStats},
	})
	require.NoError(t, result.Err)
	assert.Equal(t, "updated", result.Data)

	_, _ = cache.Fetch(context.Background(), listKey, countingFetcher(&listCalls, "list2", 0))
	_, _ = cache.Fetch(context.Background(), statsKey, countingFetcher(&statsCalls, "stats2", 0))
	assert.Equal(t, int64(2), atomic.LoadInt64(&listCalls))
	assert.Equal(t, int64(2), atomic.LoadInt64(&statsCalls))
}

func TestRunMutationFieldErrorsExcludeBlanketMessage(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	cache := query.NewCache()
	result := cache.RunMutation(context.Background(), query.Mutation{
		Name: "test.update",
		Call: func(ctx context.Context) (interface{}, error) {
			return nil, &consoleerrors.APIError{
				Status:  http.StatusBadRequest,
				Message: "validation failed",
				Details: []consoleerrors.FieldError{{Param: "fine_amount", Msg: "fine amount cannot be negative"}},
			}
		},
	})

	require.Error(t, result.Err)
	require.Len(t, result.FieldErrors, 1)
	assert.Equal(t, "fine_amount", result.FieldErrors[0].Param)
	assert.Empty(t, result.Message)
}

func TestRunMutationNetworkFailureIsRetryable(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	cache := query.NewCache()
	key := query.NewKey(query.ResourceViolations, nil)
	var calls int64
	_, err := cache.Fetch(context.Background(), key, countingFetcher(&calls, "list", 0))
	require.NoError(t, err)

	result := cache.RunMutation(context.Background(), query.Mutation{
		Name: "test.update",
		Optimistic: func(c *query.Cache) {
			c.Patch(key, func(interface{}) interface{} { return "optimistic" })
		},
		Call: func(ctx context.Context) (interface{}, error) {
			return nil, &consoleerrors.NetworkError{Err: errors.New("connection refused")}
		},
		Invalidates: []string{query.ResourceViolations},
	})

	require.Error(t, result.Err)
	assert.True(t, result.Retryable)
	assert.Empty(t, result.FieldErrors)
	assert.NotEmpty(t, result.Message)

	// The failed write invalidated the optimistic patch, so the next
	// read refetches the authoritative state.
	data, err := cache.Fetch(context.Background(), key, countingFetcher(&calls, "authoritative", 0))
	require.NoError(t, err)
	assert.Equal(t, "authoritative", data)
}

func TestWatchRefreshesOnInterval(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	cache := query.NewCache()
	key := query.NewKey(query.ResourceDashboard, nil)
	var calls int64
	var updates int64

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		cache.Watch(ctx, key, countingFetcher(&calls, "stats", 0), 30*time.Millisecond, func(entry query.Entry) {
			if atomic.AddInt64(&updates, 1) >= 3 {
				cancel()
			}
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not deliver updates in time")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt64(&calls), int64(3))
}
