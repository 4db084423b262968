// console/search.go
package console

import (
	"context"
	"sync"

	"github.com/tvmsuite/console/model"
	"github.com/tvmsuite/console/query"
	"github.com/tvmsuite/console/util"
)

// ViolationSearch drives the incremental search box of the violations
// view. Text input is debounced before it becomes part of the cache
// key, so a burst of keystrokes produces at most one request for the
// final value. Structural filters (status, dates, page) bypass the
// debounce and apply immediately.
type ViolationSearch struct {
	app        *App
	debounce   *query.Debouncer
	onMutation util.EventHandler

	mu     sync.Mutex
	filter model.ViolationFilter

	// OnResults receives each settled page. Late responses for
	// superseded input never arrive here: the changed cache key makes
	// them no-ops.
	OnResults func(*model.ViolationPage)
	// OnError receives fetch failures.
	OnError func(error)
}

func (a *App) NewViolationSearch() *ViolationSearch {
	s := &ViolationSearch{
		app:      a,
		debounce: query.NewDebouncer(a.opts.SearchDebounce),
		filter:   model.ViolationFilter{Limit: a.opts.PageLimit},
	}
	// A violation write invalidates the list caches; an open search
	// re-runs its current filter so the results reflect the write.
	s.onMutation = func(ctx context.Context, _ util.Event) error {
		s.run(ctx)
		return nil
	}
	a.bus.Subscribe(util.EventViolationUpdated, s.onMutation)
	a.bus.Subscribe(util.EventViolationDeleted, s.onMutation)
	return s
}

// SetText feeds one keystroke-level change of the search text.
func (s *ViolationSearch) SetText(ctx context.Context, text string) {
	s.mu.Lock()
	s.filter.Search = text
	s.filter.Page = 0
	s.mu.Unlock()

	s.debounce.Do(func() { s.run(ctx) })
}

// SetStatus applies a status filter immediately.
func (s *ViolationSearch) SetStatus(ctx context.Context, status string) {
	s.mu.Lock()
	s.filter.Status = status
	s.filter.Page = 0
	s.mu.Unlock()
	s.run(ctx)
}

// SetDateRange applies a date-range filter immediately.
func (s *ViolationSearch) SetDateRange(ctx context.Context, from, to string) {
	s.mu.Lock()
	s.filter.DateFrom = from
	s.filter.DateTo = to
	s.filter.Page = 0
	s.mu.Unlock()
	s.run(ctx)
}

// SetPage moves to a page immediately.
func (s *ViolationSearch) SetPage(ctx context.Context, page int) {
	s.mu.Lock()
	s.filter.Page = page
	s.mu.Unlock()
	s.run(ctx)
}

// Stop cancels any pending debounced fetch and detaches the search
// from mutation events.
func (s *ViolationSearch) Stop() {
	s.app.bus.Unsubscribe(util.EventViolationUpdated, s.onMutation)
	s.app.bus.Unsubscribe(util.EventViolationDeleted, s.onMutation)
	s.debounce.Stop()
}

func (s *ViolationSearch) run(ctx context.Context) {
	s.mu.Lock()
	filter := s.filter
	s.mu.Unlock()

	data, err := s.app.cache.Fetch(ctx, violationsKey(filter), func(ctx context.Context) (interface{}, error) {
		return s.app.violations.List(ctx, filter)
	})

	// If the filter moved on while this fetch was in flight, the
	// response belongs to an abandoned key and is dropped.
	s.mu.Lock()
	current := s.filter
	s.mu.Unlock()
	if current != filter {
		return
	}

	if err != nil {
		if s.OnError != nil {
			s.OnError(err)
		}
		return
	}
	if s.OnResults != nil {
		s.OnResults(data.(*model.ViolationPage))
	}
}
