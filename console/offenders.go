// console/offenders.go
package console

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tvmsuite/console/model"
	"github.com/tvmsuite/console/query"
	helper_util "github.com/tvmsuite/console/util/helper"
)

func offendersKey(minViolations, limit int) query.Key {
	params := url.Values{}
	if minViolations > 0 {
		params.Set("min_violations", strconv.Itoa(minViolations))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return query.NewKey(query.ResourceOffenders, params)
}

// ListRepeatOffenders renders the repeat-offender analytics. A zero
// minViolations leaves the threshold to the backend's configured
// default.
func (a *App) ListRepeatOffenders(ctx context.Context, minViolations, limit int) error {
	data, err := a.cache.Fetch(ctx, offendersKey(minViolations, limit), func(ctx context.Context) (interface{}, error) {
		return a.admin.RepeatOffenders(ctx, minViolations, limit)
	})
	if err != nil {
		renderError(a.out, err)
		return err
	}

	a.renderOffenders(data.([]model.RepeatOffender))
	return nil
}

// WatchRepeatOffenders keeps the analytics on screen, refreshed on
// the configured interval, until ctx is cancelled.
func (a *App) WatchRepeatOffenders(ctx context.Context, minViolations, limit int) {
	a.cache.Watch(ctx, offendersKey(minViolations, limit), func(ctx context.Context) (interface{}, error) {
		return a.admin.RepeatOffenders(ctx, minViolations, limit)
	}, a.opts.RefreshInterval, func(entry query.Entry) {
		if entry.Err != nil {
			renderError(a.out, entry.Err)
			return
		}
		if offenders, ok := entry.Data.([]model.RepeatOffender); ok {
			a.renderOffenders(offenders)
		}
	})
}

func (a *App) renderOffenders(offenders []model.RepeatOffender) {
	a.printf("== Repeat offenders ==\n")
	rows := make([][]string, 0, len(offenders))
	for _, o := range offenders {
		lastAt := "-"
		if o.LastViolationAt != nil {
			lastAt = helper_util.FormatTimestamp(o.LastViolationAt)
		}
		rows = append(rows, []string{
			o.ViolatorName,
			o.VehiclePlate,
			strconv.Itoa(o.ViolationCount),
			helper_util.FormatFine(o.TotalFines),
			lastAt,
		})
	}
	renderTable(a.out, []string{"Violator", "Plate", "Count", "Total fines", "Last violation"}, rows)
}
