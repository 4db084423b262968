// console/dashboard.go
package console

import (
	"context"
	"fmt"

	"github.com/tvmsuite/console/model"
	"github.com/tvmsuite/console/query"
	helper_util "github.com/tvmsuite/console/util/helper"
)

func (a *App) dashboardKey() query.Key {
	return query.NewKey(query.ResourceDashboard, nil)
}

func (a *App) statsKey() query.Key {
	return query.NewKey(query.ResourceViolationStats, nil)
}

// ShowDashboard renders the admin dashboard aggregate together with
// the violations stats overview.
func (a *App) ShowDashboard(ctx context.Context) error {
	data, err := a.cache.Fetch(ctx, a.dashboardKey(), func(ctx context.Context) (interface{}, error) {
		return a.admin.Dashboard(ctx)
	})
	if err != nil {
		renderError(a.out, err)
		return err
	}
	a.renderDashboard(data.(*model.DashboardStats))

	statsData, err := a.cache.Fetch(ctx, a.statsKey(), func(ctx context.Context) (interface{}, error) {
		return a.violations.Stats(ctx)
	})
	if err != nil {
		renderError(a.out, err)
		return err
	}
	a.renderStats(statsData.(*model.ViolationStats))
	return nil
}

// WatchDashboard keeps the dashboard on screen, refreshed on the
// configured interval, until ctx is cancelled.
func (a *App) WatchDashboard(ctx context.Context) {
	a.cache.Watch(ctx, a.dashboardKey(), func(ctx context.Context) (interface{}, error) {
		return a.admin.Dashboard(ctx)
	}, a.opts.RefreshInterval, func(entry query.Entry) {
		if entry.Err != nil {
			renderError(a.out, entry.Err)
			return
		}
		if stats, ok := entry.Data.(*model.DashboardStats); ok {
			a.renderDashboard(stats)
		}
	})
}

func (a *App) renderDashboard(stats *model.DashboardStats) {
	a.printf("== Dashboard ==\n")
	a.printf("  Violations today:   %d\n", stats.TodayViolations)
	a.printf("  Total violations:   %d (%d pending, %d paid)\n",
		stats.TotalViolations, stats.PendingViolations, stats.PaidViolations)
	a.printf("  Fines:              %s issued, %s collected\n",
		helper_util.FormatFine(stats.TotalFines), helper_util.FormatFine(stats.CollectedFines))
	a.printf("  Active enforcers:   %d\n", stats.ActiveEnforcers)
	a.printf("  Repeat offenders:   %d\n", stats.RepeatOffenders)
}

func (a *App) renderStats(stats *model.ViolationStats) {
	a.printf("== Violations by status ==\n")
	for _, status := range model.ValidStatuses {
		if count, ok := stats.ByStatus[status]; ok {
			a.printf("  %-10s %d\n", status, count)
		}
	}
	fmt.Fprintln(a.out)
}
