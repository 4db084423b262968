// console/violations.go
package console

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	consoleerrors "github.com/tvmsuite/console/errors"
	logger "github.com/tvmsuite/console/logging"
	"github.com/tvmsuite/console/model"
	"github.com/tvmsuite/console/query"
	"github.com/tvmsuite/console/util"
	helper_util "github.com/tvmsuite/console/util/helper"
)

// violationCacheDeps lists every cache a violation write affects.
var violationCacheDeps = []string{
	query.ResourceViolations,
	query.ResourceDashboard,
	query.ResourceViolationStats,
	query.ResourceOffenders,
}

func violationsKey(filter model.ViolationFilter) query.Key {
	return query.NewKey(query.ResourceViolations, filter.Values())
}

// ListViolations renders one page of the violations list for the
// given filter.
func (a *App) ListViolations(ctx context.Context, filter model.ViolationFilter) error {
	if filter.Limit == 0 {
		filter.Limit = a.opts.PageLimit
	}

	data, err := a.cache.Fetch(ctx, violationsKey(filter), func(ctx context.Context) (interface{}, error) {
		return a.violations.List(ctx, filter)
	})
	if err != nil {
		renderError(a.out, err)
		return err
	}

	a.renderViolationPage(data.(*model.ViolationPage))
	return nil
}

// WatchViolations keeps the filtered list on screen, refreshed on the
// configured interval, until ctx is cancelled.
func (a *App) WatchViolations(ctx context.Context, filter model.ViolationFilter) {
	if filter.Limit == 0 {
		filter.Limit = a.opts.PageLimit
	}
	a.cache.Watch(ctx, violationsKey(filter), func(ctx context.Context) (interface{}, error) {
		return a.violations.List(ctx, filter)
	}, a.opts.RefreshInterval, func(entry query.Entry) {
		if entry.Err != nil {
			renderError(a.out, entry.Err)
			return
		}
		if page, ok := entry.Data.(*model.ViolationPage); ok {
			a.renderViolationPage(page)
		}
	})
}

func (a *App) renderViolationPage(page *model.ViolationPage) {
	a.printf("== Violations (%d total, page %d) ==\n", page.Total, page.Page)
	rows := make([][]string, 0, len(page.Violations))
	for _, v := range page.Violations {
		repeat := ""
		if v.IsRepeatOffender {
			repeat = fmt.Sprintf("yes (%d)", v.PreviousViolationsCount)
		}
		rows = append(rows, []string{
			v.ViolationNumber,
			v.ViolatorName,
			v.VehiclePlate,
			v.ViolationType,
			helper_util.FormatFine(v.FineAmount),
			v.Status,
			helper_util.FormatTimestamp(v.CapturedAt),
			repeat,
		})
	}
	renderTable(a.out, []string{"Number", "Violator", "Plate", "Type", "Fine", "Status", "Captured", "Repeat"}, rows)
}

// ShowViolation renders one violation in full.
func (a *App) ShowViolation(ctx context.Context, id string) error {
	key := query.NewKey(query.ResourceViolations, model.ViolationFilter{Search: "id:" + id}.Values())
	data, err := a.cache.Fetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		return a.violations.Get(ctx, id)
	})
	if err != nil {
		renderError(a.out, err)
		return err
	}

	v := data.(*model.Violation)
	a.printf("Violation %s\n", v.ViolationNumber)
	a.printf("  Violator:  %s (license %s, phone %s)\n", v.ViolatorName, orDash(v.ViolatorLicense), orDash(v.ViolatorPhone))
	a.printf("  Vehicle:   %s\n", v.VehiclePlate)
	a.printf("  Offense:   %s at %s\n", v.ViolationType, v.Location)
	a.printf("  Fine:      %s (%s)\n", helper_util.FormatFine(v.FineAmount), v.Status)
	a.printf("  Captured:  %s by %s (%s)\n", helper_util.FormatTimestamp(v.CapturedAt), v.EnforcerName, v.EnforcerBadge)
	if v.IsRepeatOffender {
		a.printf("  Repeat offender: %d previous violations\n", v.PreviousViolationsCount)
	}
	if v.Notes != "" {
		a.printf("  Notes:     %s\n", v.Notes)
	}
	return nil
}

// UpdateViolation writes the edit through a two-phase cache mutation:
// the cached lists are patched optimistically, and on settle every
// dependent cache is invalidated so the next read is authoritative.
// A status transition to paid or issued additionally notifies the
// violator, at most once per update.
func (a *App) UpdateViolation(ctx context.Context, id string, input model.ViolationInput) query.MutationResult {
	if details := a.validator.ValidateViolationInput(input); len(details) > 0 {
		result := query.MutationResult{Err: consoleerrors.ErrValidationFailed, FieldErrors: details}
		renderMutationResult(a.out, result)
		return result
	}

	result := a.cache.RunMutation(ctx, query.Mutation{
		Name: "violations.update",
		Optimistic: func(c *query.Cache) {
			c.PatchResource(query.ResourceViolations, func(_ query.Key, data interface{}) interface{} {
				return patchViolationPage(data, id, input)
			})
		},
		Call: func(ctx context.Context) (interface{}, error) {
			return a.violations.Update(ctx, id, input)
		},
		Invalidates: violationCacheDeps,
	})
	if result.Err != nil {
		renderMutationResult(a.out, result)
		return result
	}

	updated := result.Data.(*model.Violation)
	a.printf("Violation %s updated.\n", updated.ViolationNumber)

	if input.Status != "" {
		if sent, err := a.notifier.NotifyStatusChange(ctx, *updated); err != nil {
			a.printf("Warning: violator SMS could not be sent.\n")
		} else if sent {
			a.printf("Violator notified by SMS.\n")
		}
	}

	a.bus.Publish(ctx, util.EventViolationUpdated, auditPayload{ResourceID: id, Details: input})
	return result
}

// DeleteViolation removes the record, patching caches optimistically.
func (a *App) DeleteViolation(ctx context.Context, id string) query.MutationResult {
	result := a.cache.RunMutation(ctx, query.Mutation{
		Name: "violations.delete",
		Optimistic: func(c *query.Cache) {
			c.PatchResource(query.ResourceViolations, func(_ query.Key, data interface{}) interface{} {
				return dropViolation(data, id)
			})
		},
		Call: func(ctx context.Context) (interface{}, error) {
			return nil, a.violations.Delete(ctx, id)
		},
		Invalidates: violationCacheDeps,
	})
	if result.Err != nil {
		renderMutationResult(a.out, result)
		return result
	}

	a.printf("Violation deleted.\n")
	a.bus.Publish(ctx, util.EventViolationDeleted, id)
	return result
}

// SendViolationSMS resends the notification matching the violation's
// current status, for the manual "resend" affordance.
func (a *App) SendViolationSMS(ctx context.Context, id string) error {
	violation, err := a.violations.Get(ctx, id)
	if err != nil {
		renderError(a.out, err)
		return err
	}
	sent, err := a.notifier.NotifyStatusChange(ctx, *violation)
	if err != nil {
		a.printf("SMS could not be sent.\n")
		return err
	}
	if !sent {
		a.printf("Nothing to send for status %q.\n", violation.Status)
		return nil
	}
	a.printf("SMS sent for violation %s.\n", violation.ViolationNumber)
	return nil
}

// ExportViolations streams the raw export for the filter and lands it
// as a local file.
func (a *App) ExportViolations(ctx context.Context, filter model.ViolationFilter) error {
	payload, suggested, err := a.violations.Export(ctx, filter)
	if err != nil {
		renderError(a.out, err)
		return err
	}
	path, err := a.generator.ExportRaw(payload, suggested)
	if err != nil {
		renderError(a.out, err)
		return err
	}
	logger.Info("Violations exported", zap.String("path", path))
	a.printf("Export written to %s\n", path)
	return nil
}

// patchViolationPage applies an optimistic edit to a cached list page.
func patchViolationPage(data interface{}, id string, input model.ViolationInput) interface{} {
	page, ok := data.(*model.ViolationPage)
	if !ok {
		return data
	}
	next := *page
	next.Violations = append([]model.Violation(nil), page.Violations...)
	for i, v := range next.Violations {
		if v.ID != id {
			continue
		}
		if input.Status != "" {
			v.Status = input.Status
		}
		if input.FineAmount != 0 {
			v.FineAmount = input.FineAmount
		}
		if input.ViolatorName != "" {
			v.ViolatorName = input.ViolatorName
		}
		if input.Notes != "" {
			v.Notes = input.Notes
		}
		next.Violations[i] = v
	}
	return &next
}

func dropViolation(data interface{}, id string) interface{} {
	page, ok := data.(*model.ViolationPage)
	if !ok {
		return data
	}
	next := *page
	next.Violations = make([]model.Violation, 0, len(page.Violations))
	for _, v := range page.Violations {
		if v.ID == id {
			next.Total--
			continue
		}
		next.Violations = append(next.Violations, v)
	}
	return &next
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
