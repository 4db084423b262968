// console/settings.go
package console

import (
	"context"

	consoleerrors "github.com/tvmsuite/console/errors"
	"github.com/tvmsuite/console/model"
	"github.com/tvmsuite/console/query"
	"github.com/tvmsuite/console/util"
	helper_util "github.com/tvmsuite/console/util/helper"
)

func settingsKey() query.Key {
	return query.NewKey(query.ResourceSettings, nil)
}

// ShowSettings renders the system settings.
func (a *App) ShowSettings(ctx context.Context) error {
	data, err := a.cache.Fetch(ctx, settingsKey(), func(ctx context.Context) (interface{}, error) {
		return a.admin.GetSettings(ctx)
	})
	if err != nil {
		renderError(a.out, err)
		return err
	}
	a.renderSettings(data.(*model.Settings))
	return nil
}

// UpdateSettings replaces the settings wholesale, with an optimistic
// swap of the cached copy.
func (a *App) UpdateSettings(ctx context.Context, settings model.Settings) query.MutationResult {
	if details := a.validator.ValidateSettings(settings); len(details) > 0 {
		result := query.MutationResult{Err: consoleerrors.ErrValidationFailed, FieldErrors: details}
		renderMutationResult(a.out, result)
		return result
	}

	result := a.cache.RunMutation(ctx, query.Mutation{
		Name: "settings.update",
		Optimistic: func(c *query.Cache) {
			c.Patch(settingsKey(), func(interface{}) interface{} {
				next := settings
				return &next
			})
		},
		Call: func(ctx context.Context) (interface{}, error) {
			return a.admin.UpdateSettings(ctx, settings)
		},
		Invalidates: []string{query.ResourceSettings, query.ResourceOffenders},
	})
	if result.Err != nil {
		renderMutationResult(a.out, result)
		return result
	}

	a.printf("Settings saved.\n")
	a.bus.Publish(ctx, util.EventSettingsUpdated, auditPayload{Details: settings})
	return result
}

func (a *App) renderSettings(settings *model.Settings) {
	onOff := func(enabled bool) string {
		if enabled {
			return "on"
		}
		return "off"
	}
	a.printf("== Settings ==\n")
	a.printf("  System name:        %s\n", settings.SystemName)
	a.printf("  Default fine:       %s\n", helper_util.FormatFine(settings.DefaultFineAmount))
	a.printf("  SMS notifications:  %s\n", onOff(settings.SMSNotifications))
	a.printf("  Penalty reminders:  %s\n", onOff(settings.PenaltyReminders))
	a.printf("  Repeat threshold:   %d violations\n", settings.RepeatOffenderMin)
	a.printf("  Payment deadline:   %d days\n", settings.PaymentDeadlineDay)
}
