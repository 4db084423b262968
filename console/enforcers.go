// console/enforcers.go
package console

import (
	"context"

	"go.uber.org/zap"

	consoleerrors "github.com/tvmsuite/console/errors"
	logger "github.com/tvmsuite/console/logging"
	"github.com/tvmsuite/console/model"
	"github.com/tvmsuite/console/query"
	"github.com/tvmsuite/console/util"
	helper_util "github.com/tvmsuite/console/util/helper"
)

var enforcerCacheDeps = []string{query.ResourceEnforcers, query.ResourceDashboard}

func enforcersKey() query.Key {
	return query.NewKey(query.ResourceEnforcers, nil)
}

// ListEnforcers renders the enforcer accounts.
func (a *App) ListEnforcers(ctx context.Context) error {
	data, err := a.cache.Fetch(ctx, enforcersKey(), func(ctx context.Context) (interface{}, error) {
		return a.admin.ListEnforcers(ctx)
	})
	if err != nil {
		renderError(a.out, err)
		return err
	}

	enforcers := data.([]model.Enforcer)
	a.printf("== Enforcers ==\n")
	rows := make([][]string, 0, len(enforcers))
	for _, e := range enforcers {
		active := "active"
		if !e.IsActive {
			active = "inactive"
		}
		lastLogin := "-"
		if e.LastLogin != nil {
			lastLogin = helper_util.FormatTimestamp(e.LastLogin)
		}
		rows = append(rows, []string{e.BadgeNumber, e.Username, e.FullName, e.Email, e.PhoneNumber, active, lastLogin})
	}
	renderTable(a.out, []string{"Badge", "Username", "Name", "Email", "Phone", "Status", "Last login"}, rows)
	return nil
}

// CreateEnforcer creates an account. An empty badge number is
// prefilled from the backend's next-badge-number counter, the same
// affordance the create form offers.
func (a *App) CreateEnforcer(ctx context.Context, input model.EnforcerInput) query.MutationResult {
	if input.BadgeNumber == "" {
		badge, err := a.admin.NextBadgeNumber(ctx)
		if err != nil {
			logger.Warn("Could not prefill badge number", zap.Error(err))
		} else {
			input.BadgeNumber = badge
		}
	}

	if details := a.validator.ValidateEnforcerInput(input, true); len(details) > 0 {
		result := query.MutationResult{Err: consoleerrors.ErrValidationFailed, FieldErrors: details}
		renderMutationResult(a.out, result)
		return result
	}

	result := a.cache.RunMutation(ctx, query.Mutation{
		Name: "enforcers.create",
		Call: func(ctx context.Context) (interface{}, error) {
			return a.admin.CreateEnforcer(ctx, input)
		},
		Invalidates: enforcerCacheDeps,
	})
	if result.Err != nil {
		renderMutationResult(a.out, result)
		return result
	}

	created := result.Data.(*model.Enforcer)
	a.printf("Enforcer %s created with badge %s.\n", created.Username, created.BadgeNumber)
	a.bus.Publish(ctx, util.EventEnforcerCreated, created.ID)
	return result
}

// UpdateEnforcer edits an account in place, with an optimistic patch
// on the cached listing.
func (a *App) UpdateEnforcer(ctx context.Context, id string, input model.EnforcerInput) query.MutationResult {
	if details := a.validator.ValidateEnforcerInput(input, false); len(details) > 0 {
		result := query.MutationResult{Err: consoleerrors.ErrValidationFailed, FieldErrors: details}
		renderMutationResult(a.out, result)
		return result
	}

	result := a.cache.RunMutation(ctx, query.Mutation{
		Name: "enforcers.update",
		Optimistic: func(c *query.Cache) {
			c.Patch(enforcersKey(), func(data interface{}) interface{} {
				return patchEnforcerList(data, id, input)
			})
		},
		Call: func(ctx context.Context) (interface{}, error) {
			return a.admin.UpdateEnforcer(ctx, id, input)
		},
		Invalidates: enforcerCacheDeps,
	})
	if result.Err != nil {
		renderMutationResult(a.out, result)
		return result
	}

	a.printf("Enforcer updated.\n")
	a.bus.Publish(ctx, util.EventEnforcerUpdated, auditPayload{ResourceID: id, Details: input})
	return result
}

// ToggleEnforcer flips the active flag, the soft-state alternative to
// deletion.
func (a *App) ToggleEnforcer(ctx context.Context, id string, active bool) query.MutationResult {
	return a.UpdateEnforcer(ctx, id, model.EnforcerInput{IsActive: &active})
}

// DeleteEnforcer removes the account entirely.
func (a *App) DeleteEnforcer(ctx context.Context, id string) query.MutationResult {
	result := a.cache.RunMutation(ctx, query.Mutation{
		Name: "enforcers.delete",
		Optimistic: func(c *query.Cache) {
			c.Patch(enforcersKey(), func(data interface{}) interface{} {
				return dropEnforcer(data, id)
			})
		},
		Call: func(ctx context.Context) (interface{}, error) {
			return nil, a.admin.DeleteEnforcer(ctx, id)
		},
		Invalidates: enforcerCacheDeps,
	})
	if result.Err != nil {
		renderMutationResult(a.out, result)
		return result
	}

	a.printf("Enforcer deleted.\n")
	a.bus.Publish(ctx, util.EventEnforcerDeleted, id)
	return result
}

func patchEnforcerList(data interface{}, id string, input model.EnforcerInput) interface{} {
	enforcers, ok := data.([]model.Enforcer)
	if !ok {
		return data
	}
	next := append([]model.Enforcer(nil), enforcers...)
	for i, e := range next {
		if e.ID != id {
			continue
		}
		if input.Email != "" {
			e.Email = input.Email
		}
		if input.FullName != "" {
			e.FullName = input.FullName
		}
		if input.PhoneNumber != "" {
			e.PhoneNumber = input.PhoneNumber
		}
		if input.IsActive != nil {
			e.IsActive = *input.IsActive
		}
		next[i] = e
	}
	return next
}

func dropEnforcer(data interface{}, id string) interface{} {
	enforcers, ok := data.([]model.Enforcer)
	if !ok {
		return data
	}
	next := make([]model.Enforcer, 0, len(enforcers))
	for _, e := range enforcers {
		if e.ID != id {
			next = append(next, e)
		}
	}
	return next
}
