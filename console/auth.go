// console/auth.go
package console

import (
	"context"

	"github.com/tvmsuite/console/httpclient"
	"github.com/tvmsuite/console/model"
	"github.com/tvmsuite/console/query"
	"github.com/tvmsuite/console/session"
	"github.com/tvmsuite/console/util"
)

// allResources is invalidated on sign-out so nothing cached under one
// account leaks into the next.
var allResources = []string{
	query.ResourceViolations,
	query.ResourceViolationStats,
	query.ResourceDashboard,
	query.ResourceEnforcers,
	query.ResourceOffenders,
	query.ResourceSettings,
	query.ResourceReports,
}

// WireSessionEvents republishes session transitions on the event bus
// and re-arms the HTTP client's expiry hook whenever a new session is
// established, so a second expiry in a long-lived watch is observed
// too.
func WireSessionEvents(store *session.Store, bus *util.EventBus, client *httpclient.Client) {
	bus.Subscribe(util.EventSessionChanged, func(ctx context.Context, event util.Event) error {
		if s, ok := event.Payload.(*model.Session); ok && s != nil {
			client.ResetUnauthorized()
		}
		return nil
	})
	store.Subscribe(func(s *model.Session) {
		bus.Publish(context.Background(), util.EventSessionChanged, s)
	})
}

// Login signs in and reports the tagged outcome. The session store
// never surfaces an error here; a failed attempt is a normal result
// with a user-facing message.
func (a *App) Login(ctx context.Context, email, password string) session.Result {
	result := a.store.Login(ctx, email, password)
	if !result.OK {
		a.printf("%s\n", result.Message)
		return result
	}
	if current := a.store.Current(); current != nil {
		a.printf("Signed in as %s (%s).\n", current.DisplayName, current.Role)
	}
	return result
}

// Logout ends the session. The server call is best effort; the local
// session is gone either way.
func (a *App) Logout(ctx context.Context) {
	a.store.Logout(ctx)
	a.cache.Invalidate(allResources...)
	a.printf("Signed out.\n")
}

// ChangePassword rotates the admin password and reports the tagged
// outcome.
func (a *App) ChangePassword(ctx context.Context, current, next string) session.Result {
	if len(next) < 8 {
		result := session.Result{Message: "new password must be at least 8 characters"}
		a.printf("%s\n", result.Message)
		return result
	}
	result := a.store.ChangePassword(ctx, current, next)
	if result.OK {
		a.printf("Password changed.\n")
	} else {
		a.printf("%s\n", result.Message)
	}
	return result
}

// RequireAuth verifies the durable session before a view runs.
func (a *App) RequireAuth(ctx context.Context) bool {
	if a.store.CheckAuth(ctx) {
		return true
	}
	a.printf("Not signed in. Run the login command first.\n")
	return false
}
