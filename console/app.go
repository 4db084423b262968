// console/app.go
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/tvmsuite/console/apiclient"
	"github.com/tvmsuite/console/audit"
	"github.com/tvmsuite/console/model"
	"github.com/tvmsuite/console/query"
	"github.com/tvmsuite/console/report"
	"github.com/tvmsuite/console/session"
	"github.com/tvmsuite/console/util"
)

// Options carries the tunables the views need from configuration.
type Options struct {
	RefreshInterval time.Duration
	SearchDebounce  time.Duration
	PageLimit       int
}

// App binds the query/cache layer, the facades and the session store
// into the console's views. Every view reads through the cache; every
// write goes through a cache mutation; side effects (audit trail,
// violator SMS) hang off the event bus and the notifier.
type App struct {
	opts       Options
	out        io.Writer
	store      *session.Store
	cache      *query.Cache
	bus        *util.EventBus
	validator  *util.ValidationUtil
	notifier   *util.NotificationService
	auth       *apiclient.AuthClient
	admin      *apiclient.AdminClient
	violations *apiclient.ViolationsClient
	reports    *apiclient.ReportsClient
	generator  *report.Generator
	auditSvc   audit.Service

	// lastReport gates export: only a successfully fetched report can
	// be turned into an artifact.
	lastReport *model.Report
}

func NewApp(
	out io.Writer,
	opts Options,
	store *session.Store,
	cache *query.Cache,
	bus *util.EventBus,
	notifier *util.NotificationService,
	auth *apiclient.AuthClient,
	admin *apiclient.AdminClient,
	violations *apiclient.ViolationsClient,
	reports *apiclient.ReportsClient,
	generator *report.Generator,
	auditSvc audit.Service,
) *App {
	app := &App{
		opts:       opts,
		out:        out,
		store:      store,
		cache:      cache,
		bus:        bus,
		validator:  util.NewValidationUtil(),
		notifier:   notifier,
		auth:       auth,
		admin:      admin,
		violations: violations,
		reports:    reports,
		generator:  generator,
		auditSvc:   auditSvc,
	}

	if auditSvc != nil {
		for _, eventType := range []string{
			util.EventViolationUpdated,
			util.EventViolationDeleted,
			util.EventEnforcerCreated,
			util.EventEnforcerUpdated,
			util.EventEnforcerDeleted,
			util.EventSettingsUpdated,
		} {
			bus.Subscribe(eventType, app.recordAudit)
		}
	}
	return app
}

// recordAudit appends one trail entry per mutation event.
func (a *App) recordAudit(ctx context.Context, event util.Event) error {
	record := audit.Record{Action: event.Type, Succeeded: true}
	if s := a.store.Current(); s != nil {
		record.UserID = s.UserID
	}
	switch payload := event.Payload.(type) {
	case string:
		record.ResourceID = payload
	case auditPayload:
		record.ResourceID = payload.ResourceID
		if payload.Details != nil {
			if raw, err := json.Marshal(payload.Details); err == nil {
				record.ChangeDetails = raw
			}
		}
	}
	return a.auditSvc.LogAction(ctx, record)
}

type auditPayload struct {
	ResourceID string
	Details    interface{}
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
