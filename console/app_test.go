// console/app_test.go
package console_test

import (
	"bytes"
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvmsuite/console/apiclient"
	"github.com/tvmsuite/console/audit"
	"github.com/tvmsuite/console/console"
	"github.com/tvmsuite/console/httpclient"
	logger "github.com/tvmsuite/console/logging"
	"github.com/tvmsuite/console/model"
	"github.com/tvmsuite/console/query"
	"github.com/tvmsuite/console/report"
	"github.com/tvmsuite/console/session"
	"github.com/tvmsuite/console/testserver"
	"github.com/tvmsuite/console/util"
)

type harness struct {
	app      *console.App
	ts       *testserver.TestServer
	out      *bytes.Buffer
	store    *session.Store
	client   *httpclient.Client
	audit    audit.Service
	unauthed int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger.InitLogger(t.TempDir())

	h := &harness{ts: testserver.New(), out: &bytes.Buffer{}}
	t.Cleanup(h.ts.Close)

	tokens := session.NewTokenStore(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, tokens.Save(testserver.ValidToken))
	h.store = session.NewStore(tokens)

	client := httpclient.New(h.ts.URL(), 5*time.Second, h.store, func() {
		h.store.Invalidate()
		atomic.AddInt64(&h.unauthed, 1)
	})
	h.client = client
	authClient := apiclient.NewAuthClient(client)
	h.store.AttachAPI(authClient)

	bus := util.NewEventBus()
	console.WireSessionEvents(h.store, bus, client)

	auditRepo, err := audit.NewFileRepository(filepath.Join(t.TempDir(), "audit.log"))
	require.NoError(t, err)
	h.audit = audit.NewService(auditRepo)

	h.app = console.NewApp(
		h.out,
		console.Options{RefreshInterval: 50 * time.Millisecond, SearchDebounce: 50 * time.Millisecond, PageLimit: 20},
		h.store,
		query.NewCache(),
		bus,
		util.NewNotificationService(apiclient.NewSMSClient(client), true),
		authClient,
		apiclient.NewAdminClient(client),
		apiclient.NewViolationsClient(client),
		apiclient.NewReportsClient(client),
		report.NewGenerator(t.TempDir()),
		h.audit,
	)
	return h
}

func TestStatusChangeToPaidSendsExactlyOneSMS(t *testing.T) {
	h := newHarness(t)

	result := h.app.UpdateViolation(context.Background(), "v2", model.ViolationInput{Status: model.StatusPaid})
	require.NoError(t, result.Err)

	messages := h.ts.SMSMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "v2", messages[0].ViolationID)
	assert.Contains(t, messages[0].Message, "VN-2025-0002")
	assert.Contains(t, messages[0].Message, "PHP 1,000.00")
	assert.Contains(t, h.out.String(), "Violator notified by SMS.")
}

func TestUpdateWithoutStatusChangeSendsNoSMS(t *testing.T) {
	h := newHarness(t)

	result := h.app.UpdateViolation(context.Background(), "v2", model.ViolationInput{Notes: "spoke to violator"})
	require.NoError(t, result.Err)
	assert.Empty(t, h.ts.SMSMessages())
}

func TestUpdateWithoutPhoneSendsNoSMS(t *testing.T) {
	h := newHarness(t)

	// v3 has no violator phone on record.
	result := h.app.UpdateViolation(context.Background(), "v3", model.ViolationInput{Status: model.StatusDisputed})
	require.NoError(t, result.Err)
	assert.Empty(t, h.ts.SMSMessages())
}

func TestValidationDetailsRenderPerFieldWithoutBanner(t *testing.T) {
	h := newHarness(t)
	h.ts.FailValidation = true

	result := h.app.UpdateViolation(context.Background(), "v1", model.ViolationInput{Status: model.StatusPaid})
	require.Error(t, result.Err)
	require.Len(t, result.FieldErrors, 2)
	assert.Empty(t, result.Message)

	output := h.out.String()
	assert.Contains(t, output, "fine_amount: fine amount cannot be negative")
	assert.Contains(t, output, "status: unknown status")
	assert.NotContains(t, output, "the operation failed")
}

func TestLocalValidationNeverReachesTheWire(t *testing.T) {
	h := newHarness(t)

	result := h.app.UpdateViolation(context.Background(), "v1", model.ViolationInput{Status: "bogus"})
	require.Error(t, result.Err)
	require.Len(t, result.FieldErrors, 1)
	assert.Equal(t, "status", result.FieldErrors[0].Param)
	assert.Zero(t, h.ts.RequestCount("PUT /violations/:id"))
}

func TestMutationWritesAuditRecord(t *testing.T) {
	h := newHarness(t)

	result := h.app.UpdateViolation(context.Background(), "v1", model.ViolationInput{Status: model.StatusCancelled})
	require.NoError(t, result.Err)

	records, err := h.audit.QueryActions(context.Background(), time.Time{}, time.Time{}, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, util.EventViolationUpdated, records[0].Action)
	assert.Equal(t, "v1", records[0].ResourceID)
	assert.True(t, records[0].Succeeded)
}

func TestUnauthorizedNavigatesToLoginOnce(t *testing.T) {
	h := newHarness(t)
	h.ts.RejectAuth = true

	err := h.app.ListViolations(context.Background(), model.ViolationFilter{})
	require.Error(t, err)
	err = h.app.ListEnforcers(context.Background())
	require.Error(t, err)

	assert.Equal(t, int64(1), atomic.LoadInt64(&h.unauthed))
	assert.Contains(t, h.out.String(), "Session expired. Sign in again.")
}

func TestSearchDebouncesKeystrokes(t *testing.T) {
	h := newHarness(t)

	search := h.app.NewViolationSearch()
	defer search.Stop()

	var results int64
	done := make(chan *model.ViolationPage, 1)
	search.OnResults = func(page *model.ViolationPage) {
		atomic.AddInt64(&results, 1)
		select {
		case done <- page:
		default:
		}
	}

	ctx := context.Background()
	for _, text := range []string{"J", "Ju", "Jua", "Juan", "Juan "} {
		search.SetText(ctx, text)
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case page := <-done:
		require.Len(t, page.Violations, 1)
		assert.Equal(t, "Juan Dela Cruz", page.Violations[0].ViolatorName)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced search never settled")
	}

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, h.ts.RequestCount("GET /violations"))
	assert.Equal(t, int64(1), atomic.LoadInt64(&results))
}

func TestListViolationsRendersNormalizedTimestamps(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.app.ListViolations(context.Background(), model.ViolationFilter{}))
	output := h.out.String()

	// "12-4-25 14.30.00" from the handheld and the epoch object from
	// the backend both render in the table format.
	assert.Contains(t, output, "2025-12-04 14:30")
	assert.Contains(t, output, time.Unix(1700000000, 0).Format("2006-01-02 15:04"))
	assert.Contains(t, output, "PHP 500.00")
	assert.Contains(t, output, "yes (3)")
}

func TestDeleteViolationRefreshesDependentCaches(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.app.ListViolations(ctx, model.ViolationFilter{}))
	require.NoError(t, h.app.ShowDashboard(ctx))
	assert.Equal(t, 1, h.ts.RequestCount("GET /admin/dashboard"))

	result := h.app.DeleteViolation(ctx, "v1")
	require.NoError(t, result.Err)

	h.out.Reset()
	require.NoError(t, h.app.ListViolations(ctx, model.ViolationFilter{}))
	require.NoError(t, h.app.ShowDashboard(ctx))
	assert.Equal(t, 2, h.ts.RequestCount("GET /violations"))
	assert.Equal(t, 2, h.ts.RequestCount("GET /admin/dashboard"))
	assert.NotContains(t, h.out.String(), "VN-2025-0001")
}

func TestCreateEnforcerPrefillsBadgeNumber(t *testing.T) {
	h := newHarness(t)

	result := h.app.CreateEnforcer(context.Background(), model.EnforcerInput{
		Username: "adiaz",
		FullName: "A. Diaz",
		Email:    "adiaz@tvms.local",
		Password: "longenough1",
	})
	require.NoError(t, result.Err)

	created := result.Data.(*model.Enforcer)
	assert.Equal(t, "B-003", created.BadgeNumber)
	assert.Equal(t, 1, h.ts.RequestCount("GET /admin/next-badge-number"))
}

func TestCreateEnforcerRejectsShortPasswordLocally(t *testing.T) {
	h := newHarness(t)

	result := h.app.CreateEnforcer(context.Background(), model.EnforcerInput{
		Username:    "adiaz",
		FullName:    "A. Diaz",
		Email:       "adiaz@tvms.local",
		BadgeNumber: "B-009",
		Password:    "short",
	})
	require.Error(t, result.Err)
	require.NotEmpty(t, result.FieldErrors)
	assert.Equal(t, "password", result.FieldErrors[0].Param)
	assert.Zero(t, h.ts.RequestCount("POST /admin/enforcers"))
}

func TestToggleEnforcer(t *testing.T) {
	h := newHarness(t)

	result := h.app.ToggleEnforcer(context.Background(), "e2", true)
	require.NoError(t, result.Err)

	updated := result.Data.(*model.Enforcer)
	assert.True(t, updated.IsActive)
}

func TestRunReportArmsExport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Export before any fetch is refused.
	err := h.app.ExportReport("csv")
	require.Error(t, err)

	params := console.ReportParams{Type: model.ReportViolations, DateFrom: "2025-01-01", DateTo: "2025-01-31"}
	require.NoError(t, h.app.RunReport(ctx, params))
	assert.Contains(t, h.out.String(), "Total Violations")

	h.out.Reset()
	require.NoError(t, h.app.ExportReport("csv"))
	assert.Contains(t, h.out.String(), "violations-report_2025-01-01_2025-01-31.csv")

	h.out.Reset()
	require.NoError(t, h.app.ExportReport("pdf"))
	assert.Contains(t, h.out.String(), "violations-report_2025-01-01_2025-01-31.pdf")

	err = h.app.ExportReport("docx")
	assert.Error(t, err)
}

func TestExportViolationsLandsFile(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.app.ExportViolations(context.Background(), model.ViolationFilter{}))
	assert.Contains(t, h.out.String(), "violations-export.csv")
}

func TestShowSettingsAndUpdate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.app.ShowSettings(ctx))
	assert.Contains(t, h.out.String(), "TVMS")

	result := h.app.UpdateSettings(ctx, model.Settings{
		SystemName:         "TVMS Makati",
		DefaultFineAmount:  750,
		SMSNotifications:   true,
		PenaltyReminders:   false,
		RepeatOffenderMin:  4,
		PaymentDeadlineDay: 30,
	})
	require.NoError(t, result.Err)

	h.out.Reset()
	require.NoError(t, h.app.ShowSettings(ctx))
	assert.Contains(t, h.out.String(), "TVMS Makati")
	assert.Contains(t, h.out.String(), "PHP 750.00")
}

func TestUpdateSettingsValidatesLocally(t *testing.T) {
	h := newHarness(t)

	result := h.app.UpdateSettings(context.Background(), model.Settings{RepeatOffenderMin: 1})
	require.Error(t, result.Err)
	assert.NotEmpty(t, result.FieldErrors)
	assert.Zero(t, h.ts.RequestCount("PUT /admin/settings"))
}

func TestListRepeatOffenders(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.app.ListRepeatOffenders(context.Background(), 3, 10))
	output := h.out.String()
	assert.Contains(t, output, "Juan Dela Cruz")
	assert.Contains(t, output, "PHP 3,500.00")
	assert.Contains(t, output, time.Unix(1700000000, 0).Format("2006-01-02 15:04"))
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.app.Logout(ctx)
	assert.Nil(t, h.store.Current())

	result := h.app.Login(ctx, "admin@tvms.local", "admin123")
	require.True(t, result.OK)
	assert.Contains(t, h.out.String(), "Signed in as System Admin (admin).")
	assert.True(t, h.app.RequireAuth(ctx))
}

func waitForRequests(t *testing.T, h *harness, route string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ts.RequestCount(route) < want {
		if time.Now().After(deadline) {
			t.Fatalf("%s never reached %d requests", route, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatchViolationsRefreshesOnInterval(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.app.WatchViolations(ctx, model.ViolationFilter{})
	}()

	waitForRequests(t, h, "GET /violations", 3)
	cancel()
	<-done

	assert.Contains(t, h.out.String(), "VN-2025-0001")
}

func TestWatchRepeatOffendersRefreshesOnInterval(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.app.WatchRepeatOffenders(ctx, 0, 0)
	}()

	waitForRequests(t, h, "GET /admin/repeat-offenders", 3)
	cancel()
	<-done

	assert.Contains(t, h.out.String(), "Juan Dela Cruz")
}

func TestReportCacheKeysDistinguishPeriods(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	dayOne := console.ReportParams{Type: model.ReportDailySummary, Date: "2025-01-01"}
	dayTwo := console.ReportParams{Type: model.ReportDailySummary, Date: "2025-01-02"}

	require.NoError(t, h.app.RunReport(ctx, dayOne))
	require.NoError(t, h.app.RunReport(ctx, dayTwo))
	// Re-running the first day's summary is a cache hit.
	require.NoError(t, h.app.RunReport(ctx, dayOne))
	assert.Equal(t, 2, h.ts.RequestCount("GET /reports/:type"))

	// A different report type under the same resource is its own key.
	require.NoError(t, h.app.RunReport(ctx, console.ReportParams{Type: model.ReportMonthly, Month: 3, Year: 2025}))
	assert.Equal(t, 3, h.ts.RequestCount("GET /reports/:type"))
}

func TestReloginReArmsSessionExpiry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.ts.RejectAuth = true
	require.Error(t, h.app.ListViolations(ctx, model.ViolationFilter{}))
	require.Error(t, h.app.ListEnforcers(ctx))
	assert.Equal(t, int64(1), atomic.LoadInt64(&h.unauthed))

	h.ts.RejectAuth = false
	result := h.app.Login(ctx, "admin@tvms.local", "admin123")
	require.True(t, result.OK)

	// A second expiry after the new session is observed again.
	h.ts.RejectAuth = true
	require.Error(t, h.app.ListEnforcers(ctx))
	assert.Equal(t, int64(2), atomic.LoadInt64(&h.unauthed))
}

func TestSearchFollowsMutationsUntilStopped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	search := h.app.NewViolationSearch()
	var results int64
	search.OnResults = func(*model.ViolationPage) { atomic.AddInt64(&results, 1) }

	search.SetStatus(ctx, "")
	assert.Equal(t, int64(1), atomic.LoadInt64(&results))

	// A write invalidates the list caches and the open search re-runs.
	require.NoError(t, h.app.UpdateViolation(ctx, "v2", model.ViolationInput{Notes: "first pass"}).Err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&results))

	search.Stop()
	require.NoError(t, h.app.UpdateViolation(ctx, "v2", model.ViolationInput{Notes: "second pass"}).Err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&results))
}
