// apiclient/client_test.go
package apiclient_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvmsuite/console/apiclient"
	consoleerrors "github.com/tvmsuite/console/errors"
	"github.com/tvmsuite/console/httpclient"
	logger "github.com/tvmsuite/console/logging"
	"github.com/tvmsuite/console/model"
	"github.com/tvmsuite/console/query"
	"github.com/tvmsuite/console/testserver"
	helper_util "github.com/tvmsuite/console/util/helper"
)

type fixedToken struct{}

func (fixedToken) Token() string { return testserver.ValidToken }

func newClient(ts *testserver.TestServer) *httpclient.Client {
	return httpclient.New(ts.URL(), 5*time.Second, fixedToken{}, nil)
}

func TestViolationsList(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	violations := apiclient.NewViolationsClient(newClient(ts))

	page, err := violations.List(context.Background(), model.ViolationFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Violations, 3)
	assert.Equal(t, "VN-2025-0001", page.Violations[0].ViolationNumber)

	// The handheld compact timestamp round-trips through the untyped
	// field and normalizes on display.
	captured := helper_util.ParseTimestamp(page.Violations[0].CapturedAt)
	assert.Equal(t, time.Date(2025, time.December, 4, 14, 30, 0, 0, time.Local), captured)
}

func TestViolationsListFiltersByStatus(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	violations := apiclient.NewViolationsClient(newClient(ts))

	page, err := violations.List(context.Background(), model.ViolationFilter{Status: model.StatusPaid, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Violations, 1)
	assert.Equal(t, "VN-2025-0003", page.Violations[0].ViolationNumber)
}

func TestViolationGetNotFound(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	violations := apiclient.NewViolationsClient(newClient(ts))

	_, err := violations.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, consoleerrors.IsNotFound(err))
}

func TestViolationUpdateValidationDetails(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	ts.FailValidation = true
	violations := apiclient.NewViolationsClient(newClient(ts))

	_, err := violations.Update(context.Background(), "v1", model.ViolationInput{Status: model.StatusPaid})
	require.Error(t, err)
	details := consoleerrors.ValidationDetails(err)
	require.Len(t, details, 2)
	assert.Equal(t, "fine_amount", details[0].Param)
	assert.Equal(t, "status", details[1].Param)
}

func TestViolationExportStream(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	violations := apiclient.NewViolationsClient(newClient(ts))

	payload, name, err := violations.Export(context.Background(), model.ViolationFilter{})
	require.NoError(t, err)
	assert.Equal(t, "violations-export.csv", name)
	assert.Contains(t, string(payload), "VN-2025-0001")
	assert.Contains(t, string(payload), "500.00")
}

func TestConcurrentListsShareOneRequest(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	ts.Latency = 100 * time.Millisecond
	violations := apiclient.NewViolationsClient(newClient(ts))

	cache := query.NewCache()
	filter := model.ViolationFilter{Status: model.StatusPending, Limit: 10}
	key := query.NewKey(query.ResourceViolations, filter.Values())
	fetch := func(ctx context.Context) (interface{}, error) {
		return violations.List(ctx, filter)
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := cache.Fetch(context.Background(), key, fetch)
			assert.NoError(t, err)
			assert.NotNil(t, data)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ts.RequestCount("GET /violations"))
}

func TestDashboardAggregates(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	admin := apiclient.NewAdminClient(newClient(ts))

	stats, err := admin.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalViolations)
	assert.Equal(t, 1, stats.PendingViolations)
	assert.Equal(t, 1, stats.PaidViolations)
	assert.Equal(t, float64(3500), stats.TotalFines)
	assert.Equal(t, float64(2000), stats.CollectedFines)
	assert.Equal(t, 1, stats.ActiveEnforcers)
}

func TestRepeatOffendersThreshold(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	admin := apiclient.NewAdminClient(newClient(ts))

	offenders, err := admin.RepeatOffenders(context.Background(), 4, 0)
	require.NoError(t, err)
	require.Len(t, offenders, 1)
	assert.Equal(t, "Juan Dela Cruz", offenders[0].ViolatorName)

	// The seconds-object shape normalizes like everything else.
	lastAt := helper_util.ParseTimestamp(offenders[0].LastViolationAt)
	assert.Equal(t, time.Unix(1700000000, 0), lastAt)
}

func TestNextBadgeNumber(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	admin := apiclient.NewAdminClient(newClient(ts))

	badge, err := admin.NextBadgeNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "B-003", badge)
}

func TestReportsCarryPeriod(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	reports := apiclient.NewReportsClient(newClient(ts))

	rep, err := reports.Violations(context.Background(), "2025-01-01", "2025-01-31")
	require.NoError(t, err)
	assert.Equal(t, model.ReportViolations, rep.Type)
	assert.Equal(t, "2025-01-01", rep.Period.From)
	assert.Equal(t, "2025-01-31", rep.Period.To)
	assert.NotEmpty(t, rep.Summary)
	assert.Len(t, rep.Rows, 3)
}

func TestSMSMessagesNameViolationAndFine(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	v := model.Violation{ViolationNumber: "VN-2025-0002", FineAmount: 1000}

	paid := apiclient.PaymentConfirmationMessage(v)
	assert.Contains(t, paid, "VN-2025-0002")
	assert.Contains(t, paid, "PHP 1,000.00")

	issued := apiclient.PenaltyReminderMessage(v)
	assert.Contains(t, issued, "VN-2025-0002")
	assert.Contains(t, issued, "PHP 1,000.00")
}
