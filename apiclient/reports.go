// apiclient/reports.go
package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tvmsuite/console/httpclient"
	"github.com/tvmsuite/console/model"
)

// ReportsClient wraps the /reports resource group. Every report is a
// server-computed aggregate; the console only fetches, renders and
// exports it.
type ReportsClient struct {
	client *httpclient.Client
}

func NewReportsClient(client *httpclient.Client) *ReportsClient {
	return &ReportsClient{client: client}
}

func (r *ReportsClient) Violations(ctx context.Context, from, to string) (*model.Report, error) {
	return r.fetch(ctx, model.ReportViolations, dateRange(from, to))
}

func (r *ReportsClient) Enforcers(ctx context.Context, from, to string) (*model.Report, error) {
	return r.fetch(ctx, model.ReportEnforcers, dateRange(from, to))
}

func (r *ReportsClient) DailySummary(ctx context.Context, date string) (*model.Report, error) {
	query := url.Values{}
	if date != "" {
		query.Set("date", date)
	}
	return r.fetch(ctx, model.ReportDailySummary, query)
}

func (r *ReportsClient) Monthly(ctx context.Context, month, year int) (*model.Report, error) {
	query := url.Values{}
	query.Set("month", strconv.Itoa(month))
	query.Set("year", strconv.Itoa(year))
	return r.fetch(ctx, model.ReportMonthly, query)
}

func (r *ReportsClient) fetch(ctx context.Context, reportType string, query url.Values) (*model.Report, error) {
	raw, err := r.client.JSON(ctx, http.MethodGet, "/reports/"+reportType, query, nil)
	if err != nil {
		return nil, err
	}
	var report model.Report
	if err := decode("reports", raw, &report); err != nil {
		return nil, err
	}
	if report.Type == "" {
		report.Type = reportType
	}
	return &report, nil
}

func dateRange(from, to string) url.Values {
	query := url.Values{}
	if from != "" {
		query.Set("date_from", from)
	}
	if to != "" {
		query.Set("date_to", to)
	}
	return query
}
