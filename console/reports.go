// console/reports.go
package console

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	consoleerrors "github.com/tvmsuite/console/errors"
	"github.com/tvmsuite/console/model"
	"github.com/tvmsuite/console/query"
)

// ReportParams selects a report and its period.
type ReportParams struct {
	Type     string
	DateFrom string
	DateTo   string
	Date     string // daily summary
	Month    int    // monthly
	Year     int    // monthly
}

func (p ReportParams) key() query.Key {
	params := url.Values{}
	params.Set("type", p.Type)
	if p.DateFrom != "" {
		params.Set("date_from", p.DateFrom)
	}
	if p.DateTo != "" {
		params.Set("date_to", p.DateTo)
	}
	if p.Date != "" {
		params.Set("date", p.Date)
	}
	if p.Month != 0 {
		params.Set("month", strconv.Itoa(p.Month))
	}
	if p.Year != 0 {
		params.Set("year", strconv.Itoa(p.Year))
	}
	return query.NewKey(query.ResourceReports, params)
}

// RunReport fetches the selected report and renders it. A successful
// fetch arms export; a failed one leaves the previous armed report
// untouched.
func (a *App) RunReport(ctx context.Context, params ReportParams) error {
	data, err := a.cache.Fetch(ctx, params.key(), func(ctx context.Context) (interface{}, error) {
		switch params.Type {
		case model.ReportViolations:
			return a.reports.Violations(ctx, params.DateFrom, params.DateTo)
		case model.ReportEnforcers:
			return a.reports.Enforcers(ctx, params.DateFrom, params.DateTo)
		case model.ReportDailySummary:
			return a.reports.DailySummary(ctx, params.Date)
		case model.ReportMonthly:
			return a.reports.Monthly(ctx, params.Month, params.Year)
		default:
			return nil, fmt.Errorf("unknown report type %q", params.Type)
		}
	})
	if err != nil {
		renderError(a.out, err)
		return err
	}

	rep := data.(*model.Report)
	a.lastReport = rep

	a.printf("== %s report ==\n", strings.ReplaceAll(rep.Type, "-", " "))
	if rep.Period.Label != "" {
		a.printf("Period: %s\n", rep.Period.Label)
	}
	for _, stat := range rep.Summary {
		a.printf("  %-24s %s\n", stat.Label, stat.Value)
	}
	if len(rep.Columns) > 0 {
		renderTable(a.out, rep.Columns, rep.Rows)
	}
	return nil
}

// ExportReport writes the last fetched report in the requested
// format. Export is only available once a report has been fetched.
func (a *App) ExportReport(format string) error {
	if a.lastReport == nil {
		renderError(a.out, consoleerrors.ErrReportNotFetched)
		return consoleerrors.ErrReportNotFetched
	}

	var (
		path string
		err  error
	)
	switch format {
	case "json":
		path, err = a.generator.ExportJSON(a.lastReport)
	case "csv":
		path, err = a.generator.ExportCSV(a.lastReport)
	case "pdf":
		path, err = a.generator.ExportPDF(a.lastReport)
	default:
		err = fmt.Errorf("%w: unknown format %q", consoleerrors.ErrExportFailed, format)
	}
	if err != nil {
		renderError(a.out, err)
		return err
	}

	a.printf("Report written to %s\n", path)
	return nil
}
