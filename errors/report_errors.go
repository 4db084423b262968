// errors/report_errors.go
package errors

import "errors"

var (
	ErrReportNotFetched = errors.New("report has not been fetched")
	ErrExportFailed     = errors.New("report export failed")
)
