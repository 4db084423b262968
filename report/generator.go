// report/generator.go
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	consoleerrors "github.com/tvmsuite/console/errors"
	logger "github.com/tvmsuite/console/logging"
	"github.com/tvmsuite/console/model"
)

// Generator turns a fetched report payload into downloadable
// artifacts in the export directory. Export is only meaningful after
// a successful fetch; callers gate on that.
type Generator struct {
	dir string
}

func NewGenerator(dir string) *Generator {
	return &Generator{dir: dir}
}

// Filename derives the deterministic artifact name from the report
// type and period, e.g. "violations-report_2025-01-01_2025-01-31.csv".
func Filename(reportType string, period model.ReportPeriod, ext string) string {
	name := reportType + "-report"
	if period.From != "" && period.To != "" {
		name += "_" + period.From + "_" + period.To
	} else if period.Label != "" {
		name += "_" + sanitize(period.Label)
	}
	return name + "." + ext
}

// ExportJSON writes the report as a structured-data file and returns
// the written path.
func (g *Generator) ExportJSON(report *model.Report) (string, error) {
	if report == nil {
		return "", consoleerrors.ErrReportNotFetched
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", consoleerrors.ErrExportFailed, err)
	}
	return g.write(Filename(report.Type, report.Period, "json"), data)
}

// ExportCSV writes the summary block and the line items as CSV.
func (g *Generator) ExportCSV(report *model.Report) (string, error) {
	if report == nil {
		return "", consoleerrors.ErrReportNotFetched
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	for _, stat := range report.Summary {
		if err := w.Write([]string{stat.Label, stat.Value}); err != nil {
			return "", fmt.Errorf("%w: %v", consoleerrors.ErrExportFailed, err)
		}
	}
	if len(report.Columns) > 0 {
		if err := w.Write(report.Columns); err != nil {
			return "", fmt.Errorf("%w: %v", consoleerrors.ErrExportFailed, err)
		}
	}
	for _, row := range report.Rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("%w: %v", consoleerrors.ErrExportFailed, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("%w: %v", consoleerrors.ErrExportFailed, err)
	}

	return g.write(Filename(report.Type, report.Period, "csv"), []byte(sb.String()))
}

// ExportRaw writes a backend-streamed export payload (the violations
// export endpoint) under the server-suggested name, or a derived one.
func (g *Generator) ExportRaw(payload []byte, suggested string) (string, error) {
	if suggested == "" {
		suggested = "violations-export.csv"
	}
	return g.write(sanitize(suggested), payload)
}

// write lands the artifact atomically: build in a temp file, rename
// into place. A failed export never leaves a partial file behind.
func (g *Generator) write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", consoleerrors.ErrExportFailed, err)
	}

	tmp, err := os.CreateTemp(g.dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", consoleerrors.ErrExportFailed, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: %v", consoleerrors.ErrExportFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: %v", consoleerrors.ErrExportFailed, err)
	}

	path := filepath.Join(g.dir, name)
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: %v", consoleerrors.ErrExportFailed, err)
	}

	logger.Info("Report exported", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
