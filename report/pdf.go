// report/pdf.go
package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	consoleerrors "github.com/tvmsuite/console/errors"
	"github.com/tvmsuite/console/model"
)

const (
	pageWidth  = 210.0 // A4 portrait, mm
	marginSide = 10.0
	usableW    = pageWidth - 2*marginSide
)

// ExportPDF lays the report out as a printable document: title,
// period caption, summary key/value block, then the line-item table.
// An empty line-item list still yields a valid summary-only document.
func (g *Generator) ExportPDF(report *model.Report) (string, error) {
	if report == nil {
		return "", consoleerrors.ErrReportNotFetched
	}

	var buf bytes.Buffer
	if err := buildPDF(report, &buf); err != nil {
		return "", fmt.Errorf("%w: %v", consoleerrors.ErrExportFailed, err)
	}
	return g.write(Filename(report.Type, report.Period, "pdf"), buf.Bytes())
}

func buildPDF(report *model.Report, buf *bytes.Buffer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginSide, 15, marginSide)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle(titleFor(report.Type), false)
	pdf.AddPage()

	// Title and period caption.
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(usableW, 10, titleFor(report.Type), "", 1, "C", false, 0, "")
	if report.Period.Label != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(usableW, 6, "Period: "+report.Period.Label, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	// Summary block.
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(usableW, 7, "Summary", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, stat := range report.Summary {
		pdf.CellFormat(usableW/2, 6, stat.Label, "", 0, "L", false, 0, "")
		pdf.CellFormat(usableW/2, 6, stat.Value, "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	if len(report.Columns) > 0 {
		writeTable(pdf, report.Columns, report.Rows)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(buf)
}

// writeTable renders the line items, repeating the header row on
// every page the table spills onto.
func writeTable(pdf *fpdf.Fpdf, columns []string, rows [][]string) {
	colW := usableW / float64(len(columns))

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, col := range columns {
			pdf.CellFormat(colW, 7, col, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	_, pageH := pdf.GetPageSize()
	for _, row := range rows {
		if pdf.GetY() > pageH-25 {
			pdf.AddPage()
			header()
		}
		for i := 0; i < len(columns); i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pdf.CellFormat(colW, 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func titleFor(reportType string) string {
	switch reportType {
	case model.ReportViolations:
		return "Violations Report"
	case model.ReportEnforcers:
		return "Enforcer Activity Report"
	case model.ReportDailySummary:
		return "Daily Summary Report"
	case model.ReportMonthly:
		return "Monthly Report"
	default:
		return "Report"
	}
}
