package model

// Report types served by the backend report endpoints.
const (
	ReportViolations   = "violations"
	ReportEnforcers    = "enforcers"
	ReportDailySummary = "daily-summary"
	ReportMonthly      = "monthly"
)

// SummaryStat is one key/value pair of a report's summary block.
type SummaryStat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ReportPeriod describes the filter window the report was computed for.
// Label is the human caption ("2025-01-01 to 2025-01-31", "March 2025").
type ReportPeriod struct {
	Label string `json:"label"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// Report is the server-computed aggregate behind the report views.
// It is ephemeral: fetched, rendered, optionally exported, never
// persisted client-side.
type Report struct {
	Type    string        `json:"report_type"`
	Period  ReportPeriod  `json:"period"`
	Summary []SummaryStat `json:"summary"`
	Columns []string      `json:"columns"`
	Rows    [][]string    `json:"rows"`
}
