package model

import (
	"net/url"
	"strconv"
)

// Violation statuses as issued by the backend. Transitions are
// admin-initiated from the console; enforcer handhelds only create
// records in the pending state.
const (
	StatusPending   = "pending"
	StatusIssued    = "issued"
	StatusPaid      = "paid"
	StatusDisputed  = "disputed"
	StatusCancelled = "cancelled"
)

// ValidStatuses lists every status the console may write.
var ValidStatuses = []string{StatusPending, StatusIssued, StatusPaid, StatusDisputed, StatusCancelled}

// Violation is a citation captured by an enforcer handheld.
// CapturedAt is left untyped: handhelds, the backend and older
// exports disagree on the wire shape, and the timestamp normalizer
// is the single place that reconciles them.
type Violation struct {
	ID                      string      `json:"id"`
	ViolationNumber         string      `json:"violation_number"`
	ViolatorName            string      `json:"violator_name"`
	ViolatorLicense         string      `json:"violator_license,omitempty"`
	ViolatorPhone           string      `json:"violator_phone,omitempty"`
	VehiclePlate            string      `json:"vehicle_plate"`
	ViolationType           string      `json:"violation_type"`
	FineAmount              float64     `json:"fine_amount"`
	Status                  string      `json:"status"`
	EnforcerName            string      `json:"enforcer_name"`
	EnforcerBadge           string      `json:"enforcer_badge"`
	Location                string      `json:"location"`
	CapturedAt              interface{} `json:"captured_at"`
	IsRepeatOffender        bool        `json:"is_repeat_offender"`
	PreviousViolationsCount int         `json:"previous_violations_count"`
	Notes                   string      `json:"notes,omitempty"`
}

// ViolationInput is the writable subset sent on create/update.
type ViolationInput struct {
	ViolatorName    string  `json:"violator_name,omitempty"`
	ViolatorLicense string  `json:"violator_license,omitempty"`
	ViolatorPhone   string  `json:"violator_phone,omitempty"`
	VehiclePlate    string  `json:"vehicle_plate,omitempty"`
	ViolationType   string  `json:"violation_type,omitempty"`
	FineAmount      float64 `json:"fine_amount,omitempty"`
	Status          string  `json:"status,omitempty"`
	Location        string  `json:"location,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

// ViolationFilter is per-view query state. It doubles as the cache
// key source: distinct filter combinations cache independently.
type ViolationFilter struct {
	Search   string `json:"search,omitempty"`
	Status   string `json:"status,omitempty"`
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
	Page     int    `json:"page,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Values serializes the filter into request query parameters,
// omitting zero values so the key stays stable.
func (f ViolationFilter) Values() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.DateFrom != "" {
		v.Set("date_from", f.DateFrom)
	}
	if f.DateTo != "" {
		v.Set("date_to", f.DateTo)
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

// ViolationPage is one page of the violations listing.
type ViolationPage struct {
	Violations []Violation `json:"violations"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
}

// ViolationStats is the stats overview aggregate.
type ViolationStats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	TotalFines float64        `json:"total_fines"`
	PaidFines  float64        `json:"paid_fines"`
}

// RepeatOffender is one row of the repeat-offender analytics.
// LastViolationAt arrives in either the plain-date or the
// seconds-object shape depending on the producer.
type RepeatOffender struct {
	ViolatorName    string      `json:"violator_name"`
	ViolatorLicense string      `json:"violator_license,omitempty"`
	VehiclePlate    string      `json:"vehicle_plate"`
	ViolationCount  int         `json:"violation_count"`
	TotalFines      float64     `json:"total_fines"`
	LastViolationAt interface{} `json:"last_violation_at"`
}
