package model

// DashboardStats is the admin dashboard aggregate.
type DashboardStats struct {
	TotalViolations   int     `json:"total_violations"`
	PendingViolations int     `json:"pending_violations"`
	PaidViolations    int     `json:"paid_violations"`
	TotalFines        float64 `json:"total_fines"`
	CollectedFines    float64 `json:"collected_fines"`
	ActiveEnforcers   int     `json:"active_enforcers"`
	TodayViolations   int     `json:"today_violations"`
	RepeatOffenders   int     `json:"repeat_offenders"`
}

// Settings is the system-wide configuration edited from the settings view.
type Settings struct {
	SystemName         string  `json:"system_name"`
	DefaultFineAmount  float64 `json:"default_fine_amount"`
	SMSNotifications   bool    `json:"sms_notifications"`
	PenaltyReminders   bool    `json:"penalty_reminders"`
	RepeatOffenderMin  int     `json:"repeat_offender_min"`
	PaymentDeadlineDay int     `json:"payment_deadline_days"`
}
