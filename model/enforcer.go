package model

// Enforcer is a handheld-device operator account managed from the console.
type Enforcer struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FullName    string      `json:"full_name"`
	BadgeNumber string      `json:"badge_number"`
	PhoneNumber string      `json:"phone_number"`
	IsActive    bool        `json:"is_active"`
	LastLogin   interface{} `json:"last_login,omitempty"`
}

// EnforcerInput is the writable shape for create/update. Password is
// only accepted at creation; the backend rejects it on update.
type EnforcerInput struct {
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	FullName    string `json:"full_name,omitempty"`
	BadgeNumber string `json:"badge_number,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Password    string `json:"password,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}
