package model

// Roles known to the console. Enforcer accounts exist but only
// admins are expected to sign in here.
const (
	RoleAdmin    = "admin"
	RoleEnforcer = "enforcer"
)

// User is the authenticated account profile returned by /auth/me.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
}

// Session is the live authenticated state. The token is mirrored into
// the durable token file so the session survives a console restart.
type Session struct {
	UserID      string
	Role        string
	DisplayName string
	Token       string
}

// AuthPayload is the login response body.
type AuthPayload struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
