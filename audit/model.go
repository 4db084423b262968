// audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

// Record is one administrative action taken from the console. The
// trail is local: it answers "what did this operator do from this
// machine", not "what happened system-wide" (that is the backend's
// job).
type Record struct {
	Timestamp     time.Time       `json:"timestamp"`
	UserID        string          `json:"user_id"`
	Action        string          `json:"action"`
	ResourceID    string          `json:"resource_id"`
	Succeeded     bool            `json:"succeeded"`
	ChangeDetails json.RawMessage `json:"change_details,omitempty"`
}
