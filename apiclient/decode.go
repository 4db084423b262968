// apiclient/decode.go
package apiclient

import (
	"encoding/json"
	"errors"
	"net/http"

	consoleerrors "github.com/tvmsuite/console/errors"
)

// envelope is the backend's standard response wrapper: a success flag
// at the top level and the real payload under data.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// decode unwraps the envelope and unmarshals data into out. This is
// the single validation point for response shapes: a malformed body
// fails fast here instead of surfacing as a nil deep in a view.
func decode(resource string, raw []byte, out interface{}) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &consoleerrors.DecodeError{Resource: resource, Err: err}
	}
	if !env.Success {
		// A 2xx with success=false is the backend refusing the
		// operation; treat it like any other API failure.
		return &consoleerrors.APIError{Status: http.StatusOK, Message: env.Message}
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 {
		return &consoleerrors.DecodeError{Resource: resource, Err: errors.New("missing data field")}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &consoleerrors.DecodeError{Resource: resource, Err: err}
	}
	return nil
}
