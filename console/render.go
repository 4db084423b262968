// console/render.go
package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	consoleerrors "github.com/tvmsuite/console/errors"
	"github.com/tvmsuite/console/query"
)

// renderTable prints an aligned table with a header row. An empty row
// set renders the explicit no-data affordance instead: an empty list
// is a state, not a failure.
func renderTable(out io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "  (no records)")
		return
	}
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	fmt.Fprintln(w, strings.Repeat("-", 4))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

// renderError presents a read failure according to its class:
// transient ones get the retry affordance, auth ones the sign-in
// hint, the rest the plain message.
func renderError(out io.Writer, err error) {
	switch {
	case consoleerrors.IsNetworkError(err):
		fmt.Fprintln(out, "Could not reach the server. Check connectivity and retry.")
	case consoleerrors.IsAuthError(err):
		fmt.Fprintln(out, "Session expired. Sign in again.")
	case consoleerrors.IsNotFound(err):
		fmt.Fprintln(out, "No such record.")
	default:
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}

// renderMutationResult prints field-level validation errors next to
// their field names; the blanket message appears only when no
// field-level mapping exists.
func renderMutationResult(out io.Writer, result query.MutationResult) {
	if result.Err == nil {
		return
	}
	if len(result.FieldErrors) > 0 {
		fmt.Fprintln(out, "Validation failed:")
		for _, fieldErr := range result.FieldErrors {
			fmt.Fprintf(out, "  %s: %s\n", fieldErr.Param, fieldErr.Msg)
		}
		return
	}
	fmt.Fprintln(out, result.Message)
}
