// apiclient/sms.go
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tvmsuite/console/httpclient"
	"github.com/tvmsuite/console/model"
	helper_util "github.com/tvmsuite/console/util/helper"
)

// SMSClient wraps the SMS notification endpoint. The actual delivery
// happens backend-side; the console only composes messages and
// triggers the send.
type SMSClient struct {
	client *httpclient.Client
}

func NewSMSClient(client *httpclient.Client) *SMSClient {
	return &SMSClient{client: client}
}

// Send asks the backend to text the violator for the given violation.
func (s *SMSClient) Send(ctx context.Context, violationID, message string) error {
	body := map[string]string{"message": message}
	raw, err := s.client.JSON(ctx, http.MethodPost, "/violations/"+url.PathEscape(violationID)+"/send-sms", nil, body)
	if err != nil {
		return err
	}
	return decode("sms", raw, nil)
}

// PaymentConfirmationMessage is sent when a violation transitions to
// paid.
func PaymentConfirmationMessage(v model.Violation) string {
	return fmt.Sprintf("Payment received for violation %s. Amount: %s. Thank you.",
		v.ViolationNumber, helper_util.FormatFine(v.FineAmount))
}

// PenaltyReminderMessage is sent when a violation is issued.
func PenaltyReminderMessage(v model.Violation) string {
	return fmt.Sprintf("Violation %s has been issued. Fine due: %s. Please settle to avoid penalties.",
		v.ViolationNumber, helper_util.FormatFine(v.FineAmount))
}
