// util/notification_service.go

package util

import (
	"context"

	"go.uber.org/zap"

	"github.com/tvmsuite/console/apiclient"
	logger "github.com/tvmsuite/console/logging"
	"github.com/tvmsuite/console/model"
)

// SMSSender is the slice of the SMS facade the notifier needs.
type SMSSender interface {
	Send(ctx context.Context, violationID, message string) error
}

// NotificationService decides which violator notification a status
// transition triggers and issues it exactly once per transition.
type NotificationService struct {
	sms     SMSSender
	enabled bool
}

func NewNotificationService(sms SMSSender, enabled bool) *NotificationService {
	return &NotificationService{sms: sms, enabled: enabled}
}

// NotifyStatusChange sends the SMS matching the new status: a payment
// confirmation on paid, a penalty reminder on issued. Other statuses
// notify nobody. Returns whether a message was sent.
func (n *NotificationService) NotifyStatusChange(ctx context.Context, v model.Violation) (bool, error) {
	if !n.enabled {
		return false, nil
	}
	if v.ViolatorPhone == "" {
		logger.Debug("No violator phone on record, skipping SMS",
			zap.String("violationID", v.ID))
		return false, nil
	}

	var message string
	switch v.Status {
	case model.StatusPaid:
		message = apiclient.PaymentConfirmationMessage(v)
	case model.StatusIssued:
		message = apiclient.PenaltyReminderMessage(v)
	default:
		return false, nil
	}

	if err := n.sms.Send(ctx, v.ID, message); err != nil {
		logger.Warn("SMS notification failed",
			zap.String("violationID", v.ID),
			zap.String("status", v.Status),
			zap.Error(err))
		return false, err
	}

	logger.Info("SMS notification sent",
		zap.String("violationID", v.ID),
		zap.String("violationNumber", v.ViolationNumber),
		zap.String("status", v.Status))
	return true, nil
}
