package notifier

import (
	"context"
	"encoding/json"

	"go-leave/internal/bootstrap"
	"go-leave/internal/employee"
	"go-leave/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeLeaveStatusChanges delivers status-change notifications. Delivery is
// fire-and-forget: a decode failure commits and moves on, a directory lookup
// failure still records the event without a recipient name.
func ConsumeLeaveStatusChanges(
	ctx context.Context,
	reader *kafkago.Reader,
	employees employee.Repository,
	auditLogger bootstrap.AuditLogger,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_status")
	log.Info("leave status consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave status consumer stopped")
				return
			}
			log.Error("fetch leave status message failed", zap.Error(err))
			continue
		}

		var event events.LeaveStatusChangedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode leave status event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		recipientName := ""
		if event.RecipientID != "" {
			if e, err := employees.FindByID(ctx, event.RecipientID); err == nil {
				recipientName = e.FullName
			} else {
				log.Warn("resolve notification recipient failed",
					zap.String("recipient_id", event.RecipientID),
					zap.Error(err),
				)
			}
		}

		auditLogger.Log(ctx, bootstrap.AuditLog{
			Action:  "LEAVE_NOTIFICATION",
			Message: "leave request " + event.RequestID + " is now " + event.Status,
			Meta: map[string]any{
				"request_id":     event.RequestID,
				"employee_id":    event.EmployeeID,
				"status":         event.Status,
				"recipient_id":   event.RecipientID,
				"recipient_name": recipientName,
			},
		})

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave status message failed", zap.Error(err))
			continue
		}

		log.Info("leave status notification recorded",
			zap.String("request_id", event.RequestID),
			zap.String("status", event.Status),
			zap.String("recipient_id", event.RecipientID),
		)
	}
}
