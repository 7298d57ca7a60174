package services

import (
	"context"
	"fmt"

	"rentroll/internal/alerts"
	"rentroll/internal/amqp"
	"rentroll/internal/log"
)

// AlertPublisher delivers alert messages to a broker.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, msg *amqp.AlertMessage) error
}

// AlertNotifier hands alerts to a publisher. Without a publisher it logs
// the alert and reports success so callers treat it as delivered.
type AlertNotifier struct {
	publisher AlertPublisher
	logger    *log.Logger
	sl        *log.StructuredLogger
}

func NewAlertNotifier(publisher AlertPublisher, logger *log.Logger) *AlertNotifier {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentAlerts)
	return &AlertNotifier{
		publisher: publisher,
		logger:    logger,
		sl:        log.NewStructuredLogger(logger),
	}
}

// Notify publishes a single alert.
func (n *AlertNotifier) Notify(ctx context.Context, a alerts.Alert) error {
	if n.publisher == nil {
		n.logger.WarnContext(ctx, "AMQP client not available, skipping alert message",
			log.FieldAlertID, a.ID,
			log.FieldAlertKind, string(a.Kind),
			log.FieldAlertPriority, string(a.Priority),
			"title", a.Title)
		return nil
	}

	if err := n.publisher.PublishAlert(ctx, amqp.NewAlertMessage(a)); err != nil {
		return fmt.Errorf("publish alert %s: %w", a.ID, err)
	}
	n.sl.LogAlertPublished(ctx, a.ID, string(a.Kind), string(a.Priority), a.DueDate.String())
	return nil
}
