package worker

import (
	"context"
	"fmt"
	"time"

	"rentroll/internal/amqp"
	"rentroll/internal/cache"
	"rentroll/internal/log"
	gsheet "rentroll/internal/sheets/google"
)

// AlertAppender writes one alert row and returns where it landed.
type AlertAppender interface {
	AppendAlert(ctx context.Context, row gsheet.AlertRow) (string, error)
}

// AlertSink records consumed alert messages in the alerts spreadsheet.
// Redelivered messages whose ID was already written are acknowledged
// without writing a second row.
type AlertSink struct {
	sheet   AlertAppender
	written cache.Cache[string]
	now     func() time.Time
	logger  *log.Logger
}

func NewAlertSink(sheet AlertAppender, written cache.Cache[string], logger *log.Logger) *AlertSink {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AlertSink{
		sheet:   sheet,
		written: written,
		now:     time.Now,
		logger:  logger.WithComponent(log.ComponentSheets),
	}
}

// HandleAlertMessage processes a single alert message from AMQP.
func (s *AlertSink) HandleAlertMessage(ctx context.Context, msg *amqp.AlertMessage) error {
	if msg == nil || msg.ID == "" {
		return fmt.Errorf("alert message without id")
	}

	if ref, ok := s.written.Get(msg.ID); ok {
		s.logger.InfoContext(ctx, "Alert already recorded, skipping",
			log.FieldAlertID, msg.ID,
			log.FieldSheetsRef, ref)
		return nil
	}

	scannedAt := msg.Timestamp
	if scannedAt.IsZero() {
		scannedAt = s.now()
	}

	ref, err := s.sheet.AppendAlert(ctx, gsheet.AlertRow{
		ScannedAt: scannedAt,
		DueDate:   msg.DueDate,
		Priority:  msg.Priority,
		Kind:      msg.Kind,
		Title:     msg.Title,
		Message:   msg.Message,
		SubjectID: msg.SubjectID,
		AlertID:   msg.ID,
	})
	if err != nil {
		return fmt.Errorf("append alert to sheet: %w", err)
	}
	s.written.Set(msg.ID, ref)

	s.logger.InfoContext(ctx, "Alert recorded",
		log.FieldAlertID, msg.ID,
		log.FieldAlertKind, msg.Kind,
		log.FieldSheetsRef, ref)
	return nil
}
