// Package worker runs the background halves of alert delivery: the scan
// that publishes new alerts and the sink that records consumed ones.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentroll/internal/alerts"
	"rentroll/internal/cache"
	"rentroll/internal/log"
)

// AlertScanner produces the current alerts as of an instant.
type AlertScanner interface {
	Alerts(ctx context.Context, asOf time.Time) ([]alerts.Alert, error)
}

// Notifier delivers one alert.
type Notifier interface {
	Notify(ctx context.Context, a alerts.Alert) error
}

// ScanResult summarizes one scan.
type ScanResult struct {
	Total     int
	Published int
	Skipped   int
	Failed    int
}

// AlertWorker scans on demand and publishes alerts it has not published
// before. Alert IDs are stable, so an unchanged portfolio publishes
// nothing on later scans while the IDs stay in the seen cache.
type AlertWorker struct {
	scanner  AlertScanner
	notifier Notifier
	seen     cache.Cache[struct{}]
	now      func() time.Time
	logger   *log.Logger
	sl       *log.StructuredLogger
}

// Option configures an AlertWorker.
type Option func(*AlertWorker)

// WithClock replaces time.Now as the scan instant.
func WithClock(now func() time.Time) Option {
	return func(w *AlertWorker) { w.now = now }
}

func NewAlertWorker(scanner AlertScanner, notifier Notifier, seen cache.Cache[struct{}], logger *log.Logger, opts ...Option) *AlertWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentWorker)
	w := &AlertWorker{
		scanner:  scanner,
		notifier: notifier,
		seen:     seen,
		now:      time.Now,
		logger:   logger,
		sl:       log.NewStructuredLogger(logger),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name implements scheduler.Job.
func (w *AlertWorker) Name() string {
	return "alert-scan"
}

// Run implements scheduler.Job.
func (w *AlertWorker) Run(ctx context.Context) error {
	_, err := w.ScanOnce(ctx)
	return err
}

// ScanOnce runs one scan and publishes every unseen alert. A failed publish
// leaves the alert unseen so the next scan retries it.
func (w *AlertWorker) ScanOnce(ctx context.Context) (ScanResult, error) {
	asOf := w.now()
	list, err := w.scanner.Alerts(ctx, asOf)
	if err != nil {
		return ScanResult{}, fmt.Errorf("scan alerts: %w", err)
	}

	res := ScanResult{Total: len(list)}
	var errs []error
	for _, a := range list {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		key := seenKey(a)
		if _, ok := w.seen.Get(key); ok {
			res.Skipped++
			continue
		}
		if err := w.notifier.Notify(ctx, a); err != nil {
			res.Failed++
			errs = append(errs, err)
			w.logger.WarnContext(ctx, "Alert publish failed",
				log.FieldAlertID, a.ID,
				log.FieldAlertKind, string(a.Kind),
				log.FieldError, err.Error())
			continue
		}
		w.seen.Set(key, struct{}{})
		res.Published++
	}

	counts := alerts.CountByPriority(list)
	w.sl.LogScanCompleted(ctx, asOf.Format(time.RFC3339), res.Total, counts[alerts.PriorityHigh])
	w.logger.InfoContext(ctx, "Alert scan published",
		"published", res.Published,
		"skipped", res.Skipped,
		"failed", res.Failed)

	if len(errs) > 0 {
		return res, errors.Join(errs...)
	}
	return res, nil
}

// seenKey includes the priority so an alert that escalates is published again.
func seenKey(a alerts.Alert) string {
	return a.ID + "|" + string(a.Priority)
}
