package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"rentroll/internal/alerts"
	"rentroll/internal/core"
	"rentroll/internal/ledger"
	"rentroll/internal/projection"
	"rentroll/internal/records"
)

// Snapshot is one consistent read of every collection the engines need.
type Snapshot struct {
	Tenants   []core.Tenant
	Units     []core.Unit
	Documents []core.Document
	Payments  []core.Payment
	Settings  alerts.Settings
}

// PortfolioService loads lease records from a store and runs the projection
// and alert engines over them.
type PortfolioService struct {
	store  records.Store
	logger *slog.Logger
}

func NewPortfolioService(store records.Store, logger *slog.Logger) *PortfolioService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PortfolioService{store: store, logger: logger}
}

// Store returns the underlying record store.
func (s *PortfolioService) Store() records.Store {
	return s.store
}

// Snapshot reads all collections concurrently. The first failing read
// cancels the others.
func (s *PortfolioService) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tenants, err := s.store.ListTenants(gctx)
		if err != nil {
			return fmt.Errorf("list tenants: %w", err)
		}
		snap.Tenants = tenants
		return nil
	})
	g.Go(func() error {
		units, err := s.store.ListUnits(gctx)
		if err != nil {
			return fmt.Errorf("list units: %w", err)
		}
		snap.Units = units
		return nil
	})
	g.Go(func() error {
		docs, err := s.store.ListDocuments(gctx)
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		snap.Documents = docs
		return nil
	})
	g.Go(func() error {
		payments, err := s.store.ListPayments(gctx)
		if err != nil {
			return fmt.Errorf("list payments: %w", err)
		}
		snap.Payments = payments
		return nil
	})
	g.Go(func() error {
		settings, err := s.store.AlertSettings(gctx)
		if err != nil {
			return fmt.Errorf("alert settings: %w", err)
		}
		snap.Settings = settings
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Projection returns the income series for the months ending with asOf.
func (s *PortfolioService) Projection(ctx context.Context, months int, asOf time.Time, opts projection.Options) (projection.Result, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return projection.Result{}, err
	}
	res := projection.ProjectWithOptions(snap.Tenants, snap.Units, months, asOf, opts)
	s.logger.DebugContext(ctx, "Projection computed",
		"months", months,
		"as_of", core.DateOf(asOf).String(),
		"tenant_count", len(snap.Tenants),
		"total_income_cents", res.Metrics.TotalIncome.Cents)
	return res, nil
}

// Alerts scans the stored records with the stored settings.
func (s *PortfolioService) Alerts(ctx context.Context, asOf time.Time) ([]alerts.Alert, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return alerts.Scan(snap.Tenants, snap.Units, snap.Documents, snap.Settings, asOf), nil
}

func (s *PortfolioService) Balances(ctx context.Context) ([]ledger.TenantBalance, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.Balances(snap.Tenants, snap.Payments), nil
}

func (s *PortfolioService) LeaseSchedule(ctx context.Context, asOf time.Time, withinMonths int) ([]projection.LeaseExpiration, error) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return projection.LeaseSchedule(tenants, asOf, withinMonths), nil
}

func (s *PortfolioService) TenantMix(ctx context.Context) ([]projection.MixEntry, error) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return projection.TenantMix(tenants), nil
}

// UpdateAlertSettings validates and stores new scanner settings.
func (s *PortfolioService) UpdateAlertSettings(ctx context.Context, settings alerts.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveAlertSettings(ctx, settings); err != nil {
		return fmt.Errorf("save alert settings: %w", err)
	}
	s.logger.InfoContext(ctx, "Alert settings updated",
		"advance_notice_days", settings.AdvanceNoticeDays)
	return nil
}

// ImportTenants saves each tenant, stopping at the first failure. It returns
// how many were saved.
func (s *PortfolioService) ImportTenants(ctx context.Context, tenants []core.Tenant) (int, error) {
	for i, t := range tenants {
		if _, err := s.store.SaveTenant(ctx, t); err != nil {
			return i, fmt.Errorf("save tenant %q: %w", t.Name, err)
		}
	}
	s.logger.InfoContext(ctx, "Tenants imported", "tenant_count", len(tenants))
	return len(tenants), nil
}
