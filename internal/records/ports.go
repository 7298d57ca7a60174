// Package records defines the storage ports the services load lease records
// through. Adapters live in sub-packages and in internal/storage.
package records

import (
	"context"
	"errors"

	"rentroll/internal/alerts"
	"rentroll/internal/core"
)

// ErrNotFound is returned when a record with the requested ID does not exist.
var ErrNotFound = errors.New("record not found")

// Ports for outbound adapters. Save methods assign an ID when the record has
// none and return the stored record.
type (
	TenantStore interface {
		ListTenants(ctx context.Context) ([]core.Tenant, error)
		GetTenant(ctx context.Context, id string) (core.Tenant, error)
		SaveTenant(ctx context.Context, t core.Tenant) (core.Tenant, error)
		DeleteTenant(ctx context.Context, id string) error
	}

	UnitStore interface {
		ListUnits(ctx context.Context) ([]core.Unit, error)
		SaveUnit(ctx context.Context, u core.Unit) (core.Unit, error)
	}

	DocumentStore interface {
		ListDocuments(ctx context.Context) ([]core.Document, error)
		SaveDocument(ctx context.Context, d core.Document) (core.Document, error)
	}

	PaymentStore interface {
		ListPayments(ctx context.Context) ([]core.Payment, error)
		SavePayment(ctx context.Context, p core.Payment) (core.Payment, error)
	}

	SettingsStore interface {
		// AlertSettings returns the stored settings, or the defaults when
		// none were saved.
		AlertSettings(ctx context.Context) (alerts.Settings, error)
		SaveAlertSettings(ctx context.Context, s alerts.Settings) error
	}

	Store interface {
		TenantStore
		UnitStore
		DocumentStore
		PaymentStore
		SettingsStore
	}
)
