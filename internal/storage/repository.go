package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"rentroll/internal/alerts"
	"rentroll/internal/core"
	"rentroll/internal/records"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db       *sql.DB
	defaults alerts.Settings
}

var _ records.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers; SQLite would otherwise
	// return SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, defaults: alerts.DefaultSettings()}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SetDefaultSettings changes what AlertSettings returns before any settings
// were saved.
func (r *SQLiteRepository) SetDefaultSettings(s alerts.Settings) {
	r.defaults = s
}

// Ping implements a readiness check.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListTenants implements records.TenantStore
func (r *SQLiteRepository) ListTenants(ctx context.Context) ([]core.Tenant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, unit_id, status, lease_start, lease_end, base_rent_cents,
		       additional_rent_cents, square_feet, next_payment_date
		FROM tenants ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []core.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}

	escalations, err := r.escalationsByTenant(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tenants {
		tenants[i].Escalations = escalations[tenants[i].ID]
	}
	return tenants, nil
}

// GetTenant implements records.TenantStore
func (r *SQLiteRepository) GetTenant(ctx context.Context, id string) (core.Tenant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, unit_id, status, lease_start, lease_end, base_rent_cents,
		       additional_rent_cents, square_feet, next_payment_date
		FROM tenants WHERE id = ?`, id)
	t, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Tenant{}, records.ErrNotFound
	}
	if err != nil {
		return core.Tenant{}, err
	}

	escalations, err := r.escalationsByTenant(ctx)
	if err != nil {
		return core.Tenant{}, err
	}
	t.Escalations = escalations[t.ID]
	return t, nil
}

// SaveTenant implements records.TenantStore. The tenant row is upserted and
// its escalations replaced in one transaction.
func (r *SQLiteRepository) SaveTenant(ctx context.Context, t core.Tenant) (core.Tenant, error) {
	if err := t.Validate(); err != nil {
		return core.Tenant{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tenants (id, position, name, unit_id, status, lease_start, lease_end,
			                     base_rent_cents, additional_rent_cents, square_feet, next_payment_date)
			VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM tenants), ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				unit_id = excluded.unit_id,
				status = excluded.status,
				lease_start = excluded.lease_start,
				lease_end = excluded.lease_end,
				base_rent_cents = excluded.base_rent_cents,
				additional_rent_cents = excluded.additional_rent_cents,
				square_feet = excluded.square_feet,
				next_payment_date = excluded.next_payment_date,
				updated_at = CURRENT_TIMESTAMP`,
			t.ID, t.Name, t.UnitID, t.Status, nullDate(t.LeaseStart), nullDate(t.LeaseEnd),
			t.BaseRent.Cents, t.AdditionalRent.Cents, t.SquareFeet.Float(), nullDate(t.NextPaymentDate))
		if err != nil {
			return fmt.Errorf("upsert tenant: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM escalations WHERE tenant_id = ?`, t.ID); err != nil {
			return fmt.Errorf("clear escalations: %w", err)
		}
		for i, e := range t.Escalations {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO escalations (tenant_id, position, effective_date, amount, type)
				VALUES (?, ?, ?, ?, ?)`,
				t.ID, i, nullDate(e.Date), e.Amount.Float(), string(e.Type))
			if err != nil {
				return fmt.Errorf("insert escalation: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return core.Tenant{}, err
	}

	slog.InfoContext(ctx, "Tenant saved to SQLite",
		"id", t.ID,
		"name", t.Name,
		"base_rent_cents", t.BaseRent.Cents,
		"escalations", len(t.Escalations))
	return t, nil
}

// DeleteTenant implements records.TenantStore
func (r *SQLiteRepository) DeleteTenant(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete tenant: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete tenant: %w", err)
		}
		if n == 0 {
			return records.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM escalations WHERE tenant_id = ?`, id); err != nil {
			return fmt.Errorf("delete escalations: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) escalationsByTenant(ctx context.Context) (map[string][]core.Escalation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tenant_id, effective_date, amount, type
		FROM escalations ORDER BY tenant_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list escalations: %w", err)
	}
	defer rows.Close()

	out := map[string][]core.Escalation{}
	for rows.Next() {
		var (
			tenantID string
			date     sql.NullString
			amount   float64
			kind     string
		)
		if err := rows.Scan(&tenantID, &date, &amount, &kind); err != nil {
			return nil, fmt.Errorf("scan escalation: %w", err)
		}
		out[tenantID] = append(out[tenantID], core.Escalation{
			Date:   scanDate(date),
			Amount: core.Number(amount),
			Type:   core.EscalationType(kind),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate escalations: %w", err)
	}
	return out, nil
}

// ListUnits implements records.UnitStore
func (r *SQLiteRepository) ListUnits(ctx context.Context) ([]core.Unit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, number, type, square_feet, base_rent_psf, status
		FROM units ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var units []core.Unit
	for rows.Next() {
		var (
			u      core.Unit
			sf     float64
			psf    float64
			status string
		)
		if err := rows.Scan(&u.ID, &u.Number, &u.Type, &sf, &psf, &status); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		u.SquareFeet = core.Number(sf)
		u.BaseRentPSF = core.Number(psf)
		u.Status = core.UnitStatus(status)
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate units: %w", err)
	}

	schedule, err := r.maintenanceByUnit(ctx)
	if err != nil {
		return nil, err
	}
	for i := range units {
		units[i].MaintenanceSchedule = schedule[units[i].ID]
	}
	return units, nil
}

// SaveUnit implements records.UnitStore
func (r *SQLiteRepository) SaveUnit(ctx context.Context, u core.Unit) (core.Unit, error) {
	if err := u.Validate(); err != nil {
		return core.Unit{}, err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO units (id, position, number, type, square_feet, base_rent_psf, status)
			VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM units), ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				number = excluded.number,
				type = excluded.type,
				square_feet = excluded.square_feet,
				base_rent_psf = excluded.base_rent_psf,
				status = excluded.status,
				updated_at = CURRENT_TIMESTAMP`,
			u.ID, u.Number, u.Type, u.SquareFeet.Float(), u.BaseRentPSF.Float(), string(u.Status))
		if err != nil {
			return fmt.Errorf("upsert unit: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM maintenance_entries WHERE unit_id = ?`, u.ID); err != nil {
			return fmt.Errorf("clear maintenance schedule: %w", err)
		}
		for i, m := range u.MaintenanceSchedule {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO maintenance_entries (unit_id, position, type, due_date)
				VALUES (?, ?, ?, ?)`,
				u.ID, i, m.Type, nullDate(m.DueDate))
			if err != nil {
				return fmt.Errorf("insert maintenance entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return core.Unit{}, err
	}
	return u, nil
}

func (r *SQLiteRepository) maintenanceByUnit(ctx context.Context) (map[string][]core.MaintenanceEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT unit_id, type, due_date
		FROM maintenance_entries ORDER BY unit_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list maintenance entries: %w", err)
	}
	defer rows.Close()

	out := map[string][]core.MaintenanceEntry{}
	for rows.Next() {
		var (
			unitID string
			kind   string
			due    sql.NullString
		)
		if err := rows.Scan(&unitID, &kind, &due); err != nil {
			return nil, fmt.Errorf("scan maintenance entry: %w", err)
		}
		out[unitID] = append(out[unitID], core.MaintenanceEntry{Type: kind, DueDate: scanDate(due)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate maintenance entries: %w", err)
	}
	return out, nil
}

// ListDocuments implements records.DocumentStore
func (r *SQLiteRepository) ListDocuments(ctx context.Context) ([]core.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, tenant_id, category, expiration_date
		FROM documents ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []core.Document
	for rows.Next() {
		var (
			d   core.Document
			exp sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.TenantID, &d.Category, &exp); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.ExpirationDate = scanDate(exp)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// SaveDocument implements records.DocumentStore
func (r *SQLiteRepository) SaveDocument(ctx context.Context, d core.Document) (core.Document, error) {
	if err := d.Validate(); err != nil {
		return core.Document{}, err
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (id, position, name, tenant_id, category, expiration_date)
		VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM documents), ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			tenant_id = excluded.tenant_id,
			category = excluded.category,
			expiration_date = excluded.expiration_date`,
		d.ID, d.Name, d.TenantID, d.Category, nullDate(d.ExpirationDate))
	if err != nil {
		return core.Document{}, fmt.Errorf("upsert document: %w", err)
	}
	return d, nil
}

// ListPayments implements records.PaymentStore
func (r *SQLiteRepository) ListPayments(ctx context.Context) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, amount_cents, paid_on, type, memo
		FROM payments ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []core.Payment
	for rows.Next() {
		var (
			p    core.Payment
			date sql.NullString
			kind string
		)
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Amount.Cents, &date, &kind, &p.Memo); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Date = scanDate(date)
		p.Type = core.PaymentType(kind)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}

// SavePayment implements records.PaymentStore
func (r *SQLiteRepository) SavePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, position, tenant_id, amount_cents, paid_on, type, memo)
		VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM payments), ?, ?, ?, ?, ?)`,
		p.ID, p.TenantID, p.Amount.Cents, p.Date.String(), string(p.Type), p.Memo)
	if err != nil {
		return core.Payment{}, fmt.Errorf("insert payment: %w", err)
	}

	slog.InfoContext(ctx, "Payment saved to SQLite",
		"id", p.ID,
		"tenant_id", p.TenantID,
		"amount_cents", p.Amount.Cents)
	return p, nil
}

// AlertSettings implements records.SettingsStore
func (r *SQLiteRepository) AlertSettings(ctx context.Context) (alerts.Settings, error) {
	var s alerts.Settings
	err := r.db.QueryRowContext(ctx, `
		SELECT lease_expirations, rent_increases, maintenance, payments, documents, advance_notice_days
		FROM alert_settings WHERE id = 1`).
		Scan(&s.LeaseExpirations, &s.RentIncreases, &s.Maintenance, &s.Payments, &s.Documents, &s.AdvanceNoticeDays)
	if errors.Is(err, sql.ErrNoRows) {
		return r.defaults, nil
	}
	if err != nil {
		return alerts.Settings{}, fmt.Errorf("get alert settings: %w", err)
	}
	return s, nil
}

// SaveAlertSettings implements records.SettingsStore
func (r *SQLiteRepository) SaveAlertSettings(ctx context.Context, s alerts.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alert_settings (id, lease_expirations, rent_increases, maintenance, payments, documents, advance_notice_days)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			lease_expirations = excluded.lease_expirations,
			rent_increases = excluded.rent_increases,
			maintenance = excluded.maintenance,
			payments = excluded.payments,
			documents = excluded.documents,
			advance_notice_days = excluded.advance_notice_days,
			updated_at = CURRENT_TIMESTAMP`,
		s.LeaseExpirations, s.RentIncreases, s.Maintenance, s.Payments, s.Documents, s.AdvanceNoticeDays)
	if err != nil {
		return fmt.Errorf("save alert settings: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (core.Tenant, error) {
	var (
		t                   core.Tenant
		start, end, nextPay sql.NullString
		sf                  float64
	)
	err := row.Scan(&t.ID, &t.Name, &t.UnitID, &t.Status, &start, &end,
		&t.BaseRent.Cents, &t.AdditionalRent.Cents, &sf, &nextPay)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Tenant{}, err
	}
	if err != nil {
		return core.Tenant{}, fmt.Errorf("scan tenant: %w", err)
	}
	t.LeaseStart = scanDate(start)
	t.LeaseEnd = scanDate(end)
	t.NextPaymentDate = scanDate(nextPay)
	t.SquareFeet = core.Number(sf)
	return t, nil
}

func nullDate(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return d.Format(core.DateLayout)
}

// scanDate maps NULL and unparseable text to the empty date.
func scanDate(s sql.NullString) core.Date {
	if !s.Valid {
		return core.Date{}
	}
	d, err := core.ParseDate(s.String)
	if err != nil {
		return core.Date{}
	}
	return d
}
