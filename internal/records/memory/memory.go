package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"rentroll/internal/alerts"
	"rentroll/internal/core"
	"rentroll/internal/records"
)

// Seed is the YAML layout of a seed file.
type Seed struct {
	Tenants   []core.Tenant    `yaml:"tenants"`
	Units     []core.Unit      `yaml:"units"`
	Documents []core.Document  `yaml:"documents"`
	Payments  []core.Payment   `yaml:"payments"`
	Settings  *alerts.Settings `yaml:"alertSettings"`
}

type Store struct {
	mu        sync.Mutex
	tenants   []core.Tenant
	units     []core.Unit
	documents []core.Document
	payments  []core.Payment
	settings  alerts.Settings
	defaults  alerts.Settings
}

var _ records.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithDefaultSettings sets the alert settings used when a seed carries none.
func WithDefaultSettings(settings alerts.Settings) Option {
	return func(s *Store) {
		s.defaults = settings
		s.settings = settings
	}
}

func New(opts ...Option) *Store {
	s := &Store{settings: alerts.DefaultSettings(), defaults: alerts.DefaultSettings()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromFile creates a store seeded from a YAML file. A missing file
// yields an empty store.
func NewFromFile(path string, opts ...Option) (*Store, error) {
	s := New(opts...)
	if path == "" {
		return s, nil
	}
	if err := s.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	return s, nil
}

// Load replaces the store contents with the seed file at path.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}
	s.Replace(seed)
	return nil
}

// Replace swaps in the seed's records. Records without an ID get one.
func (s *Store) Replace(seed Seed) {
	for i := range seed.Tenants {
		seed.Tenants[i].ID = ensureID(seed.Tenants[i].ID)
	}
	for i := range seed.Units {
		seed.Units[i].ID = ensureID(seed.Units[i].ID)
	}
	for i := range seed.Documents {
		seed.Documents[i].ID = ensureID(seed.Documents[i].ID)
	}
	for i := range seed.Payments {
		seed.Payments[i].ID = ensureID(seed.Payments[i].ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	settings := s.defaults
	if seed.Settings != nil {
		settings = *seed.Settings
	}
	s.tenants = seed.Tenants
	s.units = seed.Units
	s.documents = seed.Documents
	s.payments = seed.Payments
	s.settings = settings
}

func (s *Store) ListTenants(_ context.Context) ([]core.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Tenant, len(s.tenants))
	for i, t := range s.tenants {
		t.Escalations = append([]core.Escalation(nil), t.Escalations...)
		out[i] = t
	}
	return out, nil
}

func (s *Store) GetTenant(_ context.Context, id string) (core.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.ID == id {
			t.Escalations = append([]core.Escalation(nil), t.Escalations...)
			return t, nil
		}
	}
	return core.Tenant{}, records.ErrNotFound
}

// SaveTenant validates the tenant and inserts or replaces it by ID.
func (s *Store) SaveTenant(_ context.Context, t core.Tenant) (core.Tenant, error) {
	if err := t.Validate(); err != nil {
		return core.Tenant{}, err
	}
	t.ID = ensureID(t.ID)
	t.Escalations = append([]core.Escalation(nil), t.Escalations...)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tenants {
		if s.tenants[i].ID == t.ID {
			s.tenants[i] = t
			return t, nil
		}
	}
	s.tenants = append(s.tenants, t)
	return t, nil
}

func (s *Store) DeleteTenant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tenants {
		if s.tenants[i].ID == id {
			s.tenants = append(s.tenants[:i], s.tenants[i+1:]...)
			return nil
		}
	}
	return records.ErrNotFound
}

func (s *Store) ListUnits(_ context.Context) ([]core.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Unit, len(s.units))
	for i, u := range s.units {
		u.MaintenanceSchedule = append([]core.MaintenanceEntry(nil), u.MaintenanceSchedule...)
		out[i] = u
	}
	return out, nil
}

func (s *Store) SaveUnit(_ context.Context, u core.Unit) (core.Unit, error) {
	if err := u.Validate(); err != nil {
		return core.Unit{}, err
	}
	u.ID = ensureID(u.ID)
	u.MaintenanceSchedule = append([]core.MaintenanceEntry(nil), u.MaintenanceSchedule...)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.units {
		if s.units[i].ID == u.ID {
			s.units[i] = u
			return u, nil
		}
	}
	s.units = append(s.units, u)
	return u, nil
}

func (s *Store) ListDocuments(_ context.Context) ([]core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Document(nil), s.documents...), nil
}

func (s *Store) SaveDocument(_ context.Context, d core.Document) (core.Document, error) {
	if err := d.Validate(); err != nil {
		return core.Document{}, err
	}
	d.ID = ensureID(d.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.documents {
		if s.documents[i].ID == d.ID {
			s.documents[i] = d
			return d, nil
		}
	}
	s.documents = append(s.documents, d)
	return d, nil
}

func (s *Store) ListPayments(_ context.Context) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Payment(nil), s.payments...), nil
}

// SavePayment appends a payment. Payments are never edited in place.
func (s *Store) SavePayment(_ context.Context, p core.Payment) (core.Payment, error) {
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	p.ID = ensureID(p.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, p)
	return p, nil
}

func (s *Store) AlertSettings(_ context.Context) (alerts.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}

func (s *Store) SaveAlertSettings(_ context.Context, settings alerts.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return nil
}

func ensureID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
