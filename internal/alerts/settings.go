package alerts

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// MaxAdvanceNoticeDays bounds how far ahead a scan may look.
	MaxAdvanceNoticeDays     = 365
	DefaultAdvanceNoticeDays = 30
)

// Settings toggles alert sources and sets the look-ahead in days.
type Settings struct {
	LeaseExpirations  bool `json:"leaseExpirations" yaml:"leaseExpirations"`
	RentIncreases     bool `json:"rentIncreases" yaml:"rentIncreases"`
	Maintenance       bool `json:"maintenance" yaml:"maintenance"`
	Payments          bool `json:"payments" yaml:"payments"`
	Documents         bool `json:"documents" yaml:"documents"`
	AdvanceNoticeDays int  `json:"advanceNoticeDays" yaml:"advanceNoticeDays"`
}

// DefaultSettings enables every source with a 30 day notice period.
func DefaultSettings() Settings {
	return Settings{
		LeaseExpirations:  true,
		RentIncreases:     true,
		Maintenance:       true,
		Payments:          true,
		Documents:         true,
		AdvanceNoticeDays: DefaultAdvanceNoticeDays,
	}
}

// Enabled reports whether the source for kind is switched on.
func (s Settings) Enabled(kind Kind) bool {
	switch kind {
	case KindLease:
		return s.LeaseExpirations
	case KindRent:
		return s.RentIncreases
	case KindMaintenance:
		return s.Maintenance
	case KindPayment:
		return s.Payments
	case KindDocument:
		return s.Documents
	default:
		return false
	}
}

func (s Settings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.AdvanceNoticeDays, validation.Min(0), validation.Max(MaxAdvanceNoticeDays)),
	)
}
