package core

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	EscalationFixed      EscalationType = "fixed"
	EscalationPercentage EscalationType = "percentage"
)

const (
	UnitAvailable   UnitStatus = "available"
	UnitOccupied    UnitStatus = "occupied"
	UnitMaintenance UnitStatus = "maintenance"
)

const (
	PaymentBaseRent        PaymentType = "base_rent"
	PaymentAdditionalRent  PaymentType = "additional_rent"
	PaymentSecurityDeposit PaymentType = "security_deposit"
	PaymentSignage         PaymentType = "signage"
	PaymentOther           PaymentType = "other"
)

type (
	EscalationType string
	UnitStatus     string
	PaymentType    string

	// Escalation is a scheduled rent change. Fixed amounts are currency
	// units added to the rent; percentage amounts are percent points.
	Escalation struct {
		Date   Date           `json:"date" yaml:"date"`
		Amount Number         `json:"amount" yaml:"amount"`
		Type   EscalationType `json:"type" yaml:"type"`
	}

	Tenant struct {
		ID              string       `json:"id" yaml:"id"`
		Name            string       `json:"name" yaml:"name"`
		UnitID          string       `json:"unitId,omitempty" yaml:"unitId"`
		Status          string       `json:"status,omitempty" yaml:"status"`
		LeaseStart      Date         `json:"leaseStart" yaml:"leaseStart"`
		LeaseEnd        Date         `json:"leaseEnd" yaml:"leaseEnd"`
		BaseRent        Money        `json:"baseRent" yaml:"baseRent"`
		AdditionalRent  Money        `json:"additionalRent" yaml:"additionalRent"`
		SquareFeet      Number       `json:"squareFeet" yaml:"squareFeet"`
		Escalations     []Escalation `json:"escalations" yaml:"escalations"`
		NextPaymentDate Date         `json:"nextPaymentDate" yaml:"nextPaymentDate"`
	}

	MaintenanceEntry struct {
		Type    string `json:"type" yaml:"type"`
		DueDate Date   `json:"dueDate" yaml:"dueDate"`
	}

	Unit struct {
		ID                  string             `json:"id" yaml:"id"`
		Number              string             `json:"number" yaml:"number"`
		Type                string             `json:"type,omitempty" yaml:"type"`
		SquareFeet          Number             `json:"squareFeet" yaml:"squareFeet"`
		BaseRentPSF         Number             `json:"baseRentPSF" yaml:"baseRentPSF"`
		Status              UnitStatus         `json:"status" yaml:"status"`
		MaintenanceSchedule []MaintenanceEntry `json:"maintenanceSchedule" yaml:"maintenanceSchedule"`
	}

	// Document is a stored lease artifact. An empty ExpirationDate means the
	// document never expires.
	Document struct {
		ID             string `json:"id" yaml:"id"`
		Name           string `json:"name" yaml:"name"`
		TenantID       string `json:"tenantId,omitempty" yaml:"tenantId"`
		Category       string `json:"category,omitempty" yaml:"category"`
		ExpirationDate Date   `json:"expirationDate" yaml:"expirationDate"`
	}

	Payment struct {
		ID       string      `json:"id" yaml:"id"`
		TenantID string      `json:"tenantId" yaml:"tenantId"`
		Amount   Money       `json:"amount" yaml:"amount"`
		Date     Date        `json:"date" yaml:"date"`
		Type     PaymentType `json:"type" yaml:"type"`
		Memo     string      `json:"memo,omitempty" yaml:"memo"`
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("must not be negative")
	ErrEmptyDate      = errors.New("date is required")
	ErrLeaseRange     = errors.New("lease end must not be before lease start")
)

func (e Escalation) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Date, validation.By(requiredDate)),
		validation.Field(&e.Type, validation.Required, validation.In(EscalationFixed, EscalationPercentage)),
	)
}

func (t Tenant) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&t.LeaseEnd, validation.By(notBefore(t.LeaseStart))),
		validation.Field(&t.BaseRent, validation.By(nonNegativeMoney)),
		validation.Field(&t.AdditionalRent, validation.By(nonNegativeMoney)),
		validation.Field(&t.SquareFeet, validation.By(nonNegativeNumber)),
		validation.Field(&t.Escalations),
	)
}

func (m MaintenanceEntry) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Type, validation.Required),
		validation.Field(&m.DueDate, validation.By(requiredDate)),
	)
}

func (u Unit) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Number, validation.Required, validation.Length(1, 50)),
		validation.Field(&u.Status, validation.Required, validation.In(UnitAvailable, UnitOccupied, UnitMaintenance)),
		validation.Field(&u.SquareFeet, validation.By(nonNegativeNumber)),
		validation.Field(&u.BaseRentPSF, validation.By(nonNegativeNumber)),
		validation.Field(&u.MaintenanceSchedule),
	)
}

func (d Document) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, validation.Length(1, 200)),
	)
}

func (p Payment) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.TenantID, validation.Required),
		validation.Field(&p.Amount, validation.By(positiveMoney)),
		validation.Field(&p.Date, validation.By(requiredDate)),
		validation.Field(&p.Type, validation.Required, validation.In(
			PaymentBaseRent, PaymentAdditionalRent, PaymentSecurityDeposit, PaymentSignage, PaymentOther,
		)),
	)
}

func requiredDate(value any) error {
	if d, ok := value.(Date); ok && d.IsEmpty() {
		return ErrEmptyDate
	}
	return nil
}

func notBefore(start Date) validation.RuleFunc {
	return func(value any) error {
		end, ok := value.(Date)
		if !ok || end.IsEmpty() || start.IsEmpty() {
			return nil
		}
		if end.Before(start.Time) {
			return ErrLeaseRange
		}
		return nil
	}
}

func nonNegativeMoney(value any) error {
	if m, ok := value.(Money); ok && m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func positiveMoney(value any) error {
	if m, ok := value.(Money); ok && m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func nonNegativeNumber(value any) error {
	if n, ok := value.(Number); ok && n < 0 {
		return ErrNegativeAmount
	}
	return nil
}
