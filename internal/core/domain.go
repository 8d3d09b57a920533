package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MethodCard     PaymentMethod = "tarjeta"
	MethodTransfer PaymentMethod = "transferencia"
	MethodCash     PaymentMethod = "efectivo"
	MethodOther    PaymentMethod = "otro"
)

const (
	DebtPaid    DebtStatus = "pagado"
	DebtPending DebtStatus = "pendiente"
)

type (
	PaymentMethod string
	DebtStatus    string

	Payment struct {
		ID          string
		Amount      decimal.Decimal
		Date        time.Time // zero when the store has no date
		Concept     string
		Method      PaymentMethod
		Description string
	}

	// PaymentRelationship links a payment to who paid it and who received it.
	// A payment may carry any number of these rows.
	PaymentRelationship struct {
		PaymentID     string
		PayerID       string
		BeneficiaryID string
	}

	Salary struct {
		ID         string
		Amount     decimal.Decimal
		Date       time.Time
		EmployeeID string
	}

	Debt struct {
		ID       string
		Amount   decimal.Decimal
		Date     time.Time
		PersonID string
		Status   DebtStatus
		Concept  string
	}

	Person struct {
		ID        string
		FirstName string
		LastName  string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidRecord = errors.New("invalid record")
	ErrEmptyID       = errors.New("empty identifier")
)

// ParseMethod normalises a raw method string. Unknown values map to MethodOther.
func ParseMethod(s string) PaymentMethod {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(s))) {
	case MethodCard, "card":
		return MethodCard
	case MethodTransfer, "transfer":
		return MethodTransfer
	case MethodCash, "cash":
		return MethodCash
	default:
		return MethodOther
	}
}

// ParseDebtStatus accepts only the two persisted states.
func ParseDebtStatus(s string) (DebtStatus, error) {
	switch DebtStatus(strings.ToLower(strings.TrimSpace(s))) {
	case DebtPaid:
		return DebtPaid, nil
	case DebtPending:
		return DebtPending, nil
	default:
		return "", fmt.Errorf("%w: unknown debt status %q", ErrInvalidRecord, s)
	}
}

// ParseAmount converts a stored decimal string into a non-negative amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative value %s", ErrInvalidAmount, d)
	}
	return d, nil
}

func validateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (p Payment) RecordDate() time.Time { return p.Date }
func (s Salary) RecordDate() time.Time  { return s.Date }
func (d Debt) RecordDate() time.Time    { return d.Date }

func (p Payment) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyID
	}
	return validateAmount(p.Amount)
}

func (r PaymentRelationship) Validate() error {
	if strings.TrimSpace(r.PaymentID) == "" {
		return ErrEmptyID
	}
	return nil
}

func (s Salary) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrEmptyID
	}
	return validateAmount(s.Amount)
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return ErrEmptyID
	}
	if d.Status != DebtPaid && d.Status != DebtPending {
		return fmt.Errorf("%w: debt %s has status %q", ErrInvalidRecord, d.ID, d.Status)
	}
	return validateAmount(d.Amount)
}

// DisplayName returns "first last", falling back to the id when both are blank.
func (p Person) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if name == "" {
		return p.ID
	}
	return name
}
