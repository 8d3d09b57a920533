package finance

import (
	"context"

	"condo/internal/core"
)

// Source is the read side of the shared store. Each call returns a snapshot of
// one table; calls are independent and may run concurrently.
type Source interface {
	ListPayments(ctx context.Context) ([]core.Payment, error)
	ListSalaries(ctx context.Context) ([]core.Salary, error)
	ListDebts(ctx context.Context) ([]core.Debt, error)
	ListPaymentRelationships(ctx context.Context) ([]core.PaymentRelationship, error)
}

// PeopleDirectory resolves identities to names. Optional.
type PeopleDirectory interface {
	ListPeople(ctx context.Context) ([]core.Person, error)
}
