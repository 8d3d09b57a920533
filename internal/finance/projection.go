package finance

import (
	"github.com/shopspring/decimal"

	"condo/internal/core"
)

// Projection is the hypothetical outcome if every pending debt were paid.
type Projection struct {
	Expenses decimal.Decimal
	Balance  decimal.Decimal
}

// Project adds pending to expenses when include is set. With include false the
// projection equals the actual figures.
func Project(income, expenses, pending decimal.Decimal, include bool) Projection {
	if include {
		expenses = expenses.Add(pending)
	}
	return Projection{Expenses: expenses, Balance: income.Sub(expenses)}
}

// SumPending totals debts still marked pendiente.
func SumPending(debts []core.Debt) decimal.Decimal {
	total := decimal.Zero
	for _, d := range debts {
		if d.Status == core.DebtPending {
			total = total.Add(d.Amount)
		}
	}
	return total
}
