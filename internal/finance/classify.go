package finance

import "condo/internal/core"

// Kind is the direction of a payment relative to the administration.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// RelationshipIndex is the result of joining relationship rows onto a payment set.
type RelationshipIndex struct {
	beneficiaries map[string]map[string]struct{}
	rows          map[string][]core.PaymentRelationship
}

// JoinRelationships indexes rels by payment id, ignoring rows whose payment is
// not in payments. Runs in O(len(payments) + len(rels)).
func JoinRelationships(payments []core.Payment, rels []core.PaymentRelationship) RelationshipIndex {
	ix := RelationshipIndex{
		beneficiaries: make(map[string]map[string]struct{}, len(payments)),
		rows:          make(map[string][]core.PaymentRelationship, len(payments)),
	}
	present := make(map[string]struct{}, len(payments))
	for _, p := range payments {
		present[p.ID] = struct{}{}
	}
	for _, r := range rels {
		if _, ok := present[r.PaymentID]; !ok {
			continue
		}
		set, ok := ix.beneficiaries[r.PaymentID]
		if !ok {
			set = make(map[string]struct{})
			ix.beneficiaries[r.PaymentID] = set
		}
		if r.BeneficiaryID != "" {
			set[r.BeneficiaryID] = struct{}{}
		}
		ix.rows[r.PaymentID] = append(ix.rows[r.PaymentID], r)
	}
	return ix
}

// HasBeneficiary reports whether id is among the beneficiaries of paymentID.
func (ix RelationshipIndex) HasBeneficiary(paymentID, id string) bool {
	_, ok := ix.beneficiaries[paymentID][id]
	return ok
}

// Rows returns the relationship rows of one payment, in input order.
func (ix RelationshipIndex) Rows(paymentID string) []core.PaymentRelationship {
	return ix.rows[paymentID]
}

// Len is the number of relationship rows retained by the join.
func (ix RelationshipIndex) Len() int {
	n := 0
	for _, rs := range ix.rows {
		n += len(rs)
	}
	return n
}

// Classification partitions a payment set. Input order is kept in each half.
type Classification struct {
	Income  []core.Payment
	Expense []core.Payment
}

// KindOf classifies one payment. A payment without relationship rows is an expense.
func KindOf(p core.Payment, ix RelationshipIndex, adminID string) Kind {
	if adminID != "" && ix.HasBeneficiary(p.ID, adminID) {
		return KindIncome
	}
	return KindExpense
}

// Classify splits payments into income and expense for adminID.
func Classify(payments []core.Payment, ix RelationshipIndex, adminID string) Classification {
	var c Classification
	for _, p := range payments {
		if KindOf(p, ix, adminID) == KindIncome {
			c.Income = append(c.Income, p)
		} else {
			c.Expense = append(c.Expense, p)
		}
	}
	return c
}
