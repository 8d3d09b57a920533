package finance

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"condo/internal/core"
)

// Fixed expense category keys.
const (
	CategoryPayments     = "pagos"
	CategorySalaries     = "salarios"
	CategoryPaidDebts    = "deudas_pagadas"
	CategoryPendingDebts = "deudas_pendientes"
)

// NoConcept labels records with a blank concept.
const NoConcept = "sin concepto"

// TopLimit bounds every top-N list.
const TopLimit = 5

type (
	GroupAmount struct {
		Key    string          `json:"key"`
		Amount decimal.Decimal `json:"amount"`
	}

	// Grouping is ordered by first appearance of each key.
	Grouping []GroupAmount

	MonthlyEntry struct {
		Month   int             `json:"month"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Balance decimal.Decimal `json:"balance"`
	}

	PartyPair struct {
		Payer       string `json:"payer"`
		Beneficiary string `json:"beneficiary"`
	}

	DetailRow struct {
		ID          string             `json:"id"`
		Kind        Kind               `json:"kind"`
		Amount      decimal.Decimal    `json:"amount"`
		Date        time.Time          `json:"date"`
		Concept     string             `json:"concept"`
		Method      core.PaymentMethod `json:"method"`
		Description string             `json:"description,omitempty"`
		Parties     []PartyPair        `json:"parties"`
	}

	BaseCounts struct {
		Payments      int `json:"payments"`
		Salaries      int `json:"salaries"`
		Debts         int `json:"debts"`
		Relationships int `json:"relationships"`
		People        int `json:"people"`
	}

	Breakdown struct {
		IncomeByConcept    Grouping       `json:"incomeByConcept"`
		IncomeByMethod     Grouping       `json:"incomeByMethod"`
		ExpenseByCategory  Grouping       `json:"expenseByCategory"`
		TopIncomeConcepts  Grouping       `json:"topIncomeConcepts"`
		TopExpensePayments Grouping       `json:"topExpensePayments"`
		TopPendingDebts    Grouping       `json:"topPendingDebts"`
		Monthly            []MonthlyEntry `json:"monthly,omitempty"`
		Detail             []DetailRow    `json:"detail"`
	}

	// Summary is the financial report handed to the UI.
	Summary struct {
		Income            decimal.Decimal `json:"income"`
		Expenses          decimal.Decimal `json:"expenses"`
		Balance           decimal.Decimal `json:"balance"`
		Loss              decimal.Decimal `json:"loss"`
		PendingDebts      decimal.Decimal `json:"pendingDebts"`
		ProjectedExpenses decimal.Decimal `json:"projectedExpenses"`
		ProjectedBalance  decimal.Decimal `json:"projectedBalance"`
		BaseCounts        BaseCounts      `json:"baseCounts"`
		Breakdown         Breakdown       `json:"breakdown"`
	}

	// AggregateInput carries records already restricted to Period.
	AggregateInput struct {
		Period         core.Period
		IncludePending bool
		AdminID        string
		Payments       []core.Payment
		Salaries       []core.Salary
		Debts          []core.Debt
		Relationships  []core.PaymentRelationship
		People         map[string]core.Person
	}
)

type grouper struct {
	idx map[string]int
	out Grouping
}

func newGrouper() *grouper {
	return &grouper{idx: make(map[string]int), out: Grouping{}}
}

func (g *grouper) add(key string, amount decimal.Decimal) {
	if i, ok := g.idx[key]; ok {
		g.out[i].Amount = g.out[i].Amount.Add(amount)
		return
	}
	g.idx[key] = len(g.out)
	g.out = append(g.out, GroupAmount{Key: key, Amount: amount})
}

// Total sums every group.
func (g Grouping) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range g {
		total = total.Add(e.Amount)
	}
	return total
}

// Get returns the amount for key, zero when absent.
func (g Grouping) Get(key string) decimal.Decimal {
	for _, e := range g {
		if e.Key == key {
			return e.Amount
		}
	}
	return decimal.Zero
}

// TopN returns at most n groups by descending amount. Ties keep first-seen order.
func TopN(g Grouping, n int) Grouping {
	sorted := make(Grouping, len(g))
	copy(sorted, g)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.GreaterThan(sorted[j].Amount)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func conceptKey(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return NoConcept
	}
	return s
}

// Aggregate classifies payments and builds the full report.
func Aggregate(in AggregateInput) Summary {
	ix := JoinRelationships(in.Payments, in.Relationships)
	cls := Classify(in.Payments, ix, in.AdminID)

	incomeByConcept := newGrouper()
	incomeByMethod := newGrouper()
	income := decimal.Zero
	for _, p := range cls.Income {
		income = income.Add(p.Amount)
		incomeByConcept.add(conceptKey(p.Concept), p.Amount)
		incomeByMethod.add(string(p.Method), p.Amount)
	}

	expenseByConcept := newGrouper()
	paymentExpense := decimal.Zero
	for _, p := range cls.Expense {
		paymentExpense = paymentExpense.Add(p.Amount)
		expenseByConcept.add(conceptKey(p.Concept), p.Amount)
	}

	salaries := decimal.Zero
	for _, s := range in.Salaries {
		salaries = salaries.Add(s.Amount)
	}

	paidDebts := decimal.Zero
	pendingByConcept := newGrouper()
	for _, d := range in.Debts {
		switch d.Status {
		case core.DebtPaid:
			paidDebts = paidDebts.Add(d.Amount)
		case core.DebtPending:
			pendingByConcept.add(conceptKey(d.Concept), d.Amount)
		}
	}
	pending := SumPending(in.Debts)

	categories := newGrouper()
	categories.add(CategoryPayments, paymentExpense)
	categories.add(CategorySalaries, salaries)
	categories.add(CategoryPaidDebts, paidDebts)
	if in.IncludePending {
		categories.add(CategoryPendingDebts, pending)
	}

	expenses := paymentExpense.Add(salaries).Add(paidDebts)
	balance := income.Sub(expenses)
	loss := decimal.Zero
	if balance.IsNegative() {
		loss = balance.Neg()
	}
	proj := Project(income, expenses, pending, in.IncludePending)

	s := Summary{
		Income:            income,
		Expenses:          expenses,
		Balance:           balance,
		Loss:              loss,
		PendingDebts:      pending,
		ProjectedExpenses: proj.Expenses,
		ProjectedBalance:  proj.Balance,
		BaseCounts: BaseCounts{
			Payments:      len(in.Payments),
			Salaries:      len(in.Salaries),
			Debts:         len(in.Debts),
			Relationships: ix.Len(),
			People:        len(in.People),
		},
		Breakdown: Breakdown{
			IncomeByConcept:    incomeByConcept.out,
			IncomeByMethod:     incomeByMethod.out,
			ExpenseByCategory:  categories.out,
			TopIncomeConcepts:  TopN(incomeByConcept.out, TopLimit),
			TopExpensePayments: TopN(expenseByConcept.out, TopLimit),
			TopPendingDebts:    TopN(pendingByConcept.out, TopLimit),
		},
	}

	if in.Period.WantsMonthly() {
		s.Breakdown.Monthly = monthly(cls, in.Salaries, in.Debts)
	}

	detail := make([]DetailRow, 0, len(in.Payments))
	for _, p := range cls.Income {
		detail = append(detail, detailRow(p, KindIncome, ix, in.People))
	}
	for _, p := range cls.Expense {
		detail = append(detail, detailRow(p, KindExpense, ix, in.People))
	}
	s.Breakdown.Detail = detail

	return s
}

// monthly always yields twelve entries. Expense is realized expense only.
func monthly(cls Classification, salaries []core.Salary, debts []core.Debt) []MonthlyEntry {
	months := make([]MonthlyEntry, 12)
	for i := range months {
		months[i] = MonthlyEntry{Month: i + 1, Income: decimal.Zero, Expense: decimal.Zero}
	}
	at := func(t time.Time) *MonthlyEntry { return &months[int(t.Month())-1] }

	for _, p := range cls.Income {
		m := at(p.Date)
		m.Income = m.Income.Add(p.Amount)
	}
	for _, p := range cls.Expense {
		m := at(p.Date)
		m.Expense = m.Expense.Add(p.Amount)
	}
	for _, sal := range salaries {
		m := at(sal.Date)
		m.Expense = m.Expense.Add(sal.Amount)
	}
	for _, d := range debts {
		if d.Status == core.DebtPaid {
			m := at(d.Date)
			m.Expense = m.Expense.Add(d.Amount)
		}
	}
	for i := range months {
		months[i].Balance = months[i].Income.Sub(months[i].Expense)
	}
	return months
}

func detailRow(p core.Payment, kind Kind, ix RelationshipIndex, people map[string]core.Person) DetailRow {
	rows := ix.Rows(p.ID)
	parties := make([]PartyPair, 0, len(rows))
	for _, r := range rows {
		parties = append(parties, PartyPair{
			Payer:       resolveName(people, r.PayerID),
			Beneficiary: resolveName(people, r.BeneficiaryID),
		})
	}
	return DetailRow{
		ID:          p.ID,
		Kind:        kind,
		Amount:      p.Amount,
		Date:        p.Date,
		Concept:     p.Concept,
		Method:      p.Method,
		Description: p.Description,
		Parties:     parties,
	}
}

func resolveName(people map[string]core.Person, id string) string {
	if p, ok := people[id]; ok {
		return p.DisplayName()
	}
	return id
}
