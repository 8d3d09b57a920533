// Package memory is an in-process store used for demos, the CLI and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"condo/internal/core"
	"condo/internal/storage"
)

type Store struct {
	mu            sync.RWMutex
	people        []core.Person
	employees     map[string]core.Employee
	payments      []core.Payment
	relationships []core.PaymentRelationship
	salaries      []core.Salary
	disbursements []core.Disbursement
	debts         []core.Debt
	attendance    []core.AttendanceRecord
}

func New(recs storage.Records) *Store {
	s := &Store{}
	s.Load(recs)
	return s
}

// NewFromFile loads a JSON dataset. An empty path yields an empty store.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(storage.Records{}), nil
	}
	ds, err := storage.LoadDataset(path)
	if err != nil {
		return nil, err
	}
	recs, err := ds.Records()
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return New(recs), nil
}

// Load replaces the whole content of the store.
func (s *Store) Load(recs storage.Records) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.people = slices.Clone(recs.People)
	s.employees = make(map[string]core.Employee, len(recs.Employees))
	for _, e := range recs.Employees {
		s.employees[e.ID] = e
	}
	s.payments = slices.Clone(recs.Payments)
	s.relationships = slices.Clone(recs.Relationships)
	s.salaries = slices.Clone(recs.Salaries)
	s.disbursements = slices.Clone(recs.Disbursements)
	s.debts = slices.Clone(recs.Debts)
	s.attendance = slices.Clone(recs.Attendance)
}

func (s *Store) ListPayments(_ context.Context) ([]core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.payments), nil
}

func (s *Store) ListSalaries(_ context.Context) ([]core.Salary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.salaries), nil
}

func (s *Store) ListDebts(_ context.Context) ([]core.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.debts), nil
}

func (s *Store) ListPaymentRelationships(_ context.Context) ([]core.PaymentRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.relationships), nil
}

func (s *Store) ListPeople(_ context.Context) ([]core.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.people), nil
}

func (s *Store) GetEmployee(_ context.Context, id string) (core.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return core.Employee{}, fmt.Errorf("%w: %s", core.ErrEmployeeNotFound, id)
	}
	return e, nil
}

func (s *Store) GetAttendance(_ context.Context, employeeID string, date time.Time) (*core.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.find(employeeID, date); i >= 0 {
		rec := s.attendance[i]
		return &rec, nil
	}
	return nil, nil
}

// OpenShift enforces one record per employee and date.
func (s *Store) OpenShift(_ context.Context, rec core.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(rec.EmployeeID, rec.Date) >= 0 {
		return fmt.Errorf("open shift %s %s: %w", rec.EmployeeID, storage.FormatDate(rec.Date), core.ErrConflict)
	}
	s.attendance = append(s.attendance, rec)
	return nil
}

// CloseShift swaps in rec only if the stored row is open at expectedVersion.
func (s *Store) CloseShift(_ context.Context, rec core.AttendanceRecord, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(rec.EmployeeID, rec.Date)
	if i < 0 {
		return fmt.Errorf("close shift %s: %w", rec.ID, core.ErrConflict)
	}
	cur := s.attendance[i]
	if cur.ID != rec.ID || cur.IsClosed() || cur.Version != expectedVersion {
		return fmt.Errorf("close shift %s: %w", rec.ID, core.ErrConflict)
	}
	s.attendance[i] = rec
	return nil
}

func (s *Store) ListAttendance(_ context.Context, employeeID string, r core.DateRange) ([]core.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.AttendanceRecord
	for _, rec := range s.attendance {
		if rec.EmployeeID == employeeID && r.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) ListDisbursements(_ context.Context, employeeID string, r core.DateRange) ([]core.Disbursement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Disbursement
	for _, d := range s.disbursements {
		if d.EmployeeID == employeeID && r.Contains(d.Date) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) find(employeeID string, date time.Time) int {
	for i, rec := range s.attendance {
		if rec.EmployeeID == employeeID && sameDay(rec.Date, date) {
			return i
		}
	}
	return -1
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
