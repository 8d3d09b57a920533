package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"condo/internal/core"
	"condo/internal/log"
	"condo/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// SummaryRequest selects the window and whether pending debts are projected.
type SummaryRequest struct {
	Year           int  `json:"year,omitempty"`
	Month          int  `json:"month,omitempty"`
	IncludePending bool `json:"includePending,omitempty"`
}

func (r SummaryRequest) Period() core.Period {
	return core.Period{Year: r.Year, Month: r.Month}
}

// Service builds financial summaries from the shared store.
type Service struct {
	source  Source
	people  PeopleDirectory
	adminID string
	timeout time.Duration
	logger  *log.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

// WithPeople enables name resolution in detail rows.
func WithPeople(p PeopleDirectory) Option {
	return func(s *Service) { s.people = p }
}

func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentFinance)
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wires a summary service. adminID is the identity whose incoming
// payments count as income.
func NewService(source Source, adminID string, opts ...Option) *Service {
	s := &Service{
		source:  source,
		adminID: adminID,
		timeout: defaultTimeout,
		logger:  log.New(log.DefaultConfig()).WithComponent(log.ComponentFinance),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type snapshot struct {
	payments []core.Payment
	salaries []core.Salary
	debts    []core.Debt
	rels     []core.PaymentRelationship
	people   map[string]core.Person
}

// Summary fetches all base data concurrently and aggregates it. Any failed
// fetch aborts the whole report with core.ErrBaseData.
func (s *Service) Summary(ctx context.Context, req SummaryRequest) (sum Summary, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveReport(metrics.ReportFinance, started, err) }()

	period := req.Period()
	if err := period.Validate(); err != nil {
		return Summary{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snap, err := s.fetch(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch base data",
			log.FieldOperation, log.OpFetch,
			log.FieldYear, req.Year,
			log.FieldMonth, req.Month,
			log.FieldError, err)
		return Summary{}, fmt.Errorf("%w: %w", core.ErrBaseData, err)
	}

	sum = Aggregate(AggregateInput{
		Period:         period,
		IncludePending: req.IncludePending,
		AdminID:        s.adminID,
		Payments:       FilterPeriod(snap.payments, period),
		Salaries:       FilterPeriod(snap.salaries, period),
		Debts:          FilterPeriod(snap.debts, period),
		Relationships:  snap.rels,
		People:         snap.people,
	})

	s.logger.DebugContext(ctx, "Financial summary built",
		log.FieldOperation, log.OpSummary,
		log.FieldYear, req.Year,
		log.FieldMonth, req.Month,
		log.FieldIncludePending, req.IncludePending,
		log.FieldDuration, time.Since(started).Milliseconds())
	return sum, nil
}

func (s *Service) fetch(ctx context.Context) (snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := s.source.ListPayments(gctx)
		if err != nil {
			return fmt.Errorf("list payments: %w", err)
		}
		snap.payments = rows
		return validateAll(rows)
	})
	g.Go(func() error {
		rows, err := s.source.ListSalaries(gctx)
		if err != nil {
			return fmt.Errorf("list salaries: %w", err)
		}
		snap.salaries = rows
		return validateAll(rows)
	})
	g.Go(func() error {
		rows, err := s.source.ListDebts(gctx)
		if err != nil {
			return fmt.Errorf("list debts: %w", err)
		}
		snap.debts = rows
		return validateAll(rows)
	})
	g.Go(func() error {
		rows, err := s.source.ListPaymentRelationships(gctx)
		if err != nil {
			return fmt.Errorf("list payment relationships: %w", err)
		}
		snap.rels = rows
		return validateAll(rows)
	})

	// People only feed labels; a failure here degrades to raw ids.
	var people []core.Person
	if s.people != nil {
		g.Go(func() error {
			rows, err := s.people.ListPeople(gctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.WarnContext(ctx, "People lookup failed, using raw identifiers",
						log.FieldError, err)
				}
				return nil
			}
			people = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}

	snap.people = make(map[string]core.Person, len(people))
	for _, p := range people {
		snap.people[p.ID] = p
	}
	return snap, nil
}

type validatable interface {
	Validate() error
}

func validateAll[T validatable](rows []T) error {
	for i, r := range rows {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// GetFinancialSummary is the boundary call: it never returns an error value or
// panics, failures are flattened into the result envelope.
func (s *Service) GetFinancialSummary(ctx context.Context, req SummaryRequest) (res core.Result[Summary]) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Recovered panic in financial summary", "panic", r)
			res = core.Fail[Summary](core.ErrInternal)
		}
	}()

	sum, err := s.Summary(ctx, req)
	if err != nil {
		return core.Fail[Summary](core.Public(err))
	}
	return core.Ok(sum)
}
