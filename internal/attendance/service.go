package attendance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"condo/internal/core"
	"condo/internal/log"
	"condo/internal/metrics"
)

const (
	maxClockAttempts = 3
	defaultTimeout   = 30 * time.Second
)

type (
	// ClockResult describes what a registration action did.
	ClockResult struct {
		Transition core.ClockTransition  `json:"transition"`
		Record     core.AttendanceRecord `json:"record"`
	}

	DisbursementDetail struct {
		ID         string             `json:"id"`
		Date       time.Time          `json:"date"`
		Amount     decimal.Decimal    `json:"amount"`
		Method     core.PaymentMethod `json:"method"`
		Payer      string             `json:"payer"`
		Payee      string             `json:"payee"`
		ReceiptURL string             `json:"receiptUrl,omitempty"`
	}

	// MonthReport is one month of worked time and pay for an employee.
	MonthReport struct {
		Month         int                  `json:"month"`
		Year          int                  `json:"year"`
		HoursWorked   decimal.Decimal      `json:"hoursWorked"`
		OvertimeHours decimal.Decimal      `json:"overtimeHours"`
		BasePay       decimal.Decimal      `json:"basePay"`
		OvertimePay   decimal.Decimal      `json:"overtimePay"`
		TotalPay      decimal.Decimal      `json:"totalPay"`
		PaymentStatus string               `json:"paymentStatus"`
		PaymentDate   *time.Time           `json:"paymentDate,omitempty"`
		ReceiptURL    string               `json:"receiptUrl,omitempty"`
		DaysWorked    int                  `json:"daysWorked"`
		Disbursements []DisbursementDetail `json:"disbursements"`
	}
)

// Service registers clock actions and builds payroll reports.
type Service struct {
	store     Store
	people    PeopleDirectory
	publisher Publisher
	loc       *time.Location
	now       func() time.Time
	newID     func() string
	timeout   time.Duration
	logger    *log.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithPeople(p PeopleDirectory) Option {
	return func(s *Service) { s.people = p }
}

// WithPublisher announces every stored transition. Publish failures are logged only.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLocation sets the timezone that defines "today" for clock actions.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
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
			s.logger = l.WithComponent(log.ComponentAttendance)
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		loc:     time.UTC,
		now:     time.Now,
		newID:   uuid.NewString,
		timeout: defaultTimeout,
		logger:  log.New(log.DefaultConfig()).WithComponent(log.ComponentAttendance),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register performs the next clock action for employeeID today: the first
// opens the day, the second closes it, any further one fails with
// core.ErrShiftAlreadyClosed. With nothing recorded today, a shift still open
// from yesterday is closed instead when ClosesOvernight allows it. Lost races
// are retried against fresh state.
func (s *Service) Register(ctx context.Context, employeeID string) (ClockResult, error) {
	if employeeID == "" {
		return ClockResult{}, core.ErrEmptyID
	}
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return ClockResult{}, err
	}

	now := s.now().In(s.loc)
	date := core.NewDate(now.Year(), int(now.Month()), now.Day())
	at := core.ClockTimeOf(now)

	for attempt := 1; attempt <= maxClockAttempts; attempt++ {
		res, err := s.tryRegister(ctx, employeeID, date, at)
		if err == nil {
			s.metrics.IncClock(string(res.Transition))
			s.logger.InfoContext(ctx, "Clock action registered",
				log.FieldOperation, log.OpClock,
				log.FieldEmployeeID, employeeID,
				log.FieldTransition, res.Transition,
				"at", at.String())
			s.publish(ctx, res, now)
			return res, nil
		}
		if !errors.Is(err, core.ErrConflict) {
			return ClockResult{}, err
		}
		s.logger.WarnContext(ctx, "Clock action lost a race, retrying",
			log.FieldEmployeeID, employeeID,
			"attempt", attempt)
	}
	return ClockResult{}, fmt.Errorf("register %s after %d attempts: %w", employeeID, maxClockAttempts, core.ErrConflict)
}

func (s *Service) tryRegister(ctx context.Context, employeeID string, date time.Time, at core.ClockTime) (ClockResult, error) {
	rec, err := s.store.GetAttendance(ctx, employeeID, date)
	if err != nil {
		return ClockResult{}, fmt.Errorf("get attendance: %w", err)
	}
	if rec == nil {
		prev, err := s.store.GetAttendance(ctx, employeeID, date.AddDate(0, 0, -1))
		if err != nil {
			return ClockResult{}, fmt.Errorf("get previous attendance: %w", err)
		}
		if ClosesOvernight(prev, at) {
			rec = prev
		}
	}
	tr, err := Next(rec)
	if err != nil {
		return ClockResult{}, err
	}

	switch tr {
	case core.TransitionOpened:
		opened := Open(s.newID(), employeeID, date, at)
		if err := s.store.OpenShift(ctx, opened); err != nil {
			return ClockResult{}, err
		}
		return ClockResult{Transition: tr, Record: opened}, nil
	default:
		closed := Close(*rec, at)
		if err := s.store.CloseShift(ctx, closed, rec.Version); err != nil {
			return ClockResult{}, err
		}
		return ClockResult{Transition: tr, Record: closed}, nil
	}
}

func (s *Service) publish(ctx context.Context, res ClockResult, now time.Time) {
	if s.publisher == nil {
		return
	}
	ev := core.ClockEvent{
		ID:         uuid.NewString(),
		EmployeeID: res.Record.EmployeeID,
		Date:       res.Record.Date,
		Transition: res.Transition,
		At:         core.ClockTimeOf(now).String(),
		Timestamp:  now.UTC(),
	}
	if err := s.publisher.PublishClockEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish clock event",
			log.FieldOperation, log.OpPublish,
			log.FieldEventID, ev.ID,
			log.FieldError, err)
	}
}

// MonthlyReport builds one entry for month of year, or twelve when month is 0.
func (s *Service) MonthlyReport(ctx context.Context, employeeID string, month, year int) (reports []MonthReport, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveReport(metrics.ReportAttendance, started, err) }()

	if employeeID == "" {
		return nil, core.ErrEmptyID
	}
	if year == 0 {
		year = s.now().In(s.loc).Year()
	}
	period := core.Period{Year: year, Month: month}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	window := core.DateRange{
		From: core.NewDate(year, 1, 1),
		To:   core.NewDate(year+1, 1, 1),
	}
	if month != 0 {
		window = core.MonthRange(year, month, time.UTC)
	}

	var (
		employee      core.Employee
		records       []core.AttendanceRecord
		disbursements []core.Disbursement
		names         = map[string]string{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e, err := s.store.GetEmployee(gctx, employeeID)
		employee = e
		return err
	})
	g.Go(func() error {
		rows, err := s.store.ListAttendance(gctx, employeeID, window)
		if err != nil {
			return fmt.Errorf("%w: list attendance: %w", core.ErrBaseData, err)
		}
		records = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.store.ListDisbursements(gctx, employeeID, window)
		if err != nil {
			return fmt.Errorf("%w: list disbursements: %w", core.ErrBaseData, err)
		}
		disbursements = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.people != nil {
		people, err := s.people.ListPeople(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "People lookup failed, using raw identifiers", log.FieldError, err)
		}
		for _, p := range people {
			names[p.ID] = p.DisplayName()
		}
	}

	months := []int{month}
	if month == 0 {
		months = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	}
	reports = make([]MonthReport, 0, len(months))
	for _, m := range months {
		p := core.Period{Year: year, Month: m}
		reports = append(reports, buildMonth(p, employee, records, disbursements, names))
	}
	return reports, nil
}

func buildMonth(p core.Period, emp core.Employee, records []core.AttendanceRecord, disbursements []core.Disbursement, names map[string]string) MonthReport {
	r := MonthReport{
		Month:         p.Month,
		Year:          p.Year,
		HoursWorked:   decimal.Zero,
		OvertimeHours: decimal.Zero,
		BasePay:       emp.BaseSalary,
		PaymentStatus: core.PaymentStatusPending,
		Disbursements: []DisbursementDetail{},
	}
	// Totals are summed in whole minutes and rounded once.
	var worked, overtime int
	for _, rec := range records {
		if !rec.IsClosed() || !p.Contains(rec.Date) {
			continue
		}
		mins := recordMinutes(rec)
		worked += mins
		overtime += overtimeMinutes(mins)
		r.DaysWorked++
	}
	r.HoursWorked = hoursOf(worked)
	r.OvertimeHours = hoursOf(overtime)
	r.OvertimePay = OvertimePay(r.OvertimeHours, emp.BaseSalary)
	r.TotalPay = r.BasePay.Add(r.OvertimePay)

	var inMonth []core.Disbursement
	for _, d := range disbursements {
		if p.Contains(d.Date) {
			inMonth = append(inMonth, d)
		}
	}
	sort.SliceStable(inMonth, func(i, j int) bool { return inMonth[i].Date.Before(inMonth[j].Date) })
	for _, d := range inMonth {
		r.Disbursements = append(r.Disbursements, DisbursementDetail{
			ID:         d.ID,
			Date:       d.Date,
			Amount:     d.Amount,
			Method:     d.Method,
			Payer:      nameOr(names, d.PayerID),
			Payee:      nameOr(names, d.PayeeID),
			ReceiptURL: d.ReceiptURL,
		})
	}
	if n := len(inMonth); n > 0 {
		latest := inMonth[n-1]
		r.PaymentStatus = core.PaymentStatusPaid
		r.PaymentDate = &latest.Date
		r.ReceiptURL = latest.ReceiptURL
	}
	return r
}

func recordMinutes(rec core.AttendanceRecord) int {
	if rec.Exit != nil {
		return MinutesBetween(rec.Entry, *rec.Exit)
	}
	return int(rec.HoursWorked.Mul(sixty).Round(0).IntPart())
}

func nameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}

// GetAttendanceReport is the boundary form of MonthlyReport.
func (s *Service) GetAttendanceReport(ctx context.Context, employeeID string, month, year int) (res core.Result[[]MonthReport]) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Recovered panic in attendance report", "panic", r)
			res = core.Fail[[]MonthReport](core.ErrInternal)
		}
	}()

	reports, err := s.MonthlyReport(ctx, employeeID, month, year)
	if err != nil {
		s.logger.ErrorContext(ctx, "Attendance report failed",
			log.FieldOperation, log.OpReport,
			log.FieldEmployeeID, employeeID,
			log.FieldError, err)
		return core.Fail[[]MonthReport](core.Public(err))
	}
	return core.Ok(reports)
}

// Clock is the boundary form of Register.
func (s *Service) Clock(ctx context.Context, employeeID string) (res core.Result[ClockResult]) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Recovered panic in clock action", "panic", r)
			res = core.Fail[ClockResult](core.ErrInternal)
		}
	}()

	out, err := s.Register(ctx, employeeID)
	if err != nil {
		return core.Fail[ClockResult](core.Public(err))
	}
	return core.Ok(out)
}
