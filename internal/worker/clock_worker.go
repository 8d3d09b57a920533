// Package worker reacts to clock events published by the attendance service.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"condo/internal/amqp"
	"condo/internal/attendance"
	"condo/internal/cache"
	"condo/internal/core"
	"condo/internal/log"
	"condo/internal/sheets"
)

// ReportSource builds payroll previews. *attendance.Service satisfies it.
type ReportSource interface {
	MonthlyReport(ctx context.Context, employeeID string, month, year int) ([]attendance.MonthReport, error)
}

// ClockWorker recomputes an employee's payroll preview whenever a shift closes.
// Redelivered events are dropped using the seen cache.
type ClockWorker struct {
	reports ReportSource
	seen    cache.Cache[time.Time]
	payroll sheets.PayrollExporter
	logger  *log.Logger
}

// NewClockWorker wires the worker. payroll may be nil, in which case previews
// are only logged.
func NewClockWorker(reports ReportSource, seen cache.Cache[time.Time], payroll sheets.PayrollExporter, logger *log.Logger) *ClockWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ClockWorker{
		reports: reports,
		seen:    seen,
		payroll: payroll,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleClockEvent processes one message. A returned error makes the consumer
// requeue it, so the event is forgotten by the dedup cache first.
func (w *ClockWorker) HandleClockEvent(ctx context.Context, msg *amqp.ClockEventMessage) error {
	if !w.seen.SetIfAbsent(msg.EventID, time.Now()) {
		w.logger.DebugContext(ctx, "Skipping duplicate clock event", log.FieldEventID, msg.EventID)
		return nil
	}

	if err := w.handle(ctx, msg); err != nil {
		w.seen.Delete(msg.EventID)
		return err
	}
	return nil
}

func (w *ClockWorker) handle(ctx context.Context, msg *amqp.ClockEventMessage) error {
	ev, err := msg.Event()
	if err != nil {
		w.logger.WarnContext(ctx, "Dropping malformed clock event",
			log.FieldEventID, msg.EventID,
			log.FieldError, err)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing clock event",
		log.FieldEventID, ev.ID,
		log.FieldEmployeeID, ev.EmployeeID,
		log.FieldTransition, ev.Transition,
		"at", ev.At)

	switch ev.Transition {
	case core.TransitionOpened:
		return nil
	case core.TransitionClosed:
		return w.preview(ctx, ev)
	default:
		w.logger.WarnContext(ctx, "Unknown clock transition", log.FieldTransition, ev.Transition)
		return nil
	}
}

func (w *ClockWorker) preview(ctx context.Context, ev core.ClockEvent) error {
	month, year := int(ev.Date.Month()), ev.Date.Year()

	reports, err := w.reports.MonthlyReport(ctx, ev.EmployeeID, month, year)
	if errors.Is(err, core.ErrEmployeeNotFound) {
		// Retrying cannot fix a missing employee.
		w.logger.WarnContext(ctx, "Clock event for unknown employee", log.FieldEmployeeID, ev.EmployeeID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("payroll preview for %s: %w", ev.EmployeeID, err)
	}
	if len(reports) == 0 {
		return nil
	}
	r := reports[0]

	w.logger.InfoContext(ctx, "Payroll preview",
		log.FieldEmployeeID, ev.EmployeeID,
		log.FieldYear, r.Year,
		log.FieldMonth, r.Month,
		"days_worked", r.DaysWorked,
		"hours_worked", r.HoursWorked.String(),
		"overtime_hours", r.OvertimeHours.String(),
		"total_pay", r.TotalPay.StringFixed(2),
		"payment_status", r.PaymentStatus)

	if w.payroll == nil {
		return nil
	}
	// The payroll sheet is a log: every closed shift appends a timestamped
	// snapshot and the latest row for a month is the current figure.
	ref, err := w.payroll.AppendPayroll(ctx, ev.EmployeeID, r)
	if err != nil {
		return fmt.Errorf("export payroll preview: %w", err)
	}
	w.logger.InfoContext(ctx, "Exported payroll preview", log.FieldSheetsRef, ref)
	return nil
}
