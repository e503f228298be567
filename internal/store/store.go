package store

import (
	"context"

	"github.com/dkazakov/scan-reporting/internal/model"
)

// RunTicket is a ticket as recorded for a run, tagged with whether the
// run created it or found it already open.
type RunTicket struct {
	Disposition string
	model.TicketRecord
}

// Store defines the persistence interface for the reporting run history.
type Store interface {
	// SaveRun records a finished run together with the tickets it touched
	// and the errors it accumulated, atomically.
	SaveRun(
		ctx context.Context,
		run model.ReportRun,
		newTickets, existingTickets []model.TicketRecord,
		errs []model.Error,
	) error

	// GetRuns returns recent runs, most recent first. A limit of 0 means
	// no limit.
	GetRuns(ctx context.Context, limit int) ([]model.ReportRun, error)

	// GetRunByID retrieves a single run.
	GetRunByID(ctx context.Context, id string) (*model.ReportRun, error)

	// GetRunTickets returns a run's tickets in recorded order.
	GetRunTickets(ctx context.Context, runID string) ([]RunTicket, error)

	// GetRunErrors returns a run's error records in recorded order.
	GetRunErrors(ctx context.Context, runID string) ([]model.Error, error)

	Close() error
}
