package reporter

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkazakov/scan-reporting/internal/model"
)

// ConfigError indicates that a reporter's configuration is missing a
// required setting and the reporter cannot run. It is returned by reporter
// constructors before any network traffic happens.
type ConfigError struct {
	Reporter Type
	Field    string
	Message  string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s configuration: %q is required", e.Reporter, e.Field)
	}
	return fmt.Sprintf("invalid %s configuration: %s", e.Reporter, e.Message)
}

// IsConfigError reports whether err (or any error in its chain) is a
// ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// Type identifies the kind of reporting adapter.
type Type string

const (
	TypeJira       Type = "jira"
	TypeEngagement Type = "engagement"
	TypeEmail      Type = "email"
)

// Result holds the outcome of one reporting run: which tickets were
// created, which already existed, and the per-finding failures that did
// not stop the run.
type Result struct {
	// NewTickets are tickets created during this run, deduplicated by id.
	NewTickets []model.TicketRecord

	// ExistingTickets are open tickets that already covered a finding.
	ExistingTickets []model.TicketRecord

	// Errors are per-finding submission failures. A failure is recorded
	// and the run continues with the next finding.
	Errors []model.Error

	// Submitted counts findings accepted by bulk-style endpoints that do
	// not return per-ticket records.
	Submitted int

	// PriorityMapping is the severity-to-priority mapping actually applied
	// during the run, including substitutions made for priorities the
	// tracker does not define.
	PriorityMapping map[string]string
}

// Merge folds another result into r, preserving order.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.NewTickets = append(r.NewTickets, other.NewTickets...)
	r.ExistingTickets = append(r.ExistingTickets, other.ExistingTickets...)
	r.Errors = append(r.Errors, other.Errors...)
	r.Submitted += other.Submitted
	if other.PriorityMapping != nil {
		r.PriorityMapping = other.PriorityMapping
	}
}

// Reporter defines the contract every reporting adapter implements.
type Reporter interface {
	// Type returns the adapter type identifier.
	Type() Type

	// Report submits the finding batch to the adapter's destination and
	// returns what happened. Per-finding failures are accumulated in the
	// result; a non-nil error means the run as a whole could not proceed.
	Report(ctx context.Context, batch *model.FindingBatch) (*Result, error)
}
