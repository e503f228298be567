package model

import "time"

// Error is a structured failure captured while reporting a single finding
// or rule. Errors accumulate on the run result; they never abort the batch.
type Error struct {
	// Tool names the reporter that produced the error (e.g. "Jira").
	Tool string `json:"tool"`

	// Message is the one-line failure summary.
	Message string `json:"error"`

	// Details carries the underlying error chain for diagnostics.
	Details string `json:"details"`
}

// TicketRecord is the outcome of submitting one finding to a tracker:
// the tracker-assigned identity plus the full set of fields and labels
// actually applied.
type TicketRecord struct {
	// ID is the tracker-assigned ticket key (e.g. "SEC-1042").
	ID string `json:"ticket_id"`

	// URL is the browse link for the ticket.
	URL string `json:"ticket_url"`

	// Priority is the priority the tracker reports after creation, which
	// may differ from the requested one.
	Priority string `json:"priority"`

	// Status is the tracker's live status name at submission time.
	Status string `json:"status"`

	// Created is the tracker's raw creation timestamp.
	Created string `json:"created"`

	// OpenDate is Created reformatted for humans ("02 Jan 2006 15:04").
	OpenDate string `json:"open_date"`

	// Summary is the ticket summary as stored by the tracker.
	Summary string `json:"summary"`

	// Assignee is the display form of the ticket assignee.
	Assignee string `json:"assignee"`

	// Severity is the originating finding's severity label.
	Severity Severity `json:"severity"`

	// TrackerURL and Project identify the target the ticket went to.
	TrackerURL string `json:"tracker_url"`
	Project    string `json:"project"`

	// Epic is the epic key the ticket is (or would be) linked to.
	Epic string `json:"epic,omitempty"`

	// Fields is the target's configured field template.
	Fields map[string]any `json:"fields,omitempty"`

	// ExtraFields are the dynamic field overrides applied on top of the
	// template for this finding.
	ExtraFields map[string]any `json:"extra_fields,omitempty"`

	// Labels is the full label set submitted with the ticket.
	Labels []string `json:"labels,omitempty"`
}

// Ticket dispositions recorded per run.
const (
	TicketNew      = "new"
	TicketExisting = "existing"
)

// ReportRun summarizes one reporting invocation for the run-history store.
type ReportRun struct {
	// ID is the run's generated UUID.
	ID string `json:"id"`

	// TestingType is the scan context label ("DAST", "SAST", ...).
	TestingType string `json:"testing_type"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// FindingCount is the number of findings submitted after filtering.
	FindingCount int `json:"finding_count"`

	NewCount      int `json:"new_count"`
	ExistingCount int `json:"existing_count"`
	ErrorCount    int `json:"error_count"`
}
