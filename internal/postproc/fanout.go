package postproc

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dkazakov/scan-reporting/internal/model"
	"github.com/dkazakov/scan-reporting/internal/reporter"
	"github.com/dkazakov/scan-reporting/internal/reporter/email"
	"github.com/dkazakov/scan-reporting/internal/reporter/engagement"
	"github.com/dkazakov/scan-reporting/internal/reporter/jira"
)

// ReportToTracker submits the batch to the issue tracker when one is
// configured. The returned flag tells whether the tracker path actually
// ran; notification wording depends on it. An unconfigured or invalid
// tracker is diagnosed and skipped, never failing the run.
func ReportToTracker(
	ctx context.Context,
	cfg *model.JiraConfig,
	batch *model.FindingBatch,
	log zerolog.Logger,
) (*reporter.Result, bool) {
	if cfg == nil {
		log.Debug().Msg("tracker reporting not configured, skipping")
		return &reporter.Result{}, false
	}

	rep, err := jira.New(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("tracker configuration is invalid, skipping")
		return failedResult(reporter.TypeJira, "Jira configuration is invalid", err), false
	}

	result, err := rep.Report(ctx, batch)
	if err != nil {
		log.Error().Err(err).Msg("tracker reporting failed")
		return failedResult(reporter.TypeJira, "Jira reporting failed", err), false
	}
	return result, true
}

// ReportToPortal posts the batch to the engagement portal when one is
// configured. Same guard behavior as ReportToTracker.
func ReportToPortal(
	ctx context.Context,
	cfg *model.EngagementConfig,
	batch *model.FindingBatch,
	log zerolog.Logger,
) *reporter.Result {
	if cfg == nil {
		log.Debug().Msg("portal reporting not configured, skipping")
		return &reporter.Result{}
	}

	rep, err := engagement.New(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("portal configuration is invalid, skipping")
		return failedResult(reporter.TypeEngagement, "engagement configuration is invalid", err)
	}

	result, err := rep.Report(ctx, batch)
	if err != nil {
		log.Error().Err(err).Msg("portal reporting failed")
		return failedResult(reporter.TypeEngagement, "engagement reporting failed", err)
	}
	return result
}

// SendEmails delivers the post-run notification when email is configured.
// Notification failures are diagnosed only; they never fail the run.
func SendEmails(
	ctx context.Context,
	cfg *model.EmailConfig,
	newTickets []model.TicketRecord,
	trackerUsed bool,
	log zerolog.Logger,
) {
	if cfg == nil {
		log.Debug().Msg("email notification not configured, skipping")
		return
	}

	sender, err := email.New(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("email configuration is invalid, skipping")
		return
	}
	if err := sender.Notify(ctx, newTickets, trackerUsed); err != nil {
		log.Error().Err(err).Msg("sending notification failed")
	}
}

// failedResult wraps a whole-adapter failure as a single error record so
// it is visible in the run summary.
func failedResult(typ reporter.Type, message string, err error) *reporter.Result {
	return &reporter.Result{Errors: []model.Error{{
		Tool:    string(typ),
		Message: message,
		Details: err.Error(),
	}}}
}
