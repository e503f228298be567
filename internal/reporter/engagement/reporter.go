// Package engagement posts findings in bulk to an engagement issue
// endpoint: the simpler sibling of the tracker path, with no chunking,
// routing, or deduplication.
package engagement

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dkazakov/scan-reporting/internal/markdown"
	"github.com/dkazakov/scan-reporting/internal/model"
	"github.com/dkazakov/scan-reporting/internal/reporter"
)

// Reporter converts findings to flat issue payloads and submits them in
// one bulk call.
type Reporter struct {
	cfg    *model.EngagementConfig
	client *Client
	log    zerolog.Logger
}

// New validates the configuration and builds the reporter. The endpoint
// URL and the engagement id are required; the token is optional.
func New(cfg *model.EngagementConfig, log zerolog.Logger) (*Reporter, error) {
	if cfg == nil {
		return nil, &reporter.ConfigError{
			Reporter: reporter.TypeEngagement,
			Message:  "reporter is not configured",
		}
	}
	if cfg.URL == "" {
		return nil, &reporter.ConfigError{
			Reporter: reporter.TypeEngagement, Field: "url",
		}
	}
	if cfg.EngagementID == "" {
		return nil, &reporter.ConfigError{
			Reporter: reporter.TypeEngagement, Field: "engagement_id",
		}
	}
	return &Reporter{
		cfg:    cfg,
		client: NewClient(cfg.URL, cfg.Token),
		log:    log.With().Str("reporter", string(reporter.TypeEngagement)).Logger(),
	}, nil
}

// Type returns the adapter type identifier.
func (r *Reporter) Type() reporter.Type { return reporter.TypeEngagement }

// Report submits every finding of the batch, descriptions rendered to
// HTML, tagged with the configured engagement.
func (r *Reporter) Report(
	ctx context.Context,
	batch *model.FindingBatch,
) (*reporter.Result, error) {
	issues := make([]Issue, 0, len(batch.Findings))
	for _, finding := range batch.Findings {
		description := strings.Join(finding.Fragments(), "\n\n")
		html, err := markdown.ToHTML(description)
		if err != nil {
			r.log.Warn().Err(err).Str("title", finding.Title()).
				Msg("keeping raw description")
			html = description
		}
		issues = append(issues, Issue{
			Title:       finding.Title(),
			Description: html,
			Severity:    string(finding.Severity()),
			Type:        "Vulnerability",
			Engagement:  r.cfg.EngagementID,
			SourceType:  "security",
		})
	}

	if err := r.client.CreateIssues(ctx, issues); err != nil {
		return nil, fmt.Errorf("reporting to engagement: %w", err)
	}
	r.log.Info().Int("issues", len(issues)).Msg("engagement reporting finished")
	return &reporter.Result{Submitted: len(issues)}, nil
}
