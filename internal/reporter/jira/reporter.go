// Package jira files scan findings as tracker tickets: it maps severities
// to priorities, chunks oversized descriptions into a body plus comments,
// routes findings to alternate targets by endpoint patterns, and
// deduplicates against tickets that are already open.
package jira

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dkazakov/scan-reporting/internal/model"
	"github.com/dkazakov/scan-reporting/internal/reporter"
)

// openStatuses are the tracker statuses under which a pre-existing ticket
// still counts as covering a finding.
var openStatuses = map[string]bool{
	"Open":        true,
	"In Progress": true,
}

const (
	// createdTimeLayout parses the creation timestamp the tracker returns.
	createdTimeLayout = "2006-01-02T15:04:05.000-0700"

	// openDateLayout formats creation times for human-facing summaries.
	openDateLayout = "02 Jan 2006 15:04"

	// noHash marks findings whose scanner did not provide an issue hash.
	noHash = "<no_hash>"
)

// target is one prepared tracker destination: its configuration, field
// template (with the epic link extracted when linked separately), the
// resolved priority mapping, and the live session.
type target struct {
	name     string
	cfg      model.JiraTarget
	fields   map[string]any
	epicLink string
	rawEpic  string
	mapping  map[string]string
	meta     map[string]string
	session  tracker
}

// dialFunc builds the session for one target. Tests substitute a fake.
type dialFunc func(cfg *model.JiraTarget, log zerolog.Logger) tracker

func dialWrapper(cfg *model.JiraTarget, log zerolog.Logger) tracker {
	client := NewClient(cfg.URL, cfg.Username, cfg.Password, cfg.Token, log)
	return NewWrapper(client, cfg.Project, log)
}

// Reporter submits findings to one or more Jira targets.
type Reporter struct {
	cfg  *model.JiraConfig
	log  zerolog.Logger
	dial dialFunc
}

// New validates the configuration and builds the reporter. Every target,
// default and pattern-selected alike, must name a URL, a project, and
// either a token or a username/password pair.
func New(cfg *model.JiraConfig, log zerolog.Logger) (*Reporter, error) {
	if cfg == nil {
		return nil, &reporter.ConfigError{
			Reporter: reporter.TypeJira,
			Message:  "reporter is not configured",
		}
	}
	if err := validateTarget(&cfg.JiraTarget); err != nil {
		return nil, err
	}
	for _, pattern := range sortedPatterns(cfg.DynamicJira) {
		dynamic := cfg.DynamicJira[pattern]
		if err := validateTarget(&dynamic); err != nil {
			return nil, fmt.Errorf("dynamic target %q: %w", pattern, err)
		}
	}
	return &Reporter{
		cfg:  cfg,
		log:  log.With().Str("reporter", string(reporter.TypeJira)).Logger(),
		dial: dialWrapper,
	}, nil
}

func validateTarget(cfg *model.JiraTarget) error {
	required := func(field string) error {
		return &reporter.ConfigError{Reporter: reporter.TypeJira, Field: field}
	}
	if cfg.URL == "" {
		return required("url")
	}
	if cfg.Project == "" {
		return required("project")
	}
	if cfg.Token == "" {
		if cfg.Username == "" {
			return required("username")
		}
		if cfg.Password == "" {
			return required("password")
		}
	}
	return nil
}

// Type returns the adapter type identifier.
func (r *Reporter) Type() reporter.Type { return reporter.TypeJira }

// Report prepares, routes, and submits the batch. Per-finding failures
// are collected in the result; a target that cannot be reached fails the
// run as a whole.
func (r *Reporter) Report(
	ctx context.Context,
	batch *model.FindingBatch,
) (*reporter.Result, error) {
	targets, rt, err := r.buildTargets()
	if err != nil {
		return nil, err
	}

	if len(targets) > 1 {
		r.log.Info().Int("targets", len(targets)).Msg("using multi-target reporting")
	} else {
		r.log.Info().Msg("using single-target reporting")
	}

	if err := r.connect(ctx, targets); err != nil {
		return nil, err
	}

	defaultTarget := targets[0]
	prepared := r.prepare(batch, rt, defaultTarget)
	sortFindings(prepared)

	result := &reporter.Result{}
	seenNew := make(map[string]bool)
	seenExisting := make(map[string]bool)
	for _, finding := range prepared {
		r.submit(ctx, finding, result, seenNew, seenExisting)
	}
	result.PriorityMapping = defaultTarget.meta

	r.log.Info().
		Int("new", len(result.NewTickets)).
		Int("existing", len(result.ExistingTickets)).
		Int("errors", len(result.Errors)).
		Msg("tracker reporting finished")
	return result, nil
}

// Validate connects to every configured target without submitting
// anything, verifying reachability and credentials.
func (r *Reporter) Validate(ctx context.Context) error {
	targets, _, err := r.buildTargets()
	if err != nil {
		return err
	}
	return r.connect(ctx, targets)
}

// buildTargets compiles the dynamic patterns and dials every configured
// target, the default one first. A dynamic target pattern that does not
// compile fails the whole run, unlike label and field patterns.
func (r *Reporter) buildTargets() ([]*target, *router, error) {
	targets := []*target{newTarget("default", r.cfg.JiraTarget, r.dial, r.log)}

	rt := newRouter(r.cfg, r.log)
	for _, pattern := range sortedPatterns(r.cfg.DynamicJira) {
		re, err := compileMatch(pattern)
		if err != nil {
			return nil, nil, fmt.Errorf("compiling dynamic target pattern %q: %w", pattern, err)
		}
		t := newTarget(pattern, r.cfg.DynamicJira[pattern], r.dial, r.log)
		targets = append(targets, t)
		rt.addTarget(re, t)
	}
	return targets, rt, nil
}

// connect dials every target and resolves its priority mapping.
func (r *Reporter) connect(ctx context.Context, targets []*target) error {
	for _, t := range targets {
		if err := t.session.Connect(ctx); err != nil {
			return fmt.Errorf("connecting to tracker %s: %w", t.cfg.URL, err)
		}
		t.resolveMapping()
	}
	return nil
}

// newTarget copies the field template and extracts the epic link when it
// is to be attached in a separate call rather than as a creation field.
func newTarget(name string, cfg model.JiraTarget, dial dialFunc, log zerolog.Logger) *target {
	fields := make(map[string]any, len(cfg.Fields))
	for key, value := range cfg.Fields {
		fields[key] = value
	}

	t := &target{name: name, cfg: cfg, fields: fields}
	if cfg.SeparateEpicLinkage {
		if value, ok := fields["Epic Link"]; ok {
			t.epicLink = nameOf(value)
			delete(fields, "Epic Link")
		}
		t.rawEpic = t.epicLink
	} else if value, ok := fields["Epic Link"]; ok {
		t.rawEpic = nameOf(value)
	}
	t.session = dial(&cfg, log.With().Str("target", name).Logger())
	return t
}

// resolveMapping picks the priority mapping for the target: an explicit
// custom mapping wins; otherwise one is derived from the priorities the
// connected server defines. The realized mapping is tracked separately so
// substitutions made per finding are visible afterwards.
func (t *target) resolveMapping() {
	if len(t.cfg.CustomMapping) > 0 {
		t.mapping = t.cfg.CustomMapping
	} else {
		t.mapping = derivePriorityMapping(t.session.ServerPriorities())
	}
	t.meta = make(map[string]string, len(t.mapping))
	for key, value := range t.mapping {
		t.meta[key] = value
	}
}

// preparedFinding is a finding after filtering, routing, mapping, and
// chunking, ready for submission.
type preparedFinding struct {
	source    model.Finding
	title     string
	severity  model.Severity
	priority  string
	body      string
	comments  []string
	labels    []string
	overrides []map[string]any
	target    *target
}

// prepare filters out non-reportable findings and computes everything
// submission needs: the routed target, the ticket priority, the chunked
// description, and the label set.
func (r *Reporter) prepare(
	batch *model.FindingBatch,
	rt *router,
	defaultTarget *target,
) []*preparedFinding {
	var prepared []*preparedFinding
	for _, item := range batch.Findings {
		if item.MetaBool(model.MetaInformation) ||
			item.MetaBool(model.MetaFalsePositive) ||
			item.MetaBool(model.MetaExcluded) {
			continue
		}

		dynamicLabels, overrides, tgt := rt.route(item, defaultTarget)

		severity := item.Severity()
		priority := priorityFor(severity, tgt.mapping)
		tgt.meta[string(severity)] = priority

		var body string
		var comments []string
		kind := "DAST"
		switch f := item.(type) {
		case *model.DastFinding:
			body = normalizeDast(f.Description())
		case *model.SastFinding:
			kind = "SAST"
			fragments := make([]string, 0, len(f.Fragments()))
			for _, fragment := range f.Fragments() {
				fragments = append(fragments, normalizeSast(fragment))
			}
			body, comments = chunkFragments(fragments)
		}
		body, comments = applySizeLimit(body, comments, tgt.cfg.MaxDescriptionSize)

		testingType := batch.TestingType
		if testingType == "" {
			testingType = kind
		}
		labels := make([]string, 0, 3+len(dynamicLabels))
		for _, label := range []string{item.Tool(), testingType, string(severity)} {
			labels = append(labels, strings.ReplaceAll(label, " ", "_"))
		}
		labels = append(labels, dynamicLabels...)

		prepared = append(prepared, &preparedFinding{
			source:    item,
			title:     item.Title(),
			severity:  severity,
			priority:  priority,
			body:      body,
			comments:  comments,
			labels:    labels,
			overrides: overrides,
			target:    tgt,
		})
	}
	return prepared
}

// sortFindings orders findings by severity (most severe first), then by
// scanner tool, then by title.
func sortFindings(findings []*preparedFinding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if ra, rb := a.severity.Rank(), b.severity.Rank(); ra != rb {
			return ra < rb
		}
		ta := a.source.MetaString(model.MetaTool, "")
		tb := b.source.MetaString(model.MetaTool, "")
		if ta != tb {
			return ta < tb
		}
		return a.title < b.title
	})
}

// submit files one finding. Failures are recorded in the result and the
// run moves on; they never abort the remaining findings.
func (r *Reporter) submit(
	ctx context.Context,
	f *preparedFinding,
	result *reporter.Result,
	seenNew map[string]bool,
	seenExisting map[string]bool,
) {
	tgt := f.target

	overrides := make(map[string]any)
	for _, override := range f.overrides {
		for key, value := range override {
			overrides[key] = value
		}
	}
	fields := make(map[string]any, len(tgt.fields)+len(overrides))
	for key, value := range tgt.fields {
		fields[key] = value
	}
	for key, value := range overrides {
		fields[key] = value
	}

	labels := append(append([]string{}, f.labels...), tgt.cfg.AdditionalLabels...)

	issue, created, err := tgt.session.CreateIssue(ctx, IssueRequest{
		Title:       f.title,
		Priority:    f.priority,
		Description: f.body,
		IssueHash:   f.source.MetaString(model.MetaIssueHash, noHash),
		Labels:      labels,
		Fields:      fields,
	})
	if err != nil {
		r.fail(result, f, err)
		return
	}

	if created {
		for _, comment := range f.comments {
			if err := tgt.session.AddComment(ctx, issue.Key, comment); err != nil {
				r.fail(result, f, err)
				return
			}
		}
		if tgt.cfg.SeparateEpicLinkage {
			r.linkEpic(ctx, tgt, issue.Key)
		}
	}

	// An issue id lands in at most one of the two sets, exactly once.
	record := ticketRecord(f, tgt, issue, overrides, labels)
	if created {
		if !seenNew[issue.Key] && !seenExisting[issue.Key] {
			seenNew[issue.Key] = true
			result.NewTickets = append(result.NewTickets, record)
		}
		return
	}
	if openStatuses[issue.Fields.Status.Name] &&
		!seenExisting[issue.Key] && !seenNew[issue.Key] {
		seenExisting[issue.Key] = true
		result.ExistingTickets = append(result.ExistingTickets, record)
	}
}

// linkEpic attaches a created ticket to the target's epic. Linkage
// failures are logged and do not fail the finding.
func (r *Reporter) linkEpic(ctx context.Context, tgt *target, issueKey string) {
	if tgt.epicLink == "" {
		r.log.Warn().Str("issue", issueKey).
			Msg("separate epic linkage enabled without an Epic Link field")
		return
	}
	if err := tgt.session.AddIssuesToEpic(ctx, tgt.epicLink, []string{issueKey}); err != nil {
		r.log.Error().Err(err).
			Str("issue", issueKey).
			Str("epic", tgt.epicLink).
			Msg("failed to link ticket to epic")
	}
}

func (r *Reporter) fail(result *reporter.Result, f *preparedFinding, err error) {
	r.log.Error().Err(err).Str("title", f.title).Msg("failed to create ticket")
	result.Errors = append(result.Errors, model.Error{
		Tool:    string(reporter.TypeJira),
		Message: fmt.Sprintf("Failed to create ticket for %s", f.title),
		Details: err.Error(),
	})
}

// ticketRecord captures the submission outcome for summaries and history.
func ticketRecord(
	f *preparedFinding,
	tgt *target,
	issue *Issue,
	overrides map[string]any,
	labels []string,
) model.TicketRecord {
	priority := "Default"
	if issue.Fields.Priority != nil && issue.Fields.Priority.Name != "" {
		priority = issue.Fields.Priority.Name
	}

	record := model.TicketRecord{
		ID:          issue.Key,
		URL:         strings.TrimRight(tgt.cfg.URL, "/") + "/browse/" + issue.Key,
		Priority:    priority,
		Status:      issue.Fields.Status.Name,
		Created:     issue.Fields.Created,
		Summary:     issue.Fields.Summary,
		Assignee:    issue.Fields.Assignee.String(),
		Severity:    f.severity,
		TrackerURL:  tgt.cfg.URL,
		Project:     tgt.cfg.Project,
		Epic:        tgt.rawEpic,
		Fields:      tgt.fields,
		ExtraFields: overrides,
		Labels:      labels,
	}
	if ts, err := time.Parse(createdTimeLayout, issue.Fields.Created); err == nil {
		record.OpenDate = ts.Format(openDateLayout)
	} else {
		record.OpenDate = issue.Fields.Created
	}
	return record
}
