package jira

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// tracker is the slice of tracker behavior the submission loop needs.
// The production implementation is Wrapper; tests substitute a fake.
type tracker interface {
	Connect(ctx context.Context) error
	ServerPriorities() []string
	CreateIssue(ctx context.Context, req IssueRequest) (*Issue, bool, error)
	AddComment(ctx context.Context, issueKey, body string) error
	AddIssuesToEpic(ctx context.Context, epicKey string, issueKeys []string) error
}

// IssueRequest describes one ticket to find or create.
type IssueRequest struct {
	Title       string
	Priority    string
	Description string

	// IssueHash identifies the finding across runs; it is attached as a
	// label and searched for before creating a duplicate.
	IssueHash string

	// Labels are attached in addition to the hash label.
	Labels []string

	// Fields is the target's field template for this ticket, with any
	// per-ticket overrides already applied.
	Fields map[string]any
}

// Wrapper is one authenticated session against a tracker instance. It
// resolves human field names to API field ids at connect time, finds
// issues by hash label, and creates what is missing.
type Wrapper struct {
	client  *Client
	project string
	log     zerolog.Logger

	connected  bool
	fieldIDs   map[string]string
	priorities []string
}

// NewWrapper builds a session for one tracker target.
func NewWrapper(client *Client, project string, log zerolog.Logger) *Wrapper {
	return &Wrapper{
		client:  client,
		project: project,
		log:     log,
	}
}

// Connect verifies credentials and loads the field and priority catalogs
// used to translate ticket templates. Calling it again is a no-op.
func (w *Wrapper) Connect(ctx context.Context) error {
	if w.connected {
		return nil
	}

	var me Myself
	if err := w.client.Get(ctx, "/rest/api/2/myself", &me); err != nil {
		return fmt.Errorf("verifying tracker connection: %w", err)
	}

	var defs []Field
	if err := w.client.Get(ctx, "/rest/api/2/field", &defs); err != nil {
		return fmt.Errorf("loading tracker fields: %w", err)
	}
	w.fieldIDs = make(map[string]string, len(defs))
	for _, def := range defs {
		w.fieldIDs[strings.ToLower(def.Name)] = def.ID
	}

	var priorities []Priority
	if err := w.client.Get(ctx, "/rest/api/2/priority", &priorities); err != nil {
		return fmt.Errorf("loading tracker priorities: %w", err)
	}
	w.priorities = make([]string, 0, len(priorities))
	for _, priority := range priorities {
		w.priorities = append(w.priorities, priority.Name)
	}

	w.connected = true
	w.log.Debug().Str("user", me.Name).Int("fields", len(defs)).
		Msg("tracker connection established")
	return nil
}

// ServerPriorities returns the priority names the connected instance
// defines, in server order.
func (w *Wrapper) ServerPriorities() []string {
	return w.priorities
}

// CreateIssue finds an open or closed issue carrying the request's hash
// label, or creates a new one from the field template. The second return
// value reports whether the issue was created by this call.
func (w *Wrapper) CreateIssue(
	ctx context.Context,
	req IssueRequest,
) (*Issue, bool, error) {
	existing, err := w.findByHash(ctx, req.IssueHash)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	var created CreatedIssue
	payload := CreateIssueRequest{Fields: w.buildFields(req)}
	if err := w.client.Post(ctx, "/rest/api/2/issue", payload, &created); err != nil {
		return nil, false, fmt.Errorf("creating issue %q: %w", req.Title, err)
	}

	issue, err := w.getIssue(ctx, created.Key)
	if err != nil {
		return nil, false, fmt.Errorf("reading back issue %s: %w", created.Key, err)
	}
	return issue, true, nil
}

// AddComment appends a comment to an issue.
func (w *Wrapper) AddComment(ctx context.Context, issueKey, body string) error {
	path := fmt.Sprintf("/rest/api/2/issue/%s/comment", url.PathEscape(issueKey))
	if err := w.client.Post(ctx, path, CommentRequest{Body: body}, nil); err != nil {
		return fmt.Errorf("commenting on %s: %w", issueKey, err)
	}
	return nil
}

// AddIssuesToEpic links issues to an epic via the agile API.
func (w *Wrapper) AddIssuesToEpic(
	ctx context.Context,
	epicKey string,
	issueKeys []string,
) error {
	path := fmt.Sprintf("/rest/agile/1.0/epic/%s/issue", url.PathEscape(epicKey))
	payload := EpicIssuesRequest{Issues: issueKeys}
	if err := w.client.Post(ctx, path, payload, nil); err != nil {
		return fmt.Errorf("linking to epic %s: %w", epicKey, err)
	}
	return nil
}

// findByHash searches the project for an issue labeled with the hash.
func (w *Wrapper) findByHash(ctx context.Context, hash string) (*Issue, error) {
	search := SearchRequest{
		JQL: fmt.Sprintf(
			`project = %q AND labels = %q`,
			w.project, sanitizeLabel(hash),
		),
		MaxResults: 1,
		Fields:     []string{"summary", "status", "priority", "assignee", "created"},
	}
	var result SearchResponse
	if err := w.client.Post(ctx, "/rest/api/2/search", search, &result); err != nil {
		return nil, fmt.Errorf("searching for hash label %s: %w", hash, err)
	}
	if len(result.Issues) == 0 {
		return nil, nil
	}
	return &result.Issues[0], nil
}

func (w *Wrapper) getIssue(ctx context.Context, key string) (*Issue, error) {
	path := fmt.Sprintf(
		"/rest/api/2/issue/%s?fields=summary,status,priority,assignee,created",
		url.PathEscape(key),
	)
	var issue Issue
	if err := w.client.Get(ctx, path, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// buildFields assembles the creation payload: structural fields first,
// then the ticket's field template, translated from human field names to
// API ids where the catalog knows them.
func (w *Wrapper) buildFields(req IssueRequest) map[string]any {
	template := make(map[string]any, len(req.Fields))
	for name, value := range req.Fields {
		template[name] = value
	}

	issueType := "Bug"
	if v, ok := template["Issue Type"].(string); ok && v != "" {
		issueType = v
	}

	labels := []string{sanitizeLabel(req.IssueHash)}
	for _, label := range req.Labels {
		labels = append(labels, sanitizeLabel(label))
	}

	fields := map[string]any{
		"project":     map[string]any{"key": w.project},
		"summary":     sanitizeSummary(req.Title),
		"description": req.Description,
		"issuetype":   map[string]any{"name": issueType},
		"priority":    map[string]any{"name": req.Priority},
		"labels":      labels,
	}

	for name, value := range template {
		switch strings.ToLower(name) {
		case "issue type", "issuetype":
			// Consumed above.
		case "assignee":
			fields["assignee"] = map[string]any{"name": nameOf(value)}
		case "reporter":
			fields["reporter"] = map[string]any{"name": nameOf(value)}
		case "security level":
			fields["security"] = map[string]any{"name": nameOf(value)}
		case "priority":
			fields["priority"] = map[string]any{"name": nameOf(value)}
		default:
			fields[w.fieldID(name)] = value
		}
	}
	return fields
}

// fieldID translates a human field name ("Epic Link") to the API field id
// when the catalog knows it, passing unknown names through unchanged.
func (w *Wrapper) fieldID(name string) string {
	if id, ok := w.fieldIDs[strings.ToLower(name)]; ok {
		return id
	}
	return name
}

func nameOf(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// sanitizeSummary flattens a title to a single line the tracker accepts:
// control characters become spaces and the result is capped at 254
// characters.
func sanitizeSummary(title string) string {
	var b strings.Builder
	for _, r := range title {
		if r < 0x20 || r == 0x7f {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	summary := strings.Join(strings.Fields(b.String()), " ")
	runes := []rune(summary)
	if len(runes) > 254 {
		summary = string(runes[:254])
	}
	return summary
}

// sanitizeLabel makes a value usable as a tracker label: labels cannot
// contain spaces.
func sanitizeLabel(label string) string {
	return strings.ReplaceAll(label, " ", "_")
}
