package jira

// Issue represents a single Jira issue from the REST API.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// IssueFields contains the issue fields this reporter reads back.
type IssueFields struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Priority    *Priority `json:"priority"`
	Assignee    *User     `json:"assignee"`
	Created     string    `json:"created"`
	Labels      []string  `json:"labels,omitempty"`
}

// Status represents the status of a Jira issue.
type Status struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Priority represents the priority level of a Jira issue.
type Priority struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User represents a Jira user.
type User struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// String returns the display name, falling back to the login name.
func (u *User) String() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

// SearchRequest is the request body for POST /rest/api/2/search.
type SearchRequest struct {
	JQL        string   `json:"jql"`
	StartAt    int      `json:"startAt"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields,omitempty"`
}

// SearchResponse is the response from POST /rest/api/2/search.
type SearchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// CreateIssueRequest is the request body for POST /rest/api/2/issue.
// Fields carries the field template verbatim, so project-specific custom
// fields pass through untouched.
type CreateIssueRequest struct {
	Fields map[string]any `json:"fields"`
}

// CreatedIssue is the response from a successful issue creation.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// CommentRequest is the request body for adding a comment to an issue.
type CommentRequest struct {
	Body string `json:"body"`
}

// Comment represents a single comment on a Jira issue.
type Comment struct {
	ID      string `json:"id"`
	Body    string `json:"body"`
	Created string `json:"created"`
}

// EpicIssuesRequest is the request body for adding issues to an epic via
// the agile API.
type EpicIssuesRequest struct {
	Issues []string `json:"issues"`
}

// Field is one entry of the field catalog from GET /rest/api/2/field,
// used to translate human field names to API field ids.
type Field struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
}

// Myself is the response from GET /rest/api/2/myself, used to verify
// connectivity and credentials.
type Myself struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Active      bool   `json:"active"`
}

// ErrorResponse is the standard Jira error response format.
type ErrorResponse struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}
