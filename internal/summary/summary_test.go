package summary

import (
	"strings"
	"testing"
	"time"

	"github.com/dkazakov/scan-reporting/internal/model"
	"github.com/dkazakov/scan-reporting/internal/reporter"
)

func TestRenderSections(t *testing.T) {
	started := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)
	run := model.ReportRun{
		TestingType:  "DAST",
		StartedAt:    started,
		FinishedAt:   started.Add(83 * time.Second),
		FindingCount: 3,
	}
	result := &reporter.Result{
		NewTickets: []model.TicketRecord{{
			ID: "SEC-1", Priority: "Blocker", Severity: model.SeverityCritical,
			Summary: "SQL injection", URL: "https://jira.example.com/browse/SEC-1",
		}},
		ExistingTickets: []model.TicketRecord{{
			ID: "SEC-2", Priority: "Major", Severity: model.SeverityMedium,
			Summary: "Missing CSP header",
		}},
		Errors: []model.Error{{
			Tool: "jira", Message: "Failed to create ticket for XSS", Details: "boom",
		}},
		PriorityMapping: map[string]string{
			"Critical": "Blocker",
			"Medium":   "Major",
		},
	}

	out := Render(run, result)

	for _, want := range []string{
		"Security scan reporting",
		"DAST",
		"New tickets (1)",
		"SEC-1",
		"https://jira.example.com/browse/SEC-1",
		"Existing tickets (1)",
		"SEC-2",
		"Applied priority mapping",
		"Errors (1)",
		"Failed to create ticket for XSS",
		"3 findings, 1 new, 1 existing, 1 errors in 1m23s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected summary to contain %q\n%s", want, out)
		}
	}
}

func TestRenderMappingOrderedBySeverity(t *testing.T) {
	result := &reporter.Result{PriorityMapping: map[string]string{
		"Low":      "Minor",
		"Critical": "Blocker",
		"High":     "Critical",
	}}

	out := Render(model.ReportRun{}, result)

	critical := strings.Index(out, "Critical")
	high := strings.Index(out, "High")
	low := strings.Index(out, "Low")
	if !(critical < high && high < low) {
		t.Errorf("expected mapping entries most severe first:\n%s", out)
	}
}

func TestRenderHistoryEmpty(t *testing.T) {
	out := RenderHistory(nil)
	if !strings.Contains(out, "No recorded runs") {
		t.Errorf("expected the empty note, got %q", out)
	}
}

func TestRenderHistoryRows(t *testing.T) {
	runs := []model.ReportRun{{
		ID:          "0c9a7f32-3f65-4f2e-8f50-2d8b7a4f9e11",
		TestingType: "SAST",
		StartedAt:   time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC),
		NewCount:    4,
	}}

	out := RenderHistory(runs)
	if !strings.Contains(out, "SAST") {
		t.Errorf("expected the testing type, got %q", out)
	}
	if !strings.Contains(out, "0c9a7f32") {
		t.Errorf("expected the shortened run id, got %q", out)
	}
	if !strings.Contains(out, "new=4") {
		t.Errorf("expected the counts, got %q", out)
	}
}
