package postproc

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dkazakov/scan-reporting/internal/model"
)

func TestReportToTrackerUnconfigured(t *testing.T) {
	result, used := ReportToTracker(
		context.Background(), nil, &model.FindingBatch{}, zerolog.Nop())
	if used {
		t.Errorf("expected the tracker path not to run")
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no error records, got %v", result.Errors)
	}
}

func TestReportToTrackerInvalidConfig(t *testing.T) {
	cfg := &model.JiraConfig{JiraTarget: model.JiraTarget{
		URL: "https://jira.example.com",
		// project missing
		Username: "svc", Password: "secret",
	}}

	result, used := ReportToTracker(
		context.Background(), cfg, &model.FindingBatch{}, zerolog.Nop())
	if used {
		t.Errorf("expected an invalid tracker config to be skipped")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error record, got %v", result.Errors)
	}
	if result.Errors[0].Tool != "jira" {
		t.Errorf("expected the error attributed to jira, got %q", result.Errors[0].Tool)
	}
}

func TestReportToPortalUnconfigured(t *testing.T) {
	result := ReportToPortal(
		context.Background(), nil, &model.FindingBatch{}, zerolog.Nop())
	if len(result.Errors) != 0 || result.Submitted != 0 {
		t.Errorf("expected an empty result, got %+v", result)
	}
}

func TestReportToPortalInvalidConfig(t *testing.T) {
	cfg := &model.EngagementConfig{URL: "https://portal.example.com"} // id missing

	result := ReportToPortal(
		context.Background(), cfg, &model.FindingBatch{}, zerolog.Nop())
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error record, got %v", result.Errors)
	}
	if result.Errors[0].Tool != "engagement" {
		t.Errorf("expected the error attributed to the portal, got %q", result.Errors[0].Tool)
	}
}

func TestSendEmailsGuards(t *testing.T) {
	// Unconfigured and invalid email setups are skipped without panicking.
	SendEmails(context.Background(), nil, nil, true, zerolog.Nop())
	SendEmails(context.Background(),
		&model.EmailConfig{Host: "smtp.example.com"}, nil, true, zerolog.Nop())
}
