package model

import (
	"strings"
	"testing"
)

func TestParseFindingsKinds(t *testing.T) {
	doc := `{
		"testing_type": "DAST",
		"findings": [
			{
				"kind": "dast",
				"title": "SQL injection",
				"description": "details",
				"severity": "Critical",
				"tool": "zap",
				"issue_hash": "h1",
				"endpoints": ["https://app.example.com/login"]
			},
			{
				"kind": "sast",
				"title": "Hardcoded secret",
				"description": ["frag one", "frag two"],
				"severity": "High"
			}
		]
	}`

	batch, err := ParseFindings(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if batch.TestingType != "DAST" {
		t.Errorf("expected the testing type kept, got %q", batch.TestingType)
	}
	if len(batch.Findings) != 2 {
		t.Fatalf("expected two findings, got %d", len(batch.Findings))
	}

	dast, ok := batch.Findings[0].(*DastFinding)
	if !ok {
		t.Fatalf("expected a dynamic-scan finding, got %T", batch.Findings[0])
	}
	if dast.Description() != "details" {
		t.Errorf("expected the description kept, got %q", dast.Description())
	}
	if dast.Severity() != SeverityCritical {
		t.Errorf("expected the severity folded into metadata, got %s", dast.Severity())
	}
	if len(dast.Endpoints()) != 1 || dast.Endpoints()[0].Raw != "https://app.example.com/login" {
		t.Errorf("expected the endpoint kept raw, got %v", dast.Endpoints())
	}
	if dast.HashCode() != "h1" {
		t.Errorf("expected the issue hash kept, got %q", dast.HashCode())
	}

	sast, ok := batch.Findings[1].(*SastFinding)
	if !ok {
		t.Fatalf("expected a static-scan finding, got %T", batch.Findings[1])
	}
	if len(sast.Fragments()) != 2 {
		t.Errorf("expected both fragments, got %v", sast.Fragments())
	}
}

func TestParseFindingsInfersKind(t *testing.T) {
	doc := `{"findings": [
		{"title": "a", "description": "plain string"},
		{"title": "b", "description": ["one", "two"]}
	]}`

	batch, err := ParseFindings(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if _, ok := batch.Findings[0].(*DastFinding); !ok {
		t.Errorf("expected a string description to infer a dynamic finding")
	}
	if _, ok := batch.Findings[1].(*SastFinding); !ok {
		t.Errorf("expected a fragment list to infer a static finding")
	}
}

func TestParseFindingsFlags(t *testing.T) {
	doc := `{"findings": [{
		"kind": "dast",
		"title": "ignored",
		"description": "d",
		"false_positive_finding": true,
		"excluded_finding": true,
		"information_finding": true
	}]}`

	batch, err := ParseFindings(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	f := batch.Findings[0]
	if !f.MetaBool(MetaFalsePositive) || !f.MetaBool(MetaExcluded) || !f.MetaBool(MetaInformation) {
		t.Errorf("expected the filter flags folded into metadata")
	}
}

func TestParseFindingsRejectsBadDescription(t *testing.T) {
	doc := `{"findings": [{"kind": "dast", "title": "x", "description": 42}]}`
	if _, err := ParseFindings(strings.NewReader(doc)); err == nil {
		t.Errorf("expected an error for a numeric description")
	}
}

func TestParseFindingsRejectsUnknownKind(t *testing.T) {
	doc := `{"findings": [{"kind": "iast", "title": "x", "description": "d"}]}`
	if _, err := ParseFindings(strings.NewReader(doc)); err == nil {
		t.Errorf("expected an error for an unsupported kind")
	}
}

func TestParseFindingsKeepsExtraMetadata(t *testing.T) {
	doc := `{"findings": [{
		"kind": "dast",
		"title": "x",
		"description": "d",
		"metadata": {"confidence": "High"}
	}]}`

	batch, err := ParseFindings(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if got := batch.Findings[0].MetaString("confidence", ""); got != "High" {
		t.Errorf("expected scanner-supplied metadata kept, got %q", got)
	}
}
