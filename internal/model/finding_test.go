package model

import "testing"

func TestSeverityRank(t *testing.T) {
	if SeverityCritical.Rank() >= SeverityHigh.Rank() {
		t.Errorf("expected Critical to rank before High")
	}
	if SeverityLow.Rank() >= SeverityInfo.Rank() {
		t.Errorf("expected Low to rank before Info")
	}
	if got := Severity("Bogus").Rank(); got != SeverityInfo.Rank() {
		t.Errorf("expected unknown severities to rank least severe, got %d", got)
	}
}

func TestLeastSevere(t *testing.T) {
	if LeastSevere() != SeverityInfo {
		t.Errorf("expected Info as the least severe label, got %s", LeastSevere())
	}
}

func TestMetadataString(t *testing.T) {
	meta := Metadata{"tool": "zap", "count": 3}

	if got := meta.String("tool", "scanner"); got != "zap" {
		t.Errorf("expected the stored value, got %q", got)
	}
	if got := meta.String("absent", "scanner"); got != "scanner" {
		t.Errorf("expected the fallback for an absent key, got %q", got)
	}
	if got := meta.String("count", "scanner"); got != "scanner" {
		t.Errorf("expected the fallback for a mistyped value, got %q", got)
	}
}

func TestMetadataBool(t *testing.T) {
	meta := Metadata{"false_positive_finding": true, "note": "yes"}

	if !meta.Bool("false_positive_finding") {
		t.Errorf("expected the stored flag")
	}
	if meta.Bool("absent") || meta.Bool("note") {
		t.Errorf("expected absent and mistyped keys to read false")
	}
}

func TestFindingSeverityFallback(t *testing.T) {
	finding := NewDastFinding("t", "d", Metadata{}, nil)
	if finding.Severity() != SeverityInfo {
		t.Errorf("expected the least severe fallback, got %s", finding.Severity())
	}

	tagged := NewDastFinding("t", "d", Metadata{MetaSeverity: "High"}, nil)
	if tagged.Severity() != SeverityHigh {
		t.Errorf("expected the tagged severity, got %s", tagged.Severity())
	}
}

func TestFindingToolFallback(t *testing.T) {
	finding := NewDastFinding("t", "d", Metadata{}, nil)
	if finding.Tool() != "scanner" {
		t.Errorf("expected the generic tool fallback, got %q", finding.Tool())
	}
}

func TestHashCodePrefersIssueHash(t *testing.T) {
	finding := NewDastFinding("t", "d", Metadata{MetaIssueHash: "abc123"}, nil)
	if finding.HashCode() != "abc123" {
		t.Errorf("expected the scanner-assigned hash, got %q", finding.HashCode())
	}
}

func TestHashCodeComputed(t *testing.T) {
	a := NewDastFinding("title", "body", Metadata{}, nil)
	b := NewDastFinding("title", "body", Metadata{}, nil)
	c := NewDastFinding("other", "body", Metadata{}, nil)

	if a.HashCode() != b.HashCode() {
		t.Errorf("expected identical content to hash identically")
	}
	if a.HashCode() == c.HashCode() {
		t.Errorf("expected different titles to hash differently")
	}
}

func TestDastFragments(t *testing.T) {
	finding := NewDastFinding("t", "the body", Metadata{}, nil)
	frags := finding.Fragments()
	if len(frags) != 1 || frags[0] != "the body" {
		t.Errorf("expected a single fragment wrapping the body, got %v", frags)
	}
}

func TestSastHashCoversAllFragments(t *testing.T) {
	a := NewSastFinding("t", []string{"one", "two"}, Metadata{}, nil)
	b := NewSastFinding("t", []string{"one", "three"}, Metadata{}, nil)
	if a.HashCode() == b.HashCode() {
		t.Errorf("expected differing fragments to hash differently")
	}
}
