package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Severity is the scanner-assigned severity label of a finding.
type Severity string

// Severity labels, most severe first.
const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
	SeverityInfo     Severity = "Info"
)

// Severities lists all severity labels ordered most severe first. The
// last entry is the fallback for findings without a recognized severity.
var Severities = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
}

// LeastSevere returns the least severe label (the ordered list's tail).
func LeastSevere() Severity {
	return Severities[len(Severities)-1]
}

// Rank returns the position of s in the ordered severity list
// (0 = most severe). Unrecognized labels rank as least severe.
func (s Severity) Rank() int {
	for i, known := range Severities {
		if s == known {
			return i
		}
	}
	return len(Severities) - 1
}

func (s Severity) String() string {
	return string(s)
}

// Metadata keys recognized by the reporting pipeline. Scanners may attach
// arbitrary additional keys; these are the ones the reporters act on.
const (
	MetaTool          = "tool"
	MetaSeverity      = "severity"
	MetaIssueHash     = "issue_hash"
	MetaEndpoints     = "endpoints"
	MetaInformation   = "information_finding"
	MetaFalsePositive = "false_positive_finding"
	MetaExcluded      = "excluded_finding"
)

// Endpoint is an opaque raw identifier (usually a URL) associated with a
// finding. Routing rules match against the raw string only.
type Endpoint struct {
	Raw string
}

// Metadata is the open-ended key/value mapping attached to a finding by
// the upstream scanner.
type Metadata map[string]any

// String returns the string value for key, or fallback when the key is
// absent or not a string.
func (m Metadata) String(key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// Bool returns the boolean value for key; absent or mistyped keys are false.
func (m Metadata) Bool(key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Finding is the capability surface shared by the two concrete finding
// kinds. Findings are produced by upstream scanners and are read-only once
// they reach the reporting pipeline; the concrete kind is fixed at
// ingestion and never re-examined afterwards.
type Finding interface {
	// Title is the one-line summary of the issue.
	Title() string

	// Fragments returns the description as an ordered fragment list.
	// Dynamic-scan findings have exactly one fragment.
	Fragments() []string

	// Meta looks up an open-ended metadata value.
	Meta(key string) (any, bool)

	// MetaString returns a string metadata value or fallback.
	MetaString(key, fallback string) string

	// MetaBool returns a boolean metadata value; absent keys are false.
	MetaBool(key string) bool

	// Severity returns the severity label, falling back to the least
	// severe entry when the metadata carries none.
	Severity() Severity

	// Tool returns the name of the scanner that produced the finding.
	Tool() string

	// Endpoints returns the endpoints associated with the finding, in
	// scanner order. May be empty.
	Endpoints() []Endpoint

	// HashCode returns the finding's content hash: the scanner-assigned
	// issue hash when present, otherwise a digest of title and
	// description. Used for tracker-side dedup and the accepted
	// false-positive list.
	HashCode() string

	sealed()
}

// base carries the state common to both finding kinds.
type base struct {
	title     string
	meta      Metadata
	endpoints []Endpoint
}

func (b *base) Title() string { return b.title }

func (b *base) Meta(key string) (any, bool) {
	v, ok := b.meta[key]
	return v, ok
}

func (b *base) MetaString(key, fallback string) string {
	return b.meta.String(key, fallback)
}

func (b *base) MetaBool(key string) bool {
	return b.meta.Bool(key)
}

func (b *base) Severity() Severity {
	s := b.meta.String(MetaSeverity, "")
	if s == "" {
		return LeastSevere()
	}
	return Severity(s)
}

func (b *base) Tool() string {
	return b.meta.String(MetaTool, "scanner")
}

func (b *base) Endpoints() []Endpoint { return b.endpoints }

func (b *base) sealed() {}

// DastFinding is a dynamic-scan finding: a single description body tied to
// one or more live endpoints.
type DastFinding struct {
	base
	description string
}

// NewDastFinding builds a dynamic-scan finding. The metadata map is
// retained as-is; callers must not mutate it afterwards.
func NewDastFinding(title, description string, meta Metadata, endpoints []Endpoint) *DastFinding {
	if meta == nil {
		meta = Metadata{}
	}
	return &DastFinding{
		base:        base{title: title, meta: meta, endpoints: endpoints},
		description: description,
	}
}

// Description returns the full description body.
func (f *DastFinding) Description() string { return f.description }

func (f *DastFinding) Fragments() []string { return []string{f.description} }

func (f *DastFinding) HashCode() string {
	return hashCode(f.meta, f.title, f.description)
}

// SastFinding is a static-scan finding: the description is an ordered list
// of fragments (one per affected location), which the Jira reporter may
// spread across a ticket body and follow-up comments.
type SastFinding struct {
	base
	fragments []string
}

// NewSastFinding builds a static-scan finding from its description
// fragments in scanner order.
func NewSastFinding(title string, fragments []string, meta Metadata, endpoints []Endpoint) *SastFinding {
	if meta == nil {
		meta = Metadata{}
	}
	return &SastFinding{
		base:      base{title: title, meta: meta, endpoints: endpoints},
		fragments: fragments,
	}
}

func (f *SastFinding) Fragments() []string { return f.fragments }

func (f *SastFinding) HashCode() string {
	return hashCode(f.meta, f.title, strings.Join(f.fragments, "\n"))
}

func hashCode(meta Metadata, title, description string) string {
	if h := meta.String(MetaIssueHash, ""); h != "" {
		return h
	}
	sum := sha256.Sum256([]byte(title + "\x00" + description))
	return hex.EncodeToString(sum[:])
}
