package model

import (
	"encoding/json"
	"fmt"
	"io"
)

// Finding kinds accepted in a findings document.
const (
	KindDast = "dast"
	KindSast = "sast"
)

// FindingBatch is one ingested findings document: the scan context label
// plus the findings in scanner order.
type FindingBatch struct {
	TestingType string
	Findings    []Finding
}

// findingDocument is the wire shape emitted by the scanner framework.
type findingDocument struct {
	TestingType string        `json:"testing_type"`
	Findings    []findingWire `json:"findings"`
}

type findingWire struct {
	Kind          string          `json:"kind"`
	Title         string          `json:"title"`
	Description   json.RawMessage `json:"description"`
	Severity      string          `json:"severity"`
	Tool          string          `json:"tool"`
	IssueHash     string          `json:"issue_hash"`
	Endpoints     []string        `json:"endpoints"`
	Information   bool            `json:"information_finding"`
	FalsePositive bool            `json:"false_positive_finding"`
	Excluded      bool            `json:"excluded_finding"`
	Metadata      map[string]any  `json:"metadata"`
}

// ParseFindings decodes a findings document and converts each entry into
// its concrete finding kind. This is the only place the pipeline inspects
// the kind tag; everything downstream works against the Finding interface.
func ParseFindings(r io.Reader) (*FindingBatch, error) {
	var doc findingDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding findings document: %w", err)
	}

	batch := &FindingBatch{TestingType: doc.TestingType}
	for i, wire := range doc.Findings {
		finding, err := wire.toFinding()
		if err != nil {
			return nil, fmt.Errorf("finding %d (%q): %w", i, wire.Title, err)
		}
		batch.Findings = append(batch.Findings, finding)
	}
	return batch, nil
}

// toFinding switches once on the wire kind, producing the matching closed
// variant. A missing kind is inferred from the description shape: fragment
// lists are static-scan findings, plain strings dynamic-scan ones.
func (w findingWire) toFinding() (Finding, error) {
	var (
		body      string
		fragments []string
	)

	kind := w.Kind
	if len(w.Description) > 0 {
		if err := json.Unmarshal(w.Description, &body); err == nil {
			if kind == "" {
				kind = KindDast
			}
		} else if err := json.Unmarshal(w.Description, &fragments); err == nil {
			if kind == "" {
				kind = KindSast
			}
		} else {
			return nil, fmt.Errorf("description must be a string or a string list")
		}
	}

	meta := w.metadata()
	endpoints := make([]Endpoint, 0, len(w.Endpoints))
	for _, raw := range w.Endpoints {
		endpoints = append(endpoints, Endpoint{Raw: raw})
	}

	switch kind {
	case KindDast:
		return NewDastFinding(w.Title, body, meta, endpoints), nil
	case KindSast:
		if fragments == nil && body != "" {
			fragments = []string{body}
		}
		return NewSastFinding(w.Title, fragments, meta, endpoints), nil
	default:
		return nil, fmt.Errorf("unsupported finding kind %q", w.Kind)
	}
}

// metadata folds the well-known wire fields into the open-ended metadata
// map, keeping any extra scanner-supplied keys.
func (w findingWire) metadata() Metadata {
	meta := Metadata{}
	for k, v := range w.Metadata {
		meta[k] = v
	}
	if w.Severity != "" {
		meta[MetaSeverity] = w.Severity
	}
	if w.Tool != "" {
		meta[MetaTool] = w.Tool
	}
	if w.IssueHash != "" {
		meta[MetaIssueHash] = w.IssueHash
	}
	if w.Information {
		meta[MetaInformation] = true
	}
	if w.FalsePositive {
		meta[MetaFalsePositive] = true
	}
	if w.Excluded {
		meta[MetaExcluded] = true
	}
	return meta
}
