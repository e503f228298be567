package jira

import (
	"regexp"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dkazakov/scan-reporting/internal/model"
)

func routerTestFinding(endpoints ...string) model.Finding {
	eps := make([]model.Endpoint, 0, len(endpoints))
	for _, raw := range endpoints {
		eps = append(eps, model.Endpoint{Raw: raw})
	}
	return model.NewDastFinding("finding", "description", nil, eps)
}

func newTestRouter(t *testing.T, cfg *model.JiraConfig) *router {
	t.Helper()
	return newRouter(cfg, zerolog.Nop())
}

func TestRouteNoEndpointsUsesDefaults(t *testing.T) {
	cfg := &model.JiraConfig{
		DynamicLabels: map[string]string{`https://api\..*`: "api"},
		DynamicFields: map[string]map[string]any{
			`https://api\..*`: {"Assignee": "api_owner"},
		},
	}
	rt := newTestRouter(t, cfg)
	def := &target{name: "default"}
	other := &target{name: "other"}
	rt.addTarget(mustCompileMatch(t, `https://api\..*`), other)

	labels, overrides, tgt := rt.route(routerTestFinding(), def)
	if len(labels) != 0 {
		t.Errorf("expected no dynamic labels, got %v", labels)
	}
	if len(overrides) != 0 {
		t.Errorf("expected no field overrides, got %v", overrides)
	}
	if tgt != def {
		t.Errorf("expected the default target")
	}
}

func TestRouteMatchesAnchoredAtStart(t *testing.T) {
	cfg := &model.JiraConfig{
		DynamicLabels: map[string]string{`https://api\..*`: "api"},
	}
	rt := newTestRouter(t, cfg)
	def := &target{name: "default"}

	labels, _, _ := rt.route(routerTestFinding("https://api.example.com/v1"), def)
	if len(labels) != 1 || labels[0] != "api" {
		t.Errorf("expected the api label, got %v", labels)
	}

	// The pattern matches from the start of the endpoint, not anywhere.
	labels, _, _ = rt.route(routerTestFinding("https://proxy.local/https://api.example.com"), def)
	if len(labels) != 0 {
		t.Errorf("expected no label for a mid-string match, got %v", labels)
	}
}

func TestRouteAccumulatesAcrossEndpoints(t *testing.T) {
	cfg := &model.JiraConfig{
		DynamicLabels: map[string]string{
			`https://api\..*`:   "api",
			`https://admin\..*`: "admin",
		},
		DynamicFields: map[string]map[string]any{
			`https://api\..*`:   {"Assignee": "api_owner"},
			`https://admin\..*`: {"Assignee": "admin_owner", "Security Level": "Internal"},
		},
	}
	rt := newTestRouter(t, cfg)
	def := &target{name: "default"}

	finding := routerTestFinding(
		"https://api.example.com/login",
		"https://admin.example.com/panel",
	)
	labels, overrides, _ := rt.route(finding, def)

	if len(labels) != 2 || labels[0] != "api" || labels[1] != "admin" {
		t.Errorf("expected labels accumulated in order, got %v", labels)
	}
	if len(overrides) != 2 {
		t.Fatalf("expected two override sets, got %d", len(overrides))
	}
	// Merged later-wins: the admin endpoint's assignee prevails.
	merged := map[string]any{}
	for _, override := range overrides {
		for key, value := range override {
			merged[key] = value
		}
	}
	if merged["Assignee"] != "admin_owner" {
		t.Errorf("expected later override to win, got %v", merged["Assignee"])
	}
	if merged["Security Level"] != "Internal" {
		t.Errorf("expected both override sets applied, got %v", merged)
	}
}

func TestRouteLastMatchingTargetWins(t *testing.T) {
	rt := newTestRouter(t, &model.JiraConfig{})
	def := &target{name: "default"}
	first := &target{name: "first"}
	second := &target{name: "second"}
	rt.addTarget(mustCompileMatch(t, `https://.*`), first)
	rt.addTarget(mustCompileMatch(t, `https://staging\..*`), second)

	_, _, tgt := rt.route(routerTestFinding("https://staging.example.com"), def)
	if tgt != second {
		t.Errorf("expected the last matching target, got %s", tgt.name)
	}
}

func TestRouterSkipsInvalidPatterns(t *testing.T) {
	cfg := &model.JiraConfig{
		DynamicLabels: map[string]string{
			`[invalid`:  "broken",
			`https://.*`: "ok",
		},
	}
	rt := newTestRouter(t, cfg)
	if len(rt.labels) != 1 {
		t.Fatalf("expected the invalid pattern to be skipped, got %d rules", len(rt.labels))
	}

	labels, _, _ := rt.route(routerTestFinding("https://x"), &target{})
	if len(labels) != 1 || labels[0] != "ok" {
		t.Errorf("expected only the valid rule to apply, got %v", labels)
	}
}

func mustCompileMatch(t *testing.T, pattern string) *regexp.Regexp {
	t.Helper()
	re, err := compileMatch(pattern)
	if err != nil {
		t.Fatalf("compiling %q: %v", pattern, err)
	}
	return re
}
