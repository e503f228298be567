package jira

import (
	"regexp"
	"sort"

	"github.com/rs/zerolog"

	"github.com/dkazakov/scan-reporting/internal/model"
)

// labelRule adds a label to findings whose endpoint matches the pattern.
type labelRule struct {
	pattern *regexp.Regexp
	label   string
}

// fieldRule overrides ticket fields for findings whose endpoint matches.
type fieldRule struct {
	pattern *regexp.Regexp
	fields  map[string]any
}

// targetRule redirects findings whose endpoint matches to another tracker
// target.
type targetRule struct {
	pattern *regexp.Regexp
	target  *target
}

// router matches finding endpoints against the configured dynamic rules.
// Rules are compiled in sorted pattern order so that runs are
// deterministic; a pattern that fails to compile is logged and skipped.
type router struct {
	labels  []labelRule
	fields  []fieldRule
	targets []targetRule
}

// compileMatch compiles a route pattern anchored at the start of the
// subject, matching how endpoint patterns have historically been applied.
func compileMatch(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + pattern + ")")
}

func sortedPatterns[V any](rules map[string]V) []string {
	keys := make([]string, 0, len(rules))
	for key := range rules {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// newRouter compiles the dynamic label and field rules of a Jira
// configuration. Target rules are attached separately once the targets
// themselves are built.
func newRouter(cfg *model.JiraConfig, log zerolog.Logger) *router {
	r := &router{}
	for _, pattern := range sortedPatterns(cfg.DynamicLabels) {
		re, err := compileMatch(pattern)
		if err != nil {
			log.Warn().Err(err).Str("pattern", pattern).
				Msg("skipping dynamic label rule")
			continue
		}
		r.labels = append(r.labels, labelRule{re, cfg.DynamicLabels[pattern]})
	}
	for _, pattern := range sortedPatterns(cfg.DynamicFields) {
		re, err := compileMatch(pattern)
		if err != nil {
			log.Warn().Err(err).Str("pattern", pattern).
				Msg("skipping dynamic field rule")
			continue
		}
		r.fields = append(r.fields, fieldRule{re, cfg.DynamicFields[pattern]})
	}
	return r
}

// addTarget registers a pattern-selected tracker target.
func (r *router) addTarget(re *regexp.Regexp, t *target) {
	r.targets = append(r.targets, targetRule{re, t})
}

// route matches every endpoint of a finding against every rule and
// returns the accumulated labels, the field override maps in match order,
// and the selected target. With no matching target rule (or no endpoints
// at all) the default target is returned. When several target rules
// match, the last one in pattern order wins.
func (r *router) route(
	finding model.Finding,
	defaultTarget *target,
) ([]string, []map[string]any, *target) {
	var labels []string
	var overrides []map[string]any
	selected := defaultTarget

	for _, endpoint := range finding.Endpoints() {
		for _, rule := range r.labels {
			if rule.pattern.MatchString(endpoint.Raw) {
				labels = append(labels, rule.label)
			}
		}
		for _, rule := range r.fields {
			if rule.pattern.MatchString(endpoint.Raw) {
				overrides = append(overrides, rule.fields)
			}
		}
		for _, rule := range r.targets {
			if rule.pattern.MatchString(endpoint.Raw) {
				selected = rule.target
			}
		}
	}
	return labels, overrides, selected
}
