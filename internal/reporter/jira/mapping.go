package jira

import (
	"github.com/dkazakov/scan-reporting/internal/model"
)

// defaultSeverityPriority is the fixed severity-to-priority table.
var defaultSeverityPriority = map[model.Severity]string{
	model.SeverityCritical: "Blocker",
	model.SeverityHigh:     "Critical",
	model.SeverityMedium:   "Major",
	model.SeverityLow:      "Minor",
	model.SeverityInfo:     "Trivial",
}

// priorityAlternatives lists priority names tried in order when a server
// does not define the priority the default table asks for.
var priorityAlternatives = map[string][]string{
	"Blocker":  {"Highest", "Critical", "High"},
	"Critical": {"Highest", "High"},
	"Major":    {"Medium"},
	"Minor":    {"Low", "Lowest"},
	"Trivial":  {"Low", "Lowest"},
}

// basePriority returns the default table's priority for a severity.
// An unknown severity falls back to the least severe entry.
func basePriority(severity model.Severity) string {
	if priority, ok := defaultSeverityPriority[severity]; ok {
		return priority
	}
	return defaultSeverityPriority[model.LeastSevere()]
}

// priorityFor resolves the ticket priority for a severity: the default
// table's value, remapped through the target's priority mapping when an
// entry for it exists.
func priorityFor(severity model.Severity, mapping map[string]string) string {
	priority := basePriority(severity)
	if mapped, ok := mapping[priority]; ok {
		priority = mapped
	}
	return priority
}

// derivePriorityMapping builds a priority mapping against the priorities
// a server actually defines. Each default priority maps to itself when the
// server has it, to the first defined alternative otherwise, and to the
// server's first priority as a last resort.
func derivePriorityMapping(serverPriorities []string) map[string]string {
	available := make(map[string]bool, len(serverPriorities))
	for _, name := range serverPriorities {
		available[name] = true
	}

	mapping := make(map[string]string, len(defaultSeverityPriority))
	for _, want := range defaultSeverityPriority {
		if available[want] {
			mapping[want] = want
			continue
		}
		realized := ""
		for _, alt := range priorityAlternatives[want] {
			if available[alt] {
				realized = alt
				break
			}
		}
		if realized == "" && len(serverPriorities) > 0 {
			realized = serverPriorities[0]
		}
		if realized == "" {
			realized = want
		}
		mapping[want] = realized
	}
	return mapping
}
