// Package summary renders the post-run terminal report: tickets touched,
// the priority mapping that was applied, and accumulated errors.
package summary

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dkazakov/scan-reporting/internal/model"
	"github.com/dkazakov/scan-reporting/internal/reporter"
	"github.com/dkazakov/scan-reporting/internal/theme"
)

// Render builds the terminal summary of one reporting run.
func Render(run model.ReportRun, result *reporter.Result) string {
	var b strings.Builder

	title := "Security scan reporting"
	if run.TestingType != "" {
		title += " — " + run.TestingType
	}
	b.WriteString(theme.HeaderStyle.Render(title))
	b.WriteString("\n\n")

	if len(result.NewTickets) > 0 {
		b.WriteString(theme.SectionStyle.Render(
			fmt.Sprintf("New tickets (%d)", len(result.NewTickets))))
		b.WriteString("\n")
		writeTickets(&b, result.NewTickets, theme.NewBadgeStyle.Render("+"))
	}

	if len(result.ExistingTickets) > 0 {
		b.WriteString(theme.SectionStyle.Render(
			fmt.Sprintf("Existing tickets (%d)", len(result.ExistingTickets))))
		b.WriteString("\n")
		writeTickets(&b, result.ExistingTickets, theme.ExistingBadgeStyle.Render("="))
	}

	if result.Submitted > 0 {
		b.WriteString(fmt.Sprintf("%d findings submitted to the engagement portal\n\n",
			result.Submitted))
	}

	if len(result.PriorityMapping) > 0 {
		b.WriteString(theme.SectionStyle.Render("Applied priority mapping"))
		b.WriteString("\n")
		for _, key := range mappingKeys(result.PriorityMapping) {
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				theme.SeverityStyle(key).Render(key),
				theme.DimmedStyle.Render("->"),
				theme.PriorityStyle(result.PriorityMapping[key]).Render(result.PriorityMapping[key]),
			))
		}
		b.WriteString("\n")
	}

	if len(result.Errors) > 0 {
		b.WriteString(theme.ErrorStyle.Render(
			fmt.Sprintf("Errors (%d)", len(result.Errors))))
		b.WriteString("\n")
		for _, e := range result.Errors {
			b.WriteString(fmt.Sprintf("  %s: %s\n",
				theme.ErrorStyle.Render(e.Tool), e.Message))
			if e.Details != "" {
				b.WriteString("    " + theme.DimmedStyle.Render(e.Details) + "\n")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(theme.DimmedStyle.Render(footer(run, result)))
	b.WriteString("\n")
	return b.String()
}

// RenderHistory builds the terminal listing of recent runs, most recent
// first.
func RenderHistory(runs []model.ReportRun) string {
	if len(runs) == 0 {
		return theme.DimmedStyle.Render("No recorded runs.") + "\n"
	}

	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render("Reporting history"))
	b.WriteString("\n\n")
	for _, run := range runs {
		testingType := run.TestingType
		if testingType == "" {
			testingType = "-"
		}
		b.WriteString(fmt.Sprintf("  %s  %-4s  %s  new=%d existing=%d errors=%d\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			testingType,
			theme.DimmedStyle.Render(shortID(run.ID)),
			run.NewCount, run.ExistingCount, run.ErrorCount,
		))
	}
	return b.String()
}

func writeTickets(b *strings.Builder, tickets []model.TicketRecord, badge string) {
	for _, t := range tickets {
		b.WriteString(fmt.Sprintf("  %s %s  %s  %s  %s\n",
			badge,
			theme.KeyStyle.Render(t.ID),
			theme.PriorityStyle(t.Priority).Render(t.Priority),
			theme.SeverityStyle(string(t.Severity)).Render(string(t.Severity)),
			t.Summary,
		))
		if t.URL != "" {
			b.WriteString("      " + theme.DimmedStyle.Render(t.URL) + "\n")
		}
	}
	b.WriteString("\n")
}

// mappingKeys orders mapping keys by severity rank so the most severe
// entries print first; non-severity keys follow alphabetically.
func mappingKeys(mapping map[string]string) []string {
	keys := make([]string, 0, len(mapping))
	for key := range mapping {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri := model.Severity(keys[i]).Rank()
		rj := model.Severity(keys[j]).Rank()
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func footer(run model.ReportRun, result *reporter.Result) string {
	duration := run.FinishedAt.Sub(run.StartedAt).Round(time.Second)
	return fmt.Sprintf("%d findings, %d new, %d existing, %d errors in %s",
		run.FindingCount,
		len(result.NewTickets), len(result.ExistingTickets), len(result.Errors),
		duration,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
