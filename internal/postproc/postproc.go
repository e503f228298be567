// Package postproc holds the glue around a reporting run: false-positive
// filtering before submission, the per-adapter fan-out, and small text
// helpers shared by scanner post-processing.
package postproc

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/dkazakov/scan-reporting/internal/model"
)

// FalsePositivePath is the well-known location of the accepted-finding
// hash list. One hash per line; blank lines are ignored.
const FalsePositivePath = "/tmp/scanreport/false_positive.config"

// ipPattern matches dotted-quad addresses followed by whitespace, the
// shape scanner output uses when listing resolved hosts.
var ipPattern = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\s`)

// FilterFalsePositives drops findings whose content hash appears in the
// accepted-finding list at FalsePositivePath.
func FilterFalsePositives(findings []model.Finding) ([]model.Finding, error) {
	return FilterFalsePositivesFrom(FalsePositivePath, findings)
}

// FilterFalsePositivesFrom reads the accepted-hash list at path and
// returns findings with the listed ones removed, preserving order. A
// missing or empty list leaves the batch untouched.
func FilterFalsePositivesFrom(path string, findings []model.Finding) ([]model.Finding, error) {
	accepted, err := readHashList(path)
	if err != nil {
		return nil, err
	}
	if len(accepted) == 0 {
		return findings, nil
	}

	kept := make([]model.Finding, 0, len(findings))
	for _, finding := range findings {
		if accepted[finding.HashCode()] {
			continue
		}
		kept = append(kept, finding)
	}
	return kept, nil
}

// readHashList loads the newline-delimited hash set at path. Absence of
// the file is not an error.
func readHashList(path string) (map[string]bool, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening false-positive list: %w", err)
	}
	defer file.Close()

	hashes := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			hashes[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading false-positive list: %w", err)
	}
	return hashes, nil
}

// FindIPs extracts the dotted-quad addresses mentioned in scanner output.
func FindIPs(text string) []string {
	matches := ipPattern.FindAllString(text, -1)
	ips := make([]string, 0, len(matches))
	for _, match := range matches {
		ips = append(ips, strings.TrimSpace(match))
	}
	return ips
}
