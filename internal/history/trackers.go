package history

import (
	"regexp"
	"strings"
)

var (
	reqRow   = regexp.MustCompile(`\|\s*\*\*REQ-\d+\*\*`)
	issueRow = regexp.MustCompile(`\|\s*\*\*(?:CR|HP|LP|DS|DX|DEF|SEC|TASK|TECH)-`)
)

var openReqStatuses = []string{"planned", "partial", "designed", "in progress"}
var closedIssueStatuses = []string{"fixed", "resolved", "done", "complete", "✅"}

// ParseRequirements counts the requirement rows of docs/REQUIREMENTS.md and
// how many are still open, judged by the status column.
func ParseRequirements(content string) (open, total int) {
	for _, line := range strings.Split(content, "\n") {
		if !reqRow.MatchString(line) {
			continue
		}
		total++
		parts := splitRow(line)
		if len(parts) > 3 && containsAny(strings.ToLower(parts[3]), openReqStatuses) {
			open++
		}
	}
	return open, total
}

// ParseIssues counts the issue rows of docs/ISSUES.md. An issue is closed
// when any of its status-ish columns carries a completion word.
func ParseIssues(content string) (open, total int) {
	for _, line := range strings.Split(content, "\n") {
		if !issueRow.MatchString(line) {
			continue
		}
		total++
		parts := splitRow(line)
		closed := false
		for i := 2; i < len(parts) && i < 6; i++ {
			if containsAny(strings.ToLower(parts[i]), closedIssueStatuses) {
				closed = true
				break
			}
		}
		if !closed {
			open++
		}
	}
	return open, total
}

func splitRow(line string) []string {
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
