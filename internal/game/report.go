package game

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityLow      = "LOW"
)

type vulnMetadata struct {
	Severity    string
	Description string
	Remediation string
}

// vulnerabilityMetadata is the canonical lookup for report severity and
// remediation text, keyed by the generator wire enum.
var vulnerabilityMetadata = map[string]vulnMetadata{
	VulnTypeXSS: {
		Severity:    SeverityHigh,
		Description: "User input is rendered without proper escaping.",
		Remediation: "Use proper output encoding. Prefer textContent over innerHTML.",
	},
	VulnTypeSQLInjection: {
		Severity:    SeverityCritical,
		Description: "User input is concatenated directly into SQL.",
		Remediation: "Use parameterized queries or prepared statements.",
	},
	VulnTypeRCE: {
		Severity:    SeverityCritical,
		Description: "User input reaches command execution without validation.",
		Remediation: "Avoid shell execution with user input. Use allowlists and safe APIs.",
	},
	VulnTypeSSRF: {
		Severity:    SeverityHigh,
		Description: "User input drives outbound requests without allowlisting.",
		Remediation: "Validate URLs and use an allowlist of trusted domains.",
	},
	VulnTypePathTraversal: {
		Severity:    SeverityHigh,
		Description: "User input builds file paths without sanitization.",
		Remediation: "Sanitize file paths and restrict to allowed directories.",
	},
	VulnTypeCommandInjection: {
		Severity:    SeverityCritical,
		Description: "User input is concatenated into shell commands.",
		Remediation: "Avoid shell execution. Use parameterized command APIs.",
	},
	VulnTypeDeserialization: {
		Severity:    SeverityHigh,
		Description: "Untrusted data is deserialized without validation.",
		Remediation: "Avoid deserializing untrusted data; use safe formats like JSON.",
	},
	VulnTypeSafe: {
		Severity:    SeverityLow,
		Description: "Code follows secure patterns.",
		Remediation: "No remediation needed.",
	},
}

// BuildFindings maps each vulnerable task to a severity-tagged finding.
// Safe tasks contribute nothing.
func BuildFindings(tasks []GeneratedTask) []Finding {
	findings := []Finding{}
	for _, task := range tasks {
		if !task.IsVulnerable {
			continue
		}

		metadata, ok := vulnerabilityMetadata[task.VulnerabilityType]
		if !ok {
			metadata = vulnerabilityMetadata[VulnTypeSafe]
		}

		line := 1
		if task.VulnerabilityLine != nil {
			line = *task.VulnerabilityLine
		}

		findings = append(findings, Finding{
			TaskID:        task.ID,
			SystemName:    task.SystemName,
			Vulnerability: task.VulnerabilityType,
			Severity:      metadata.Severity,
			Description:   metadata.Description,
			CodeLocation:  CodeLocation{Line: line, Column: 1},
			Remediation:   metadata.Remediation,
			CodeSnippet:   task.Code,
		})
	}
	return findings
}

// SummarizeFindings is the deterministic narrative used when the mentor
// generator is unavailable on the audit path.
func SummarizeFindings(findings []Finding) string {
	if len(findings) == 0 {
		return "Security scan complete. No vulnerabilities detected."
	}

	total := len(findings)
	critical := 0
	high := 0
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			critical++
		case SeverityHigh:
			high++
		}
	}

	parts := []string{fmt.Sprintf("Security scan detected %d %s.", total, pluralize("vulnerability", "vulnerabilities", total))}
	if critical > 0 {
		parts = append(parts, fmt.Sprintf("%d CRITICAL %s require immediate attention.", critical, pluralize("issue", "issues", critical)))
	}
	if high > 0 {
		parts = append(parts, fmt.Sprintf("%d HIGH severity %s should be addressed promptly.", high, pluralize("issue", "issues", high)))
	}
	parts = append(parts, "Review the findings for remediation guidance.")

	return strings.Join(parts, " ")
}

// FallbackMentorSummary is the fixed narrative for the finish path when
// the mentor generator fails.
func FallbackMentorSummary(missedTaskIDs []string) string {
	if len(missedTaskIDs) == 0 {
		return "Clean sweep. No missed vulnerabilities detected in this run."
	}
	return "You missed at least one vulnerable system. Review input handling, " +
		"use parameterized queries, and validate outbound requests."
}

// NoMissedSummary is returned without calling the generator when the
// player missed nothing.
const NoMissedSummary = "No vulnerabilities were missed in this run. Systems remained secure and no exploitable patterns were detected."

var (
	mentorStripPattern    = regexp.MustCompile(`[^A-Za-z0-9\s.,-]+`)
	mentorCollapsePattern = regexp.MustCompile(`\s+`)
)

// SanitizeMentorText strips markdown and other decoration from generated
// narrative, keeping letters, digits, whitespace, periods, commas, and
// hyphens, then collapses runs of whitespace.
func SanitizeMentorText(text string) string {
	clean := mentorStripPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(mentorCollapsePattern.ReplaceAllString(clean, " "))
}

func pluralize(singular, plural string, n int) string {
	if n == 1 {
		return singular
	}
	return plural
}
