package game

import (
	"math"
	"strings"
	"time"
)

// Difficulty selects a generation config.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DifficultyConfig drives the generator prompt for one difficulty.
type DifficultyConfig struct {
	VulnDensity   float64 `json:"vuln_density"`
	ComplexityTag string  `json:"complexity_tag"`
}

var DifficultyConfigs = map[Difficulty]DifficultyConfig{
	DifficultyEasy:   {VulnDensity: 0.3, ComplexityTag: "low"},
	DifficultyMedium: {VulnDensity: 0.5, ComplexityTag: "medium"},
	DifficultyHard:   {VulnDensity: 0.7, ComplexityTag: "high"},
}

// ParseDifficulty accepts any casing and reports whether the value is known.
func ParseDifficulty(raw string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := DifficultyConfigs[d]
	return d, ok
}

// ComplexityLevel maps a config tag to the generator's prompt vocabulary.
func ComplexityLevel(tag string) string {
	switch tag {
	case "low":
		return "basic"
	case "medium":
		return "intermediate"
	case "high":
		return "advanced"
	default:
		return "basic"
	}
}

// VulnerableTarget is the exact number of sabotaged snippets a batch must
// contain: max(1, round(count * density)), rounding half to even so ties
// like 5*0.5 land on 2, not 3.
func VulnerableTarget(count int, density float64) int {
	target := int(math.RoundToEven(float64(count) * density))
	if target < 1 {
		target = 1
	}
	return target
}

const DefaultLanguage = "javascript"

var languages = map[string]bool{
	"javascript": true,
	"python":     true,
	"java":       true,
	"go":         true,
	"php":        true,
}

func ValidLanguage(lang string) bool {
	return languages[strings.ToLower(strings.TrimSpace(lang))]
}

// SystemNames is the round-robin pool for tasks the generator left
// unlabeled. Order is fixed; the factory cycles through it.
var SystemNames = []string{
	"O2",
	"NAVIGATION",
	"SHIELDS",
	"REACTOR",
	"COMMUNICATIONS",
	"ELECTRICAL",
	"MEDBAY",
	"SECURITY",
	"WEAPONS",
	"ADMIN",
}

var systemNameSet = func() map[string]bool {
	set := make(map[string]bool, len(SystemNames))
	for _, name := range SystemNames {
		set[name] = true
	}
	return set
}()

// Generator wire vulnerability classes. VulnTypeSafe is the sentinel for
// clean snippets; VulnTypeXSS doubles as the default class when the
// generator marks a snippet vulnerable without classifying it.
const (
	VulnTypeXSS              = "XSS"
	VulnTypeSQLInjection     = "SQL_INJECTION"
	VulnTypeSSRF             = "SSRF"
	VulnTypeRCE              = "RCE"
	VulnTypePathTraversal    = "PATH_TRAVERSAL"
	VulnTypeCommandInjection = "COMMAND_INJECTION"
	VulnTypeDeserialization  = "INSECURE_DESERIALIZATION"
	VulnTypeSafe             = "SAFE"
)

var vulnTypeSet = map[string]bool{
	VulnTypeXSS:              true,
	VulnTypeSQLInjection:     true,
	VulnTypeSSRF:             true,
	VulnTypeRCE:              true,
	VulnTypePathTraversal:    true,
	VulnTypeCommandInjection: true,
	VulnTypeDeserialization:  true,
	VulnTypeSafe:             true,
}

// ReportVulnType maps the generator enum to the form stored on session
// tasks and shown in reports. Unknown values collapse to "none".
func ReportVulnType(wire string) string {
	switch wire {
	case VulnTypeXSS:
		return "xss"
	case VulnTypeSQLInjection:
		return "sqli"
	case VulnTypeSSRF:
		return "ssrf"
	case VulnTypeRCE:
		return "rce"
	case VulnTypePathTraversal:
		return "path_traversal"
	case VulnTypeCommandInjection:
		return "command_injection"
	case VulnTypeDeserialization:
		return "insecure_deserialization"
	default:
		return "none"
	}
}

// GeneratedTask is a task in generator wire form: what /generate returns
// and what the audit endpoint accepts.
type GeneratedTask struct {
	ID                string   `json:"id"`
	SystemName        string   `json:"systemName"`
	Code              string   `json:"code"`
	Language          string   `json:"language"`
	IsVulnerable      bool     `json:"isVulnerable"`
	VulnerabilityType string   `json:"vulnerabilityType"`
	VulnerabilityLine *int     `json:"vulnerabilityLine,omitempty"`
	Hints             []string `json:"hints"`
	Status            string   `json:"status"`
}

// Task is a session-owned task. Immutable after creation.
type Task struct {
	ID                string     `json:"id"`
	SystemName        string     `json:"system_name"`
	Code              string     `json:"code"`
	IsVulnerable      bool       `json:"is_vulnerable"`
	VulnerabilityType string     `json:"vulnerability_type"`
	Difficulty        Difficulty `json:"difficulty"`
	Language          string     `json:"language"`
	VulnerabilityLine *int       `json:"vulnerability_line,omitempty"`
	Hints             []string   `json:"hints"`
	Status            string     `json:"status"`
}

// PublicTask is the redacted view handed to the player: no vulnerability
// fields, ever.
type PublicTask struct {
	ID         string     `json:"id"`
	SystemName string     `json:"system_name"`
	Code       string     `json:"code"`
	Difficulty Difficulty `json:"difficulty"`
	Language   string     `json:"language"`
	Hints      []string   `json:"hints"`
}

// Public redacts a task.
func (t Task) Public() PublicTask {
	return PublicTask{
		ID:         t.ID,
		SystemName: t.SystemName,
		Code:       t.Code,
		Difficulty: t.Difficulty,
		Language:   t.Language,
		Hints:      t.Hints,
	}
}

// FromGenerated converts a wire task into a session task.
func FromGenerated(gt GeneratedTask, difficulty Difficulty) Task {
	return Task{
		ID:                gt.ID,
		SystemName:        gt.SystemName,
		Code:              gt.Code,
		IsVulnerable:      gt.IsVulnerable,
		VulnerabilityType: ReportVulnType(gt.VulnerabilityType),
		Difficulty:        difficulty,
		Language:          gt.Language,
		VulnerabilityLine: gt.VulnerabilityLine,
		Hints:             gt.Hints,
		Status:            gt.Status,
	}
}

const (
	ChoiceSabotaged = "sabotaged"
	ChoiceClean     = "clean"
)

// Answer is one player submission for one task.
type Answer struct {
	TaskID     string `json:"task_id"`
	UserChoice string `json:"user_choice"`
}

// AuditLog is the raw static-analysis output for one missed task.
type AuditLog struct {
	TaskID string `json:"task_id"`
	RawLog string `json:"raw_log"`
}

// MentorReport is the narrative post-mortem.
type MentorReport struct {
	Summary string `json:"summary"`
}

// Session is one play-through. Answers grow monotonically; AuditLogs and
// MentorReport are set together exactly once at finalization.
type Session struct {
	SessionID    string             `json:"session_id"`
	Difficulty   Difficulty         `json:"difficulty"`
	CreatedAt    time.Time          `json:"created_at"`
	Tasks        []Task             `json:"tasks"`
	Answers      map[string]Answer  `json:"answers"`
	AuditLogs    []AuditLog         `json:"audit_logs"`
	MentorReport *MentorReport      `json:"mentor_report,omitempty"`
}

// CodeLocation points at the offending line of a finding.
type CodeLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Finding is one vulnerable task rendered for the audit report.
type Finding struct {
	TaskID        string       `json:"taskId"`
	SystemName    string       `json:"systemName"`
	Vulnerability string       `json:"vulnerability"`
	Severity      string       `json:"severity"`
	Description   string       `json:"description"`
	CodeLocation  CodeLocation `json:"codeLocation"`
	Remediation   string       `json:"remediation"`
	CodeSnippet   string       `json:"codeSnippet"`
}
