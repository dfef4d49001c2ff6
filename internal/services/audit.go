package services

import (
	"context"
	"fmt"

	"github.com/fid098/ICHack-26-Security-Game/internal/game"
	"github.com/fid098/ICHack-26-Security-Game/internal/observability"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/hacktron"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/logger"
)

// AuditReport is the standalone audit view: structured findings plus a
// narrative summary.
type AuditReport struct {
	Findings []game.Finding `json:"findings"`
	Summary  string         `json:"summary"`
}

// AuditService runs the static-analysis pass over an ad hoc task batch,
// outside any session.
type AuditService interface {
	Audit(ctx context.Context, tasks []game.GeneratedTask, language string) (*AuditReport, error)
}

type auditService struct {
	log       *logger.Logger
	scanner   hacktron.Scanner
	generator GenerationService
	metrics   *observability.Metrics
}

func NewAuditService(log *logger.Logger, scanner hacktron.Scanner, generator GenerationService, metrics *observability.Metrics) AuditService {
	return &auditService{
		log:       log.With("service", "AuditService"),
		scanner:   scanner,
		generator: generator,
		metrics:   metrics,
	}
}

// Audit degrades on both collaborators: a scanner failure becomes a single
// failure log line, a narrative failure falls back to the deterministic
// findings summary. It fails only on an empty batch.
func (s *auditService) Audit(ctx context.Context, tasks []game.GeneratedTask, language string) (*AuditReport, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no tasks provided for audit")
	}
	if language == "" {
		language = game.DefaultLanguage
	}

	targets := make([]hacktron.Target, 0, len(tasks))
	for _, task := range tasks {
		targets = append(targets, hacktron.Target{ID: task.ID, Code: task.Code})
	}

	var scanLogs []string
	results, err := s.scanner.Scan(ctx, targets, language)
	s.metrics.ObserveScan(err)
	if err != nil {
		s.log.Warn("Audit scan failed", "error", err)
		scanLogs = []string{fmt.Sprintf("Hacktron scan failed: %v", err)}
	} else {
		scanLogs = make([]string, 0, len(results))
		for _, result := range results {
			scanLogs = append(scanLogs, result.RawLog)
		}
	}

	findings := game.BuildFindings(tasks)

	summaries := []string{}
	for _, task := range tasks {
		if task.IsVulnerable {
			summaries = append(summaries, fmt.Sprintf("%s: %s", task.SystemName, task.VulnerabilityType))
		}
	}

	summary, err := s.generator.MentorSummary(ctx, scanLogs, summaries)
	if err != nil {
		s.log.Warn("Audit narrative failed, using findings summary", "error", err)
		summary = game.SummarizeFindings(findings)
	}

	return &AuditReport{Findings: findings, Summary: summary}, nil
}
