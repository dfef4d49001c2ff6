package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fid098/ICHack-26-Security-Game/internal/game"
	"github.com/fid098/ICHack-26-Security-Game/internal/observability"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/anthropic"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/apierr"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/logger"
)

const taskSystemPrompt = "You generate short code snippets for a security training game. " +
	"Return strict JSON with a top-level 'tasks' array. " +
	"Each task: code (max 10 lines), isVulnerable (boolean), " +
	"vulnerabilityType (one of XSS, SQL_INJECTION, SSRF, RCE, PATH_TRAVERSAL, " +
	"COMMAND_INJECTION, INSECURE_DESERIALIZATION, SAFE), " +
	"systemName (one of O2, NAVIGATION, SHIELDS, REACTOR, COMMUNICATIONS, " +
	"ELECTRICAL, MEDBAY, SECURITY, WEAPONS, ADMIN), vulnerabilityLine (number), " +
	"and hints (array of exactly 2 short hints). " +
	"No markdown, only JSON."

const mentorSystemPrompt = "You are the Security Mentor. Provide a 3-sentence post-mortem summary focused " +
	"only on the code vulnerabilities. Do NOT mention tools, scanners, logs, or " +
	"any operational failures. Sentence 1: what went wrong (vulns only). " +
	"Sentence 2: how an attacker could exploit. Sentence 3: the most direct fix. " +
	"Be concise and technical."

// GenerationService produces task batches and mentor narratives through
// the text-generation collaborator.
type GenerationService interface {
	// GenerateTasks runs the normalize/validate/build pipeline on one
	// generator call. Difficulty is the prompt form (EASY/MEDIUM/HARD).
	GenerateTasks(ctx context.Context, language, difficulty, complexityLevel string, count int, vulnDensity float64) ([]game.GeneratedTask, error)

	// MentorSummary produces the post-mortem narrative. A run with
	// nothing missed short-circuits without a collaborator call.
	MentorSummary(ctx context.Context, scanLogs []string, failedTaskSummaries []string) (string, error)
}

type generationService struct {
	log     *logger.Logger
	llm     anthropic.Client
	metrics *observability.Metrics
}

// NewGenerationService accepts a nil client; calls then fail with a 503
// so a missing credential degrades the service instead of the process.
func NewGenerationService(log *logger.Logger, llm anthropic.Client, metrics *observability.Metrics) GenerationService {
	return &generationService{log: log.With("service", "GenerationService"), llm: llm, metrics: metrics}
}

func (s *generationService) GenerateTasks(ctx context.Context, language, difficulty, complexityLevel string, count int, vulnDensity float64) ([]game.GeneratedTask, error) {
	if s.llm == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "generator_unconfigured", fmt.Errorf("ANTHROPIC_API_KEY is not configured"))
	}

	target := game.VulnerableTarget(count, vulnDensity)
	userPrompt := fmt.Sprintf(
		"Generate %d %s snippets for difficulty %s with %s complexity. Ensure exactly %d snippets are vulnerable.",
		count, language, difficulty, complexityLevel, target,
	)

	start := time.Now()
	raw, err := s.llm.GenerateText(ctx, taskSystemPrompt, userPrompt, 1400)
	s.metrics.ObserveLLM(time.Since(start), err)
	if err != nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "generator_unavailable", err)
	}

	batch, err := game.NormalizeBatch(raw)
	if err != nil {
		s.log.Warn("Generator payload rejected", "error", err)
		return nil, err
	}
	if err := game.ValidateBatch(batch, count, vulnDensity); err != nil {
		s.log.Warn("Generator batch rejected", "error", err)
		return nil, err
	}

	tasks := game.BuildTasks(batch, language)
	s.log.Info("Task batch generated",
		"count", len(tasks),
		"vulnerable_target", target,
		"language", language,
		"difficulty", difficulty,
	)
	return tasks, nil
}

func (s *generationService) MentorSummary(ctx context.Context, scanLogs []string, failedTaskSummaries []string) (string, error) {
	if len(failedTaskSummaries) == 0 {
		return game.NoMissedSummary, nil
	}
	if s.llm == nil {
		return "", apierr.New(http.StatusServiceUnavailable, "generator_unconfigured", fmt.Errorf("ANTHROPIC_API_KEY is not configured"))
	}

	// The mentor voice must never surface scanner internals.
	filtered := make([]string, 0, len(scanLogs))
	for _, log := range scanLogs {
		if strings.Contains(strings.ToLower(log), "hacktron") {
			continue
		}
		filtered = append(filtered, log)
	}

	userPrompt, err := json.Marshal(map[string]any{
		"failed_tasks":  failedTaskSummaries,
		"hacktron_logs": filtered,
	})
	if err != nil {
		return "", err
	}

	start := time.Now()
	text, err := s.llm.GenerateText(ctx, mentorSystemPrompt, string(userPrompt), 220)
	s.metrics.ObserveLLM(time.Since(start), err)
	if err != nil {
		return "", apierr.New(http.StatusServiceUnavailable, "generator_unavailable", err)
	}

	return game.SanitizeMentorText(text), nil
}
