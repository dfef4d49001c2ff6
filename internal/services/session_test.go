package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/fid098/ICHack-26-Security-Game/internal/game"
	"github.com/fid098/ICHack-26-Security-Game/internal/observability"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/hacktron"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/logger"
)

type stubGenerator struct {
	mu            sync.Mutex
	generateErr   error
	summaryErr    error
	summary       string
	summaryCalls  int
	generateCalls int
}

func (s *stubGenerator) GenerateTasks(ctx context.Context, language, difficulty, complexity string, count int, density float64) ([]game.GeneratedTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generateCalls++
	if s.generateErr != nil {
		return nil, s.generateErr
	}
	target := game.VulnerableTarget(count, density)
	tasks := make([]game.GeneratedTask, 0, count)
	for i := 0; i < count; i++ {
		vulnerable := i < target
		vulnType := game.VulnTypeSafe
		if vulnerable {
			vulnType = game.VulnTypeSQLInjection
		}
		tasks = append(tasks, game.GeneratedTask{
			ID:                fmt.Sprintf("task-%d", i),
			SystemName:        game.SystemNames[i%len(game.SystemNames)],
			Code:              fmt.Sprintf("code %d", i),
			Language:          language,
			IsVulnerable:      vulnerable,
			VulnerabilityType: vulnType,
			Hints:             []string{},
			Status:            "pending",
		})
	}
	return tasks, nil
}

func (s *stubGenerator) MentorSummary(ctx context.Context, logs []string, failed []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaryCalls++
	if len(failed) == 0 {
		return game.NoMissedSummary, nil
	}
	if s.summaryErr != nil {
		return "", s.summaryErr
	}
	if s.summary != "" {
		return s.summary, nil
	}
	return "mentor summary", nil
}

type stubScanner struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (s *stubScanner) Scan(ctx context.Context, targets []hacktron.Target, language string) ([]hacktron.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	results := make([]hacktron.Result, 0, len(targets))
	for _, target := range targets {
		results = append(results, hacktron.Result{TaskID: target.ID, RawLog: "scan of " + target.ID})
	}
	return results, nil
}

func newTestStore(t *testing.T, generator GenerationService, scanner hacktron.Scanner) *SessionStore {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewSessionStore(log, generator, scanner, observability.NewMetrics())
}

func TestCreate_PopulatesSession(t *testing.T) {
	store := newTestStore(t, &stubGenerator{}, &stubScanner{})

	info, err := store.Create(context.Background(), game.DifficultyMedium, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.SessionID == "" {
		t.Fatalf("expected session id")
	}
	if info.Config.VulnDensity != 0.5 {
		t.Fatalf("unexpected config: %+v", info.Config)
	}

	tasks, err := store.PublicTasks(info.SessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 4 {
		t.Fatalf("expected 4 public tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.ID == "" || task.Code == "" {
			t.Fatalf("incomplete public task: %+v", task)
		}
	}
}

func TestCreate_PipelineFailureStoresNothing(t *testing.T) {
	generator := &stubGenerator{generateErr: errors.New("upstream down")}
	store := newTestStore(t, generator, &stubScanner{})

	if _, err := store.Create(context.Background(), game.DifficultyEasy, 3); err == nil {
		t.Fatalf("expected error")
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	if len(store.sessions) != 0 {
		t.Fatalf("failed creation must not store a session")
	}
}

func TestPublicTasks_UnknownSession(t *testing.T) {
	store := newTestStore(t, &stubGenerator{}, &stubScanner{})
	_, err := store.PublicTasks("nope")
	if !errors.Is(err, game.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSubmitAnswers_DuplicateInBatchRejectedAtomically(t *testing.T) {
	store := newTestStore(t, &stubGenerator{}, &stubScanner{})
	info, err := store.Create(context.Background(), game.DifficultyEasy, 3)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = store.SubmitAnswers(info.SessionID, []game.Answer{
		{TaskID: "task-0", UserChoice: game.ChoiceSabotaged},
		{TaskID: "task-0", UserChoice: game.ChoiceClean},
	})
	var dup *game.DuplicateAnswerError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateAnswerError, got %v", err)
	}

	// The valid first answer must not have been merged.
	entry, entryErr := store.entry(info.SessionID)
	if entryErr != nil {
		t.Fatalf("entry: %v", entryErr)
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if len(entry.session.Answers) != 0 {
		t.Fatalf("rejected batch must not merge answers, got %d", len(entry.session.Answers))
	}
}

func TestSubmitAnswers_UnknownTaskRejected(t *testing.T) {
	store := newTestStore(t, &stubGenerator{}, &stubScanner{})
	info, err := store.Create(context.Background(), game.DifficultyEasy, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = store.SubmitAnswers(info.SessionID, []game.Answer{
		{TaskID: "ghost", UserChoice: game.ChoiceClean},
	})
	var unknown *game.UnknownTaskError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownTaskError, got %v", err)
	}
}

func TestSubmitAnswers_ResubmitAcrossCallsOverwrites(t *testing.T) {
	store := newTestStore(t, &stubGenerator{}, &stubScanner{})
	info, err := store.Create(context.Background(), game.DifficultyEasy, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// task-0 is vulnerable in the stub batch.
	if _, err := store.SubmitAnswers(info.SessionID, []game.Answer{{TaskID: "task-0", UserChoice: game.ChoiceClean}}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	tally, err := store.SubmitAnswers(info.SessionID, []game.Answer{{TaskID: "task-0", UserChoice: game.ChoiceSabotaged}})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if tally.Correct != 1 {
		t.Fatalf("overwritten answer should now be correct, got %+v", tally)
	}
}

func TestFinish_IsIdempotent(t *testing.T) {
	generator := &stubGenerator{summary: "first narrative"}
	scanner := &stubScanner{}
	store := newTestStore(t, generator, scanner)
	info, err := store.Create(context.Background(), game.DifficultyEasy, 3)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := store.Finish(context.Background(), info.SessionID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	generator.summary = "second narrative"

	second, err := store.Finish(context.Background(), info.SessionID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	if first.MentorReport.Summary != second.MentorReport.Summary {
		t.Fatalf("mentor report recomputed: %q vs %q", first.MentorReport.Summary, second.MentorReport.Summary)
	}
	if len(first.AuditLogs) != len(second.AuditLogs) {
		t.Fatalf("audit logs recomputed")
	}
	if scanner.calls != 1 {
		t.Fatalf("expected exactly one scan, got %d", scanner.calls)
	}
}

func TestFinish_ScannerFailureDegradesToPlaceholders(t *testing.T) {
	scanner := &stubScanner{err: errors.New("cli exploded")}
	store := newTestStore(t, &stubGenerator{}, scanner)
	info, err := store.Create(context.Background(), game.DifficultyEasy, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := store.Finish(context.Background(), info.SessionID)
	if err != nil {
		t.Fatalf("finish must not fail on scanner errors: %v", err)
	}
	if len(result.AuditLogs) != 2 {
		t.Fatalf("expected a placeholder per missed task, got %d", len(result.AuditLogs))
	}
	for _, auditLog := range result.AuditLogs {
		if !strings.HasPrefix(auditLog.RawLog, "Audit failed:") {
			t.Fatalf("expected placeholder log, got %q", auditLog.RawLog)
		}
	}
}

func TestFinish_MentorFailureFallsBack(t *testing.T) {
	generator := &stubGenerator{summaryErr: errors.New("no credits")}
	store := newTestStore(t, generator, &stubScanner{})
	info, err := store.Create(context.Background(), game.DifficultyEasy, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := store.Finish(context.Background(), info.SessionID)
	if err != nil {
		t.Fatalf("finish must not fail on mentor errors: %v", err)
	}
	if !strings.Contains(result.MentorReport.Summary, "missed at least one vulnerable system") {
		t.Fatalf("expected fallback narrative, got %q", result.MentorReport.Summary)
	}
}

func TestFinish_CleanRunSkipsScanner(t *testing.T) {
	generator := &stubGenerator{}
	scanner := &stubScanner{}
	store := newTestStore(t, generator, scanner)
	info, err := store.Create(context.Background(), game.DifficultyEasy, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Answer everything correctly: task-0 vulnerable, task-1 clean.
	if _, err := store.SubmitAnswers(info.SessionID, []game.Answer{
		{TaskID: "task-0", UserChoice: game.ChoiceSabotaged},
		{TaskID: "task-1", UserChoice: game.ChoiceClean},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := store.Finish(context.Background(), info.SessionID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if len(result.AuditLogs) != 0 {
		t.Fatalf("clean run must produce no audit logs")
	}
	if result.MentorReport.Summary != game.NoMissedSummary {
		t.Fatalf("expected no-missed narrative, got %q", result.MentorReport.Summary)
	}
	if scanner.calls != 0 {
		t.Fatalf("clean run must not invoke the scanner")
	}
}

func TestResults_ScoreDriftsReportStaysCached(t *testing.T) {
	store := newTestStore(t, &stubGenerator{summary: "frozen narrative"}, &stubScanner{})
	info, err := store.Create(context.Background(), game.DifficultyEasy, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	finished, err := store.Finish(context.Background(), info.SessionID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if finished.Score != 0 {
		t.Fatalf("expected score 0 before answers, got %d", finished.Score)
	}

	if _, err := store.SubmitAnswers(info.SessionID, []game.Answer{
		{TaskID: "task-0", UserChoice: game.ChoiceSabotaged},
		{TaskID: "task-1", UserChoice: game.ChoiceClean},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	results, err := store.Results(context.Background(), info.SessionID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if results.Score != 2 {
		t.Fatalf("score must be recomputed from current answers, got %d", results.Score)
	}
	if results.MentorReport.Summary != finished.MentorReport.Summary {
		t.Fatalf("cached report must be returned unchanged")
	}
	if len(results.AuditLogs) != len(finished.AuditLogs) {
		t.Fatalf("cached audit logs must be returned unchanged")
	}
}

func TestResults_FinalizesLazily(t *testing.T) {
	generator := &stubGenerator{}
	store := newTestStore(t, generator, &stubScanner{})
	info, err := store.Create(context.Background(), game.DifficultyEasy, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := store.Results(context.Background(), info.SessionID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if result.MentorReport == nil {
		t.Fatalf("results on a fresh session must finalize it")
	}
}
