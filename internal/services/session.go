package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fid098/ICHack-26-Security-Game/internal/game"
	"github.com/fid098/ICHack-26-Security-Game/internal/observability"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/hacktron"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/logger"
)

// SessionInfo is the session-creation view.
type SessionInfo struct {
	SessionID  string                `json:"session_id"`
	CreatedAt  time.Time             `json:"created_at"`
	Difficulty game.Difficulty       `json:"difficulty"`
	Config     game.DifficultyConfig `json:"config"`
}

// FinishResult is the post-game view returned by finish and results.
type FinishResult struct {
	SessionID     string             `json:"session_id"`
	Score         int                `json:"score"`
	MissedTaskIDs []string           `json:"missed_task_ids"`
	AuditLogs     []game.AuditLog    `json:"audit_logs"`
	MentorReport  *game.MentorReport `json:"mentor_report"`
}

// SessionStore owns every live session. Sessions exist only in memory and
// die with the process. The table mutex guards the map; each entry has
// its own mutex serializing answer merges and finalization, so the
// audit/report pair is computed at most once per session.
type SessionStore struct {
	log       *logger.Logger
	generator GenerationService
	scanner   hacktron.Scanner
	metrics   *observability.Metrics

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu        sync.Mutex
	session   game.Session
	finalized bool
}

func NewSessionStore(log *logger.Logger, generator GenerationService, scanner hacktron.Scanner, metrics *observability.Metrics) *SessionStore {
	return &SessionStore{
		log:       log.With("service", "SessionStore"),
		generator: generator,
		scanner:   scanner,
		metrics:   metrics,
		sessions:  map[string]*sessionEntry{},
	}
}

// Create generates a task batch and stores a new session. All-or-nothing:
// a pipeline failure stores no session.
func (s *SessionStore) Create(ctx context.Context, difficulty game.Difficulty, taskCount int) (*SessionInfo, error) {
	config, ok := game.DifficultyConfigs[difficulty]
	if !ok {
		return nil, fmt.Errorf("unknown difficulty: %s", difficulty)
	}

	generated, err := s.generator.GenerateTasks(
		ctx,
		game.DefaultLanguage,
		strings.ToUpper(string(difficulty)),
		game.ComplexityLevel(config.ComplexityTag),
		taskCount,
		config.VulnDensity,
	)
	if err != nil {
		return nil, err
	}

	tasks := make([]game.Task, 0, len(generated))
	for _, gt := range generated {
		tasks = append(tasks, game.FromGenerated(gt, difficulty))
	}

	session := game.Session{
		SessionID:  uuid.NewString(),
		Difficulty: difficulty,
		CreatedAt:  time.Now().UTC(),
		Tasks:      tasks,
		Answers:    map[string]game.Answer{},
		AuditLogs:  []game.AuditLog{},
	}

	s.mu.Lock()
	s.sessions[session.SessionID] = &sessionEntry{session: session}
	s.mu.Unlock()

	s.log.Info("Session created",
		"session_id", session.SessionID,
		"difficulty", difficulty,
		"task_count", len(tasks),
	)

	return &SessionInfo{
		SessionID:  session.SessionID,
		CreatedAt:  session.CreatedAt,
		Difficulty: difficulty,
		Config:     config,
	}, nil
}

func (s *SessionStore) entry(sessionID string) (*sessionEntry, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", game.ErrSessionNotFound, sessionID)
	}
	return entry, nil
}

// PublicTasks returns the redacted task list.
func (s *SessionStore) PublicTasks(sessionID string) ([]game.PublicTask, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	tasks := make([]game.PublicTask, 0, len(entry.session.Tasks))
	for _, task := range entry.session.Tasks {
		tasks = append(tasks, task.Public())
	}
	return tasks, nil
}

// SubmitAnswers merges a batch of answers and returns the running tally.
// The whole batch is validated before any answer is merged, so a rejected
// batch leaves the session untouched. Across separate calls a task may be
// re-answered; within one call duplicates are rejected.
func (s *SessionStore) SubmitAnswers(sessionID string, answers []game.Answer) (*game.Tally, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	validIDs := make(map[string]bool, len(entry.session.Tasks))
	for _, task := range entry.session.Tasks {
		validIDs[task.ID] = true
	}

	seen := map[string]bool{}
	for _, answer := range answers {
		if !validIDs[answer.TaskID] {
			return nil, &game.UnknownTaskError{TaskID: answer.TaskID}
		}
		if seen[answer.TaskID] {
			return nil, &game.DuplicateAnswerError{TaskID: answer.TaskID}
		}
		seen[answer.TaskID] = true
	}

	for _, answer := range answers {
		entry.session.Answers[answer.TaskID] = answer
	}

	tally := game.Score(entry.session.Tasks, entry.session.Answers)
	return &tally, nil
}

// Finish finalizes the session: the first call computes audit logs and
// the mentor report under the entry mutex and caches both; later calls
// observe the cached pair. Collaborator failures degrade to placeholder
// logs and the fixed fallback narrative; Finish itself never fails for
// a known session.
func (s *SessionStore) Finish(ctx context.Context, sessionID string) (*FinishResult, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	tally := game.Score(entry.session.Tasks, entry.session.Answers)

	if !entry.finalized {
		entry.session.AuditLogs = s.buildAuditLogs(ctx, &entry.session, tally.MissedTaskIDs)
		entry.session.MentorReport = s.buildMentorReport(ctx, &entry.session, tally.MissedTaskIDs)
		entry.finalized = true
	}

	return &FinishResult{
		SessionID:     sessionID,
		Score:         tally.Correct,
		MissedTaskIDs: tally.MissedTaskIDs,
		AuditLogs:     entry.session.AuditLogs,
		MentorReport:  entry.session.MentorReport,
	}, nil
}

// Results finalizes lazily. For an already-finalized session the score is
// recomputed from current answers while the cached audit/report pair is
// returned unchanged, so score can drift from the narrative snapshot when
// answers arrive after finalization.
func (s *SessionStore) Results(ctx context.Context, sessionID string) (*FinishResult, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	if !entry.finalized {
		entry.mu.Unlock()
		return s.Finish(ctx, sessionID)
	}
	defer entry.mu.Unlock()

	tally := game.Score(entry.session.Tasks, entry.session.Answers)
	return &FinishResult{
		SessionID:     sessionID,
		Score:         tally.Correct,
		MissedTaskIDs: tally.MissedTaskIDs,
		AuditLogs:     entry.session.AuditLogs,
		MentorReport:  entry.session.MentorReport,
	}, nil
}

// buildAuditLogs scans each missed task's code. Scanner failure becomes a
// placeholder log per missed task; it never aborts finalization.
func (s *SessionStore) buildAuditLogs(ctx context.Context, session *game.Session, missedTaskIDs []string) []game.AuditLog {
	if len(missedTaskIDs) == 0 {
		return []game.AuditLog{}
	}

	missed := missedTasks(session, missedTaskIDs)
	targets := make([]hacktron.Target, 0, len(missed))
	for _, task := range missed {
		targets = append(targets, hacktron.Target{ID: task.ID, Code: task.Code})
	}

	language := missed[0].Language
	if language == "" {
		language = game.DefaultLanguage
	}

	results, err := s.scanner.Scan(ctx, targets, language)
	s.metrics.ObserveScan(err)
	if err != nil {
		s.log.Warn("Audit scan failed, recording placeholders",
			"session_id", session.SessionID,
			"error", err,
		)
		logs := make([]game.AuditLog, 0, len(missedTaskIDs))
		for _, taskID := range missedTaskIDs {
			logs = append(logs, game.AuditLog{TaskID: taskID, RawLog: fmt.Sprintf("Audit failed: %v", err)})
		}
		return logs
	}

	logs := make([]game.AuditLog, 0, len(results))
	for _, result := range results {
		logs = append(logs, game.AuditLog{TaskID: result.TaskID, RawLog: result.RawLog})
	}
	return logs
}

// buildMentorReport asks the generator for a narrative; any failure falls
// back to the fixed summary.
func (s *SessionStore) buildMentorReport(ctx context.Context, session *game.Session, missedTaskIDs []string) *game.MentorReport {
	summaries := make([]string, 0, len(missedTaskIDs))
	for _, task := range missedTasks(session, missedTaskIDs) {
		language := task.Language
		if language == "" {
			language = game.DefaultLanguage
		}
		summaries = append(summaries, fmt.Sprintf("%s: %s in %s", task.SystemName, task.VulnerabilityType, language))
	}

	logs := make([]string, 0, len(session.AuditLogs))
	for _, auditLog := range session.AuditLogs {
		logs = append(logs, auditLog.RawLog)
	}

	summary, err := s.generator.MentorSummary(ctx, logs, summaries)
	if err != nil {
		s.log.Warn("Mentor narrative failed, using fallback",
			"session_id", session.SessionID,
			"error", err,
		)
		summary = game.FallbackMentorSummary(missedTaskIDs)
	}
	return &game.MentorReport{Summary: summary}
}

func missedTasks(session *game.Session, missedTaskIDs []string) []game.Task {
	missedSet := make(map[string]bool, len(missedTaskIDs))
	for _, id := range missedTaskIDs {
		missedSet[id] = true
	}
	tasks := make([]game.Task, 0, len(missedTaskIDs))
	for _, task := range session.Tasks {
		if missedSet[task.ID] {
			tasks = append(tasks, task)
		}
	}
	return tasks
}
