package hacktron

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fid098/ICHack-26-Security-Game/internal/platform/envutil"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/logger"
)

// extensions maps generator languages to scan file extensions. Unknown
// languages fall back to .txt so the CLI still receives a file.
var extensions = map[string]string{
	"javascript": ".js",
	"python":     ".py",
	"java":       ".java",
	"go":         ".go",
	"php":        ".php",
}

// Target is one snippet to scan.
type Target struct {
	ID   string
	Code string
}

// Result is the raw CLI output for one target.
type Result struct {
	TaskID string
	RawLog string
}

type Scanner interface {
	Scan(ctx context.Context, targets []Target, language string) ([]Result, error)
}

type Config struct {
	Command     string
	Args        []string
	Timeout     time.Duration
	PathTimeout time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		Command:     strings.TrimSpace(os.Getenv("HACKTRON_CMD")),
		Args:        splitArgs(os.Getenv("HACKTRON_ARGS")),
		Timeout:     time.Duration(envutil.Int("HACKTRON_TIMEOUT_SECONDS", 30)) * time.Second,
		PathTimeout: time.Duration(envutil.Int("HACKTRON_PATH_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

func NewFromEnv(log *logger.Logger) (Scanner, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Scanner, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PathTimeout <= 0 {
		cfg.PathTimeout = 10 * time.Second
	}
	// The command may legitimately be unset; Scan reports it so callers on
	// the degradable finish path can fall back instead of the process
	// refusing to start.
	return &scanner{log: log.With("client", "HacktronScanner"), cfg: cfg}, nil
}

type scanner struct {
	log *logger.Logger
	cfg Config
}

func (s *scanner) Scan(ctx context.Context, targets []Target, language string) ([]Result, error) {
	if strings.TrimSpace(s.cfg.Command) == "" {
		return nil, fmt.Errorf("HACKTRON_CMD is not configured")
	}

	ext, ok := extensions[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		ext = ".txt"
	}

	useWSL := strings.EqualFold(s.cfg.Command, "wsl")
	results := make([]Result, 0, len(targets))

	for _, target := range targets {
		dir, err := os.MkdirTemp("", "hacktron-")
		if err != nil {
			return nil, err
		}
		filePath := filepath.Join(dir, target.ID+ext)
		if err := os.WriteFile(filePath, []byte(target.Code), 0o600); err != nil {
			os.RemoveAll(dir)
			return nil, err
		}

		targetPath := filePath
		if useWSL {
			targetPath, err = s.toWSLPath(ctx, filePath)
			if err != nil {
				os.RemoveAll(dir)
				return nil, err
			}
		}

		output, err := s.run(ctx, append([]string{s.cfg.Command}, expandArgs(s.cfg.Args, targetPath)...))
		os.RemoveAll(dir)
		if err != nil {
			return nil, err
		}

		results = append(results, Result{TaskID: target.ID, RawLog: output})
	}

	return results, nil
}

// expandArgs substitutes {file} placeholders, or appends the path when no
// placeholder is configured.
func expandArgs(args []string, filePath string) []string {
	if len(args) == 0 {
		return []string{filePath}
	}
	hasPlaceholder := false
	for _, arg := range args {
		if strings.Contains(arg, "{file}") {
			hasPlaceholder = true
			break
		}
	}
	if !hasPlaceholder {
		return append(append([]string{}, args...), filePath)
	}
	out := make([]string, 0, len(args))
	for _, arg := range args {
		out = append(out, strings.ReplaceAll(arg, "{file}", filePath))
	}
	return out
}

func (s *scanner) run(ctx context.Context, cmd []string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(runCtx, cmd[0], cmd[1:]...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	err := command.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("hacktron command timed out: %s", strings.Join(cmd, " "))
	}
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", fmt.Errorf("hacktron command not found: %s", cmd[0])
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "hacktron CLI failed with no error message"
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("hacktron failed (exit code %d): %s", exitErr.ExitCode(), msg)
		}
		return "", fmt.Errorf("hacktron failed: %w: %s", err, msg)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// toWSLPath converts a host path for a scanner hosted inside WSL.
func (s *scanner) toWSLPath(ctx context.Context, path string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.PathTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(runCtx, "wsl", "wslpath", "-a", path)
	command.Stdout = &stdout
	command.Stderr = &stderr

	err := command.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("failed to convert path for WSL (timeout)")
	}
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", fmt.Errorf("wsl not found; ensure WSL is installed and available")
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "WSL path conversion failed"
		}
		return "", errors.New(msg)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// splitArgs tokenizes HACKTRON_ARGS, honoring single and double quotes so
// arguments with spaces survive.
func splitArgs(raw string) []string {
	var args []string
	var current strings.Builder
	var quote rune
	flush := func() {
		if current.Len() > 0 {
			args = append(args, current.String())
			current.Reset()
		}
	}
	for _, r := range raw {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return args
}
