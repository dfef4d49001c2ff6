package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fid098/ICHack-26-Security-Game/internal/platform/envutil"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/logger"
)

// Client is the text-generation collaborator. It returns raw model text;
// callers own any JSON extraction and validation.
type Client interface {
	GenerateText(ctx context.Context, system string, user string, maxTokens int) (string, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Version string
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:  strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		BaseURL: envutil.String("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		Model:   envutil.String("ANTHROPIC_MODEL", "claude-3-5-sonnet-20240620"),
		Version: envutil.String("ANTHROPIC_VERSION", "2023-06-01"),
		Timeout: time.Duration(envutil.Int("ANTHROPIC_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing ANTHROPIC_API_KEY")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &client{
		log:        log.With("client", "AnthropicClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// --- messages API wire types ---

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "anthropic: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("anthropic http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) GenerateText(ctx context.Context, system string, user string, maxTokens int) (string, error) {
	if c == nil || c.httpClient == nil {
		return "", fmt.Errorf("anthropic client unavailable")
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	req := messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: user}},
	}

	start := time.Now()
	raw, err := c.doOnce(ctx, http.MethodPost, "/v1/messages", &req)
	if err != nil {
		return "", classify(err)
	}
	c.log.Debug("Anthropic request complete",
		"model", c.cfg.Model,
		"max_tokens", maxTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	var resp messagesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", err)
	}

	chunks := make([]string, 0, len(resp.Content))
	for _, block := range resp.Content {
		if block.Text != "" {
			chunks = append(chunks, block.Text)
		}
	}
	if len(chunks) == 0 {
		// Unexpected shape: surface the raw body so the caller can log it.
		return string(raw), nil
	}
	return strings.TrimSpace(strings.Join(chunks, "\n")), nil
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) ([]byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", c.cfg.Version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

// classify rewrites transport-level failures into stable messages; callers
// surface these to clients on the synchronous paths.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return fmt.Errorf("anthropic request timed out: %w", err)
		}
		return fmt.Errorf("anthropic connection failed: %w", err)
	}
	return err
}
