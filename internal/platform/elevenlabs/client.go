package elevenlabs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fid098/ICHack-26-Security-Game/internal/platform/envutil"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/logger"
)

// Preset voice names accepted in requests; both resolve to the same
// ElevenLabs voice until more presets are added.
var voiceIDs = map[string]string{
	"ship_computer": "EXAVITQu4vr4xnSDxMaL",
	"default":       "EXAVITQu4vr4xnSDxMaL",
}

type Client interface {
	// Synthesize returns a data URL with base64 MPEG audio and an
	// estimated duration in seconds.
	Synthesize(ctx context.Context, text string, voice string) (*SynthesisResult, error)

	// ValidateKey probes the API with the configured key and reports
	// whether it is usable.
	ValidateKey(ctx context.Context) (bool, string)
}

type SynthesisResult struct {
	AudioURL string
	Duration float64
}

type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      time.Duration
	ProbeTimeout time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:       strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
		BaseURL:      envutil.String("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		Model:        envutil.String("ELEVENLABS_MODEL", "eleven_monolingual_v1"),
		Timeout:      time.Duration(envutil.Int("ELEVENLABS_TIMEOUT_SECONDS", 30)) * time.Second,
		ProbeTimeout: time.Duration(envutil.Int("ELEVENLABS_PROBE_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	// A missing key is reported per call so the health probe can explain
	// itself instead of the process refusing to start.
	return &client{
		log:         log.With("client", "ElevenLabsClient"),
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		probeClient: &http.Client{Timeout: cfg.ProbeTimeout},
	}, nil
}

type client struct {
	log         *logger.Logger
	cfg         Config
	httpClient  *http.Client
	probeClient *http.Client
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

func (c *client) Synthesize(ctx context.Context, text string, voice string) (*SynthesisResult, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("elevenlabs client unavailable")
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing ELEVENLABS_API_KEY")
	}

	voiceID, ok := voiceIDs[strings.TrimSpace(voice)]
	if !ok {
		voiceID = voiceIDs["default"]
	}

	body := ttsRequest{
		Text:    text,
		ModelID: c.cfg.Model,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.0,
			UseSpeakerBoost: true,
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(&body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/text-to-speech/"+voiceID, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, statusError(resp.StatusCode, string(raw))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	c.log.Debug("Speech synthesized", "voice", voiceID, "bytes", len(audio))

	return &SynthesisResult{
		AudioURL: "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(audio),
		Duration: EstimateDuration(text),
	}, nil
}

// EstimateDuration approximates spoken length at 150 words per minute.
func EstimateDuration(text string) float64 {
	words := len(strings.Fields(text))
	return float64(words) / 150.0 * 60.0
}

func (c *client) ValidateKey(ctx context.Context) (bool, string) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return false, "ELEVENLABS_API_KEY not configured in environment"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/voices", nil)
	if err != nil {
		return false, err.Error()
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.probeClient.Do(req)
	if err != nil {
		return false, fmt.Sprintf("Cannot connect to ElevenLabs API: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, "API key is valid"
	case http.StatusUnauthorized:
		return false, "API key is invalid or expired"
	case http.StatusForbidden:
		return false, "API key lacks necessary permissions"
	case http.StatusTooManyRequests:
		return false, "API rate limit exceeded"
	default:
		return false, fmt.Sprintf("API returned status %d", resp.StatusCode)
	}
}

func statusError(status int, body string) error {
	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("elevenlabs API key is invalid or expired")
	case http.StatusForbidden:
		return fmt.Errorf("elevenlabs API access forbidden; check subscription and permissions")
	case http.StatusTooManyRequests:
		return fmt.Errorf("elevenlabs API rate limit exceeded")
	default:
		return fmt.Errorf("elevenlabs http %d: %s", status, strings.TrimSpace(body))
	}
}
