package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/fid098/ICHack-26-Security-Game/internal/platform/apierr"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/elevenlabs"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/logger"
)

const maxSpeechTextLength = 5000

// SpeechService fronts the speech-synthesis collaborator with request
// validation.
type SpeechService interface {
	Synthesize(ctx context.Context, text, voice string) (*elevenlabs.SynthesisResult, error)
	Health(ctx context.Context) (bool, string)
}

type speechService struct {
	log *logger.Logger
	tts elevenlabs.Client
}

func NewSpeechService(log *logger.Logger, tts elevenlabs.Client) SpeechService {
	return &speechService{log: log.With("service", "SpeechService"), tts: tts}
}

func (s *speechService) Synthesize(ctx context.Context, text, voice string) (*elevenlabs.SynthesisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apierr.New(http.StatusBadRequest, "empty_text", fmt.Errorf("text cannot be empty"))
	}
	if utf8.RuneCountInString(text) > maxSpeechTextLength {
		return nil, apierr.New(http.StatusBadRequest, "text_too_long", fmt.Errorf("text exceeds maximum length of %d characters", maxSpeechTextLength))
	}

	result, err := s.tts.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "speech_unavailable", err)
	}

	s.log.Info("Speech generated", "chars", len(text), "duration_s", result.Duration)
	return result, nil
}

func (s *speechService) Health(ctx context.Context) (bool, string) {
	return s.tts.ValidateKey(ctx)
}
