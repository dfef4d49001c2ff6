package main

import (
	"fmt"
	"os"

	httpS "github.com/fid098/ICHack-26-Security-Game/internal/http"
	httpH "github.com/fid098/ICHack-26-Security-Game/internal/http/handlers"
	"github.com/fid098/ICHack-26-Security-Game/internal/observability"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/anthropic"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/elevenlabs"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/envutil"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/hacktron"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/logger"
	"github.com/fid098/ICHack-26-Security-Game/internal/services"
)

func main() {
	// Logger
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	metrics := observability.NewMetrics()

	// Collaborator clients. A missing Anthropic key degrades generation to
	// 503s and finish to fallbacks instead of refusing to start.
	llm, err := anthropic.NewFromEnv(log)
	if err != nil {
		log.Warn("Anthropic client unavailable", "error", err)
		llm = nil
	}
	tts, err := elevenlabs.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init ElevenLabs client", "error", err)
		os.Exit(1)
	}
	scanner, err := hacktron.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init Hacktron scanner", "error", err)
		os.Exit(1)
	}

	// Services
	generator := services.NewGenerationService(log, llm, metrics)
	store := services.NewSessionStore(log, generator, scanner, metrics)
	auditor := services.NewAuditService(log, scanner, generator, metrics)
	speech := services.NewSpeechService(log, tts)

	server := httpS.NewServer(httpS.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		SessionHandler:  httpH.NewSessionHandler(store),
		GenerateHandler: httpH.NewGenerateHandler(generator),
		AuditHandler:    httpH.NewAuditHandler(auditor),
		SpeechHandler:   httpH.NewSpeechHandler(speech),
		HealthHandler:   httpH.NewHealthHandler(speech, metrics),
	})

	log.Info("Starting server", "address", server.Addr)
	if err := server.Run(); err != nil {
		log.Fatal("Server stopped", "error", err)
	}
}
