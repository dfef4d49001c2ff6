package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/fid098/ICHack-26-Security-Game/internal/http/handlers"
	httpMW "github.com/fid098/ICHack-26-Security-Game/internal/http/middleware"
	"github.com/fid098/ICHack-26-Security-Game/internal/observability"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	SessionHandler  *httpH.SessionHandler
	GenerateHandler *httpH.GenerateHandler
	AuditHandler    *httpH.AuditHandler
	SpeechHandler   *httpH.SpeechHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
		r.GET("/health/elevenlabs", cfg.HealthHandler.SpeechHealth)
		r.GET("/metrics", cfg.HealthHandler.Metrics)
	}

	if cfg.SessionHandler != nil {
		r.POST("/session", cfg.SessionHandler.Create)
		r.GET("/session/:id/tasks", cfg.SessionHandler.ListTasks)
		r.POST("/session/:id/submit", cfg.SessionHandler.SubmitAnswers)
		r.POST("/session/:id/finish", cfg.SessionHandler.Finish)
		r.GET("/session/:id/results", cfg.SessionHandler.Results)
	}

	if cfg.GenerateHandler != nil {
		r.POST("/generate", cfg.GenerateHandler.Generate)
	}

	if cfg.AuditHandler != nil {
		r.POST("/audit", cfg.AuditHandler.Audit)
	}

	if cfg.SpeechHandler != nil {
		r.POST("/tts", cfg.SpeechHandler.TextToSpeech)
	}

	return r
}
