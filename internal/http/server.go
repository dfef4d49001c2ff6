package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fid098/ICHack-26-Security-Game/internal/platform/envutil"
)

// Server binds the game router to the process listen config. The address
// comes from PORT at construction so callers only wire handlers.
type Server struct {
	Engine *gin.Engine
	Addr   string
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{
		Engine: NewRouter(cfg),
		Addr:   ":" + envutil.String("PORT", "8000"),
	}
}

// Run serves until the listener fails. The write timeout leaves headroom
// for the synchronous generation endpoints, which block on a collaborator
// call that can take most of its 30s budget.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}
	return srv.ListenAndServe()
}
