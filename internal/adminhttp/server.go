// Package adminhttp exposes a small non-core HTTP surface for
// operators: liveness, queue stats, and a manual requeue endpoint, per
// spec.md §4.11.i's "observers" debug-report emission and SPEC_FULL.md
// §4.14. Nothing on the answering/retrieval path calls into this
// package.
package adminhttp

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/chatrag/ragcore/internal/logger"
	"github.com/chatrag/ragcore/internal/queue"
)

// Server wraps the gin engine and its collaborators.
type Server struct {
	engine    *gin.Engine
	stats     StatsSource
	requeuer  Requeuer
	jwtSecret string
}

// StatsSource reports queue depth/backlog for /queue/stats. Satisfied
// by *queue.Admin.
type StatsSource interface {
	Stats(ctx context.Context) (map[string]queue.QueueStat, error)
}

// Requeuer resets a stuck job back to pending for /queue/:kind/:id/requeue.
type Requeuer interface {
	Requeue(ctx context.Context, kind, id string) error
}

// New builds the admin HTTP server. jwtSecret, if non-empty, is
// required as a valid HS256 bearer token on the queue-stats and
// requeue routes; /healthz stays open for liveness probes.
func New(stats StatsSource, requeuer Requeuer, jwtSecret string) *Server {
	s := &Server{stats: stats, requeuer: requeuer, jwtSecret: jwtSecret}
	s.engine = s.buildEngine()
	return s
}

func (s *Server) buildEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))

	auth := authMiddleware(s.jwtSecret)
	engine.GET("/healthz", s.handleHealthz)
	engine.GET("/queue/stats", auth, s.handleQueueStats)
	engine.POST("/queue/:kind/:id/requeue", auth, s.handleRequeue)

	return engine
}

// ListenAndServe starts the HTTP server on addr; blocks until it exits.
func (s *Server) ListenAndServe(addr string) error {
	return s.engine.Run(addr)
}

// Engine exposes the underlying gin.Engine, for tests and for embedding
// behind an httptest.Server.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleQueueStats(c *gin.Context) {
	stats, err := s.stats.Stats(c.Request.Context())
	if err != nil {
		logger.Error(c.Request.Context(), "queue stats failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "queue stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleRequeue(c *gin.Context) {
	kind := c.Param("kind")
	id := c.Param("id")
	if kind != "ask" && kind != "truth" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be ask or truth"})
		return
	}

	if err := s.requeuer.Requeue(c.Request.Context(), kind, id); err != nil {
		logger.Error(c.Request.Context(), "requeue failed", "kind", kind, "id", id, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "requeue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "requeued"})
}
