// Package server exposes the routing engine's four operations over HTTP,
// one endpoint per operation, JSON in and out.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/muwajjih-ai/muwajjih/internal/audit"
	"github.com/muwajjih-ai/muwajjih/internal/config"
	"github.com/muwajjih-ai/muwajjih/internal/engine"
	"github.com/muwajjih-ai/muwajjih/internal/intake"
	"github.com/muwajjih-ai/muwajjih/internal/telemetry"
)

const requestIDKey = "request_id"

// Server wraps the HTTP components of the routing service.
type Server struct {
	cfg     *config.Config
	engine  *engine.Engine
	history *intake.History
	audit   *audit.Emitter
	tel     *telemetry.Provider
	router  *gin.Engine
}

// New creates a server with all routes registered. history, emitter and tel
// may be nil; the corresponding features are simply skipped.
func New(cfg *config.Config, eng *engine.Engine, history *intake.History, emitter *audit.Emitter, tel *telemetry.Provider) *Server {
	s := &Server{
		cfg:     cfg,
		engine:  eng,
		history: history,
		audit:   emitter,
		tel:     tel,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	if len(cfg.Server.APIKeys) > 0 {
		v1.Use(bearerAuth(cfg.Server.APIKeys))
	}
	v1.POST("/auto-reply", s.handleAutoReply)
	v1.POST("/route", s.handleRoute)
	v1.POST("/route/debug", s.handleRouteDebug)
	v1.POST("/peaks", s.handlePeaks)
	v1.GET("/status", s.handleStatus)

	s.router = r
	return s
}

// Router exposes the underlying handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func bearerAuth(keys []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			allowed[k] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if _, ok := allowed[token]; !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
			return
		}
		c.Next()
	}
}

type textRequest struct {
	Text string `json:"text"`
}

type debugRequest struct {
	Text    string               `json:"text"`
	Options engine.TuningOverlay `json:"options"`
}

type peaksRequest struct {
	Timestamps []string `json:"timestamps"`
}

func (s *Server) handleAutoReply(c *gin.Context) {
	start := time.Now()
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.recordRequest(c, "auto_reply", "bad_request", start)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	out := s.engine.AutoReply(req.Text)

	if s.audit != nil {
		ev := audit.NewEvent(s.cfg.Audit.Level, c.GetString(requestIDKey), "auto_reply", req.Text)
		ev.Intent = string(out.Intent)
		ev.Confidence = out.Confidence
		ev.LatencyMs = float64(time.Since(start).Microseconds()) / 1000
		s.audit.Emit(c.Request.Context(), ev)
	}
	s.recordRequest(c, "auto_reply", "ok", start)
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleRoute(c *gin.Context) {
	start := time.Now()
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.recordRequest(c, "route", "bad_request", start)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	ctx := c.Request.Context()
	if s.tel != nil {
		var span trace.Span
		ctx, span = s.tel.StartSpan(ctx, "route")
		defer span.End()
	}
	out := s.engine.SuggestDepartment(ctx, req.Text)

	if s.audit != nil {
		ev := audit.NewEvent(s.cfg.Audit.Level, c.GetString(requestIDKey), "route", req.Text)
		ev.Department = out.Department
		ev.Confidence = out.Confidence
		ev.LatencyMs = float64(time.Since(start).Microseconds()) / 1000
		s.audit.Emit(ctx, ev)
	}
	if s.tel != nil {
		s.tel.RecordDecision(ctx, out.Department, out.Department == engine.DeptInquiries)
	}
	s.recordRequest(c, "route", "ok", start)
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleRouteDebug(c *gin.Context) {
	start := time.Now()
	var req debugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.recordRequest(c, "route_debug", "bad_request", start)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	out := s.engine.DebugSuggest(c.Request.Context(), req.Text, req.Options)
	s.recordRequest(c, "route_debug", "ok", start)
	c.JSON(http.StatusOK, out)
}

func (s *Server) handlePeaks(c *gin.Context) {
	start := time.Now()
	var req peaksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.recordRequest(c, "peaks", "bad_request", start)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	timestamps := req.Timestamps
	if len(timestamps) == 0 && s.history != nil {
		timestamps = s.history.Timestamps()
	}

	out := s.engine.PredictPeaks(timestamps)
	s.recordRequest(c, "peaks", "ok", start)
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleStatus(c *gin.Context) {
	status := gin.H{
		"rules":         engine.RuleCount(),
		"store_backend": s.cfg.Store.Backend,
		"audit_level":   s.cfg.Audit.Level,
		"telemetry":     s.cfg.Telemetry.Enabled,
	}
	if s.history != nil {
		status["intake"] = gin.H{
			"enabled":  s.cfg.Intake.Enabled,
			"recorded": s.history.Len(),
		}
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) recordRequest(c *gin.Context, operation, status string, start time.Time) {
	if s.tel == nil {
		return
	}
	s.tel.RecordRequest(c.Request.Context(), operation, status, time.Since(start))
}
