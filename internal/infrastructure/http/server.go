// Package http provides the HTTP API over the prompt pipeline.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/0xcro3dile/ragprompt/internal/adapters/llm"
	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
	"github.com/0xcro3dile/ragprompt/internal/domain/ports"
	"github.com/0xcro3dile/ragprompt/internal/domain/usecases"
)

// Asker runs the pipeline for one question.
type Asker interface {
	Ask(ctx context.Context, question string) (*entities.AskResult, error)
}

// Server is the HTTP server for the ask API.
type Server struct {
	asker   Asker
	runs    ports.RunRecorder
	metrics http.Handler
	addr    string
	logger  *zap.Logger
	engine  *gin.Engine
}

// NewServer creates a new HTTP server. runs and metrics may be nil.
func NewServer(asker Asker, runs ports.RunRecorder, metrics http.Handler, addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		asker:   asker,
		runs:    runs,
		metrics: metrics,
		addr:    addr,
		logger:  logger,
		engine:  gin.New(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery(), loggingMiddleware(s.logger), corsMiddleware())

	s.engine.GET("/", s.handleIndex)

	api := s.engine.Group("/api")
	api.POST("/ask", s.handleAsk)
	api.GET("/health", s.handleHealth)
	if s.runs != nil {
		api.GET("/runs", s.handleRuns)
	}

	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics))
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the HTTP server until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      10 * time.Minute, // inference can be slow
	}

	s.logger.Info("server starting", zap.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving %s: %w", s.addr, err)
	}
	return nil
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

type skippedEntry struct {
	Key    string `json:"key"`
	Path   string `json:"path"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type askResponse struct {
	RunID      string         `json:"run_id"`
	Question   string         `json:"question"`
	Answer     string         `json:"answer"`
	Loaded     int            `json:"loaded"`
	Sources    []string       `json:"sources"`
	Skipped    []skippedEntry `json:"skipped"`
	DurationMS int64          `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
}

func newAskResponse(res *entities.AskResult) askResponse {
	resp := askResponse{
		Sources: []string{},
		Skipped: []skippedEntry{},
	}
	if res == nil {
		return resp
	}

	resp.RunID = res.RunID
	resp.Question = res.Question
	resp.Answer = res.Answer
	resp.Loaded = res.Report.Loaded()
	resp.DurationMS = res.Duration.Milliseconds()
	for _, d := range res.Selected {
		resp.Sources = append(resp.Sources, d.Source)
	}
	for _, e := range res.Report.Skipped() {
		resp.Skipped = append(resp.Skipped, skippedEntry{Key: e.Key, Path: e.Path, Status: string(e.Status), Reason: e.Reason})
	}
	return resp
}

// handleAsk runs the pipeline for a JSON {"question": "..."} body.
func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	res, err := s.asker.Ask(c.Request.Context(), req.Question)
	resp := newAskResponse(res)
	if err != nil {
		resp.Error = err.Error()
		c.JSON(statusFor(err), resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecases.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, llm.ErrEndpointStatus), errors.Is(err, llm.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type runResponse struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Model     string    `json:"model"`
	Loaded    int       `json:"loaded"`
	Skipped   int       `json:"skipped"`
	Selected  int       `json:"selected"`
	Answer    string    `json:"answer"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// handleRuns lists recent runs, newest first. ?limit=N, default 10.
func (s *Server) handleRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	records, err := s.runs.Recent(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("listing runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs"})
		return
	}

	out := make([]runResponse, 0, len(records))
	for _, r := range records {
		out = append(out, runResponse{
			ID: r.ID, Question: r.Question, Model: r.Model,
			Loaded: r.Loaded, Skipped: r.Skipped, Selected: r.Selected,
			Answer: r.Answer, Error: r.Error, CreatedAt: r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>ragprompt</title>
</head>
<body>
    <h1>ragprompt</h1>
    <form id="ask-form">
        <input type="text" id="question" placeholder="Ask about your documents..." autocomplete="off" required>
        <button type="submit">Ask</button>
    </form>
    <pre id="answer"></pre>
    <ul id="sources"></ul>
    <script>
        document.getElementById('ask-form').addEventListener('submit', async function (e) {
            e.preventDefault();
            const answer = document.getElementById('answer');
            const sources = document.getElementById('sources');
            answer.textContent = '...';
            sources.innerHTML = '';
            const resp = await fetch('/api/ask', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({question: document.getElementById('question').value})
            });
            const data = await resp.json();
            answer.textContent = data.error ? 'Error: ' + data.error : data.answer;
            (data.sources || []).forEach(function (s) {
                const li = document.createElement('li');
                li.textContent = s;
                sources.appendChild(li);
            });
        });
    </script>
</body>
</html>`
