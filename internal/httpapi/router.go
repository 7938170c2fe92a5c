package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/annotate-mcp/internal/ocr"
	"github.com/ironsheep/annotate-mcp/internal/server"
	"github.com/ironsheep/annotate-mcp/internal/session"
)

// Caller executes one tool. *server.Server implements it.
type Caller interface {
	Call(ctx context.Context, name string, args json.RawMessage) (interface{}, []server.MCPNotification, error)
}

// BuildInfo is reported by /version.
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// Response is the envelope of every tool response.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type handler struct {
	calls Caller
	log   *zap.Logger
}

// NewRouter builds the gin engine. Set gin's mode before calling it.
func NewRouter(calls Caller, info BuildInfo, log *zap.Logger) *gin.Engine {
	h := &handler{calls: calls, log: log}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(Logger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": info.Version,
			"ocr":     ocr.GetInfo(),
		})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, info)
	})

	api := r.Group("/api/v1")
	{
		api.GET("/tools", h.listTools)
		api.POST("/tools/:name", h.callTool)
	}
	return r
}

func (h *handler) listTools(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: server.GetToolDefinitions()})
}

func (h *handler) callTool(c *gin.Context) {
	name := c.Param("name")
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Message: "failed to read body", Error: err.Error()})
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		c.JSON(http.StatusBadRequest, Response{Message: "body is not valid JSON"})
		return
	}

	result, _, err := h.calls.Call(c.Request.Context(), name, body)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.Error("tool failed", zap.String("tool", name), zap.Error(err))
		}
		c.JSON(status, Response{Message: "tool execution failed", Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// statusFor maps tool errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, server.ErrInvalidArgs):
		return http.StatusBadRequest
	case errors.Is(err, server.ErrUnknownTool):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNoActiveImage), errors.Is(err, session.ErrPendingEdits):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
