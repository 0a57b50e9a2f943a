// Package api exposes the streaming generation pipeline over HTTP.
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/calebfollett/gemstream/internal/engine"
	"github.com/calebfollett/gemstream/internal/stream"
	"github.com/calebfollett/gemstream/internal/version"
)

// EngineFactory yields a fresh engine per request so one session's lifecycle
// never touches another's.
type EngineFactory func() engine.Engine

type Server struct {
	newEngine EngineFactory
	timeout   time.Duration
	clock     func() time.Time
}

func NewServer(factory EngineFactory, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = stream.DefaultTimeout
	}
	return &Server{
		newEngine: factory,
		timeout:   timeout,
		clock:     time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/generate", s.handleGenerate)
	e.GET("/healthz", s.handleHealth)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.String(),
	})
}

func (s *Server) handleGenerate(c *echo.Context) error {
	if s.newEngine == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "engine not configured")
	}
	req, err := decodeGenerateRequest(c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	engReq, err := buildEngineRequest(req)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	timeout := s.timeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	eng := s.newEngine()
	defer func() { _ = eng.Close() }()

	sess := stream.NewSession(stream.Config{Timeout: timeout})
	if err := sess.Start(c.Request().Context(), eng, engReq); err != nil {
		return writeError(c, http.StatusBadGateway, "engine_error", err.Error())
	}

	if req.Stream {
		return s.streamGenerate(c, sess)
	}
	return s.blockingGenerate(c, sess)
}

func (s *Server) blockingGenerate(c *echo.Context, sess *stream.Session) error {
	var sb strings.Builder
	var termErr error
	for ev := range sess.Events() {
		if ev.Err != nil {
			termErr = ev.Err
			continue
		}
		sb.WriteString(ev.Text)
	}

	resp := GenerateResponse{
		ID:        newGenerationID(),
		Object:    "generation",
		CreatedAt: s.clock().Unix(),
		Status:    sess.State().String(),
		Text:      sb.String(),
	}
	switch {
	case errors.Is(termErr, stream.ErrTimedOut):
		resp.Error = &ResponseError{Message: termErr.Error(), Type: "timeout_error"}
		return c.JSON(http.StatusGatewayTimeout, resp)
	case termErr != nil:
		resp.Error = &ResponseError{Message: termErr.Error(), Type: "engine_error"}
		return c.JSON(http.StatusBadGateway, resp)
	default:
		return c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) streamGenerate(c *echo.Context, sess *stream.Session) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")

	flusher, ok := res.(interface{ Flush() })
	if !ok {
		sess.Cancel()
		return fmt.Errorf("streaming unsupported")
	}

	var sb strings.Builder
	for ev := range sess.Events() {
		if ev.Err != nil {
			errType := "engine_error"
			if errors.Is(ev.Err, stream.ErrTimedOut) {
				errType = "timeout_error"
			}
			if err := sendSSE(res, streamEvent{
				Type:  "error",
				Error: &ResponseError{Message: ev.Err.Error(), Type: errType},
			}); err != nil {
				return err
			}
			flusher.Flush()
			continue
		}
		sb.WriteString(ev.Text)
		if err := sendSSE(res, streamEvent{Type: "delta", Delta: ev.Text}); err != nil {
			return err
		}
		flusher.Flush()
	}

	if err := sendSSE(res, streamEvent{Type: sess.State().String(), Text: sb.String()}); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func sendSSE(w io.Writer, ev streamEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", b)
	return err
}

func decodeGenerateRequest(r io.Reader) (*GenerateRequest, error) {
	var req GenerateRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("parse request body: %w", err)
	}
	return &req, nil
}

func buildEngineRequest(req *GenerateRequest) (*engine.Request, error) {
	if req.Prompt != "" && len(req.Content) > 0 {
		return nil, fmt.Errorf("prompt and content are mutually exclusive")
	}
	if req.Prompt != "" {
		return engine.NewTextRequest(req.Prompt), nil
	}
	role := req.Role
	if role == "" {
		role = engine.RoleUser
	}
	engReq := &engine.Request{Role: role, Content: req.Content}
	if err := engReq.Validate(); err != nil {
		return nil, err
	}
	return engReq, nil
}

func newGenerationID() string {
	return "gen_" + uuid.NewString()
}
