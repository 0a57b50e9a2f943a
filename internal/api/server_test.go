package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/calebfollett/gemstream/internal/engine"
)

func newTestEcho(factory EngineFactory, timeout time.Duration) *echo.Echo {
	e := echo.New()
	NewServer(factory, timeout).Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	e := newTestEcho(func() engine.Engine { return &engine.Loopback{} }, 0)
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("body: %s", rec.Body.String())
	}
}

func TestGenerateBlocking(t *testing.T) {
	t.Parallel()

	e := newTestEcho(func() engine.Engine {
		return &engine.Loopback{Reply: "café 🎉", ChunkSize: 1}
	}, 0)

	rec := doJSON(t, e, http.MethodPost, "/v1/generate", `{"prompt":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "completed" {
		t.Fatalf("status field: got %q", resp.Status)
	}
	if resp.Text != "café 🎉" {
		t.Fatalf("text: got %q", resp.Text)
	}
	if !strings.HasPrefix(resp.ID, "gen_") {
		t.Fatalf("id: got %q", resp.ID)
	}
}

func TestGenerateStreaming(t *testing.T) {
	t.Parallel()

	e := newTestEcho(func() engine.Engine {
		return &engine.Loopback{Reply: "streamed text", ChunkSize: 4}
	}, 0)

	rec := doJSON(t, e, http.MethodPost, "/v1/generate", `{"prompt":"hello","stream":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type: got %q", ct)
	}

	var deltas strings.Builder
	var final streamEvent
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("decode event %q: %v", line, err)
		}
		switch ev.Type {
		case "delta":
			deltas.WriteString(ev.Delta)
		default:
			final = ev
		}
	}
	if deltas.String() != "streamed text" {
		t.Fatalf("deltas: got %q", deltas.String())
	}
	if final.Type != "completed" || final.Text != "streamed text" {
		t.Fatalf("final event: %+v", final)
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	t.Parallel()

	e := newTestEcho(func() engine.Engine {
		return &engine.Loopback{Reply: "x", FailWith: "kernel panic"}
	}, 0)

	rec := doJSON(t, e, http.MethodPost, "/v1/generate", `{"prompt":"hello"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Type != "engine_error" {
		t.Fatalf("error field: %+v", resp.Error)
	}
	if resp.Status != "failed" {
		t.Fatalf("status field: got %q", resp.Status)
	}
}

func TestGenerateTimeout(t *testing.T) {
	t.Parallel()

	e := newTestEcho(func() engine.Engine {
		return &engine.Loopback{Mute: true}
	}, 30*time.Millisecond)

	rec := doJSON(t, e, http.MethodPost, "/v1/generate", `{"prompt":"hello"}`)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Type != "timeout_error" {
		t.Fatalf("error field: %+v", resp.Error)
	}
	if resp.Status != "timed_out" {
		t.Fatalf("status field: got %q", resp.Status)
	}
}

func TestGenerateBadRequest(t *testing.T) {
	t.Parallel()

	e := newTestEcho(func() engine.Engine { return &engine.Loopback{} }, 0)

	cases := []struct {
		name string
		body string
	}{
		{name: "not json", body: "{"},
		{name: "prompt and content", body: `{"prompt":"a","content":[{"type":"text","text":"b"}]}`},
		{name: "empty", body: `{}`},
		{name: "bad role", body: `{"role":"robot","content":[{"type":"text","text":"b"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := doJSON(t, e, http.MethodPost, "/v1/generate", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
			}
		})
	}
}
