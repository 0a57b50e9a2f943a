package api

import "github.com/calebfollett/gemstream/internal/engine"

// GenerateRequest is the body of POST /v1/generate. Prompt is shorthand for a
// single user text part; Content carries the full typed list, media blobs
// base64-encoded.
type GenerateRequest struct {
	Prompt         string           `json:"prompt,omitempty"`
	Role           string           `json:"role,omitempty"`
	Content        []engine.Content `json:"content,omitempty"`
	Stream         bool             `json:"stream,omitempty"`
	TimeoutSeconds int              `json:"timeout_seconds,omitempty"`
}

type GenerateResponse struct {
	ID        string         `json:"id"`
	Object    string         `json:"object"`
	CreatedAt int64          `json:"created_at"`
	Status    string         `json:"status"`
	Text      string         `json:"text,omitempty"`
	Error     *ResponseError `json:"error,omitempty"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// streamEvent is one SSE payload of a streaming generation.
type streamEvent struct {
	Type  string         `json:"type"`
	Delta string         `json:"delta,omitempty"`
	Text  string         `json:"text,omitempty"`
	Error *ResponseError `json:"error,omitempty"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
