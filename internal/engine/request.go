package engine

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Roles for request messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Content part types.
const (
	ContentText  = "text"
	ContentImage = "image"
	ContentAudio = "audio"
)

// Content is one typed item of a request's ordered content list. Media parts
// carry their payload in Data, which marshals as base64 and must round-trip
// byte-identical.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Data []byte `json:"data,omitempty"`
}

// Request is the payload submitted to the inference collaborator: a role
// marker and an ordered content list.
type Request struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

// NewTextRequest builds a single-part user request.
func NewTextRequest(text string) *Request {
	return &Request{
		Role:    RoleUser,
		Content: []Content{{Type: ContentText, Text: text}},
	}
}

// AddImage appends an image blob with its companion text item.
func (r *Request) AddImage(caption string, data []byte) {
	r.Content = append(r.Content,
		Content{Type: ContentText, Text: caption},
		Content{Type: ContentImage, Data: data},
	)
}

// AddAudio appends an audio blob with its companion text item.
func (r *Request) AddAudio(caption string, data []byte) {
	r.Content = append(r.Content,
		Content{Type: ContentText, Text: caption},
		Content{Type: ContentAudio, Data: data},
	)
}

// Validate checks structural requirements before submission.
func (r *Request) Validate() error {
	switch r.Role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return fmt.Errorf("invalid role: %q", r.Role)
	}
	if len(r.Content) == 0 {
		return fmt.Errorf("empty content list")
	}
	for i, c := range r.Content {
		switch c.Type {
		case ContentText:
		case ContentImage, ContentAudio:
			if len(c.Data) == 0 {
				return fmt.Errorf("content %d: %s part without data", i, c.Type)
			}
		default:
			return fmt.Errorf("content %d: invalid type %q", i, c.Type)
		}
	}
	return nil
}

// Text concatenates the text parts of the request.
func (r *Request) Text() string {
	var out string
	for _, c := range r.Content {
		if c.Type == ContentText {
			out += c.Text
		}
	}
	return out
}

// EncodeRequest serializes a request for the wire.
func EncodeRequest(r *Request) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRequest parses a wire request and validates it.
func DecodeRequest(data []byte) (*Request, error) {
	var r Request
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}
