package llm

import (
	"context"
	"strings"
)

// Role tags a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one role-tagged message in a generation request.
type Message struct {
	Role Role
	Text string
}

// Request describes a single generation call. The backend contract is
// deliberately narrow: ordered role-tagged messages in, one text blob out.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float32

	// JSONMode asks the backend for a machine-readable JSON completion.
	JSONMode bool

	// Image is an optional JPEG attachment for vision-capable models.
	Image []byte
}

// Backend generates a completion for a request. Implementations must be safe
// for concurrent use.
type Backend interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Usage contains token usage and cost information for a single call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// StripFences removes markdown code fences the model may wrap around its
// output.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// ExtractJSONObject slices the first top-level JSON object out of a chatty
// response. Returns an empty string when no object is present.
func ExtractJSONObject(text string) string {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}
