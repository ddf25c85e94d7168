// Package llm abstracts the conversational model behind a small provider
// interface so the rest of the system never depends on a concrete backend.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrUnavailable indicates the configured provider could not be reached.
var ErrUnavailable = errors.New("llm: provider unavailable")

// Message is a single turn in a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider generates model completions. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Generate sends a system prompt and user message and returns the raw
	// model output.
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.+?)\\s*```")

// ExtractJSON pulls a JSON object out of a model response. It first looks
// for a fenced ```json block, then falls back to the widest brace-delimited
// span. Returns nil when no parseable object is present; model output is
// untrusted, so an unparseable response is not an error.
func ExtractJSON(response string) map[string]any {
	if m := fencedJSON.FindStringSubmatch(response); m != nil {
		if obj := tryParse(m[1]); obj != nil {
			return obj
		}
	}
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		return tryParse(response[start : end+1])
	}
	return nil
}

func tryParse(s string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return obj
}
