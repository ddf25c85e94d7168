// Package privacy masks personally identifiable and credential-like
// information before any payload is persisted or forwarded. Masking is
// mandatory at every persistence boundary; detection is advisory and used
// for logging.
package privacy

import (
	"log/slog"

	"github.com/IvoFFaria/Jarvis-IA/pkg/security"
)

// Recursion bound for Sanitize. JSON decoded from a wire payload is always
// finite, but callers may hand us hand-built structures; anything nested
// deeper than this is replaced with a marker instead of recursed.
const maxSanitizeDepth = 128

// DepthExceededMarker replaces values nested beyond maxSanitizeDepth.
const DepthExceededMarker = "[REDACTED_DEPTH_EXCEEDED]"

// Sanitizer applies the pattern library to text and structured payloads.
// It is stateless and safe for unbounded concurrent use.
type Sanitizer struct {
	logger *slog.Logger
}

// NewSanitizer returns a Sanitizer logging through the default handler.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{logger: slog.Default().With("component", "privacy")}
}

// ContainsSensitiveData reports whether text contains a sensitive keyword
// or matches any detection pattern. The email pattern is deliberately not
// consulted: addresses are tolerated in conversational text and handled at
// masking time instead.
func (s *Sanitizer) ContainsSensitiveData(text string) bool {
	if security.ContainsSensitiveKeyword(text) {
		return true
	}
	for _, pattern := range security.DetectionPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// MaskPII applies the fixed masking sequence to text. The substitution
// order is part of the contract: credential patterns run before anything
// could partially consume them, and replacement tokens match no pattern,
// so masking is idempotent.
func (s *Sanitizer) MaskPII(text string) string {
	masked := text
	for _, m := range security.Maskings {
		masked = m.Pattern.ReplaceAllString(masked, m.Replacement)
	}
	return masked
}

// Sanitize recursively masks every string inside a decoded JSON value.
// Maps and slices are cloned, never mutated in place; numbers, booleans,
// and nulls pass through unchanged.
func (s *Sanitizer) Sanitize(value any) any {
	return s.sanitizeValue(value, 0)
}

// SanitizeMap is the common case of an object payload.
func (s *Sanitizer) SanitizeMap(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out, _ := s.sanitizeValue(data, 0).(map[string]any)
	return out
}

func (s *Sanitizer) sanitizeValue(value any, depth int) any {
	if depth > maxSanitizeDepth {
		return DepthExceededMarker
	}

	switch v := value.(type) {
	case string:
		if s.ContainsSensitiveData(v) {
			s.logger.Warn("sensitive data detected in payload value")
		}
		return s.MaskPII(v)
	case map[string]any:
		cloned := make(map[string]any, len(v))
		for key, elem := range v {
			cloned[key] = s.sanitizeValue(elem, depth+1)
		}
		return cloned
	case []any:
		cloned := make([]any, len(v))
		for i, elem := range v {
			cloned[i] = s.sanitizeValue(elem, depth+1)
		}
		return cloned
	default:
		return value
	}
}
