package security

import (
	"regexp"
	"strings"
)

// PII detection patterns. Compiled once at init; the substitution order in
// the sanitizer matters, so the masking sequence is an ordered slice
// rather than a map.
var (
	EmailPattern      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	PhonePattern      = regexp.MustCompile(`\b(?:\+?[\d\s()-]{9,})\b`)
	SSNPattern        = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	CreditCardPattern = regexp.MustCompile(`\b\d{4}[-.\s]?\d{4}[-.\s]?\d{4}[-.\s]?\d{4}\b`)
	PasswordPattern   = regexp.MustCompile(`(?i)password[\s:=]+\S+`)
	TokenPattern      = regexp.MustCompile(`(?i)(?:token|key|secret)[\s:=]+\S+`)
	APIKeyPattern     = regexp.MustCompile(`(?i)(?:api[_-]?key|apikey)[\s:=]+\S+`)
)

// Masking replaces one pattern with a literal redaction token. Replacement
// tokens contain no digits or separators, so re-running a mask over
// already-redacted text is a no-op.
type Masking struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// Maskings is the fixed substitution sequence applied by the sanitizer.
// The order is part of the persisted-output contract: the phone pattern
// runs second and its character class covers digit runs with spaces and
// hyphens, so SSN- and card-shaped text inside such a run is labeled
// [PHONE_REDACTED]. Changing the order changes what gets persisted.
var Maskings = []Masking{
	{Name: "email", Pattern: EmailPattern, Replacement: "[EMAIL_REDACTED]"},
	{Name: "phone", Pattern: PhonePattern, Replacement: "[PHONE_REDACTED]"},
	{Name: "ssn", Pattern: SSNPattern, Replacement: "[SSN_REDACTED]"},
	{Name: "credit_card", Pattern: CreditCardPattern, Replacement: "[CARD_REDACTED]"},
	{Name: "password", Pattern: PasswordPattern, Replacement: "[PASSWORD_REDACTED]"},
	{Name: "token", Pattern: TokenPattern, Replacement: "[TOKEN_REDACTED]"},
	{Name: "api_key", Pattern: APIKeyPattern, Replacement: "[APIKEY_REDACTED]"},
}

// DetectionPatterns are the patterns consulted by sensitive-data
// detection. Email is excluded: addresses are tolerated in conversational
// text and only masked at persistence time.
var DetectionPatterns = []*regexp.Regexp{
	PhonePattern,
	SSNPattern,
	CreditCardPattern,
	PasswordPattern,
	TokenPattern,
	APIKeyPattern,
}

// SensitiveKeywords trigger detection on case-insensitive substring match.
var SensitiveKeywords = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"private_key",
	"credential",
	"auth_token",
}

// ContainsSensitiveKeyword reports whether text contains any sensitive
// keyword, case-insensitively.
func ContainsSensitiveKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range SensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
