// Package gate implements the action authorization gate. Every action
// proposed by the untrusted LLM collaborator passes through ValidateAction
// before anything else happens; denial is the fail-safe default.
package gate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/IvoFFaria/Jarvis-IA/pkg/privacy"
	"github.com/IvoFFaria/Jarvis-IA/pkg/security"
)

// Reason codes carried on denials. Denials are decisions, not errors;
// callers inform the user and do not execute.
const (
	ReasonBlocked         = "blocked"
	ReasonNotAllowlisted  = "not_allowlisted"
	ReasonLevelRestricted = "level_restricted"
	ReasonValidated       = "validated"
)

// ErrInvalidRequest marks malformed authorization requests (empty action,
// unknown permission level). Malformed input is surfaced, never coerced.
var ErrInvalidRequest = errors.New("invalid authorization request")

// Decision is the result of a single evaluation. Created fresh per call
// and never stored.
type Decision struct {
	Allowed          bool           `json:"allowed"`
	Reason           string         `json:"reason"`
	ReasonCode       string         `json:"reason_code"`
	SanitizedPayload map[string]any `json:"sanitized_payload,omitempty"`
}

// Gate combines the action catalog, permission levels, and the sanitizer
// into authorization decisions. It holds no mutable state and is safe for
// unbounded concurrent use.
type Gate struct {
	catalog   *security.Catalog
	sanitizer *privacy.Sanitizer
	logger    *slog.Logger
}

// New creates a Gate over the given catalog.
func New(catalog *security.Catalog) *Gate {
	return &Gate{
		catalog:   catalog,
		sanitizer: privacy.NewSanitizer(),
		logger:    slog.Default().With("component", "gate"),
	}
}

// ValidateAction decides whether action may proceed under level. Checks
// run in strict priority order: the permanent block list wins over
// everything, unknown actions are denied by default, then the level
// ceiling applies. Allowed decisions carry the sanitized payload when one
// was provided.
func (g *Gate) ValidateAction(action string, level security.PermissionLevel, payload map[string]any) (Decision, error) {
	if action == "" {
		return Decision{}, fmt.Errorf("%w: empty action", ErrInvalidRequest)
	}
	if !level.Valid() {
		return Decision{}, fmt.Errorf("%w: unknown permission level %q", ErrInvalidRequest, level)
	}

	if g.catalog.IsBlocked(action) {
		g.logger.Warn("action blocked", "action", action)
		return Decision{
			Allowed:    false,
			Reason:     fmt.Sprintf("action %q is on the permanent block list (OS/network/deploy)", action),
			ReasonCode: ReasonBlocked,
		}, nil
	}

	if !g.catalog.IsAllowed(action) {
		g.logger.Warn("action not allowlisted", "action", action)
		return Decision{
			Allowed:    false,
			Reason:     fmt.Sprintf("action %q is not on the allow list", action),
			ReasonCode: ReasonNotAllowlisted,
		}, nil
	}

	if level == security.LevelReadOnly && !g.catalog.IsReadPermitted(action) {
		return Decision{
			Allowed:    false,
			Reason:     fmt.Sprintf("permission level READ_ONLY does not permit action %q", action),
			ReasonCode: ReasonLevelRestricted,
		}, nil
	}

	var sanitized map[string]any
	if payload != nil {
		sanitized = g.sanitizer.SanitizeMap(payload)
	}

	g.logger.Info("action validated", "action", action, "level", string(level))
	return Decision{
		Allowed:          true,
		Reason:           "action validated",
		ReasonCode:       ReasonValidated,
		SanitizedPayload: sanitized,
	}, nil
}

// RequiresApproval reports whether action needs explicit user approval
// under level. Independent of ValidateAction: it does not re-check
// allow/block status.
func (g *Gate) RequiresApproval(action string, level security.PermissionLevel) bool {
	switch level {
	case security.LevelExecuteApproved:
		return g.catalog.IsWriteAction(action)
	case security.LevelDraftOnly:
		// Draft mode proposes, never executes autonomously.
		return true
	default:
		return false
	}
}

// Sanitize exposes payload sanitization to callers that persist data
// outside the validation path.
func (g *Gate) Sanitize(payload map[string]any) map[string]any {
	return g.sanitizer.SanitizeMap(payload)
}
