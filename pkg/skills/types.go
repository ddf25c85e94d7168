// Package skills stores reusable procedures the assistant can propose.
// Every step of a skill names an action, and only allowlisted actions are
// accepted, so a stored skill can never smuggle in a blocked operation.
package skills

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IvoFFaria/Jarvis-IA/pkg/store"
)

// CollectionSkills is the document store collection name.
const CollectionSkills = "skills"

var (
	// ErrNotFound reports a missing skill id.
	ErrNotFound = errors.New("skills: not found")
	// ErrInvalidSkill rejects malformed skill definitions.
	ErrInvalidSkill = errors.New("skills: invalid definition")
	// ErrActionNotAllowed rejects steps naming non-allowlisted actions.
	ErrActionNotAllowed = errors.New("skills: action not allowed")
	// ErrLimitExceeded reports the stored-skill cap being reached.
	ErrLimitExceeded = errors.New("skills: limit exceeded")
)

// Input describes one parameter a skill expects.
type Input struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Output describes one result a skill produces.
type Output struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Step is one ordered action of a skill's procedure.
type Step struct {
	Order       int            `json:"order"`
	Description string         `json:"description"`
	Action      string         `json:"action"`
	Params      map[string]any `json:"params,omitempty"`
}

// Test documents an example invocation of a skill.
type Test struct {
	Description    string         `json:"description"`
	Input          map[string]any `json:"input"`
	ExpectedOutput any            `json:"expected_output"`
}

// Skill is a stored reusable procedure. CodeSnippet is documentation
// only and is never executed.
type Skill struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	WhenToUse   string    `json:"when_to_use"`
	Inputs      []Input   `json:"inputs"`
	Outputs     []Output  `json:"outputs"`
	Steps       []Step    `json:"steps"`
	CodeSnippet string    `json:"code_snippet,omitempty"`
	Tests       []Test    `json:"tests"`
	Risks       []string  `json:"risks"`
	Tags        []string  `json:"tags"`
	Version     int       `json:"version"`
	IsEnabled   bool      `json:"is_enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRequest carries a new skill definition.
type CreateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	WhenToUse   string   `json:"when_to_use"`
	Inputs      []Input  `json:"inputs"`
	Outputs     []Output `json:"outputs"`
	Steps       []Step   `json:"steps"`
	CodeSnippet string   `json:"code_snippet,omitempty"`
	Tests       []Test   `json:"tests"`
	Risks       []string `json:"risks"`
	Tags        []string `json:"tags"`
}

// UpdateRequest carries a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	WhenToUse   *string   `json:"when_to_use,omitempty"`
	Steps       *[]Step   `json:"steps,omitempty"`
	CodeSnippet *string   `json:"code_snippet,omitempty"`
	Tests       *[]Test   `json:"tests,omitempty"`
	Risks       *[]string `json:"risks,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	IsEnabled   *bool     `json:"is_enabled,omitempty"`
}

func (s Skill) toDoc() (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("skills: encode skill: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("skills: encode skill: %w", err)
	}
	// Timestamps use the store's canonical format.
	doc["created_at"] = store.FormatTime(s.CreatedAt)
	doc["updated_at"] = store.FormatTime(s.UpdatedAt)
	return doc, nil
}

func skillFromDoc(doc map[string]any) (Skill, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return Skill{}, fmt.Errorf("skills: decode skill: %w", err)
	}
	var s Skill
	if err := json.Unmarshal(raw, &s); err != nil {
		return Skill{}, fmt.Errorf("skills: decode skill: %w", err)
	}
	return s, nil
}
