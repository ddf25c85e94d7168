package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/IvoFFaria/Jarvis-IA/pkg/security"
	"github.com/IvoFFaria/Jarvis-IA/pkg/store"
)

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Manager owns the skill library.
type Manager struct {
	docs    store.DocumentStore
	catalog *security.Catalog
	clock   Clock
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// NewManager builds a Manager validating steps against catalog.
func NewManager(docs store.DocumentStore, catalog *security.Catalog, opts ...Option) *Manager {
	m := &Manager{
		docs:    docs,
		catalog: catalog,
		clock:   systemClock{},
		logger:  slog.Default().With("component", "skills"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) validateSteps(steps []Step) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: at least one step is required", ErrInvalidSkill)
	}
	for _, step := range steps {
		if !m.catalog.IsAllowed(step.Action) {
			return fmt.Errorf("%w: %q", ErrActionNotAllowed, step.Action)
		}
	}
	return nil
}

// Create validates and stores a new skill.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Skill, error) {
	if req.Name == "" || req.Description == "" || req.WhenToUse == "" {
		return nil, fmt.Errorf("%w: name, description and when_to_use are required", ErrInvalidSkill)
	}
	if err := m.validateSteps(req.Steps); err != nil {
		return nil, err
	}

	existing, err := m.docs.Find(ctx, CollectionSkills, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("skills: count: %w", err)
	}
	if len(existing) >= security.MaxSkillsPerUser {
		return nil, fmt.Errorf("%w: at most %d skills may be stored", ErrLimitExceeded, security.MaxSkillsPerUser)
	}

	now := m.clock.Now()
	skill := Skill{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		WhenToUse:   req.WhenToUse,
		Inputs:      req.Inputs,
		Outputs:     req.Outputs,
		Steps:       req.Steps,
		CodeSnippet: req.CodeSnippet,
		Tests:       req.Tests,
		Risks:       req.Risks,
		Tags:        req.Tags,
		Version:     1,
		IsEnabled:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	doc, err := skill.toDoc()
	if err != nil {
		return nil, err
	}
	if err := m.docs.Insert(ctx, CollectionSkills, doc); err != nil {
		return nil, fmt.Errorf("skills: create: %w", err)
	}
	m.logger.Info("skill created", "id", skill.ID, "name", skill.Name)
	return &skill, nil
}

// Get returns the skill with the given id.
func (m *Manager) Get(ctx context.Context, id string) (*Skill, error) {
	docs, err := m.docs.Find(ctx, CollectionSkills, store.Filter{
		Eq: map[string]string{"id": id},
	})
	if err != nil {
		return nil, fmt.Errorf("skills: get: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	skill, err := skillFromDoc(docs[0])
	if err != nil {
		return nil, err
	}
	return &skill, nil
}

// List returns stored skills, optionally only enabled ones, capped at
// limit. A non-positive limit defaults to 50.
func (m *Manager) List(ctx context.Context, enabledOnly bool, limit int) ([]Skill, error) {
	if limit <= 0 {
		limit = 50
	}
	docs, err := m.docs.Find(ctx, CollectionSkills, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("skills: list: %w", err)
	}
	out := make([]Skill, 0, len(docs))
	for _, doc := range docs {
		skill, err := skillFromDoc(doc)
		if err != nil {
			return nil, err
		}
		if enabledOnly && !skill.IsEnabled {
			continue
		}
		out = append(out, skill)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Search matches enabled skills whose name or description contains the
// query (case insensitive) or whose tags include it exactly.
func (m *Manager) Search(ctx context.Context, query string, limit int) ([]Skill, error) {
	if limit <= 0 {
		limit = 5
	}
	all, err := m.List(ctx, true, 0)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	out := make([]Skill, 0, limit)
	for _, skill := range all {
		if matchesQuery(skill, q) {
			out = append(out, skill)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func matchesQuery(skill Skill, q string) bool {
	if strings.Contains(strings.ToLower(skill.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(skill.Description), q) {
		return true
	}
	for _, tag := range skill.Tags {
		if strings.ToLower(tag) == q {
			return true
		}
	}
	return false
}

// Update applies a partial update, bumping the version. Steps, when
// present, are revalidated against the catalog.
func (m *Manager) Update(ctx context.Context, id string, req UpdateRequest) (*Skill, error) {
	skill, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Steps != nil {
		if err := m.validateSteps(*req.Steps); err != nil {
			return nil, err
		}
		skill.Steps = *req.Steps
	}
	if req.Name != nil {
		skill.Name = *req.Name
	}
	if req.Description != nil {
		skill.Description = *req.Description
	}
	if req.WhenToUse != nil {
		skill.WhenToUse = *req.WhenToUse
	}
	if req.CodeSnippet != nil {
		skill.CodeSnippet = *req.CodeSnippet
	}
	if req.Tests != nil {
		skill.Tests = *req.Tests
	}
	if req.Risks != nil {
		skill.Risks = *req.Risks
	}
	if req.Tags != nil {
		skill.Tags = *req.Tags
	}
	if req.IsEnabled != nil {
		skill.IsEnabled = *req.IsEnabled
	}
	skill.Version++
	skill.UpdatedAt = m.clock.Now()

	doc, err := skill.toDoc()
	if err != nil {
		return nil, err
	}
	n, err := m.docs.Update(ctx, CollectionSkills, store.Filter{
		Eq: map[string]string{"id": id},
	}, doc)
	if err != nil {
		return nil, fmt.Errorf("skills: update: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.logger.Info("skill updated", "id", id, "version", skill.Version)
	return skill, nil
}

// Disable turns a skill off without removing its definition.
func (m *Manager) Disable(ctx context.Context, id string) error {
	disabled := false
	_, err := m.Update(ctx, id, UpdateRequest{IsEnabled: &disabled})
	return err
}

// CreateFromExtraction builds a skill from untrusted extraction output.
// The payload goes through the same validation as a direct create, so a
// model cannot register steps outside the allowlist.
func (m *Manager) CreateFromExtraction(ctx context.Context, data map[string]any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSkill, err)
	}
	var req CreateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSkill, err)
	}
	skill, err := m.Create(ctx, req)
	if err != nil {
		return "", err
	}
	return skill.ID, nil
}
