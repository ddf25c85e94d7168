package skills

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvoFFaria/Jarvis-IA/pkg/security"
	"github.com/IvoFFaria/Jarvis-IA/pkg/store"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestManager(t *testing.T) (*Manager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewManager(store.NewMemoryStore(), security.DefaultCatalog(), WithClock(clock)), clock
}

func validCreate() CreateRequest {
	return CreateRequest{
		Name:        "daily summary",
		Description: "Builds a summary of today's tasks",
		WhenToUse:   "When the user asks for a daily report",
		Steps: []Step{
			{Order: 1, Description: "Fetch today's tasks", Action: "read_tasks"},
			{Order: 2, Description: "Write the summary note", Action: "create_note"},
		},
		Tags: []string{"summary", "daily"},
	}
}

func TestCreateAndGet(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()

	skill, err := m.Create(ctx, validCreate())
	require.NoError(t, err)
	assert.NotEmpty(t, skill.ID)
	assert.Equal(t, 1, skill.Version)
	assert.True(t, skill.IsEnabled)
	assert.Equal(t, clock.now, skill.CreatedAt)

	got, err := m.Get(ctx, skill.ID)
	require.NoError(t, err)
	assert.Equal(t, skill.Name, got.Name)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, "read_tasks", got.Steps[0].Action)
}

func TestCreateRejectsBlockedStepAction(t *testing.T) {
	m, _ := newTestManager(t)

	req := validCreate()
	req.Steps = append(req.Steps, Step{Order: 3, Description: "oops", Action: "execute_command"})
	_, err := m.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrActionNotAllowed)
}

func TestCreateRejectsUnknownStepAction(t *testing.T) {
	m, _ := newTestManager(t)

	req := validCreate()
	req.Steps[0].Action = "divine_intervention"
	_, err := m.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrActionNotAllowed)
}

func TestCreateValidation(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	req := validCreate()
	req.Name = ""
	_, err := m.Create(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidSkill)

	req = validCreate()
	req.Steps = nil
	_, err = m.Create(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidSkill)
}

func TestCreateEnforcesCap(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	for i := 0; i < security.MaxSkillsPerUser; i++ {
		req := validCreate()
		req.Name = fmt.Sprintf("skill %d", i)
		_, err := m.Create(ctx, req)
		require.NoError(t, err)
	}

	_, err := m.Create(ctx, validCreate())
	assert.ErrorIs(t, err, ErrLimitExceeded)
}

func TestGetNotFound(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEnabledOnly(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	a, err := m.Create(ctx, validCreate())
	require.NoError(t, err)
	req := validCreate()
	req.Name = "other skill"
	_, err = m.Create(ctx, req)
	require.NoError(t, err)

	require.NoError(t, m.Disable(ctx, a.ID))

	enabled, err := m.List(ctx, true, 0)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "other skill", enabled[0].Name)

	all, err := m.List(ctx, false, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSearchMatchesNameDescriptionAndTags(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, validCreate())
	require.NoError(t, err)
	req := validCreate()
	req.Name = "send weekly mail"
	req.Description = "Drafts the weekly status email"
	req.Tags = []string{"email"}
	_, err = m.Create(ctx, req)
	require.NoError(t, err)

	byName, err := m.Search(ctx, "WEEKLY", 5)
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "send weekly mail", byName[0].Name)

	byTag, err := m.Search(ctx, "email", 5)
	require.NoError(t, err)
	assert.Len(t, byTag, 1)

	none, err := m.Search(ctx, "unrelated", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateBumpsVersionAndValidatesSteps(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()

	skill, err := m.Create(ctx, validCreate())
	require.NoError(t, err)

	clock.now = clock.now.Add(time.Hour)
	name := "renamed"
	updated, err := m.Update(ctx, skill.ID, UpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, clock.now, updated.UpdatedAt)
	assert.Equal(t, skill.CreatedAt, updated.CreatedAt)

	badSteps := []Step{{Order: 1, Description: "nope", Action: "modify_system_files"}}
	_, err = m.Update(ctx, skill.ID, UpdateRequest{Steps: &badSteps})
	assert.ErrorIs(t, err, ErrActionNotAllowed)

	// The rejected update must not have touched the stored skill.
	got, err := m.Get(ctx, skill.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "read_tasks", got.Steps[0].Action)
}

func TestUpdateNotFound(t *testing.T) {
	m, _ := newTestManager(t)
	name := "x"
	_, err := m.Update(context.Background(), "missing", UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateFromExtraction(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	id, err := m.CreateFromExtraction(ctx, map[string]any{
		"name":        "weekly report",
		"description": "Builds the weekly report",
		"when_to_use": "When the user asks for a weekly report",
		"steps": []any{
			map[string]any{"order": 1, "description": "gather tasks", "action": "read_tasks"},
		},
	})
	require.NoError(t, err)

	skill, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "weekly report", skill.Name)
}

func TestCreateFromExtractionRejectsBlockedAction(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.CreateFromExtraction(context.Background(), map[string]any{
		"name":        "evil",
		"description": "tries to escalate",
		"when_to_use": "never",
		"steps": []any{
			map[string]any{"order": 1, "description": "run it", "action": "execute_command"},
		},
	})
	assert.ErrorIs(t, err, ErrActionNotAllowed)
}
