package skills

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvoFFaria/Jarvis-IA/pkg/llm"
	"github.com/IvoFFaria/Jarvis-IA/pkg/security"
	"github.com/IvoFFaria/Jarvis-IA/pkg/store"
)

func newRetrieverFixture(t *testing.T) (*Manager, []Skill) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(store.NewMemoryStore(), security.DefaultCatalog(), WithClock(clock))
	ctx := context.Background()

	var created []Skill
	for _, name := range []string{"daily summary", "weekly mail", "trip planner"} {
		req := validCreate()
		req.Name = name
		skill, err := m.Create(ctx, req)
		require.NoError(t, err)
		created = append(created, *skill)
	}
	return m, created
}

func TestRelevantSelectsByID(t *testing.T) {
	m, created := newRetrieverFixture(t)

	response := fmt.Sprintf(`{"selected_skills": [{"skill_id": %q, "reason": "mail request"}]}`, created[1].ID)
	r := NewRetriever(m, llm.NewMockProvider(response))

	out, err := r.Relevant(context.Background(), "send my weekly mail", 2)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "weekly mail", out[0].Name)
}

func TestRelevantIgnoresInventedIDs(t *testing.T) {
	m, _ := newRetrieverFixture(t)

	r := NewRetriever(m, llm.NewMockProvider(`{"selected_skills": [{"skill_id": "made-up-id"}]}`))
	out, err := r.Relevant(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRelevantCapsResults(t *testing.T) {
	m, created := newRetrieverFixture(t)

	response := fmt.Sprintf(`{"selected_skills": [{"skill_id": %q}, {"skill_id": %q}, {"skill_id": %q}]}`,
		created[0].ID, created[1].ID, created[2].ID)
	r := NewRetriever(m, llm.NewMockProvider(response))

	out, err := r.Relevant(context.Background(), "everything", 2)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestRelevantDegradesOnBadResponse(t *testing.T) {
	m, _ := newRetrieverFixture(t)

	r := NewRetriever(m, llm.NewMockProvider("not json at all"))
	out, err := r.Relevant(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRelevantEmptyLibrarySkipsModelCall(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(store.NewMemoryStore(), security.DefaultCatalog(), WithClock(clock))
	provider := llm.NewMockProvider()

	r := NewRetriever(m, provider)
	out, err := r.Relevant(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, provider.Calls())
}
