package skills

import (
	"context"
	"fmt"
	"strings"

	"github.com/IvoFFaria/Jarvis-IA/pkg/llm"
)

const retrieverPrompt = `You select skills relevant to a user request.
You will receive the request and a catalog of available skills.
Respond with JSON only:
{"selected_skills": [{"skill_id": "...", "reason": "..."}]}
Select only skills that clearly apply. An empty list is a valid answer.
Never invent skill ids that are not in the catalog.`

// Retriever picks the skills relevant to a user request via the model
// provider. Selection failures degrade to an empty result; retrieval is
// advisory and must never block a chat turn.
type Retriever struct {
	manager  *Manager
	provider llm.Provider
}

// NewRetriever builds a Retriever over the skill library.
func NewRetriever(manager *Manager, provider llm.Provider) *Retriever {
	return &Retriever{manager: manager, provider: provider}
}

// Relevant returns up to limit enabled skills that apply to userQuery.
func (r *Retriever) Relevant(ctx context.Context, userQuery string, limit int) ([]Skill, error) {
	if limit <= 0 {
		limit = 2
	}
	all, err := r.manager.List(ctx, true, 0)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}

	var b strings.Builder
	for _, skill := range all {
		fmt.Fprintf(&b, "ID: %s\nName: %s\nWhen to use: %s\nTags: %s\n\n",
			skill.ID, skill.Name, skill.WhenToUse, strings.Join(skill.Tags, ", "))
	}
	userMessage := fmt.Sprintf("User request: %s\n\nAvailable skills:\n%s\nSelect at most %d relevant skills.",
		userQuery, b.String(), limit)

	response, err := r.provider.Generate(ctx, retrieverPrompt, userMessage)
	if err != nil {
		r.manager.logger.Warn("skill retrieval failed", "error", err)
		return nil, nil
	}

	data := llm.ExtractJSON(response)
	if data == nil {
		return nil, nil
	}
	selected, _ := data["selected_skills"].([]any)

	ids := make(map[string]struct{})
	for _, item := range selected {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := entry["skill_id"].(string); ok {
			ids[id] = struct{}{}
		}
	}

	out := make([]Skill, 0, limit)
	for _, skill := range all {
		if _, ok := ids[skill.ID]; ok {
			out = append(out, skill)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
