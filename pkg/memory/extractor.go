package memory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/IvoFFaria/Jarvis-IA/pkg/llm"
	"github.com/IvoFFaria/Jarvis-IA/pkg/security"
)

// extractionSchema constrains what the model may hand back. Anything that
// does not match is discarded wholesale rather than partially trusted.
const extractionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "memories": {
      "type": "object",
      "properties": {
        "hot": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["key", "value"],
            "properties": {
              "key": {"type": "string", "minLength": 1},
              "tags": {"type": "array", "items": {"type": "string"}},
              "expires_in_days": {"type": "integer", "minimum": 1, "maximum": 365}
            }
          }
        },
        "cold": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["key", "value"],
            "properties": {
              "key": {"type": "string", "minLength": 1},
              "tags": {"type": "array", "items": {"type": "string"}}
            }
          }
        },
        "archive": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["key", "value"],
            "properties": {
              "key": {"type": "string", "minLength": 1},
              "tags": {"type": "array", "items": {"type": "string"}},
              "reason": {"type": "string"}
            }
          }
        }
      }
    },
    "skills": {"type": "array", "items": {"type": "object"}},
    "summary": {"type": "string"}
  }
}`

var compiledExtractionSchema = jsonschema.MustCompileString("extraction.schema.json", extractionSchema)

// SkillCreator persists a skill described by extraction output. The
// implementation validates the payload; a failed skill never aborts
// memory processing.
type SkillCreator interface {
	CreateFromExtraction(ctx context.Context, data map[string]any) (string, error)
}

// ProcessRequest carries one conversation chunk to analyze.
type ProcessRequest struct {
	UserID            string         `json:"user_id"`
	ConversationChunk string         `json:"conversation_chunk"`
	Context           map[string]any `json:"context,omitempty"`
}

// ProcessResponse reports what the extraction created.
type ProcessResponse struct {
	HotCreated    []HotMemory     `json:"hot_created"`
	ColdCreated   []ColdMemory    `json:"cold_created"`
	Archived      []ArchiveMemory `json:"archived"`
	SkillsCreated []string        `json:"skills_created"`
	Summary       string          `json:"summary"`
}

// Extractor turns conversation chunks into tiered memories via the model
// provider. Model output is untrusted: it is schema validated, capped and
// sanitized before anything is persisted.
type Extractor struct {
	manager  *Manager
	provider llm.Provider
	skills   SkillCreator
	logger   *slog.Logger
}

// NewExtractor builds an Extractor. skills may be nil, in which case
// extracted skills are dropped.
func NewExtractor(manager *Manager, provider llm.Provider, skills SkillCreator) *Extractor {
	return &Extractor{
		manager:  manager,
		provider: provider,
		skills:   skills,
		logger:   slog.Default().With("component", "memory.extractor"),
	}
}

// Process sweeps the user's expired Hot records, asks the model to
// extract memories from the conversation chunk and persists whatever
// survives validation. An unparseable or schema-invalid model response
// yields an empty result, not an error; store failures are errors.
func (e *Extractor) Process(ctx context.Context, req ProcessRequest) (*ProcessResponse, error) {
	if req.UserID == "" || req.ConversationChunk == "" {
		return nil, fmt.Errorf("%w: user id and conversation chunk are required", ErrInvalidRecord)
	}

	if _, err := e.manager.SweepExpired(ctx, req.UserID); err != nil {
		return nil, err
	}

	userMessage := fmt.Sprintf("Analyze this conversation and extract relevant information:\n\n%s", req.ConversationChunk)
	raw, err := e.provider.Generate(ctx, securityPrompt+"\n\n"+extractionPrompt, userMessage)
	if err != nil {
		return nil, fmt.Errorf("memory: extraction call: %w", err)
	}

	data := llm.ExtractJSON(raw)
	if data == nil {
		e.logger.Warn("no JSON object in model response", "user_id", req.UserID)
		return &ProcessResponse{Summary: "no memories extracted"}, nil
	}
	if err := compiledExtractionSchema.Validate(data); err != nil {
		e.logger.Warn("extraction failed schema validation", "user_id", req.UserID, "error", err)
		return &ProcessResponse{Summary: "extraction discarded: invalid shape"}, nil
	}

	resp := &ProcessResponse{Summary: "processing complete"}
	if s, ok := data["summary"].(string); ok && s != "" {
		resp.Summary = s
	}

	memories, _ := data["memories"].(map[string]any)

	for _, item := range capItems(memories, "hot") {
		ttl := 0
		if d, ok := item["expires_in_days"].(float64); ok {
			ttl = int(d)
		}
		rec, err := e.manager.RecordHot(ctx, req.UserID, itemKey(item), item["value"], itemTags(item), ttl)
		if err != nil {
			return resp, err
		}
		resp.HotCreated = append(resp.HotCreated, *rec)
	}

	for _, item := range capItems(memories, "cold") {
		rec, err := e.manager.RecordCold(ctx, req.UserID, itemKey(item), item["value"], itemTags(item))
		if err != nil {
			return resp, err
		}
		resp.ColdCreated = append(resp.ColdCreated, *rec)
	}

	for _, item := range capItems(memories, "archive") {
		reason, _ := item["reason"].(string)
		rec, err := e.manager.RecordArchive(ctx, req.UserID, itemKey(item), item["value"], itemTags(item), reason)
		if err != nil {
			return resp, err
		}
		resp.Archived = append(resp.Archived, *rec)
	}

	if e.skills != nil {
		if skillsData, ok := data["skills"].([]any); ok {
			for _, s := range skillsData {
				skillMap, ok := s.(map[string]any)
				if !ok {
					continue
				}
				id, err := e.skills.CreateFromExtraction(ctx, skillMap)
				if err != nil {
					e.logger.Warn("skill from extraction rejected", "user_id", req.UserID, "error", err)
					continue
				}
				resp.SkillsCreated = append(resp.SkillsCreated, id)
			}
		}
	}

	return resp, nil
}

// capItems returns at most MaxMemoriesPerRequest well-formed entries from
// the named tier list.
func capItems(memories map[string]any, tier string) []map[string]any {
	raw, _ := memories[tier].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, m)
		if len(out) == security.MaxMemoriesPerRequest {
			break
		}
	}
	return out
}

func itemKey(item map[string]any) string {
	s, _ := item["key"].(string)
	return s
}

func itemTags(item map[string]any) []string {
	raw, _ := item["tags"].([]any)
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if s, ok := t.(string); ok {
			tags = append(tags, s)
		}
	}
	return tags
}
