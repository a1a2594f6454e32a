package usecase

import (
	"encoding/json"
	"strings"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
)

// answerFieldNames are the field variants agents use for the answer text,
// checked in order.
var answerFieldNames = []string{"reponse", "response", "answer", "text"}

// sourceFieldNames are the field variants agents use for their source list
var sourceFieldNames = []string{"sources", "sources_officielles", "references"}

// Normalize turns a raw agent payload into its canonical form. Each step is
// skipped when its precondition is absent, and applying Normalize to an
// already normalized payload changes nothing.
func Normalize(raw []byte) model.NormalizedResponse {
	text := strings.TrimSpace(string(raw))

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		// Not a JSON object: the raw text is the answer.
		return model.NormalizedResponse{AnswerText: stripCodeFence(text)}
	}

	dropInertHandoff(payload)

	result := model.NormalizedResponse{}

	for _, name := range answerFieldNames {
		if v, ok := payload[name].(string); ok {
			result.AnswerText = stripCodeFence(strings.TrimSpace(v))
			delete(payload, name)
			break
		}
	}

	for _, name := range sourceFieldNames {
		v, ok := payload[name]
		if !ok {
			continue
		}
		delete(payload, name)
		if result.Sources == nil {
			result.Sources = parseSources(v)
		}
	}

	if len(payload) > 0 {
		result.ExtraFields = payload
	}

	return result
}

// dropInertHandoff removes a handoff object whose needed flag is false.
// Inert handoff metadata must never reach the end user.
func dropInertHandoff(payload map[string]any) {
	handoff, ok := payload["handoff"].(map[string]any)
	if !ok {
		return
	}
	if needed, ok := handoff["needed"].(bool); ok && !needed {
		delete(payload, "handoff")
	}
}

// fenceLanguageTags are the language tags agents put on code fences. A first
// line outside this set is answer text and must be kept.
var fenceLanguageTags = map[string]bool{
	"json": true, "js": true, "javascript": true,
	"html": true, "xml": true,
	"yaml": true, "yml": true,
	"markdown": true, "md": true,
	"text": true, "txt": true,
}

// stripCodeFence removes a wrapping markdown code fence, with or without a
// language tag.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	body := text[3:]
	if idx := strings.Index(body, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(body[:idx])
		if firstLine == "" || fenceLanguageTags[strings.ToLower(firstLine)] {
			body = body[idx+1:]
		}
	}

	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

// parseSources collapses the source list variants into canonical refs.
// Entries may use titre/title and url/lien; plain strings become URLs.
func parseSources(v any) []model.SourceRef {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	refs := make([]model.SourceRef, 0, len(items))
	for _, item := range items {
		switch s := item.(type) {
		case string:
			refs = append(refs, model.SourceRef{URL: s})
		case map[string]any:
			ref := model.SourceRef{}
			if title, ok := s["titre"].(string); ok {
				ref.Title = title
			} else if title, ok := s["title"].(string); ok {
				ref.Title = title
			}
			if url, ok := s["url"].(string); ok {
				ref.URL = url
			} else if url, ok := s["lien"].(string); ok {
				ref.URL = url
			}
			if ref.Title != "" || ref.URL != "" {
				refs = append(refs, ref)
			}
		}
	}

	if len(refs) == 0 {
		return nil
	}
	return refs
}
