package summary

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
)

// ParseSummary decodes an LLM reply into a summary, tolerating markdown fences
func ParseSummary(reply string) (*entities.Summary, error) {
	content := extractJSON(reply)

	var s entities.Summary
	if err := json.Unmarshal([]byte(content), &s); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	s.Normalize()
	return &s, nil
}

// extractJSON strips ```json fences and any chatter around the outermost object
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start > 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

// Merge combines per-part summaries, dropping duplicate items.
// Definitions are deduplicated by term, case insensitively.
func Merge(parts []*entities.Summary) *entities.Summary {
	out := &entities.Summary{}
	seen := map[string]bool{}
	add := func(list []string, kind string, items []string) []string {
		for _, it := range items {
			it = strings.TrimSpace(it)
			key := kind + ":" + strings.ToLower(it)
			if it == "" || seen[key] {
				continue
			}
			seen[key] = true
			list = append(list, it)
		}
		return list
	}

	briefs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == nil {
			continue
		}
		out.MainTopics = add(out.MainTopics, "topic", p.MainTopics)
		out.ImportantFacts = add(out.ImportantFacts, "fact", p.ImportantFacts)
		out.Assignments = add(out.Assignments, "task", p.Assignments)
		for _, d := range p.KeyDefinitions {
			key := "term:" + strings.ToLower(strings.TrimSpace(d.Term))
			if strings.TrimSpace(d.Term) == "" || seen[key] {
				continue
			}
			seen[key] = true
			out.KeyDefinitions = append(out.KeyDefinitions, d)
		}
		if b := strings.TrimSpace(p.BriefSummary); b != "" {
			briefs = append(briefs, b)
		}
	}
	out.DetailedSummary = strings.Join(briefs, "\n\n")
	if len(briefs) > 0 {
		out.BriefSummary = briefs[0]
	}
	out.Normalize()
	return out
}
