package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"finch/internal/domain/insight"
	"finch/internal/shared/logging"
)

const defaultModel = "gemini-1.5-flash"

// Narrator rewrites rule-based insight text into friendlier prose with
// Gemini. It satisfies insight.Narrator. Errors are returned to the caller,
// which falls back to the rule-based text.
type Narrator struct {
	client *genai.Client
	model  string
}

// NewNarrator builds a narrator against the Gemini API. An empty apiKey
// returns an error so callers can disable narration cleanly.
func NewNarrator(ctx context.Context, apiKey, model string) (*Narrator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Narrator{client: client, model: model}, nil
}

type narratedLine struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Narrate sends the insight set to the model and merges the rewritten titles
// and descriptions back by ID. Lines the model drops or invents are ignored.
func (n *Narrator) Narrate(ctx context.Context, insights []insight.Insight) ([]insight.Insight, error) {
	var prompt strings.Builder
	prompt.WriteString("You are a personal finance assistant. Rewrite these generated insights in a warm, concise tone.\n")
	prompt.WriteString("Return a RAW JSON ARRAY of objects. Do NOT use markdown formatting.\n")
	prompt.WriteString("Each object must have: 'id' (unchanged), 'title', and 'description'. Keep every number exactly as given.\n\n")
	for _, i := range insights {
		line, err := json.Marshal(narratedLine{ID: i.ID, Title: i.Title, Description: i.Description})
		if err != nil {
			return nil, err
		}
		prompt.Write(line)
		prompt.WriteByte('\n')
	}

	resp, err := n.client.Models.GenerateContent(ctx, n.model, genai.Text(prompt.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini generation: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("empty response from model")
	}

	rawText := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			rawText += part.Text
		}
	}
	// Strip markdown fencing the model sometimes adds despite instructions.
	rawText = strings.TrimSpace(rawText)
	rawText = strings.TrimPrefix(rawText, "```json")
	rawText = strings.TrimPrefix(rawText, "```")
	rawText = strings.TrimSuffix(rawText, "```")

	var lines []narratedLine
	if err := json.Unmarshal([]byte(rawText), &lines); err != nil {
		return nil, fmt.Errorf("parsing model response: %w", err)
	}

	byID := make(map[string]narratedLine, len(lines))
	for _, l := range lines {
		byID[l.ID] = l
	}
	out := make([]insight.Insight, len(insights))
	copy(out, insights)
	matched := 0
	for i := range out {
		if l, ok := byID[out[i].ID]; ok && l.Title != "" && l.Description != "" {
			out[i].Title = l.Title
			out[i].Description = l.Description
			matched++
		}
	}
	if matched < len(out) {
		logging.FromContext(ctx).Debug().
			Int("matched", matched).
			Int("total", len(out)).
			Msg("model skipped some insight lines")
	}
	return out, nil
}
